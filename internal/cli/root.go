package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags
var Version = model.AppVersion

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "truthlens",
	Short: "TruthLens - credibility assessment for text, links and videos",
	Long: `TruthLens asks a hosted language model to assess the credibility of a
piece of content and turns the answer into a 0-100 score with supporting
indicators.

When no model is reachable (no credential, network failure, bad response)
TruthLens falls back to a local keyword heuristic and says so.

Source and fact-check counts in every result are illustrative: they are
derived from the score, nothing is actually checked. Links are never
fetched; only the link text is assessed.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for TruthLens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("truthlens v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.truthlens/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.String("provider", "", "model provider (openai, anthropic, ollama)")
	pf.String("model", "", "model name")
	pf.String("base-url", "", "model API base URL (OpenAI-compatible endpoints, Ollama)")
	pf.Bool("cache", false, "cache successful model assessments")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", pf.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", pf.Lookup("model"))
	_ = viper.BindPFlag("llm.base_url", pf.Lookup("base-url"))
	_ = viper.BindPFlag("cache.enabled", pf.Lookup("cache"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(model.DataDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Read in environment variables that match TRUTHLENS_* (llm.api_key -> TRUTHLENS_LLM_API_KEY)
	viper.SetEnvPrefix("TRUTHLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

// setDefaults registers every config key so env overrides and Unmarshal see it
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.http_proxy", cfg.LLM.HTTPProxy)
	v.SetDefault("llm.https_proxy", cfg.LLM.HTTPSProxy)
	v.SetDefault("llm.no_proxy", cfg.LLM.NoProxy)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.memory_ttl_minutes", cfg.Cache.MemoryTTLMinutes)
	v.SetDefault("cache.disk_ttl_hours", cfg.Cache.DiskTTLHours)

	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.user", cfg.History.User)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)

	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig resolves the effective configuration
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM.APIKey = resolveAPIKey(cfg.LLM, os.Getenv)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.History.Path = expandHome(cfg.History.Path)

	return cfg, nil
}

// resolveAPIKey returns the configured key or the provider's conventional
// environment variable. An empty result means the pipeline will fall back.
func resolveAPIKey(c model.LLMConfig, getenv func(string) string) string {
	if c.APIKey != "" {
		return c.APIKey
	}

	var candidates []string
	switch strings.ToLower(c.Provider) {
	case "openai", "groq":
		if strings.Contains(c.BaseURL, "groq.com") {
			candidates = []string{"GROQ_API_KEY", "OPENAI_API_KEY"}
		} else {
			candidates = []string{"OPENAI_API_KEY", "GROQ_API_KEY"}
		}
	case "anthropic", "claude":
		candidates = []string{"ANTHROPIC_API_KEY"}
	}

	for _, name := range candidates {
		if key := getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// expandHome expands a leading ~/ in paths read from config files
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func configureLogging() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if verbose || viper.GetBool("output.verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// effectiveConfig loads the config for a command
func effectiveConfig() (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.LLM.APIKey == "" && !strings.EqualFold(cfg.LLM.Provider, "ollama") {
		logrus.WithField("provider", cfg.LLM.Provider).Debug("no model credential found, analyses will use the fallback heuristic")
	}
	return cfg, nil
}
