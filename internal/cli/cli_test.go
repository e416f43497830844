package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/truthlens/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestResolveAPIKey(t *testing.T) {
	env := map[string]string{
		"GROQ_API_KEY":      "gsk-1",
		"OPENAI_API_KEY":    "sk-1",
		"ANTHROPIC_API_KEY": "sk-ant-1",
	}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		name string
		cfg  model.LLMConfig
		want string
	}{
		{"explicit key wins", model.LLMConfig{Provider: "openai", APIKey: "cfg-key"}, "cfg-key"},
		{"groq endpoint", model.LLMConfig{Provider: "openai", BaseURL: "https://api.groq.com/openai/v1"}, "gsk-1"},
		{"openai endpoint", model.LLMConfig{Provider: "openai", BaseURL: "https://api.openai.com/v1"}, "sk-1"},
		{"anthropic", model.LLMConfig{Provider: "anthropic"}, "sk-ant-1"},
		{"ollama needs none", model.LLMConfig{Provider: "ollama"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAPIKey(tt.cfg, getenv); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := resolveAPIKey(model.LLMConfig{Provider: "openai", BaseURL: "https://api.groq.com"}, func(string) string { return "" }); got != "" {
		t.Errorf("expected empty key without env, got %q", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TRUTHLENS_LLM_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("TRUTHLENS_LLM_API_KEY", "env-key")
	t.Setenv("TRUTHLENS_CACHE_ENABLED", "true")
	t.Setenv("TRUTHLENS_RATE_LIMITING_REQUESTS_PER_SECOND", "2.5")

	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.SetEnvPrefix("TRUTHLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model not overridden: %s", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("api key not overridden: %q", cfg.LLM.APIKey)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache.enabled not overridden")
	}
	if cfg.RateLimiting.RequestsPerSecond != 2.5 {
		t.Errorf("rate not overridden: %v", cfg.RateLimiting.RequestsPerSecond)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("default base url lost: %s", cfg.LLM.BaseURL)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `llm:
  provider: anthropic
  model: claude-3-5-haiku-20241022
history:
  user: alice
  path: ~/custom/history.db
server:
  allowed_origins: ["https://a.example", "https://b.example"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.History.User != "alice" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if strings.HasPrefix(cfg.History.Path, "~") {
		t.Errorf("home not expanded: %s", cfg.History.Path)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("origins not decoded: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.LLM.MaxTokens != 1000 {
		t.Errorf("defaults should survive partial files, got max_tokens %d", cfg.LLM.MaxTokens)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("second write must refuse to overwrite")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.LLM.Model != model.DefaultConfig().LLM.Model {
		t.Errorf("unexpected model %s", cfg.LLM.Model)
	}
	if strings.Contains(string(data), "api_key:") {
		t.Error("default config must not carry an api_key field")
	}
}

func TestRedacted(t *testing.T) {
	cfg := *model.DefaultConfig()
	cfg.LLM.APIKey = "secret"
	if redacted(cfg).LLM.APIKey == "secret" {
		t.Error("api key must be redacted")
	}
	if cfg.LLM.APIKey != "secret" {
		t.Error("redaction must not modify the passed config")
	}
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		kind, content string
		want          model.Kind
		wantErr       error
	}{
		{"auto", "just some words", model.KindText, nil},
		{"auto", "https://www.tiktok.com/@x/video/1", model.KindVideo, nil},
		{"", "http://example.com", model.KindURL, nil},
		{"text", "https://example.com", model.KindText, nil},
		{"url", "example dot com", "", model.ErrInvalidURL},
		{"auto", "   ", "", model.ErrEmptyContent},
		{"podcast", "x", "", model.ErrUnknownKind},
	}

	for _, tt := range tests {
		req, err := buildRequest(tt.kind, tt.content)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("buildRequest(%q, %q): expected %v, got %v", tt.kind, tt.content, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("buildRequest(%q, %q): %v", tt.kind, tt.content, err)
			continue
		}
		if req.Kind != tt.want {
			t.Errorf("buildRequest(%q, %q) kind = %s, want %s", tt.kind, tt.content, req.Kind, tt.want)
		}
	}
}

func TestReadContent(t *testing.T) {
	if got, _ := readContent([]string{"arg"}, "", nil); got != "arg" {
		t.Errorf("expected arg content, got %q", got)
	}
	if got, _ := readContent(nil, "-", strings.NewReader("from stdin")); got != "from stdin" {
		t.Errorf("expected stdin content, got %q", got)
	}

	path := filepath.Join(t.TempDir(), "in.txt")
	_ = os.WriteFile(path, []byte("from file"), 0o600)
	if got, _ := readContent(nil, path, nil); got != "from file" {
		t.Errorf("expected file content, got %q", got)
	}

	if _, err := readContent([]string{"a"}, path, nil); err == nil {
		t.Error("argument and file together must fail")
	}
	if _, err := readContent(nil, "", nil); err == nil {
		t.Error("no content must fail")
	}
}
