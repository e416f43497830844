package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/truthlens/internal/history"
	"github.com/ppiankov/truthlens/internal/pipeline"
	"github.com/ppiankov/truthlens/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveNoHistory bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis and history JSON API",
	Long: `Serve exposes TruthLens over HTTP:

  POST   /api/analyze               {"kind": "text", "content": "...", "save": true}
  GET    /api/history               ?kind=&q=&limit=
  GET    /api/history/{id}
  GET    /api/history/{id}/export   ?format=md
  DELETE /api/history/{id}
  DELETE /api/history
  GET    /healthz

The history owner is taken from the X-TruthLens-User header, else history.user.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "disable history routes")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}

	var store server.HistoryStore
	if !serveNoHistory {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	logrus.WithFields(logrus.Fields{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
		"history":  !serveNoHistory,
		"cache":    cfg.Cache.Enabled,
	}).Info("starting TruthLens API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, cfg.History.User, pipeline.NewPipeline(cfg), store)
	return srv.ListenAndServe(ctx)
}
