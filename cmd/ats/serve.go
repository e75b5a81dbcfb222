package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/hiring-pipeline/internal/config"
	"github.com/jonathan/hiring-pipeline/internal/hiring"
	"github.com/jonathan/hiring-pipeline/internal/notify"
	"github.com/jonathan/hiring-pipeline/internal/pipeline"
	"github.com/jonathan/hiring-pipeline/internal/server"
	"github.com/jonathan/hiring-pipeline/internal/server/ratelimit"
	"github.com/jonathan/hiring-pipeline/internal/types"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the process, candidate, feedback, context and analysis callback endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

// serviceOptions translates the pipeline section of the config.
func serviceOptions(cfg *config.Config) (hiring.Options, error) {
	mode, err := pipeline.ParseFeedbackMode(cfg.Pipeline.FeedbackMode)
	if err != nil {
		return hiring.Options{}, err
	}
	return hiring.Options{
		Statuses:         types.NewStatusRegistry(cfg.Pipeline.AdditionalStatuses...),
		FeedbackMode:     mode,
		EnforceStepPlan:  cfg.Pipeline.Enforce(),
		MaxWriteAttempts: cfg.Pipeline.MaxWriteAttempts,
		NotifyTimeout:    cfg.Webhook.Timeout,
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	store, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.close()

	uploads, err := hiring.NewDiskUploads(cfg.UploadDir)
	if err != nil {
		return err
	}
	webhook, err := notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Token, cfg.Webhook.Timeout)
	if err != nil {
		return err
	}
	if cfg.CallbackSecret == "" {
		log.Printf("[sync] N8N_CALLBACK_SECRET is not set; analysis callbacks will be rejected")
	}

	srv := server.New(server.Config{Port: cfg.Port}, server.Deps{
		Service: hiring.NewService(store, webhook, uploads, opts),
		Syncer:  hiring.NewSyncer(store, cfg.CallbackSecret, opts),
		Users:   server.NewUserService(store, passwordConfig),
		JWT:     server.NewJWTService(jwtConfig),
		Limiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Ping: func(ctx context.Context) error {
			if store.ping == nil {
				return nil
			}
			return store.ping(ctx)
		},
	})

	log.Printf("[serve] store=%s feedback_mode=%s enforce_step_plan=%t", cfg.Store, opts.FeedbackMode, opts.EnforceStepPlan)
	return srv.Start()
}
