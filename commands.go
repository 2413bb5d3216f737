package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/middleware"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/heartcare-app/heartcare-api/services"
	"github.com/spf13/cobra"
)

const predictRateLimitWindow = time.Minute

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartcare",
		Short: "HeartCare backend: user records, emergency contacts and heart disease risk reports",
		// Running without a subcommand starts the server
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd(), newScoreCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func newScoreCmd() *cobra.Command {
	var modelPath, modelFormat string

	cmd := &cobra.Command{
		Use:   "score [payload.json]",
		Short: "Score a prediction payload offline and print the result",
		Long: `Reads a JSON prediction payload from the given file (or stdin when omitted),
runs it through the feature pipeline and the model, and prints the result.
Nothing is stored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runScore(in, cmd.OutOrStdout(), modelPath, modelFormat)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "model_xgboost.bin", "path to the model artifact")
	cmd.Flags().StringVar(&modelFormat, "format", config.ModelFormatXGBoost, "model format (xgboost or lightgbm)")
	return cmd
}

func runScore(in io.Reader, out io.Writer, modelPath, modelFormat string) error {
	loader, err := services.LoaderForFormat(modelFormat)
	if err != nil {
		return err
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(in).Decode(&payload); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}

	service := services.NewPredictionService(nil, services.NewModelService(modelPath, loader, 0))
	result, err := service.Score(payload)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	config.SetConfig(cfg)

	logger, err := config.NewLogger(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	config.SetLogger(logger)

	logger.Infow("Starting HeartCare backend", "env", cfg.GoEnv, "port", cfg.Port)

	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	if err := config.MigrateDatabase(config.GetDB(), models.All()...); err != nil {
		return err
	}
	logger.Info("Database migration completed successfully")

	if cfg.HasRemoteModel() {
		store, err := services.NewS3ArtifactStore(ctx, cfg)
		if err != nil {
			return err
		}
		if err := services.FetchModelArtifact(ctx, store, cfg); err != nil {
			return err
		}
	}

	if _, err := services.InitModelService(cfg); err != nil {
		return err
	}

	limiter, err := newPredictLimiter(ctx, cfg)
	if err != nil {
		return err
	}

	router := setupRouter(cfg, limiter)

	addr := ":" + cfg.Port
	logger.Infof("Server is running on http://localhost%s", addr)
	return router.Run(addr)
}

// newPredictLimiter returns nil when prediction rate limiting is disabled
func newPredictLimiter(ctx context.Context, cfg *config.Config) (*middleware.RateLimiter, error) {
	if cfg.PredictRateLimit == 0 {
		return nil, nil
	}
	if cfg.RedisURL == "" {
		config.Logger().Warnw("PREDICT_RATE_LIMIT is set without REDIS_URL, rate limiting disabled",
			"limit", cfg.PredictRateLimit)
		return nil, nil
	}

	client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return middleware.NewRateLimiter(
		middleware.NewRedisWindowCounter(client),
		middleware.RateLimitConfig{
			Window:    predictRateLimitWindow,
			Limit:     cfg.PredictRateLimit,
			KeyPrefix: "heartcare:predict",
		},
		config.Logger(),
	), nil
}
