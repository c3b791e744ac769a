package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/dalemusser/cwcconnect/internal/app/bootstrap"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile  string
	mongoURI string
	database string
	verbose  bool
)

// rootCmd is the base command for cwcctl
var rootCmd = &cobra.Command{
	Use:   "cwcctl",
	Short: "Operate the CWC Connect employee directory",
	Long: `cwcctl runs directory operations directly against MongoDB.

Configuration comes from CWCCONNECT_* environment variables, optionally
loaded from a .env file, with flags taking precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (overrides CWCCONNECT_MONGO_URI)")
	rootCmd.PersistentFlags().StringVar(&database, "database", "", "MongoDB database (overrides CWCCONNECT_MONGO_DATABASE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(syncCmd, askCmd, statusCmd)
}

// session is an open store plus the wired runtime.
type session struct {
	cfg    bootstrap.AppConfig
	rt     *bootstrap.Runtime
	handle *mongoconn.Handle
	log    *zap.Logger
}

func openSession(ctx context.Context) (*session, error) {
	cfg := bootstrap.AppConfigFromEnv()
	if mongoURI != "" {
		cfg.MongoURI = mongoURI
	}
	if database != "" {
		cfg.MongoDatabase = database
	}

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	if err := bootstrap.ValidateConfig(nil, cfg, logger); err != nil {
		return nil, err
	}
	timeouts.Configure(timeouts.Config{Fetch: cfg.APITimeout, Augment: cfg.AssistantTimeout})
	timeouts.ConfigureFromEnv()

	cctx, cancel := context.WithTimeout(ctx, timeouts.Query())
	defer cancel()
	handle, err := mongoconn.Connect(cctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, err
	}

	rt := &bootstrap.Runtime{}
	if err := rt.Init(ctx, cfg, handle, nil, logger); err != nil {
		_ = handle.Disconnect(context.Background())
		return nil, err
	}
	return &session{cfg: cfg, rt: rt, handle: handle, log: logger}, nil
}

func (s *session) Close() {
	s.rt.Close()
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Ping())
	defer cancel()
	_ = s.handle.Disconnect(ctx)
	_ = s.log.Sync()
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
