// Command waytally serves the way counter HTTP API backed by DynamoDB.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/waytally/internal/wayref"
	"github.com/jacentio/waytally/locations"
	"github.com/jacentio/waytally/server"
	"github.com/jacentio/waytally/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := loadConfig()

	client, err := newDynamoClient(context.Background(), cfg)
	if err != nil {
		logger.Error("loading AWS config failed", "error", err)
		os.Exit(1)
	}

	st := store.New(client, store.Config{Table: cfg.Table, MaxValue: cfg.MaxValue}, logger)

	// Seeding is fire-and-forget: the server starts serving regardless
	// of its outcome.
	go seed(st, cfg.WaysFile, logger)

	srv := server.New(st, locations.NewStore(cfg.LocationsFile), cfg.StaticDir, logger)
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := shutdownOnSignal(httpServer, sigCh, logger)

	logger.Info("waytally listening",
		"addr", cfg.Addr,
		"table", st.Config().Table,
		"maxValue", st.Config().MaxValue,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
}

// shutdownOnSignal shuts httpServer down once a signal arrives and closes
// the returned channel when draining has finished. The caller must block
// on the channel after ListenAndServe returns: Shutdown unblocks the
// listener immediately while in-flight requests are still completing.
func shutdownOnSignal(httpServer *http.Server, sigCh <-chan os.Signal, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-sigCh
		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown incomplete", "error", err)
		}
		close(done)
	}()
	return done
}

// newDynamoClient builds the DynamoDB client. An endpoint override
// switches to a local store with static dummy credentials; the request
// paths are identical either way.
func newDynamoClient(ctx context.Context, cfg appConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.DynamoEndpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	}), nil
}

func seed(st *store.Store, waysFile string, logger *slog.Logger) {
	ways, err := wayref.Load(waysFile)
	if err != nil {
		logger.Warn("reference dataset unavailable, skipping seed",
			"path", waysFile,
			"error", err,
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := st.SeedMissing(ctx, ways); err != nil {
		logger.Error("seeding aborted", "error", err)
	}
}
