package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/events"
	"github.com/batmanuel-sandbox/refcat/internal/indexer"
	"github.com/batmanuel-sandbox/refcat/internal/ingest"
	"github.com/batmanuel-sandbox/refcat/internal/store"
	"github.com/batmanuel-sandbox/refcat/internal/store/postgres"
	"github.com/batmanuel-sandbox/refcat/internal/store/s3"
	"github.com/batmanuel-sandbox/refcat/internal/ui"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index catalog files into the sharded store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		idx, err := indexer.New(cfg.Indexer, cfg.IndexerDepth)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sc := config.LoadStoreConfig()
		st, err := openStore(ctx, sc)
		if err != nil {
			return err
		}
		defer st.Close()

		var publisher events.Publisher
		if sc.NATSURL != "" {
			pub, err := events.NewNATSPublisher(sc.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", sc.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
		}
		defer publisher.Close()

		res, err := ingest.New(cfg, idx, st, publisher, logger).Ingest(ctx, args)
		if err != nil {
			return err
		}

		if jsonOutput {
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		fmt.Printf("Run:     %s\n", ui.Accent(res.RunID))
		fmt.Printf("Dataset: %s\n", cfg.Dataset)
		fmt.Printf("Files:   %d\n", res.Files)
		fmt.Printf("Records: %d\n", res.Records)
		fmt.Printf("Shards:  %d\n", res.Shards)
		return nil
	},
}

// openStore picks the backend from the environment: Postgres when
// REFCAT_DATABASE_URL is set, S3 when REFCAT_S3_BUCKET is set.
func openStore(ctx context.Context, sc *config.StoreConfig) (store.Store, error) {
	if sc.DatabaseURL != "" {
		return postgres.New(sc.DatabaseURL)
	}
	if sc.S3Bucket != "" {
		return s3.New(ctx, sc.S3Bucket, sc.S3Prefix, sc.S3Region, sc.S3Endpoint)
	}
	return nil, fmt.Errorf("no store configured (set REFCAT_DATABASE_URL or REFCAT_S3_BUCKET)")
}
