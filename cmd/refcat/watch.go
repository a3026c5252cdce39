package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/events"
	"github.com/batmanuel-sandbox/refcat/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream ingest events from NATS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")

		sc := config.LoadStoreConfig()
		if sc.NATSURL == "" {
			return fmt.Errorf("REFCAT_NATS_URL is not set")
		}

		sub, err := events.NewNATSSubscriber(sc.NATSURL)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "watching %s on %s\n", ui.Accent(topic), sc.NATSURL)
		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data)
			}
		}
	},
}

func printEvent(data []byte) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}
	var shard events.ShardWritten
	if err := json.Unmarshal(data, &shard); err == nil && shard.Key != "" {
		fmt.Printf("%s %s +%d (%d total)\n",
			ui.Muted(shard.RunID), shard.Key, shard.Appended, shard.Total)
		return
	}
	fmt.Println(string(data))
}

func init() {
	watchCmd.Flags().String("topic", "refcat.>", "NATS subject to subscribe to")
}
