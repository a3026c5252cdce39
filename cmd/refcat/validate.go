package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the ingest config for binding errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		err = cfg.Validate()
		if err == nil {
			if jsonOutput {
				fmt.Println(`{"valid": true}`)
			} else {
				fmt.Printf("%s is valid\n", configPath)
			}
			return nil
		}

		var ce *config.ConfigError
		if !errors.As(err, &ce) {
			return err
		}
		if jsonOutput {
			data, err := json.MarshalIndent(ce.Errors, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		} else {
			fmt.Fprintf(os.Stderr, "%s has %d problem(s):\n", configPath, len(ce.Errors))
			for _, fe := range ce.Errors {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", ui.Accent(fe.Field), fe.Message)
			}
		}
		os.Exit(1)
		return nil
	},
}
