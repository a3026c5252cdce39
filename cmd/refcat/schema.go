package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/batmanuel-sandbox/refcat/internal/config"
	"github.com/batmanuel-sandbox/refcat/internal/schema"
	"github.com/batmanuel-sandbox/refcat/internal/source"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Show the shard layout a file would produce, without writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		tbl, err := source.Read(args[0])
		if err != nil {
			return err
		}
		layout, err := schema.Build(tbl.Columns(), cfg)
		if err != nil {
			return err
		}

		if jsonOutput {
			data, err := json.MarshalIndent(layout, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tTYPE\tSIZE")
		for _, f := range layout.Fields() {
			size := ""
			if f.Size > 0 {
				size = fmt.Sprintf("%d", f.Size)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Type, size)
		}
		w.Flush()
		fmt.Printf("\n%d fields (%d rows sampled from %s)\n", layout.Len(), tbl.Len(), args[0])
		return nil
	},
}
