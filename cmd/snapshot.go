package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/catsieve/internal/provider/snapshot"
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [out.db]",
	Short: "Capture a SQLite snapshot of the configured roots from the live wiki",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Snapshot == nil {
			return fmt.Errorf("config has no snapshot block")
		}

		out := cfg.Snapshot.Path
		if len(args) == 1 {
			out = args[0]
		}
		if out == "" {
			return fmt.Errorf("no output path: set snapshot.path in config or pass one")
		}

		src, cleanup, err := newProvider(cfg)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}

		store, err := snapshot.Create(out)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		spec := snapshot.CaptureSpec{
			Roots: cfg.Snapshot.Roots,
			Depth: cfg.Snapshot.Depth,
		}
		if cfg.Snapshot.Links != nil {
			spec.Links = *cfg.Snapshot.Links
		}
		if err := store.Capture(cmd.Context(), src, spec); err != nil {
			return err
		}
		fmt.Printf("Captured %d root(s) to %s\n", len(spec.Roots), out)
		return nil
	},
}
