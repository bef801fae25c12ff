package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/catsieve/internal/refresh"
)

var (
	refreshStateDir    string
	refreshConcurrency int
)

func init() {
	refreshCmd.Flags().StringVar(&refreshStateDir, "state", "", "Directory holding published list state")
	refreshCmd.Flags().IntVar(&refreshConcurrency, "concurrency", 0, "How many lists to solve at once")
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-solve the configured lists and publish the ones that changed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Lists) == 0 {
			return fmt.Errorf("config has no list blocks")
		}

		stateDir := refreshStateDir
		if stateDir == "" {
			dir, err := defaultDir()
			if err != nil {
				return err
			}
			stateDir = filepath.Join(dir, "lists")
		}
		store, err := refresh.NewFileStore(stateDir)
		if err != nil {
			return err
		}

		p, cleanup, err := newProvider(cfg)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}

		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		opts := []refresh.Option{refresh.WithLogger(log)}
		if refreshConcurrency > 0 {
			opts = append(opts, refresh.WithConcurrency(refreshConcurrency))
		}
		r := refresh.New(p, store, opts...)

		lists := make([]refresh.List, 0, len(cfg.Lists))
		for _, l := range cfg.Lists {
			rl := refresh.List{
				Name:   l.Name,
				Query:  l.Query,
				Limits: cfg.ListLimits(l),
			}
			if l.Target != nil {
				rl.Target = *l.Target
			}
			lists = append(lists, rl)
		}

		outcomes, err := r.Run(cmd.Context(), lists)
		if err != nil {
			return err
		}

		failed := 0
		for _, out := range outcomes {
			switch {
			case out.Err != nil:
				failed++
				fmt.Printf("%-20s %s: %v\n", out.List, out.Status, out.Err)
			case out.Published:
				fmt.Printf("%-20s %s: published (+%d -%d)\n", out.List, out.Status, len(out.Added), len(out.Removed))
			default:
				fmt.Printf("%-20s %s: unchanged\n", out.List, out.Status)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d list(s) failed", failed, len(outcomes))
		}
		return nil
	},
}
