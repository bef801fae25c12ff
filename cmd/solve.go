package cmd

import (
	"fmt"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/catsieve/api"
	"github.com/agentic-research/catsieve/internal/config"
	"github.com/agentic-research/catsieve/internal/query"
	"github.com/agentic-research/catsieve/internal/solve"
)

var (
	solveMaxDepth int
	solveMaxPages int
	solveTimeout  time.Duration
	solveJSON     bool
)

func init() {
	solveCmd.Flags().IntVar(&solveMaxDepth, "max-depth", 0, "Override the traversal depth cap")
	solveCmd.Flags().IntVar(&solveMaxPages, "max-pages", 0, "Override the visited-page budget")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "Override the solve timeout")
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "Emit the result as JSON")
	rootCmd.AddCommand(solveCmd)
}

var solveCmd = &cobra.Command{
	Use:   "solve <query>",
	Short: "Evaluate a query against the wiki and print the resolved pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// A snapshot carries its own data, so it can be queried without
		// any config; the live wiki needs the configured endpoint.
		var (
			cfg *config.Config
			err error
		)
		if snapshotPath != "" {
			cfg, err = loadConfigOptional()
		} else {
			cfg, err = loadConfig()
		}
		if err != nil {
			return err
		}
		node, err := query.Parse(args[0])
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

		limits := solve.DefaultLimits()
		if cfg != nil {
			limits = cfg.SolveLimits()
		}
		if solveMaxDepth > 0 {
			limits.MaxDepth = solveMaxDepth
		}
		if solveMaxPages > 0 {
			limits.MaxPages = solveMaxPages
		}
		if solveTimeout > 0 {
			limits.Timeout = solveTimeout
		}

		res := solve.Solve(cmd.Context(), node, p, limits)

		if solveJSON {
			raw, err := oj.Marshal(toResponse(res), 2)
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			if res.Status == solve.StatusErr {
				return fmt.Errorf("solve failed")
			}
			return nil
		}

		if res.Status == solve.StatusErr {
			return res.Err
		}
		for _, w := range res.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		for _, pg := range res.Pages {
			fmt.Println(pg.Title)
		}
		return nil
	},
}

// toResponse converts a solver result into the JSON boundary shape.
func toResponse(res *solve.Result) api.SolveResponse {
	out := api.SolveResponse{Status: res.Status.String()}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for _, pg := range res.Pages {
		out.Pages = append(out.Pages, api.Page{ID: pg.ID, Title: pg.Title, Namespace: pg.Namespace})
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, api.Warning{
			Kind:    w.Kind.String(),
			Node:    w.Node,
			Message: w.Message,
		})
	}
	return out
}
