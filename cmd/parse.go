package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/catsieve/internal/query"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Parse a query and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, err := query.Parse(args[0])
		if err != nil {
			return err
		}
		fmt.Println(query.String(node))
		for _, title := range query.Leaves(node) {
			fmt.Printf("  leaf: %s\n", title)
		}
		return nil
	},
}
