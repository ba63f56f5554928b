package main

import (
	"fmt"

	"github.com/siherrmann/lexgraph/database"
	"github.com/spf13/cobra"
)

func newReindexCmd(root *rootOptions) *cobra.Command {
	var indexType string
	params := database.IndexParams{}

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Replace the segment embedding index with an HNSW or IVFFlat index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, _, err := root.open()
			if err != nil {
				return err
			}
			defer l.Close()

			if err := l.ChangeIndexType(cmd.Context(), indexType, params); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Segment index changed to %s\n", indexType)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&indexType, "type", database.IndexTypeHNSW, "Index type: hnsw or ivfflat")
	f.IntVar(&params.M, "m", 0, "HNSW max connections per layer (default 16)")
	f.IntVar(&params.EfConstruction, "ef-construction", 0, "HNSW candidate list size (default 64)")
	f.IntVar(&params.Lists, "lists", 0, "IVFFlat number of lists (default 100)")

	return cmd
}
