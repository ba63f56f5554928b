package main

import (
	"strings"

	"github.com/siherrmann/lexgraph/model"
	"github.com/spf13/cobra"
)

type retrieveOptions struct {
	request model.RetrievalRequest
	records []string
	workers int
}

func newRetrieveCmd(root *rootOptions) *cobra.Command {
	opts := &retrieveOptions{}

	cmd := &cobra.Command{
		Use:   "retrieve <issue text>",
		Short: "Retrieve ranked and explained precedent arguments for an issue",
		Long: `Retrieves the argument bundles most relevant to the issue text and prints
the response as JSON. With --memory the files given by --records are ingested
first, which is useful to try a configuration without a database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := root.open()
			if err != nil {
				return err
			}
			defer l.Close()

			if len(opts.records) > 0 {
				records, err := (&ingestOptions{tenant: opts.request.Tenant}).load(opts.records)
				if err != nil {
					return err
				}
				if _, err := ingest(cmd, l, records, opts.workers); err != nil {
					return err
				}
			}

			request := opts.request
			request.IssueText = strings.Join(args, " ")
			response, err := l.Retrieve(cmd.Context(), request)
			if err != nil {
				return err
			}
			return writeJSON(cmd, response)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.request.LawyerID, "lawyer", "", "Lawyer id, adds lawyer metrics and restricts to their arguments")
	f.StringVar(&opts.request.Jurisdiction, "jurisdiction", "", "Jurisdiction filter")
	f.StringVar(&opts.request.Tenant, "tenant", "", "Tenant tag filter")
	f.IntVar(&opts.request.Limit, "limit", 0, "Maximum number of bundles (default from config)")
	f.StringVar(&opts.request.IssueID, "issue", "", "Anchor issue id for the graph search")
	f.StringVar(&opts.request.JudgeID, "judge", "", "Judge id for the judge alignment boost")
	f.IntVar(&opts.request.FiledYearFrom, "from", 0, "Earliest filing year")
	f.IntVar(&opts.request.FiledYearTo, "to", 0, "Latest filing year")
	f.StringSliceVar(&opts.records, "records", nil, "Record files to ingest before retrieving")
	f.IntVar(&opts.workers, "workers", 4, "Concurrent ingestions for --records")

	return cmd
}
