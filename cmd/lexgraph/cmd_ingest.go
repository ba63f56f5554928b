package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/siherrmann/lexgraph"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"github.com/spf13/cobra"
)

type ingestOptions struct {
	workers    int
	tenant     string
	caseID     string
	issueID    string
	issueTitle string
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest argument records from JSON, YAML or plain text files",
		Long: `Ingests argument records. JSON and YAML files hold one record or a list of
records. Plain text files are ingested as the text of one argument of the case
and issue given by --case-id and --issue-id.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := root.open()
			if err != nil {
				return err
			}
			defer l.Close()

			records, err := opts.load(args)
			if err != nil {
				return err
			}

			results, err := ingest(cmd, l, records, opts.workers)
			if err != nil {
				return err
			}
			return writeJSON(cmd, results)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.workers, "workers", 4, "Concurrent ingestions")
	f.StringVar(&opts.tenant, "tenant", "", "Tenant tag for records without one")
	f.StringVar(&opts.caseID, "case-id", "", "Case id of plain text files")
	f.StringVar(&opts.issueID, "issue-id", "", "Issue id of plain text files")
	f.StringVar(&opts.issueTitle, "issue-title", "", "Issue title of plain text files")

	return cmd
}

// load reads all files, plain text files become one record each.
func (o *ingestOptions) load(paths []string) ([]model.ArgumentRecord, error) {
	template := model.ArgumentRecord{
		Tenant: o.tenant,
		Case:   model.Case{ID: o.caseID},
		Issue:  model.Issue{ID: o.issueID, Title: o.issueTitle},
	}

	var records []model.ArgumentRecord
	for _, path := range paths {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			record, err := model.NewArgumentRecordFromFile(path, template)
			if err != nil {
				return nil, helper.NewError("read "+path, err)
			}
			records = append(records, *record)
		default:
			loaded, err := model.LoadArgumentRecords(path)
			if err != nil {
				return nil, err
			}
			for i := range loaded {
				if loaded[i].Tenant == "" {
					loaded[i].Tenant = o.tenant
				}
			}
			records = append(records, loaded...)
		}
	}

	return records, nil
}

func ingest(cmd *cobra.Command, l *lexgraph.Lexgraph, records []model.ArgumentRecord, workers int) ([]*model.IngestResult, error) {
	results, err := l.IngestAll(cmd.Context(), records, workers)
	if err != nil {
		return results, helper.NewError(fmt.Sprintf("ingest %d records", len(records)), err)
	}
	return results, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
