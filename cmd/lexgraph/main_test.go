package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRecords = `
- argument_id: arg-1
  case: {id: case-1, caption: Alice Corp. v. CLS Bank}
  issue: {id: issue-101, title: Patent eligibility}
  lawyer: {id: lawyer-1, name: Ada Counsel}
  disposition: granted
  text: The claims recite an abstract idea under 573 U.S. 208. Patent eligibility requires more than a generic computer.
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("OPENAI_API_KEY", "")

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--memory", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRecords), 0644))
	return path
}

func TestRetrieveCmd(t *testing.T) {
	t.Run("Records are ingested and retrieved as JSON", func(t *testing.T) {
		out, err := run(t, "retrieve", "--records", writeRecords(t), "--lawyer", "lawyer-1", "--limit", "2", "patent", "eligibility", "of", "an", "abstract", "idea")
		require.NoError(t, err)

		response := model.RetrievalResponse{}
		require.NoError(t, json.Unmarshal([]byte(out), &response), "Expected the response as JSON")
		require.NotEmpty(t, response.Bundles)
		assert.Equal(t, "arg-1", response.Bundles[0].ArgumentID)
		assert.Len(t, response.GraphExplanations, len(response.Bundles))
		require.NotNil(t, response.Metrics)
		assert.Equal(t, "lawyer-1", response.Metrics.LawyerID)
	})

	t.Run("Empty store falls back to synthetic bundles", func(t *testing.T) {
		out, err := run(t, "retrieve", "--limit", "2", "breach of contract")
		require.NoError(t, err)

		response := model.RetrievalResponse{}
		require.NoError(t, json.Unmarshal([]byte(out), &response))
		assert.Len(t, response.Bundles, 2)
		assert.True(t, response.Bundles[0].Synthetic)
	})

	t.Run("Limit above the maximum is a validation error", func(t *testing.T) {
		_, err := run(t, "retrieve", "--limit", "1000", "patent")
		assert.ErrorIs(t, err, helper.ErrValidation)
	})

	t.Run("Issue text is required", func(t *testing.T) {
		_, err := run(t, "retrieve")
		assert.Error(t, err)
	})
}

func TestIngestCmd(t *testing.T) {
	t.Run("YAML and text files are ingested", func(t *testing.T) {
		brief := filepath.Join(t.TempDir(), "reply-brief.txt")
		require.NoError(t, os.WriteFile(brief, []byte("The patent is not abstract. See 35 U.S.C. § 101."), 0644))

		out, err := run(t, "ingest", "--case-id", "case-2", "--issue-id", "issue-101", writeRecords(t), brief)
		require.NoError(t, err)

		results := []model.IngestResult{}
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 2)
		assert.Equal(t, "arg-1", results[0].ArgumentID)
		assert.Equal(t, "reply-brief", results[1].ArgumentID, "Expected the filename as argument id")
		assert.Equal(t, 1, results[1].Citations)
	})

	t.Run("Text files without case are rejected", func(t *testing.T) {
		brief := filepath.Join(t.TempDir(), "brief.txt")
		require.NoError(t, os.WriteFile(brief, []byte("Text."), 0644))

		_, err := run(t, "ingest", brief)
		assert.ErrorIs(t, err, helper.ErrValidation)
	})
}

func TestReindexCmd(t *testing.T) {
	t.Run("In-memory backend cannot be reindexed", func(t *testing.T) {
		_, err := run(t, "reindex", "--type", "ivfflat")
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}

func TestRootCmd(t *testing.T) {
	t.Run("Unknown log level is a configuration error", func(t *testing.T) {
		_, err := run(t, "--log-level", "loud", "retrieve", "patent")
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}
