package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/siherrmann/lexgraph"
	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "lexgraph",
		Username: "lexgraph",
		Password: "lexgraph",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// The hash provider needs no model download or API key
	embedder, err := embedding.NewCachedProvider(embedding.NewHashProvider(256), 1024)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	l, err := lexgraph.NewLexgraph(dbConfig, embedder, model.DefaultRetrievalConfig(), lexgraph.NewLogger(slog.LevelInfo))
	if err != nil {
		log.Fatalf("Failed to create lexgraph: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	filed := time.Date(2013, time.June, 19, 0, 0, 0, 0, time.UTC)

	fmt.Println("Ingesting argument...")
	result, err := l.Ingest(ctx, model.ArgumentRecord{
		ArgumentID:   "alice-respondent",
		Case:         model.Case{ID: "alice-v-cls", Caption: "Alice Corp. v. CLS Bank International", Court: "Supreme Court", Jurisdiction: "federal", FiledDate: &filed},
		Issue:        model.Issue{ID: "patent-eligibility", Title: "Patent eligibility of software"},
		ParentIssues: []model.Issue{{ID: "patent-law", Title: "Patent law"}},
		Lawyer:       &model.Lawyer{ID: "lawyer-1", Name: "Ada Counsel"},
		Judge:        &model.Judge{ID: "judge-thomas", Name: "Hon. Clarence Thomas"},
		Disposition:  model.DispositionGranted,
		Text: `The claims are drawn to the abstract idea of intermediated settlement.
Under Mayo, 566 U.S. 66, the question is whether the claims add an inventive concept.
Implementing the idea on a generic computer does not transform it into a patent eligible invention under 35 U.S.C. § 101.`,
	})
	if err != nil {
		log.Fatalf("Failed to ingest argument: %v", err)
	}
	fmt.Printf("Ingested %s with %d segments and %d citations\n", result.ArgumentID, result.Segments, result.Citations)

	issueText := "Is a software patent on a generic computer an abstract idea?"
	fmt.Printf("\nRetrieving: %s\n", issueText)

	response, err := l.Retrieve(ctx, model.RetrievalRequest{IssueText: issueText, JudgeID: "judge-thomas", Limit: 5})
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	// Display results
	fmt.Printf("\nFound %d bundles in %dms:\n", response.TotalCount, response.QueryTimeMs)
	for i, bundle := range response.Bundles {
		fmt.Printf("\n--- Bundle %d ---\n", i+1)
		fmt.Printf("Argument: %s (%s)\n", bundle.ArgumentID, bundle.Case.Caption)
		fmt.Printf("Confidence: %.2f (vector %.2f, graph %.2f)\n", bundle.Confidence.Value, bundle.Confidence.Features[model.FeatureVectorSimilarity], bundle.Confidence.Features[model.FeatureGraphRelevance])
		fmt.Printf("Why: %s\n", response.GraphExplanations[i].ExplanationText)
	}

	fmt.Println("\nBasic example completed successfully!")
}
