package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/siherrmann/lexgraph"
	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/core/pipeline"
	"github.com/siherrmann/lexgraph/model"
)

var records = []model.ArgumentRecord{
	{
		ArgumentID:  "alice-respondent",
		Case:        model.Case{ID: "alice-v-cls", Caption: "Alice Corp. v. CLS Bank International", Jurisdiction: "federal", JudgeID: "judge-thomas"},
		Issue:       model.Issue{ID: "software-eligibility", Title: "Patent eligibility of software"},
		Lawyer:      &model.Lawyer{ID: "lawyer-1", Name: "Ada Counsel"},
		Disposition: model.DispositionGranted,
		Text: `The claims are drawn to the abstract idea of intermediated settlement.

Generic computer implementation adds nothing inventive, see 573 U.S. 208 and 35 U.S.C. § 101.`,
	},
	{
		ArgumentID:  "bilski-petitioner",
		Case:        model.Case{ID: "bilski-v-kappos", Caption: "Bilski v. Kappos", Jurisdiction: "federal"},
		Issue:       model.Issue{ID: "method-eligibility", Title: "Patent eligibility of business methods"},
		Lawyer:      &model.Lawyer{ID: "lawyer-1", Name: "Ada Counsel"},
		Disposition: model.DispositionDenied,
		Text:        "Hedging risk is a fundamental economic practice and an abstract idea under 561 U.S. 593.",
	},
	{
		ArgumentID:  "hadley-defendant",
		Case:        model.Case{ID: "hadley-v-baxendale", Caption: "Hadley v. Baxendale", Jurisdiction: "uk"},
		Issue:       model.Issue{ID: "consequential-damages", Title: "Contract consequential damages"},
		Lawyer:      &model.Lawyer{ID: "lawyer-2", Name: "Basil Barrister"},
		Disposition: model.DispositionPartial,
		Text:        "Damages for breach of contract are limited to losses the parties contemplated.",
	},
}

func main() {
	ctx := context.Background()
	embedder, err := embedding.NewCachedProvider(embedding.NewHashProvider(256), 1024)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	// Emphasize graph structure over raw similarity
	config := model.DefaultRetrievalConfig()
	config.Weights.Vector = 0.3
	config.Weights.Citation = 0.3
	config.MaxHops = 3

	l, err := lexgraph.NewInMemory(embedder, config, lexgraph.NewLogger(slog.LevelWarn))
	if err != nil {
		log.Fatalf("Failed to create lexgraph: %v", err)
	}

	// Split at topic changes instead of fixed sentence counts
	l.Pipeline.SetSegmenter(pipeline.SemanticSegmenter(embedder, 400, 0.2))

	fmt.Println("=== Ingesting Arguments ===")
	results, err := l.IngestAll(ctx, records, 2)
	if err != nil {
		log.Fatalf("Failed to ingest arguments: %v", err)
	}
	for _, result := range results {
		fmt.Printf("%s: %d segments, %d citations, %d relationships\n", result.ArgumentID, result.Segments, result.Citations, result.Relationships)
	}

	// Both eligibility issues are narrower than patent eligibility
	broader := model.Issue{ID: "patent-eligibility", Title: "Patent eligibility"}
	for _, narrower := range []model.Issue{records[0].Issue, records[1].Issue} {
		if err := l.LinkIssues(ctx, "", broader, narrower); err != nil {
			log.Fatalf("Failed to link issues: %v", err)
		}
	}
	hierarchy, err := l.IssueHierarchy(ctx, broader.ID, "")
	if err != nil {
		log.Fatalf("Failed to read hierarchy: %v", err)
	}
	fmt.Printf("\n%s is broader than %s\n", broader.ID, strings.Join(hierarchy.Narrower, ", "))

	// 1. Anchored retrieval with lawyer metrics
	fmt.Println("\n=== 1. Anchored Retrieval ===")
	response, err := l.Retrieve(ctx, model.RetrievalRequest{
		IssueText: "Are claims to a financial method on a computer patent eligible?",
		IssueID:   broader.ID,
		LawyerID:  "lawyer-1",
		JudgeID:   "judge-thomas",
		Limit:     3,
	})
	if err != nil {
		log.Fatalf("Retrieval failed: %v", err)
	}
	printResponse(response)

	// 2. Unknown territory falls back to synthetic bundles
	fmt.Println("\n=== 2. Fallback ===")
	response, err = l.Retrieve(ctx, model.RetrievalRequest{IssueText: "Maritime salvage rights", Jurisdiction: "admiralty", Limit: 2})
	if err != nil {
		log.Fatalf("Retrieval failed: %v", err)
	}
	printResponse(response)

	fmt.Println("\nAdvanced example completed successfully!")
}

func printResponse(response *model.RetrievalResponse) {
	fmt.Printf("States: %s\n", strings.Join(response.Trace.States, " -> "))
	fmt.Printf("Found %d bundles (vector hits %d, graph hits %d)\n", response.TotalCount, response.Trace.VectorHits, response.Trace.GraphHits)

	for i, bundle := range response.Bundles {
		explanation := response.GraphExplanations[i]
		fmt.Printf("\n--- %d. %s (%.2f) ---\n", i+1, bundle.ArgumentID, bundle.Confidence.Value)
		fmt.Printf("Case: %s\n", bundle.Case.Caption)
		fmt.Printf("Key nodes: %s\n", strings.Join(explanation.KeyNodes, ", "))
		fmt.Printf("Why: %s\n", explanation.ExplanationText)
	}

	if m := response.Metrics; m != nil {
		fmt.Printf("\nLawyer %s: %d arguments, win rate %.2f\n", m.LawyerID, m.TotalArguments, m.WinRate)
	}
}
