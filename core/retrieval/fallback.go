package retrieval

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/siherrmann/lexgraph/core/scoring"
	"github.com/siherrmann/lexgraph/model"
)

// template describes the synthetic precedents served for one area of law
type template struct {
	name         string
	keywords     []string
	issue        model.Issue
	court        string
	jurisdiction string
	stage        model.Stage
	parties      [][2]string
	judges       []model.Judge
	citations    []string
	segments     [3]string
}

var templates = []template{
	{
		name:     "patent",
		keywords: []string{"patent", "infring", "prior art", "claim construction", "obviousness"},
		issue: model.Issue{
			ID:           "synthetic-issue-patent-infringement",
			Title:        "Patent infringement",
			TaxonomyPath: []string{"Intellectual Property", "Patent", "Infringement"},
		},
		court:        "U.S. District Court for the District of Delaware",
		jurisdiction: "federal",
		stage:        model.StageSummaryJudgment,
		parties:      [][2]string{{"Acme Software", "Globex"}, {"Initech", "Hooli"}, {"Vandelay Systems", "Stark Labs"}},
		judges:       []model.Judge{{ID: "synthetic-judge-1", Name: "Hon. A. Whitfield"}, {ID: "synthetic-judge-2", Name: "Hon. R. Castellanos"}},
		citations:    []string{"35 U.S.C. § 101", "35 U.S.C. § 103", "573 U.S. 208", "550 U.S. 398"},
		segments: [3]string{
			"The asserted claims are directed to an abstract idea and recite no inventive concept beyond generic computer components.",
			"Plaintiff's construction reads the limitation out of the claim and would capture the prior art the examiner already rejected.",
			"Because no reasonable jury could find every limitation practiced by the accused product, summary judgment of non-infringement is warranted.",
		},
	},
	{
		name:     "contract",
		keywords: []string{"contract", "breach", "agreement", "warranty", "indemn"},
		issue: model.Issue{
			ID:           "synthetic-issue-breach-of-contract",
			Title:        "Breach of contract",
			TaxonomyPath: []string{"Commercial", "Contract", "Breach"},
		},
		court:        "Supreme Court of the State of New York",
		jurisdiction: "state",
		stage:        model.StageMotionToDismiss,
		parties:      [][2]string{{"Northwind Traders", "Contoso"}, {"Umbrella Holdings", "Wayne Logistics"}, {"Cyberdyne", "Tyrell Supply"}},
		judges:       []model.Judge{{ID: "synthetic-judge-3", Name: "Hon. M. Okafor"}, {ID: "synthetic-judge-4", Name: "Hon. L. Brennan"}},
		citations:    []string{"U.C.C. § 2-207", "U.C.C. § 2-313", "N.Y. Gen. Oblig. Law § 5-701"},
		segments: [3]string{
			"The agreement unambiguously limits remedies to repair or replacement and bars consequential damages.",
			"Plaintiff identifies no provision of the contract that was breached, only dissatisfaction with a bargained for allocation of risk.",
			"The complaint fails to plead the elements of breach and should be dismissed.",
		},
	},
	{
		name: "general",
		issue: model.Issue{
			ID:           "synthetic-issue-general",
			Title:        "General civil procedure",
			TaxonomyPath: []string{"Civil Procedure"},
		},
		court:        "U.S. Court of Appeals for the Ninth Circuit",
		jurisdiction: "federal",
		stage:        model.StageAppeal,
		parties:      [][2]string{{"Smith", "Jones"}, {"Doe", "Roe"}, {"Miller", "Garcia"}},
		judges:       []model.Judge{{ID: "synthetic-judge-5", Name: "Hon. P. Lindqvist"}, {ID: "synthetic-judge-6", Name: "Hon. S. Adeyemi"}},
		citations:    []string{"Fed. R. Civ. P. 12(b)(6)", "Fed. R. Civ. P. 56", "550 U.S. 544"},
		segments: [3]string{
			"The standard of review is de novo and the record does not support the findings below.",
			"Appellee's reading of the rule is contradicted by its text and by the weight of authority.",
			"The judgment should be reversed and the matter remanded for further proceedings.",
		},
	},
}

var dispositions = []model.Disposition{model.DispositionGranted, model.DispositionPartial, model.DispositionGranted, model.DispositionDenied}

// selectTemplate returns the template whose keywords occur in text, the general template otherwise.
func selectTemplate(text string) template {
	lower := strings.ToLower(text)
	for _, t := range templates {
		for _, keyword := range t.keywords {
			if strings.Contains(lower, keyword) {
				return t
			}
		}
	}
	return templates[len(templates)-1]
}

func seed(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	return h.Sum64()
}

// Synthesize returns limit synthetic bundles for a request no backend could answer.
// The bundles only depend on the request, their confidence decreases with rank
// and the judge alignment is the neutral constant.
func Synthesize(request model.RetrievalRequest, limit int, weights model.ScoringWeights) []model.ArgumentBundle {
	t := selectTemplate(request.IssueText)
	s := seed(request.IssueText)
	rng := rand.New(rand.NewPCG(s, s>>1|1))

	jurisdiction := t.jurisdiction
	if request.Jurisdiction != "" {
		jurisdiction = request.Jurisdiction
	}

	bundles := make([]model.ArgumentBundle, 0, limit)
	for i := 0; i < limit; i++ {
		parties := t.parties[rng.IntN(len(t.parties))]
		judge := t.judges[rng.IntN(len(t.judges))]
		disposition := dispositions[i%len(dispositions)]
		filed := time.Date(2012+rng.IntN(12), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)

		argumentID := fmt.Sprintf("synthetic-%s-%d", t.name, i+1)
		caseID := fmt.Sprintf("synthetic-case-%s-%d", t.name, i+1)

		var segments []model.ArgumentSegment
		roles := []model.Role{model.RoleOpening, model.RoleRebuttal, model.RoleClosing}
		for seq, text := range t.segments {
			segments = append(segments, model.ArgumentSegment{
				SegmentID:  fmt.Sprintf("%s-segment-%d", argumentID, seq),
				ArgumentID: argumentID,
				Text:       text,
				Role:       roles[seq],
				Seq:        seq,
				Citations:  []string{t.citations[(i+seq)%len(t.citations)]},
			})
		}

		var lawyer *model.Lawyer
		if request.LawyerID != "" {
			lawyer = &model.Lawyer{ID: request.LawyerID, Name: request.LawyerID}
		}

		issue := t.issue
		issue.TaxonomyPath = append([]string{}, t.issue.TaxonomyPath...)

		bundles = append(bundles, model.ArgumentBundle{
			ArgumentID: argumentID,
			Confidence: syntheticConfidence(i, disposition, weights),
			Case: model.Case{
				ID:           caseID,
				Caption:      fmt.Sprintf("%s v. %s", parties[0], parties[1]),
				Court:        t.court,
				Jurisdiction: jurisdiction,
				JudgeID:      judge.ID,
				JudgeName:    judge.Name,
				FiledDate:    &filed,
				Outcome:      string(disposition),
			},
			Issue:       issue,
			Lawyer:      lawyer,
			Stage:       t.stage,
			Disposition: disposition,
			Tenant:      request.Tenant,
			Segments:    segments,
			Synthetic:   true,
		})
	}

	return bundles
}

// syntheticConfidence decays the similarity with rank so confidence never increases down the list.
func syntheticConfidence(rank int, disposition model.Disposition, weights model.ScoringWeights) model.ConfidenceScore {
	outcome := 0.0
	switch disposition {
	case model.DispositionGranted:
		outcome = 1
	case model.DispositionPartial:
		outcome = 2.0 / 3.0
	}

	similarity := 0.9 * math.Pow(0.95, float64(rank))
	features := map[string]float64{
		model.FeatureVectorSimilarity:  similarity,
		model.FeatureGraphRelevance:    0,
		model.FeatureJudgeAlignment:    model.NeutralJudgeAlignment,
		model.FeatureCitationStrength:  0.5,
		model.FeatureOutcomeSimilarity: outcome,
		model.FeatureHopPenalty:        0,
	}

	// The outcome term varies with the disposition cycle, so it is left out of the value
	// to keep the confidence monotonic in rank.
	value := scoring.Hybrid(features, weights) - weights.Outcome*outcome
	return model.NewConfidenceScore(value, features)
}
