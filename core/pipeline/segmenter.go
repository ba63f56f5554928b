package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/core/vector"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

// SegmentFunc splits the text of an argument into ordered segments.
// Seq is zero-based, segment ids are left empty for the pipeline to assign.
type SegmentFunc func(ctx context.Context, text string, argumentID string) ([]model.ArgumentSegment, error)

// splitSentences splits text after sentence punctuation followed by a space.
// Periods of common legal abbreviations ("v.", "U.S.", "Inc.") do not end a sentence.
func splitSentences(text string) []string {
	words := strings.Fields(text)

	var sentences []string
	var current []string
	for i, word := range words {
		current = append(current, word)
		last := i == len(words)-1
		if last || endsSentence(word) {
			sentences = append(sentences, strings.Join(current, " "))
			current = nil
		}
	}

	return sentences
}

var abbreviations = map[string]bool{
	"v.": true, "vs.": true, "inc.": true, "co.": true, "corp.": true, "ltd.": true,
	"no.": true, "nos.": true, "id.": true, "cf.": true, "e.g.": true, "i.e.": true,
	"u.s.": true, "s.": true, "ct.": true, "f.": true, "supp.": true, "cir.": true,
	"cal.": true, "del.": true, "n.d.": true, "s.d.": true, "e.d.": true, "w.d.": true,
	"mr.": true, "ms.": true, "dr.": true, "hon.": true, "art.": true, "sec.": true,
	"u.s.c.": true, "u.s.c.a.": true, "c.f.r.": true, "u.c.c.": true, "fed.": true, "r.": true,
	"civ.": true, "p.": true, "app.": true, "ed.": true, "l.": true, "cl.": true,
}

func endsSentence(word string) bool {
	if strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?") {
		return true
	}
	if !strings.HasSuffix(word, ".") {
		return false
	}
	return !abbreviations[strings.ToLower(word)]
}

// roleFor assigns opening to the first and closing to the last of several segments.
func roleFor(index int, count int) model.Role {
	switch {
	case index == 0:
		return model.RoleOpening
	case index == count-1:
		return model.RoleClosing
	default:
		return model.RoleRebuttal
	}
}

func segmentsFrom(parts []string, argumentID string) []model.ArgumentSegment {
	segments := make([]model.ArgumentSegment, 0, len(parts))
	for i, part := range parts {
		segments = append(segments, model.ArgumentSegment{
			ArgumentID: argumentID,
			Text:       part,
			Role:       roleFor(i, len(parts)),
			Seq:        i,
		})
	}
	return segments
}

// SentenceSegmenter creates a segmenter grouping maxSentences sentences per segment
func SentenceSegmenter(maxSentences int) SegmentFunc {
	return func(ctx context.Context, text string, argumentID string) ([]model.ArgumentSegment, error) {
		if maxSentences <= 0 {
			return nil, helper.NewError("sentence segmenter", fmt.Errorf("%w: max sentences per segment must be positive", helper.ErrConfiguration))
		}

		sentences := splitSentences(text)
		var parts []string
		for start := 0; start < len(sentences); start += maxSentences {
			end := min(start+maxSentences, len(sentences))
			parts = append(parts, strings.Join(sentences[start:end], " "))
		}

		return segmentsFrom(parts, argumentID), nil
	}
}

// ParagraphSegmenter creates a segmenter that splits at blank lines
func ParagraphSegmenter() SegmentFunc {
	return func(ctx context.Context, text string, argumentID string) ([]model.ArgumentSegment, error) {
		var parts []string
		for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
			paragraph = strings.Join(strings.Fields(paragraph), " ")
			if paragraph != "" {
				parts = append(parts, paragraph)
			}
		}

		return segmentsFrom(parts, argumentID), nil
	}
}

// SemanticSegmenter creates a segmenter that starts a new segment where the
// similarity of consecutive sentences drops below threshold or the segment
// would exceed maxChars.
func SemanticSegmenter(provider embedding.Provider, maxChars int, threshold float64) SegmentFunc {
	return func(ctx context.Context, text string, argumentID string) ([]model.ArgumentSegment, error) {
		if provider == nil || maxChars <= 0 {
			return nil, helper.NewError("semantic segmenter", fmt.Errorf("%w: provider and positive max chars are required", helper.ErrConfiguration))
		}

		sentences := splitSentences(text)
		if len(sentences) == 0 {
			return []model.ArgumentSegment{}, nil
		}

		embeddings, err := provider.EmbedBatch(ctx, sentences)
		if err != nil {
			return nil, helper.NewError("embed sentences", err)
		}
		if len(embeddings) != len(sentences) {
			return nil, helper.NewError("embed sentences", fmt.Errorf("%w: got %d embeddings for %d sentences", helper.ErrProviderData, len(embeddings), len(sentences)))
		}

		var parts []string
		current := []string{sentences[0]}
		length := len(sentences[0])
		for i := 1; i < len(sentences); i++ {
			similarity := vector.CosineSimilarity(embeddings[i-1], embeddings[i])
			if similarity < threshold || length+1+len(sentences[i]) > maxChars {
				parts = append(parts, strings.Join(current, " "))
				current = nil
				length = -1
			}
			current = append(current, sentences[i])
			length += 1 + len(sentences[i])
		}
		parts = append(parts, strings.Join(current, " "))

		return segmentsFrom(parts, argumentID), nil
	}
}
