package search

import (
	"sort"
	"strings"
	"time"

	"github.com/knoguchi/kbsearch/internal/query"
)

// Boost and penalty constants for the composite score.
const (
	titleBoostPerWord = 0.1
	titleBoostCap     = 0.3
	entityBoostPerHit = 0.05
	entityBoostCap    = 0.2
	freshnessBoost    = 0.05
	shortDocWords     = 10
	shortDocPenalty   = 0.1
	longDocWords      = 500
	longDocPenalty    = 0.05
)

// Weights is the (semantic, lexical) weight pair applied to the base score.
type Weights struct {
	Semantic float64
	Lexical  float64
}

// weightsFor selects the weight pair by query type. Definition queries lean
// harder on the semantic signal; procedural queries keep more of the lexical
// signal.
func weightsFor(t query.Type) Weights {
	switch t {
	case query.TypeDefinition:
		return Weights{Semantic: 0.8, Lexical: 0.2}
	case query.TypeProcedural:
		return Weights{Semantic: 0.6, Lexical: 0.4}
	default:
		return Weights{Semantic: 0.7, Lexical: 0.3}
	}
}

// Fuser merges semantic and lexical candidate lists into one ranked result
// list.
type Fuser struct {
	// now is injectable so freshness scoring is testable.
	now func() time.Time
}

// NewFuser creates a Fuser using the wall clock for freshness boosts.
func NewFuser() *Fuser {
	return &Fuser{now: time.Now}
}

// Fuse merges the two candidate lists by chunk ID and computes the weighted
// composite score with boosts and penalties. A chunk present in only one list
// scores zero on the missing side. The output is sorted by descending final
// score; ties keep first-seen input order (semantic list order, then
// lexical-only candidates in lexical order).
func (f *Fuser) Fuse(semantic, lexical []Candidate, qc *query.Context) []Result {
	merged := make(map[string]*Result, len(semantic)+len(lexical))
	order := make([]string, 0, len(semantic)+len(lexical))

	for _, c := range semantic {
		if _, exists := merged[c.ID]; exists {
			continue
		}
		merged[c.ID] = &Result{
			ID:            c.ID,
			Title:         c.Title,
			Content:       c.Content,
			Metadata:      c.Metadata,
			SemanticScore: c.Score,
		}
		order = append(order, c.ID)
	}

	for _, c := range lexical {
		if r, exists := merged[c.ID]; exists {
			r.LexicalScore = c.Score
			if len(r.Highlights) == 0 {
				r.Highlights = c.Highlights
			}
			continue
		}
		merged[c.ID] = &Result{
			ID:           c.ID,
			Title:        c.Title,
			Content:      c.Content,
			Metadata:     c.Metadata,
			LexicalScore: c.Score,
			Highlights:   c.Highlights,
		}
		order = append(order, c.ID)
	}

	weights := weightsFor(qc.Type)
	currentYear := f.now().Year()

	results := make([]Result, 0, len(order))
	for _, id := range order {
		r := merged[id]
		r.Factors = f.rankFactors(r, qc, weights, currentYear)
		r.FinalScore = r.Factors.Base + r.Factors.TitleBoost + r.Factors.EntityBoost +
			r.Factors.FreshnessBoost - r.Factors.LengthPenalty
		results = append(results, *r)
	}

	// Stable sort keeps first-seen input order on equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	return results
}

func (f *Fuser) rankFactors(r *Result, qc *query.Context, w Weights, currentYear int) RankFactors {
	return RankFactors{
		Base:           r.SemanticScore*w.Semantic + r.LexicalScore*w.Lexical,
		TitleBoost:     titleBoost(qc.Normalized, r.Title),
		EntityBoost:    entityBoost(qc.Entities, r.Content),
		FreshnessBoost: freshness(r.Metadata.UploadedAt, currentYear),
		LengthPenalty:  lengthPenalty(r.Content),
	}
}

// titleBoost rewards distinct query words present in the title, capped.
func titleBoost(normalizedQuery, title string) float64 {
	if title == "" {
		return 0
	}
	lowerTitle := strings.ToLower(title)

	seen := make(map[string]struct{})
	matches := 0
	for _, word := range strings.Fields(normalizedQuery) {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		if strings.Contains(lowerTitle, word) {
			matches++
		}
	}

	boost := titleBoostPerWord * float64(matches)
	if boost > titleBoostCap {
		boost = titleBoostCap
	}
	return boost
}

// entityBoost rewards recognized domain entities present in the content,
// capped.
func entityBoost(entities []string, content string) float64 {
	if len(entities) == 0 {
		return 0
	}
	lowerContent := strings.ToLower(content)

	matches := 0
	for _, entity := range entities {
		if strings.Contains(lowerContent, entity) {
			matches++
		}
	}

	boost := entityBoostPerHit * float64(matches)
	if boost > entityBoostCap {
		boost = entityBoostCap
	}
	return boost
}

// freshness rewards chunks uploaded in the current calendar year.
func freshness(uploadedAt time.Time, currentYear int) float64 {
	if uploadedAt.IsZero() || uploadedAt.Year() != currentYear {
		return 0
	}
	return freshnessBoost
}

// lengthPenalty penalizes very short chunks hard and very long chunks
// lightly.
func lengthPenalty(content string) float64 {
	words := len(strings.Fields(content))
	switch {
	case words < shortDocWords:
		return shortDocPenalty
	case words > longDocWords:
		return longDocPenalty
	default:
		return 0
	}
}
