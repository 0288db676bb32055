// Package query turns raw search input into a structured, immutable query
// context: a normalized form of the text, recognized domain entities, a
// coarse query type and intent, and synonym-based expansion terms. Analysis
// is pure and deterministic; it makes no external calls.
package query

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyQuery is returned by Analyze when the input is empty or contains
// only whitespace.
var ErrEmptyQuery = errors.New("query is empty")

// Type classifies the grammatical shape of a query.
type Type string

const (
	TypeDefinition  Type = "definition"
	TypeProcedural  Type = "procedural"
	TypeComparative Type = "comparative"
	TypeEnumeration Type = "enumeration"
	TypeGeneral     Type = "general"
)

// Intent classifies what the user is trying to accomplish.
type Intent string

const (
	IntentEducational     Intent = "educational"
	IntentImplementation  Intent = "implementation"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentInformational   Intent = "informational"
)

// Context is the result of analyzing a single query. It is created once per
// request and never mutated afterwards.
type Context struct {
	// Original is the raw query text as received.
	Original string

	// Normalized is the lowercased query with punctuation (except hyphens)
	// stripped and whitespace collapsed.
	Normalized string

	// Expansions holds synonym expansion terms in table order. Duplicates
	// are preserved when multiple query words map to the same synonym.
	Expansions []string

	// Type is the query type determined by the first matching rule.
	Type Type

	// Intent is the detected user intent.
	Intent Intent

	// Entities holds recognized domain terms in vocabulary order.
	Entities []string
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s-]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// domainVocabulary is the fixed list of warehouse management terms used for
// entity extraction. Matching walks the list in order, so multi-word terms
// come first.
var domainVocabulary = []string{
	"warehouse management system",
	"wave picking",
	"cycle counting",
	"cross-docking",
	"abc analysis",
	"just-in-time",
	"safety stock",
	"reorder point",
	"order fulfillment",
	"fifo",
	"lifo",
	"jit",
	"wms",
	"barcode",
	"sku",
	"pallet",
	"inventory",
	"picking",
	"packing",
	"receiving",
	"shipping",
}

// synonymTable maps normalized query words to up to two expansion terms each.
var synonymTable = map[string][]string{
	"inventory": {"stock", "supplies"},
	"warehouse": {"facility", "distribution center"},
	"picking":   {"order picking", "selection"},
	"shipping":  {"dispatch", "outbound"},
	"receiving": {"inbound", "intake"},
	"fifo":      {"first-in-first-out"},
	"barcode":   {"scanning", "labeling"},
	"count":     {"audit", "tally"},
	"storage":   {"slotting", "putaway"},
	"optimize":  {"improve", "streamline"},
	"cost":      {"expense", "overhead"},
	"error":     {"discrepancy", "mistake"},
}

// typeRules are evaluated in order; the first rule with a matching keyword
// wins. A query matching no rule is TypeGeneral.
var typeRules = []struct {
	qtype    Type
	keywords []string
}{
	{TypeDefinition, []string{"what is", "define", "definition", "meaning"}},
	{TypeProcedural, []string{"how to", "how do", "steps", "process"}},
	{TypeComparative, []string{"best", "compare", "vs", "versus", "difference"}},
	{TypeEnumeration, []string{"list", "examples", "types of"}},
}

// intentRules are evaluated in order, independently of typeRules. A query
// matching no rule is IntentInformational.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentEducational, []string{"learn", "understand", "explain"}},
	{IntentImplementation, []string{"implement", "setup", "configure"}},
	{IntentTroubleshooting, []string{"problem", "issue", "troubleshoot", "fix"}},
}

// Analyze builds a Context from raw query text. It returns ErrEmptyQuery if
// the trimmed input is empty.
func Analyze(raw string) (*Context, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyQuery
	}

	normalized := normalize(raw)

	return &Context{
		Original:   raw,
		Normalized: normalized,
		Expansions: expand(normalized),
		Type:       classifyType(normalized),
		Intent:     detectIntent(normalized),
		Entities:   extractEntities(normalized),
	}, nil
}

// Terms returns the deduplicated union of normalized-query words and
// expansion terms, in first-seen order. This is the term set scored by the
// lexical retriever.
func (c *Context) Terms() []string {
	seen := make(map[string]struct{})
	var terms []string

	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	for _, w := range strings.Fields(c.Normalized) {
		add(w)
	}
	for _, e := range c.Expansions {
		add(e)
	}
	return terms
}

func normalize(raw string) string {
	s := strings.ToLower(raw)
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func extractEntities(normalized string) []string {
	var entities []string
	seen := make(map[string]struct{})
	for _, term := range domainVocabulary {
		if !strings.Contains(normalized, term) {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		entities = append(entities, term)
	}
	return entities
}

func classifyType(normalized string) Type {
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.qtype
			}
		}
	}
	return TypeGeneral
}

func detectIntent(normalized string) Intent {
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.intent
			}
		}
	}
	return IntentInformational
}

// expand appends table-defined synonyms for each query word. Duplicates are
// intentionally kept so repeated words contribute repeated expansions.
func expand(normalized string) []string {
	var expansions []string
	for _, word := range strings.Fields(normalized) {
		if syns, ok := synonymTable[word]; ok {
			expansions = append(expansions, syns...)
		}
	}
	return expansions
}
