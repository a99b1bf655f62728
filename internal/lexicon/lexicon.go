// Package lexicon normalizes question text: tokenization, stop-word
// filtering, synonym expansion, and extraction of numeric literals and
// value-like entity spans.
package lexicon

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var tokenRE = regexp.MustCompile(`[a-z0-9_]+`)

// Stop words filtered out of question tokens. Intent words (show, top,
// unique, ...) are stripped here because the rule extractor matches them on
// the raw question text, not on the token stream.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "in": {}, "at": {}, "by": {}, "for": {},
	"of": {}, "to": {}, "on": {}, "with": {},
	"show": {}, "list": {}, "display": {}, "give": {}, "me": {}, "how": {},
	"many": {}, "what": {}, "which": {}, "where": {}, "when": {},
	"is": {}, "are": {}, "do": {}, "does": {}, "all": {}, "any": {},
	"and": {}, "or": {}, "from": {}, "table": {}, "column": {},
	"rows": {}, "records": {}, "entries": {}, "unique": {}, "distinct": {},
	"top": {}, "first": {}, "within": {},
}

// Curated synonym table used for matching question tokens against schema
// surface forms.
var staticSynonyms = map[string][]string{
	"policy":        {"policies", "contract"},
	"claim":         {"claims", "loss", "case"},
	"role":          {"roles", "permission", "group"},
	"roles":         {"role", "permissions", "groups"},
	"status":        {"state", "stage"},
	"amount":        {"value", "sum", "total"},
	"city":          {"town", "location"},
	"number":        {"code", "id", "identifier"},
	"active":        {"current", "open", "enabled"},
	"organization":  {"organizations", "org", "company", "customer", "client", "party", "policyholder"},
	"organizations": {"organization", "orgs", "companies", "clients", "parties", "policyholders"},
	"user":          {"users", "account", "accounts", "member", "members", "user_account"},
	"users":         {"user", "accounts", "members", "user_account"},
	"credit_limit":  {"limit", "coverage", "exposure"},
}

// Analyzer is the explicitly constructed lexical component shared by the
// predictor, ranker, and ingestion pipeline. Learned synonyms are injected
// after loading the synonym store, so the analyzer itself holds no hidden
// global state.
type Analyzer struct {
	learned map[string][]string
}

// NewAnalyzer creates an analyzer with the curated synonym table only.
func NewAnalyzer() *Analyzer {
	return &Analyzer{learned: map[string][]string{}}
}

// SetLearnedSynonyms replaces the learned synonym expansions. Callers pass
// only entries that met the promotion evidence threshold.
func (a *Analyzer) SetLearnedSynonyms(syn map[string][]string) {
	if syn == nil {
		syn = map[string][]string{}
	}

	a.learned = syn
}

// Tokens returns lowercased tokens with stop words and single characters
// removed.
func (a *Analyzer) Tokens(text string) []string {
	var out []string

	for _, tok := range RawTokens(text) {
		if len(tok) <= 1 {
			continue
		}

		if _, stop := stopWords[tok]; stop {
			continue
		}

		out = append(out, tok)
	}

	return out
}

// IsStopWord reports whether tok is in the fixed stop set.
func IsStopWord(tok string) bool {
	_, ok := stopWords[tok]
	return ok
}

// RawTokens splits text into lowercase word tokens without filtering.
func RawTokens(text string) []string {
	return tokenRE.FindAllString(strings.ToLower(text), -1)
}

// Synonyms returns the expansion set for a token: the token itself, curated
// synonyms, promoted learned synonyms, and a naive singular/plural toggle.
func (a *Analyzer) Synonyms(tok string) []string {
	seen := map[string]struct{}{tok: {}}

	for _, s := range staticSynonyms[tok] {
		seen[s] = struct{}{}
	}

	for _, s := range a.learned[tok] {
		seen[s] = struct{}{}
	}

	if strings.HasSuffix(tok, "s") {
		seen[strings.TrimSuffix(tok, "s")] = struct{}{}
	} else {
		seen[tok+"s"] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}

	sort.Strings(out)

	return out
}

// UnderscoreToWords turns a schema identifier into a space-separated phrase.
func UnderscoreToWords(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
}

// Singular applies a deliberately small singularizer; aggressive English
// morphology causes more resolution errors than it fixes.
func Singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ses"): // statuses -> status
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && len(s) > 3:
		return s[:len(s)-1]
	default:
		return s
	}
}

// SurfaceForms returns the lexical variants of a schema identifier used for
// fuzzy matching: the de-underscored phrase and its singular.
func SurfaceForms(name string) []string {
	w := UnderscoreToWords(name)
	forms := map[string]struct{}{w: {}, Singular(w): {}}

	out := make([]string, 0, len(forms))
	for f := range forms {
		out = append(out, f)
	}

	sort.Strings(out)

	return out
}

// Normalized collapses text to a canonical single-spaced token string.
func Normalized(s string) string {
	return strings.Join(RawTokens(s), " ")
}

// NumbersAndYears extracts integer literals, splitting plausible 4-digit
// years (1900-2100) from other numbers.
func NumbersAndYears(text string) (nums, years []int) {
	for _, tok := range RawTokens(text) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}

		if v >= 1900 && v <= 2100 {
			if !containsInt(years, v) {
				years = append(years, v)
			}
		} else if !containsInt(nums, v) {
			nums = append(nums, v)
		}
	}

	return nums, years
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}

	return false
}

var entitySpanRE = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?: [A-Z][a-zA-Z]+)*\b`)

// Entities extracts value-like spans from the raw question: runs of
// capitalized words, skipping a leading sentence-initial word. These bias
// equality-filter prediction toward proper nouns (cities, company names)
// before plain keyword matching takes over.
func Entities(text string) []string {
	spans := entitySpanRE.FindAllStringIndex(text, -1)

	var out []string

	for _, span := range spans {
		// A capitalized word at the very start of the question is usually
		// just sentence case, not a named value.
		if span[0] == 0 && !strings.Contains(text[span[0]:span[1]], " ") {
			continue
		}

		out = append(out, text[span[0]:span[1]])
	}

	return out
}
