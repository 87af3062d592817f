package matching

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/spigell/cv-matcher/internal/vocabulary"
)

// maxPasses bounds the fixed-point iteration in Normalize.
const maxPasses = 6

// minStemRoot is the shortest root the suffix stripper may leave behind.
const minStemRoot = 5

type suffixRule struct {
	suffix string
	allow  func(root string) bool
}

// Applied in order; the first matching rule wins. The es and s rules are
// stricter than plain suffix chopping: "databases" becomes "database" and
// words such as "status" or "kubernetes" keep their ending.
var suffixRules = []suffixRule{
	{suffix: "ing"},
	{suffix: "ed"},
	{suffix: "es", allow: func(root string) bool {
		for _, end := range []string{"ss", "sh", "ch", "x", "z"} {
			if strings.HasSuffix(root, end) {
				return true
			}
		}
		return false
	}},
	{suffix: "s", allow: func(root string) bool {
		for _, end := range []string{"s", "u", "i"} {
			if strings.HasSuffix(root, end) {
				return false
			}
		}
		return true
	}},
}

// Normalizer canonicalizes raw keywords into comparable terms.
// It is read-only after construction and safe for concurrent use.
type Normalizer struct {
	aliases     map[string]string
	stopWords   map[string]struct{}
	protected   map[string]struct{}
	fingerprint string
}

// NewNormalizer builds a normalizer from a copy of the vocabulary.
// A nil vocabulary selects the embedded defaults.
func NewNormalizer(v *vocabulary.Vocabulary) (*Normalizer, error) {
	if v == nil {
		v = vocabulary.Default()
	}

	tables := &vocabulary.Vocabulary{
		Aliases:   make(map[string]string, len(v.Aliases)),
		StopWords: append([]string(nil), v.StopWords...),
	}
	for from, to := range v.Aliases {
		tables.Aliases[from] = to
	}

	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}

	stop := make(map[string]struct{}, len(tables.StopWords))
	for _, w := range tables.StopWords {
		stop[w] = struct{}{}
	}

	return &Normalizer{
		aliases:     tables.Aliases,
		stopWords:   stop,
		protected:   tables.Canonicals(),
		fingerprint: tables.Fingerprint(),
	}, nil
}

// Fingerprint identifies the vocabulary the normalizer was built from.
func (n *Normalizer) Fingerprint() string {
	return n.fingerprint
}

// Normalize maps a raw keyword to zero or one normalized term.
// Multi-word keywords stay a single space-joined term. The pipeline
// (tokenize, alias, stop words, suffix stripping) is repeated until the
// result stops changing, so normalizing a normalized term is a no-op.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	term := raw
	for range maxPasses {
		next := n.pass(term)
		if next == term {
			break
		}
		term = next
		if term == "" {
			break
		}
	}

	if term == "" {
		return "", false
	}

	return term, true
}

// NormalizeSet normalizes every member of the keyword set.
// Keywords that normalize identically count once.
func (n *Normalizer) NormalizeSet(keywords KeywordSet) TermSet {
	terms := make(TermSet, keywords.Len())
	for keyword := range keywords.items {
		if term, ok := n.Normalize(keyword); ok {
			terms[term] = struct{}{}
		}
	}
	return terms
}

func (n *Normalizer) pass(raw string) string {
	tokens := tokenize(strings.TrimSpace(cases.Fold().String(raw)))
	if len(tokens) == 0 {
		return ""
	}

	phrase := strings.Join(tokens, " ")
	if canonical, ok := n.aliases[phrase]; ok {
		phrase = canonical
	}

	kept := make([]string, 0, len(tokens))
	for _, token := range strings.Fields(phrase) {
		if _, stop := n.stopWords[token]; stop {
			continue
		}
		kept = append(kept, n.stem(token))
	}

	return strings.Join(kept, " ")
}

func (n *Normalizer) stem(token string) string {
	if _, ok := n.protected[token]; ok {
		return token
	}

	for _, r := range token {
		if !unicode.IsLetter(r) {
			return token
		}
	}

	for _, rule := range suffixRules {
		if !strings.HasSuffix(token, rule.suffix) {
			continue
		}
		root := strings.TrimSuffix(token, rule.suffix)
		if utf8.RuneCountInString(root) < minStemRoot {
			continue
		}
		if rule.allow != nil && !rule.allow(root) {
			continue
		}
		return root
	}

	return token
}

func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-'
}

// tokenize splits s into runs of term runes. Trailing dots and dashes are
// sentence punctuation rather than part of the term, and runs without a letter
// or digit are dropped.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return !isTermRune(r) })

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimLeft(field, "-")
		field = strings.TrimRight(field, ".-")
		if !strings.ContainsFunc(field, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			continue
		}
		tokens = append(tokens, field)
	}

	return tokens
}
