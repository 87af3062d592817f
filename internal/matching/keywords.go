package matching

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// KeywordSet is an immutable set of case-folded free-text keywords.
// Membership is the unit of signal: adding the same keyword twice has no effect.
// The zero value is an empty set.
type KeywordSet struct {
	items map[string]struct{}
}

// NewKeywordSet case-folds and trims the raw keywords, dropping blanks and duplicates.
func NewKeywordSet(raw ...string) KeywordSet {
	items := make(map[string]struct{}, len(raw))
	fold := cases.Fold()

	for _, keyword := range raw {
		keyword = strings.TrimSpace(fold.String(keyword))
		if keyword == "" {
			continue
		}
		items[keyword] = struct{}{}
	}

	return KeywordSet{items: items}
}

// Len returns the number of distinct keywords.
func (s KeywordSet) Len() int {
	return len(s.items)
}

// Contains reports whether the already case-folded keyword is a member.
func (s KeywordSet) Contains(keyword string) bool {
	_, ok := s.items[keyword]
	return ok
}

// Items returns the keywords in lexical order.
func (s KeywordSet) Items() []string {
	items := make([]string, 0, len(s.items))
	for keyword := range s.items {
		items = append(items, keyword)
	}
	sort.Strings(items)
	return items
}

func (s KeywordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

func (s *KeywordSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewKeywordSet(raw...)
	return nil
}

// TermSet is a set of normalized terms.
type TermSet map[string]struct{}

// NewTermSet builds a set from already normalized terms.
func NewTermSet(terms ...string) TermSet {
	set := make(TermSet, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		set[term] = struct{}{}
	}
	return set
}

// Has reports whether term is a member.
func (t TermSet) Has(term string) bool {
	_, ok := t[term]
	return ok
}

// Sorted returns the terms in lexical order.
func (t TermSet) Sorted() []string {
	terms := make([]string, 0, len(t))
	for term := range t {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func (t TermSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Sorted())
}

func (t *TermSet) UnmarshalJSON(data []byte) error {
	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}
	*t = NewTermSet(terms...)
	return nil
}
