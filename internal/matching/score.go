package matching

import (
	"math"
	"sort"
)

// DefaultWeight is the weight of terms absent from the IDF table.
const DefaultWeight = 1.0

// IDFTable maps normalized terms to their smoothed inverse document frequency.
type IDFTable map[string]float64

// Weight returns the IDF weight of term, or DefaultWeight when the corpus never saw it.
func (t IDFTable) Weight(term string) float64 {
	if w, ok := t[term]; ok {
		return w
	}
	return DefaultWeight
}

func (t IDFTable) sum(terms []string) float64 {
	total := 0.0
	for _, term := range terms {
		total += t.Weight(term)
	}
	return total
}

// BuildIDF computes idf = ln((N+1)/(d+1)) + 1 for every term, where N is the
// number of term sets (at least 1) and d the number of sets containing the term.
// A term present in every set gets a weight of exactly 1.
func BuildIDF(termSets []TermSet) IDFTable {
	n := max(len(termSets), 1)

	df := make(map[string]int)
	for _, set := range termSets {
		for term := range set {
			df[term]++
		}
	}

	idf := make(IDFTable, len(df))
	for term, d := range df {
		idf[term] = math.Log(float64(n+1)/float64(d+1)) + 1.0
	}

	return idf
}

// Score returns the IDF-weighted Jaccard similarity of a and b in [0, 1].
// Either set being empty, or a union with no weight, scores 0.
// The function is symmetric in a and b.
func Score(a, b TermSet, idf IDFTable) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter, union := overlap(a, b)

	wUnion := idf.sum(union)
	if wUnion == 0 || math.IsNaN(wUnion) {
		return 0
	}

	score := idf.sum(inter) / wUnion
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	}

	return score
}

// Overlap returns the terms shared by a and b in lexical order.
func Overlap(a, b TermSet) []string {
	inter, _ := overlap(a, b)
	return inter
}

// overlap returns the sorted intersection and union of a and b.
// Sorting keeps floating point sums independent of argument order.
func overlap(a, b TermSet) (inter, union []string) {
	union = make([]string, 0, len(a)+len(b))
	for term := range a {
		union = append(union, term)
		if b.Has(term) {
			inter = append(inter, term)
		}
	}
	for term := range b {
		if !a.Has(term) {
			union = append(union, term)
		}
	}

	sort.Strings(inter)
	sort.Strings(union)
	return inter, union
}
