package matching

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
)

func TestBuildIDF(t *testing.T) {
	t.Parallel()

	idf := BuildIDF([]TermSet{
		NewTermSet("python", "aws"),
		NewTermSet("python", "docker"),
		NewTermSet("python"),
	})

	if idf["python"] != 1.0 {
		t.Fatalf("expected term present in every job to weigh exactly 1, got %v", idf["python"])
	}

	want := math.Log(4.0/2.0) + 1
	if math.Abs(idf["aws"]-want) > 1e-12 {
		t.Fatalf("expected aws weight %v, got %v", want, idf["aws"])
	}

	if idf["aws"] <= idf["python"] {
		t.Fatalf("expected rare terms to weigh more than common ones")
	}

	if w := idf.Weight("rust"); w != DefaultWeight {
		t.Fatalf("expected unseen term to weigh %v, got %v", DefaultWeight, w)
	}
}

func TestBuildIDFEmptyCorpus(t *testing.T) {
	t.Parallel()

	idf := BuildIDF(nil)
	if len(idf) != 0 {
		t.Fatalf("expected empty table, got %v", idf)
	}
	if idf.Weight("python") != DefaultWeight {
		t.Fatalf("expected default weight from empty table")
	}
}

func TestScoreScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate TermSet
		job       TermSet
		expect    float64
	}{
		{
			name:      "identical sets",
			candidate: NewTermSet("python", "api", "aws"),
			job:       NewTermSet("python", "api", "aws"),
			expect:    1.0,
		},
		{
			name:      "partial overlap with uniform weights",
			candidate: NewTermSet("python", "api", "aws", "fastapi"),
			job:       NewTermSet("python", "aws", "docker", "terraform"),
			expect:    2.0 / 6.0,
		},
		{
			name:      "disjoint",
			candidate: NewTermSet("java", "spring"),
			job:       NewTermSet("python", "aws"),
			expect:    0,
		},
		{
			name:      "empty candidate",
			candidate: NewTermSet(),
			job:       NewTermSet("python"),
			expect:    0,
		},
		{
			name:      "empty job",
			candidate: NewTermSet("python"),
			job:       NewTermSet(),
			expect:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			idf := BuildIDF([]TermSet{tt.job})
			got := Score(tt.candidate, tt.job, idf)
			if math.Abs(got-tt.expect) > 1e-12 {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestScoreWeightsRareTerms(t *testing.T) {
	t.Parallel()

	idf := IDFTable{"python": 1.0, "rust": 3.0}
	candidate := NewTermSet("python", "rust")

	common := Score(candidate, NewTermSet("python"), idf)
	rare := Score(candidate, NewTermSet("rust"), idf)
	if rare <= common {
		t.Fatalf("expected overlap on a rare term (%v) to outscore a common one (%v)", rare, common)
	}
}

func TestScoreDegenerateWeights(t *testing.T) {
	t.Parallel()

	idf := IDFTable{"a": 0, "b": 0}
	if got := Score(NewTermSet("a"), NewTermSet("a", "b"), idf); got != 0 {
		t.Fatalf("expected zero-weight union to score 0, got %v", got)
	}
}

func TestScoreProperties(t *testing.T) {
	t.Parallel()

	vocab := make([]string, 40)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("term%02d", i)
	}

	rng := rand.New(rand.NewPCG(7, 42))
	randomSet := func() TermSet {
		set := NewTermSet()
		for range rng.IntN(8) {
			set[vocab[rng.IntN(len(vocab))]] = struct{}{}
		}
		return set
	}

	for i := range 500 {
		corpus := make([]TermSet, 1+rng.IntN(6))
		for j := range corpus {
			corpus[j] = randomSet()
		}
		idf := BuildIDF(corpus)

		a, b := randomSet(), randomSet()

		ab := Score(a, b, idf)
		ba := Score(b, a, idf)
		if ab != ba {
			t.Fatalf("iteration %d: score is not symmetric: %v != %v", i, ab, ba)
		}

		if ab < 0 || ab > 1 {
			t.Fatalf("iteration %d: score %v out of bounds", i, ab)
		}

		if len(a) > 0 {
			if self := Score(a, a, idf); self != 1.0 {
				t.Fatalf("iteration %d: self score is %v", i, self)
			}
		}

		if Score(NewTermSet(), a, idf) != 0 || Score(a, NewTermSet(), idf) != 0 {
			t.Fatalf("iteration %d: empty side must score 0", i)
		}
	}
}

func TestOverlap(t *testing.T) {
	t.Parallel()

	got := Overlap(NewTermSet("go", "aws", "python"), NewTermSet("python", "go", "rust"))
	if len(got) != 2 || got[0] != "go" || got[1] != "python" {
		t.Fatalf("unexpected overlap: %v", got)
	}
}
