package user

import (
	"math"
	"testing"

	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/db"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("The lift, in Block-B, is BROKEN!")
	want := []string{"the", "lift", "in", "block", "b", "is", "broken"}
	if len(tokens) != len(want) {
		t.Fatalf("tokenize returned %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}

// TestFuseRRFBothLegsWin makes sure an entry found by both sub-searches
// always outscores an entry found by only one, even at a worse rank.
func TestFuseRRFBothLegsWin(t *testing.T) {
	fused := fuseRRF(
		[]string{"single-top", "both"},
		[]string{"both"},
		60,
	)

	scores := make(map[string]float64, len(fused))
	for _, f := range fused {
		scores[f.key] = f.score
	}

	if scores["both"] <= scores["single-top"] {
		t.Errorf("entry on both legs scored %f, single-leg rank-1 scored %f; both legs must win",
			scores["both"], scores["single-top"])
	}
}

func TestFuseRRFContribution(t *testing.T) {
	const k = 60
	fused := fuseRRF([]string{"a", "b"}, []string{"b"}, k)

	for _, f := range fused {
		switch f.key {
		case "a":
			if want := 1.0 / float64(k+1); math.Abs(f.score-want) > 1e-12 {
				t.Errorf("score of 'a' = %f, want %f", f.score, want)
			}
			if f.semanticRank != 1 || f.lexicalRank != 0 {
				t.Errorf("ranks of 'a' = (%d, %d), want (1, 0)", f.semanticRank, f.lexicalRank)
			}
		case "b":
			if want := 1.0/float64(k+2) + 1.0/float64(k+1); math.Abs(f.score-want) > 1e-12 {
				t.Errorf("score of 'b' = %f, want %f", f.score, want)
			}
		}
	}
}

func TestFuseRRFDefaultsK(t *testing.T) {
	fused := fuseRRF([]string{"a"}, nil, 0)
	if len(fused) != 1 {
		t.Fatalf("got %d entries, want 1", len(fused))
	}
	if want := 1.0 / 61.0; math.Abs(fused[0].score-want) > 1e-12 {
		t.Errorf("score with k=0 = %f, want %f (k must default to 60)", fused[0].score, want)
	}
}

func TestNormalizeScore(t *testing.T) {
	const k = 60

	// Rank 1 on both legs is the ceiling and must land exactly at 1.0.
	both := 2.0 / float64(k+1)
	if got := NormalizeScore(both, k); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("NormalizeScore(double rank-1) = %f, want 1.0", got)
	}

	// Rank 1 on a single leg lands at 0.5.
	single := 1.0 / float64(k+1)
	if got := NormalizeScore(single, k); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("NormalizeScore(single rank-1) = %f, want 0.5", got)
	}

	if got := NormalizeScore(10, k); got != 1.0 {
		t.Errorf("NormalizeScore must clamp to 1.0, got %f", got)
	}
	if got := NormalizeScore(0, k); got != 0 {
		t.Errorf("NormalizeScore(0) = %f, want 0", got)
	}
}

func TestLexicalRank(t *testing.T) {
	entries := []db.KnowledgeEntry{
		{EntryKey: "levy-arrears", Title: "Levy arrears process", Body: "levy payment arrears notice"},
		{EntryKey: "lift-repair", Title: "Lift repair", Body: "lift broken repair common property"},
		{EntryKey: "pool-rules", Title: "Pool rules", Body: "swimming pool hours"},
	}

	keys := lexicalRank("my levy payment is in arrears", entries, 10)
	if len(keys) == 0 || keys[0] != "levy-arrears" {
		t.Fatalf("lexicalRank top = %v, want levy-arrears first", keys)
	}
	for _, key := range keys {
		if key == "pool-rules" {
			t.Error("zero-overlap entry must not rank")
		}
	}

	if got := lexicalRank("levy lift pool", entries, 1); len(got) != 1 {
		t.Errorf("topK truncation failed, got %d keys", len(got))
	}
}

func TestSortCandidatesTieBreaks(t *testing.T) {
	candidates := []common.ScoredEntry{
		{Entry: db.KnowledgeEntry{EntryKey: "b", SuccessRate: 0.7, UsageCount: 5}, Score: 0.5},
		{Entry: db.KnowledgeEntry{EntryKey: "a", SuccessRate: 0.7, UsageCount: 9}, Score: 0.5},
		{Entry: db.KnowledgeEntry{EntryKey: "c", SuccessRate: 0.9, UsageCount: 50}, Score: 0.5},
		{Entry: db.KnowledgeEntry{EntryKey: "d", SuccessRate: 0.1, UsageCount: 0}, Score: 0.8},
	}

	sortCandidates(candidates)

	got := []string{
		candidates[0].Entry.EntryKey,
		candidates[1].Entry.EntryKey,
		candidates[2].Entry.EntryKey,
		candidates[3].Entry.EntryKey,
	}
	// d wins on score; then c on success rate; then b beats a on lower usage.
	want := []string{"d", "c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortCandidatesDeterministicOnFullTie(t *testing.T) {
	candidates := []common.ScoredEntry{
		{Entry: db.KnowledgeEntry{EntryKey: "z", SuccessRate: 0.5, UsageCount: 3}, Score: 0.4},
		{Entry: db.KnowledgeEntry{EntryKey: "a", SuccessRate: 0.5, UsageCount: 3}, Score: 0.4},
	}
	sortCandidates(candidates)
	if candidates[0].Entry.EntryKey != "a" {
		t.Errorf("full tie must fall back to entry key order, got %s first", candidates[0].Entry.EntryKey)
	}
}
