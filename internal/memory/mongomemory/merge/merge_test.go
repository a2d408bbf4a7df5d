package merge

import "testing"

func TestNormalizeTextUsesSigmoidFormula(t *testing.T) {
	hits := []Hit{{Path: "a", RawScore: 5, Method: MethodText}}
	Normalize(hits)
	if hits[0].Score != 0.5 {
		t.Errorf("score = %v, want 0.5 for raw=5", hits[0].Score)
	}
}

func TestNormalizeVectorClampsToUnitRange(t *testing.T) {
	hits := []Hit{
		{Path: "a", RawScore: 1.4, Method: MethodVector},
		{Path: "b", RawScore: -0.2, Method: MethodKB},
	}
	Normalize(hits)
	if hits[0].Score != 1 {
		t.Errorf("score = %v, want clamped to 1", hits[0].Score)
	}
	if hits[1].Score != 0 {
		t.Errorf("score = %v, want clamped to 0", hits[1].Score)
	}
}

func TestRRFSumsContributionsAcrossLists(t *testing.T) {
	vector := []Hit{{Path: "a", Snippet: "snippet-a"}, {Path: "b", Snippet: "snippet-b"}}
	text := []Hit{{Path: "b", Snippet: "snippet-b"}, {Path: "a", Snippet: "snippet-a"}}

	fused := RRF(vector, text)
	if len(fused) != 2 {
		t.Fatalf("got %d fused results, want 2", len(fused))
	}
	// a: rank1 in vector (1/61) + rank2 in text (1/62); b: rank2 in vector (1/62) + rank1 in text (1/61).
	// Both sums are equal, so the tie-break (first list, first occurrence) keeps a ahead of b.
	if fused[0].Path != "a" {
		t.Errorf("fused[0].Path = %q, want %q (tie-break by first list order)", fused[0].Path, "a")
	}
	for _, h := range fused {
		if h.Method != MethodHybrid {
			t.Errorf("Method = %v, want hybrid", h.Method)
		}
	}
}

func TestRRFBreaksTiesByFirstListThenOrder(t *testing.T) {
	vector := []Hit{{Path: "only-in-vector", Snippet: "v"}}
	text := []Hit{{Path: "only-in-text", Snippet: "t"}}

	fused := RRF(vector, text)
	if len(fused) != 2 {
		t.Fatalf("got %d results, want 2", len(fused))
	}
	if fused[0].Path != "only-in-vector" {
		t.Errorf("fused[0].Path = %q, want vector entry to rank first (same rank, earlier list)", fused[0].Path)
	}
}

func TestDedupeKeepsHighestScoringSnippet(t *testing.T) {
	hits := []Hit{
		{Path: "a", Snippet: "same text", Score: 0.4},
		{Path: "b", Snippet: "same text", Score: 0.9},
		{Path: "c", Snippet: "different text", Score: 0.1},
	}
	out := Dedupe(hits)
	if len(out) != 2 {
		t.Fatalf("got %d results, want 2 after dedupe", len(out))
	}
	if out[0].Path != "b" {
		t.Errorf("out[0].Path = %q, want %q (higher score kept)", out[0].Path, "b")
	}
}

func TestBuildFullTextQueryTokenizesQuotesAndOrJoins(t *testing.T) {
	got := BuildFullTextQuery("how does auth_token refresh?")
	want := `"how" OR "does" OR "auth_token" OR "refresh"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFullTextQueryEmptyInput(t *testing.T) {
	if got := BuildFullTextQuery("   !!!   "); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
