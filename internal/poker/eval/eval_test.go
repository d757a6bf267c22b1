package eval_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/tms7331/centralized-poker/internal/poker"
	"github.com/tms7331/centralized-poker/internal/poker/eval"
)

var (
	buildOnce sync.Once
	shared    *eval.Evaluator
	buildErr  error
)

func evaluator(t *testing.T) *eval.Evaluator {
	t.Helper()
	buildOnce.Do(func() {
		shared, buildErr = eval.Build()
	})
	if buildErr != nil {
		t.Fatalf("build tables failed: %v", buildErr)
	}
	return shared
}

func hand(t *testing.T, cards ...string) []poker.Card {
	t.Helper()
	out := make([]poker.Card, len(cards))
	for i, s := range cards {
		c, err := poker.ParseCard(s)
		if err != nil {
			t.Fatalf("bad card %q: %v", s, err)
		}
		out[i] = c
	}
	return out
}

func rank(t *testing.T, e *eval.Evaluator, cards ...string) int {
	t.Helper()
	r, err := e.Evaluate(hand(t, cards...))
	if err != nil {
		t.Fatalf("evaluate %v failed: %v", cards, err)
	}
	return r
}

func TestTableSizes(t *testing.T) {
	e := evaluator(t)
	if got := len(e.Basic5) + len(e.Flush5); got != 7462 {
		t.Fatalf("expected 7462 five-card classes, got %d", got)
	}
	if len(e.Flush5) != 1287 {
		t.Fatalf("expected 1287 flush classes, got %d", len(e.Flush5))
	}
	if len(e.Basic7) != 49205 {
		t.Fatalf("expected 49205 seven-card rank multisets, got %d", len(e.Basic7))
	}
}

func TestCanonicalBoundaryRanks(t *testing.T) {
	e := evaluator(t)
	cases := []struct {
		want  int
		cards []string
	}{
		{0, []string{"As", "Ks", "Qs", "Js", "Ts"}},    // royal flush
		{9, []string{"5s", "4s", "3s", "2s", "As"}},    // steel wheel
		{10, []string{"As", "Ah", "Ad", "Ac", "Ks"}},   // best quads
		{165, []string{"2s", "2h", "2d", "2c", "3s"}},  // worst quads
		{166, []string{"As", "Ah", "Ad", "Ks", "Kh"}},  // best full house
		{321, []string{"2s", "2h", "2d", "3s", "3h"}},  // worst full house
		{322, []string{"As", "Ks", "Qs", "Js", "9s"}},  // best non-straight flush
		{1598, []string{"7s", "5s", "4s", "3s", "2s"}}, // worst flush
		{1599, []string{"Ah", "Kd", "Qs", "Jc", "Th"}}, // broadway
		{1608, []string{"5h", "4d", "3s", "2c", "Ah"}}, // wheel
		{1609, []string{"As", "Ah", "Ad", "Ks", "Qh"}}, // best trips
		{2466, []string{"2s", "2h", "2d", "4s", "3h"}}, // worst trips
		{2467, []string{"As", "Ah", "Ks", "Kh", "Qd"}}, // best two pair
		{3324, []string{"3s", "3h", "2s", "2h", "4d"}}, // worst two pair
		{3325, []string{"As", "Ah", "Ks", "Qh", "Jd"}}, // best pair
		{6184, []string{"2s", "2h", "5s", "4h", "3d"}}, // worst pair
		{6185, []string{"As", "Kh", "Qd", "Jc", "9s"}}, // best high card
		{7461, []string{"7s", "5h", "4d", "3c", "2s"}}, // worst hand
	}
	for _, tc := range cases {
		if got := rank(t, e, tc.cards...); got != tc.want {
			t.Fatalf("%v ranked %d, want %d", tc.cards, got, tc.want)
		}
	}
}

func TestSevenCardsUseBestFive(t *testing.T) {
	e := evaluator(t)

	if got := rank(t, e, "As", "Ks", "Qs", "Js", "Ts", "2h", "3d"); got != 0 {
		t.Fatalf("royal within seven ranked %d", got)
	}
	// trips available, but the five-card flush is stronger
	if got := rank(t, e, "7s", "5s", "4s", "3s", "2s", "7h", "7d"); got != 1598 {
		t.Fatalf("flush over trips ranked %d, want 1598", got)
	}
	// kickers beyond the best five must not matter
	a := rank(t, e, "As", "Ah", "Kd", "Qc", "Jh", "3d", "2c")
	b := rank(t, e, "As", "Ah", "Kd", "Qc", "Jh", "9d", "8c")
	if a != b {
		t.Fatalf("sixth and seventh cards changed the rank: %d vs %d", a, b)
	}
	// six-card input is also accepted
	if got := rank(t, e, "As", "Ks", "Qs", "Js", "Ts", "2h"); got != 0 {
		t.Fatalf("royal within six ranked %d", got)
	}
}

func TestCategoryOrdering(t *testing.T) {
	e := evaluator(t)
	// strictly increasing rank across descending categories
	ladder := [][]string{
		{"9s", "8s", "7s", "6s", "5s"}, // straight flush
		{"9s", "9h", "9d", "9c", "5s"}, // quads
		{"9s", "9h", "9d", "5c", "5s"}, // full house
		{"Ks", "Js", "9s", "7s", "5s"}, // flush
		{"9s", "8h", "7d", "6c", "5s"}, // straight
		{"9s", "9h", "9d", "7c", "5s"}, // trips
		{"9s", "9h", "5d", "5c", "Ks"}, // two pair
		{"9s", "9h", "Kd", "7c", "5s"}, // pair
		{"Ks", "Jh", "9d", "7c", "5s"}, // high card
	}
	prev := -1
	for _, cards := range ladder {
		r := rank(t, e, cards...)
		if r <= prev {
			t.Fatalf("%v ranked %d, not weaker than previous %d", cards, r, prev)
		}
		prev = r
	}
}

func TestRankClassNames(t *testing.T) {
	e := evaluator(t)
	if got := eval.RankClass(rank(t, e, "As", "Ks", "Qs", "Js", "Ts")); got != "Straight Flush" {
		t.Fatalf("royal classed as %q", got)
	}
	if got := eval.RankClass(rank(t, e, "7s", "5h", "4d", "3c", "2s")); got != "High Card" {
		t.Fatalf("worst hand classed as %q", got)
	}
	if got := eval.RankClass(rank(t, e, "9s", "9h", "5d", "5c", "Ks")); got != "Two Pair" {
		t.Fatalf("two pair classed as %q", got)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	e := evaluator(t)
	if _, err := e.Evaluate(hand(t, "As", "Ks")); err == nil {
		t.Fatalf("short hand should error")
	}
	if _, err := e.Evaluate(hand(t, "As", "As", "Ks", "Qs", "Js")); err == nil {
		t.Fatalf("duplicate card should error")
	}
	if _, err := e.Evaluate([]poker.Card{99, 1, 2, 3, 4}); err == nil {
		t.Fatalf("invalid card should error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := evaluator(t)
	path := filepath.Join(t.TempDir(), "ranks.json")
	if err := e.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := eval.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cards := []string{"As", "Ah", "Kd", "Qc", "Jh", "3d", "2c"}
	if rank(t, e, cards...) != rank(t, loaded, cards...) {
		t.Fatalf("loaded tables disagree with built tables")
	}
}

func TestLoadRejectsCorruptTables(t *testing.T) {
	e := evaluator(t)
	dir := t.TempDir()

	// a 7-card table of the wrong size must not be trusted
	truncated := &eval.Evaluator{Basic5: e.Basic5, Flush5: e.Flush5, Basic7: map[uint64]int{2310: 0}}
	path := filepath.Join(dir, "truncated.json")
	if err := truncated.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := eval.Load(path); err == nil {
		t.Fatalf("load accepted a truncated seven-card table")
	}

	// a hole in the 5-card table must fail the 7-card rebuild, not produce
	// a table that silently misranks the affected multisets
	basic5 := make(map[uint64]int, len(e.Basic5))
	for k, v := range e.Basic5 {
		basic5[k] = v
	}
	var victim uint64
	for k, v := range basic5 {
		if v != 10 { // keep the entries the load-time spot checks pin down
			victim = k
			break
		}
	}
	displaced := basic5[victim]
	delete(basic5, victim)
	basic5[1] = displaced // preserve the count; product 1 matches no real hand
	holed := &eval.Evaluator{Basic5: basic5, Flush5: e.Flush5}
	path = filepath.Join(dir, "holed.json")
	if err := holed.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := eval.Load(path); err == nil {
		t.Fatalf("load accepted a five-card table with a missing fingerprint")
	}
}
