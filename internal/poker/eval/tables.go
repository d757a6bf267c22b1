package eval

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tms7331/centralized-poker/internal/poker"
)

const (
	numClasses = 7462
	numFlush5  = 1287
	numBasic5  = numClasses - numFlush5
	numBasic7  = 49205
)

// Evaluator holds the three lookup tables the ranking runtime needs. Keys are
// products of rank primes, so a key identifies a rank multiset independent of
// card order. Basic7 pre-resolves the best non-flush rank of every 7-card rank
// multiset, leaving only the flush scan for runtime.
type Evaluator struct {
	Basic5 map[uint64]int `json:"basic5"`
	Flush5 map[uint64]int `json:"flush5"`
	Basic7 map[uint64]int `json:"basic7"`
}

// Build generates the tables from scratch. Takes a few hundred milliseconds;
// Load is the fast path when a table file exists.
func Build() (*Evaluator, error) {
	e := &Evaluator{
		Basic5: make(map[uint64]int, numBasic5),
		Flush5: make(map[uint64]int, numFlush5),
	}
	for rank, c := range classesInOrder() {
		if c.flush {
			e.Flush5[c.product] = rank
		} else {
			e.Basic5[c.product] = rank
		}
	}
	if err := e.buildSeven(); err != nil {
		return nil, err
	}
	if err := e.sanity(); err != nil {
		return nil, err
	}
	return e, nil
}

// buildSeven enumerates every non-decreasing 7-rank multiset with at most four
// of a rank and stores the minimum Basic5 rank over its 21 five-card subsets.
// Every subset keeps the multiplicity bound, so each must resolve in Basic5;
// a miss means the 5-card table is incomplete and the build fails.
func (e *Evaluator) buildSeven() error {
	e.Basic7 = make(map[uint64]int, numBasic7)
	p := poker.RankPrimes

	var missing uint64
	ranks := make([]int, 0, 7)
	var rec func(start int, product uint64)
	rec = func(start int, product uint64) {
		if len(ranks) == 7 {
			best := numClasses
			for i := 0; i < 6; i++ {
				for j := i + 1; j < 7; j++ {
					sub := product / (p[ranks[i]] * p[ranks[j]])
					r, ok := e.Basic5[sub]
					if !ok {
						missing = sub
						continue
					}
					if r < best {
						best = r
					}
				}
			}
			e.Basic7[product] = best
			return
		}
		for r := start; r < 13; r++ {
			count := 0
			for _, x := range ranks {
				if x == r {
					count++
				}
			}
			if count == 4 {
				continue
			}
			ranks = append(ranks, r)
			rec(r, product*p[r])
			ranks = ranks[:len(ranks)-1]
		}
	}
	rec(0, 1)
	if missing != 0 {
		return fmt.Errorf("5-card table is missing rank multiset fingerprint %d", missing)
	}
	return nil
}

func (e *Evaluator) sanity() error {
	if got := len(e.Basic5) + len(e.Flush5); got != numClasses {
		return fmt.Errorf("expected %d hand classes, built %d", numClasses, got)
	}
	if len(e.Flush5) != numFlush5 {
		return fmt.Errorf("expected %d flush classes, built %d", numFlush5, len(e.Flush5))
	}
	p := poker.RankPrimes
	royal := p[12] * p[11] * p[10] * p[9] * p[8]
	if e.Flush5[royal] != 0 {
		return fmt.Errorf("royal flush ranked %d, want 0", e.Flush5[royal])
	}
	fourAces := p[12] * p[12] * p[12] * p[12] * p[11]
	if e.Basic5[fourAces] != 10 {
		return fmt.Errorf("four aces with king ranked %d, want 10", e.Basic5[fourAces])
	}
	return nil
}

// Save writes the tables as JSON.
func (e *Evaluator) Save(path string) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads tables written by Save and verifies them.
func Load(path string) (*Evaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Evaluator
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.sanity(); err != nil {
		return nil, err
	}
	if len(e.Basic7) == 0 {
		if err := e.buildSeven(); err != nil {
			return nil, err
		}
	} else if len(e.Basic7) != numBasic7 {
		return nil, fmt.Errorf("expected %d 7-card entries, loaded %d", numBasic7, len(e.Basic7))
	}
	return &e, nil
}

// LoadOrBuild prefers a table file and falls back to generating in-process.
func LoadOrBuild(path string) (*Evaluator, error) {
	if path != "" {
		if e, err := Load(path); err == nil {
			return e, nil
		}
	}
	return Build()
}
