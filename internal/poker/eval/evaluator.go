package eval

import (
	"fmt"

	"github.com/tms7331/centralized-poker/internal/poker"
)

// Evaluate ranks a hand of five, six or seven distinct cards. Lower is
// stronger; 0 is a royal flush. The result is the best five-card hand
// contained in the input.
func (e *Evaluator) Evaluate(cards []poker.Card) (int, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate: want 5-7 cards, got %d", len(cards))
	}
	var seen uint64
	for _, c := range cards {
		if !c.Valid() {
			return 0, fmt.Errorf("evaluate: invalid card %d", int(c))
		}
		bit := uint64(1) << uint(c)
		if seen&bit != 0 {
			return 0, fmt.Errorf("evaluate: duplicate card %s", c)
		}
		seen |= bit
	}

	best := numClasses

	// flush path: scan five-card subsets of any suit holding five or more
	var suited [4][]uint64
	for _, c := range cards {
		suited[c.Suit()] = append(suited[c.Suit()], c.Prime())
	}
	for _, primes := range suited {
		if len(primes) >= 5 {
			if r := e.bestFlush(primes); r < best {
				best = r
			}
		}
	}

	// non-flush path
	switch len(cards) {
	case 7:
		product := uint64(1)
		for _, c := range cards {
			product *= c.Prime()
		}
		if r, ok := e.Basic7[product]; ok && r < best {
			best = r
		}
	default:
		if r := e.bestBasic(cards); r < best {
			best = r
		}
	}

	if best == numClasses {
		return 0, fmt.Errorf("evaluate: no rank for %v", poker.CardStrings(cards))
	}
	return best, nil
}

// bestFlush finds the strongest five-card flush among same-suit primes.
func (e *Evaluator) bestFlush(primes []uint64) int {
	best := numClasses
	n := len(primes)
	for mask := 0; mask < 1<<uint(n); mask++ {
		if popcountInt(mask) != 5 {
			continue
		}
		product := uint64(1)
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				product *= primes[i]
			}
		}
		if r, ok := e.Flush5[product]; ok && r < best {
			best = r
		}
	}
	return best
}

// bestBasic evaluates five or six cards by direct subset lookup.
func (e *Evaluator) bestBasic(cards []poker.Card) int {
	best := numClasses
	n := len(cards)
	for mask := 0; mask < 1<<uint(n); mask++ {
		if popcountInt(mask) != 5 {
			continue
		}
		product := uint64(1)
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				product *= cards[i].Prime()
			}
		}
		if r, ok := e.Basic5[product]; ok && r < best {
			best = r
		}
	}
	return best
}

func popcountInt(m int) int {
	n := 0
	for ; m != 0; m &= m - 1 {
		n++
	}
	return n
}

// RankClass names the category of a rank returned by Evaluate.
func RankClass(rank int) string { return poker.HandClass(rank) }
