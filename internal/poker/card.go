package poker

import "fmt"

// Card is an integer in [0,52): rank = card % 13 (0 = deuce, 12 = ace),
// suit = card / 13.
type Card int

const (
	numRanks = 13
	numSuits = 4
	DeckSize = numRanks * numSuits
)

var (
	strRanks = "23456789TJQKA"
	strSuits = "shdc"
)

// RankPrimes maps a rank index to one of the first 13 primes. The product of
// five rank primes is a unique fingerprint for the rank multiset of a hand.
var RankPrimes = [numRanks]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41}

func (c Card) Rank() int { return int(c) % numRanks }

func (c Card) Suit() int { return int(c) / numRanks }

func (c Card) Prime() uint64 { return RankPrimes[c.Rank()] }

func (c Card) Valid() bool { return c >= 0 && c < DeckSize }

func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("?%d", int(c))
	}
	return string(strRanks[c.Rank()]) + string(strSuits[c.Suit()])
}

// ParseCard inverts String: "As" -> ace of spades.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: bad card %q", ErrValidation, s)
	}
	rank := -1
	for i := 0; i < numRanks; i++ {
		if strRanks[i] == s[0] {
			rank = i
			break
		}
	}
	suit := -1
	for i := 0; i < numSuits; i++ {
		if strSuits[i] == s[1] {
			suit = i
			break
		}
	}
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("%w: bad card %q", ErrValidation, s)
	}
	return Card(suit*numRanks + rank), nil
}

// CardStrings renders a hand for events and logs.
func CardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func newDeck() []Card {
	deck := make([]Card, DeckSize)
	for i := range deck {
		deck[i] = Card(i)
	}
	return deck
}
