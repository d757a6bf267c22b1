package poker

import "sort"

// streetContribution pairs a seat index with the chips it committed this
// street. Departed contributions use seat -1: they stay in the pot but can win
// nothing.
type streetContribution struct {
	seat   int
	amount int
}

// collectStreetBets moves the street's chips into the pot structure. Any
// uncalled excess over the second-largest contribution is refunded first, then
// one closed layer is peeled per all-in level, smallest first, so each all-in
// seat is eligible for exactly the layers its chips reached. Whatever remains
// stays in the open pot.
func (t *Table) collectStreetBets() {
	var contribs []streetContribution
	for i, s := range t.seats {
		if s != nil && s.BetStreet > 0 {
			contribs = append(contribs, streetContribution{seat: i, amount: s.BetStreet})
			s.BetStreet = 0
		}
	}
	for _, b := range t.departedBets {
		contribs = append(contribs, streetContribution{seat: -1, amount: b})
	}
	t.departedBets = nil

	if len(contribs) == 0 {
		return
	}

	// refund the part of the largest contribution nobody matched
	maxIdx, second := -1, 0
	for i, c := range contribs {
		if maxIdx == -1 || c.amount > contribs[maxIdx].amount {
			maxIdx = i
		}
	}
	for i, c := range contribs {
		if i != maxIdx && c.amount > second {
			second = c.amount
		}
	}
	if excess := contribs[maxIdx].amount - second; excess > 0 {
		contribs[maxIdx].amount = second
		if idx := contribs[maxIdx].seat; idx >= 0 {
			t.seats[idx].Stack += excess
		}
		// a departed seat's uncalled excess has no owner and stays in the pot
		if contribs[maxIdx].seat == -1 {
			contribs[maxIdx].amount += excess
		}
	}

	for {
		level := t.smallestOpenAllinLevel(contribs)
		if level == 0 {
			break
		}

		amount := t.potInitial // chips carried from earlier streets join the first layer closed
		t.potInitial = 0
		for i := range contribs {
			take := min(contribs[i].amount, level)
			amount += take
			contribs[i].amount -= take
		}

		var eligible []int
		for i, s := range t.seats {
			if s != nil && s.InHand && !s.Capped {
				eligible = append(eligible, i)
			}
		}
		t.potsComplete = append(t.potsComplete, Pot{Amount: amount, Eligible: eligible})

		// all-ins fully consumed by this layer leave the open pot
		for _, c := range contribs {
			if c.seat < 0 || c.amount > 0 {
				continue
			}
			if s := t.seats[c.seat]; s.InHand && s.Stack == 0 {
				s.Capped = true
			}
		}
	}

	for _, c := range contribs {
		t.potInitial += c.amount
	}
}

// smallestOpenAllinLevel returns the smallest remaining contribution of an
// in-hand all-in seat not yet assigned to a closed layer, or 0 when the street
// needs no further layer.
func (t *Table) smallestOpenAllinLevel(contribs []streetContribution) int {
	level := 0
	for _, c := range contribs {
		if c.seat < 0 || c.amount == 0 {
			continue
		}
		s := t.seats[c.seat]
		if s.InHand && s.Stack == 0 && !s.Capped {
			if level == 0 || c.amount < level {
				level = c.amount
			}
		}
	}
	return level
}

// finalizePots closes the open pot into a last layer contested by every
// uncapped in-hand seat.
func (t *Table) finalizePots() {
	if t.potInitial == 0 {
		return
	}
	var eligible []int
	for i, s := range t.seats {
		if s != nil && s.InHand && !s.Capped {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		for i, s := range t.seats {
			if s != nil && s.InHand {
				eligible = append(eligible, i)
			}
		}
	}
	t.potsComplete = append(t.potsComplete, Pot{Amount: t.potInitial, Eligible: eligible})
	t.potInitial = 0
}

// showdown ranks every remaining hand. A hand won without contest is never
// evaluated or revealed; its seat takes rank 0.
func (t *Table) showdown() error {
	var live []int
	for i, s := range t.seats {
		if s != nil && s.InHand {
			live = append(live, i)
		}
	}

	if len(live) <= 1 {
		if len(live) == 1 {
			t.seats[live[0]].ShowdownVal = 0
		}
		return nil
	}

	sd := ShowdownData{Board: CardStrings(t.board)}
	for _, i := range live {
		s := t.seats[i]
		cards := make([]Card, 0, 7)
		cards = append(cards, s.Holecards...)
		cards = append(cards, t.board...)
		rank, err := t.eval.Evaluate(cards)
		if err != nil {
			return consistencyf("evaluate seat %d: %v", i, err)
		}
		s.ShowdownVal = rank
		sd.Hands = append(sd.Hands, ShowdownHandData{
			Seat:      i,
			Player:    s.Player,
			Holecards: CardStrings(s.Holecards),
			Rank:      rank,
			HandDesc:  HandClass(rank),
		})
	}
	t.emit(EventShowdown, sd)
	return nil
}

// settle pays each pot layer to the best live hand among its eligible seats.
// Integer division leaves a remainder of at most len(winners)-1 chips, handed
// out one per winner clockwise from the button.
func (t *Table) settle() {
	var out SettleData
	for _, pot := range t.potsComplete {
		winners := t.potWinners(pot)
		if len(winners) == 0 {
			// every eligible seat left the table mid-hand; nobody to pay
			continue
		}
		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for _, w := range winners {
			t.seats[w].Stack += share
		}
		for _, w := range t.clockwiseFromButton(winners) {
			if remainder == 0 {
				break
			}
			t.seats[w].Stack++
			remainder--
		}
		out.Pots = append(out.Pots, SettlePotData{
			Amount:  pot.Amount,
			Winners: winners,
			Share:   share,
		})
	}
	t.emit(EventSettle, out)
}

// potWinners returns the eligible seats holding the lowest showdown rank,
// skipping seats that folded or left after the layer closed.
func (t *Table) potWinners(pot Pot) []int {
	best := worstShowdownVal + 1
	var winners []int
	for _, i := range pot.Eligible {
		s := t.seats[i]
		if s == nil || !s.InHand {
			continue
		}
		switch {
		case s.ShowdownVal < best:
			best = s.ShowdownVal
			winners = winners[:0]
			winners = append(winners, i)
		case s.ShowdownVal == best:
			winners = append(winners, i)
		}
	}
	return winners
}

// clockwiseFromButton orders seat indices by clockwise distance from the seat
// after the button, which fixes who receives odd chips.
func (t *Table) clockwiseFromButton(seats []int) []int {
	ordered := append([]int(nil), seats...)
	dist := func(i int) int {
		return (i - t.button - 1 + t.cfg.NumSeats) % t.cfg.NumSeats
	}
	sort.Slice(ordered, func(a, b int) bool { return dist(ordered[a]) < dist(ordered[b]) })
	return ordered
}

// HandClass names the hand category a canonical rank falls in. The boundaries
// are fixed by the 7,462-class canonical ordering.
func HandClass(rank int) string {
	switch {
	case rank <= 9:
		return "Straight Flush"
	case rank <= 165:
		return "Four of a Kind"
	case rank <= 321:
		return "Full House"
	case rank <= 1598:
		return "Flush"
	case rank <= 1608:
		return "Straight"
	case rank <= 2466:
		return "Three of a Kind"
	case rank <= 3324:
		return "Two Pair"
	case rank <= 6184:
		return "Pair"
	default:
		return "High Card"
	}
}
