package poker

import "strconv"

// transition is the staged result of validating an action against current
// state. It is computed fully before any mutation, then applied atomically.
type transition struct {
	commit       int // chips moving from the actor's stack this action
	betStreet    int // actor's new street total
	facingBet    int
	lastRaise    int
	closingCount int
	inHand       bool
	nextStage    HandStage
}

// Act applies an external player action. Validation happens before any state
// write; on error the table is unchanged.
func (t *Table) Act(action ActionType, address string, amount int) error {
	seatIdx, ok := t.playerToSeat[address]
	if !ok {
		return ErrNotSeated
	}
	if err := t.applyAction(seatIdx, action, amount); err != nil {
		return err
	}
	return t.advance()
}

func (t *Table) applyAction(seatIdx int, action ActionType, amount int) error {
	seat := t.seats[seatIdx]
	if seat == nil || !seat.InHand {
		return ErrNotInHand
	}
	if t.whoseTurn != seatIdx {
		return ErrNotYourTurn
	}

	tr, err := t.stageTransition(seat, action, amount)
	if err != nil {
		return err
	}

	seat.Stack -= tr.commit
	if seat.Stack < 0 {
		return consistencyf("seat %d stack went negative", seatIdx)
	}
	seat.BetStreet = tr.betStreet
	seat.InHand = tr.inHand
	seat.LastAction = action.String()
	seat.LastAmount = tr.commit

	t.facingBet = tr.facingBet
	t.lastRaise = tr.lastRaise
	t.closingCount = tr.closingCount
	t.handStage = tr.nextStage

	t.emitGameState(action, tr.commit, seat.Player)

	switch action {
	case ActSBPost, ActBBPost:
		return t.advanceTurn()
	default:
		if t.countInHand() <= 1 {
			// everyone else folded; no further betting input this hand
			t.closeStreet()
			return nil
		}
		if t.allMatched() && t.closingCount >= t.activeBettors() {
			t.closeStreet()
			return nil
		}
		return t.advanceTurn()
	}
}

// stageTransition validates an action and computes its effect without
// touching table state.
func (t *Table) stageTransition(seat *Seat, action ActionType, amount int) (transition, error) {
	tr := transition{
		betStreet:    seat.BetStreet,
		facingBet:    t.facingBet,
		lastRaise:    t.lastRaise,
		closingCount: t.closingCount,
		inHand:       true,
		nextStage:    t.handStage,
	}

	switch action {
	case ActSBPost:
		if t.handStage != StageSBPost {
			return tr, ErrInvalidAction
		}
		commit := min(t.cfg.SmallBlind, seat.Stack)
		tr.commit = commit
		tr.betStreet = commit
		tr.facingBet = commit
		tr.lastRaise = commit
		tr.nextStage = StageBBPost

	case ActBBPost:
		if t.handStage != StageBBPost {
			return tr, ErrInvalidAction
		}
		commit := min(t.cfg.BigBlind, seat.Stack)
		tr.commit = commit
		tr.betStreet = commit
		tr.facingBet = t.cfg.BigBlind
		tr.lastRaise = t.cfg.BigBlind
		tr.nextStage = StageHolecardsDeal
		tr.closingCount = 0

	case ActBet:
		if !t.handStage.isBetting() {
			return tr, ErrInvalidAction
		}
		if amount <= t.facingBet {
			return tr, ErrInvalidBetSize
		}
		delta := amount - seat.BetStreet
		if delta <= 0 || delta > seat.Stack {
			return tr, ErrInvalidBetSize
		}
		tr.commit = delta
		tr.betStreet = amount
		tr.facingBet = amount
		tr.lastRaise = amount - t.facingBet
		tr.closingCount = 1

	case ActCall:
		if !t.handStage.isBetting() {
			return tr, ErrInvalidAction
		}
		owed := t.facingBet - seat.BetStreet
		if owed < 0 {
			return tr, ErrInvalidAction
		}
		commit := min(owed, seat.Stack)
		tr.commit = commit
		tr.betStreet = seat.BetStreet + commit
		tr.closingCount = t.closingCount + 1

	case ActCheck:
		if !t.handStage.isBetting() {
			return tr, ErrInvalidAction
		}
		if seat.BetStreet != t.facingBet {
			return tr, ErrInvalidAction
		}
		tr.closingCount = t.closingCount + 1

	case ActFold:
		if !t.handStage.isBetting() {
			return tr, ErrInvalidAction
		}
		tr.inHand = false

	default:
		return tr, ErrInvalidAction
	}

	return tr, nil
}

// advance drives every engine-owned transition (blind auto-posting, dealing,
// runouts, showdown, settlement, next-hand reset) until the machine needs
// external input or idles for lack of players.
func (t *Table) advance() error {
	for {
		switch t.handStage {
		case StageSBPost, StageBBPost:
			if !t.started {
				if t.countEligible() < 2 {
					return nil // hand cannot start; idle until players arrive
				}
				t.openHand()
			}
			if t.countInHand() < 2 {
				// a departure broke the hand before the deal; resolve what
				// was posted and move on
				t.collectStreetBets()
				t.handStage = StageShowdown
				continue
			}
			seat := t.seats[t.whoseTurn]
			if seat == nil || !seat.InHand {
				return consistencyf("blind turn points at invalid seat %d", t.whoseTurn)
			}
			if !seat.AutoPost {
				return nil
			}
			action := ActSBPost
			if t.handStage == StageBBPost {
				action = ActBBPost
			}
			if err := t.applyAction(t.whoseTurn, action, 0); err != nil {
				return err
			}

		case StageHolecardsDeal:
			t.dealHolecards()
			t.handStage = StagePreflopBetting

		case StageFlopDeal, StageTurnDeal, StageRiverDeal:
			t.dealBoard()
			t.handStage++ // each *_DEAL is immediately followed by its betting stage
			t.beginStreet()

		case StagePreflopBetting, StageFlopBetting, StageTurnBetting, StageRiverBetting:
			// a departure can end the street with no new action, so the
			// street-over condition is rechecked here as well as after acts
			if t.countInHand() <= 1 ||
				(t.activeBettors() <= 1 && t.allMatched()) ||
				(t.allMatched() && t.closingCount > 0 && t.closingCount >= t.activeBettors()) {
				t.closeStreet()
				continue
			}
			return nil

		case StageShowdown:
			t.whoseTurn = -1
			t.finalizePots()
			if err := t.showdown(); err != nil {
				return err
			}
			t.handStage = StageSettle

		case StageSettle:
			t.settle()
			t.resetForNextHand()

		default:
			return consistencyf("no transition defined for stage %s", t.handStage)
		}
	}
}

// openHand enrolls every eligible seat into a new hand and points the turn at
// the small blind.
func (t *Table) openHand() {
	eligible := func(s *Seat) bool { return !s.SittingOut && s.Stack > 0 }

	participants := 0
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		if eligible(s) {
			s.InHand = true
			participants++
		} else {
			s.InHand = false
		}
	}

	if b := t.seats[t.button]; b == nil || !eligible(b) {
		if idx, ok := t.nextSeat(t.button, eligible); ok {
			t.button = idx
		}
	}

	// heads up the button posts the small blind; multiway it is the next seat
	sbSeat := t.button
	if participants > 2 {
		if idx, ok := t.nextSeat(t.button, eligible); ok {
			sbSeat = idx
		}
	}
	t.whoseTurn = sbSeat
	t.started = true
}

func (t *Table) dealHolecards() {
	for i, s := range t.seats {
		if s == nil || !s.InHand {
			continue
		}
		start := 5 + i*2 // first five deck cards are reserved for the board
		s.Holecards = []Card{t.deck[start], t.deck[start+1]}
		t.emit(EventCards, CardsData{
			CardType: "p" + strconv.Itoa(i),
			Cards:    CardStrings(s.Holecards),
		})
	}
}

func (t *Table) dealBoard() {
	switch t.handStage {
	case StageFlopDeal:
		t.board = append([]Card(nil), t.deck[0:3]...)
		t.emit(EventCards, CardsData{CardType: "flop", Cards: CardStrings(t.deck[0:3])})
	case StageTurnDeal:
		t.board = append([]Card(nil), t.deck[0:4]...)
		t.emit(EventCards, CardsData{CardType: "turn", Cards: CardStrings(t.deck[3:4])})
	case StageRiverDeal:
		t.board = append([]Card(nil), t.deck[0:5]...)
		t.emit(EventCards, CardsData{CardType: "river", Cards: CardStrings(t.deck[4:5])})
	}
}

// beginStreet resets per-street betting state after a deal. Preflop keeps the
// live blinds, so it is not routed through here.
func (t *Table) beginStreet() {
	t.facingBet = 0
	t.lastRaise = 0
	t.closingCount = 0
	for _, s := range t.seats {
		if s != nil {
			s.LastAction = ""
			s.LastAmount = 0
		}
	}
	if t.activeBettors() > 1 {
		if idx, ok := t.nextSeat(t.button, func(s *Seat) bool {
			return s.InHand && s.Stack > 0
		}); ok {
			t.whoseTurn = idx
		}
	} else {
		t.whoseTurn = -1
	}
}

// closeStreet locks the street's chips into pot layers and moves to the next
// deal stage (or showdown after the river).
func (t *Table) closeStreet() {
	t.collectStreetBets()
	t.facingBet = 0
	t.lastRaise = 0
	t.closingCount = 0
	t.handStage = t.handStage.nextDealStage()
}

// resetForNextHand clears per-hand transient state, rotates the button,
// benches busted seats and opens a fresh hand-history bucket.
func (t *Table) resetForNextHand() {
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		s.InHand = false
		s.BetStreet = 0
		s.ShowdownVal = worstShowdownVal
		s.Holecards = nil
		s.LastAction = ""
		s.LastAmount = 0
		s.Capped = false
		if s.PendingRebuy > 0 {
			s.Stack += s.PendingRebuy
			s.PendingRebuy = 0
		}
		if s.Stack <= t.cfg.SmallBlind {
			s.SittingOut = true
		}
	}

	t.board = nil
	t.potInitial = 0
	t.potsComplete = nil
	t.departedBets = nil
	t.facingBet = 0
	t.lastRaise = 0
	t.closingCount = 0
	t.shuffle()

	if idx, ok := t.nextSeat(t.button, func(s *Seat) bool { return !s.SittingOut }); ok {
		t.button = idx
	}

	t.handID++
	t.started = false
	t.handStage = StageSBPost
	t.whoseTurn = -1
}

func (t *Table) emitGameState(action ActionType, amount int, player string) {
	seats := make([]*SeatStateData, len(t.seats))
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		seats[i] = &SeatStateData{
			Player:     s.Player,
			Stack:      s.Stack,
			BetStreet:  s.BetStreet,
			InHand:     s.InHand,
			SittingOut: s.SittingOut,
		}
	}
	t.emit(EventGameState, GameStateData{
		Pot:        t.totalPot(),
		Button:     t.button,
		WhoseTurn:  t.whoseTurn,
		HandStage:  t.handStage.String(),
		FacingBet:  t.facingBet,
		ActionType: action.String(),
		Amount:     amount,
		Player:     player,
		Seats:      seats,
	})
}
