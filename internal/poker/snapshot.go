package poker

import "encoding/json"

// Snapshot is the full serializable table state. Restoring a snapshot with the
// same evaluator reproduces the table exactly, deck order included.
type Snapshot struct {
	Config       Config    `json:"config"`
	Seats        []*Seat   `json:"seats"`
	HandID       int       `json:"handId"`
	Started      bool      `json:"started"`
	HandStage    HandStage `json:"handStage"`
	Button       int       `json:"button"`
	WhoseTurn    int       `json:"whoseTurn"`
	FacingBet    int       `json:"facingBet"`
	LastRaise    int       `json:"lastRaise"`
	ClosingCount int       `json:"closingCount"`
	PotInitial   int       `json:"potInitial"`
	PotsComplete []Pot     `json:"potsComplete"`
	DepartedBets []int     `json:"departedBets"`
	Deck         []Card    `json:"deck"`
	Board        []Card    `json:"board"`
}

func (t *Table) Snapshot() Snapshot {
	seats := make([]*Seat, len(t.seats))
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		cp := *s
		cp.Holecards = append([]Card(nil), s.Holecards...)
		seats[i] = &cp
	}
	pots := make([]Pot, len(t.potsComplete))
	for i, p := range t.potsComplete {
		pots[i] = Pot{Amount: p.Amount, Eligible: append([]int(nil), p.Eligible...)}
	}
	return Snapshot{
		Config:       t.cfg,
		Seats:        seats,
		HandID:       t.handID,
		Started:      t.started,
		HandStage:    t.handStage,
		Button:       t.button,
		WhoseTurn:    t.whoseTurn,
		FacingBet:    t.facingBet,
		LastRaise:    t.lastRaise,
		ClosingCount: t.closingCount,
		PotInitial:   t.potInitial,
		PotsComplete: pots,
		DepartedBets: append([]int(nil), t.departedBets...),
		Deck:         append([]Card(nil), t.deck...),
		Board:        append([]Card(nil), t.board...),
	}
}

func (t *Table) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// RestoreTable rebuilds a table from a snapshot. Event queues and hand
// histories start empty; they live in the persistence layer, not the snapshot.
func RestoreTable(snap Snapshot, eval HandEvaluator, opts ...Option) (*Table, error) {
	t, err := NewTable(snap.Config, eval, opts...)
	if err != nil {
		return nil, err
	}
	if len(snap.Seats) != snap.Config.NumSeats {
		return nil, consistencyf("snapshot has %d seats for a %d-seat table", len(snap.Seats), snap.Config.NumSeats)
	}
	for i, s := range snap.Seats {
		if s == nil {
			continue
		}
		cp := *s
		t.seats[i] = &cp
		t.playerToSeat[s.Player] = i
	}
	t.handID = snap.HandID
	t.started = snap.Started
	t.handStage = snap.HandStage
	t.button = snap.Button
	t.whoseTurn = snap.WhoseTurn
	t.facingBet = snap.FacingBet
	t.lastRaise = snap.LastRaise
	t.closingCount = snap.ClosingCount
	t.potInitial = snap.PotInitial
	t.potsComplete = snap.PotsComplete
	t.departedBets = snap.DepartedBets
	t.deck = snap.Deck
	t.board = snap.Board
	return t, nil
}

func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	err := json.Unmarshal(data, &snap)
	return snap, err
}

// SeatView is the public projection of a seat; holecards stay hidden.
type SeatView struct {
	Player     string `json:"player"`
	Stack      int    `json:"stack"`
	BetStreet  int    `json:"betStreet"`
	InHand     bool   `json:"inHand"`
	SittingOut bool   `json:"sittingOut"`
	LastAction string `json:"lastAction,omitempty"`
	LastAmount int    `json:"lastAmount,omitempty"`
}

// TableState is the display projection served to clients.
type TableState struct {
	Config    Config      `json:"config"`
	HandID    int         `json:"handId"`
	HandStage string      `json:"handStage"`
	Button    int         `json:"button"`
	WhoseTurn int         `json:"whoseTurn"`
	FacingBet int         `json:"facingBet"`
	Pot       int         `json:"pot"`
	Board     []string    `json:"board"`
	Seats     []*SeatView `json:"seats"`
	Players   int         `json:"players"`
}

func (t *Table) State() TableState {
	seats := make([]*SeatView, len(t.seats))
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		seats[i] = &SeatView{
			Player:     s.Player,
			Stack:      s.Stack,
			BetStreet:  s.BetStreet,
			InHand:     s.InHand,
			SittingOut: s.SittingOut,
			LastAction: s.LastAction,
			LastAmount: s.LastAmount,
		}
	}
	return TableState{
		Config:    t.cfg,
		HandID:    t.handID,
		HandStage: t.handStage.String(),
		Button:    t.button,
		WhoseTurn: t.whoseTurn,
		FacingBet: t.facingBet,
		Pot:       t.totalPot(),
		Board:     CardStrings(t.board),
		Seats:     seats,
		Players:   t.occupiedCount(),
	}
}

// HolecardsFor returns the seated player's own holecards for private display.
func (t *Table) HolecardsFor(address string) ([]string, error) {
	idx, ok := t.playerToSeat[address]
	if !ok {
		return nil, ErrNotSeated
	}
	return CardStrings(t.seats[idx].Holecards), nil
}
