package poker

import (
	"math/rand"
	"time"
)

// Seats holding at most one small blind cannot post and sit out the next hand.
// showdownVal sentinel is worse than the worst real rank (7461).
const worstShowdownVal = 8000

// HandEvaluator ranks a 7-card hand; lower is stronger, 0 is the best possible
// hand. Built once at process start and shared by every table.
type HandEvaluator interface {
	Evaluate(cards []Card) (int, error)
}

// Config is the immutable table configuration fixed at creation.
type Config struct {
	SmallBlind int `json:"smallBlind"`
	BigBlind   int `json:"bigBlind"`
	MinBuyin   int `json:"minBuyin"`
	MaxBuyin   int `json:"maxBuyin"`
	NumSeats   int `json:"numSeats"`
}

func (c Config) validate() error {
	if c.NumSeats < 2 || c.NumSeats > 9 {
		return ErrSeatOutOfRange
	}
	if c.SmallBlind <= 0 || c.BigBlind < c.SmallBlind {
		return ErrInvalidBetSize
	}
	if c.MinBuyin <= 0 || c.MaxBuyin < c.MinBuyin {
		return ErrInvalidBuyin
	}
	return nil
}

// Seat is one table position. A nil entry in Table.seats is an empty seat.
type Seat struct {
	Player      string `json:"player"`
	Stack       int    `json:"stack"`
	InHand      bool   `json:"inHand"`
	SittingOut  bool   `json:"sittingOut"`
	AutoPost    bool   `json:"autoPost"`
	BetStreet   int    `json:"betStreet"`
	ShowdownVal int    `json:"showdownVal"`
	Holecards   []Card `json:"holecards"`
	LastAction  string `json:"lastAction"`
	LastAmount  int    `json:"lastAmount"`

	// capped marks an all-in seat whose chips are fully assigned to closed
	// pot layers; it is no longer eligible for the open pot.
	Capped bool `json:"capped"`

	// pendingRebuy holds chips bought while the seat was in a live hand.
	// They join the stack at the next hand boundary; crediting them earlier
	// would let an all-in seat bet into pot layers it is not eligible for.
	PendingRebuy int `json:"pendingRebuy"`
}

// Pot is a closed pot layer: a disjoint fragment of the total pot plus the
// seats that may win it.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// Table is the authoritative state machine for one poker table. It is not
// safe for concurrent use; callers serialize access per table.
type Table struct {
	cfg  Config
	eval HandEvaluator
	rng  *rand.Rand

	seats        []*Seat
	playerToSeat map[string]int

	handID    int
	started   bool
	handStage HandStage
	button    int
	whoseTurn int

	facingBet    int
	lastRaise    int
	closingCount int

	potInitial   int
	potsComplete []Pot
	// street contributions from seats vacated mid-street; they stay in the
	// pot but the contributor can win nothing.
	departedBets []int

	deck  []Card
	board []Card

	events        []Event
	handHistories map[int][]Event
}

// Option configures a Table at creation.
type Option func(*Table)

// WithRand injects the shuffle source; tests use a fixed seed.
func WithRand(rng *rand.Rand) Option {
	return func(t *Table) { t.rng = rng }
}

func NewTable(cfg Config, eval HandEvaluator, opts ...Option) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	t := &Table{
		cfg:           cfg,
		eval:          eval,
		seats:         make([]*Seat, cfg.NumSeats),
		playerToSeat:  make(map[string]int),
		handID:        1,
		handStage:     StageSBPost,
		whoseTurn:     -1,
		handHistories: make(map[int][]Event),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	t.shuffle()
	return t, nil
}

func (t *Table) Config() Config { return t.cfg }

func (t *Table) shuffle() {
	t.deck = newDeck()
	t.rng.Shuffle(len(t.deck), func(i, j int) {
		t.deck[i], t.deck[j] = t.deck[j], t.deck[i]
	})
}

// Join seats a player. Joining mid-hand leaves the seat out of the current
// hand; it contests from the next hand boundary. The first occupant of an
// empty table takes the button.
func (t *Table) Join(seatIdx, deposit int, address string, autoPost bool) error {
	if seatIdx < 0 || seatIdx >= t.cfg.NumSeats {
		return ErrSeatOutOfRange
	}
	if t.seats[seatIdx] != nil {
		return ErrSeatTaken
	}
	if _, ok := t.playerToSeat[address]; ok {
		return ErrAlreadySeated
	}
	if deposit < t.cfg.MinBuyin || deposit > t.cfg.MaxBuyin {
		return ErrInvalidBuyin
	}

	first := t.occupiedCount() == 0
	t.seats[seatIdx] = &Seat{
		Player:      address,
		Stack:       deposit,
		ShowdownVal: worstShowdownVal,
	}
	t.playerToSeat[address] = seatIdx
	if autoPost {
		t.seats[seatIdx].AutoPost = true
	}
	if first {
		t.button = seatIdx
		t.whoseTurn = seatIdx
	}

	t.emit(EventJoinTable, JoinTableData{Player: address, Seat: seatIdx, DepositAmount: deposit})
	return t.advance()
}

// Leave vacates a seat and pays out its stack. A seat leaving mid-hand is
// folded out first; its chips committed this hand stay in the pot.
func (t *Table) Leave(seatIdx int, address string) (int, error) {
	if seatIdx < 0 || seatIdx >= t.cfg.NumSeats {
		return 0, ErrSeatOutOfRange
	}
	seat := t.seats[seatIdx]
	if seat == nil {
		return 0, ErrSeatEmpty
	}
	if seat.Player != address {
		return 0, ErrNotAtSeat
	}

	if seat.InHand && t.started {
		seat.InHand = false
		if seat.BetStreet > 0 {
			t.departedBets = append(t.departedBets, seat.BetStreet)
			seat.BetStreet = 0
		}
		if t.whoseTurn == seatIdx && t.countInHand() > 1 {
			if err := t.advanceTurn(); err != nil {
				return 0, err
			}
		}
	}

	payout := seat.Stack + seat.PendingRebuy
	t.seats[seatIdx] = nil
	delete(t.playerToSeat, address)
	t.emit(EventLeaveTable, LeaveTableData{Player: address, Seat: seatIdx, Payout: payout})

	if err := t.advance(); err != nil {
		return 0, err
	}
	return payout, nil
}

// Rebuy tops up a stack between (or during) hands. The resulting stack must
// stay inside the buy-in bracket. A rebuy taken while the seat is in a live
// hand is held as pending and credited at the hand boundary, so the hand's
// pot layers settle on the stacks the hand was dealt with. A busted
// sitting-out seat re-enters at the next hand boundary.
func (t *Table) Rebuy(seatIdx, amount int, address string) error {
	if seatIdx < 0 || seatIdx >= t.cfg.NumSeats {
		return ErrSeatOutOfRange
	}
	seat := t.seats[seatIdx]
	if seat == nil {
		return ErrSeatEmpty
	}
	if seat.Player != address {
		return ErrNotAtSeat
	}
	if amount <= 0 {
		return ErrInvalidBuyin
	}
	newStack := seat.Stack + seat.PendingRebuy + amount
	if newStack < t.cfg.MinBuyin || newStack > t.cfg.MaxBuyin {
		return ErrInvalidBuyin
	}
	if seat.InHand && t.started {
		seat.PendingRebuy += amount
	} else {
		seat.Stack = newStack
		if seat.SittingOut && newStack > t.cfg.SmallBlind {
			seat.SittingOut = false
		}
	}

	t.emit(EventRebuy, RebuyData{Player: address, Seat: seatIdx, RebuyAmount: amount})
	return t.advance()
}

func (t *Table) occupiedCount() int {
	n := 0
	for _, s := range t.seats {
		if s != nil {
			n++
		}
	}
	return n
}

func (t *Table) countInHand() int {
	n := 0
	for _, s := range t.seats {
		if s != nil && s.InHand {
			n++
		}
	}
	return n
}

// activeBettors counts seats that can still act this street.
func (t *Table) activeBettors() int {
	n := 0
	for _, s := range t.seats {
		if s != nil && s.InHand && s.Stack > 0 {
			n++
		}
	}
	return n
}

func (t *Table) countEligible() int {
	n := 0
	for _, s := range t.seats {
		if s != nil && !s.SittingOut && s.Stack > 0 {
			n++
		}
	}
	return n
}

// nextSeat scans clockwise from (but excluding) start and returns the first
// seat satisfying pred, wrapping around and ending on start itself.
func (t *Table) nextSeat(start int, pred func(*Seat) bool) (int, bool) {
	for i := 1; i <= t.cfg.NumSeats; i++ {
		idx := (start + i) % t.cfg.NumSeats
		if s := t.seats[idx]; s != nil && pred(s) {
			return idx, true
		}
	}
	return 0, false
}

func (t *Table) advanceTurn() error {
	idx, ok := t.nextSeat(t.whoseTurn, func(s *Seat) bool {
		return s.InHand && s.Stack > 0
	})
	if !ok {
		return consistencyf("turn advance found no eligible seat (stage %s)", t.handStage)
	}
	t.whoseTurn = idx
	return nil
}

// allMatched reports whether every seat still in the hand has either matched
// the facing bet or is all in.
func (t *Table) allMatched() bool {
	for _, s := range t.seats {
		if s == nil || !s.InHand {
			continue
		}
		if s.Stack > 0 && s.BetStreet != t.facingBet {
			return false
		}
	}
	return true
}

// totalPot derives the full pot: closed layers plus the open pot plus live
// street bets.
func (t *Table) totalPot() int {
	total := t.potInitial
	for _, p := range t.potsComplete {
		total += p.Amount
	}
	for _, s := range t.seats {
		if s != nil {
			total += s.BetStreet
		}
	}
	for _, b := range t.departedBets {
		total += b
	}
	return total
}

// TotalChips sums every chip the table currently owns, in stacks or pots.
// Constant across actions; changes only via Join/Rebuy/Leave.
func (t *Table) TotalChips() int {
	total := t.totalPot()
	for _, s := range t.seats {
		if s != nil {
			total += s.Stack + s.PendingRebuy
		}
	}
	return total
}
