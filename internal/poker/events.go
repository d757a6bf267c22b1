package poker

// Event is a tagged record describing something that happened at the table.
// Payloads carry only plain data so the transport layer can serialize them
// without reaching back into engine state.
type Event struct {
	Tag    string      `json:"tag"`
	HandID int         `json:"handId"`
	Data   interface{} `json:"data"`
}

const (
	EventJoinTable  = "joinTable"
	EventLeaveTable = "leaveTable"
	EventRebuy      = "rebuy"
	EventCards      = "cards"
	EventGameState  = "gameState"
	EventShowdown   = "showdown"
	EventSettle     = "settle"
)

type JoinTableData struct {
	Player        string `json:"player"`
	Seat          int    `json:"seat"`
	DepositAmount int    `json:"depositAmount"`
}

type LeaveTableData struct {
	Player string `json:"player"`
	Seat   int    `json:"seat"`
	Payout int    `json:"payout"`
}

type RebuyData struct {
	Player      string `json:"player"`
	Seat        int    `json:"seat"`
	RebuyAmount int    `json:"rebuyAmount"`
}

// CardsData announces dealt cards. CardType is "flop", "turn", "river" or
// "p<seat>" for holecards.
type CardsData struct {
	CardType string   `json:"cardType"`
	Cards    []string `json:"cards"`
}

type SeatStateData struct {
	Player     string `json:"player"`
	Stack      int    `json:"stack"`
	BetStreet  int    `json:"betStreet"`
	InHand     bool   `json:"inHand"`
	SittingOut bool   `json:"sittingOut"`
}

type GameStateData struct {
	Pot        int              `json:"pot"`
	Button     int              `json:"button"`
	WhoseTurn  int              `json:"whoseTurn"`
	HandStage  string           `json:"handStage"`
	FacingBet  int              `json:"facingBet"`
	ActionType string           `json:"actionType"`
	Amount     int              `json:"amount"`
	Player     string           `json:"player"`
	Seats      []*SeatStateData `json:"seats"`
}

type ShowdownHandData struct {
	Seat      int      `json:"seat"`
	Player    string   `json:"player"`
	Holecards []string `json:"holecards"`
	Rank      int      `json:"rank"`
	HandDesc  string   `json:"handDesc"`
}

type ShowdownData struct {
	Board []string           `json:"board"`
	Hands []ShowdownHandData `json:"hands"`
}

type SettlePotData struct {
	Amount  int   `json:"amount"`
	Winners []int `json:"winners"`
	Share   int   `json:"share"`
}

type SettleData struct {
	Pots []SettlePotData `json:"pots"`
}

// emit appends an event to both the drain-once outbound queue and the
// permanent per-hand history, so draining for broadcast never erodes the
// record.
func (t *Table) emit(tag string, data interface{}) {
	ev := Event{Tag: tag, HandID: t.handID, Data: data}
	t.events = append(t.events, ev)
	t.handHistories[t.handID] = append(t.handHistories[t.handID], ev)
}

// DrainEvents returns and clears the pending outbound events.
func (t *Table) DrainEvents() []Event {
	evs := t.events
	t.events = nil
	return evs
}

// HandHistory returns the stored event list for a hand, or nil if the hand id
// is unknown. handID -1 selects the current hand.
func (t *Table) HandHistory(handID int) []Event {
	if handID == -1 {
		handID = t.handID
	}
	evs, ok := t.handHistories[handID]
	if !ok {
		return nil
	}
	out := make([]Event, len(evs))
	copy(out, evs)
	return out
}

// HandID returns the id of the hand currently being played (or about to start).
func (t *Table) HandID() int { return t.handID }
