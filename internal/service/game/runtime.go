package game

import (
	"sync"

	"github.com/tms7331/centralized-poker/internal/poker"
	"github.com/tms7331/centralized-poker/pkg/logger"

	"go.uber.org/zap"
)

// OutgoingMessage is one frame on the table event stream. Type carries the
// engine event tag; Seq orders frames per connection.
type OutgoingMessage struct {
	Type   string      `json:"type"`
	Seq    int64       `json:"seq"`
	HandID int         `json:"handId,omitempty"`
	Data   interface{} `json:"data"`
}

// TableRuntime wraps one live table. The engine itself is single threaded;
// the runtime's mutex serializes every caller (REST handlers, WS readers).
type TableRuntime struct {
	tableID int64
	table   *poker.Table

	mu          sync.Mutex
	seq         int64
	subscribers map[int64]chan OutgoingMessage
	nextSubID   int64

	// onHandComplete archives a finished hand's event history.
	onHandComplete func(tableID int64, handID int, events []poker.Event)
	// onSnapshot persists serialized table state after each mutation.
	onSnapshot func(tableID int64, snapshot []byte)
}

func newTableRuntime(tableID int64, table *poker.Table) *TableRuntime {
	return &TableRuntime{
		tableID:     tableID,
		table:       table,
		subscribers: make(map[int64]chan OutgoingMessage),
	}
}

func (rt *TableRuntime) TableID() int64 { return rt.tableID }

// Subscribe registers an event stream consumer and immediately pushes the
// current table state so late joiners can render without waiting for action.
func (rt *TableRuntime) Subscribe() (int64, chan OutgoingMessage) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.nextSubID++
	id := rt.nextSubID
	ch := make(chan OutgoingMessage, 32)
	rt.subscribers[id] = ch
	ch <- OutgoingMessage{
		Type:   "state",
		Seq:    rt.nextSeqLocked(),
		HandID: rt.table.HandID(),
		Data:   rt.table.State(),
	}
	return id, ch
}

func (rt *TableRuntime) Unsubscribe(id int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[id]; ok {
		delete(rt.subscribers, id)
		close(ch)
	}
}

func (rt *TableRuntime) State() poker.TableState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.table.State()
}

func (rt *TableRuntime) HandHistory(handID int) []poker.Event {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.table.HandHistory(handID)
}

func (rt *TableRuntime) HolecardsFor(address string) ([]string, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.table.HolecardsFor(address)
}

func (rt *TableRuntime) Join(seat, deposit int, address string, autoPost bool) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	err := rt.table.Join(seat, deposit, address, autoPost)
	rt.afterMutationLocked()
	return err
}

func (rt *TableRuntime) Leave(seat int, address string) (int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	payout, err := rt.table.Leave(seat, address)
	rt.afterMutationLocked()
	return payout, err
}

func (rt *TableRuntime) Rebuy(seat, amount int, address string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	err := rt.table.Rebuy(seat, amount, address)
	rt.afterMutationLocked()
	return err
}

// HandleAction applies an action frame arriving over the event stream socket.
func (rt *TableRuntime) HandleAction(address, actionType string, amount int) error {
	action, err := parseActionType(actionType)
	if err != nil {
		return err
	}
	return rt.Act(action, address, amount)
}

func (rt *TableRuntime) Act(action poker.ActionType, address string, amount int) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	err := rt.table.Act(action, address, amount)
	rt.afterMutationLocked()
	return err
}

// afterMutationLocked drains engine events, fans them out to subscribers and
// fires the persistence hooks. Events emitted before a failed validation do
// not exist, so draining after an error is still correct.
func (rt *TableRuntime) afterMutationLocked() {
	events := rt.table.DrainEvents()
	for _, ev := range events {
		msg := OutgoingMessage{
			Type:   ev.Tag,
			Seq:    rt.nextSeqLocked(),
			HandID: ev.HandID,
			Data:   ev.Data,
		}
		for id, ch := range rt.subscribers {
			select {
			case ch <- msg:
			default:
				logger.Log.Warn("ws subscriber channel full",
					zap.Int64("subID", id), zap.Int64("tableID", rt.tableID))
			}
		}
	}

	for _, ev := range events {
		if ev.Tag == poker.EventSettle && rt.onHandComplete != nil {
			go rt.onHandComplete(rt.tableID, ev.HandID, rt.table.HandHistory(ev.HandID))
		}
	}

	if rt.onSnapshot != nil && len(events) > 0 {
		snapshot, err := rt.table.MarshalSnapshot()
		if err != nil {
			logger.Log.Error("snapshot marshal failed",
				zap.Int64("tableID", rt.tableID), zap.Error(err))
			return
		}
		go rt.onSnapshot(rt.tableID, snapshot)
	}
}

func (rt *TableRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}
