package poker_test

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/tms7331/centralized-poker/internal/poker"
)

// stubEval ranks a hand by its first holecard so tests can script winners,
// falling back to a fixed rank to force ties.
type stubEval struct {
	def   int
	ranks map[poker.Card]int
}

func (s *stubEval) Evaluate(cards []poker.Card) (int, error) {
	if r, ok := s.ranks[cards[0]]; ok {
		return r, nil
	}
	return s.def, nil
}

func newStub() *stubEval {
	return &stubEval{def: 42, ranks: make(map[poker.Card]int)}
}

func newTestTable(t *testing.T, cfg poker.Config, eval poker.HandEvaluator) *poker.Table {
	t.Helper()
	tbl, err := poker.NewTable(cfg, eval, poker.WithRand(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatalf("new table failed: %v", err)
	}
	return tbl
}

func headsUpConfig() poker.Config {
	return poker.Config{SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 2}
}

func mustAct(t *testing.T, tbl *poker.Table, action poker.ActionType, player string, amount int) {
	t.Helper()
	if err := tbl.Act(action, player, amount); err != nil {
		t.Fatalf("%s by %s failed: %v", action, player, err)
	}
}

func mustJoin(t *testing.T, tbl *poker.Table, seat, deposit int, player string, autoPost bool) {
	t.Helper()
	if err := tbl.Join(seat, deposit, player, autoPost); err != nil {
		t.Fatalf("join %s seat %d failed: %v", player, seat, err)
	}
}

// holecardsBySeat reads the first holecard dealt to each seat out of a hand's
// event history.
func holecardsBySeat(t *testing.T, tbl *poker.Table, handID int) map[int]poker.Card {
	t.Helper()
	out := make(map[int]poker.Card)
	for _, ev := range tbl.HandHistory(handID) {
		if ev.Tag != poker.EventCards {
			continue
		}
		data, ok := ev.Data.(poker.CardsData)
		if !ok || !strings.HasPrefix(data.CardType, "p") {
			continue
		}
		seat, err := strconv.Atoi(data.CardType[1:])
		if err != nil {
			t.Fatalf("bad cards tag %q", data.CardType)
		}
		c, err := poker.ParseCard(data.Cards[0])
		if err != nil {
			t.Fatalf("bad card in event: %v", err)
		}
		out[seat] = c
	}
	return out
}

func settleEvent(t *testing.T, tbl *poker.Table, handID int) poker.SettleData {
	t.Helper()
	for _, ev := range tbl.HandHistory(handID) {
		if ev.Tag == poker.EventSettle {
			return ev.Data.(poker.SettleData)
		}
	}
	t.Fatalf("hand %d has no settle event", handID)
	return poker.SettleData{}
}

func TestConfigValidation(t *testing.T) {
	stub := newStub()
	bad := []poker.Config{
		{SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 1},
		{SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 10},
		{SmallBlind: 0, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 6},
		{SmallBlind: 3, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 6},
		{SmallBlind: 1, BigBlind: 2, MinBuyin: 200, MaxBuyin: 50, NumSeats: 6},
	}
	for _, cfg := range bad {
		if _, err := poker.NewTable(cfg, stub); err == nil {
			t.Fatalf("config %+v should be rejected", cfg)
		}
	}
}

func TestJoinValidation(t *testing.T) {
	tbl := newTestTable(t, headsUpConfig(), newStub())

	if err := tbl.Join(-1, 100, "a", false); !errors.Is(err, poker.ErrSeatOutOfRange) {
		t.Fatalf("expected ErrSeatOutOfRange, got %v", err)
	}
	if err := tbl.Join(2, 100, "a", false); !errors.Is(err, poker.ErrSeatOutOfRange) {
		t.Fatalf("expected ErrSeatOutOfRange, got %v", err)
	}
	if err := tbl.Join(0, 10, "a", false); !errors.Is(err, poker.ErrInvalidBuyin) {
		t.Fatalf("expected ErrInvalidBuyin, got %v", err)
	}
	if err := tbl.Join(0, 500, "a", false); !errors.Is(err, poker.ErrInvalidBuyin) {
		t.Fatalf("expected ErrInvalidBuyin, got %v", err)
	}
	mustJoin(t, tbl, 0, 100, "a", false)
	if err := tbl.Join(1, 100, "a", false); !errors.Is(err, poker.ErrAlreadySeated) {
		t.Fatalf("expected ErrAlreadySeated, got %v", err)
	}
	if err := tbl.Join(0, 100, "b", false); !errors.Is(err, poker.ErrSeatTaken) {
		t.Fatalf("expected ErrSeatTaken, got %v", err)
	}
}

func TestHeadsUpHandFlow(t *testing.T) {
	stub := newStub()
	tbl := newTestTable(t, headsUpConfig(), stub)

	mustJoin(t, tbl, 0, 100, "a", true)
	mustJoin(t, tbl, 1, 100, "b", true)

	// blinds auto-posted and holecards dealt; button acts first heads up
	st := tbl.State()
	if st.HandStage != "PREFLOP_BETTING" || st.WhoseTurn != 0 {
		t.Fatalf("unexpected state after join: %+v", st)
	}
	if st.Pot != 3 || st.FacingBet != 2 {
		t.Fatalf("blinds not posted: pot=%d facing=%d", st.Pot, st.FacingBet)
	}

	hc := holecardsBySeat(t, tbl, 1)
	stub.ranks[hc[0]] = 100 // seat 0 wins the showdown
	stub.ranks[hc[1]] = 200

	mustAct(t, tbl, poker.ActCall, "a", 0)
	mustAct(t, tbl, poker.ActCheck, "b", 0)

	st = tbl.State()
	if st.HandStage != "FLOP_BETTING" || st.WhoseTurn != 1 || len(st.Board) != 3 {
		t.Fatalf("unexpected flop state: %+v", st)
	}

	// check it down
	for i := 0; i < 3; i++ {
		mustAct(t, tbl, poker.ActCheck, "b", 0)
		mustAct(t, tbl, poker.ActCheck, "a", 0)
	}

	if tbl.TotalChips() != 200 {
		t.Fatalf("chips not conserved: %d", tbl.TotalChips())
	}
	if tbl.HandID() != 2 {
		t.Fatalf("expected hand 2 underway, got %d", tbl.HandID())
	}

	settle := settleEvent(t, tbl, 1)
	if len(settle.Pots) != 1 || settle.Pots[0].Amount != 4 ||
		len(settle.Pots[0].Winners) != 1 || settle.Pots[0].Winners[0] != 0 {
		t.Fatalf("unexpected settle: %+v", settle)
	}

	// hand 2 already opened with auto-posted blinds, button rotated
	st = tbl.State()
	if st.Pot != 3 || st.Button != 1 || st.WhoseTurn != 1 {
		t.Fatalf("unexpected hand 2 state: %+v", st)
	}
}

func TestActionValidation(t *testing.T) {
	tbl := newTestTable(t, headsUpConfig(), newStub())
	mustJoin(t, tbl, 0, 100, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)

	if err := tbl.Act(poker.ActCall, "b", 0); !errors.Is(err, poker.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if err := tbl.Act(poker.ActCheck, "a", 0); !errors.Is(err, poker.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for check under a bet, got %v", err)
	}
	if err := tbl.Act(poker.ActBet, "a", 2); !errors.Is(err, poker.ErrInvalidBetSize) {
		t.Fatalf("expected ErrInvalidBetSize for bet at facing level, got %v", err)
	}
	if err := tbl.Act(poker.ActBet, "a", 500); !errors.Is(err, poker.ErrInvalidBetSize) {
		t.Fatalf("expected ErrInvalidBetSize beyond stack, got %v", err)
	}
	if err := tbl.Act(poker.ActSBPost, "a", 0); !errors.Is(err, poker.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for blind repost, got %v", err)
	}
	if err := tbl.Act(poker.ActCall, "nobody", 0); !errors.Is(err, poker.ErrNotSeated) {
		t.Fatalf("expected ErrNotSeated, got %v", err)
	}
	if err := tbl.Act(poker.ActCall, "nobody", 0); !errors.Is(err, poker.ErrValidation) {
		t.Fatalf("validation errors should unwrap to ErrValidation, got %v", err)
	}
}

func TestFoldEndsHand(t *testing.T) {
	tbl := newTestTable(t, headsUpConfig(), newStub())
	mustJoin(t, tbl, 0, 100, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)
	mustAct(t, tbl, poker.ActFold, "a", 0)

	st := tbl.State()
	if st.Seats[0].Stack != 99 || st.Seats[1].Stack != 101 {
		t.Fatalf("unexpected stacks after fold: %+v", st.Seats)
	}
	if tbl.HandID() != 2 {
		t.Fatalf("hand should have resolved, id=%d", tbl.HandID())
	}
	for _, ev := range tbl.HandHistory(1) {
		if ev.Tag == poker.EventShowdown {
			t.Fatalf("uncontested hand must not reveal a showdown")
		}
	}
	if tbl.TotalChips() != 200 {
		t.Fatalf("chips not conserved: %d", tbl.TotalChips())
	}
}

func TestSidePotLayers(t *testing.T) {
	stub := newStub()
	cfg := poker.Config{SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 3}
	tbl := newTestTable(t, cfg, stub)

	mustJoin(t, tbl, 0, 51, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustJoin(t, tbl, 2, 200, "c", false) // seated mid-hand, contests from hand 2

	// hand 1 is heads up; a posts and folds
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)
	mustAct(t, tbl, poker.ActFold, "a", 0)

	// hand 2: button seat 1, blinds c then a
	mustAct(t, tbl, poker.ActSBPost, "c", 0)
	mustAct(t, tbl, poker.ActBBPost, "a", 0)

	hc := holecardsBySeat(t, tbl, 2)
	stub.ranks[hc[0]] = 10 // a best, c second, b worst
	stub.ranks[hc[1]] = 30
	stub.ranks[hc[2]] = 20

	mustAct(t, tbl, poker.ActBet, "b", 101) // all in
	mustAct(t, tbl, poker.ActCall, "c", 0)
	mustAct(t, tbl, poker.ActCall, "a", 0) // short all in for 48 more

	// main pot 150 to a, side pot 102 to c
	st := tbl.State()
	if st.Seats[0].Stack != 150 || st.Seats[1].Stack != 0 || st.Seats[2].Stack != 201 {
		t.Fatalf("unexpected stacks: %d %d %d",
			st.Seats[0].Stack, st.Seats[1].Stack, st.Seats[2].Stack)
	}
	if !st.Seats[1].SittingOut {
		t.Fatalf("busted seat should sit out")
	}
	if tbl.TotalChips() != 351 {
		t.Fatalf("chips not conserved: %d", tbl.TotalChips())
	}

	settle := settleEvent(t, tbl, 2)
	if len(settle.Pots) != 2 {
		t.Fatalf("expected 2 pot layers, got %+v", settle.Pots)
	}
	if settle.Pots[0].Amount != 150 || !reflect.DeepEqual(settle.Pots[0].Winners, []int{0}) {
		t.Fatalf("unexpected main pot: %+v", settle.Pots[0])
	}
	if settle.Pots[1].Amount != 102 || !reflect.DeepEqual(settle.Pots[1].Winners, []int{2}) {
		t.Fatalf("unexpected side pot: %+v", settle.Pots[1])
	}
}

func TestTieSplitsOddChipClockwiseFromButton(t *testing.T) {
	stub := newStub() // every hand ranks equal: forced ties
	cfg := poker.Config{SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 3}
	tbl := newTestTable(t, cfg, stub)

	mustJoin(t, tbl, 0, 100, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustJoin(t, tbl, 2, 100, "c", false)

	// hand 1 heads up, checked down, tie: stacks unchanged
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)
	mustAct(t, tbl, poker.ActCall, "a", 0)
	mustAct(t, tbl, poker.ActCheck, "b", 0)
	for i := 0; i < 3; i++ {
		mustAct(t, tbl, poker.ActCheck, "b", 0)
		mustAct(t, tbl, poker.ActCheck, "a", 0)
	}
	st := tbl.State()
	if st.Seats[0].Stack != 100 || st.Seats[1].Stack != 100 {
		t.Fatalf("tie should return blinds: %+v", st.Seats)
	}

	// hand 2: button 1, sb c, bb a; c folds its blind leaving an odd pot of 5
	mustAct(t, tbl, poker.ActSBPost, "c", 0)
	mustAct(t, tbl, poker.ActBBPost, "a", 0)
	mustAct(t, tbl, poker.ActCall, "b", 0)
	mustAct(t, tbl, poker.ActFold, "c", 0)
	mustAct(t, tbl, poker.ActCheck, "a", 0)
	for i := 0; i < 3; i++ {
		mustAct(t, tbl, poker.ActCheck, "a", 0)
		mustAct(t, tbl, poker.ActCheck, "b", 0)
	}

	// 5-chip pot split between a and b; odd chip to the first winner
	// clockwise from the button (seat 0)
	st = tbl.State()
	if st.Seats[0].Stack != 101 || st.Seats[1].Stack != 100 || st.Seats[2].Stack != 99 {
		t.Fatalf("unexpected split: %d %d %d",
			st.Seats[0].Stack, st.Seats[1].Stack, st.Seats[2].Stack)
	}
	if tbl.TotalChips() != 300 {
		t.Fatalf("chips not conserved: %d", tbl.TotalChips())
	}
}

func TestLeaveMidHandForfeitsStreetBets(t *testing.T) {
	tbl := newTestTable(t, headsUpConfig(), newStub())
	mustJoin(t, tbl, 0, 100, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)
	mustAct(t, tbl, poker.ActCall, "a", 0)

	payout, err := tbl.Leave(0, "a")
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if payout != 98 {
		t.Fatalf("expected payout 98, got %d", payout)
	}

	// b wins the abandoned pot and the table idles
	st := tbl.State()
	if st.Seats[1] == nil || st.Seats[1].Stack != 102 {
		t.Fatalf("unexpected stack for remaining player: %+v", st.Seats)
	}
	if tbl.HandID() != 2 || st.WhoseTurn != -1 {
		t.Fatalf("table should idle after payout: hand=%d turn=%d", tbl.HandID(), st.WhoseTurn)
	}
}

func TestRebuyBounds(t *testing.T) {
	tbl := newTestTable(t, headsUpConfig(), newStub())
	mustJoin(t, tbl, 0, 100, "a", false)

	if err := tbl.Rebuy(0, 0, "a"); !errors.Is(err, poker.ErrInvalidBuyin) {
		t.Fatalf("expected ErrInvalidBuyin for zero rebuy, got %v", err)
	}
	if err := tbl.Rebuy(0, 150, "a"); !errors.Is(err, poker.ErrInvalidBuyin) {
		t.Fatalf("expected ErrInvalidBuyin above bracket, got %v", err)
	}
	if err := tbl.Rebuy(0, 50, "b"); !errors.Is(err, poker.ErrNotAtSeat) {
		t.Fatalf("expected ErrNotAtSeat, got %v", err)
	}
	if err := tbl.Rebuy(0, 50, "a"); err != nil {
		t.Fatalf("rebuy failed: %v", err)
	}
	if st := tbl.State(); st.Seats[0].Stack != 150 {
		t.Fatalf("expected stack 150, got %d", st.Seats[0].Stack)
	}
}

func TestMidHandRebuyCreditsAtHandBoundary(t *testing.T) {
	stub := newStub()
	cfg := poker.Config{SmallBlind: 1, BigBlind: 2, MinBuyin: 50, MaxBuyin: 200, NumSeats: 3}
	tbl := newTestTable(t, cfg, stub)

	mustJoin(t, tbl, 0, 100, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustJoin(t, tbl, 2, 60, "c", false) // seated mid-hand, contests from hand 2

	// hand 1 is heads up; a posts and folds
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)
	mustAct(t, tbl, poker.ActFold, "a", 0)

	// hand 2: button 1, blinds c then a; c goes all in preflop, closing a
	// 180-chip layer it is eligible for
	mustAct(t, tbl, poker.ActSBPost, "c", 0)
	mustAct(t, tbl, poker.ActBBPost, "a", 0)

	hc := holecardsBySeat(t, tbl, 2)
	stub.ranks[hc[0]] = 300
	stub.ranks[hc[1]] = 200
	stub.ranks[hc[2]] = 10 // c holds the best hand

	mustAct(t, tbl, poker.ActBet, "b", 60)
	mustAct(t, tbl, poker.ActCall, "c", 0) // all in for 60
	mustAct(t, tbl, poker.ActCall, "a", 0)

	// c rebuys on the flop; the chips must not reach its stack mid-hand
	if err := tbl.Rebuy(2, 100, "c"); err != nil {
		t.Fatalf("mid-hand rebuy failed: %v", err)
	}
	st := tbl.State()
	if st.Seats[2].Stack != 0 {
		t.Fatalf("rebuy credited mid-hand: stack %d", st.Seats[2].Stack)
	}
	if tbl.TotalChips() != 360 {
		t.Fatalf("chips not conserved after rebuy: %d", tbl.TotalChips())
	}
	// the bracket counts pending chips
	if err := tbl.Rebuy(2, 150, "c"); !errors.Is(err, poker.ErrInvalidBuyin) {
		t.Fatalf("expected ErrInvalidBuyin above bracket, got %v", err)
	}

	// a and b bet on past the all-in; c takes no further part in the betting
	mustAct(t, tbl, poker.ActBet, "a", 30)
	mustAct(t, tbl, poker.ActCall, "b", 0)
	for i := 0; i < 2; i++ {
		mustAct(t, tbl, poker.ActCheck, "a", 0)
		mustAct(t, tbl, poker.ActCheck, "b", 0)
	}

	// c wins only the layer its chips closed; the flop bets go to b
	settle := settleEvent(t, tbl, 2)
	if len(settle.Pots) != 2 {
		t.Fatalf("expected 2 pot layers, got %+v", settle.Pots)
	}
	if settle.Pots[0].Amount != 180 || !reflect.DeepEqual(settle.Pots[0].Winners, []int{2}) {
		t.Fatalf("unexpected main pot: %+v", settle.Pots[0])
	}
	if settle.Pots[1].Amount != 60 || !reflect.DeepEqual(settle.Pots[1].Winners, []int{1}) {
		t.Fatalf("unexpected side pot: %+v", settle.Pots[1])
	}

	// rebuy chips arrive at the hand boundary
	st = tbl.State()
	if st.Seats[0].Stack != 9 || st.Seats[1].Stack != 71 || st.Seats[2].Stack != 280 {
		t.Fatalf("unexpected stacks: %d %d %d",
			st.Seats[0].Stack, st.Seats[1].Stack, st.Seats[2].Stack)
	}
	if tbl.TotalChips() != 360 {
		t.Fatalf("chips not conserved: %d", tbl.TotalChips())
	}
}

func TestSnapshotRestoreMidHand(t *testing.T) {
	stub := newStub()
	tbl := newTestTable(t, headsUpConfig(), stub)
	mustJoin(t, tbl, 0, 100, "a", false)
	mustJoin(t, tbl, 1, 100, "b", false)
	mustAct(t, tbl, poker.ActSBPost, "a", 0)
	mustAct(t, tbl, poker.ActBBPost, "b", 0)
	mustAct(t, tbl, poker.ActCall, "a", 0)

	data, err := tbl.MarshalSnapshot()
	if err != nil {
		t.Fatalf("marshal snapshot failed: %v", err)
	}
	snap, err := poker.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("unmarshal snapshot failed: %v", err)
	}
	restored, err := poker.RestoreTable(snap, stub)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !reflect.DeepEqual(tbl.State(), restored.State()) {
		t.Fatalf("restored state differs:\n%+v\n%+v", tbl.State(), restored.State())
	}

	// play the restored table to completion; same deck, same holecards
	hc := holecardsBySeat(t, tbl, 1)
	stub.ranks[hc[0]] = 100
	stub.ranks[hc[1]] = 200

	mustAct(t, restored, poker.ActCheck, "b", 0)
	for i := 0; i < 3; i++ {
		mustAct(t, restored, poker.ActCheck, "b", 0)
		mustAct(t, restored, poker.ActCheck, "a", 0)
	}
	st := restored.State()
	if st.Seats[0].Stack != 102 || st.Seats[1].Stack != 98 {
		t.Fatalf("unexpected stacks on restored table: %+v", st.Seats)
	}
	if restored.TotalChips() != 200 {
		t.Fatalf("chips not conserved: %d", restored.TotalChips())
	}
}

func TestSnapshotRoundTripJSON(t *testing.T) {
	tbl := newTestTable(t, headsUpConfig(), newStub())
	mustJoin(t, tbl, 0, 100, "a", true)

	var decoded poker.Snapshot
	data, err := json.Marshal(tbl.Snapshot())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Config != tbl.Config() || len(decoded.Deck) != poker.DeckSize {
		t.Fatalf("snapshot lost data: %+v", decoded)
	}
}
