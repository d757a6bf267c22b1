package poker

// HandStage is the position of the current hand in the fixed cycle
// SB_POST -> BB_POST -> HOLECARDS_DEAL -> PREFLOP_BETTING -> FLOP_DEAL ->
// FLOP_BETTING -> TURN_DEAL -> TURN_BETTING -> RIVER_DEAL -> RIVER_BETTING ->
// SHOWDOWN -> SETTLE -> (next hand, back to SB_POST).
type HandStage int

const (
	StageSBPost HandStage = iota
	StageBBPost
	StageHolecardsDeal
	StagePreflopBetting
	StageFlopDeal
	StageFlopBetting
	StageTurnDeal
	StageTurnBetting
	StageRiverDeal
	StageRiverBetting
	StageShowdown
	StageSettle
)

var stageNames = [...]string{
	"SB_POST", "BB_POST", "HOLECARDS_DEAL", "PREFLOP_BETTING",
	"FLOP_DEAL", "FLOP_BETTING", "TURN_DEAL", "TURN_BETTING",
	"RIVER_DEAL", "RIVER_BETTING", "SHOWDOWN", "SETTLE",
}

func (s HandStage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

func (s HandStage) isBetting() bool {
	switch s {
	case StagePreflopBetting, StageFlopBetting, StageTurnBetting, StageRiverBetting:
		return true
	}
	return false
}

// nextStage returns the stage entered when the current betting street closes.
func (s HandStage) nextDealStage() HandStage {
	switch s {
	case StagePreflopBetting:
		return StageFlopDeal
	case StageFlopBetting:
		return StageTurnDeal
	case StageTurnBetting:
		return StageRiverDeal
	case StageRiverBetting:
		return StageShowdown
	}
	return StageShowdown
}

// ActionType enumerates the player actions the engine accepts.
type ActionType int

const (
	ActSBPost ActionType = iota
	ActBBPost
	ActBet
	ActFold
	ActCall
	ActCheck
)

var actionNames = [...]string{"SB_POST", "BB_POST", "BET", "FOLD", "CALL", "CHECK"}

func (a ActionType) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "UNKNOWN"
	}
	return actionNames[a]
}
