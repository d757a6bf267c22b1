package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tms7331/centralized-poker/internal/config"
	"github.com/tms7331/centralized-poker/internal/model"
	"github.com/tms7331/centralized-poker/internal/poker"
	"github.com/tms7331/centralized-poker/internal/service/wallet"
	appErr "github.com/tms7331/centralized-poker/pkg/errors"
	"github.com/tms7331/centralized-poker/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the table registry. Each open table has one TableRuntime; the
// database row is the source of truth for existence, redis snapshots carry the
// live hand across restarts.
type Service struct {
	db        *gorm.DB
	rdb       *redis.Client
	eval      poker.HandEvaluator
	walletSvc *wallet.Service

	runtimes sync.Map // tableID -> *TableRuntime
}

type CreateTableRequest struct {
	SmallBlind int `json:"smallBlind"`
	BigBlind   int `json:"bigBlind"`
	MinBuyin   int `json:"minBuyin"`
	MaxBuyin   int `json:"maxBuyin"`
	NumSeats   int `json:"numSeats"`
}

type TableSummary struct {
	ID     int64        `json:"id"`
	Status string       `json:"status"`
	Config poker.Config `json:"config"`
	// Players is -1 when the runtime is not loaded.
	Players int `json:"players"`
}

func NewService(db *gorm.DB, rdb *redis.Client, eval poker.HandEvaluator, walletSvc *wallet.Service) *Service {
	return &Service{db: db, rdb: rdb, eval: eval, walletSvc: walletSvc}
}

func (req CreateTableRequest) validate() error {
	switch req.NumSeats {
	case 2, 6, 9:
	default:
		return fmt.Errorf("%w: numSeats must be 2, 6 or 9", appErr.ErrInvalidTableConfig)
	}
	if req.SmallBlind <= 0 || req.BigBlind != 2*req.SmallBlind {
		return fmt.Errorf("%w: bigBlind must be twice smallBlind", appErr.ErrInvalidTableConfig)
	}
	if req.MinBuyin <= 0 || req.MaxBuyin < req.MinBuyin {
		return fmt.Errorf("%w: buyin bracket is invalid", appErr.ErrInvalidTableConfig)
	}
	return nil
}

func (s *Service) CreateTable(ctx context.Context, req CreateTableRequest) (*TableSummary, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	record := model.TableRecord{
		Status:     "open",
		SmallBlind: req.SmallBlind,
		BigBlind:   req.BigBlind,
		MinBuyin:   req.MinBuyin,
		MaxBuyin:   req.MaxBuyin,
		NumSeats:   req.NumSeats,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	table, err := poker.NewTable(tableConfig(record), s.eval)
	if err != nil {
		return nil, err
	}
	rt := s.registerRuntime(record.ID, table)

	logger.Log.Info("table created",
		zap.Int64("tableID", record.ID),
		zap.Int("smallBlind", req.SmallBlind),
		zap.Int("numSeats", req.NumSeats))

	return &TableSummary{
		ID:      record.ID,
		Status:  record.Status,
		Config:  table.Config(),
		Players: rt.State().Players,
	}, nil
}

func (s *Service) ListTables(ctx context.Context) ([]TableSummary, error) {
	var records []model.TableRecord
	if err := s.db.WithContext(ctx).
		Where("status = ?", "open").
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	out := make([]TableSummary, 0, len(records))
	for _, rec := range records {
		summary := TableSummary{
			ID:      rec.ID,
			Status:  rec.Status,
			Config:  tableConfig(rec),
			Players: -1,
		}
		if v, ok := s.runtimes.Load(rec.ID); ok {
			summary.Players = v.(*TableRuntime).State().Players
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) GetTable(ctx context.Context, tableID int64) (*poker.TableState, error) {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return nil, err
	}
	state := rt.State()
	return &state, nil
}

// GetRuntime returns the live runtime for a table, loading it on first touch.
// A redis snapshot resumes the in-flight hand; otherwise the table restarts
// empty from its persisted config.
func (s *Service) GetRuntime(ctx context.Context, tableID int64) (*TableRuntime, error) {
	if v, ok := s.runtimes.Load(tableID); ok {
		return v.(*TableRuntime), nil
	}

	var record model.TableRecord
	if err := s.db.WithContext(ctx).First(&record, tableID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrTableNotFound
		}
		return nil, err
	}
	if record.Status != "open" {
		return nil, appErr.ErrTableClosed
	}

	table, err := s.loadTable(ctx, record)
	if err != nil {
		return nil, err
	}
	return s.registerRuntime(record.ID, table), nil
}

func (s *Service) loadTable(ctx context.Context, record model.TableRecord) (*poker.Table, error) {
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, snapshotKey(record.ID)).Bytes()
		if err == nil {
			snap, uerr := poker.UnmarshalSnapshot(data)
			if uerr == nil {
				table, rerr := poker.RestoreTable(snap, s.eval)
				if rerr == nil {
					logger.Log.Info("table restored from snapshot", zap.Int64("tableID", record.ID))
					return table, nil
				}
				logger.Log.Error("snapshot restore failed; starting table fresh",
					zap.Int64("tableID", record.ID), zap.Error(rerr))
			} else {
				logger.Log.Error("snapshot unmarshal failed; starting table fresh",
					zap.Int64("tableID", record.ID), zap.Error(uerr))
			}
		} else if err != redis.Nil {
			logger.Log.Warn("snapshot read failed", zap.Int64("tableID", record.ID), zap.Error(err))
		}
	}
	return poker.NewTable(tableConfig(record), s.eval)
}

func (s *Service) registerRuntime(tableID int64, table *poker.Table) *TableRuntime {
	rt := newTableRuntime(tableID, table)
	rt.onHandComplete = s.archiveHand
	rt.onSnapshot = s.storeSnapshot
	if existing, loaded := s.runtimes.LoadOrStore(tableID, rt); loaded {
		return existing.(*TableRuntime)
	}
	return rt
}

// ReloadOpenTables warms runtimes for every open table at startup so snapshot
// state is recovered before the first client connects.
func (s *Service) ReloadOpenTables(ctx context.Context) error {
	var records []model.TableRecord
	if err := s.db.WithContext(ctx).Where("status = ?", "open").Find(&records).Error; err != nil {
		return err
	}
	for _, rec := range records {
		if _, ok := s.runtimes.Load(rec.ID); ok {
			continue
		}
		table, err := s.loadTable(ctx, rec)
		if err != nil {
			logger.Log.Error("table reload failed", zap.Int64("tableID", rec.ID), zap.Error(err))
			continue
		}
		s.registerRuntime(rec.ID, table)
	}
	logger.Log.Info("open tables reloaded", zap.Int("count", len(records)))
	return nil
}

// Join buys a user into a seat. The wallet debit happens first; a rejected
// seat refunds the buy-in.
func (s *Service) Join(ctx context.Context, tableID, userID int64, address string, seat, buyin int, autoPost bool) error {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return err
	}

	if _, err := s.walletSvc.Debit(ctx, userID, int64(buyin), "buyin", &tableID, seatMeta(seat)); err != nil {
		return err
	}
	if err := rt.Join(seat, buyin, address, autoPost); err != nil {
		if _, rerr := s.walletSvc.Credit(ctx, userID, int64(buyin), "payout", &tableID, seatMeta(seat)); rerr != nil {
			logger.Log.Error("buyin refund failed",
				zap.Int64("tableID", tableID), zap.Int64("userID", userID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

// Leave cashes a seat out. The stack (minus anything committed to the current
// hand) comes back to the wallet.
func (s *Service) Leave(ctx context.Context, tableID, userID int64, address string, seat int) (int, error) {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return 0, err
	}
	payout, err := rt.Leave(seat, address)
	if err != nil {
		return 0, err
	}
	if _, err := s.walletSvc.Credit(ctx, userID, int64(payout), "payout", &tableID, seatMeta(seat)); err != nil {
		logger.Log.Error("leave payout credit failed",
			zap.Int64("tableID", tableID), zap.Int64("userID", userID),
			zap.Int("payout", payout), zap.Error(err))
		return payout, err
	}
	return payout, nil
}

func (s *Service) Rebuy(ctx context.Context, tableID, userID int64, address string, seat, amount int) error {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return err
	}

	if _, err := s.walletSvc.Debit(ctx, userID, int64(amount), "rebuy", &tableID, seatMeta(seat)); err != nil {
		return err
	}
	if err := rt.Rebuy(seat, amount, address); err != nil {
		if _, rerr := s.walletSvc.Credit(ctx, userID, int64(amount), "payout", &tableID, seatMeta(seat)); rerr != nil {
			logger.Log.Error("rebuy refund failed",
				zap.Int64("tableID", tableID), zap.Int64("userID", userID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

func (s *Service) TakeAction(ctx context.Context, tableID int64, address, actionType string, amount int) error {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return err
	}
	action, err := parseActionType(actionType)
	if err != nil {
		return err
	}
	return rt.Act(action, address, amount)
}

func (s *Service) Holecards(ctx context.Context, tableID int64, address string) ([]string, error) {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return rt.HolecardsFor(address)
}

// HandHistory serves a hand's event log, preferring the live runtime and
// falling back to the archived HandLog row.
func (s *Service) HandHistory(ctx context.Context, tableID int64, handID int) ([]poker.Event, error) {
	rt, err := s.GetRuntime(ctx, tableID)
	if err == nil {
		if events := rt.HandHistory(handID); events != nil {
			return events, nil
		}
	} else if err != appErr.ErrTableClosed {
		return nil, err
	}

	var log model.HandLog
	dbErr := s.db.WithContext(ctx).
		Where("table_id = ? AND hand_id = ?", tableID, handID).
		First(&log).Error
	if dbErr != nil {
		if dbErr == gorm.ErrRecordNotFound {
			return nil, appErr.ErrHandNotFound
		}
		return nil, dbErr
	}
	var events []poker.Event
	if err := json.Unmarshal(log.EventsJSON, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CloseTable stops serving a table. Seated players should have left already;
// any remaining runtime is dropped and its snapshot deleted.
func (s *Service) CloseTable(ctx context.Context, tableID int64) error {
	res := s.db.WithContext(ctx).Model(&model.TableRecord{}).
		Where("id = ? AND status = ?", tableID, "open").
		Update("status", "closed")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appErr.ErrTableNotFound
	}

	s.runtimes.Delete(tableID)
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, snapshotKey(tableID)).Err(); err != nil {
			logger.Log.Warn("snapshot delete failed", zap.Int64("tableID", tableID), zap.Error(err))
		}
	}
	logger.Log.Info("table closed", zap.Int64("tableID", tableID))
	return nil
}

func (s *Service) AdminListTables(ctx context.Context) ([]model.TableRecord, error) {
	var records []model.TableRecord
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// archiveHand persists a completed hand's event history. Runs off the table
// lock; duplicate archives (snapshot replays) are ignored.
func (s *Service) archiveHand(tableID int64, handID int, events []poker.Event) {
	data, err := json.Marshal(events)
	if err != nil {
		logger.Log.Error("hand history marshal failed",
			zap.Int64("tableID", tableID), zap.Int("handID", handID), zap.Error(err))
		return
	}
	log := model.HandLog{TableID: tableID, HandID: handID, EventsJSON: datatypes.JSON(data)}
	err = s.db.
		Where("table_id = ? AND hand_id = ?", tableID, handID).
		FirstOrCreate(&log).Error
	if err != nil {
		logger.Log.Error("hand history persist failed",
			zap.Int64("tableID", tableID), zap.Int("handID", handID), zap.Error(err))
	}
}

func (s *Service) storeSnapshot(tableID int64, snapshot []byte) {
	if s.rdb == nil {
		return
	}
	ttl := time.Duration(config.GlobalConfig.Game.SnapshotTTLMin) * time.Minute
	if err := s.rdb.Set(context.Background(), snapshotKey(tableID), snapshot, ttl).Err(); err != nil {
		logger.Log.Warn("snapshot write failed", zap.Int64("tableID", tableID), zap.Error(err))
	}
}

func snapshotKey(tableID int64) string {
	return fmt.Sprintf("table:snapshot:%d", tableID)
}

func seatMeta(seat int) datatypes.JSON {
	return datatypes.JSON(fmt.Sprintf(`{"seat":%d}`, seat))
}

func tableConfig(rec model.TableRecord) poker.Config {
	return poker.Config{
		SmallBlind: rec.SmallBlind,
		BigBlind:   rec.BigBlind,
		MinBuyin:   rec.MinBuyin,
		MaxBuyin:   rec.MaxBuyin,
		NumSeats:   rec.NumSeats,
	}
}

func parseActionType(s string) (poker.ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sb_post":
		return poker.ActSBPost, nil
	case "bb_post":
		return poker.ActBBPost, nil
	case "bet":
		return poker.ActBet, nil
	case "fold":
		return poker.ActFold, nil
	case "call":
		return poker.ActCall, nil
	case "check":
		return poker.ActCheck, nil
	}
	return 0, fmt.Errorf("%w: unknown action type %q", poker.ErrInvalidAction, s)
}
