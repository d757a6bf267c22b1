package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/tms7331/centralized-poker/internal/model"
	appErr "github.com/tms7331/centralized-poker/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns bankroll chips. Table buy-ins debit the wallet, payouts credit
// it; every movement leaves a BillingLog row.
type Service struct {
	db *gorm.DB
}

type AdminSetWalletRequest struct {
	Balance *int64
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetWallet(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// EnsureWallet creates the wallet on first login, seeded with the configured
// starting balance.
func (s *Service) EnsureWallet(ctx context.Context, userID, startingBalance int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet model.Wallet
		err := tx.Where("user_id = ?", userID).First(&wallet).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		wallet = model.Wallet{
			UserID:       userID,
			Balance:      startingBalance,
			TotalDeposit: startingBalance,
			UpdatedAt:    time.Now(),
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}
		if startingBalance > 0 {
			return tx.Create(&model.BillingLog{
				UserID:       userID,
				Type:         "grant",
				Delta:        startingBalance,
				BalanceAfter: startingBalance,
			}).Error
		}
		return nil
	})
}

// Debit moves chips out of the wallet (buy-in, rebuy). Fails without touching
// anything when the balance is short.
func (s *Service) Debit(ctx context.Context, userID, amount int64, typ string, tableID *int64, meta datatypes.JSON) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", appErr.ErrInvalidWalletPayload)
	}
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return appErr.ErrInsufficientBalance
			}
			return err
		}
		if wallet.Balance < amount {
			return appErr.ErrInsufficientBalance
		}
		wallet.Balance -= amount
		wallet.TotalBuyin += amount
		wallet.UpdatedAt = time.Now()
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         typ,
			Delta:        -amount,
			BalanceAfter: wallet.Balance,
			TableID:      tableID,
			MetaJSON:     meta,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit moves chips into the wallet (leave-table payout). A zero payout still
// logs, so the ledger shows the seat was cashed out.
func (s *Service) Credit(ctx context.Context, userID, amount int64, typ string, tableID *int64, meta datatypes.JSON) (*model.Wallet, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", appErr.ErrInvalidWalletPayload)
	}
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).FirstOrCreate(&wallet, model.Wallet{UserID: userID}).Error; err != nil {
			return err
		}
		wallet.Balance += amount
		wallet.TotalPayout += amount
		wallet.UpdatedAt = time.Now()
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         typ,
			Delta:        amount,
			BalanceAfter: wallet.Balance,
			TableID:      tableID,
			MetaJSON:     meta,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) AdminSetWallet(ctx context.Context, userID int64, req AdminSetWalletRequest) (*model.Wallet, error) {
	if req.Balance == nil {
		return nil, fmt.Errorf("%w: balance is required", appErr.ErrInvalidWalletPayload)
	}
	if *req.Balance < 0 {
		return nil, fmt.Errorf("%w: balance must be >= 0", appErr.ErrInvalidWalletPayload)
	}

	var wallet model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).FirstOrCreate(&wallet, model.Wallet{UserID: userID}).Error; err != nil {
			return err
		}
		delta := *req.Balance - wallet.Balance
		wallet.Balance = *req.Balance
		wallet.UpdatedAt = time.Now()
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         "adjust",
			Delta:        delta,
			BalanceAfter: wallet.Balance,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
