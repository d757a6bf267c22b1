package auth

import (
	"context"
	"strings"
	"time"

	"github.com/tms7331/centralized-poker/internal/config"
	"github.com/tms7331/centralized-poker/internal/model"
	"github.com/tms7331/centralized-poker/internal/service/wallet"
	pkgAuth "github.com/tms7331/centralized-poker/pkg/auth"
	appErr "github.com/tms7331/centralized-poker/pkg/errors"
	"github.com/tms7331/centralized-poker/pkg/logger"
	"github.com/tms7331/centralized-poker/pkg/utils/random"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service implements the guest login flow: a wallet-style address is the whole
// identity, and the account is created on first login.
type Service struct {
	db        *gorm.DB
	walletSvc *wallet.Service
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
}

func NewService(db *gorm.DB, walletSvc *wallet.Service) *Service {
	return &Service{db: db, walletSvc: walletSvc}
}

func (s *Service) Login(ctx context.Context, address, nickname string) (*LoginResult, error) {
	address = normalizeAddress(address)
	if !isValidAddress(address) {
		return nil, appErr.ErrInvalidAddress
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		user, err = s.createUser(ctx, address, nickname)
		if err != nil {
			return nil, err
		}
	}
	if strings.EqualFold(user.Status, "banned") {
		return nil, appErr.ErrUserBanned
	}

	if err := s.walletSvc.EnsureWallet(ctx, user.ID, config.GlobalConfig.Game.StartingBalance); err != nil {
		return nil, err
	}

	token, err := pkgAuth.GenerateToken(user.ID, user.Address)
	if err != nil {
		return nil, err
	}

	expireAt := time.Now().Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)
	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		User:     user,
	}, nil
}

func (s *Service) createUser(ctx context.Context, address, nickname string) (model.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = "player-" + random.Code(6)
	}
	user := model.User{
		Address:  address,
		Nickname: nickname,
		Status:   "normal",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return model.User{}, err
	}
	logger.Log.Info("guest account created",
		zap.Int64("userID", user.ID),
		zap.String("address", maskAddress(address)),
	)
	return user, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// isValidAddress accepts 0x-prefixed 40-digit hex, the address shape the
// browser clients send.
func isValidAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	for _, c := range address[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func maskAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
