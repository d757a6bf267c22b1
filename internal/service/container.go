package service

import (
	"context"

	"github.com/tms7331/centralized-poker/internal/poker"
	"github.com/tms7331/centralized-poker/internal/service/admin"
	"github.com/tms7331/centralized-poker/internal/service/auth"
	"github.com/tms7331/centralized-poker/internal/service/game"
	"github.com/tms7331/centralized-poker/internal/service/user"
	"github.com/tms7331/centralized-poker/internal/service/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game   *game.Service
	Auth   *auth.Service
	User   *user.Service
	Wallet *wallet.Service
	Admin  *admin.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client, eval poker.HandEvaluator) *Container {
	walletSvc := wallet.NewService(db)
	return &Container{
		Admin:  admin.NewService(db),
		Auth:   auth.NewService(db, walletSvc),
		Game:   game.NewService(db, rdb, eval, walletSvc),
		User:   user.NewService(db),
		Wallet: walletSvc,
	}
}

func (c *Container) Start(ctx context.Context) error {
	if err := c.Admin.EnsureDefaultAdmin(ctx); err != nil {
		return err
	}
	return c.Game.ReloadOpenTables(ctx)
}
