package model

import (
	"time"

	"gorm.io/datatypes"
)

// Users are identified by a wallet-style address; login is a guest flow that
// creates the account on first sight of the address.

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Address   string `gorm:"unique;not null;size:64"`
	Nickname  string
	Avatar    string
	Status    string `gorm:"default:normal;not null"` // normal/banned
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wallet holds bankroll chips not currently on a table. Chips move wallet ->
// table stack on join/rebuy and back on leave.

type Wallet struct {
	UserID       int64 `gorm:"primaryKey"`
	Balance      int64
	TotalDeposit int64
	TotalBuyin   int64
	TotalPayout  int64
	UpdatedAt    time.Time
}

type BillingLog struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	UserID       int64
	Type         string // buyin/rebuy/payout/grant/adjust
	Delta        int64
	BalanceAfter int64
	TableID      *int64
	MetaJSON     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// TableRecord is the durable registration of a table; live betting state lives
// in the runtime and its Redis snapshot.

type TableRecord struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Status     string `gorm:"default:open"` // open/closed
	SmallBlind int
	BigBlind   int
	MinBuyin   int
	MaxBuyin   int
	NumSeats   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HandLog archives the full event stream of one completed hand.

type HandLog struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	TableID    int64 `gorm:"index:idx_hand_logs_table_hand,unique"`
	HandID     int   `gorm:"index:idx_hand_logs_table_hand,unique"`
	EventsJSON datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time
}
