package errors

import "errors"

// Service-level sentinel errors. Engine-level errors live in internal/poker;
// handlers translate both into HTTP statuses.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserNotFound = errors.New("user not found")
	ErrUserBanned   = errors.New("user is banned")

	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidUserStatus = errors.New("invalid user status")

	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminDisabled        = errors.New("admin account disabled")
	ErrInvalidAdminPassword = errors.New("invalid admin password")

	ErrInvalidWalletPayload = errors.New("invalid wallet payload")
	ErrInsufficientBalance  = errors.New("insufficient balance")

	ErrTableNotFound      = errors.New("table not found")
	ErrTableClosed        = errors.New("table closed")
	ErrInvalidTableConfig = errors.New("invalid table config")
	ErrHandNotFound       = errors.New("hand not found")
)
