package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tms7331/centralized-poker/internal/middleware"
	"github.com/tms7331/centralized-poker/internal/poker"
	"github.com/tms7331/centralized-poker/internal/service"
	gamesvc "github.com/tms7331/centralized-poker/internal/service/game"
	usersvc "github.com/tms7331/centralized-poker/internal/service/user"
	walletsvc "github.com/tms7331/centralized-poker/internal/service/wallet"
	"github.com/tms7331/centralized-poker/internal/ws"
	appErr "github.com/tms7331/centralized-poker/pkg/errors"
	"github.com/tms7331/centralized-poker/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", handler.Login)

		v1.GET("/tables", handler.ListTables)
		v1.GET("/tables/:id", handler.GetTable)
		v1.GET("/tables/:id/hands/:handId", handler.GetHandHistory)

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
			userGroup.PUT("/profile", handler.UpdateProfile)
			userGroup.GET("/wallet", handler.GetWallet)
		}

		tableGroup := v1.Group("/tables")
		tableGroup.Use(middleware.AuthRequired())
		{
			tableGroup.POST("", handler.CreateTable)
			tableGroup.POST("/:id/join", handler.JoinTable)
			tableGroup.POST("/:id/leave", handler.LeaveTable)
			tableGroup.POST("/:id/rebuy", handler.Rebuy)
			tableGroup.POST("/:id/action", handler.TakeAction)
			tableGroup.GET("/:id/holecards", handler.GetHolecards)
		}
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired())
		{
			protected.GET("/users", handler.AdminListUsers)
			protected.GET("/users/:id", handler.AdminGetUser)
			protected.PUT("/users/:id/ban", handler.AdminBanUser)
			protected.PUT("/users/:id/wallet", handler.AdminSetUserWallet)

			protected.GET("/tables", handler.AdminListTables)
			protected.POST("/tables/:id/close", handler.AdminCloseTable)
		}
	}

	r.GET("/ws/table/:tableId", wsHandler.HandleTableWS)
}

type loginBody struct {
	Address  string `json:"address" binding:"required"`
	Nickname string `json:"nickname"`
}

type updateProfileBody struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

type createTableBody struct {
	SmallBlind int `json:"smallBlind" binding:"required,min=1"`
	BigBlind   int `json:"bigBlind" binding:"required,min=2"`
	MinBuyin   int `json:"minBuyin" binding:"required,min=1"`
	MaxBuyin   int `json:"maxBuyin" binding:"required,min=1"`
	NumSeats   int `json:"numSeats" binding:"required"`
}

type joinTableBody struct {
	Seat     int  `json:"seat"`
	Buyin    int  `json:"buyin" binding:"required,min=1"`
	AutoPost bool `json:"autoPost"`
}

type leaveTableBody struct {
	Seat int `json:"seat"`
}

type rebuyBody struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount" binding:"required,min=1"`
}

type takeActionBody struct {
	ActionType string `json:"actionType" binding:"required"`
	Amount     int    `json:"amount"`
}

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminUserBanBody struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type adminSetWalletBody struct {
	Balance *int64 `json:"balance"`
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), body.Address, body.Nickname)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidAddress):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrUserBanned):
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.services.User.UpdateProfile(c.Request.Context(), userID, usersvc.UpdateProfileRequest{
		Nickname: body.Nickname,
		Avatar:   body.Avatar,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, updated)
}

func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallet, err := h.services.Wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) CreateTable(c *gin.Context) {
	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.services.Game.CreateTable(c.Request.Context(), gamesvc.CreateTableRequest{
		SmallBlind: body.SmallBlind,
		BigBlind:   body.BigBlind,
		MinBuyin:   body.MinBuyin,
		MaxBuyin:   body.MaxBuyin,
		NumSeats:   body.NumSeats,
	})
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	response.Success(c, table)
}

func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.services.Game.ListTables(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"tables": tables})
}

func (h *Handler) GetTable(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	state, err := h.services.Game.GetTable(c.Request.Context(), tableID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) JoinTable(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	userID, address, ok := getIdentity(c)
	if !ok {
		return
	}

	var body joinTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Game.Join(c.Request.Context(), tableID, userID, address, body.Seat, body.Buyin, body.AutoPost); err != nil {
		h.handleGameError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{"seat": body.Seat}, "joined")
}

func (h *Handler) LeaveTable(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	userID, address, ok := getIdentity(c)
	if !ok {
		return
	}

	var body leaveTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	payout, err := h.services.Game.Leave(c.Request.Context(), tableID, userID, address, body.Seat)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, gin.H{"payout": payout})
}

func (h *Handler) Rebuy(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	userID, address, ok := getIdentity(c)
	if !ok {
		return
	}

	var body rebuyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Game.Rebuy(c.Request.Context(), tableID, userID, address, body.Seat, body.Amount); err != nil {
		h.handleGameError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "rebuy applied")
}

func (h *Handler) TakeAction(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	_, address, ok := getIdentity(c)
	if !ok {
		return
	}

	var body takeActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Game.TakeAction(c.Request.Context(), tableID, address, body.ActionType, body.Amount); err != nil {
		h.handleGameError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "action applied")
}

func (h *Handler) GetHolecards(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	_, address, ok := getIdentity(c)
	if !ok {
		return
	}

	cards, err := h.services.Game.Holecards(c.Request.Context(), tableID, address)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, gin.H{"holecards": cards})
}

func (h *Handler) GetHandHistory(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	handIDStr := c.Param("handId")
	handID, err := strconv.Atoi(handIDStr)
	if err != nil || (handID <= 0 && handID != -1) {
		response.Error(c, http.StatusBadRequest, "invalid hand id")
		return
	}

	events, err := h.services.Game.HandHistory(c.Request.Context(), tableID, handID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, gin.H{"handId": handID, "events": events})
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case appErr.ErrAdminNotFound, appErr.ErrInvalidAdminPassword:
			status = http.StatusUnauthorized
		case appErr.ErrAdminDisabled:
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && status != "normal" && status != "banned" {
		response.Error(c, http.StatusBadRequest, "invalid status filter")
		return
	}

	result, err := h.services.User.AdminListUsers(c.Request.Context(), usersvc.AdminListUsersFilter{
		Page:           page,
		Size:           size,
		Status:         status,
		AddressKeyword: strings.TrimSpace(c.Query("address")),
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.services.User.AdminGetUser(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, gin.H{"user": user})
}

func (h *Handler) AdminBanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var body adminUserBanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.ToLower(strings.TrimSpace(body.Status))
	if status != "normal" && status != "banned" {
		response.Error(c, http.StatusBadRequest, "status must be 'normal' or 'banned'")
		return
	}

	updated, err := h.services.User.AdminUpdateUserStatus(c.Request.Context(), userID, status, body.Reason)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrUserNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, appErr.ErrInvalidUserStatus):
			statusCode = http.StatusBadRequest
		}
		response.Error(c, statusCode, err.Error())
		return
	}

	response.Success(c, gin.H{"user": updated})
}

func (h *Handler) AdminSetUserWallet(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var body adminSetWalletBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	wallet, err := h.services.Wallet.AdminSetWallet(c.Request.Context(), userID, walletsvc.AdminSetWalletRequest{
		Balance: body.Balance,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrInvalidWalletPayload) {
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) AdminListTables(c *gin.Context) {
	tables, err := h.services.Game.AdminListTables(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"tables": tables})
}

func (h *Handler) AdminCloseTable(c *gin.Context) {
	tableID, ok := parseTableID(c)
	if !ok {
		return
	}
	if err := h.services.Game.CloseTable(c.Request.Context(), tableID); err != nil {
		h.handleGameError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "table closed")
}

func (h *Handler) handleGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrTableNotFound), errors.Is(err, appErr.ErrHandNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrTableClosed):
		response.Error(c, http.StatusGone, err.Error())
	case errors.Is(err, appErr.ErrInvalidTableConfig),
		errors.Is(err, appErr.ErrInsufficientBalance),
		errors.Is(err, appErr.ErrInvalidWalletPayload),
		errors.Is(err, poker.ErrValidation):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func parseTableID(c *gin.Context) (int64, bool) {
	tableID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || tableID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return 0, false
	}
	return tableID, true
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func getIdentity(c *gin.Context) (int64, string, bool) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return 0, "", false
	}
	v, ok := c.Get(middleware.ContextAddressKey)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return 0, "", false
	}
	address, ok := v.(string)
	if !ok || address == "" {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return 0, "", false
	}
	return userID, address, true
}
