package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tms7331/centralized-poker/internal/service/game"
	pkgAuth "github.com/tms7331/centralized-poker/pkg/auth"
	appErr "github.com/tms7331/centralized-poker/pkg/errors"
	"github.com/tms7331/centralized-poker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler serves the per-table event stream. Subscribers all see the same
// broadcast frames; the socket also accepts act frames as a low-latency
// alternative to the REST action endpoint.
type Handler struct {
	gameSvc *game.Service
}

func NewHandler(gameSvc *game.Service) *Handler {
	return &Handler{gameSvc: gameSvc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

func (h *Handler) HandleTableWS(c *gin.Context) {
	tableIDStr := c.Param("tableId")
	tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
	if err != nil || tableID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
		return
	}

	token, err := getTokenFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	claims, err := pkgAuth.ParseUserToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	rt, err := h.gameSvc.GetRuntime(c.Request.Context(), tableID)
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrTableNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		case errors.Is(err, appErr.ErrTableClosed):
			c.JSON(http.StatusGone, gin.H{"error": "table closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load table"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.Int64("tableID", tableID),
		zap.Int64("userID", claims.SubjectID),
	)

	client := newClient(conn, claims.SubjectID, claims.Address, tableID, rt)
	client.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}

type client struct {
	conn      *websocket.Conn
	userID    int64
	address   string
	tableID   int64
	rt        *game.TableRuntime
	subID     int64
	outbound  chan game.OutgoingMessage
	done      chan struct{}
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, userID int64, address string, tableID int64, rt *game.TableRuntime) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	subID, outbound := rt.Subscribe()
	return &client{
		conn:      conn,
		userID:    userID,
		address:   address,
		tableID:   tableID,
		rt:        rt,
		subID:     subID,
		outbound:  outbound,
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// readPump accepts ping keepalives and act frames; everything else arriving
// on the socket is ignored.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.rt.Unsubscribe(c.subID)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.Int64("userID", c.userID), zap.Int64("tableID", c.tableID))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string `json:"type"`
			Data struct {
				ActionType string `json:"actionType"`
				Amount     int    `json:"amount"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.reply(game.OutgoingMessage{
				Type: "error",
				Data: gin.H{"message": "invalid payload"},
			})
			continue
		}

		switch incoming.Type {
		case "ping":
			c.reply(game.OutgoingMessage{Type: "pong"})
		case "act":
			if err := c.rt.HandleAction(c.address, incoming.Data.ActionType, incoming.Data.Amount); err != nil {
				c.reply(game.OutgoingMessage{
					Type: "error",
					Data: gin.H{"message": fmt.Sprintf("action failed: %v", err)},
				})
			}
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.Int64("userID", c.userID), zap.Int64("tableID", c.tableID))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// reply hands a frame to the write pump. writePump is the only goroutine
// allowed to write the connection, so replies join the broadcast queue
// instead of touching the socket from the read side. A full queue drops the
// reply rather than block the read loop.
func (c *client) reply(msg game.OutgoingMessage) {
	select {
	case c.outbound <- msg:
	default:
		logger.Log.Warn("WS outbound queue full, reply dropped",
			zap.Int64("userID", c.userID), zap.Int64("tableID", c.tableID))
	}
}
