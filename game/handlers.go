package game

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
)

type websocketConnection struct {
	socket *websocket.Conn
}

func (wc *websocketConnection) Write(data []byte) error {
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteMessage(websocket.PingMessage, nil)
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConnection) Close(reason string) {
	wc.socket.SetWriteDeadline(time.Now().Add(time.Second * 20))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	wc.socket.Close()
}

func NewWebsocketConnection(conn *websocket.Conn) *websocketConnection {
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return &websocketConnection{conn}
}

// Handler exposes the hub over HTTP: the websocket entry point plus a few
// read-only REST endpoints.
type Handler struct {
	hub         *Hub
	checkOrigin func(r *http.Request) bool
}

func NewHandler(hub *Hub, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{hub: hub, checkOrigin: checkOrigin}
}

func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/ws", h.WebsocketHandler)
	engine.GET("/health", h.HealthHandler)
	engine.GET("/api/reports", h.ListReportsHandler)
	engine.GET("/api/players", h.ListPlayersHandler)
}

func (h *Handler) WebsocketHandler(ctx *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("WS upgrade failed: %v", err)
		return
	}

	ServeSession(h.hub, NewWebsocketConnection(conn))
}

func (h *Handler) HealthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListReportsHandler(ctx *gin.Context) {
	reports := h.hub.SnapshotReports(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

func (h *Handler) ListPlayersHandler(ctx *gin.Context) {
	players := h.hub.SnapshotPlayers(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{"players": players, "count": len(players)})
}
