package realtime

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"profinder/internal/domain"
	"profinder/internal/pkg/jwt"
	"profinder/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// sessions are authenticated by token, not by origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
}

func NewHandler(hub *Hub, jwtService *jwt.Service) *Handler {
	return &Handler{hub: hub, jwtService: jwtService}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", h.ServeWS)
}

// ServeWS upgrades an authenticated request.
//
// Endpoint: GET /ws?token=JWT_TOKEN
//
// Browsers cannot set headers on a WebSocket handshake, so the token travels in the query.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil || !domain.UserRole(claims.Role).Valid() {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("realtime_upgrade_failed user_id=%d error=%q", claims.UserID, err.Error())
		return
	}

	log.Printf("realtime_connected user_id=%d role=%s", claims.UserID, claims.Role)
	h.hub.Serve(conn, claims.UserID, domain.UserRole(claims.Role))
	log.Printf("realtime_disconnected user_id=%d", claims.UserID)
}
