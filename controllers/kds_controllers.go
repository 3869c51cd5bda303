package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
)

type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

func NewKDSController(hub *kds.Hub, allowedOrigin string) *KDSController {
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// KDSHandler -> endpoint WebSocket
func (kc *KDSController) KDSHandler(c *gin.Context) {
	role := c.GetString(middlewares.CtxRole)
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	// Validasi role
	switch role {
	case models.RoleManager, models.RoleCaptain, models.RoleCashier:
	default:
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Register dengan role
	kc.Hub.RegisterClient(ws, role)

	// Client hanya menerima; baca sampai putus
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	// Unregister saat disconnect
	kc.Hub.UnregisterClient(ws)
}
