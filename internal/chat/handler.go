package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/nbenali/skillswap/internal/auth"
	"github.com/nbenali/skillswap/internal/user"
)

const handshakeTimeout = 5 * time.Second

// Handler upgrades HTTP requests to gateway sockets. Authentication
// happens right after the upgrade: a bad token gets an Error frame and
// a closed connection, mirroring what clients expect from a rejected
// handshake.
type Handler struct {
	gateway  *Gateway
	authSvc  *auth.Service
	users    user.Store
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(gateway *Gateway, authSvc *auth.Service, users user.Store, log *slog.Logger) *Handler {
	return &Handler{
		gateway: gateway,
		authSvc: authSvc,
		users:   users,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser clients are served from another origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleConnection)
}

// HandleConnection upgrades the request and runs the handshake
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	token := bearerToken(r)
	if token == "" {
		h.reject(conn, "missing token")
		return
	}

	claims, err := h.authSvc.ValidateAccessToken(token)
	if err != nil {
		h.reject(conn, "invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	// The token may outlive the account; the directory decides
	u, err := h.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		h.reject(conn, "unknown user")
		return
	}

	client := newWSClient(conn, u.ID, h.gateway, h.log)

	go client.writePump()

	if err := h.gateway.Register(ctx, client); err != nil {
		h.log.Error("failed to register socket",
			"user_id", u.ID,
			"error", err)
		h.gateway.Disconnect(client)
		client.Close()
		return
	}

	go client.readPump()
}

// reject tells the peer why before closing. Best effort, the peer may
// already be gone.
func (h *Handler) reject(conn *websocket.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(OutboundFrame{
		Event: EventError,
		Data:  map[string]string{"message": "unauthorized: " + reason},
	})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
	conn.Close()

	h.log.Warn("socket handshake rejected", "reason", reason)
}

// bearerToken pulls the access token from the Authorization header or,
// for browser websocket clients that cannot set headers, the token
// query parameter
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}

	return r.URL.Query().Get("token")
}
