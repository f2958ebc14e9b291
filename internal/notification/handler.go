package notification

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nbenali/skillswap/internal/auth"
	"github.com/nbenali/skillswap/pkg/httputil"
)

type Handler struct {
	store     Store
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(store Store, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", httputil.Handler(h.HandleList, h.log))
	r.Get("/unread-count", httputil.Handler(h.HandleUnreadCount, h.log))
	r.Patch("/{notificationID}/read", httputil.Handler(h.HandleMarkRead, h.log))
	r.Patch("/read-all", httputil.Handler(h.HandleMarkAllRead, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleList returns the newest notifications for the authenticated user
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	notifications, err := h.store.ListForUser(ctx, userID)
	if err != nil {
		h.log.Error("failed to list notifications",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, notifications)
}

// HandleUnreadCount returns the unread badge count
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	count, err := h.store.CountUnread(ctx, userID)
	if err != nil {
		h.log.Error("failed to count unread notifications",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

// HandleMarkRead marks one notification as read
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	notificationID, err := httputil.ParseUUID(r, "notificationID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.store.MarkRead(ctx, notificationID); err != nil {
		h.log.Warn("failed to mark notification read",
			"notification_id", notificationID,
			"user_id", userID,
			"error", err)
		return httputil.NotFound("Notification not found")
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// HandleMarkAllRead marks every notification of the user as read
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.store.MarkAllRead(ctx, userID); err != nil {
		h.log.Error("failed to mark notifications read",
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
