package request

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nbenali/skillswap/internal/auth"
	"github.com/nbenali/skillswap/pkg/httputil"
)

type Handler struct {
	service   *Service
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(service *Service, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{service, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", httputil.Handler(h.HandleCreate, h.log))
	r.Get("/my", httputil.Handler(h.HandleListMine, h.log))
	r.Get("/{requestID}", httputil.Handler(h.HandleGet, h.log))
	r.Patch("/{requestID}/status", httputil.Handler(h.HandleUpdateStatus, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleCreate opens a new exchange request against a skill
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	payload := new(CreateRequestPayload)
	if err := httputil.DecodeJSON(r, payload); err != nil {
		return err
	}

	if payload.SkillID == uuid.Nil {
		return httputil.BadRequest("skillId is required")
	}

	h.log.Debug("create request received",
		"skill_id", payload.SkillID,
		"requester_id", userID)

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	req, err := h.service.Create(ctx, payload.SkillID, userID, payload.Message)
	if err != nil {
		return h.mapServiceError(err)
	}

	h.log.Info("request created",
		"request_id", req.ID,
		"skill_id", req.SkillID,
		"requester_id", req.RequesterID,
		"provider_id", req.ProviderID)

	return httputil.RespondJSON(w, http.StatusCreated, req)
}

// HandleListMine lists the authenticated user's requests with optional
// status and role filters
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	filter := Filter{}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = Status(status)
		if !filter.Status.Valid() {
			return httputil.BadRequest("Invalid status filter")
		}
	}

	switch role := r.URL.Query().Get("role"); role {
	case "":
	case string(RoleRequester), string(RoleProvider):
		filter.Role = Role(role)
	default:
		return httputil.BadRequest("Invalid role filter, use asRequester or asProvider")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	requests, err := h.service.ListMine(ctx, userID, filter)
	if err != nil {
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, requests)
}

// HandleGet returns one request, access-guarded
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	requestID, err := httputil.ParseUUID(r, "requestID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.guardAccess(ctx, requestID, userID); err != nil {
		return err
	}

	req, err := h.service.Get(ctx, requestID, userID)
	if err != nil {
		return h.mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, req)
}

// HandleUpdateStatus applies one transition of the state machine
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	requestID, err := httputil.ParseUUID(r, "requestID")
	if err != nil {
		return err
	}

	payload := new(UpdateStatusPayload)
	if err := httputil.DecodeJSON(r, payload); err != nil {
		return err
	}

	if !payload.Status.Valid() {
		return httputil.BadRequest("Invalid status value")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.guardAccess(ctx, requestID, userID); err != nil {
		return err
	}

	req, err := h.service.UpdateStatus(ctx, requestID, userID, payload.Status)
	if err != nil {
		return h.mapServiceError(err)
	}

	h.log.Info("request status updated",
		"request_id", req.ID,
		"status", req.Status,
		"actor_id", userID)

	return httputil.RespondJSON(w, http.StatusOK, req)
}

// guardAccess is the request-access guard: participants only, before
// the handler body runs
func (h *Handler) guardAccess(ctx context.Context, requestID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return httputil.Forbidden("Utilisateur non authentifié")
	}

	ok, err := h.service.CanAccess(ctx, requestID, userID)
	if err != nil {
		return httputil.Internal(err)
	}
	if !ok {
		return httputil.Forbidden("Vous n'avez pas accès à cette demande")
	}

	return nil
}

// mapServiceError translates domain errors into HTTP ones
func (h *Handler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrSkillNotFound):
		return httputil.NotFound("Compétence non trouvée")
	case errors.Is(err, ErrRequestNotFound):
		return httputil.NotFound("Demande non trouvée")
	case errors.Is(err, ErrSkillWithoutOwner):
		return httputil.BadRequest("Cette compétence n'a pas de propriétaire")
	case errors.Is(err, ErrSelfRequest):
		return httputil.BadRequest("Vous ne pouvez pas demander votre propre compétence")
	case errors.Is(err, ErrDuplicatePending):
		return httputil.BadRequest("Vous avez déjà une demande en attente pour cette compétence")
	case errors.Is(err, ErrInvalidTransition):
		return httputil.BadRequest("Transition de statut invalide")
	case errors.Is(err, ErrNotParticipant):
		return httputil.Forbidden("Vous n'avez pas accès à cette demande")
	case errors.Is(err, ErrProviderOnly):
		return httputil.Forbidden("Seul le fournisseur peut accepter ou rejeter une demande")
	case errors.Is(err, ErrRequesterOnly):
		return httputil.Forbidden("Seul le demandeur peut annuler une demande en attente")
	default:
		return httputil.Internal(err)
	}
}
