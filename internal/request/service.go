package request

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nbenali/skillswap/internal/notification"
	"github.com/nbenali/skillswap/internal/skill"
)

// Notification copy, keyed by the new status. User-facing strings stay
// in French to match the rest of the product.
var statusNotificationTitle = map[Status]string{
	StatusAccepted:  "Demande acceptée",
	StatusRejected:  "Demande rejetée",
	StatusCompleted: "Demande complétée",
	StatusCancelled: "Demande annulée",
}

var statusNotificationBody = map[Status]string{
	StatusAccepted:  "Votre demande d'échange a été acceptée",
	StatusRejected:  "Votre demande d'échange a été rejetée",
	StatusCompleted: "L'échange a été marqué comme complété",
	StatusCancelled: "La demande d'échange a été annulée",
}

const (
	newRequestTitle = "Nouvelle demande"
	newRequestBody  = "Vous avez reçu une nouvelle demande d'échange"
)

// Service is the exchange-request state machine. All status mutations
// go through UpdateStatus; notifications are a best-effort side effect
// and never fail the operation.
type Service struct {
	requests Store
	skills   skill.Store
	notifier notification.Notifier
	log      *slog.Logger
}

func NewService(requests Store, skills skill.Store, notifier notification.Notifier, log *slog.Logger) *Service {
	return &Service{
		requests: requests,
		skills:   skills,
		notifier: notifier,
		log:      log,
	}
}

// Create opens a PENDING request against a skill listing. The provider
// is the skill's owner at this moment; a later ownership change does
// not move the request.
func (s *Service) Create(ctx context.Context, skillID, requesterID uuid.UUID, message string) (*ExchangeRequest, error) {
	sk, err := s.skills.GetSkillByID(ctx, skillID)
	if err != nil {
		if errors.Is(err, skill.ErrNotFound) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}

	if sk.OwnerID == uuid.Nil {
		return nil, ErrSkillWithoutOwner
	}

	// Owner-based self check; the skill id is never compared to the user id
	if sk.OwnerID == requesterID {
		return nil, ErrSelfRequest
	}

	pending, err := s.requests.HasPendingRequest(ctx, skillID, requesterID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	req := &ExchangeRequest{
		SkillID:     skillID,
		RequesterID: requesterID,
		ProviderID:  sk.OwnerID,
		Message:     message,
		Status:      StatusPending,
	}

	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.notify(ctx, req.ProviderID, newRequestTitle, newRequestBody, req.ID)

	return req, nil
}

// Get returns a request, restricted to its participants
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*ExchangeRequest, error) {
	req, err := s.requests.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RequesterID != userID && req.ProviderID != userID {
		return nil, ErrNotParticipant
	}

	return req, nil
}

// ListMine lists requests where the user participates, optionally
// narrowed by role and status
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, filter Filter) ([]*ExchangeRequest, error) {
	return s.requests.ListRequestsForUser(ctx, userID, filter)
}

// UpdateStatus moves a request along the transition table and notifies
// the other participant
func (s *Service) UpdateStatus(ctx context.Context, id, userID uuid.UUID, newStatus Status) (*ExchangeRequest, error) {
	req, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := validateStatusTransition(req, userID, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.requests.UpdateRequestStatus(ctx, id, newStatus)
	if err != nil {
		return nil, err
	}

	other := req.RequesterID
	if userID == req.RequesterID {
		other = req.ProviderID
	}
	s.notify(ctx, other, statusNotificationTitle[newStatus], statusNotificationBody[newStatus], updated.ID)

	return updated, nil
}

// CanAccess reports whether the user is a participant of the request.
// A missing request is simply "no access", not an error.
func (s *Service) CanAccess(ctx context.Context, requestID, userID uuid.UUID) (bool, error) {
	req, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return false, nil
		}
		return false, err
	}

	return req.RequesterID == userID || req.ProviderID == userID, nil
}

// validateStatusTransition enforces the role-gated transition table.
// A wrong actor on a real transition is a forbidden error; a pair
// outside the table is an invalid transition.
func validateStatusTransition(req *ExchangeRequest, userID uuid.UUID, newStatus Status) error {
	isRequester := req.RequesterID == userID
	isProvider := req.ProviderID == userID

	if req.Status == StatusPending && (newStatus == StatusAccepted || newStatus == StatusRejected) {
		if !isProvider {
			return ErrProviderOnly
		}
		return nil
	}

	if req.Status == StatusPending && newStatus == StatusCancelled {
		if !isRequester {
			return ErrRequesterOnly
		}
		return nil
	}

	if req.Status == StatusAccepted && newStatus == StatusCompleted {
		if !isRequester && !isProvider {
			return ErrNotParticipant
		}
		return nil
	}

	return ErrInvalidTransition
}

// notify delivers best-effort; failures are logged and swallowed
func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, body string, requestID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, title, body, &requestID); err != nil {
		s.log.Warn("failed to deliver notification",
			"user_id", userID,
			"request_id", requestID,
			"error", err)
	}
}
