package request

import "errors"

// Domain errors of the state machine. Handlers map them onto HTTP
// statuses; the Forbidden group is distinct from the BadRequest group
// so "wrong actor for a real transition" never degrades into "no such
// transition".
var (
	// not found
	ErrSkillNotFound   = errors.New("skill not found")
	ErrRequestNotFound = errors.New("request not found")

	// bad request
	ErrSkillWithoutOwner = errors.New("skill has no owner")
	ErrSelfRequest       = errors.New("cannot request own skill")
	ErrDuplicatePending  = errors.New("pending request already exists for this skill")
	ErrInvalidTransition = errors.New("invalid status transition")

	// forbidden
	ErrNotParticipant = errors.New("user is not a participant of this request")
	ErrProviderOnly   = errors.New("only the provider may accept or reject a request")
	ErrRequesterOnly  = errors.New("only the requester may cancel a pending request")
)
