package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core matches exactly one of these
// through errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrRoleMismatch           = errors.New("role mismatch")
	ErrInvalidInput           = errors.New("invalid input")
	ErrRegistrationInProgress = errors.New("registration in progress")
	ErrRoleConflict           = errors.New("role conflict")
	ErrSelfDealing            = errors.New("self dealing")
	ErrStateConflict          = errors.New("state conflict")
	ErrUnavailable            = errors.New("store unavailable")
)

// Error pairs an error kind with the message relayed to the caller verbatim.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewError returns an *Error of the given kind.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrActorNotFound    = NewError(ErrNotFound, "user not found")
	ErrModelNotFound    = NewError(ErrNotFound, "model not found or not registered as model")
	ErrSessionNotFound  = NewError(ErrNotFound, "session not found")
	ErrEscrowNotFound   = NewError(ErrNotFound, "escrow record not found")
	ErrContentNotFound  = NewError(ErrNotFound, "content not found or inactive")
	ErrPurchaseNotFound = NewError(ErrNotFound, "purchase not found")

	ErrInvalidAmount      = NewError(ErrInvalidInput, "amount must be a positive number")
	ErrInvalidEmail       = NewError(ErrInvalidInput, "that doesn't look like a valid email")
	ErrInvalidDisplayName = NewError(ErrInvalidInput, "display name is too short")
	ErrInvalidRole        = NewError(ErrInvalidInput, "role must be client or model")
	ErrEmptyReason        = NewError(ErrInvalidInput, "a dispute reason is required")
	ErrEmptyTitle         = NewError(ErrInvalidInput, "content title is required")
	ErrEmptyContentType   = NewError(ErrInvalidInput, "content type is required")
	ErrEmptySessionType   = NewError(ErrInvalidInput, "session type is required")

	ErrNotAdmin          = NewError(ErrRoleMismatch, "admin access required")
	ErrNotParticipant    = NewError(ErrRoleMismatch, "only participants can access this session")
	ErrRoleNotCommitted  = NewError(ErrRoleMismatch, "finish registration before switching roles")
	ErrNotContentOwner   = NewError(ErrRoleMismatch, "only the owner can change this content")
	ErrAlreadyRegistered = NewError(ErrRoleConflict, "you already registered in another role")
	ErrSameActor         = NewError(ErrSelfDealing, "you cannot book a session with yourself")
	ErrPendingOnboarding = NewError(ErrRegistrationInProgress, "please finish registration before using commands")
	ErrConcurrentUpdate  = NewError(ErrStateConflict, "the record was changed concurrently, try again")
	ErrRequestInFlight   = NewError(ErrStateConflict, "a request with this idempotency key is still being processed")
)

// RoleRequired returns the RoleMismatch error for a caller lacking role r.
func RoleRequired(r Role) error {
	return NewError(ErrRoleMismatch, string(r)+" access required")
}

// OnlyModelCan returns the RoleMismatch error for a session action reserved to
// the session's model.
func OnlyModelCan(action string) error {
	return NewError(ErrRoleMismatch, "only the model can "+action+" the session")
}

// SessionStateError reports that a session in status current does not allow action.
func SessionStateError(action string, current SessionStatus) error {
	return NewError(ErrStateConflict, fmt.Sprintf("cannot %s session in status %s", action, current))
}

// EscrowStateError reports that an escrow in status current does not allow action.
func EscrowStateError(action string, current EscrowStatus) error {
	return NewError(ErrStateConflict, fmt.Sprintf("cannot %s escrow in status %s", action, current))
}
