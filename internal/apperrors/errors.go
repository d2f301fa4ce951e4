package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates that the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("state conflict")

// Kind is a stable, machine readable identifier for a failure. Operator UIs
// switch on Kind, never on Message.
type Kind string

const (
	KindInternal            Kind = "INTERNAL"
	KindNotFound            Kind = "NOT_FOUND"
	KindValidation          Kind = "VALIDATION_FAILED"
	KindForbidden           Kind = "FORBIDDEN"
	KindDuplicate           Kind = "DUPLICATE"
	KindGroupFull           Kind = "GROUP_FULL"
	KindAlreadyMember       Kind = "ALREADY_MEMBER"
	KindGroupNotOpen        Kind = "GROUP_NOT_OPEN"
	KindNotOpenForLeaving   Kind = "NOT_OPEN_FOR_LEAVING"
	KindNotAMember          Kind = "NOT_A_MEMBER"
	KindNotRemoved          Kind = "NOT_REMOVED"
	KindAlreadyRemoved      Kind = "MEMBER_ALREADY_REMOVED"
	KindNotInRotation       Kind = "MEMBER_NOT_IN_ROTATION"
	KindInsufficientMembers Kind = "INSUFFICIENT_MEMBERS"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindGroupFrozen         Kind = "GROUP_FROZEN"
	KindGroupNotActive      Kind = "GROUP_NOT_ACTIVE"
	KindRoundClosed         Kind = "ROUND_CLOSED"
	KindRoundNotCurrent     Kind = "ROUND_NOT_CURRENT"
	KindAmountMismatch      Kind = "AMOUNT_MISMATCH"
	KindDuplicateContrib    Kind = "DUPLICATE_CONTRIBUTION"
	KindMemberNotActive     Kind = "MEMBER_NOT_ACTIVE"
	KindNoActiveRound       Kind = "NO_ACTIVE_ROUND"
	KindRoundNotFunded      Kind = "ROUND_NOT_FUNDED"
	KindLedgerReleaseFailed Kind = "LEDGER_RELEASE_FAILED"
	KindVersionConflict     Kind = "VERSION_CONFLICT"
	KindGroupBusy           Kind = "GROUP_BUSY"
)

// statusByKind maps each kind to the HTTP status the API answers with.
var statusByKind = map[Kind]int{
	KindInternal:            http.StatusInternalServerError,
	KindNotFound:            http.StatusNotFound,
	KindValidation:          http.StatusBadRequest,
	KindForbidden:           http.StatusForbidden,
	KindDuplicate:           http.StatusConflict,
	KindGroupFull:           http.StatusConflict,
	KindAlreadyMember:       http.StatusConflict,
	KindGroupNotOpen:        http.StatusConflict,
	KindNotOpenForLeaving:   http.StatusConflict,
	KindNotAMember:          http.StatusNotFound,
	KindNotRemoved:          http.StatusConflict,
	KindAlreadyRemoved:      http.StatusConflict,
	KindNotInRotation:       http.StatusConflict,
	KindInsufficientMembers: http.StatusUnprocessableEntity,
	KindInvalidTransition:   http.StatusConflict,
	KindGroupFrozen:         http.StatusConflict,
	KindGroupNotActive:      http.StatusConflict,
	KindRoundClosed:         http.StatusConflict,
	KindRoundNotCurrent:     http.StatusConflict,
	KindAmountMismatch:      http.StatusBadRequest,
	KindDuplicateContrib:    http.StatusConflict,
	KindMemberNotActive:     http.StatusConflict,
	KindNoActiveRound:       http.StatusConflict,
	KindRoundNotFunded:      http.StatusConflict,
	KindLedgerReleaseFailed: http.StatusBadGateway,
	KindVersionConflict:     http.StatusConflict,
	KindGroupBusy:           http.StatusServiceUnavailable,
}

// AppError is the error type returned across service boundaries.
type AppError struct {
	Kind    Kind
	Code    int // HTTP status
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *AppError of the same Kind, so
// errors.Is(err, apperrors.ErrGroupFull) works for wrapped errors.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New creates an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Code: StatusForKind(kind), Message: message}
}

// Newf creates an AppError of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *AppError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates an AppError of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: StatusForKind(kind), Message: message, Err: err}
}

// NewAppError creates an internal error carrying an explicit HTTP status.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a not-found error that also matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return Wrap(KindNotFound, message, ErrNotFound)
}

// NewValidationFailedError creates a validation error that also matches ErrValidation.
func NewValidationFailedError(message string) *AppError {
	return Wrap(KindValidation, message, ErrValidation)
}

// NewConflictError creates a duplicate error that also matches ErrDuplicate.
func NewConflictError(message string) *AppError {
	return Wrap(KindDuplicate, message, ErrDuplicate)
}

// NewVersionConflictError signals a lost optimistic concurrency race.
func NewVersionConflictError(resourceID string, version int64) *AppError {
	return Wrap(KindVersionConflict, fmt.Sprintf("%s was modified concurrently (expected version %d)", resourceID, version), ErrConflict)
}

// StatusForKind returns the HTTP status for a kind, 500 for unknown kinds.
func StatusForKind(kind Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// KindOf extracts the Kind of err, mapping the plain sentinels as well.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	}
	return KindInternal
}

// StatusOf returns the HTTP status to answer err with.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return StatusForKind(KindOf(err))
}

// MessageOf returns the user visible message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	if k := KindOf(err); k != KindInternal {
		return err.Error()
	}
	return "internal server error"
}

// Engine errors. Compare with errors.Is; each carries its own Kind.
var (
	ErrGroupFull             = New(KindGroupFull, "group has reached its member capacity")
	ErrAlreadyMember         = New(KindAlreadyMember, "user is already an active member of this group")
	ErrGroupNotOpen          = New(KindGroupNotOpen, "group is not open for joining")
	ErrNotOpenForLeaving     = New(KindNotOpenForLeaving, "members cannot leave once the rotation has started")
	ErrNotAMember            = New(KindNotAMember, "user is not a member of this group")
	ErrNotRemoved            = New(KindNotRemoved, "member is not removed")
	ErrAlreadyRemoved        = New(KindAlreadyRemoved, "member is already removed")
	ErrNotInRotation         = New(KindNotInRotation, "member has no payout position in the current rotation")
	ErrInsufficientMembers   = New(KindInsufficientMembers, "not enough members to activate the group")
	ErrInvalidTransition     = New(KindInvalidTransition, "transition is not allowed from the current status")
	ErrGroupFrozen           = New(KindGroupFrozen, "group is frozen")
	ErrGroupNotActive        = New(KindGroupNotActive, "group is not active")
	ErrRoundClosed           = New(KindRoundClosed, "round is closed for contributions")
	ErrRoundNotCurrent       = New(KindRoundNotCurrent, "round is not the current round")
	ErrAmountMismatch        = New(KindAmountMismatch, "amount must equal the group contribution amount")
	ErrDuplicateContribution = New(KindDuplicateContrib, "member already contributed to this round")
	ErrMemberNotActive       = New(KindMemberNotActive, "member is not active")
	ErrNoActiveRound         = New(KindNoActiveRound, "group has no active round")
	ErrRoundNotFunded        = New(KindRoundNotFunded, "round is not fully funded")
	ErrLedgerReleaseFailed   = New(KindLedgerReleaseFailed, "ledger release failed")
	ErrVersionConflict       = New(KindVersionConflict, "resource was modified concurrently")
	ErrGroupBusy             = New(KindGroupBusy, "group is locked by another operation")
)
