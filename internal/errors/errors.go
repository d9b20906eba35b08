// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP and CLI boundaries.
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindNotFound         Kind = "not_found"
	KindAuthorization    Kind = "authorization"
	KindValidation       Kind = "validation"
	KindChainInteraction Kind = "chain_interaction"
	KindPersistence      Kind = "persistence"
	KindInternal         Kind = "internal"
)

// Error carries a Kind plus the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so callers can write
// errors.Is(err, appErrors.ErrValidation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrAuthorization    = &Error{Kind: KindAuthorization}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrChainInteraction = &Error{Kind: KindChainInteraction}
	ErrPersistence      = &Error{Kind: KindPersistence}
)

func newError(kind Kind, op string, err error, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

func Configuration(op, format string, args ...any) error {
	return newError(KindConfiguration, op, nil, format, args...)
}

func Validation(op, format string, args ...any) error {
	return newError(KindValidation, op, nil, format, args...)
}

func Authorization(op, format string, args ...any) error {
	return newError(KindAuthorization, op, nil, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newError(KindNotFound, op, nil, format, args...)
}

// ChainInteraction wraps a wallet, RPC or receipt failure.
func ChainInteraction(op string, err error, format string, args ...any) error {
	return newError(KindChainInteraction, op, err, format, args...)
}

// Persistence wraps a database or record-store write failure.
func Persistence(op string, err error, format string, args ...any) error {
	return newError(KindPersistence, op, err, format, args...)
}

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
	Slug       string
}

func (e *ErrCampaignNotFound) Error() string {
	if e.Slug != "" {
		return fmt.Sprintf("campaign with slug %q not found", e.Slug)
	}
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func (e *ErrCampaignNotFound) Is(target error) bool {
	return target == ErrNotFound
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

func NewCampaignSlugNotFound(slug string) error {
	return &ErrCampaignNotFound{Slug: slug}
}

// KindOf reports the Kind of err, KindInternal when err is not classified.
func KindOf(err error) Kind {
	var notFound *ErrCampaignNotFound
	if errors.As(err, &notFound) {
		return KindNotFound
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code returned by the API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindChainInteraction:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to API clients. Unclassified errors are
// reported generically.
func PublicMessage(err error) string {
	var notFound *ErrCampaignNotFound
	if errors.As(err, &notFound) {
		return "Campaign not found"
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
