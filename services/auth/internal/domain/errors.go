package domain

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindUserNotFound
	KindUserWithIdNotFound
	KindAccountDisabled
	KindAccountNotVerified
	KindUnauthorized
	KindSamePassword
	KindTokenExpired
	KindTokenNotFound
	KindEmailInUse
	KindUsernameInUse
	KindValidation
	KindIntegrationNotFound
	KindUpstream
)

var kindNames = map[Kind]string{
	KindInternal:           "internal error",
	KindInvalidCredentials: "invalid credentials",
	KindUserNotFound:       "user not found",
	KindUserWithIdNotFound: "user with id not found",
	KindAccountDisabled:    "account disabled",
	KindAccountNotVerified: "account not verified",
	KindUnauthorized:       "unauthorized",
	KindSamePassword:       "new password must differ from the current one",
	KindTokenExpired:       "token expired",
	KindTokenNotFound:      "token not found",
	KindEmailInUse:         "email in use",
	KindUsernameInUse:      "username in use",
	KindValidation:         "validation failed",

	KindIntegrationNotFound: "integration not connected",
	KindUpstream:            "upstream service unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error carries a kind from the closed set above. Op names the operation
// that failed and Err the underlying cause, both for logs only.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrUnauthorized)
// works however the error was wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound}
	ErrUserWithIdNotFound = &Error{Kind: KindUserWithIdNotFound}
	ErrAccountDisabled    = &Error{Kind: KindAccountDisabled}
	ErrAccountNotVerified = &Error{Kind: KindAccountNotVerified}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrSamePassword       = &Error{Kind: KindSamePassword}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired}
	ErrTokenNotFound      = &Error{Kind: KindTokenNotFound}
	ErrEmailInUse         = &Error{Kind: KindEmailInUse}
	ErrUsernameInUse      = &Error{Kind: KindUsernameInUse}
	ErrValidation         = &Error{Kind: KindValidation}

	ErrIntegrationNotFound = &Error{Kind: KindIntegrationNotFound}
)

func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns KindInternal for nil and for errors outside the taxonomy.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Actionable kinds are the domain-rule failures a user can fix; they keep
// their identity at the API boundary.
func Actionable(k Kind) bool {
	switch k {
	case KindSamePassword, KindTokenExpired, KindTokenNotFound,
		KindEmailInUse, KindUsernameInUse, KindAccountNotVerified, KindValidation:
		return true
	}
	return false
}

// Normalize maps every non-actionable failure of a session-token
// operation to Unauthorized, keeping the underlying error as the cause for logs.
// Internal failures stay internal so storage outages surface as 500.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	k := KindOf(err)
	if Actionable(k) || k == KindUnauthorized {
		return err
	}
	if k == KindInternal {
		var de *Error
		if !errors.As(err, &de) {
			return E(KindInternal, op, err)
		}
		return err
	}
	return E(KindUnauthorized, op, err)
}

func HTTPStatus(k Kind) int {
	switch k {
	case KindUnauthorized, KindInvalidCredentials, KindUserNotFound, KindAccountDisabled:
		return http.StatusUnauthorized
	case KindAccountNotVerified:
		return http.StatusForbidden
	case KindSamePassword, KindTokenExpired, KindValidation:
		return http.StatusBadRequest
	case KindTokenNotFound, KindUserWithIdNotFound, KindIntegrationNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindEmailInUse, KindUsernameInUse:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what clients see. Authentication failures all read the
// same.
func PublicMessage(k Kind) string {
	switch HTTPStatus(k) {
	case http.StatusUnauthorized:
		return KindUnauthorized.String()
	case http.StatusInternalServerError:
		return KindInternal.String()
	}
	return k.String()
}
