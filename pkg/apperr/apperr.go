package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of an application error
// ⭐ SSOT: 에러 분류 → HTTP 상태 매핑은 여기서만
type Kind uint

const (
	KindInternal    Kind = iota // 500, 상세 내용은 로그에만
	KindInput                   // 400
	KindAuth                    // 401
	KindNotFound                // 404
	KindRateLimit               // 429
	KindUnavailable             // 외부 API 장애, 보통 degrade 처리
	KindPersistence             // 저장소 장애, 보통 degrade 처리
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "Input"
	case KindAuth:
		return "Auth"
	case KindNotFound:
		return "NotFound"
	case KindRateLimit:
		return "RateLimit"
	case KindUnavailable:
		return "Unavailable"
	case KindPersistence:
		return "Persistence"
	default:
		return "Internal"
	}
}

// Error is an error with a client-facing message and an internal cause
type Error struct {
	Kind    Kind
	Message string // 클라이언트에 노출되는 메시지
	Details string // 선택적 부가 설명
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the kind to a response status
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInput:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetails returns a copy of e with details attached
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Input is shorthand for a 400 error
func Input(message string) *Error { return New(KindInput, message) }

// Auth is shorthand for a 401 error
func Auth(message string) *Error { return New(KindAuth, message) }

// Internal wraps an unexpected failure
func Internal(message string, cause error) *Error { return Wrap(KindInternal, message, cause) }

// As extracts an *Error from err
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of kind k
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}
