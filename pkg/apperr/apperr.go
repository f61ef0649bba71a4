package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the caller-facing classification of a failure.
type Kind string

const (
	KindLaunchFailure       Kind = "launch_failure"
	KindNavigationTimeout   Kind = "navigation_timeout"
	KindInteractionFailure  Kind = "interaction_failure"
	KindExtractionExhausted Kind = "extraction_exhausted"
	KindUnexpectedFailure   Kind = "unexpected_failure"

	// Front end only.
	KindInvalidArgument Kind = "invalid_argument"
	KindUnauthorized    Kind = "unauthorized"
	KindRateLimited     Kind = "rate_limited"
	KindUnavailable     Kind = "unavailable"
)

const (
	MetaReason    = "reason"
	MetaStage     = "stage"
	MetaField     = "field"
	MetaSelector  = "selector"
	MetaURL       = "url"
	MetaAttempt   = "attempt"
	MetaRequestID = "request_id"

	StageLaunch     = "launch"
	StageNavigation = "navigation"
	StageSubmission = "submission"
	StageSettle     = "settle"
	StageExtraction = "extraction"
	StageTeardown   = "teardown"
)

var retrievalKinds = map[Kind]struct{}{
	KindLaunchFailure:       {},
	KindNavigationTimeout:   {},
	KindInteractionFailure:  {},
	KindExtractionExhausted: {},
	KindUnexpectedFailure:   {},
}

type Error struct {
	Op       string
	Kind     Kind
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the detail shown to callers: the underlying cause without the op prefix.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return string(e.Kind)
}

func Wrap(op string, kind Kind, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Kind:     kind,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op string, kind Kind, err error, reason string) error {
	return Wrap(op, kind, err, map[string]any{
		MetaReason: reason,
	})
}

func New(op string, kind Kind, message string) error {
	return Wrap(op, kind, errors.New(message), nil)
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, KindInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// KindOf reports the classification of err. Unclassified errors are unexpected failures.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok && appErr.Kind != "" {
		return appErr.Kind
	}

	return KindUnexpectedFailure
}

// IsRetrievalKind reports whether k belongs to the retrieval taxonomy.
func IsRetrievalKind(k Kind) bool {
	_, ok := retrievalKinds[k]
	return ok
}

func HTTPStatus(k Kind) int {
	switch k {
	case KindNavigationTimeout:
		return http.StatusGatewayTimeout
	case KindExtractionExhausted:
		return http.StatusBadGateway
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
