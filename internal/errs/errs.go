package errs

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
// Branch on Kind or Code, never on Error() text.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindPrecondition        Kind = "precondition"
	KindCredentialMismatch  Kind = "credential_mismatch"
	KindCapabilityDenied    Kind = "capability_denied"
	KindWalletInactive      Kind = "wallet_inactive"
	KindNoCredentials       Kind = "no_credentials"
	KindTransport           Kind = "transport"
	KindUnsupportedImparter Kind = "unsupported_imparter"
)

// Codes narrow a Kind to the violated rule.
const (
	CodeMissingField          = "missing_field"
	CodeInvalidNetworkDetails = "invalid_network_details"
	CodeInvalidAddress        = "invalid_address"
	CodeInvalidAmount         = "invalid_amount"
	CodeNetworkNotSet         = "network_not_set"
	CodeCredentialsNotSet     = "credentials_not_set"
	CodeNotEnabled            = "not_enabled"
	CodeNoEndpoint            = "no_endpoint"
	CodePopupInFlight         = "popup_in_flight"
	CodePopupRejected         = "popup_rejected"
	CodeBadStatus             = "bad_status"
)

// Error is the structured error returned across package boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == KindTransport && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error by Kind and, when set on the target, Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func New(kind Kind, code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Newf(kind Kind, code, format string, args ...any) error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CodeOf returns the Code of a structured error, or "" if err is not one.
func CodeOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// MissingField reports an absent required input field.
func MissingField(field string) error {
	return Newf(KindValidation, CodeMissingField, "'%s' must be passed in", field)
}

// InvalidNetwork reports network details outside the supported enumeration.
func InvalidNetwork(format string, args ...any) error {
	return Newf(KindValidation, CodeInvalidNetworkDetails, format, args...)
}

// Validation reports a caller-fixable input problem.
func Validation(code, format string, args ...any) error {
	return Newf(KindValidation, code, format, args...)
}

// Precondition reports state the caller must configure before retrying.
func Precondition(code, format string, args ...any) error {
	return Newf(KindPrecondition, code, format, args...)
}

// NetworkNotSet is returned when an operation needs a network that was never selected.
func NetworkNotSet(msg string) error {
	return New(KindPrecondition, CodeNetworkNotSet, msg)
}

// CredentialMismatch hides the underlying probe failure on purpose; only the fact of
// the mismatch is reported.
func CredentialMismatch() error {
	return New(KindCredentialMismatch, "", "'secret' not valid for 'address'")
}

func WalletInactive(tag string) error {
	return Newf(KindWalletInactive, "", "imparter %s not active", tag)
}

func NoCredentials(tag string) error {
	return Newf(KindNoCredentials, "", "secret for imparter %s not set, cannot sign", tag)
}

func UnsupportedImparter(tag string) error {
	return Newf(KindUnsupportedImparter, "", "unsupported imparter tag: %s", tag)
}

// Transport wraps a failure of the fetch layer. The cause is kept for errors.Is but
// otherwise surfaced only as text.
func Transport(op string, cause error) error {
	return &Error{Kind: KindTransport, Message: op, Cause: cause}
}

// TransportStatus reports a non-2xx response.
func TransportStatus(op string, status int) error {
	return &Error{Kind: KindTransport, Code: CodeBadStatus, Message: fmt.Sprintf("%s: unexpected status %d", op, status)}
}
