package auth

import "errors"

// Reason identifies why a token was rejected. The value is safe to use as a
// log field or metric label; it must not be sent to clients.
type Reason string

const (
	ReasonMalformed            Reason = "malformed_token"
	ReasonUnsupportedAlgorithm Reason = "unsupported_algorithm"
	ReasonBadSignature         Reason = "bad_signature"
	ReasonExpired              Reason = "expired"
	ReasonMissingSubject       Reason = "missing_subject"
)

// ErrTokenRejected matches every rejection returned by Codec.Resolve.
var ErrTokenRejected = errors.New("token rejected")

// Rejection is the only error type Codec.Resolve returns.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string {
	return "token rejected: " + string(r.Reason)
}

// Is makes every Rejection match ErrTokenRejected.
func (r *Rejection) Is(target error) bool {
	return target == ErrTokenRejected
}

// The closed rejection taxonomy.
var (
	ErrMalformedToken       error = &Rejection{Reason: ReasonMalformed}
	ErrUnsupportedAlgorithm error = &Rejection{Reason: ReasonUnsupportedAlgorithm}
	ErrBadSignature         error = &Rejection{Reason: ReasonBadSignature}
	ErrExpired              error = &Rejection{Reason: ReasonExpired}
	ErrMissingSubject       error = &Rejection{Reason: ReasonMissingSubject}
)

// ErrEmptySecret is returned by NewCodec when no signing secret is given.
var ErrEmptySecret = errors.New("empty signing secret")

// ReasonOf extracts the rejection reason from err, or "" when err is not a
// token rejection.
func ReasonOf(err error) Reason {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	return ""
}
