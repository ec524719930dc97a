package generation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthorizationRevoked signals that the generation credential is no longer
// valid. The pipeline treats this differently from an ordinary stage failure:
// it resets to idle and asks the caller to reauthorize instead of failing the
// run.
var ErrAuthorizationRevoked = errors.New("authorization revoked")

// Error represents a failure from a generation stage.
type Error struct {
	Stage   string // stage key: "sources", "report", "memo"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s stage failed: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// revocationPhrases are the known provider error fragments that mean the
// credential was deleted or rejected, rather than a transient failure.
var revocationPhrases = []string{
	"entity was not found",
	"api key not valid",
	"api_key_invalid",
	"api key expired",
}

// IsAuthorizationRevoked reports whether err is the credential-revocation
// class of generation failure, either by sentinel or by known provider
// phrase.
func IsAuthorizationRevoked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthorizationRevoked) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range revocationPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// wrap classifies a provider error for a stage, upgrading revocation-class
// failures to the sentinel so callers can match with errors.Is.
func wrap(stage, message string, cause error) error {
	if IsAuthorizationRevoked(cause) {
		return &Error{Stage: stage, Message: message, Cause: fmt.Errorf("%w: %v", ErrAuthorizationRevoked, cause)}
	}
	return &Error{Stage: stage, Message: message, Cause: cause}
}
