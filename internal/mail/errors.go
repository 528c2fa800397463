package mail

import (
	"fmt"
	"time"
)

// AttachmentResolutionError is returned when an attachment URI cannot be
// dereferenced into a byte stream. The whole send is aborted; partial
// attachment sets are never silently dropped.
type AttachmentResolutionError struct {
	URI   string
	Cause error
}

func (e *AttachmentResolutionError) Error() string {
	return fmt.Sprintf("resolving attachment %q: %v", e.URI, e.Cause)
}

func (e *AttachmentResolutionError) Unwrap() error { return e.Cause }

// InvalidAddressError is returned when an address token does not parse as
// an RFC 2822 mailbox.
type InvalidAddressError struct {
	Raw   string
	Cause error
}

func (e *InvalidAddressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid email address %q: %v", e.Raw, e.Cause)
	}
	return fmt.Sprintf("invalid email address %q", e.Raw)
}

func (e *InvalidAddressError) Unwrap() error { return e.Cause }

// TransportStage identifies the SMTP session phase in which a transport
// failure occurred, so callers can tell transient failures from permanent
// configuration errors.
type TransportStage string

const (
	StageConnect TransportStage = "connect"
	StageAuth    TransportStage = "auth"
	StageSend    TransportStage = "send"
)

// TransportError is returned for SMTP session failures other than
// timeouts: connection refusal, authentication failure, protocol-level
// rejection.
type TransportError struct {
	Stage TransportStage
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("smtp %s failed: %v", e.Stage, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// TransportTimeoutError is returned when the SMTP session exceeds the
// configured session timeout in any phase.
type TransportTimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *TransportTimeoutError) Error() string {
	return fmt.Sprintf("smtp session exceeded timeout of %s: %v", e.Timeout, e.Cause)
}

func (e *TransportTimeoutError) Unwrap() error { return e.Cause }
