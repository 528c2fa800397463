// Package mail implements the email composition and delivery pipeline:
// attachment resolution, multipart message assembly and single-shot SMTP
// transport. Each send is independent and stateless; configuration is
// supplied per call and nothing is cached across sends.
package mail

import (
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
)

// TransportStrategy selects the connection-security mode for the SMTP
// session.
type TransportStrategy string

const (
	// StrategyPlain connects without TLS.
	StrategyPlain TransportStrategy = "plain"
	// StrategyStartTLS upgrades the connection with a mandatory STARTTLS.
	StrategyStartTLS TransportStrategy = "starttls"
	// StrategySMTPS uses implicit TLS from connection start.
	StrategySMTPS TransportStrategy = "smtps"
)

// Defaults applied by Normalized.
const (
	DefaultSessionTimeoutMs = 1000
	DefaultContentType      = "application/octet-stream"
	DefaultStrategy         = StrategySMTPS
)

// AddressDelimiter separates multiple addresses in To and Cc fields.
const AddressDelimiter = ";"

// AttachmentRef declares an attachment or embedded image by storage URI.
// Refs are resolved exactly once per send and discarded afterwards.
type AttachmentRef struct {
	// URI is an opaque handle into external blob storage.
	URI string `yaml:"uri"`

	// Name is the display name shown to the recipient (e.g. "report.pdf").
	// For embedded images it doubles as the Content-ID referenced from the
	// HTML body.
	Name string `yaml:"name"`

	// ContentType defaults to application/octet-stream when empty.
	ContentType string `yaml:"contentType"`
}

// SendRequest is the fully-specified configuration for one outbound email.
// All string fields are expected to be rendered (no remaining {{ }}
// placeholders) before validation and composition.
type SendRequest struct {
	// Server settings.
	Host              string            `yaml:"host"`
	Port              int               `yaml:"port"`
	Username          string            `yaml:"username"`
	Password          string            `yaml:"password"`
	TransportStrategy TransportStrategy `yaml:"transportStrategy"`
	// SessionTimeout bounds socket connect, read and write, in
	// milliseconds. Zero means the default of 1000 ms.
	SessionTimeout int `yaml:"sessionTimeoutMs"`

	// Message settings.
	From string `yaml:"from"`
	// To holds one or more recipient addresses, semicolon-delimited.
	To string `yaml:"to"`
	// Cc optionally holds carbon-copy addresses, semicolon-delimited.
	Cc             string          `yaml:"cc"`
	Subject        string          `yaml:"subject"`
	HTMLBody       string          `yaml:"htmlBody"`
	Attachments    []AttachmentRef `yaml:"attachments"`
	EmbeddedImages []AttachmentRef `yaml:"embeddedImages"`
}

// Normalized returns a copy of the request with documented defaults
// applied: SMTPS transport, 1000 ms session timeout and
// application/octet-stream attachment content types.
func (r SendRequest) Normalized() SendRequest {
	if r.TransportStrategy == "" {
		r.TransportStrategy = DefaultStrategy
	}
	if r.SessionTimeout == 0 {
		r.SessionTimeout = DefaultSessionTimeoutMs
	}
	r.Attachments = withDefaultContentType(r.Attachments)
	r.EmbeddedImages = withDefaultContentType(r.EmbeddedImages)
	return r
}

func withDefaultContentType(refs []AttachmentRef) []AttachmentRef {
	refs = append([]AttachmentRef(nil), refs...)
	for i := range refs {
		if refs[i].ContentType == "" {
			refs[i].ContentType = DefaultContentType
		}
	}
	return refs
}

// Validate checks the request invariants. It must run on a rendered
// request, after placeholder expansion.
func (r SendRequest) Validate() error {
	if r.Host == "" {
		return errors.New("host must not be empty")
	}
	if r.Port <= 0 {
		return fmt.Errorf("port must be positive, got %d", r.Port)
	}
	if r.SessionTimeout < 0 {
		return fmt.Errorf("session timeout must not be negative, got %d", r.SessionTimeout)
	}
	switch r.TransportStrategy {
	case StrategyPlain, StrategyStartTLS, StrategySMTPS:
	default:
		return fmt.Errorf("unknown transport strategy %q", r.TransportStrategy)
	}

	if _, err := netmail.ParseAddress(r.From); err != nil {
		return &InvalidAddressError{Raw: r.From, Cause: err}
	}
	if _, err := SplitAddressList(r.To); err != nil {
		return err
	}
	if r.Cc != "" {
		if _, err := SplitAddressList(r.Cc); err != nil {
			return err
		}
	}
	return nil
}

// SplitAddressList splits a semicolon-delimited address string into
// individual addresses, trimming whitespace and skipping empty tokens.
// Each token must be an RFC 2822 compliant mailbox; the first malformed
// token fails with InvalidAddressError. At least one address is required.
func SplitAddressList(raw string) ([]string, error) {
	var addrs []string
	for _, tok := range strings.Split(raw, AddressDelimiter) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, err := netmail.ParseAddress(tok); err != nil {
			return nil, &InvalidAddressError{Raw: tok, Cause: err}
		}
		addrs = append(addrs, tok)
	}
	if len(addrs) == 0 {
		return nil, &InvalidAddressError{Raw: raw, Cause: errors.New("no addresses")}
	}
	return addrs, nil
}
