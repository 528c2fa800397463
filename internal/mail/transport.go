package mail

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"os"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Transport delivers a composed message over a single SMTP session.
type Transport interface {
	Send(ctx context.Context, msg *gomail.Msg, req SendRequest) error
}

// SMTPTransport is the production Transport. A fresh client is created per
// call; sessions are never pooled or reused across sends.
type SMTPTransport struct{}

// NewSMTPTransport creates an SMTPTransport.
func NewSMTPTransport() *SMTPTransport { return &SMTPTransport{} }

// Send opens an SMTP session per the request's transport strategy,
// transmits msg and closes the session. The session timeout bounds
// connect, read and write uniformly; exceeding it fails with
// TransportTimeoutError. Other failures are reported as TransportError
// with the stage (connect, auth, send) they occurred in. The session is
// released on every path.
func (t *SMTPTransport) Send(ctx context.Context, msg *gomail.Msg, req SendRequest) error {
	timeout := time.Duration(req.SessionTimeout) * time.Millisecond

	opts := []gomail.Option{
		gomail.WithPort(req.Port),
		gomail.WithTimeout(timeout),
	}

	switch req.TransportStrategy {
	case StrategyPlain:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	case StrategyStartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		// SMTPS: implicit TLS from connection start.
		opts = append(opts, gomail.WithSSL())
	}

	// Credentials are optional; without a username the session stays
	// unauthenticated.
	if req.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(req.Username),
			gomail.WithPassword(req.Password),
		)
	}

	client, err := gomail.NewClient(req.Host, opts...)
	if err != nil {
		return &TransportError{Stage: StageConnect, Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The dial phase covers connection establishment, the server greeting
	// and authentication. The context deadline backstops servers that
	// accept the connection but never respond.
	dialErr := make(chan error, 1)
	go func() { dialErr <- client.DialWithContext(ctx) }()
	select {
	case err := <-dialErr:
		if err != nil {
			_ = client.Close()
			return classifyDialError(err, timeout)
		}
	case <-ctx.Done():
		_ = client.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TransportTimeoutError{Timeout: timeout, Cause: ctx.Err()}
		}
		// Cancelled by the caller.
		return &TransportError{Stage: StageConnect, Cause: ctx.Err()}
	}

	sendErr := client.Send(msg)
	// QUIT failures after the server accepted the message are not
	// surfaced; the send already succeeded or failed above.
	_ = client.Close()

	if sendErr != nil {
		if isTimeout(sendErr) {
			return &TransportTimeoutError{Timeout: timeout, Cause: sendErr}
		}
		return &TransportError{Stage: StageSend, Cause: sendErr}
	}
	return nil
}

// classifyDialError maps a dial failure onto the error taxonomy. go-mail
// authenticates during dial, so SMTP 53x replies indicate the auth stage.
func classifyDialError(err error, timeout time.Duration) error {
	if isTimeout(err) {
		return &TransportTimeoutError{Timeout: timeout, Cause: err}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 530 && tpErr.Code < 540 {
		return &TransportError{Stage: StageAuth, Cause: err}
	}
	return &TransportError{Stage: StageConnect, Cause: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
