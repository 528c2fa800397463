package mail_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/flowmail/mailtask/internal/mail"
	"github.com/flowmail/mailtask/internal/render"
	"github.com/flowmail/mailtask/internal/templates"
)

// --- capturing transport ---

type captureTransport struct {
	msg *gomail.Msg
	req mail.SendRequest
	err error
}

func (c *captureTransport) Send(_ context.Context, msg *gomail.Msg, req mail.SendRequest) error {
	c.msg = msg
	c.req = req
	return c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestSender(store *stubBlobStore, transport mail.Transport) *mail.Sender {
	renderer := render.NewTemplateRenderer()
	return mail.NewSender(renderer, templates.NewExpander(renderer), store, transport, discardLogger())
}

func baseTask() mail.Task {
	return mail.Task{
		SendRequest: mail.SendRequest{
			Host:     "smtp.example.com",
			Port:     465,
			From:     "sender@example.com",
			To:       "{{recipient}}",
			Subject:  "Run {{execution}} finished",
			HTMLBody: "<p>Execution {{execution}} completed.</p>",
		},
		Variables: map[string]any{
			"recipient": "ops@example.com",
			"execution": "42",
		},
	}
}

func TestSend_RendersDynamicFields(t *testing.T) {
	transport := &captureTransport{}
	sender := newTestSender(newStubBlobStore(nil), transport)

	require.NoError(t, sender.Send(context.Background(), baseTask()))

	// Headers carry the rendered, not raw, values.
	assert.Equal(t, []string{"<ops@example.com>"}, transport.msg.GetAddrHeaderString(gomail.HeaderTo))
	assert.Equal(t, []string{"Run 42 finished"}, transport.msg.GetGenHeader(gomail.HeaderSubject))
	assert.Equal(t, "ops@example.com", transport.req.To)

	// Defaults are applied before the transport sees the request.
	assert.Equal(t, mail.StrategySMTPS, transport.req.TransportStrategy)
	assert.Equal(t, mail.DefaultSessionTimeoutMs, transport.req.SessionTimeout)
}

func TestSend_RendersAttachmentFields(t *testing.T) {
	store := newStubBlobStore(map[string]string{"reports/42.pdf": "pdf-bytes"})
	transport := &captureTransport{}
	sender := newTestSender(store, transport)

	task := baseTask()
	task.Attachments = []mail.AttachmentRef{
		{URI: "reports/{{execution}}.pdf", Name: "run-{{execution}}.pdf", ContentType: "application/pdf"},
	}

	require.NoError(t, sender.Send(context.Background(), task))

	var sb strings.Builder
	_, err := transport.msg.WriteTo(&sb)
	require.NoError(t, err)
	assert.True(t, strings.Contains(sb.String(), "run-42.pdf"))
	assert.Zero(t, store.leakedStreams())
}

func TestSend_TemplateBody(t *testing.T) {
	transport := &captureTransport{}
	sender := newTestSender(newStubBlobStore(nil), transport)

	task := baseTask()
	task.TemplateURI = "execution-status.html"
	task.Variables["subject"] = "Flow finished"
	task.Variables["message"] = "All good."
	task.Variables["link"] = "https://orchestrator.example.com/executions/42"

	require.NoError(t, sender.Send(context.Background(), task))

	var sb strings.Builder
	_, err := transport.msg.WriteTo(&sb)
	require.NoError(t, err)
	assert.True(t, strings.Contains(sb.String(), "All good."))
}

func TestSend_UndefinedVariableAborts(t *testing.T) {
	transport := &captureTransport{}
	sender := newTestSender(newStubBlobStore(nil), transport)

	task := baseTask()
	delete(task.Variables, "recipient")

	err := sender.Send(context.Background(), task)
	require.Error(t, err)

	var undefErr *render.UndefinedVariableError
	require.True(t, errors.As(err, &undefErr))
	assert.Nil(t, transport.msg, "no message must reach the transport")
}

func TestSend_AttachmentFailureAbortsBeforeTransport(t *testing.T) {
	store := newStubBlobStore(nil) // every open fails
	transport := &captureTransport{}
	sender := newTestSender(store, transport)

	task := baseTask()
	task.Attachments = []mail.AttachmentRef{{URI: "missing.bin", Name: "missing.bin"}}

	err := sender.Send(context.Background(), task)
	require.Error(t, err)

	var resErr *mail.AttachmentResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Nil(t, transport.msg, "partial sends are never attempted")
}

func TestSend_InvalidRenderedAddressAborts(t *testing.T) {
	transport := &captureTransport{}
	sender := newTestSender(newStubBlobStore(nil), transport)

	task := baseTask()
	task.Variables["recipient"] = "not-an-address"

	err := sender.Send(context.Background(), task)
	require.Error(t, err)

	var addrErr *mail.InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Nil(t, transport.msg)
}

func TestSend_TransportErrorPropagates(t *testing.T) {
	wantErr := &mail.TransportError{Stage: mail.StageSend, Cause: errors.New("rejected")}
	transport := &captureTransport{err: wantErr}
	sender := newTestSender(newStubBlobStore(nil), transport)

	err := sender.Send(context.Background(), baseTask())
	require.Error(t, err)

	var transportErr *mail.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, mail.StageSend, transportErr.Stage)
}
