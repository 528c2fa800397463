package mail_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/flowmail/mailtask/internal/mail"
)

func renderMessage(t *testing.T, msg *gomail.Msg) string {
	t.Helper()
	var sb strings.Builder
	_, err := msg.WriteTo(&sb)
	require.NoError(t, err)
	return sb.String()
}

func TestCompose_RecipientHeaders(t *testing.T) {
	req := validRequest()
	req.Cc = "cc@z.com"

	msg, err := mail.Compose(req, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"<a@x.com>", "<b@y.com>"}, msg.GetAddrHeaderString(gomail.HeaderTo))
	assert.Equal(t, []string{"<cc@z.com>"}, msg.GetAddrHeaderString(gomail.HeaderCc))
	assert.Equal(t, []string{"<sender@example.com>"}, msg.GetAddrHeaderString(gomail.HeaderFrom))
	assert.Equal(t, []string{"Flow finished"}, msg.GetGenHeader(gomail.HeaderSubject))
}

func TestCompose_NoCcHeaderWhenAbsent(t *testing.T) {
	msg, err := mail.Compose(validRequest(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, msg.GetAddrHeaderString(gomail.HeaderCc))
}

func TestCompose_ReturnReceiptAlwaysRequested(t *testing.T) {
	msg, err := mail.Compose(validRequest(), nil, nil)
	require.NoError(t, err)

	mdn := msg.GetGenHeader(gomail.HeaderDispositionNotificationTo)
	require.NotEmpty(t, mdn)
	assert.True(t, strings.Contains(mdn[0], "sender@example.com"))
}

func TestCompose_PlainTextFallbackAndHTMLBody(t *testing.T) {
	req := validRequest()
	req.HTMLBody = "<h1>Workflow done</h1>"

	msg, err := mail.Compose(req, nil, nil)
	require.NoError(t, err)

	raw := renderMessage(t, msg)
	assert.True(t, strings.Contains(raw, mail.PlainTextFallback))
	assert.True(t, strings.Contains(raw, "<h1>Workflow done</h1>"))
	assert.True(t, strings.Contains(raw, "multipart/alternative"))
}

func TestCompose_Attachments(t *testing.T) {
	attachments := []mail.ResolvedAttachment{
		{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("pdf-bytes")},
		{Name: "data.csv", ContentType: "text/csv", Data: []byte("a,b,c")},
	}

	msg, err := mail.Compose(validRequest(), attachments, nil)
	require.NoError(t, err)

	raw := renderMessage(t, msg)
	assert.True(t, strings.Contains(raw, "report.pdf"))
	assert.True(t, strings.Contains(raw, "application/pdf"))
	assert.True(t, strings.Contains(raw, "data.csv"))

	// Attachment order matches declaration order.
	assert.Less(t, strings.Index(raw, "report.pdf"), strings.Index(raw, "data.csv"))
}

func TestCompose_EmbeddedImages(t *testing.T) {
	embedded := []mail.ResolvedAttachment{
		{Name: "logo.png", ContentType: "image/png", Data: []byte("png-bytes")},
	}

	msg, err := mail.Compose(validRequest(), nil, embedded)
	require.NoError(t, err)

	raw := renderMessage(t, msg)
	assert.True(t, strings.Contains(raw, "Content-Id") || strings.Contains(raw, "Content-ID"))
	assert.True(t, strings.Contains(raw, "logo.png"))
	assert.True(t, strings.Contains(raw, "inline"))
}

func TestCompose_InvalidToAddress(t *testing.T) {
	req := validRequest()
	req.To = "not-an-address"

	_, err := mail.Compose(req, nil, nil)
	require.Error(t, err)

	var addrErr *mail.InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, "not-an-address", addrErr.Raw)
}

func TestCompose_InvalidFromAddress(t *testing.T) {
	req := validRequest()
	req.From = "broken"

	_, err := mail.Compose(req, nil, nil)
	var addrErr *mail.InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
}
