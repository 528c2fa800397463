package mail

import (
	"bytes"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// PlainTextFallback is the fixed plain-text alternative carried by every
// message so that non-HTML clients degrade gracefully.
const PlainTextFallback = "Please view this email in a modern email client!"

// Compose assembles the outbound multipart message: a plain-text
// alternative, the HTML body as the preferred alternative, downloadable
// attachments and embedded images referenced from the HTML via their
// Content-ID. A return-receipt request to the sender is always set.
//
// Compose performs no network or disk I/O; req must already be rendered
// and normalized.
func Compose(req SendRequest, attachments, embeddedImages []ResolvedAttachment) (*gomail.Msg, error) {
	m := gomail.NewMsg()

	if err := m.From(req.From); err != nil {
		return nil, &InvalidAddressError{Raw: req.From, Cause: err}
	}

	to, err := SplitAddressList(req.To)
	if err != nil {
		return nil, err
	}
	if err := m.To(to...); err != nil {
		return nil, &InvalidAddressError{Raw: req.To, Cause: err}
	}

	// Empty and absent Cc are equivalent: no Cc header either way.
	if req.Cc != "" {
		cc, err := SplitAddressList(req.Cc)
		if err != nil {
			return nil, err
		}
		if err := m.Cc(cc...); err != nil {
			return nil, &InvalidAddressError{Raw: req.Cc, Cause: err}
		}
	}

	m.Subject(req.Subject)
	m.SetBodyString(gomail.TypeTextPlain, PlainTextFallback)
	m.AddAlternativeString(gomail.TypeTextHTML, req.HTMLBody)

	if err := m.RequestMDNTo(req.From); err != nil {
		return nil, &InvalidAddressError{Raw: req.From, Cause: err}
	}

	for _, a := range attachments {
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data),
			gomail.WithFileContentType(gomail.ContentType(a.ContentType))); err != nil {
			return nil, fmt.Errorf("attaching %q: %w", a.Name, err)
		}
	}

	// The display name doubles as the Content-ID, so the HTML body can
	// reference an image as <img src="cid:Name">.
	for _, a := range embeddedImages {
		if err := m.EmbedReader(a.Name, bytes.NewReader(a.Data),
			gomail.WithFileContentType(gomail.ContentType(a.ContentType))); err != nil {
			return nil, fmt.Errorf("embedding %q: %w", a.Name, err)
		}
	}

	return m, nil
}
