package mail

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowmail/mailtask/internal/render"
	"github.com/flowmail/mailtask/internal/storage"
)

// BodyExpander loads a named HTML template resource and expands it against
// a variable map, producing the message body.
type BodyExpander interface {
	Expand(templateURI string, vars map[string]any) (string, error)
}

// Task is one mail-task invocation: a send request whose string fields may
// contain {{ }} placeholders, plus an optional bundled body template and
// the variables both are rendered against.
type Task struct {
	SendRequest `yaml:",inline"`

	// TemplateURI names a bundled HTML template used as the message body.
	// When set it takes precedence over HTMLBody.
	TemplateURI string `yaml:"templateUri"`

	// Variables is the render context for every dynamic field.
	Variables map[string]any `yaml:"variables"`
}

// Sender runs the full pipeline for one task invocation: render dynamic
// fields, expand the body template, resolve attachments, compose and
// transmit. Every error is terminal for the send; no retry is attempted.
type Sender struct {
	renderer  render.Renderer
	expander  BodyExpander
	store     storage.BlobStore
	transport Transport
	log       *slog.Logger
}

// NewSender creates a Sender wiring the given collaborators.
func NewSender(renderer render.Renderer, expander BodyExpander, store storage.BlobStore, transport Transport, log *slog.Logger) *Sender {
	return &Sender{
		renderer:  renderer,
		expander:  expander,
		store:     store,
		transport: transport,
		log:       log,
	}
}

// Send executes one task. The returned error is one of the pipeline's
// typed errors; the caller owns retry policy and run-status bookkeeping.
func (s *Sender) Send(ctx context.Context, task Task) error {
	log := s.log.With("send_id", uuid.NewString())

	req, err := s.renderTask(task)
	if err != nil {
		log.Error("rendering task fields failed", "error", err)
		return err
	}

	req = req.Normalized()
	if err := req.Validate(); err != nil {
		log.Error("task validation failed", "error", err)
		return err
	}

	log.Info("sending email", "host", req.Host, "to", req.To)

	attachments, err := ResolveAttachments(ctx, req.Attachments, s.store)
	if err != nil {
		log.Error("attachment resolution failed", "error", err)
		return err
	}
	embedded, err := ResolveAttachments(ctx, req.EmbeddedImages, s.store)
	if err != nil {
		log.Error("embedded image resolution failed", "error", err)
		return err
	}

	msg, err := Compose(req, attachments, embedded)
	if err != nil {
		log.Error("message composition failed", "error", err)
		return err
	}

	if err := s.transport.Send(ctx, msg, req); err != nil {
		log.Error("smtp delivery failed", "error", err)
		return err
	}

	log.Info("email sent", "attachments", len(attachments), "embedded_images", len(embedded))
	return nil
}

// renderTask expands every dynamic field through the renderer and resolves
// the message body, either from the bundled template or from the raw HTML
// body field.
func (s *Sender) renderTask(task Task) (SendRequest, error) {
	req := task.SendRequest
	vars := task.Variables

	// Copy the ref slices so rendering never mutates the caller's task.
	req.Attachments = append([]AttachmentRef(nil), req.Attachments...)
	req.EmbeddedImages = append([]AttachmentRef(nil), req.EmbeddedImages...)

	fields := []*string{
		&req.Host, &req.Username, &req.Password,
		&req.From, &req.To, &req.Cc, &req.Subject,
	}
	for i := range req.Attachments {
		a := &req.Attachments[i]
		fields = append(fields, &a.URI, &a.Name, &a.ContentType)
	}
	for i := range req.EmbeddedImages {
		a := &req.EmbeddedImages[i]
		fields = append(fields, &a.URI, &a.Name, &a.ContentType)
	}
	for _, f := range fields {
		rendered, err := s.renderer.Render(*f, vars)
		if err != nil {
			return SendRequest{}, err
		}
		*f = rendered
	}

	if task.TemplateURI != "" {
		uri, err := s.renderer.Render(task.TemplateURI, vars)
		if err != nil {
			return SendRequest{}, err
		}
		body, err := s.expander.Expand(uri, vars)
		if err != nil {
			return SendRequest{}, err
		}
		req.HTMLBody = body
		return req, nil
	}

	body, err := s.renderer.Render(req.HTMLBody, vars)
	if err != nil {
		return SendRequest{}, err
	}
	req.HTMLBody = body
	return req, nil
}
