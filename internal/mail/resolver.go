package mail

import (
	"context"
	"io"

	"github.com/flowmail/mailtask/internal/storage"
)

// ResolvedAttachment is an attachment read fully into memory, ready to be
// placed into a composed message.
type ResolvedAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// ResolveAttachments dereferences each ref against the blob store, in
// declaration order, reading every stream fully into memory. It is
// all-or-nothing: the first ref that cannot be dereferenced or read fails
// the whole call with AttachmentResolutionError and nothing is returned.
// Streams are closed on every path.
func ResolveAttachments(ctx context.Context, refs []AttachmentRef, store storage.BlobStore) ([]ResolvedAttachment, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	resolved := make([]ResolvedAttachment, 0, len(refs))
	for _, ref := range refs {
		rc, err := store.Open(ctx, ref.URI)
		if err != nil {
			return nil, &AttachmentResolutionError{URI: ref.URI, Cause: err}
		}

		data, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, &AttachmentResolutionError{URI: ref.URI, Cause: err}
		}
		if closeErr != nil {
			return nil, &AttachmentResolutionError{URI: ref.URI, Cause: closeErr}
		}

		ct := ref.ContentType
		if ct == "" {
			ct = DefaultContentType
		}
		resolved = append(resolved, ResolvedAttachment{
			Name:        ref.Name,
			ContentType: ct,
			Data:        data,
		})
	}
	return resolved, nil
}
