package service

import (
	"encoding/base64"
	"net/http"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

// MaxInlinePreviewBytes is the largest file embedded as a data URL.
const MaxInlinePreviewBytes = 300 * 1024

// PreviewBuilder turns media into a preview reference: small files become
// self-contained data URLs, larger ones a session-only object reference.
type PreviewBuilder struct {
	objects *ObjectURLRegistry
	inline  bool
}

// NewPreviewBuilder creates a builder. A nil registry disables the large-file
// strategy; those files then get no preview.
func NewPreviewBuilder(objects *ObjectURLRegistry) *PreviewBuilder {
	return &PreviewBuilder{objects: objects, inline: true}
}

// WithoutInline disables data URL encoding.
func (b *PreviewBuilder) WithoutInline() *PreviewBuilder {
	cp := *b
	cp.inline = false
	return &cp
}

// Build returns the preview for f, or nil when no strategy applies. The
// attachment metadata is kept by the caller either way.
func (b *PreviewBuilder) Build(f *model.MediaFile) *string {
	if f == nil || f.Data == nil {
		return nil
	}

	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}

	if size > MaxInlinePreviewBytes {
		if b.objects == nil {
			return nil
		}
		ref := b.objects.Create(f.Data, contentTypeOf(f))
		return &ref
	}

	if !b.inline {
		return nil
	}
	url := "data:" + contentTypeOf(f) + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
	return &url
}

// Release revokes the session reference behind a preview, if any.
func (b *PreviewBuilder) Release(preview *string) {
	if preview == nil || b.objects == nil {
		return
	}
	b.objects.Revoke(*preview)
}

func contentTypeOf(f *model.MediaFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return http.DetectContentType(f.Data)
}
