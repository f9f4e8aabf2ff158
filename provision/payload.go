package provision

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// contentTypeByExt maps known payload extensions to the MIME type they must
// be served with. A known extension overrides any declared content type.
var contentTypeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

const defaultContentType = "application/octet-stream"

// Payload is an upload prepared once and reused across every bucket in a run.
// The byte slice is read-only after preparation and safe to share between
// concurrent uploads.
type Payload struct {
	data        []byte
	ext         string
	contentType string
}

// PreparePayload reads r fully, exactly once, and resolves the content type
// from the filename extension, falling back to declaredType and then to
// application/octet-stream. A nil reader or an empty body yields a nil
// Payload: provisioning proceeds, uploads are skipped.
func PreparePayload(filename, declaredType string, r io.Reader) (*Payload, error) {
	if r == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload %q: %w", filename, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType := contentTypeByExt[ext]
	if contentType == "" {
		contentType = declaredType
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Payload{data: data, ext: ext, contentType: contentType}, nil
}

// Empty reports whether there is nothing to upload. Nil-safe.
func (p *Payload) Empty() bool {
	return p == nil || len(p.data) == 0
}

// ContentType returns the resolved MIME type.
func (p *Payload) ContentType() string {
	if p == nil {
		return ""
	}
	return p.contentType
}

// Ext returns the original filename extension, including the dot, or "".
func (p *Payload) Ext() string {
	if p == nil {
		return ""
	}
	return p.ext
}

// Size returns the payload length in bytes.
func (p *Payload) Size() int {
	if p == nil {
		return 0
	}
	return len(p.data)
}
