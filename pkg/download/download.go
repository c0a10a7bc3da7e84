// Package download turns exported payloads into client-side file downloads.
//
// The host hands over a file name, a MIME type, and a base64 payload (bare
// or as a data URI); the package decodes it, sanitizes the name, and writes
// the bytes as an attachment. The operation is fire-and-forget from the
// caller's perspective - a failed download degrades nothing else.
package download

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// ErrEmptyPayload is returned by [Attachment.Decode] when there is nothing
// to decode.
var ErrEmptyPayload = errors.New("empty payload")

// DefaultFileName is used when sanitizing leaves nothing of the file name.
const DefaultFileName = "download"

// Attachment is one file to deliver to the client.
type Attachment struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType,omitempty"`
	Payload     string `json:"payload"` // base64, bare or data URI
}

// Decode returns the decoded payload bytes. Data-URI payloads
// ("data:image/png;base64,...") are accepted; the prefix is stripped and,
// when the attachment carries no content type of its own, the URI's type
// is adopted.
func (a *Attachment) Decode() ([]byte, error) {
	payload := a.Payload
	if strings.HasPrefix(payload, "data:") {
		meta, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data URI", ErrEmptyPayload)
		}
		if a.ContentType == "" {
			ct := strings.TrimPrefix(meta, "data:")
			ct = strings.TrimSuffix(ct, ";base64")
			a.ContentType = ct
		}
		payload = rest
	}
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return data, nil
}

// SanitizeFileName strips path separators and control characters from a
// client-supplied file name so it is safe to echo into a
// Content-Disposition header. Returns DefaultFileName when nothing is left.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f || r == '"':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")
	if out == "" {
		return DefaultFileName
	}
	return out
}

// Write decodes the attachment and writes it to w as a file download,
// setting Content-Type, Content-Length, and Content-Disposition.
func Write(w http.ResponseWriter, a Attachment) error {
	data, err := a.Decode()
	if err != nil {
		return err
	}

	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	name := SanitizeFileName(a.FileName)

	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": name}))

	_, err = w.Write(data)
	return err
}
