package download

import (
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	raw := []byte("frame-bytes")
	encoded := base64.StdEncoding.EncodeToString(raw)

	a := Attachment{Payload: encoded}
	got, err := a.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "frame-bytes" {
		t.Errorf("decoded = %q", got)
	}
}

func TestDecodeDataURI(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	a := Attachment{Payload: uri}
	got, err := a.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("decoded = %v, want %v", got, raw)
	}
	// The URI's media type is adopted when none was given.
	if a.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", a.ContentType)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := (&Attachment{}).Decode(); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("empty payload err = %v", err)
	}
	if _, err := (&Attachment{Payload: "!!!not-base64!!!"}).Decode(); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "graph.png", want: "graph.png"},
		{in: "../../etc/passwd", want: "_.._etc_passwd"},
		{in: `C:\temp\x.png`, want: "C__temp_x.png"},
		{in: "with\x00control\x1f.png", want: "withcontrol.png"},
		{in: `quo"ted.png`, want: "quoted.png"},
		{in: "", want: DefaultFileName},
		{in: "...", want: DefaultFileName},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	raw := []byte("png-payload")
	a := Attachment{
		FileName:    "export/..frame.png",
		ContentType: "image/png",
		Payload:     base64.StdEncoding.EncodeToString(raw),
	}

	rec := httptest.NewRecorder()
	if err := Write(rec, a); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := rec.Body.String(); got != "png-payload" {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || strings.Contains(cd, "/") {
		t.Errorf("content disposition = %q", cd)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "11" {
		t.Errorf("content length = %q", cl)
	}
}

func TestWriteDefaults(t *testing.T) {
	a := Attachment{Payload: base64.StdEncoding.EncodeToString([]byte("x"))}

	rec := httptest.NewRecorder()
	if err := Write(rec, a); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, DefaultFileName) {
		t.Errorf("content disposition = %q", cd)
	}
}
