// Package payload builds and parses the reveal payload: the JSON object that
// becomes the time-lock plaintext and is eventually published by the oracle's
// reveal callback.
package payload

import (
	"encoding/json"
	"fmt"
)

// Default metadata values used when the payload omits the optional fields.
const (
	DefaultFilename = "encrypted-file"
	DefaultMimeType = "application/octet-stream"
)

// RevealPayload is the time-lock plaintext. Field names are part of the wire
// contract; field order is not.
type RevealPayload struct {
	// Key is the hex-encoded symmetric content key.
	Key string `json:"k"`
	// Locator identifies where the encrypted content is retrievable.
	Locator string `json:"c"`
	// Optional metadata.
	Filename string `json:"n,omitempty"`
	MimeType string `json:"t,omitempty"`
	Size     int64  `json:"s,omitempty"`
}

// New builds a payload from the required fields. Optional metadata can be
// set on the returned value before Marshal.
func New(keyHex, locator string) *RevealPayload {
	return &RevealPayload{Key: keyHex, Locator: locator}
}

// Marshal serializes the payload. Round-trips with Parse for the defined
// field set.
func (p *RevealPayload) Marshal() ([]byte, error) {
	if p.Key == "" {
		return nil, fmt.Errorf("reveal payload: empty key")
	}
	if p.Locator == "" {
		return nil, fmt.Errorf("reveal payload: empty locator")
	}
	return json.Marshal(p)
}

// Parse interprets data as a reveal payload. ok is false when the bytes are
// not a JSON object carrying both required fields; in that case the caller
// should fall back to treating the whole string as a bare key (legacy
// payloads predate the JSON shape).
func Parse(data []byte) (p *RevealPayload, ok bool) {
	var parsed RevealPayload
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, false
	}
	if parsed.Key == "" || parsed.Locator == "" {
		return nil, false
	}
	return &parsed, true
}

// MediaMetadata is the verifier's output: everything needed to fetch and
// decrypt the revealed content.
type MediaMetadata struct {
	Key      string
	Locator  string
	Filename string
	MimeType string
	Size     int64
}

// Metadata converts the payload into MediaMetadata, defaulting absent
// optional fields.
func (p *RevealPayload) Metadata() MediaMetadata {
	m := MediaMetadata{
		Key:      p.Key,
		Locator:  p.Locator,
		Filename: p.Filename,
		MimeType: p.MimeType,
		Size:     p.Size,
	}
	if m.Filename == "" {
		m.Filename = DefaultFilename
	}
	if m.MimeType == "" {
		m.MimeType = DefaultMimeType
	}
	return m
}

// BareKeyMetadata wraps a non-JSON payload treated as a bare key. The
// locator must be supplied by the caller from other provenance.
func BareKeyMetadata(keyHex string) MediaMetadata {
	return MediaMetadata{
		Key:      keyHex,
		Filename: DefaultFilename,
		MimeType: DefaultMimeType,
	}
}
