// Package sniff detects image formats from byte signatures.
//
// Client-declared content types are advisory only: a mislabeled-but-valid
// PNG is reclassified, and a declared image/png with non-PNG bytes is
// rejected. The signature table is checked in order, first match wins.
package sniff

import (
	"bytes"
	"errors"
)

// MinSize is the minimum input length accepted before signature matching.
const MinSize = 10

// ErrTooSmall is returned for inputs shorter than MinSize bytes.
var ErrTooSmall = errors.New("sniff: data too small to identify")

// Result is the outcome of signature detection. Immutable once computed.
type Result struct {
	MIME  string // detected type, or the declared type when Valid is false
	Valid bool
}

var (
	pngSig   = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegSOI  = []byte{0xFF, 0xD8}
	jpegEOI  = []byte{0xFF, 0xD9}
	gif87Sig = []byte("GIF87a")
	gif89Sig = []byte("GIF89a")
	riffSig  = []byte("RIFF")
	webpMark = []byte("WEBP")
)

// Detect matches data against the image signature table. When no signature
// matches, the declared content type is passed through with Valid=false.
func Detect(data []byte, declared string) (Result, error) {
	if len(data) < MinSize {
		return Result{}, ErrTooSmall
	}

	switch {
	case bytes.HasPrefix(data, pngSig):
		return Result{MIME: "image/png", Valid: true}, nil
	case bytes.HasPrefix(data, jpegSOI) && bytes.HasSuffix(data, jpegEOI):
		return Result{MIME: "image/jpeg", Valid: true}, nil
	case bytes.HasPrefix(data, gif87Sig), bytes.HasPrefix(data, gif89Sig):
		return Result{MIME: "image/gif", Valid: true}, nil
	case bytes.HasPrefix(data, riffSig) && bytes.Contains(data[:min(len(data), 20)], webpMark):
		return Result{MIME: "image/webp", Valid: true}, nil
	}

	return Result{MIME: declared, Valid: false}, nil
}
