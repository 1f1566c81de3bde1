package sniff

import (
	"bytes"
	"errors"
	"testing"
)

func pngBytes() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, 8)...)
}

func TestDetect_Signatures(t *testing.T) {
	// WHAT: Each signature in the table yields its MIME with Valid=true.
	// WHY: Sniffing is authoritative over the declared content type.
	jpeg := append([]byte{0xFF, 0xD8}, bytes.Repeat([]byte{0x11}, 10)...)
	jpeg = append(jpeg, 0xFF, 0xD9)
	webp := append([]byte("RIFF"), 0, 0, 0, 0)
	webp = append(webp, []byte("WEBP")...)
	webp = append(webp, bytes.Repeat([]byte{0}, 8)...)

	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", pngBytes(), "image/png"},
		{"jpeg", jpeg, "image/jpeg"},
		{"gif87a", append([]byte("GIF87a"), bytes.Repeat([]byte{0}, 8)...), "image/gif"},
		{"gif89a", append([]byte("GIF89a"), bytes.Repeat([]byte{0}, 8)...), "image/gif"},
		{"webp", webp, "image/webp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Detect(tc.data, "application/octet-stream")
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if !res.Valid {
				t.Error("should be valid")
			}
			if res.MIME != tc.want {
				t.Errorf("mime: got %q, want %q", res.MIME, tc.want)
			}
		})
	}
}

func TestDetect_NoMatchFallsBackToDeclared(t *testing.T) {
	// WHAT: Unknown bytes keep the declared type but are marked invalid.
	// WHY: The caller needs the declared type for its diagnostic envelope.
	res, err := Detect([]byte("not a real png"), "image/png")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Valid {
		t.Error("should not be valid")
	}
	if res.MIME != "image/png" {
		t.Errorf("mime: got %q, want declared image/png", res.MIME)
	}
}

func TestDetect_TruncatedSignature(t *testing.T) {
	// WHAT: A JPEG prefix without the FFD9 trailer is rejected.
	// WHY: Both prefix and suffix are part of the JPEG signature.
	data := append([]byte{0xFF, 0xD8}, bytes.Repeat([]byte{0x11}, 20)...)
	res, err := Detect(data, "image/jpeg")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Valid {
		t.Error("truncated jpeg should be invalid")
	}
}

func TestDetect_ShortRIFF(t *testing.T) {
	// WHAT: A RIFF header shorter than the 20-byte WEBP search window is
	// handled, both without and with the WEBP marker.
	// WHY: The window must clamp to the input length instead of overrunning.
	res, err := Detect([]byte("RIFFabcdefgh"), "image/webp")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Valid {
		t.Error("RIFF without WEBP marker should be invalid")
	}
	if res.MIME != "image/webp" {
		t.Errorf("mime: got %q, want declared image/webp", res.MIME)
	}

	res, err = Detect([]byte("RIFF\x00\x00\x00\x00WEBP"), "application/octet-stream")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !res.Valid || res.MIME != "image/webp" {
		t.Errorf("short webp: got %+v", res)
	}
}

func TestDetect_TooSmall(t *testing.T) {
	// WHAT: Inputs under 10 bytes fail before signature matching.
	// WHY: The size check is a distinct error, not a format mismatch.
	_, err := Detect([]byte("GIF89a"), "image/gif")
	if !errors.Is(err, ErrTooSmall) {
		t.Fatalf("want ErrTooSmall, got %v", err)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	// WHAT: Sniffing the same bytes twice yields identical results.
	// WHY: Detection must be a pure function of the input.
	data := pngBytes()
	a, err1 := Detect(data, "x")
	b, err2 := Detect(data, "x")
	if err1 != nil || err2 != nil {
		t.Fatalf("detect: %v / %v", err1, err2)
	}
	if a != b {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}
