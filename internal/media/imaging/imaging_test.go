package imaging

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestPlaceholderIsDeterministicPNG(t *testing.T) {
	a, err := Placeholder()
	if err != nil {
		t.Fatalf("Placeholder: %v", err)
	}
	b, err := Placeholder()
	if err != nil {
		t.Fatalf("Placeholder: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical placeholder bytes")
	}
	img, err := png.Decode(bytes.NewReader(a))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != placeholderW || img.Bounds().Dy() != placeholderH {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestAvatar(t *testing.T) {
	raw, err := Avatar("Ada Lovelace", "not-a-color")
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != avatarSize {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
}

func TestInitialsAndColor(t *testing.T) {
	cases := map[string]string{
		"":                 "?",
		"ada":              "A",
		"Ada Lovelace":     "AL",
		"  grace b hopper": "GH",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Fatalf("Initials(%q): expected %q got %q", in, want, got)
		}
	}
	if ColorFor("Ada") != ColorFor(" ada ") {
		t.Fatalf("expected stable color")
	}
}

func TestFitLessonFrame(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 300))
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := FitLessonFrame(in.Bytes())
	if err != nil {
		t.Fatalf("FitLessonFrame: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != placeholderW || img.Bounds().Dy() != placeholderH {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}

	if _, err := FitLessonFrame([]byte("not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := FitLessonFrame(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
