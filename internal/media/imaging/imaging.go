// Package imaging renders the local fallback images: the neutral lesson
// placeholder and profile initials avatars.
package imaging

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	PNGMime = "image/png"

	placeholderW = 1024
	placeholderH = 576
	avatarSize   = 256
)

// AvatarColors is the palette avatars are drawn from.
var AvatarColors = []string{"#1E88E5", "#43A047", "#E53935", "#8E24AA", "#F4511E", "#00897B", "#3949AB", "#6D4C41"}

var (
	fontOnce sync.Once
	parsed   *truetype.Font
	fontErr  error
)

func loadFontFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		parsed, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", fontErr)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// Placeholder renders the neutral image used when image synthesis degrades.
// The output is deterministic.
func Placeholder() ([]byte, error) {
	dc := gg.NewContext(placeholderW, placeholderH)

	dc.SetColor(color.NRGBA{R: 0xEC, G: 0xEF, B: 0xF1, A: 0xFF})
	dc.DrawRectangle(0, 0, placeholderW, placeholderH)
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 0xB0, G: 0xBE, B: 0xC5, A: 0xFF})
	dc.SetLineWidth(8)
	dc.DrawRoundedRectangle(32, 32, placeholderW-64, placeholderH-64, 24)
	dc.Stroke()

	// Simple landscape glyph: sun and mountain.
	dc.DrawCircle(placeholderW*0.62, placeholderH*0.38, 40)
	dc.Fill()
	dc.MoveTo(placeholderW*0.30, placeholderH*0.70)
	dc.LineTo(placeholderW*0.45, placeholderH*0.45)
	dc.LineTo(placeholderW*0.60, placeholderH*0.70)
	dc.ClosePath()
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Avatar renders the initials of displayName in a circle filled with colorHex.
// An invalid color falls back to a palette entry picked from the name.
func Avatar(displayName, colorHex string) ([]byte, error) {
	base, ok := parseHex(colorHex)
	if !ok {
		base, _ = parseHex(ColorFor(displayName))
	}

	face, err := loadFontFace(avatarSize * 0.4)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Clip()
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(Initials(displayName), avatarSize/2, avatarSize/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// ColorFor picks a stable palette color for name.
func ColorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return AvatarColors[int(h.Sum32()%uint32(len(AvatarColors)))]
}

// Initials returns up to two uppercase initials, "?" for an empty name.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "?"
	}
	out := []rune{firstRune(fields[0])}
	if len(fields) > 1 {
		out = append(out, firstRune(fields[len(fields)-1]))
	}
	return strings.ToUpper(string(out))
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '?'
}

func parseHex(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xFF}, true
}
