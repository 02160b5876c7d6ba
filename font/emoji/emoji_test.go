// SPDX-License-Identifier: Unlicense OR MIT

package emoji

import (
	"testing"

	"modernui.dev/shaping/font"
)

func utf16Of(seq ...rune) []uint16 {
	var out []uint16
	for _, r := range seq {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		out = append(out, uint16(r))
	}
	return out
}

// A surrogate-pair emoji matched verbatim against the table produces one
// glyph with its advance on the cluster-leading code unit.
func TestGrinningFaceShapesOneGlyph(t *testing.T) {
	f := New("emoji", map[string]uint32{Key(0x1F600): 1})
	buf := utf16Of(0x1F600)
	p := font.NewPaint(nil, "en", font.Normal, 0, 16)

	sink := f.ComplexLayout(buf, 0, len(buf), 0, len(buf), false, p, true, false)
	if len(sink.Glyphs) != 1 {
		t.Fatalf("expected 1 glyph, got %d", len(sink.Glyphs))
	}
	if sink.Advances[0] == 0 {
		t.Fatal("expected a non-zero advance at the cluster start")
	}
	for i := 1; i < len(sink.Advances); i++ {
		if sink.Advances[i] != 0 {
			t.Fatalf("advances[%d] should be zero (cluster-internal)", i)
		}
	}
}

// TestVS16FallbackMatchesBaseSequence covers the "miss with trailing VS16,
// retry without it" lookup path.
func TestVS16FallbackMatchesBaseSequence(t *testing.T) {
	f := New("emoji", map[string]uint32{Key(0x2764): 7}) // heart, no VS16 entry
	buf := utf16Of(0x2764, 0xFE0F)                        // heart + VS16
	p := font.NewPaint(nil, "en", font.Normal, 0, 16)

	sink := f.ComplexLayout(buf, 0, len(buf), 0, len(buf), false, p, true, false)
	if len(sink.Glyphs) != 1 {
		t.Fatalf("expected 1 glyph via VS16 fallback, got %d", len(sink.Glyphs))
	}
}

// TestVS16AppendFallbackMatchesPresentationSequence covers the "miss
// without VS15, retry with an appended VS16" lookup path.
func TestVS16AppendFallbackMatchesPresentationSequence(t *testing.T) {
	f := New("emoji", map[string]uint32{Key(0x2764, 0xFE0F): 7}) // only has the VS16 form
	buf := utf16Of(0x2764)                                        // bare heart, no VS
	p := font.NewPaint(nil, "en", font.Normal, 0, 16)

	sink := f.ComplexLayout(buf, 0, len(buf), 0, len(buf), false, p, true, false)
	if len(sink.Glyphs) != 1 {
		t.Fatalf("expected 1 glyph via appended-VS16 fallback, got %d", len(sink.Glyphs))
	}
}

// An unmatched cluster contributes no glyph and no advance.
func TestUnknownClusterContributesNothing(t *testing.T) {
	f := New("emoji", map[string]uint32{})
	buf := utf16Of(0x1F600)
	p := font.NewPaint(nil, "en", font.Normal, 0, 16)

	sink := f.ComplexLayout(buf, 0, len(buf), 0, len(buf), false, p, true, false)
	if len(sink.Glyphs) != 0 {
		t.Fatalf("expected no glyphs for an unmatched cluster, got %d", len(sink.Glyphs))
	}
	if sink.Advances[0] != 0 {
		t.Fatalf("expected a zero advance for an unmatched cluster")
	}
}

func TestCalcGlyphScoreStopsAtFirstMiss(t *testing.T) {
	f := New("emoji", map[string]uint32{Key(0x1F600): 1})
	buf := utf16Of(0x1F600, 'x')
	if got := f.CalcGlyphScore(buf, 0, len(buf)); got != 2 {
		t.Fatalf("got %d want 2 (the matched cluster's code unit width)", got)
	}
}

var _ font.Font = (*Font)(nil)
