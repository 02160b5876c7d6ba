// SPDX-License-Identifier: Unlicense OR MIT

// Package outline implements font.Font over a parsed TrueType/OpenType
// face, shaped by HarfBuzz via github.com/go-text/typesetting.
package outline

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	gotextfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"modernui.dev/shaping/font"
	"modernui.dev/shaping/segment"
)

// Face is a font.Font backed by a single parsed TrueType/OpenType face and
// HarfBuzz shaping.
type Face struct {
	face       gotextfont.Face
	style      font.Style
	familyName string
	fullName   string
}

// shaperContexts holds one HarfBuzz shaping context per antialias and
// linear-metrics flag combination, shared across every Face and serialised
// on a per-slot mutex. HarfbuzzShaper carries internal buffer state and is
// not safe for concurrent use; call paths through it are short enough that
// the shared-and-serialised model does not contend measurably.
var shaperContexts [4]struct {
	mu     sync.Mutex
	shaper shaping.HarfbuzzShaper
}

func shapeWithContext(flags font.RenderFlags, input shaping.Input) shaping.Output {
	ctx := &shaperContexts[flags&(font.FlagAntiAlias|font.FlagLinearMetrics)]
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.shaper.Shape(input)
}

// Parse constructs a Face from font file bytes, recording the style and
// display names the rest of this module needs (font.Family selects among
// styles; FullName and FamilyName are part of the font.Font contract).
func Parse(src []byte, style font.Style, familyName, fullName string) (*Face, error) {
	face, err := gotextfont.ParseTTF(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("font/outline: parse: %w", err)
	}
	return &Face{face: face, style: style, familyName: familyName, fullName: fullName}, nil
}

func (f *Face) Style() font.Style               { return f.style }
func (f *Face) FullName(locale string) string   { return f.fullName }
func (f *Face) FamilyName(locale string) string { return f.familyName }

// HasGlyph reports cmap coverage for cp. go-text/typesetting's NominalGlyph
// does not take a variation selector, so a requested variation sequence
// falls back to checking base-character coverage: the font can still shape
// something for the cluster.
func (f *Face) HasGlyph(cp rune, variationSelector rune) bool {
	_, ok := f.face.NominalGlyph(cp)
	return ok
}

// Metrics scales the face's font-wide extents to paint.Size.
func (f *Face) Metrics(p font.Paint) font.MetricsInt {
	extents, ok := f.face.FontHExtents()
	if !ok {
		size := int32(p.Size)
		return font.MetricsInt{Ascent: size, Descent: size / 4}
	}
	upem := float32(f.face.Upem())
	if upem == 0 {
		upem = 1000
	}
	scale := p.Size / upem
	return font.MetricsInt{
		Ascent:  int32(extents.Ascender*scale + 0.5),
		Descent: int32(-extents.Descender*scale + 0.5),
		Leading: int32(extents.LineGap*scale + 0.5),
	}
}

func (f *Face) SimpleLayout(buf []uint16, start, limit int, isRTL bool, p font.Paint) font.LayoutSink {
	return f.ComplexLayout(buf, start, limit, start, limit, isRTL, p, true, false)
}

// ComplexLayout shapes one bidi-homogeneous sub-run: visual-left-to-right
// glyph order (HarfbuzzShaper already emits glyphs in this order, so no
// reversal is applied here), context-bounded contextual shaping,
// cluster-aligned per-code-unit advances, pixel bounds union, and hinted
// rounding.
func (f *Face) ComplexLayout(buf []uint16, contextStart, contextLimit, layoutStart, layoutLimit int, isRTL bool, p font.Paint, computeAdvances, computeBounds bool) font.LayoutSink {
	var out font.LayoutSink
	if layoutLimit <= layoutStart {
		return out
	}

	runes, runeToUnit, unitToRune := decodeRange(buf, contextStart, contextLimit)
	// relLayoutStart/relLayoutLimit and every clusterStartUnit computed below
	// are code unit offsets relative to contextStart, matching runeToUnit.
	relLayoutStart := layoutStart - contextStart
	relLayoutLimit := layoutLimit - contextStart
	layoutStartRune := unitToRune[relLayoutStart]
	layoutLimitRune := unitToRune[relLayoutLimit]

	dir := di.DirectionLTR
	if isRTL {
		dir = di.DirectionRTL
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  layoutStartRune,
		RunEnd:    layoutLimitRune,
		Direction: dir,
		Face:      f.face,
		Size:      floatToFixed(p.Size),
		Script:    dominantScript(runes, layoutStartRune, layoutLimitRune),
		Language:  language.NewLanguage(p.Locale),
	}

	shaped := shapeWithContext(p.Flags, input)

	hinting := xfont.HintingNone
	if p.Flags.Hinted() {
		hinting = xfont.HintingFull
	}

	var advances []float32
	if computeAdvances {
		advances = make([]float32, relLayoutLimit-relLayoutStart)
	}

	var x fixed.Int26_6
	var clusterStartUnit = -1
	var clusterAdvance fixed.Int26_6
	flushCluster := func() {
		if clusterStartUnit < 0 || advances == nil {
			return
		}
		advances[clusterStartUnit-relLayoutStart] = fixedToFloat(clusterAdvance, hinting)
	}

	out.Glyphs = make([]font.Glyph, 0, len(shaped.Glyphs))
	for _, g := range shaped.Glyphs {
		unit := runeToUnit[g.ClusterIndex]
		if clusterStartUnit != unit {
			flushCluster()
			clusterStartUnit = unit
			clusterAdvance = 0
		}
		clusterAdvance += g.XAdvance

		gx := x + g.XOffset
		gy := -g.YOffset
		out.Glyphs = append(out.Glyphs, font.Glyph{
			ID:      uint32(g.GlyphID),
			X:       fixedToFloat(gx, hinting),
			Y:       fixedToFloat(gy, hinting),
			Advance: fixedToFloat(g.XAdvance, hinting),
		})
		if computeBounds {
			var r font.Rect
			r.MinX = fixedToFloat(gx+g.XBearing, hinting)
			r.MinY = fixedToFloat(gy-g.YBearing, hinting)
			r.MaxX = r.MinX + fixedToFloat(g.Width, hinting)
			r.MaxY = r.MinY + fixedToFloat(-g.Height, hinting)
			out.Bounds.Union(r)
		}
		x += g.XAdvance
	}
	flushCluster()
	out.Advances = advances
	return out
}

// CalcGlyphScore returns the length, in code units, of the longest prefix of
// buf[start:limit] whose code points all have cmap coverage.
func (f *Face) CalcGlyphScore(buf []uint16, start, limit int) int {
	pos := start
	for pos < limit {
		cp, w := segment.CodePointAt(buf[:limit], pos)
		if w == 0 {
			break
		}
		if _, ok := f.face.NominalGlyph(cp); !ok {
			break
		}
		pos += w
	}
	return pos - start
}

// decodeRange decodes buf[rangeStart:rangeLimit] into runes, plus the two
// offset tables needed to translate between code unit and rune index: for
// rune i, runeToUnit[i] is its code unit offset relative to rangeStart; for
// code unit offset k relative to rangeStart, unitToRune[k] is the index of
// the rune starting there or containing it.
func decodeRange(buf []uint16, rangeStart, rangeLimit int) (runes []rune, runeToUnit []int, unitToRune []int) {
	n := rangeLimit - rangeStart
	unitToRune = make([]int, n+1)
	pos := rangeStart
	for pos < rangeLimit {
		cp, w := segment.CodePointAt(buf[:rangeLimit], pos)
		if w == 0 {
			break
		}
		runeIdx := len(runes)
		runes = append(runes, cp)
		runeToUnit = append(runeToUnit, pos-rangeStart)
		for u := 0; u < w; u++ {
			unitToRune[pos-rangeStart+u] = runeIdx
		}
		pos += w
	}
	unitToRune[n] = len(runes)
	return runes, runeToUnit, unitToRune
}

// dominantScript returns the script of the first non-Common rune in the
// run, or Common if every rune in the run is script-neutral.
func dominantScript(runes []rune, start, limit int) language.Script {
	for i := start; i < limit; i++ {
		if s := language.LookupScript(runes[i]); s != language.Common {
			return s
		}
	}
	return language.Common
}

func floatToFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}

// fixedToFloat converts a 26.6 fixed-point value to float32 pixels. Under
// golang.org/x/image/font.HintingFull it applies ceil(v+0.95) rounding to
// snap the value to the integer pixel grid; HintingNone passes the linear
// value through.
func fixedToFloat(v fixed.Int26_6, hinting xfont.Hinting) float32 {
	f := float32(v) / 64
	if hinting == xfont.HintingNone {
		return f
	}
	return float32(math.Ceil(float64(f) + 0.95))
}
