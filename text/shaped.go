// SPDX-License-Identifier: Unlicense OR MIT

// ShapedText is the single-style, full-bidi shaping entry point: one text
// buffer, one Paint, shaped into one visually-ordered glyph stream
// regardless of how many bidi direction runs the paragraph contains.
package text

import (
	"modernui.dev/shaping/bidi"
	"modernui.dev/shaping/font"
	"modernui.dev/shaping/segment"
)

// BidiFlags selects how ShapedText resolves the direction of the text it
// shapes.
type BidiFlags int

const (
	// LTR and RTL force the whole call to a single direction without
	// running bidi analysis, same as the Override* flags; they are kept
	// distinct only because LTR/RTL require the passed buffer to BE the
	// entire paragraph context, whereas Override* allows a caller-sliced
	// window. This module always treats the passed buffer as the entire
	// context, so the two pairs are handled identically here.
	LTR BidiFlags = iota
	RTL
	DefaultLTR
	DefaultRTL
	OverrideLTR
	OverrideRTL
)

// Blob is the opaque text-blob handle handed to the renderer, segmented by
// font identity so a renderer can hand each segment to its own glyph
// source without re-deriving font boundaries from FontIndices.
type Blob struct {
	Segments []BlobSegment
}

// BlobSegment is one font-homogeneous slice of a ShapedText's Glyphs.
type BlobSegment struct {
	FontIndex        int
	GlyphStart, GlyphLimit int
}

// ShapedText is the immutable output of one Shape call.
type ShapedText struct {
	Glyphs      []font.Glyph
	FontIndices []byte // nil when every glyph used Fonts[0]
	Fonts       []font.Font

	Advances []float32 // indexed by code unit offset into [start,limit), or nil
	Advance  float32

	Ascent, Descent int32

	Blob Blob
}

// Shape shapes buf[start:limit] with paint, resolving direction per flags.
// buf is always treated as the entire analysis context; Override* callers
// are expected to have already sliced their window down to buf. cache is
// consulted per word; pass a shared *LayoutCache across calls to get its
// memoisation.
func Shape(buf []uint16, start, limit int, flags BidiFlags, paint font.Paint, cache *LayoutCache, computeAdvances bool) (*ShapedText, error) {
	if start < 0 || limit > len(buf) {
		return nil, &ContractError{Kind: KindRangeOutOfBounds, Start: start, Limit: limit}
	}
	if start > limit {
		return nil, &ContractError{Kind: KindReversedRange, Start: start, Limit: limit}
	}
	out := &ShapedText{}
	if limit == start {
		return out, nil
	}
	if computeAdvances {
		out.Advances = make([]float32, limit-start)
	}

	asm := newShapeAssembler(out, start, computeAdvances)
	contextStart, contextLimit := 0, len(buf)

	switch flags {
	case LTR, OverrideLTR:
		asm.doLayoutRun(cache, buf, contextStart, contextLimit, start, limit, false, paint)
	case RTL, OverrideRTL:
		asm.doLayoutRun(cache, buf, contextStart, contextLimit, start, limit, true, paint)
	default: // DefaultLTR, DefaultRTL
		def := bidi.LTR
		if flags == DefaultRTL {
			def = bidi.RTL
		}
		var an bidi.Analyser
		if err := an.SetPara(buf, def); err != nil {
			return nil, err
		}
		switch {
		case an.IsLeftToRight():
			asm.doLayoutRun(cache, buf, contextStart, contextLimit, start, limit, false, paint)
		case an.IsRightToLeft():
			asm.doLayoutRun(cache, buf, contextStart, contextLimit, start, limit, true, paint)
		default:
			for i := 0; i < an.GetRunCount(); i++ {
				run := an.GetVisualRun(i)
				s, l := max(run.Start, start), min(run.Limit, limit)
				if s >= l {
					continue
				}
				asm.doLayoutRun(cache, buf, contextStart, contextLimit, s, l, run.IsOddRun, paint)
			}
		}
	}

	asm.finish()
	return out, nil
}

// shapeAssembler accumulates words shaped via LayoutCache into one
// visually-ordered ShapedText, interning fonts into a single byte-indexed
// table as it goes.
type shapeAssembler struct {
	out          *ShapedText
	overallStart int
	wantAdvances bool

	fontIndex map[font.Font]int
	metrics   font.MetricsInt
}

func newShapeAssembler(out *ShapedText, overallStart int, wantAdvances bool) *shapeAssembler {
	return &shapeAssembler{out: out, overallStart: overallStart, wantAdvances: wantAdvances, fontIndex: make(map[font.Font]int)}
}

func (a *shapeAssembler) internFont(f font.Font) int {
	if idx, ok := a.fontIndex[f]; ok {
		return idx
	}
	idx := len(a.out.Fonts)
	a.out.Fonts = append(a.out.Fonts, f)
	a.fontIndex[f] = idx
	return idx
}

// doLayoutRun walks one bidi-homogeneous sub-range word by word, shaping
// each through cache and appending it to the assembler.
func (a *shapeAssembler) doLayoutRun(cache *LayoutCache, buf []uint16, contextStart, contextLimit, runStart, runLimit int, isRTL bool, paint font.Paint) {
	var flags ComputeFlags
	if a.wantAdvances {
		flags |= FlagAdvances
	}
	if isRTL {
		pos := runLimit
		for pos > runStart {
			wordStart := segment.PrevWordBreak(buf, runStart, runLimit, pos)
			piece := cache.GetOrCreate(buf, contextStart, contextLimit, wordStart, pos, isRTL, paint, flags)
			a.appendPiece(piece, wordStart)
			pos = wordStart
		}
	} else {
		pos := runStart
		for pos < runLimit {
			wordEnd := segment.NextWordBreak(buf, runStart, runLimit, pos)
			piece := cache.GetOrCreate(buf, contextStart, contextLimit, pos, wordEnd, isRTL, paint, flags)
			a.appendPiece(piece, pos)
			pos = wordEnd
		}
	}
}

// appendPiece appends one word's shaped glyphs, translating their x
// positions by the running cumulative advance and remapping their
// piece-local font indices through the assembler's global interning map.
func (a *shapeAssembler) appendPiece(piece *LayoutPiece, wordStart int) {
	cursor := a.out.Advance
	for gi, g := range piece.Glyphs {
		g.X += cursor
		a.out.Glyphs = append(a.out.Glyphs, g)

		fnt := piece.singleFont()
		if piece.FontIndices != nil {
			fnt = piece.Fonts[piece.FontIndices[gi]]
		}
		a.out.FontIndices = append(a.out.FontIndices, byte(a.internFont(fnt)))
	}
	if a.wantAdvances {
		for i, adv := range piece.Advances {
			a.out.Advances[wordStart-a.overallStart+i] = adv
		}
	}
	a.out.Advance += piece.Advance
	a.metrics.ExtendBy(piece.Ascent, piece.Descent)
}

// finish drops the FontIndices array when a single font covered every
// glyph and segments the glyph stream into font-homogeneous Blob segments.
func (a *shapeAssembler) finish() {
	a.out.Ascent = a.metrics.Ascent
	a.out.Descent = a.metrics.Descent

	if len(a.out.Fonts) <= 1 {
		a.out.FontIndices = nil
		if len(a.out.Glyphs) > 0 {
			a.out.Blob = Blob{Segments: []BlobSegment{{FontIndex: 0, GlyphStart: 0, GlyphLimit: len(a.out.Glyphs)}}}
		}
		return
	}

	var segs []BlobSegment
	start := 0
	for i := 1; i <= len(a.out.FontIndices); i++ {
		if i == len(a.out.FontIndices) || a.out.FontIndices[i] != a.out.FontIndices[start] {
			segs = append(segs, BlobSegment{FontIndex: int(a.out.FontIndices[start]), GlyphStart: start, GlyphLimit: i})
			start = i
		}
	}
	a.out.Blob = Blob{Segments: segs}
}
