// SPDX-License-Identifier: Unlicense OR MIT

// Package text implements the single-style and multi-style shaping entry
// points built on top of modernui.dev/shaping/font and
// modernui.dev/shaping/bidi: LayoutPiece (one word's shaped glyphs),
// LayoutCache (the bounded concurrent cache of those), ShapedText (one
// paint's worth of shaping over a whole buffer) and MeasuredText (a
// multi-style paragraph with queryable per-range advances and extents).
package text

import "modernui.dev/shaping/font"

// ComputeFlags selects which optional LayoutPiece fields a caller needs.
type ComputeFlags uint8

const (
	FlagAdvances ComputeFlags = 1 << iota
	FlagBounds
)

// LayoutPiece is the immutable shaped result for one bidi-homogeneous,
// word-bounded window of text. Glyphs are in visual
// left-to-right order regardless of isRTL.
type LayoutPiece struct {
	Glyphs      []font.Glyph
	FontIndices []byte // nil when every glyph used Fonts[0]
	Fonts       []font.Font

	Advances []float32 // indexed by code unit offset into [start,limit), or nil
	Advance  float32

	Ascent, Descent int32

	Bounds    font.Rect
	HasBounds bool

	ComputeFlags ComputeFlags
}

// NewLayoutPiece shapes buf[start:limit] within context [contextStart,
// contextLimit). hint, if non-nil, is a previously computed piece for the
// same cache key: when newFlags asks for no field hint lacks, hint is
// returned unchanged; otherwise the missing fields alone are computed fresh
// and spliced onto a copy that keeps hint's existing glyph stream untouched.
func NewLayoutPiece(buf []uint16, contextStart, contextLimit, start, limit int, isRTL bool, paint font.Paint, hint *LayoutPiece, newFlags ComputeFlags) *LayoutPiece {
	if hint != nil {
		missing := newFlags &^ hint.ComputeFlags
		if missing == 0 {
			return hint
		}
		fresh := computeFull(buf, contextStart, contextLimit, start, limit, isRTL, paint, hint.ComputeFlags|missing)
		out := *hint
		out.ComputeFlags = hint.ComputeFlags | missing
		if missing&FlagAdvances != 0 {
			out.Advances = fresh.Advances
		}
		if missing&FlagBounds != 0 {
			out.Bounds = fresh.Bounds
			out.HasBounds = true
		}
		return &out
	}
	return computeFull(buf, contextStart, contextLimit, start, limit, isRTL, paint, newFlags)
}

// computeFull performs the itemize-shape-reassemble sequence from scratch.
func computeFull(buf []uint16, contextStart, contextLimit, start, limit int, isRTL bool, paint font.Paint, flags ComputeFlags) *LayoutPiece {
	p := &LayoutPiece{ComputeFlags: flags}
	if limit <= start {
		return p
	}

	runs := paint.Collection.Itemize(buf, start, limit, 0)
	order := make([]int, len(runs))
	for i := range order {
		order[i] = i
	}
	if isRTL {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	computeAdvances := flags&FlagAdvances != 0
	computeBounds := flags&FlagBounds != 0
	if computeAdvances {
		p.Advances = make([]float32, limit-start)
	}

	var faces []font.Font
	faceIndex := make(map[font.Font]int)
	var cursor float32
	var metrics font.MetricsInt

	for _, idx := range order {
		run := runs[idx]
		fnt := run.Family.GetClosestMatch(paint.Style)
		sink := fnt.ComplexLayout(buf, contextStart, contextLimit, run.Start, run.Limit, isRTL, paint, computeAdvances, computeBounds)

		fi, ok := faceIndex[fnt]
		if !ok {
			fi = len(faces)
			faces = append(faces, fnt)
			faceIndex[fnt] = fi
		}

		var runAdvance float32
		for _, g := range sink.Glyphs {
			g.X += cursor
			p.Glyphs = append(p.Glyphs, g)
			p.FontIndices = append(p.FontIndices, byte(fi))
			if !computeAdvances {
				runAdvance += g.Advance
			}
		}
		if computeAdvances {
			for i, a := range sink.Advances {
				p.Advances[run.Start-start+i] = a
				runAdvance += a
			}
		}
		if computeBounds {
			rb := sink.Bounds
			rb.MinX += cursor
			rb.MaxX += cursor
			p.Bounds.Union(rb)
		}

		cursor += runAdvance
		m := fnt.Metrics(paint)
		metrics.ExtendBy(m.Ascent, m.Descent, m.Leading)
	}

	p.Advance = cursor
	p.Ascent = metrics.Ascent
	p.Descent = metrics.Descent
	p.Fonts = faces
	p.HasBounds = computeBounds
	if len(faces) <= 1 {
		p.FontIndices = nil
	}
	return p
}

// singleFont returns the one font every glyph in p used, valid only when
// p.FontIndices is nil; callers that need per-glyph attribution when
// FontIndices IS set must index p.Fonts themselves.
func (p *LayoutPiece) singleFont() font.Font {
	if len(p.Fonts) == 0 {
		return nil
	}
	return p.Fonts[0]
}
