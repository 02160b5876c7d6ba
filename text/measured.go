// SPDX-License-Identifier: Unlicense OR MIT

// MeasuredText is the multi-style paragraph measurement layer: a buffer
// carrying several independently-styled runs, each already shaped,
// exposing a dense per-code-unit advances array plus range queries for
// advance sums, ascent/descent extent, and the constituent LayoutPieces
// covering a range.
package text

import (
	"sort"

	"modernui.dev/shaping/font"
	"modernui.dev/shaping/segment"
)

// LineBreakStyle tags a style run with the strictness a downstream line
// breaker should apply to it. Line breaking itself happens above this layer;
// the tag is only carried through measurement.
type LineBreakStyle uint8

const (
	LineBreakStyleNone LineBreakStyle = iota
	LineBreakStyleLoose
	LineBreakStyleNormal
	LineBreakStyleStrict
)

// LineBreakWordStyle tags a style run with the word-level break policy a
// downstream line breaker should apply (phrase-based breaking keeps
// multi-word phrases together in CJK text).
type LineBreakWordStyle uint8

const (
	LineBreakWordStyleNone LineBreakWordStyle = iota
	LineBreakWordStylePhrase
)

// styleRun is the post-build state of one addStyleRun call: its paint,
// direction, and line-break tags, plus (if requested) the LayoutPieces that
// shaped it, in logical (ascending-offset) order regardless of direction, so
// Pieces returns them in logical order.
type styleRun struct {
	paint       font.Paint
	isRTL       bool
	breakStyle  LineBreakStyle
	breakWord   LineBreakWordStyle
	pieces      []stylePiece // nil unless computeLayout was requested
}

// stylePiece is one constituent LayoutPiece of a styleRun, with its bounds
// in the run's logical (code-unit) space.
type stylePiece struct {
	piece      *LayoutPiece
	start, end int
}

// replacementRun is the post-build state of one AddReplacementRun call. Its
// ascent/descent are always zero; they are stored here at construction time
// rather than special-cased in GetExtent.
type replacementRun struct {
	locale          string
	width           float32
	ascent, descent int32
}

// run is one tile of a MeasuredText's buffer: exactly one of style or
// replacement is non-nil.
type run struct {
	start, limit int
	style        *styleRun
	replacement  *replacementRun
}

// MeasuredText is the immutable result of Builder.Build.
type MeasuredText struct {
	buf      []uint16
	cache    *LayoutCache
	runs     []run
	advances []float32 // len(buf); non-zero only at cluster/run-leading offsets
}

// Builder constructs a MeasuredText one run at a time; its cursor must
// exactly reach len(buf) before Build.
type Builder struct {
	buf      []uint16
	cache    *LayoutCache
	cursor   int
	runs     []run
	advances []float32
	built    bool

	breakStyle LineBreakStyle
	breakWord  LineBreakWordStyle
}

// NewBuilder starts building a MeasuredText over buf, shaping style runs
// through cache.
func NewBuilder(buf []uint16, cache *LayoutCache) *Builder {
	return &Builder{buf: buf, cache: cache}
}

// SetLineBreak sets the line-break tags applied to style runs added after
// this call; the builder starts with both tags at their None values.
func (b *Builder) SetLineBreak(style LineBreakStyle, wordStyle LineBreakWordStyle) {
	b.breakStyle = style
	b.breakWord = wordStyle
}

// AddStyleRun appends a style run of length code units, shaped with paint
// in the given direction. computeLayout requests that the constituent
// LayoutPieces be retained for later GetExtent/Pieces queries.
func (b *Builder) AddStyleRun(paint font.Paint, length int, isRTL, computeLayout bool) error {
	start, limit, err := b.reserve(length)
	if err != nil {
		return err
	}
	var flags ComputeFlags = FlagAdvances
	sr := &styleRun{paint: paint, isRTL: isRTL, breakStyle: b.breakStyle, breakWord: b.breakWord}
	layoutStyleRun(b.cache, b.buf, start, limit, isRTL, paint, flags, computeLayout, b.advancesSlot(), sr)
	b.runs = append(b.runs, run{start: start, limit: limit, style: sr})
	return nil
}

// AddReplacementRun appends a run standing in for an externally-rendered
// object (an inline image, say) of the given width; it contributes that
// width at its first code unit only.
func (b *Builder) AddReplacementRun(locale string, length int, width float32) error {
	start, _, err := b.reserve(length)
	if err != nil {
		return err
	}
	b.advancesAt(start, width)
	b.runs = append(b.runs, run{start: start, limit: start + length, replacement: &replacementRun{locale: locale, width: width}})
	return nil
}

func (b *Builder) reserve(length int) (start, limit int, err error) {
	if b.built {
		return 0, 0, &ContractError{Kind: KindBuilderReused}
	}
	start = b.cursor
	limit = start + length
	if length < 0 || limit > len(b.buf) {
		return 0, 0, &ContractError{Kind: KindRangeOutOfBounds, Start: start, Limit: limit}
	}
	b.cursor = limit
	return start, limit, nil
}

// advancesSlot lazily allocates the paragraph-wide advances array on first
// use, so a Builder for an empty buffer never allocates.
func (b *Builder) advancesSlot() []float32 {
	if b.advances == nil && len(b.buf) > 0 {
		b.advances = make([]float32, len(b.buf))
	}
	return b.advances
}

func (b *Builder) advancesAt(pos int, v float32) {
	b.advancesSlot()
	if b.advances != nil {
		b.advances[pos] = v
	}
}

// Build finalises the buffer. The cursor must have exactly reached
// len(b.buf); the Builder must not be reused afterwards.
func (b *Builder) Build() (*MeasuredText, error) {
	if b.built {
		return nil, &ContractError{Kind: KindBuilderReused}
	}
	if b.cursor != len(b.buf) {
		return nil, &ContractError{Kind: KindRangeOutOfBounds, Start: b.cursor, Limit: len(b.buf)}
	}
	b.built = true
	advances := b.advances
	if advances == nil {
		advances = make([]float32, len(b.buf))
	}
	return &MeasuredText{buf: b.buf, cache: b.cache, runs: b.runs, advances: advances}, nil
}

// layoutStyleRun shapes one style run word by word through cache (mirroring
// shapeAssembler.doLayoutRun, but writing directly into the paragraph-wide
// advances array instead of a private ShapedText buffer) and, if
// computeLayout, records each constituent piece in logical order.
func layoutStyleRun(cache *LayoutCache, buf []uint16, start, limit int, isRTL bool, paint font.Paint, flags ComputeFlags, computeLayout bool, advances []float32, sr *styleRun) {
	emit := func(wordStart, wordEnd int, piece *LayoutPiece) {
		for i, a := range piece.Advances {
			advances[wordStart+i] = a
		}
		if computeLayout {
			sr.pieces = append(sr.pieces, stylePiece{piece: piece, start: wordStart, end: wordEnd})
		}
	}
	if isRTL {
		pos := limit
		for pos > start {
			wordStart := segment.PrevWordBreak(buf, start, limit, pos)
			piece := cache.GetOrCreate(buf, start, limit, wordStart, pos, isRTL, paint, flags)
			emit(wordStart, pos, piece)
			pos = wordStart
		}
		if computeLayout {
			sort.Slice(sr.pieces, func(i, j int) bool { return sr.pieces[i].start < sr.pieces[j].start })
		}
	} else {
		pos := start
		for pos < limit {
			wordEnd := segment.NextWordBreak(buf, start, limit, pos)
			piece := cache.GetOrCreate(buf, start, limit, pos, wordEnd, isRTL, paint, flags)
			emit(pos, wordEnd, piece)
			pos = wordEnd
		}
	}
}

// GetAdvance returns the advance recorded at code unit pos: non-zero only
// when pos is a cluster- or replacement-run-leading offset.
func (m *MeasuredText) GetAdvance(pos int) float32 {
	return m.advances[pos]
}

// GetAdvanceRange sums the advances over [start, end).
func (m *MeasuredText) GetAdvanceRange(start, end int) float32 {
	var sum float32
	for i := start; i < end; i++ {
		sum += m.advances[i]
	}
	return sum
}

// Extent is an ascent/descent envelope returned by GetExtent.
type Extent struct {
	Ascent, Descent int32
}

func (e *Extent) extendBy(a, d int32) {
	if a > e.Ascent {
		e.Ascent = a
	}
	if d > e.Descent {
		e.Descent = d
	}
}

// findRunContaining returns the index of the run covering code unit pos
// (or len(m.runs) if pos is at or past the end of the buffer), linearly
// scanning short run lists and binary-searching longer ones.
func (m *MeasuredText) findRunContaining(pos int) int {
	if len(m.runs) < 8 {
		for i := range m.runs {
			if pos < m.runs[i].limit {
				return i
			}
		}
		return len(m.runs)
	}
	lo, hi := 0, len(m.runs)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.runs[mid].limit <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// GetExtent returns the ascent/descent envelope of every run overlapping
// [start, end): whole overlapping runs consult their cached pieces (or the
// replacement's stored extent), and a run only partially overlapping the
// range is re-shaped for just the overlapping slice via cache.
func (m *MeasuredText) GetExtent(start, end int) Extent {
	var ext Extent
	for i := m.findRunContaining(start); i < len(m.runs) && m.runs[i].start < end; i++ {
		r := &m.runs[i]
		s, l := max(start, r.start), min(end, r.limit)
		if s >= l {
			continue
		}
		a, d := m.runExtent(r, s, l)
		ext.extendBy(a, d)
	}
	return ext
}

func (m *MeasuredText) runExtent(r *run, s, l int) (int32, int32) {
	if r.replacement != nil {
		return r.replacement.ascent, r.replacement.descent
	}
	sr := r.style
	if s == r.start && l == r.limit {
		var ext Extent
		for _, p := range sr.pieces {
			ext.extendBy(p.piece.Ascent, p.piece.Descent)
		}
		if len(sr.pieces) > 0 {
			return ext.Ascent, ext.Descent
		}
	}
	piece := m.cache.GetOrCreate(m.buf, r.start, r.limit, s, l, sr.isRTL, sr.paint, FlagAdvances)
	return piece.Ascent, piece.Descent
}

// Pieces returns the constituent LayoutPieces overlapping [start, end), in
// logical order, for style runs built with computeLayout=true. Replacement
// runs and style runs built without computeLayout contribute nothing.
func (m *MeasuredText) Pieces(start, end int) []*LayoutPiece {
	var out []*LayoutPiece
	for i := m.findRunContaining(start); i < len(m.runs) && m.runs[i].start < end; i++ {
		r := &m.runs[i]
		if r.style == nil {
			continue
		}
		for _, p := range r.style.pieces {
			if p.start < end && p.end > start {
				out = append(out, p.piece)
			}
		}
	}
	return out
}

// LineBreakAt returns the line-break tags of the style run covering code
// unit pos, or the None values for a replacement run or an out-of-range
// position.
func (m *MeasuredText) LineBreakAt(pos int) (LineBreakStyle, LineBreakWordStyle) {
	i := m.findRunContaining(pos)
	if i >= len(m.runs) || m.runs[i].style == nil {
		return LineBreakStyleNone, LineBreakWordStyleNone
	}
	sr := m.runs[i].style
	return sr.breakStyle, sr.breakWord
}

// Len returns the number of code units in the backing buffer.
func (m *MeasuredText) Len() int { return len(m.buf) }
