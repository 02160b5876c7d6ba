// SPDX-License-Identifier: Unlicense OR MIT

// Package font provides the capability-set abstraction over a single
// rasterisable face (Font), a style-variant family (Family), and an
// ordered fallback list (Collection) with its itemizer. It depends only on
// modernui.dev/shaping/segment for code-point classification; it knows
// nothing about glyph caching or bidi.
package font

// Style is a bitfield: the zero value is normal, with Bold and Italic
// combinable.
type Style uint8

const (
	Normal Style = 0
	Bold   Style = 1 << 0
	Italic Style = 1 << 1
)

func (s Style) String() string {
	switch s {
	case Normal:
		return "Normal"
	case Bold:
		return "Bold"
	case Italic:
		return "Italic"
	case Bold | Italic:
		return "BoldItalic"
	default:
		return "Style(?)"
	}
}

// Paint is the immutable-by-convention set of attributes that identify a
// shaping request: font collection, locale, style, rendering flags and
// size. Every field participates in LayoutCache key equality
// (isMetricAffecting compares them all).
type Paint struct {
	Collection *Collection
	Locale     string
	Style      Style
	Flags      RenderFlags
	// Size is already canonicalised to the SizeQuantum grid and clamped to
	// [MinSize, MaxSize] by NewPaint; callers constructing a Paint by hand
	// must do the same to keep cache keys well-formed.
	Size float32
}

// RenderFlags controls rendering-affecting, non-geometric shaping
// behaviour.
type RenderFlags uint8

const (
	FlagAntiAlias    RenderFlags = 1 << 0
	FlagLinearMetrics RenderFlags = 1 << 1
)

// Hinted reports whether glyph placement should be rounded to the integer
// pixel grid, i.e. linear metrics are NOT requested.
func (f RenderFlags) Hinted() bool {
	return f&FlagLinearMetrics == 0
}

const (
	// MinSize and MaxSize bound Paint.Size.
	MinSize = 1
	MaxSize = 2184
	// SizeQuantum is the granularity font sizes are rounded to before
	// being used as a cache key.
	SizeQuantum = 0.25
)

// CanonicalSize clamps size to [MinSize, MaxSize] and rounds it to the
// nearest multiple of SizeQuantum.
func CanonicalSize(size float32) float32 {
	if size < MinSize {
		size = MinSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	q := float32(SizeQuantum)
	return float32(int(size/q+0.5)) * q
}

// NewPaint returns a Paint with its Size canonicalised.
func NewPaint(collection *Collection, locale string, style Style, flags RenderFlags, size float32) Paint {
	return Paint{
		Collection: collection,
		Locale:     locale,
		Style:      style,
		Flags:      flags,
		Size:       CanonicalSize(size),
	}
}

// IsMetricAffecting reports whether two paints could produce different
// shaping output: every field is compared, matching the reference
// contract.
func (p Paint) IsMetricAffecting(o Paint) bool {
	return p != o
}

// MetricsInt holds non-negative font metrics. Ascent is recorded as a
// positive distance above the baseline; renderers that want ascent negative
// must negate consistently at their boundary, never inside this module.
type MetricsInt struct {
	Ascent, Descent, Leading int32
}

// ExtendBy grows m to the envelope (max) of its current metrics and the
// given ones.
func (m *MetricsInt) ExtendBy(ascent, descent int32, leading ...int32) {
	if ascent > m.Ascent {
		m.Ascent = ascent
	}
	if descent > m.Descent {
		m.Descent = descent
	}
	if len(leading) > 0 && leading[0] > m.Leading {
		m.Leading = leading[0]
	}
}

// Glyph is a minimal positioned glyph, shared by every Font implementation's
// *Layout methods so that outline and emoji fonts can be driven
// uniformly by the rest of the engine.
type Glyph struct {
	ID       uint32
	X, Y     float32
	Advance  float32
}

// LayoutSink receives the output of Font.ComplexLayout/SimpleLayout: glyphs
// in visual left-to-right order, per-code-unit advances (only cluster-
// leading entries non-zero) when requested, and pixel bounds when
// requested.
type LayoutSink struct {
	Glyphs   []Glyph
	Advances []float32 // indexed by code unit offset into the layout range, or nil
	Bounds   Rect       // accumulated only when requested
}

// Rect is an axis-aligned pixel rectangle, accumulated by union.
type Rect struct {
	MinX, MinY, MaxX, MaxY float32
}

// Union grows r to cover o.
func (r *Rect) Union(o Rect) {
	if o.MinX < r.MinX {
		r.MinX = o.MinX
	}
	if o.MinY < r.MinY {
		r.MinY = o.MinY
	}
	if o.MaxX > r.MaxX {
		r.MaxX = o.MaxX
	}
	if o.MaxY > r.MaxY {
		r.MaxY = o.MaxY
	}
}

// Font is the capability set a renderable typeface must provide. A single
// implementation may be an outline (vector) font or a pseudo-font such as
// the emoji table font; both satisfy this same interface.
type Font interface {
	// Style is the style variant this Font instance represents.
	Style() Style
	// FullName and FamilyName return the font's user-facing names for the
	// given BCP-47 locale.
	FullName(locale string) string
	FamilyName(locale string) string
	// HasGlyph reports whether the font can render cp, optionally
	// requesting a variation sequence (0 for none).
	HasGlyph(cp rune, variationSelector rune) bool
	// Metrics returns this font's metrics at the given paint's canonical
	// size.
	Metrics(paint Paint) MetricsInt
	// SimpleLayout shapes text with no contextual shaping, used for
	// scoring/measurement fast paths.
	SimpleLayout(buf []uint16, start, limit int, isRTL bool, paint Paint) LayoutSink
	// ComplexLayout shapes buf[layoutStart:layoutLimit] with contextual
	// shaping bounded by [contextStart, contextLimit), emitting glyphs in
	// visual left-to-right order regardless of isRTL.
	ComplexLayout(buf []uint16, contextStart, contextLimit, layoutStart, layoutLimit int, isRTL bool, paint Paint, computeAdvances, computeBounds bool) LayoutSink
	// CalcGlyphScore returns the length, in code units, of the longest
	// prefix of buf[start:limit] this font can render, with a slight
	// penalty baked in by callers for logical/fallback fonts.
	CalcGlyphScore(buf []uint16, start, limit int) int
}
