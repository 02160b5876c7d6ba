// SPDX-License-Identifier: Unlicense OR MIT

// Package emoji implements a pseudo-font that matches emoji sequences
// against a fixed multi-codepoint table rather than rasterising glyph
// outlines itself.
package emoji

import (
	"sync"

	"modernui.dev/shaping/font"
	"modernui.dev/shaping/segment"
)

// baseSize and baseSpacing are fractions of the requested font size that
// make up one emoji's fixed advance:
// advance = (baseSize + 2*baseSpacing) * fontSize.
const (
	baseSize    = 1.0
	baseSpacing = 0.1
)

// Font matches grapheme clusters the shared GraphemeBreak algorithm
// produces against a table of known emoji sequences.
type Font struct {
	name string
	// table maps a UTF-16-encoded emoji sequence (its code units packed
	// big-endian into a string, as Key builds it) to a glyph id.
	table map[string]uint32

	mu      sync.Mutex
	scratch segment.Builder
}

// New constructs an EmojiFont from a table of UTF-16 cluster -> glyph id.
// Keys must be built with Key, which encodes a code point sequence the same
// way cluster lookups encode the buffer slice they probe with.
func New(name string, entries map[string]uint32) *Font {
	f := &Font{name: name, table: make(map[string]uint32, len(entries))}
	for k, v := range entries {
		f.table[k] = v
	}
	return f
}

// Key builds the lookup key for a sequence of code points, matching the
// encoding New's entries use.
func Key(codepoints ...rune) string {
	var b segment.Builder
	for _, cp := range codepoints {
		b.AddCodePoint(cp)
	}
	return string(units16ToString(b.Units()))
}

func units16ToString(units []uint16) []byte {
	b := make([]byte, len(units)*2)
	for i, u := range units {
		b[2*i] = byte(u >> 8)
		b[2*i+1] = byte(u)
	}
	return b
}

func clusterKey(buf []uint16, start, limit int) string {
	return string(units16ToString(buf[start:limit]))
}

func (f *Font) Style() font.Style          { return font.Normal }
func (f *Font) FullName(string) string     { return f.name }
func (f *Font) FamilyName(string) string   { return f.name }

// HasGlyph reports coverage for a single code point by probing the table
// for the one- or two-code-unit sequence that encodes it, optionally with
// a trailing variation selector.
func (f *Font) HasGlyph(cp rune, variationSelector rune) bool {
	var b segment.Builder
	b.AddCodePoint(cp)
	if variationSelector != 0 {
		b.AddCodePoint(variationSelector)
	}
	_, ok := f.table[string(units16ToString(b.Units()))]
	return ok
}

// Metrics returns a fixed metrics envelope proportional to font size: the
// pseudo-font has no real ascent/descent of its own, so it reports a
// conservative envelope derived from size alone.
func (f *Font) Metrics(p font.Paint) font.MetricsInt {
	size := int32(p.Size)
	return font.MetricsInt{Ascent: size, Descent: size / 5}
}

func (f *Font) SimpleLayout(buf []uint16, start, limit int, isRTL bool, p font.Paint) font.LayoutSink {
	return f.ComplexLayout(buf, start, limit, start, limit, isRTL, p, true, false)
}

// ComplexLayout shapes cluster-by-cluster: grapheme clusters come from the
// shared grapheme breaker, each is looked up verbatim; on a miss it is
// retried once, with VS16 stripped if it ends in VS16, or with VS16
// appended if it does not end in VS15. A cluster that misses its lookups
// contributes nothing.
func (f *Font) ComplexLayout(buf []uint16, contextStart, contextLimit, layoutStart, layoutLimit int, isRTL bool, p font.Paint, computeAdvances, computeBounds bool) font.LayoutSink {
	var out font.LayoutSink
	advance := float32(baseSize+2*baseSpacing) * p.Size
	var advances []float32
	if computeAdvances {
		advances = make([]float32, layoutLimit-layoutStart)
	}

	var clusters []emojiCluster
	pos := layoutStart
	for pos < layoutLimit {
		next := segment.Following(buf, contextStart, contextLimit, pos, nil)
		if next > layoutLimit {
			next = layoutLimit
		}
		clusters = append(clusters, emojiCluster{pos, next})
		pos = next
	}

	emit := func(c emojiCluster, gid uint32) {
		out.Glyphs = append(out.Glyphs, font.Glyph{ID: gid, Advance: advance})
		if advances != nil {
			advances[c.start-layoutStart] = advance
		}
	}

	if isRTL {
		for i := len(clusters) - 1; i >= 0; i-- {
			f.shapeCluster(buf, clusters[i], emit)
		}
	} else {
		for _, c := range clusters {
			f.shapeCluster(buf, c, emit)
		}
	}
	out.Advances = advances
	return out
}

// emojiCluster is a grapheme-cluster-aligned slice of the layout range.
type emojiCluster struct{ start, limit int }

func (f *Font) shapeCluster(buf []uint16, c emojiCluster, emit func(c emojiCluster, gid uint32)) {
	start, limit := c.start, c.limit
	if gid, ok := f.table[clusterKey(buf, start, limit)]; ok {
		emit(c, gid)
		return
	}
	if limit > start && buf[limit-1] == uint16(segment.VariationSelectorEmoji) {
		if gid, ok := f.table[clusterKey(buf, start, limit-1)]; ok {
			emit(c, gid)
			return
		}
	} else if limit == start || buf[limit-1] != uint16(segment.VariationSelectorText) {
		f.mu.Lock()
		f.scratch.Reset()
		f.scratch.AppendSlice(buf, start, limit)
		f.scratch.AddCodePoint(segment.VariationSelectorEmoji)
		key := string(units16ToString(f.scratch.Units()))
		f.mu.Unlock()
		if gid, ok := f.table[key]; ok {
			emit(c, gid)
			return
		}
	}
	// No match: the cluster contributes no glyph and no advance; a later
	// itemization pass hands it to a covering font.
}

// CalcGlyphScore returns the number of leading code units this font can
// render as emoji clusters, stopping at the first cluster with no match.
func (f *Font) CalcGlyphScore(buf []uint16, start, limit int) int {
	pos := start
	for pos < limit {
		next := segment.Following(buf, start, limit, pos, nil)
		if next > limit {
			next = limit
		}
		if _, ok := f.table[clusterKey(buf, pos, next)]; !ok {
			break
		}
		pos = next
	}
	return pos - start
}

var _ font.Font = (*Font)(nil)
