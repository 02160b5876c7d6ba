// SPDX-License-Identifier: Unlicense OR MIT

package segment

import "unicode"

// Property is a tailored Grapheme_Cluster_Break classification, after the
// curated format-control and Thai overrides have been applied.
type Property uint8

const (
	propOther Property = iota
	propCR
	propLF
	propControl
	propExtend
	propZWJ
	propRegionalIndicator
	propPrepend
	propSpacingMark
	propL
	propV
	propT
	propLV
	propLVT
	propExtendedPictographic
)

// UseReferenceBreaker selects the simplified, non-tailored classifier kept
// for cross-checking in tests. It is a process-wide switch, not a per-call
// option.
var UseReferenceBreaker = false

// hangul syllable block boundaries.
const (
	hangulLStart  = 0x1100
	hangulLEnd    = 0x115F
	hangulLExtEnd = 0xA97C
	hangulLExt    = 0xA960
	hangulVStart  = 0x1160
	hangulVEnd    = 0x11A7
	hangulVExt    = 0xD7B0
	hangulVExtEnd = 0xD7C6
	hangulTStart  = 0x11A8
	hangulTEnd    = 0x11FF
	hangulTExt    = 0xD7CB
	hangulTExtEnd = 0xD7FB
	hangulSStart  = 0xAC00
	hangulSEnd    = 0xD7A3
	hangulSCount  = hangulSEnd - hangulSStart + 1
	hangulTCount  = 28
)

func propertyFor(r rune) Property {
	switch {
	case r == '\r':
		return propCR
	case r == '\n':
		return propLF
	case r == 0x0E33: // THAI CHARACTER SARA AM is treated as a base, not a mark.
		return propOther
	case isCuratedExtendOverride(r):
		return propExtend
	case r == ZeroWidthJoiner:
		return propZWJ
	case IsRegionalIndicatorSymbol(r):
		return propRegionalIndicator
	case isPrepend(r):
		return propPrepend
	case isHangulL(r):
		return propL
	case isHangulV(r):
		return propV
	case isHangulT(r):
		return propT
	case isHangulSyllable(r):
		if (r-hangulSStart)%hangulTCount == 0 {
			return propLV
		}
		return propLVT
	case IsEmojiModifier(r): // skin tone modifiers are Extend, not Extended_Pictographic
		return propExtend
	case isExtendedPictographic(r):
		return propExtendedPictographic
	case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Me, r):
		return propExtend
	case unicode.Is(unicode.Mc, r):
		return propSpacingMark
	case unicode.IsControl(r), unicode.Is(unicode.Cf, r), unicode.Is(unicode.Zl, r), unicode.Is(unicode.Zp, r):
		return propControl
	default:
		return propOther
	}
}

// isCuratedExtendOverride lists the format controls treated as EXTEND
// regardless of their default Grapheme_Cluster_Break value: soft
// hyphen, ALM, bidi controls, BOM, variation selectors, the language tag,
// and the tag character range used by emoji subdivision-flag sequences.
func isCuratedExtendOverride(r rune) bool {
	switch {
	case r == 0x00AD: // SOFT HYPHEN
		return true
	case r == 0x061C: // ARABIC LETTER MARK
		return true
	case r == 0x200C || r == 0x200E: // ZWNJ, LRM (ZWJ handled separately)
		return true
	case r >= 0x202A && r <= 0x202E:
		return true
	case r >= 0x2066 && r <= 0x2069:
		return true
	case r == 0xFEFF:
		return true
	case IsVariationSelector(r):
		return true
	case IsTagSpecChar(r):
		return true
	case r == 0xE0001: // language tag
		return true
	default:
		return false
	}
}

// prependSet holds the (small) Unicode Prepend-class code points.
var prependSet = map[rune]bool{
	0x0600: true, 0x0601: true, 0x0602: true, 0x0603: true, 0x0604: true,
	0x0605: true, 0x06DD: true, 0x070F: true, 0x0890: true, 0x0891: true,
	0x08E2: true, 0x0D4E: true, 0x110BD: true, 0x110CD: true,
	0x111C2: true, 0x111C3: true, 0x1193F: true, 0x11941: true,
	0x11A3A: true, 0x11A84: true, 0x11A85: true, 0x11A86: true,
	0x11A87: true, 0x11A88: true, 0x11A89: true, 0x11D46: true,
}

func isPrepend(r rune) bool { return prependSet[r] }

func isHangulL(r rune) bool {
	return (r >= hangulLStart && r <= hangulLEnd) || (r >= hangulLExt && r <= hangulLExtEnd)
}

func isHangulV(r rune) bool {
	return (r >= hangulVStart && r <= hangulVEnd) || (r >= hangulVExt && r <= hangulVExtEnd)
}

func isHangulT(r rune) bool {
	return (r >= hangulTStart && r <= hangulTEnd) || (r >= hangulTExt && r <= hangulTExtEnd)
}

func isHangulSyllable(r rune) bool {
	return r >= hangulSStart && r <= hangulSEnd
}

// isExtendedPictographic approximates the Unicode Extended_Pictographic
// property with the blocks that hold the overwhelming majority of assigned
// pictographic code points. It is intentionally conservative rather than
// byte-for-byte faithful to the property table, which this module does not
// vendor; see DESIGN.md.
func isExtendedPictographic(r rune) bool {
	switch {
	case r == 0x2139, r >= 0x2194 && r <= 0x2199, r >= 0x21A9 && r <= 0x21AA:
		return true
	case r >= 0x231A && r <= 0x231B, r == 0x2328, r == 0x23CF:
		return true
	case r >= 0x23E9 && r <= 0x23F3, r >= 0x23F8 && r <= 0x23FA:
		return true
	case r == 0x24C2, r >= 0x25AA && r <= 0x25AB, r == 0x25B6, r == 0x25C0:
		return true
	case r >= 0x25FB && r <= 0x25FE:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2934 && r <= 0x2935, r >= 0x2B05 && r <= 0x2B07:
		return true
	case r >= 0x2B1B && r <= 0x2B1C, r == 0x2B50, r == 0x2B55:
		return true
	case r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		return true
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	default:
		return false
	}
}

// viramaCCC9 lists the common-script combining marks with
// Canonical_Combining_Class 9 ("virama"-like, script-specific vowel
// killers) that participate in the Indic no-break tailoring.
var viramaCCC9 = map[rune]bool{
	0x094D: true, // Devanagari
	0x09CD: true, // Bengali
	0x0A4D: true, // Gurmukhi
	0x0ACD: true, // Gujarati
	0x0B4D: true, // Oriya
	0x0BCD: true, // Tamil
	0x0C4D: true, // Telugu
	0x0CCD: true, // Kannada
	0x0D4D: true, // Malayalam
	0x0DCA: true, // Sinhala
	0x0E3A: true, // Thai Phinthu
	0x0F84: true, // Tibetan Halanta
	0x1039: true, // Myanmar Virama
	0x17D2: true, // Khmer Virama
	0xA8C4: true, // Saurashtra Virama
	0xA9C0: true, // Javanese Pangkon
	0x11046: true, // Brahmi Virama
}

// pureKiller holds the subset of viramaCCC9 entries that Unicode classifies
// Indic_Syllabic_Category=Pure_Killer: the vowel is dropped outright with no
// visual conjunct formed, so they must NOT trigger the Indic no-break
// tailoring even though they carry ccc=9. This module approximates the
// reference's 17-entry table with the scripts known to behave this way; see
// DESIGN.md for the open-question tradeoff.
var pureKiller = map[rune]bool{
	0x0BCD: true, // Tamil virama is always a pure killer.
	0x0E3A: true, // Thai Phinthu does not form conjuncts.
	0x0F84: true, // Tibetan Halanta does not form conjuncts.
	0xA9C0: true, // Javanese Pangkon.
}

func isVirama(r rune) bool {
	return viramaCCC9[r] && !pureKiller[r]
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

// IsBoundary reports whether offset is a grapheme cluster boundary within
// buf, considering only the window [contextStart, contextLimit). hasAdvance,
// if non-nil, is consulted for offsets where GB11/GB12/GB13 are
// font-dependent: a true return means the font already produced a distinct
// glyph ending at that offset, which this module trusts over the
// font-ignorant heuristic uniformly, never alternating per fallback state.
func IsBoundary(buf []uint16, contextStart, contextLimit, offset int, hasAdvance func(int) bool) bool {
	if offset <= contextStart || offset >= contextLimit {
		return true
	}
	if UseReferenceBreaker {
		return referenceIsBoundary(buf, contextStart, contextLimit, offset)
	}
	return isGraphemeBreakAt(buf, contextStart, contextLimit, offset, hasAdvance)
}

func isGraphemeBreakAt(buf []uint16, start, limit, offset int, hasAdvance func(int) bool) bool {
	// Never split a surrogate pair.
	if offset-1 >= 0 && offset < len(buf) && IsHighSurrogate(buf[offset-1]) && IsLowSurrogate(buf[offset]) {
		return false
	}
	before, bw := CodePointBefore(buf[:limit], offset)
	after, aw := CodePointAt(buf[:limit], offset)
	if bw == 0 || aw == 0 {
		return true
	}
	bp := propertyFor(before)
	ap := propertyFor(after)

	switch {
	case bp == propCR && ap == propLF: // GB3
		return false
	case bp == propControl || bp == propCR || bp == propLF: // GB4
		return true
	case ap == propControl || ap == propCR || ap == propLF: // GB5
		return true
	case bp == propL && (ap == propL || ap == propV || ap == propLV || ap == propLVT): // GB6
		return false
	case (bp == propLV || bp == propV) && (ap == propV || ap == propT): // GB7
		return false
	case (bp == propLVT || bp == propT) && ap == propT: // GB8
		return false
	case ap == propExtend || ap == propZWJ || ap == propSpacingMark: // GB9/GB9a
		return false
	case bp == propPrepend: // GB9b
		return false
	case isVirama(before) && isLetter(after): // Indic tailoring
		return false
	}

	if ap == propExtendedPictographic { // GB11 (tailored)
		if hasAdvance != nil && hasAdvance(offset) {
			return true
		}
		if walksBackToPictographicZWJ(buf, start, offset) {
			return false
		}
	}

	if bp == propRegionalIndicator && ap == propRegionalIndicator { // GB12/GB13
		if hasAdvance != nil && hasAdvance(offset) {
			return true
		}
		if countPrecedingRegionalIndicators(buf, start, offset)%2 == 1 {
			return false
		}
	}

	return true // GB999
}

// walksBackToPictographicZWJ implements "Extended_Pictographic Extend* ZWJ ×
// Extended_Pictographic": starting at offset, skip back over any run of
// Extend code points, require the next one back to be ZWJ, then require
// that (after skipping further Extend) the sequence began with an
// Extended_Pictographic code point.
func walksBackToPictographicZWJ(buf []uint16, start, offset int) bool {
	const lookbackCap = 1000
	pos := offset
	steps := 0
	for pos > start && steps < lookbackCap {
		r, w := CodePointBefore(buf, pos)
		if w == 0 || propertyFor(r) != propExtend {
			break
		}
		pos -= w
		steps++
	}
	r, w := CodePointBefore(buf, pos)
	if w == 0 || propertyFor(r) != propZWJ {
		return false
	}
	pos -= w
	for pos > start && steps < lookbackCap {
		r2, w2 := CodePointBefore(buf, pos)
		if w2 == 0 {
			return false
		}
		if propertyFor(r2) == propExtend {
			pos -= w2
			steps++
			continue
		}
		return propertyFor(r2) == propExtendedPictographic
	}
	return false
}

// countPrecedingRegionalIndicators counts the contiguous run of Regional
// Indicator code points immediately preceding offset, capped at a 1000 code
// unit lookback.
func countPrecedingRegionalIndicators(buf []uint16, start, offset int) int {
	const lookbackCap = 1000
	count := 0
	pos := offset
	for pos > start && offset-pos < lookbackCap {
		r, w := CodePointBefore(buf, pos)
		if w == 0 || !IsRegionalIndicatorSymbol(r) {
			break
		}
		pos -= w
		count++
	}
	return count
}

// referenceIsBoundary is the simplified, non-tailored cross-check
// classifier: plain UAX #29 without the Indic and font-advance
// tailorings, used only to sanity-check the primary implementation in
// tests.
func referenceIsBoundary(buf []uint16, start, limit, offset int) bool {
	if offset-1 >= 0 && offset < len(buf) && IsHighSurrogate(buf[offset-1]) && IsLowSurrogate(buf[offset]) {
		return false
	}
	before, bw := CodePointBefore(buf[:limit], offset)
	after, aw := CodePointAt(buf[:limit], offset)
	if bw == 0 || aw == 0 {
		return true
	}
	bp := propertyFor(before)
	ap := propertyFor(after)
	switch {
	case bp == propCR && ap == propLF:
		return false
	case bp == propControl || bp == propCR || bp == propLF:
		return true
	case ap == propControl || ap == propCR || ap == propLF:
		return true
	case bp == propL && (ap == propL || ap == propV || ap == propLV || ap == propLVT):
		return false
	case (bp == propLV || bp == propV) && (ap == propV || ap == propT):
		return false
	case (bp == propLVT || bp == propT) && ap == propT:
		return false
	case ap == propExtend || ap == propZWJ || ap == propSpacingMark:
		return false
	case bp == propPrepend:
		return false
	case bp == propRegionalIndicator && ap == propRegionalIndicator:
		return countPrecedingRegionalIndicators(buf, start, offset)%2 == 1
	default:
		return true
	}
}

// Following returns the first grapheme cluster boundary strictly after
// offset, within [contextStart, contextLimit]. It returns contextLimit if
// no further boundary exists.
func Following(buf []uint16, contextStart, contextLimit, offset int, hasAdvance func(int) bool) int {
	if offset < contextStart {
		offset = contextStart
	}
	pos := offset
	for pos < contextLimit {
		_, w := CodePointAt(buf[:contextLimit], pos)
		if w == 0 {
			return contextLimit
		}
		pos += w
		if pos >= contextLimit {
			return contextLimit
		}
		if IsBoundary(buf, contextStart, contextLimit, pos, hasAdvance) {
			return pos
		}
	}
	return contextLimit
}

// Preceding returns the first grapheme cluster boundary strictly before
// offset, within [contextStart, contextLimit]. It returns contextStart if
// no earlier boundary exists.
func Preceding(buf []uint16, contextStart, contextLimit, offset int, hasAdvance func(int) bool) int {
	if offset > contextLimit {
		offset = contextLimit
	}
	pos := offset
	for pos > contextStart {
		_, w := CodePointBefore(buf[:contextLimit], pos)
		if w == 0 {
			return contextStart
		}
		pos -= w
		if pos <= contextStart {
			return contextStart
		}
		if IsBoundary(buf, contextStart, contextLimit, pos, hasAdvance) {
			return pos
		}
	}
	return contextStart
}

// ForTextRun streams every grapheme cluster boundary in
// [contextStart, contextLimit], including both endpoints, to cb in
// ascending order.
func ForTextRun(buf []uint16, contextStart, contextLimit int, hasAdvance func(int) bool, cb func(offset int)) {
	cb(contextStart)
	pos := contextStart
	for pos < contextLimit {
		pos = Following(buf, contextStart, contextLimit, pos, hasAdvance)
		cb(pos)
	}
}
