// SPDX-License-Identifier: Unlicense OR MIT

package font

// Family bundles up to four styled variants (Normal, Bold, Italic,
// BoldItalic) of one logical typeface, plus two tags used during
// itemization.
type Family struct {
	variants [4]Font
	// IsEastAsian marks a family as serving only CJK-adjacent scripts; such
	// a family is skipped by the itemizer for other scripts.
	IsEastAsian bool
	// IsColorEmoji marks a family as a colour emoji pseudo-font.
	IsColorEmoji bool
}

// NewFamily constructs a Family from its available variants. Missing
// variants may be passed as nil; GetClosestMatch falls back to Normal.
func NewFamily(normal, bold, italic, boldItalic Font, isEastAsian, isColorEmoji bool) *Family {
	f := &Family{IsEastAsian: isEastAsian, IsColorEmoji: isColorEmoji}
	f.variants[styleIndex(Normal)] = normal
	f.variants[styleIndex(Bold)] = bold
	f.variants[styleIndex(Italic)] = italic
	f.variants[styleIndex(Bold|Italic)] = boldItalic
	return f
}

func styleIndex(s Style) int {
	return int(s & (Bold | Italic))
}

// GetClosestMatch returns the variant matching style exactly, or the
// family's Normal variant if that style is absent.
func (f *Family) GetClosestMatch(style Style) Font {
	if v := f.variants[styleIndex(style)]; v != nil {
		return v
	}
	return f.variants[styleIndex(Normal)]
}

// HasGlyph reports whether any variant of the family can render (cp, vs).
// Used by the itemizer's colour-emoji run-continuation test, which must
// check every family member rather than only the closest match.
func (f *Family) HasGlyph(cp rune, variationSelector rune) bool {
	for _, v := range f.variants {
		if v != nil && v.HasGlyph(cp, variationSelector) {
			return true
		}
	}
	return false
}

// ClosestHasGlyph reports whether the family's default (Normal) variant
// covers (cp, vs); this is the common-case coverage test used when scoring
// candidate families during itemization of non-colour-emoji runs.
func (f *Family) ClosestHasGlyph(cp rune, variationSelector rune) bool {
	v := f.GetClosestMatch(Normal)
	return v != nil && v.HasGlyph(cp, variationSelector)
}
