// SPDX-License-Identifier: Unlicense OR MIT

package font

import (
	"unicode"

	"github.com/go-text/typesetting/language"

	"modernui.dev/shaping/segment"
)

// Run is a maximal, font-homogeneous slice of an itemized buffer.
type Run struct {
	Family       *Family
	Start, Limit int
}

// Collection is a non-empty, ordered list of Families plus an optional set
// of families reserved for CJK-adjacent scripts, and a small pool of
// system emoji fallbacks consulted when a colour-emoji family wins
// itemization.
type Collection struct {
	families      []*Family
	emojiFallback []*Family
}

// NewCollection builds a Collection. families must be non-empty; families[0]
// is the default used when no code point needs font support at all.
// emojiFallback supplies up to eight additional colour-emoji families that
// are unioned into the winning candidate set when the primary winner is
// colour-emoji.
func NewCollection(families []*Family, emojiFallback []*Family) *Collection {
	if len(families) == 0 {
		panic("font: collection must have at least one family")
	}
	if len(emojiFallback) > 8 {
		emojiFallback = emojiFallback[:8]
	}
	return &Collection{families: families, emojiFallback: emojiFallback}
}

// Families returns the collection's families in priority order.
func (c *Collection) Families() []*Family {
	return c.families
}

// eastAsianScripts is the set of scripts an east-asian-exclusive family is
// permitted to cover; for any other script such a family scores zero during
// itemization.
var eastAsianScripts = map[language.Script]bool{
	language.Han:                 true,
	language.Bopomofo:            true,
	language.Hiragana:            true,
	language.Katakana:            true,
	language.Hangul:              true,
	language.Yi:                  true,
	language.Nushu:               true,
	language.Lisu:                true,
	language.Miao:                true,
	language.Tangut:              true,
	language.Khitan_Small_Script: true,
	language.Inherited:           true,
	language.Common:              true,
}

func scriptAllowsEastAsianExclusive(r rune) bool {
	return eastAsianScripts[language.LookupScript(r)]
}

// calcCoverageScore scores how well fam covers (ch, vs): 0 for no
// coverage or a disallowed script, 2 when the variation selector matches
// the family's emoji nature, 1 otherwise.
func calcCoverageScore(ch, vs rune, fam *Family) int {
	if fam.IsEastAsian && !scriptAllowsEastAsianExclusive(ch) {
		return 0
	}
	var covers bool
	if fam.IsColorEmoji {
		covers = fam.HasGlyph(ch, vs)
	} else {
		covers = fam.ClosestHasGlyph(ch, vs)
	}
	if !covers {
		return 0
	}
	if vs == segment.VariationSelectorEmoji && fam.IsColorEmoji {
		return 2
	}
	if vs == segment.VariationSelectorText && !fam.IsColorEmoji {
		return 2
	}
	return 1
}

// candidateFamilies scores every family against (ch, vs) and returns up to
// two sharing the best non-zero score, unioning in the collection's emoji
// fallbacks when the winner is colour-emoji.
func (c *Collection) candidateFamilies(ch, vs rune) []*Family {
	best := 0
	var winners []*Family
	for _, fam := range c.families {
		score := calcCoverageScore(ch, vs, fam)
		if score == 0 {
			continue
		}
		switch {
		case score > best:
			best = score
			winners = []*Family{fam}
		case score == best && len(winners) < 2:
			winners = append(winners, fam)
		}
	}
	if len(winners) > 0 && winners[0].IsColorEmoji {
		for _, fb := range c.emojiFallback {
			if calcCoverageScore(ch, vs, fb) == best {
				winners = append(winners, fb)
			}
		}
	}
	return winners
}

func isCombiningMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Me, r)
}

func intersectFamilies(a, b []*Family) []*Family {
	var out []*Family
	for _, fa := range a {
		for _, fb := range b {
			if fa == fb {
				out = append(out, fa)
				break
			}
		}
	}
	return out
}

func isColorRun(families []*Family) bool {
	return len(families) > 0 && families[0].IsColorEmoji
}

func familyListCovers(families []*Family, cp rune) bool {
	for _, f := range families {
		if f.ClosestHasGlyph(cp, 0) {
			return true
		}
	}
	return false
}

// decodeAt decodes the code point at pos in a UTF-16 buffer along with its
// width in code units, and the variation selector (0 if none) immediately
// following it.
func decodeAt(buf []uint16, pos, limit int) (ch rune, width int, vs rune) {
	ch, width = segment.CodePointAt(buf[:limit], pos)
	if width == 0 {
		return ch, 1, 0
	}
	next := pos + width
	if next < limit {
		if v, vw := segment.CodePointAt(buf[:limit], next); segment.IsVariationSelector(v) {
			vs = v
			_ = vw
		}
	}
	return ch, width, vs
}

// Itemize scans buf[start:limit] and partitions it into font-homogeneous
// Runs. It returns at most runLimit+1 runs (0 means no cap). If no code
// point in the range needed font support, it returns a single run spanning
// the whole range using the collection's default family.
func (c *Collection) Itemize(buf []uint16, start, limit, runLimit int) []Run {
	var runs []Run
	var curStart int
	var curFamilies []*Family
	haveRun := false
	var prevCh rune
	sawAnyScored := false

	flush := func(end int) {
		if haveRun && end > curStart {
			fam := c.families[0]
			if len(curFamilies) > 0 {
				fam = curFamilies[0]
			}
			runs = append(runs, Run{Family: fam, Start: curStart, Limit: end})
		}
		haveRun = false
		curFamilies = nil
	}

	pos := start
	for pos < limit {
		ch, width, vs := decodeAt(buf, pos, limit)
		next := pos + width

		switch {
		case segment.IsNoFontNeeded(ch):
			if !haveRun {
				haveRun = true
				curStart = pos
				curFamilies = nil
			}
		case haveRun && len(curFamilies) > 0 && (segment.IsStickyWhitelisted(ch) || isCombiningMark(ch)) &&
			(familyListCovers(curFamilies, ch) || (isColorRun(curFamilies) && familyListCoversAny(curFamilies, ch, vs))):
			// Keep the current run; the sticky/combining character is
			// covered by at least one family already selected.
		default:
			sawAnyScored = true
			cands := c.candidateFamilies(ch, vs)
			if len(cands) == 0 {
				cands = []*Family{c.families[0]}
			}
			continued := false
			if haveRun && isColorRun(curFamilies) {
				inter := intersectFamilies(curFamilies, cands)
				if len(inter) > 0 && !segment.IsEmojiBreak(prevCh, ch) {
					curFamilies = inter
					continued = true
				}
			}
			if !continued && haveRun && curFamilies == nil {
				// The run so far held only no-font-needed characters; adopt
				// the first scored candidates instead of splitting.
				curFamilies = cands
				continued = true
			}
			if !continued && haveRun && !isColorRun(curFamilies) &&
				len(curFamilies) > 0 && len(cands) > 0 && curFamilies[0] == cands[0] {
				// Same winning family as the current run: the run stays
				// maximal.
				curFamilies = cands
				continued = true
			}
			if !continued {
				flush(pos)
				haveRun = true
				curStart = pos
				curFamilies = cands
				if prevCh != 0 && (isCombiningMark(ch) || (segment.IsEmojiModifier(ch) && !segment.IsEmojiModifier(prevCh))) {
					if len(runs) > 0 && familyListCovers(cands, prevCh) {
						last := &runs[len(runs)-1]
						prevWidth := segment.CodeUnitCount(prevCh)
						if last.Limit-prevWidth >= last.Start {
							last.Limit -= prevWidth
							curStart = last.Limit
							if last.Limit == last.Start {
								runs = runs[:len(runs)-1]
							}
						}
					}
				}
			}
		}
		prevCh = ch
		pos = next
		if runLimit > 0 && len(runs) > runLimit {
			break
		}
	}
	flush(limit)

	if !sawAnyScored && len(runs) == 0 {
		return []Run{{Family: c.families[0], Start: start, Limit: limit}}
	}
	if runLimit > 0 && len(runs) > runLimit+1 {
		runs = runs[:runLimit+1]
	}
	if len(runs) == 0 {
		return []Run{{Family: c.families[0], Start: start, Limit: limit}}
	}
	return runs
}

func familyListCoversAny(families []*Family, cp, vs rune) bool {
	for _, f := range families {
		if f.HasGlyph(cp, vs) {
			return true
		}
	}
	return false
}
