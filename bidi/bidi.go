// SPDX-License-Identifier: Unlicense OR MIT

// Package bidi adapts golang.org/x/text/unicode/bidi onto the analyser
// contract ShapedText consumes: SetPara, IsRightToLeft, IsLeftToRight,
// GetRunCount, GetVisualRun. Everything here works in UTF-16 code unit
// offsets, matching the rest of the module, instead of the underlying
// library's rune-indexed Run.Pos values.
package bidi

import (
	"golang.org/x/text/unicode/bidi"

	"modernui.dev/shaping/segment"
)

// Direction is a paragraph's default resolved direction when no strongly
// directional character is present.
type Direction int

const (
	LTR Direction = iota
	RTL
)

// VisualRun is one maximal direction-homogeneous run, in visual order,
// expressed as code unit offsets into the buffer passed to SetPara.
type VisualRun struct {
	Start, Limit int
	// IsOddRun is true for a run at odd embedding level, i.e. right-to-left.
	IsOddRun bool
}

// Analyser runs the Unicode Bidirectional Algorithm over one UTF-16 buffer.
// It is not safe for concurrent use; callers shape one paragraph at a time
// per Analyser.
type Analyser struct {
	para    bidi.Paragraph
	order   bidi.Ordering
	paraDir bidi.Direction

	// runeToUnit maps a rune index (as bidi.Paragraph addresses text) to its
	// code unit offset in the original buffer; runeToUnit[len(runes)] is the
	// buffer length.
	runeToUnit []int
}

// SetPara analyses buf with defaultDir as the paragraph's default direction,
// used only when the text contains no strongly directional character.
func (a *Analyser) SetPara(buf []uint16, defaultDir Direction) error {
	runes, runeToUnit := decodeToRunes(buf)
	dir := bidi.LeftToRight
	if defaultDir == RTL {
		dir = bidi.RightToLeft
	}
	if _, err := a.para.SetString(string(runes), bidi.DefaultDirection(dir)); err != nil {
		return err
	}
	order, err := a.para.Order()
	if err != nil {
		return err
	}
	a.order = order
	a.runeToUnit = runeToUnit
	if a.para.IsLeftToRight() {
		a.paraDir = bidi.LeftToRight
	} else {
		a.paraDir = bidi.RightToLeft
	}
	return nil
}

func decodeToRunes(buf []uint16) (runes []rune, runeToUnit []int) {
	runeToUnit = make([]int, 0, len(buf)+1)
	pos := 0
	for pos < len(buf) {
		r, w := segment.CodePointAt(buf, pos)
		if w == 0 {
			break
		}
		runes = append(runes, r)
		runeToUnit = append(runeToUnit, pos)
		pos += w
	}
	runeToUnit = append(runeToUnit, len(buf))
	return runes, runeToUnit
}

// IsLeftToRight reports whether the whole paragraph resolved to a single
// left-to-right direction (no bidi splitting required).
func (a *Analyser) IsLeftToRight() bool {
	return a.paraDir == bidi.LeftToRight && a.order.NumRuns() <= 1
}

// IsRightToLeft reports whether the whole paragraph resolved to a single
// right-to-left direction.
func (a *Analyser) IsRightToLeft() bool {
	return a.paraDir == bidi.RightToLeft && a.order.NumRuns() <= 1
}

// GetRunCount returns the number of visual runs found by the last SetPara.
func (a *Analyser) GetRunCount() int {
	return a.order.NumRuns()
}

// GetVisualRun returns the i-th run in visual (left-to-right display) order,
// as code unit offsets into the buffer passed to SetPara.
func (a *Analyser) GetVisualRun(i int) VisualRun {
	run := a.order.Run(i)
	startRune, endRune := run.Pos()
	return VisualRun{
		Start:    a.runeToUnit[startRune],
		Limit:    a.runeToUnit[endRune+1],
		IsOddRun: run.Direction() == bidi.RightToLeft,
	}
}
