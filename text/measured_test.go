// SPDX-License-Identifier: Unlicense OR MIT

package text

import "testing"

// For a buffer containing a single style run, the measured advance over the
// whole range must equal the advance of an override-LTR Shape call with the
// same paint.
func TestSingleStyleRunAdvanceMatchesShapedText(t *testing.T) {
	buf := utf16Of("Hello, world!")
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 6})
	cache := &LayoutCache{}

	st, err := Shape(buf, 0, len(buf), OverrideLTR, paint, cache, false)
	if err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(buf, cache)
	if err := b.AddStyleRun(paint, len(buf), false, false); err != nil {
		t.Fatal(err)
	}
	mt, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if got := mt.GetAdvanceRange(0, len(buf)); got != st.Advance {
		t.Fatalf("MeasuredText advance %v != ShapedText advance %v", got, st.Advance)
	}
}

func TestMeasuredTextMultiRunAdvancesAndExtent(t *testing.T) {
	buf := utf16Of("HelloWorld") // 5 + 5
	paint1 := singleFontPaint(&fakeFont{name: "a", advance: 4})
	paint2 := singleFontPaint(&fakeFont{name: "b", advance: 7})
	cache := &LayoutCache{}

	b := NewBuilder(buf, cache)
	if err := b.AddStyleRun(paint1, 5, false, true); err != nil {
		t.Fatal(err)
	}
	if err := b.AddStyleRun(paint2, 5, false, true); err != nil {
		t.Fatal(err)
	}
	mt, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if got := mt.GetAdvanceRange(0, 5); got != 20 {
		t.Fatalf("first run advance = %v want 20", got)
	}
	if got := mt.GetAdvanceRange(5, 10); got != 35 {
		t.Fatalf("second run advance = %v want 35", got)
	}
	if got := mt.GetAdvanceRange(0, 10); got != 55 {
		t.Fatalf("total advance = %v want 55", got)
	}

	ext := mt.GetExtent(0, 10)
	if ext.Ascent != 10 || ext.Descent != 3 {
		t.Fatalf("unexpected extent %+v", ext)
	}

	pieces := mt.Pieces(0, 5)
	if len(pieces) == 0 {
		t.Fatal("expected at least one retained piece for a computeLayout run")
	}
	for _, p := range pieces {
		if p.Advance <= 0 {
			t.Fatalf("retained piece has non-positive advance: %+v", p)
		}
	}
}

func TestReplacementRunContributesWidthAtFirstCodeUnitOnly(t *testing.T) {
	buf := make([]uint16, 4)
	for i := range buf {
		buf[i] = uint16('x')
	}
	cache := &LayoutCache{}

	b := NewBuilder(buf, cache)
	if err := b.AddReplacementRun("en", 4, 42); err != nil {
		t.Fatal(err)
	}
	mt, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if got := mt.GetAdvance(0); got != 42 {
		t.Fatalf("GetAdvance(0) = %v want 42", got)
	}
	for i := 1; i < 4; i++ {
		if got := mt.GetAdvance(i); got != 0 {
			t.Fatalf("GetAdvance(%d) = %v want 0", i, got)
		}
	}

	// A replacement run's extent is always zero, stored at construction
	// time rather than special-cased at query time.
	ext := mt.GetExtent(0, 4)
	if ext.Ascent != 0 || ext.Descent != 0 {
		t.Fatalf("expected a zero extent for a replacement run, got %+v", ext)
	}
}

func TestBuilderRejectsCursorMismatchAndReuse(t *testing.T) {
	buf := utf16Of("abc")
	cache := &LayoutCache{}
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 6})

	b := NewBuilder(buf, cache)
	if err := b.AddStyleRun(paint, 2, false, false); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected Build to fail when the cursor has not reached len(buf)")
	}

	b2 := NewBuilder(buf, cache)
	if err := b2.AddStyleRun(paint, 3, false, false); err != nil {
		t.Fatal(err)
	}
	if _, err := b2.Build(); err != nil {
		t.Fatal(err)
	}
	if err := b2.AddStyleRun(paint, 0, false, false); err == nil {
		t.Fatal("expected AddStyleRun to fail after Build")
	}
}

// With eight or more runs findRunContaining switches to binary search; the
// advance and extent queries must behave identically on that path.
func TestManyRunsUseBinarySearchPath(t *testing.T) {
	const runCount = 10
	buf := make([]uint16, runCount*2)
	for i := range buf {
		buf[i] = 'a'
	}
	cache := &LayoutCache{}
	b := NewBuilder(buf, cache)
	for i := 0; i < runCount; i++ {
		paint := singleFontPaint(&fakeFont{name: "f", advance: float32(i + 1)})
		if err := b.AddStyleRun(paint, 2, false, true); err != nil {
			t.Fatal(err)
		}
	}
	mt, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < runCount; i++ {
		want := float32(i+1) * 2
		if got := mt.GetAdvanceRange(i*2, i*2+2); got != want {
			t.Fatalf("run %d advance = %v want %v", i, got, want)
		}
	}
	ext := mt.GetExtent(5, 15)
	if ext.Ascent != 10 || ext.Descent != 3 {
		t.Fatalf("unexpected extent over the middle runs: %+v", ext)
	}
}

func TestLineBreakTagsAreCarriedPerRun(t *testing.T) {
	buf := utf16Of("abcdef")
	cache := &LayoutCache{}
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 6})

	b := NewBuilder(buf, cache)
	b.SetLineBreak(LineBreakStyleStrict, LineBreakWordStylePhrase)
	if err := b.AddStyleRun(paint, 3, false, false); err != nil {
		t.Fatal(err)
	}
	b.SetLineBreak(LineBreakStyleNone, LineBreakWordStyleNone)
	if err := b.AddStyleRun(paint, 3, false, false); err != nil {
		t.Fatal(err)
	}
	mt, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if s, w := mt.LineBreakAt(1); s != LineBreakStyleStrict || w != LineBreakWordStylePhrase {
		t.Fatalf("first run tags = %v/%v", s, w)
	}
	if s, w := mt.LineBreakAt(4); s != LineBreakStyleNone || w != LineBreakWordStyleNone {
		t.Fatalf("second run tags = %v/%v", s, w)
	}
}

func TestBuilderRejectsOutOfBoundsRun(t *testing.T) {
	buf := utf16Of("abc")
	cache := &LayoutCache{}
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 6})

	b := NewBuilder(buf, cache)
	if err := b.AddStyleRun(paint, 10, false, false); err == nil {
		t.Fatal("expected an out-of-bounds style run to fail")
	}
}
