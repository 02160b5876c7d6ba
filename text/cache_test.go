// SPDX-License-Identifier: Unlicense OR MIT

package text

import (
	"sync"
	"testing"

	"modernui.dev/shaping/font"
)

// A cached piece's observable outputs must equal those of a fresh
// construction with the same arguments.
func TestGetOrCreateMatchesFreshConstruction(t *testing.T) {
	buf := utf16Of("determinism")
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	cached := cache.GetOrCreate(buf, 0, len(buf), 0, len(buf), false, paint, FlagAdvances)
	fresh := computeFull(buf, 0, len(buf), 0, len(buf), false, paint, FlagAdvances)

	if len(cached.Glyphs) != len(fresh.Glyphs) {
		t.Fatalf("glyph count %d != %d", len(cached.Glyphs), len(fresh.Glyphs))
	}
	for i := range cached.Glyphs {
		if cached.Glyphs[i] != fresh.Glyphs[i] {
			t.Fatalf("glyph %d differs: %+v != %+v", i, cached.Glyphs[i], fresh.Glyphs[i])
		}
	}
	if cached.Advance != fresh.Advance {
		t.Fatalf("advance %v != %v", cached.Advance, fresh.Advance)
	}
	for i := range cached.Advances {
		if cached.Advances[i] != fresh.Advances[i] {
			t.Fatalf("advances[%d] %v != %v", i, cached.Advances[i], fresh.Advances[i])
		}
	}
}

// The cache key must deep-copy the probed window: a hit probed through a
// different backing array with equal contents must find the entry even after
// the original caller's buffer has been scribbled over.
func TestCacheKeyIsDeepCopied(t *testing.T) {
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	buf1 := utf16Of("word")
	first := cache.GetOrCreate(buf1, 0, len(buf1), 0, len(buf1), false, paint, 0)
	for i := range buf1 {
		buf1[i] = 'x'
	}

	buf2 := utf16Of("word")
	second := cache.GetOrCreate(buf2, 0, len(buf2), 0, len(buf2), false, paint, 0)
	if first != second {
		t.Fatal("expected the second probe to hit the deep-copied entry")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}
}

// A hit carrying fewer computed flags than requested must rebuild only the
// missing attributes, leaving every pre-existing glyph and position value
// untouched.
func TestPartialHitPreservesExistingGlyphStream(t *testing.T) {
	buf := utf16Of("stable")
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	bare := cache.GetOrCreate(buf, 0, len(buf), 0, len(buf), false, paint, 0)
	wantGlyphs := append([]font.Glyph(nil), bare.Glyphs...)

	full := cache.GetOrCreate(buf, 0, len(buf), 0, len(buf), false, paint, FlagAdvances)
	if full.ComputeFlags&FlagAdvances == 0 {
		t.Fatal("expected the rebuilt piece to carry FlagAdvances")
	}
	if full.Advances == nil {
		t.Fatal("expected the rebuilt piece to carry advances")
	}
	if len(full.Glyphs) != len(wantGlyphs) {
		t.Fatalf("glyph count changed: %d != %d", len(full.Glyphs), len(wantGlyphs))
	}
	for i := range wantGlyphs {
		if full.Glyphs[i] != wantGlyphs[i] {
			t.Fatalf("glyph %d perturbed by the flag rebuild: %+v != %+v", i, full.Glyphs[i], wantGlyphs[i])
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("expected the rebuild to replace the entry in place, got %d entries", cache.Len())
	}
}

// Two requests whose layout windows hold identical text but whose context
// windows differ must occupy distinct entries: the neighbouring text feeds
// contextual shaping (Arabic joining, Indic reordering) and changes the
// output, so colliding them would serve the wrong glyphs.
func TestDifferentContextWindowsDoNotCollide(t *testing.T) {
	buf := utf16Of("abcdef")
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	cache.GetOrCreate(buf, 0, 6, 2, 4, false, paint, 0)
	cache.GetOrCreate(buf, 1, 5, 2, 4, false, paint, 0)
	if cache.Len() != 2 {
		t.Fatalf("expected distinct entries for distinct contexts, got %d", cache.Len())
	}

	// An exact repeat of the first request still hits its entry.
	cache.GetOrCreate(buf, 0, 6, 2, 4, false, paint, 0)
	if cache.Len() != 2 {
		t.Fatalf("expected a hit for a repeated context, got %d entries", cache.Len())
	}
}

func TestOversizeWindowBypassesCache(t *testing.T) {
	buf := make([]uint16, MaxPieceLength+1)
	for i := range buf {
		buf[i] = 'a'
	}
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	piece := cache.GetOrCreate(buf, 0, len(buf), 0, len(buf), false, paint, 0)
	if piece == nil || len(piece.Glyphs) != len(buf) {
		t.Fatalf("bypass construction failed: %+v", piece)
	}
	if cache.Len() != 0 {
		t.Fatalf("oversize window must not be cached, got %d entries", cache.Len())
	}
}

func TestEvictionKeepsCacheBounded(t *testing.T) {
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	buf := make([]uint16, 4)
	for i := 0; i < cacheCapacity+100; i++ {
		buf[0] = uint16('a' + i%26)
		buf[1] = uint16('a' + (i/26)%26)
		buf[2] = uint16('a' + (i/676)%26)
		buf[3] = uint16('a' + (i/17576)%26)
		cache.GetOrCreate(buf, 0, len(buf), 0, len(buf), false, paint, 0)
	}
	if got := cache.Len(); got > cacheCapacity {
		t.Fatalf("cache exceeded its bound: %d > %d", got, cacheCapacity)
	}
}

// Multiple concurrent shapers over the same input must produce
// byte-identical output.
func TestConcurrentShapeDeterminism(t *testing.T) {
	buf := utf16Of("concurrent shaping stays deterministic")
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}

	const workers = 8
	results := make([]*ShapedText, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			st, err := Shape(buf, 0, len(buf), LTR, paint, cache, true)
			if err != nil {
				t.Error(err)
				return
			}
			results[w] = st
		}(w)
	}
	wg.Wait()

	ref := results[0]
	for w := 1; w < workers; w++ {
		st := results[w]
		if st == nil {
			t.Fatal("a worker produced no result")
		}
		if len(st.Glyphs) != len(ref.Glyphs) || st.Advance != ref.Advance {
			t.Fatalf("worker %d diverged: %d glyphs/%v vs %d/%v", w, len(st.Glyphs), st.Advance, len(ref.Glyphs), ref.Advance)
		}
		for i := range ref.Glyphs {
			if st.Glyphs[i] != ref.Glyphs[i] {
				t.Fatalf("worker %d glyph %d differs", w, i)
			}
		}
		for i := range ref.Advances {
			if st.Advances[i] != ref.Advances[i] {
				t.Fatalf("worker %d advances[%d] differs", w, i)
			}
		}
	}
}

func TestFootprintTracksEntries(t *testing.T) {
	paint := singleFontPaint(&fakeFont{name: "latin", advance: 5})
	cache := &LayoutCache{}
	if got := cache.Footprint(); got != 0 {
		t.Fatalf("empty cache footprint = %d, want 0", got)
	}

	buf := utf16Of("footprint")
	cache.GetOrCreate(buf, 0, len(buf), 0, len(buf), false, paint, FlagAdvances)
	if got := cache.Footprint(); got <= 0 {
		t.Fatalf("expected a positive footprint, got %d", got)
	}
}

func TestLookupKeyPoolRecycles(t *testing.T) {
	a := borrowLookupKey()
	b := borrowLookupKey()
	c := borrowLookupKey()
	d := borrowLookupKey() // pool holds at most three; this may be fresh
	recycleLookupKey(a)
	recycleLookupKey(b)
	recycleLookupKey(c)
	recycleLookupKey(d) // overflow is dropped, not stored

	got := borrowLookupKey()
	if got != a && got != b && got != c {
		t.Fatal("expected a pooled key to be reused")
	}
	if got.buf != nil {
		t.Fatal("recycled key must not retain a buffer reference")
	}
	recycleLookupKey(got)
}
