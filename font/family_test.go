// SPDX-License-Identifier: Unlicense OR MIT

package font

import "testing"

func TestGetClosestMatchFallsBackToNormal(t *testing.T) {
	normal := &fakeFont{name: "normal"}
	bold := &fakeFont{name: "bold"}
	fam := NewFamily(normal, bold, nil, nil, false, false)

	if got := fam.GetClosestMatch(Bold); got != bold {
		t.Fatalf("expected the bold variant, got %v", got)
	}
	if got := fam.GetClosestMatch(Italic); got != normal {
		t.Fatalf("expected fallback to normal for a missing italic, got %v", got)
	}
	if got := fam.GetClosestMatch(Bold | Italic); got != normal {
		t.Fatalf("expected fallback to normal for a missing bold-italic, got %v", got)
	}
}

func TestFamilyHasGlyphChecksEveryVariant(t *testing.T) {
	normal := &fakeFont{name: "normal", covers: map[rune]bool{'a': true}}
	bold := &fakeFont{name: "bold", covers: map[rune]bool{'b': true}}
	fam := NewFamily(normal, bold, nil, nil, false, false)

	if !fam.HasGlyph('b', 0) {
		t.Fatal("HasGlyph must consult non-default variants")
	}
	if fam.ClosestHasGlyph('b', 0) {
		t.Fatal("ClosestHasGlyph consults only the default variant")
	}
}

func TestMetricsIntExtendByTakesEnvelope(t *testing.T) {
	m := MetricsInt{Ascent: 10, Descent: 3, Leading: 1}
	m.ExtendBy(8, 5)
	if m.Ascent != 10 || m.Descent != 5 || m.Leading != 1 {
		t.Fatalf("unexpected metrics after ExtendBy: %+v", m)
	}
	m.ExtendBy(12, 2, 4)
	if m.Ascent != 12 || m.Descent != 5 || m.Leading != 4 {
		t.Fatalf("unexpected metrics after ExtendBy with leading: %+v", m)
	}
}

func TestPaintIsMetricAffectingComparesEveryField(t *testing.T) {
	col := NewCollection([]*Family{NewFamily(&fakeFont{name: "a"}, nil, nil, nil, false, false)}, nil)
	base := NewPaint(col, "en", Normal, FlagAntiAlias, 12)

	if base.IsMetricAffecting(NewPaint(col, "en", Normal, FlagAntiAlias, 12)) {
		t.Fatal("identical paints must not be metric-affecting")
	}
	if !base.IsMetricAffecting(NewPaint(col, "en", Normal, FlagAntiAlias, 13)) {
		t.Fatal("a size change is metric-affecting")
	}
	if !base.IsMetricAffecting(NewPaint(col, "ar", Normal, FlagAntiAlias, 12)) {
		t.Fatal("a locale change is metric-affecting")
	}
	if !base.IsMetricAffecting(NewPaint(col, "en", Bold, FlagAntiAlias, 12)) {
		t.Fatal("a style change is metric-affecting")
	}
}

func TestRenderFlagsHinted(t *testing.T) {
	if FlagLinearMetrics.Hinted() {
		t.Fatal("linear metrics means unhinted")
	}
	if !FlagAntiAlias.Hinted() {
		t.Fatal("anti-alias alone leaves hinting on")
	}
}
