// SPDX-License-Identifier: Unlicense OR MIT

package segment

// Builder is a growable UTF-16 buffer whose Hash method reproduces the
// classic `31*h + c` polynomial rolling hash, so it can serve as a
// value-equal, allocation-free lookup key into maps of code-unit
// sequences (its primary use is EmojiFont's cluster-to-glyph table).
type Builder struct {
	units []uint16
}

// Reset empties the builder for reuse.
func (b *Builder) Reset() {
	b.units = b.units[:0]
}

// Len returns the number of UTF-16 code units currently held.
func (b *Builder) Len() int {
	return len(b.units)
}

// At returns the code unit at index i.
func (b *Builder) At(i int) uint16 {
	return b.units[i]
}

// Units returns the backing slice of code units. Callers must not retain
// it across a subsequent Reset/Append/AddCodePoint call.
func (b *Builder) Units() []uint16 {
	return b.units
}

// Append appends raw UTF-16 code units.
func (b *Builder) Append(units ...uint16) {
	b.units = append(b.units, units...)
}

// AddCodePoint appends the UTF-16 encoding of cp: one code unit for the
// BMP, a surrogate pair for supplementary-plane code points.
func (b *Builder) AddCodePoint(cp rune) {
	b.units = AppendCodePoint(b.units, cp)
}

// AppendSlice copies a slice of a UTF-16 buffer into the builder.
func (b *Builder) AppendSlice(buf []uint16, start, limit int) {
	b.units = append(b.units, buf[start:limit]...)
}

// Hash reproduces `String.hashCode`: s[0]*31^(n-1) + ... + s[n-1], computed
// incrementally as 31*h + c.
func (b *Builder) Hash() int32 {
	var h int32
	for _, c := range b.units {
		h = 31*h + int32(c)
	}
	return h
}

// Equal reports whether the builder's contents equal the given raw code
// unit slice, without allocating.
func (b *Builder) Equal(other []uint16) bool {
	if len(b.units) != len(other) {
		return false
	}
	for i, c := range b.units {
		if c != other[i] {
			return false
		}
	}
	return true
}

// EqualBuilder reports whether two builders hold identical contents.
func (b *Builder) EqualBuilder(other *Builder) bool {
	return b.Equal(other.units)
}

// HashUnits computes Builder.Hash for a raw code unit slice without
// constructing a Builder.
func HashUnits(units []uint16) int32 {
	var h int32
	for _, c := range units {
		h = 31*h + int32(c)
	}
	return h
}
