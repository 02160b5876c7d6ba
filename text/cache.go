// SPDX-License-Identifier: Unlicense OR MIT

package text

import (
	"encoding/binary"
	"hash/maphash"
	"math"
	"sync"

	"golang.org/x/exp/slices"

	"modernui.dev/shaping/font"
)

const (
	// MaxPieceLength bounds how many code units a single cached LayoutPiece
	// may cover; longer windows bypass the cache entirely.
	MaxPieceLength = 128
	// cacheCapacity is the cache's fixed entry bound.
	cacheCapacity = 2000
)

// LookupKey identifies a cached LayoutPiece without copying the caller's
// buffer, used for the hot-path probe before falling back to an allocating
// insert on a miss. The window it names is the context range; start/limit
// are the layout range's offsets relative to that window. Equality is
// asymmetric: the probed side in the map is always a deep-copied
// cacheEntry, never another LookupKey.
type LookupKey struct {
	buf          []uint16
	start, limit int
	collection   *font.Collection
	size         float32
	style        font.Style
	flags        font.RenderFlags
	locale       string
	isRTL        bool
}

var hashSeed = maphash.MakeSeed()

// lookupKeys is the tiny fixed-slot pool LookupKeys are borrowed from during
// cache probes. Exhaustion falls back to a fresh allocation; a
// returned key is cleared first so the pool never pins a caller's buffer.
var lookupKeys struct {
	mu    sync.Mutex
	slots [3]*LookupKey
	n     int
}

func borrowLookupKey() *LookupKey {
	lookupKeys.mu.Lock()
	defer lookupKeys.mu.Unlock()
	if lookupKeys.n == 0 {
		return &LookupKey{}
	}
	lookupKeys.n--
	k := lookupKeys.slots[lookupKeys.n]
	lookupKeys.slots[lookupKeys.n] = nil
	return k
}

func recycleLookupKey(k *LookupKey) {
	*k = LookupKey{}
	lookupKeys.mu.Lock()
	defer lookupKeys.mu.Unlock()
	if lookupKeys.n == len(lookupKeys.slots) {
		return
	}
	lookupKeys.slots[lookupKeys.n] = k
	lookupKeys.n++
}

// hash mixes the fields that participate in cache identity, except the
// collection pointer, which equalsEntry compares directly. It covers the
// whole context window, not just the layout slice, since the neighbouring
// text feeds contextual shaping and changes the output.
func (k *LookupKey) hash() uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	var b [4]byte
	for _, u := range k.buf {
		binary.LittleEndian.PutUint16(b[:2], u)
		h.Write(b[:2])
	}
	binary.LittleEndian.PutUint32(b[:4], uint32(k.start))
	h.Write(b[:4])
	binary.LittleEndian.PutUint32(b[:4], uint32(k.limit))
	h.Write(b[:4])
	binary.LittleEndian.PutUint32(b[:4], math.Float32bits(k.size))
	h.Write(b[:4])
	flagByte := byte(k.style) | byte(k.flags)<<4
	if k.isRTL {
		flagByte |= 1 << 7
	}
	h.Write([]byte{flagByte})
	h.WriteString(k.locale)
	return h.Sum64()
}

// equalsEntry reports whether k names the same cache entry as e, comparing
// the context window contents by value rather than by identity, plus the
// layout range's offsets within it.
func (k *LookupKey) equalsEntry(e *cacheEntry) bool {
	if k.start != e.start || k.limit != e.limit ||
		k.collection != e.collection || k.size != e.size || k.style != e.style ||
		k.flags != e.flags || k.locale != e.locale || k.isRTL != e.isRTL {
		return false
	}
	if len(k.buf) != len(e.window) {
		return false
	}
	for i, u := range k.buf {
		if u != e.window[i] {
			return false
		}
	}
	return true
}

// cacheEntry is one node of the LRU list and bucket chain.
type cacheEntry struct {
	next, prev *cacheEntry

	hash         uint64
	window       []uint16 // deep copy of the context range
	start, limit int      // layout range offsets within window
	collection   *font.Collection
	size         float32
	style        font.Style
	flags        font.RenderFlags
	locale       string
	isRTL        bool

	piece *LayoutPiece
}

// LayoutCache is the globally shared, thread-safe, bounded cache of
// LayoutPiece values keyed on LookupKey.
type LayoutCache struct {
	once sync.Once
	mu   sync.Mutex

	buckets    map[uint64][]*cacheEntry
	head, tail *cacheEntry // head.prev is most-recently-used; tail.next is least
	size       int
}

func (c *LayoutCache) init() {
	c.buckets = make(map[uint64][]*cacheEntry)
	c.head = &cacheEntry{}
	c.tail = &cacheEntry{}
	c.head.prev = c.tail
	c.tail.next = c.head
}

func (c *LayoutCache) lazyInit() {
	c.once.Do(c.init)
}

func (c *LayoutCache) unlink(e *cacheEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

// pushMRU moves e to the most-recently-used end of the list.
func (c *LayoutCache) pushMRU(e *cacheEntry) {
	e.prev = c.head.prev
	e.next = c.head
	c.head.prev.next = e
	c.head.prev = e
}

func (c *LayoutCache) find(h uint64, k *LookupKey) *cacheEntry {
	for _, e := range c.buckets[h] {
		if k.equalsEntry(e) {
			return e
		}
	}
	return nil
}

func (c *LayoutCache) removeBucketEntry(e *cacheEntry) {
	bucket := c.buckets[e.hash]
	for i, cand := range bucket {
		if cand == e {
			bucket[i] = bucket[len(bucket)-1]
			c.buckets[e.hash] = bucket[:len(bucket)-1]
			break
		}
	}
	if len(c.buckets[e.hash]) == 0 {
		delete(c.buckets, e.hash)
	}
}

func (c *LayoutCache) evictLRU() {
	victim := c.tail.next
	if victim == c.head {
		return
	}
	c.unlink(victim)
	c.removeBucketEntry(victim)
	c.size--
}

// GetOrCreate probes the cache with a non-copying LookupKey, and on a miss
// (or a hit with fewer computed flags than requested) builds or rebuilds
// the piece, inserting a deep-copied entry.
func (c *LayoutCache) GetOrCreate(buf []uint16, contextStart, contextLimit, start, limit int, isRTL bool, paint font.Paint, flags ComputeFlags) *LayoutPiece {
	if limit-start > MaxPieceLength {
		return computeFull(buf, contextStart, contextLimit, start, limit, isRTL, paint, flags)
	}

	key := borrowLookupKey()
	key.buf = buf[contextStart:contextLimit]
	key.start = start - contextStart
	key.limit = limit - contextStart
	key.collection = paint.Collection
	key.size = paint.Size
	key.style = paint.Style
	key.flags = paint.Flags
	key.locale = paint.Locale
	key.isRTL = isRTL
	h := key.hash()

	c.lazyInit()

	c.mu.Lock()
	entry := c.find(h, key)
	var existing *LayoutPiece
	if entry != nil {
		existing = entry.piece
		c.unlink(entry)
		c.pushMRU(entry)
	}
	c.mu.Unlock()

	if entry != nil && flags&^existing.ComputeFlags == 0 {
		recycleLookupKey(key)
		return existing
	}

	piece := NewLayoutPiece(buf, contextStart, contextLimit, start, limit, isRTL, paint, existing, flags)
	if entry != nil {
		recycleLookupKey(key)
		c.mu.Lock()
		entry.piece = piece
		c.mu.Unlock()
		return piece
	}

	c.insert(h, key, piece)
	recycleLookupKey(key)
	return piece
}

// Len returns the number of entries currently cached.
func (c *LayoutCache) Len() int {
	c.lazyInit()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Footprint walks the cache and sums the approximate heap footprint, in
// bytes, of every entry's key and cached piece, for diagnostics. The figure
// counts the deep-copied windows and the piece's glyph, advance, and
// font-index arrays; it does not attempt to account for shared Fonts or
// allocator overhead.
func (c *LayoutCache) Footprint() int {
	c.lazyInit()
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for e := c.tail.next; e != c.head; e = e.next {
		total += entryFootprint(e)
	}
	return total
}

func entryFootprint(e *cacheEntry) int {
	const entryOverhead = 96 // cacheEntry header: pointers, offsets, flags
	n := entryOverhead + len(e.window)*2 + len(e.locale)
	if p := e.piece; p != nil {
		const glyphSize = 16 // uint32 id + three float32s
		n += len(p.Glyphs)*glyphSize + len(p.FontIndices) + len(p.Advances)*4 + len(p.Fonts)*8
	}
	return n
}

func (c *LayoutCache) insert(h uint64, k *LookupKey, piece *LayoutPiece) {
	e := &cacheEntry{
		hash:       h,
		window:     slices.Clone(k.buf),
		start:      k.start,
		limit:      k.limit,
		collection: k.collection,
		size:       k.size,
		style:      k.style,
		flags:      k.flags,
		locale:     k.locale,
		isRTL:      k.isRTL,
		piece:      piece,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Last-write-wins: a racing insert for the same key is tolerated;
	// both producers built a semantically identical piece.
	if old := c.find(h, k); old != nil {
		old.piece = piece
		c.unlink(old)
		c.pushMRU(old)
		return
	}
	c.buckets[h] = append(c.buckets[h], e)
	c.pushMRU(e)
	c.size++
	for c.size > cacheCapacity {
		c.evictLRU()
	}
}
