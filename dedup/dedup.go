// Package dedup suppresses repeated usage entries by remembering 64-bit
// FNV-1a fingerprints of their message/request ID pair in a fixed-size,
// open-addressing table.
//
// Only fingerprints are stored. Two different keys with the same hash are
// treated as the same key, and a key whose probe run finds neither a match
// nor a free slot is reported as new, so under heavy load a true duplicate
// can occasionally slip through.
package dedup

const (
	// Capacity is the number of slots. It must be a power of two.
	Capacity = 1 << 18

	// MaxProbes bounds the linear probe run for a single lookup.
	MaxProbes = 64

	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// Set is a fixed-capacity fingerprint set. The zero value is not usable; call
// New. A Set is not safe for concurrent use.
type Set struct {
	hashes  []uint64
	present []bool
}

// New allocates a Set with Capacity slots.
func New() *Set {
	return &Set{
		hashes:  make([]uint64, Capacity),
		present: make([]bool, Capacity),
	}
}

// Hash returns the 64-bit FNV-1a hash of b.
func Hash(b []byte) uint64 {
	h := uint64(offset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}

// Key appends the composite key "messageID:requestID" to dst. It returns nil
// when both IDs are empty: such entries cannot be deduplicated.
func Key(dst, messageID, requestID []byte) []byte {
	if len(messageID) == 0 && len(requestID) == 0 {
		return nil
	}
	dst = append(dst[:0], messageID...)
	dst = append(dst, ':')
	return append(dst, requestID...)
}

// Seen records key and reports whether it had already been recorded. A nil or
// empty key is never a duplicate and is not recorded.
func (s *Set) Seen(key []byte) bool {
	if len(key) == 0 {
		return false
	}
	return s.SeenHash(Hash(key))
}

// SeenHash is Seen for a precomputed fingerprint.
func (s *Set) SeenHash(h uint64) bool {
	mask := uint64(len(s.hashes) - 1)
	idx := h & mask
	for i := 0; i < MaxProbes; i++ {
		if !s.present[idx] {
			s.hashes[idx] = h
			s.present[idx] = true
			return false
		}
		if s.hashes[idx] == h {
			return true
		}
		idx = (idx + 1) & mask
	}
	return false
}

// Reset forgets every key without reallocating. Stored hashes are left in
// place; they are ignored until their slot is marked present again.
func (s *Set) Reset() {
	clear(s.present)
}

// Len returns the number of occupied slots.
func (s *Set) Len() int {
	n := 0
	for _, p := range s.present {
		if p {
			n++
		}
	}
	return n
}
