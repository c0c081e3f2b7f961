package fastloop

// wakerSlab is a slab allocator mapping Token -> *Waker, with O(1) insert
// and remove via a free-index stack. Inserting returns a recycled index in
// O(1); removal frees the slot for reuse (spec §4.2 "Design notes").
//
// Ported from the shape of the Rust `slab` crate usage in
// original_source/src/reactor.rs ("Slab::with_capacity", O(1) insert/
// remove, recycled indices); Go has no equivalent crate in the example
// pack, so this is a direct, justified stdlib substitution: a growable
// slice plus a free list.
type wakerSlab struct {
	entries []*Waker // nil entry = empty slot
	free    []Token  // stack of reusable indices
}

func newWakerSlab(capacity int) *wakerSlab {
	return &wakerSlab{
		entries: make([]*Waker, 0, capacity),
	}
}

// insert stores w and returns its token. If a free slot exists it is
// reused (spec Scenario F: "slab reuse"); otherwise the slab grows by one.
func (s *wakerSlab) insert(w *Waker) Token {
	if n := len(s.free); n > 0 {
		tok := s.free[n-1]
		s.free = s.free[:n-1]
		s.entries[tok] = w
		return tok
	}
	s.entries = append(s.entries, w)
	return Token(len(s.entries) - 1)
}

// get returns the waker at token, or nil if the slot is empty or the
// token is out of range.
func (s *wakerSlab) get(token Token) *Waker {
	if int(token) < 0 || int(token) >= len(s.entries) {
		return nil
	}
	return s.entries[token]
}

// remove clears the slot at token and frees it for reuse. Removing an
// already-empty or out-of-range slot is a no-op (idempotent double-
// deregister, spec §4.2).
func (s *wakerSlab) remove(token Token) {
	if int(token) < 0 || int(token) >= len(s.entries) {
		return
	}
	if s.entries[token] == nil {
		return
	}
	s.entries[token] = nil
	s.free = append(s.free, token)
}

// len reports the number of occupied slots.
func (s *wakerSlab) len() int {
	return len(s.entries) - len(s.free)
}
