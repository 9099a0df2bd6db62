package autobuild

// RequestChain collects the requests of one build step in calling order. The
// most recent request has the highest priority; everything requested before
// it is the rest that may ride along.
type RequestChain struct {
	entries []BuildEntry
}

// Push appends a request; it becomes the highest priority.
func (c *RequestChain) Push(e BuildEntry) {
	c.entries = append(c.entries, e)
}

// Reset empties the chain.
func (c *RequestChain) Reset() {
	c.entries = c.entries[:0]
}

// Len returns the number of queued requests.
func (c *RequestChain) Len() int {
	return len(c.entries)
}

// Entries returns the requests in calling order.
func (c *RequestChain) Entries() []BuildEntry {
	return append([]BuildEntry(nil), c.entries...)
}

// Run executes the chain once against st, highest priority first. An empty
// chain returns false, as does a chain where nothing could be committed.
func (c *RequestChain) Run(r Resolver, st *SimState) bool {
	entries := c.Entries()
	return r.continuation(entries, len(entries))(st)
}

func (r Resolver) continuation(entries []BuildEntry, n int) Continuation {
	if n == 0 {
		return func(*SimState) bool { return false }
	}
	return func(st *SimState) bool {
		return r.Nodelay(st, entries[n-1], r.nested().continuation(entries, n-1))
	}
}
