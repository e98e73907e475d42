package files

// Collection is an ordered set of records keyed by identity key.
//
// A record with a delete in flight stays in its slot as a tombstone: it is
// invisible to Get and Records until the delete resolves, so a failed delete
// can put it back exactly where it was no matter what else was removed or
// restored meanwhile.
type Collection struct {
	keys    []string
	byKey   map[string]Record
	pending map[string]bool
}

// NewCollection builds a collection from validated records, keeping order.
func NewCollection(records []Record) *Collection {
	c := &Collection{
		keys:    make([]string, 0, len(records)),
		byKey:   make(map[string]Record, len(records)),
		pending: make(map[string]bool),
	}
	for _, r := range records {
		if _, dup := c.byKey[r.Key]; dup {
			continue
		}
		c.keys = append(c.keys, r.Key)
		c.byKey[r.Key] = r
	}
	return c
}

// Get returns the visible record for key.
func (c *Collection) Get(key string) (Record, bool) {
	if c.pending[key] {
		return Record{}, false
	}
	r, ok := c.byKey[key]
	return r, ok
}

// Records returns a copy of the visible records in arrival order.
func (c *Collection) Records() []Record {
	out := make([]Record, 0, len(c.keys)-len(c.pending))
	for _, k := range c.keys {
		if c.pending[k] {
			continue
		}
		out = append(out, c.byKey[k])
	}
	return out
}

// hide tombstones key in place.
func (c *Collection) hide(key string) bool {
	if _, ok := c.Get(key); !ok {
		return false
	}
	c.pending[key] = true
	return true
}

// restore makes a tombstoned key visible again in its original slot.
func (c *Collection) restore(key string) bool {
	if !c.pending[key] {
		return false
	}
	delete(c.pending, key)
	return true
}

// drop removes a tombstoned key for good.
func (c *Collection) drop(key string) {
	if !c.pending[key] {
		return
	}
	delete(c.pending, key)
	delete(c.byKey, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return
		}
	}
}
