package bytecode

// tableMaxLoad is the load factor past which Table grows.
const tableMaxLoad = 0.75

// entry is one bucket of a Table. Three states share this layout: empty
// (Key == nil, Value is Nil), tombstone (Key == nil, Value is Bool(true)),
// and live (Key != nil).
type entry struct {
	Key   *ObjString
	Value Value
}

// Table is glox's open-addressed hash map with linear probing and
// tombstone deletion. It is keyed by interned *ObjString pointers compared
// by identity, which is what lets Get/Set run without ever calling into
// the string-equality machinery. It backs the globals environment, every
// class's method table, every instance's field table, and (keyed
// differently, see FindString) the string-intern table.
type Table struct {
	count   int // live entries plus tombstones since the last rehash
	entries []entry
}

// Count reports the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].Key != nil {
			n++
		}
	}
	return n
}

func (t *Table) cap() int { return len(t.entries) }

// findEntry locates the bucket a key belongs in: the first empty or
// matching bucket found while probing from its hash, skipping tombstones
// (but remembering the first tombstone seen, so Set can reuse it).
func findEntry(entries []entry, key *ObjString) *entry {
	capacity := len(entries)
	index := key.Hash % uint32(capacity)
	var tombstone *entry
	for {
		e := &entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				// Truly empty: return the tombstone we found earlier, if any.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// Tombstone.
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		index = (index + 1) % uint32(capacity)
	}
}

func (t *Table) adjustCapacity(newCap int) {
	newEntries := make([]entry, newCap)
	for i := range newEntries {
		newEntries[i] = entry{Key: nil, Value: NilVal}
	}

	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.Key == nil {
			continue
		}
		dst := findEntry(newEntries, old.Key)
		dst.Key = old.Key
		dst.Value = old.Value
		t.count++
	}
	t.entries = newEntries
}

// Get looks up key, returning (value, true) on hit and (Nil, false) on miss.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.cap() == 0 {
		return NilVal, false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return NilVal, false
	}
	return e.Value, true
}

// Set inserts or overwrites key -> value. It returns true iff this
// inserted a brand new key (overwrites of an existing key return false).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(t.cap())*tableMaxLoad {
		newCap := grow(t.cap())
		t.adjustCapacity(newCap)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.Key == nil
	if isNewKey && e.Value.IsNil() {
		// A genuinely empty bucket, not a reused tombstone: count grows.
		t.count++
	}

	e.Key = key
	e.Value = value
	return isNewKey
}

func grow(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

// Delete replaces key's entry with a tombstone. The internal count is left unchanged —
// tombstones occupy a bucket until the next rehash, and a rehash built
// from adjustCapacity recomputes count from scratch, so tombstones
// evaporate there rather than here.
func (t *Table) Delete(key *ObjString) bool {
	if t.cap() == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = BoolVal(true) // tombstone marker
	return true
}

// AddAll copies every live entry of src into dst via Set, used by INHERIT
// to copy a superclass's methods into a subclass's table.
func AddAll(src, dst *Table) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.Key != nil {
			dst.Set(e.Key, e.Value)
		}
	}
}

// FindString is the only lookup keyed by raw bytes rather than an
// already-interned *ObjString; the interner uses it to decide whether a
// byte sequence already has a canonical String object.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.cap() == 0 {
		return nil
	}
	capacity := t.cap()
	index := hash % uint32(capacity)
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil // empty, non-tombstone: probing stops
			}
			// tombstone: keep probing
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) % uint32(capacity)
	}
}

// RemoveWhite deletes every entry whose key is an unmarked string. Used on
// the intern table during GC to implement its weak-reference semantics:
// interning does not by itself keep a string alive.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.IsMarked() {
			t.Delete(e.Key)
		}
	}
}

// Each calls fn for every live entry. The GC uses this to mark table
// contents without Table needing to know anything about marking.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}
