package adjacency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
)

// Set is an identified constraint record: the list of fragments permitted at
// one directional offset from one (or, when interned, several) source
// fragments. Sets are immutable after construction.
type Set struct {
	ID      string
	Allowed []fragment.Key

	allowed map[fragment.Key]struct{}
}

// newSet builds a set from a sorted allowed list.
func newSet(id string, allowed []fragment.Key) *Set {
	s := &Set{ID: id, Allowed: allowed, allowed: make(map[fragment.Key]struct{}, len(allowed))}
	for _, k := range allowed {
		s.allowed[k] = struct{}{}
	}
	return s
}

// Contains reports whether the set permits the given fragment.
func (s *Set) Contains(k fragment.Key) bool {
	_, ok := s.allowed[k]
	return ok
}

// Len returns the number of permitted fragments.
func (s *Set) Len() int { return len(s.Allowed) }

// Table holds every constraint set for a catalog, indexed by
// (source fragment, offset). Tables are built once by [Build] and immutable
// afterwards.
type Table struct {
	sets     map[string]*Set
	bySource map[fragment.Key]map[Offset]string
}

// Lookup returns the constraint set governing neighbors of src at the given
// offset.
func (t *Table) Lookup(src fragment.Key, off Offset) (*Set, bool) {
	offsets, ok := t.bySource[src]
	if !ok {
		return nil, false
	}
	id, ok := offsets[off]
	if !ok {
		return nil, false
	}
	s, ok := t.sets[id]
	return s, ok
}

// Set returns the constraint set with the given id.
func (t *Table) Set(id string) (*Set, bool) {
	s, ok := t.sets[id]
	return s, ok
}

// Sets returns all distinct constraint sets sorted by id.
func (t *Table) Sets() []*Set {
	out := make([]*Set, 0, len(t.sets))
	for _, s := range t.sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of distinct constraint sets.
func (t *Table) Len() int { return len(t.sets) }

// Sources returns all source fragment keys in sorted order.
func (t *Table) Sources() []fragment.Key {
	keys := make([]fragment.Key, 0, len(t.bySource))
	for k := range t.bySource {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Validate checks table invariants: every offset is orthogonal (never center
// or diagonal) and every referenced set exists.
func (t *Table) Validate() error {
	for src, offsets := range t.bySource {
		for off, id := range offsets {
			if !off.Valid() {
				return errors.New(errors.ErrCodeInvariant,
					"source %s references invalid offset (%d,%d)", fragment.ShortKey(src), off.DX, off.DY)
			}
			if _, ok := t.sets[id]; !ok {
				return errors.New(errors.ErrCodeInvariant,
					"source %s references unknown set %s", fragment.ShortKey(src), id)
			}
		}
	}
	return nil
}

// contentID derives a deterministic set id from the allowed list, used when
// interning identical lists into shared sets.
func contentID(allowed []fragment.Key) string {
	h := sha256.New()
	for _, k := range allowed {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return "set-" + hex.EncodeToString(h.Sum(nil))[:32]
}

// =============================================================================
// Serialization
// =============================================================================

type setDoc struct {
	ID      string   `json:"id"`
	Allowed []string `json:"allowed"`
}

type tableDoc struct {
	Sets     []setDoc                     `json:"sets"`
	BySource map[string]map[string]string `json:"by_source"` // source key -> offset name -> set id
}

// MarshalJSON serializes the table for caching and artifact export.
func (t *Table) MarshalJSON() ([]byte, error) {
	doc := tableDoc{
		Sets:     make([]setDoc, 0, len(t.sets)),
		BySource: make(map[string]map[string]string, len(t.bySource)),
	}
	for _, s := range t.Sets() {
		allowed := make([]string, len(s.Allowed))
		for i, k := range s.Allowed {
			allowed[i] = string(k)
		}
		doc.Sets = append(doc.Sets, setDoc{ID: s.ID, Allowed: allowed})
	}
	for src, offsets := range t.bySource {
		m := make(map[string]string, len(offsets))
		for off, id := range offsets {
			m[off.Name()] = id
		}
		doc.BySource[string(src)] = m
	}
	return json.Marshal(doc)
}

// UnmarshalJSON restores a table serialized with MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var doc tableDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	t.sets = make(map[string]*Set, len(doc.Sets))
	t.bySource = make(map[fragment.Key]map[Offset]string, len(doc.BySource))
	for _, sd := range doc.Sets {
		allowed := make([]fragment.Key, len(sd.Allowed))
		for i, k := range sd.Allowed {
			allowed[i] = fragment.Key(k)
		}
		t.sets[sd.ID] = newSet(sd.ID, allowed)
	}
	for src, offsets := range doc.BySource {
		m := make(map[Offset]string, len(offsets))
		for name, id := range offsets {
			off, err := ParseOffset(name)
			if err != nil {
				return err
			}
			if _, ok := t.sets[id]; !ok {
				return errors.New(errors.ErrCodeInvariant, "table references unknown set %s", id)
			}
			m[off] = id
		}
		t.bySource[fragment.Key(src)] = m
	}
	return nil
}
