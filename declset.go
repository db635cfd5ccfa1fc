package factory

import (
	"fmt"
	"sort"
	"strings"
)

// nestedSep separates a dotted override's root from its subpath.
const nestedSep = "__"

// splitKey splits "a__b__c" into root "a" and subpath "b__c". The subpath
// is empty for a plain name.
func splitKey(name string) (root, sub string) {
	root, sub, _ = strings.Cut(name, nestedSep)
	return root, sub
}

// joinKey is the inverse of splitKey for well-formed dotted names.
func joinKey(root, sub string) string {
	if sub == "" {
		return root
	}
	return root + nestedSep + sub
}

// declEntry is one top-level declaration plus its nested-override context.
type declEntry struct {
	value    any    // Declaration or plain value
	context  []Decl // ordered subpath -> value overrides
	orderKey uint64
	index    int // insertion order, breaks orderKey ties
}

func (e *declEntry) clone() *declEntry {
	c := *e
	c.context = make([]Decl, len(e.context))
	copy(c.context, e.context)
	return &c
}

func (e *declEntry) setContext(sub string, v any) {
	for i, d := range e.context {
		if d.Name == sub {
			e.context[i].Value = v
			return
		}
	}
	e.context = append(e.context, Decl{Name: sub, Value: v})
}

// declarationSet is an ordered mapping of top-level declaration name to
// declaration plus nested-override context, used both for attribute
// declarations and post-instantiation declarations.
type declarationSet struct {
	entries map[string]*declEntry
	names   []string // insertion order
	kind    string   // "attribute" or "post-generation", for error messages
	owner   string   // factory name, for error messages

	// appendNew marks a per-build copy: additions order by ingestion so
	// call-time declarations run after the declared ones, and replacing a
	// declared entry keeps its slot.
	appendNew bool
}

func newDeclarationSet(kind, owner string) *declarationSet {
	return &declarationSet{entries: map[string]*declEntry{}, kind: kind, owner: owner}
}

func (s *declarationSet) has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

func (s *declarationSet) get(name string) *declEntry {
	return s.entries[name]
}

func (s *declarationSet) len() int {
	return len(s.entries)
}

// update ingests name -> declaration-or-value pairs. Dotted names route
// into the nested context of their root; a nested override whose root is
// not a known top-level declaration is a definition error.
func (s *declarationSet) update(decls []Decl) error {
	for _, d := range decls {
		root, sub := splitKey(d.Name)
		if sub == "" {
			s.set(root, d.Value)
			continue
		}
		entry, ok := s.entries[root]
		if !ok {
			return NewDefinitionError(s.owner, d.Name,
				fmt.Sprintf("nested override for undeclared %s %q", s.kind, root))
		}
		entry.setContext(sub, d.Value)
	}
	return nil
}

// set inserts or replaces a top-level entry, keeping any accumulated
// nested context. At definition time the ordering key comes from the
// declaration's creation order, so class-body declarations sort in source
// order; plain values draw a key at ingestion. In appendNew mode the key
// always comes from ingestion, so a call-time declaration sorts after the
// declared ones no matter when it was constructed.
func (s *declarationSet) set(name string, value any) {
	orderKey := nextCreationOrder()
	if decl, ok := value.(Declaration); ok && !s.appendNew {
		orderKey = decl.CreationOrder()
	}
	if entry, ok := s.entries[name]; ok {
		entry.value = value
		if !s.appendNew {
			entry.orderKey = orderKey
		}
		return
	}
	s.entries[name] = &declEntry{value: value, orderKey: orderKey, index: len(s.names)}
	s.names = append(s.names, name)
}

// setContext routes one nested override (possibly the bare ExtractedKey)
// into an existing entry.
func (s *declarationSet) setContext(root, sub string, v any) {
	s.entries[root].setContext(sub, v)
}

// filter returns the subset of candidate dotted names whose root is a known
// top-level declaration, preserving input order.
func (s *declarationSet) filter(candidates []string) []string {
	var out []string
	for _, name := range candidates {
		root, _ := splitKey(name)
		if s.has(root) {
			out = append(out, name)
		}
	}
	return out
}

// sorted returns the top-level names ordered by creation-order key, ties
// broken by insertion order.
func (s *declarationSet) sorted() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	sort.SliceStable(names, func(i, j int) bool {
		a, b := s.entries[names[i]], s.entries[names[j]]
		if a.orderKey != b.orderKey {
			return a.orderKey < b.orderKey
		}
		return a.index < b.index
	})
	return names
}

// copy returns a set that can be mutated independently. Declaration values
// are shared (they are read-only); entries and contexts are not.
func (s *declarationSet) copy() *declarationSet {
	c := &declarationSet{
		entries: make(map[string]*declEntry, len(s.entries)),
		names:   make([]string, len(s.names)),
		kind:    s.kind,
		owner:   s.owner,
	}
	copy(c.names, s.names)
	for name, entry := range s.entries {
		c.entries[name] = entry.clone()
	}
	return c
}

// parseDeclarations partitions a flat override list over inherited pre and
// post sets. Post-phase declarations move to the post set (a name collision
// with an attribute declaration is an error); bare or dotted values whose
// root names a known post declaration become its context; everything else
// is an attribute declaration. The reserved sequence override is extracted
// separately. The partition is re-derived per build because call-time
// values can turn a would-be attribute into post-declaration context.
//
// Routing is positional: once a post-phase declaration claims a name, a
// later same-named plain value in the list is its extracted default, not
// an attribute. The reverse, an attribute name later reclaimed by a
// post-phase declaration, is rejected.
func parseDeclarations(pre, post *declarationSet, extra []Decl) (forced *int64, err error) {
	for _, d := range extra {
		if d.Name == SequenceOverrideKey {
			n, ok := asInt64(d.Value)
			if !ok {
				return nil, NewDefinitionError(pre.owner, d.Name, "sequence override must be an integer")
			}
			forced = &n
			continue
		}
		root, sub := splitKey(d.Name)
		if decl, ok := d.Value.(Declaration); ok && decl.Phase() == PostInstantiation && sub == "" {
			if pre.has(d.Name) {
				return nil, NewDefinitionError(pre.owner, d.Name,
					"cannot be both an attribute and a post-generation hook")
			}
			if err := post.update([]Decl{d}); err != nil {
				return nil, err
			}
			continue
		}
		if post.has(root) {
			if sub == "" {
				post.setContext(root, ExtractedKey, d.Value)
			} else {
				post.setContext(root, sub, d.Value)
			}
			continue
		}
		if err := pre.update([]Decl{d}); err != nil {
			return nil, err
		}
	}
	return forced, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
