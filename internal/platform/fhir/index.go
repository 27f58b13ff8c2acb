package fhir

// Index is a lookup table over the entries of one Bundle. It is built in a
// single pass and never modified afterwards.
type Index struct {
	bundle     *Bundle
	keys       map[string][]int
	subs       map[int]*Index
	duplicates int
}

// NewIndex indexes every entry of b by id, Type/id and fullUrl. Entries whose
// resource is itself a Bundle get their own index, reachable through Sub.
func NewIndex(b *Bundle) *Index {
	ix := &Index{
		bundle: b,
		keys:   make(map[string][]int, len(b.Entries)*3),
		subs:   make(map[int]*Index),
	}
	for pos, e := range b.Entries {
		if ident, alias := entryKeys(e); ix.add(pos, ident, alias) {
			ix.duplicates++
		}
		if e.Resource != nil && e.Resource.Type() == "Bundle" {
			if nested, err := BundleFromResource(e.Resource); err == nil {
				ix.subs[pos] = NewIndex(nested)
			}
		}
	}
	return ix
}

// entryKeys lists the lookup keys of an entry. Type/id and fullUrl identify
// the entry; collisions on them mark a duplicate. Aliases may be shared by
// unrelated entries, such as Patient/1 and Medication/1 under the bare id.
func entryKeys(e Entry) (ident, alias []string) {
	var rt, id string
	if e.Resource != nil {
		rt, id = e.Resource.Type(), e.Resource.ID()
	}
	if rt != "" && id != "" {
		ident = append(ident, rt+"/"+id)
	}
	if e.FullURL != "" {
		ref := ParseReference(e.FullURL)
		ident = append(ident, ref.Key)
		if ref.Kind == ReferenceAbsolute && ref.ResourceType != "" {
			alias = append(alias, ref.ResourceType+"/"+ref.ID)
		}
	}
	if id != "" {
		alias = append(alias, normalizeKey(id))
	}
	return ident, alias
}

// add registers pos under its keys and reports whether an identifying key
// was already owned by an earlier entry.
func (ix *Index) add(pos int, ident, alias []string) bool {
	dup := false
	for _, k := range ident {
		if ix.register(pos, k) {
			dup = true
		}
	}
	for _, k := range alias {
		ix.register(pos, k)
	}
	return dup
}

// register appends pos to the owners of k and reports whether an earlier
// entry owned it.
func (ix *Index) register(pos int, k string) bool {
	if k == "" {
		return false
	}
	owners := ix.keys[k]
	if len(owners) > 0 && owners[len(owners)-1] == pos {
		return false
	}
	ix.keys[k] = append(owners, pos)
	return len(owners) > 0
}

// Bundle returns the indexed bundle.
func (ix *Index) Bundle() *Bundle { return ix.bundle }

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.bundle.Entries) }

// Duplicates returns how many entries repeated an id or fullUrl already seen
// earlier in the bundle. Such entries are only reachable by position.
func (ix *Index) Duplicates() int { return ix.duplicates }

// Sub returns the index of a nested Bundle entry.
func (ix *Index) Sub(e Entry) (*Index, bool) {
	if e.Position < 0 || e.Position >= len(ix.bundle.Entries) {
		return nil, false
	}
	sub, ok := ix.subs[e.Position]
	return sub, ok
}

func (ix *Index) lookup(key string, ref Reference) (Entry, bool) {
	for _, pos := range ix.keys[key] {
		e := ix.bundle.Entries[pos]
		if ref.matches(e) {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve looks ref up in ix. "#" and "urn:uuid:" prefixes are stripped
// before the lookup, and Type/id suffixes of absolute or relative references
// are tried afterwards. A reference naming a resource type never resolves to
// an entry of another type.
func Resolve(ix *Index, ref string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	r := ParseReference(ref)
	switch r.Kind {
	case ReferenceEmpty:
		return Entry{}, false
	case ReferenceAbsolute:
		if e, ok := ix.lookup(r.Key, r); ok {
			return e, true
		}
		if r.ResourceType != "" {
			if e, ok := ix.lookup(r.ResourceType+"/"+r.ID, r); ok {
				return e, true
			}
		}
		return ix.lookup(normalizeKey(r.ID), r)
	case ReferenceRelative:
		if e, ok := ix.lookup(r.Key, r); ok {
			return e, true
		}
		return ix.lookup(normalizeKey(r.ID), r)
	default:
		return ix.lookup(r.Key, r)
	}
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver resolves references on behalf of one container resource. Anchor
// references ("#id") are looked up in the container's contained resources
// first, then in the index the container belongs to.
type Resolver struct {
	index     *Index
	container Resource
}

// NewResolver returns a resolver over ix without a container.
func NewResolver(ix *Index) *Resolver {
	return &Resolver{index: ix}
}

// Index returns the index the resolver is scoped to.
func (r *Resolver) Index() *Index { return r.index }

// Container returns the resource references are resolved for.
func (r *Resolver) Container() Resource { return r.container }

// For returns a copy of r that resolves anchors against container.
func (r *Resolver) For(container Resource) *Resolver {
	return &Resolver{index: r.index, container: container}
}

// Sub returns a resolver scoped to a nested Bundle entry of the current
// index. Its lookups never fall back to the outer bundle.
func (r *Resolver) Sub(e Entry) (*Resolver, bool) {
	if r.index == nil {
		return nil, false
	}
	sub, ok := r.index.Sub(e)
	if !ok {
		return nil, false
	}
	return &Resolver{index: sub, container: e.Resource}, true
}

// ResolveEntry resolves ref to a bundle entry. Contained resources are
// returned as entries with Position -1.
func (r *Resolver) ResolveEntry(ref string) (Entry, bool) {
	p := ParseReference(ref)
	if p.Kind == ReferenceAnchor {
		if p.ID == "" {
			if r.container == nil {
				return Entry{}, false
			}
			return Entry{Resource: r.container, Position: -1}, true
		}
		for _, c := range Array(r.container, "contained") {
			res := Object(c)
			if res != nil && res.ID() == p.ID {
				return Entry{Resource: res, Position: -1}, true
			}
		}
	}
	return Resolve(r.index, ref)
}

// Resolve resolves ref to a resource.
func (r *Resolver) Resolve(ref string) (Resource, bool) {
	e, ok := r.ResolveEntry(ref)
	if !ok || e.Resource == nil {
		return nil, false
	}
	return e.Resource, true
}

// Require resolves a mandatory reference of resourceType. An empty ref is a
// missing field, a dangling one an unresolved reference.
func (r *Resolver) Require(resourceType, field, ref string) (Resource, error) {
	if ref == "" {
		return nil, MissingField(resourceType, field)
	}
	res, ok := r.Resolve(ref)
	if !ok {
		return nil, Unresolved(resourceType, field, ref)
	}
	return res, nil
}
