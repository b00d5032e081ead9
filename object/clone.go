package object

// cloner performs one deep structural copy. Every table kind is tracked by
// identity so shared substructure stays shared and self-referential data
// terminates instead of recursing forever.
type cloner struct {
	instances map[*Instance]*Instance
	records   map[*Member]*Member
	lists     map[*List]*List
	maps      map[*Map]*Map
	live      bool
}

// cloneTree deep-copies the instance and everything reachable from it.
// Parent sub-instances are re-homed into fresh copies, promoted member
// records stay aliased with their declaring level, and static cells are
// shared by pointer, never copied.
func (i *Instance) cloneTree(live bool) *Instance {
	c := &cloner{
		instances: make(map[*Instance]*Instance),
		records:   make(map[*Member]*Member),
		lists:     make(map[*List]*List),
		maps:      make(map[*Map]*Map),
		live:      live,
	}
	return c.instance(i)
}

func (c *cloner) instance(src *Instance) *Instance {
	if dup, ok := c.instances[src]; ok {
		return dup
	}

	src.mu.RLock()
	snapshot := make(map[string]*Member, len(src.members))
	for name, rec := range src.members {
		snapshot[name] = rec
	}
	constructed := src.constructed
	finalized := src.finalized
	src.mu.RUnlock()

	dup := &Instance{
		id:          generateID(src.class.name),
		class:       src.class,
		members:     make(map[string]*Member, len(snapshot)),
		live:        c.live,
		constructed: constructed,
		finalized:   finalized,
	}
	// Register before walking members so cycles resolve to dup.
	c.instances[src] = dup

	for name, rec := range snapshot {
		dup.members[name] = c.record(rec)
	}
	return dup
}

func (c *cloner) record(rec *Member) *Member {
	if dup, ok := c.records[rec]; ok {
		return dup
	}
	if rec.modifiers.Has(ModStatic) {
		// The shared cell is the whole point of static; keep the pointer.
		c.records[rec] = rec
		return rec
	}

	rec.mu.RLock()
	val := rec.value
	owner := rec.owner
	rec.mu.RUnlock()

	dup := &Member{
		owner:     owner,
		modifiers: rec.modifiers,
		ambiguous: rec.ambiguous,
	}
	c.records[rec] = dup
	dup.value = c.value(val)
	return dup
}

func (c *cloner) value(v Value) Value {
	switch v.Type {
	case TypeList:
		if v.ListVal == nil {
			return v
		}
		if dup, ok := c.lists[v.ListVal]; ok {
			return ListValue(dup)
		}
		dup := &List{Items: make([]Value, len(v.ListVal.Items))}
		c.lists[v.ListVal] = dup
		for idx, item := range v.ListVal.Items {
			dup.Items[idx] = c.value(item)
		}
		return ListValue(dup)
	case TypeMap:
		if v.MapVal == nil {
			return v
		}
		if dup, ok := c.maps[v.MapVal]; ok {
			return MapValue(dup)
		}
		dup := NewMap()
		c.maps[v.MapVal] = dup
		for k, entry := range v.MapVal.Entries {
			dup.Entries[k] = c.value(entry)
		}
		return MapValue(dup)
	case TypeInstance:
		if v.InstanceVal == nil {
			return v
		}
		return InstanceValue(c.instance(v.InstanceVal))
	default:
		// Scalars and function payloads are immutable; share them.
		return v
	}
}
