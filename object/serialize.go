package object

// Serialize walks the instance into a plain nested map: a name tag
// identifying the class, every non-transient, non-static, non-function
// member the instance's own class declared, and one nested map per parent
// holding that level's state. The shape is encoding-agnostic; the wire
// package binds it to concrete codecs.
func (r *Ref) Serialize() (map[string]any, error) {
	return serializeInstance(r.inst)
}

func serializeInstance(inst *Instance) (map[string]any, error) {
	inst.mu.RLock()
	snapshot := make(map[string]*Member, len(inst.members))
	for name, rec := range inst.members {
		snapshot[name] = rec
	}
	inst.mu.RUnlock()

	cls := inst.class
	out := map[string]any{memberNameTag: cls.name}

	for name, rec := range snapshot {
		mods := rec.Modifiers()
		if mods.Has(ModParent) || mods.Has(ModTransient) || mods.Has(ModStatic) || mods.Has(ModAbstract) {
			continue
		}
		if rec.Owner() != cls {
			// Inherited state is emitted at its declaring level.
			continue
		}
		v := rec.Value()
		if v.Type == TypeFunc {
			continue
		}
		plain, err := toPlain(cls.name, name, v, make(map[any]bool))
		if err != nil {
			return nil, err
		}
		out[name] = plain
	}

	for _, parent := range cls.parents {
		rec, ok := snapshot[parent.name]
		if !ok || !rec.Modifiers().Has(ModParent) {
			continue
		}
		sub := rec.Value().InstanceVal
		if sub == nil {
			continue
		}
		nested, err := serializeInstance(sub)
		if err != nil {
			return nil, err
		}
		out[parentKey(snapshot, parent, rec)] = nested
	}
	return out, nil
}

// parentKey picks the name a parent's nested map is filed under: the short
// name when it is an unambiguous alias of this link, the full name
// otherwise.
func parentKey(snapshot map[string]*Member, parent *Class, link *Member) string {
	if parent.short == memberNameTag {
		return parent.name
	}
	if short, ok := snapshot[parent.short]; ok && short == link && !short.Ambiguous() {
		return parent.short
	}
	return parent.name
}

// toPlain lowers a value to plain data. Identity tracking rejects cycles;
// functions and instance references have no plain form.
func toPlain(class, member string, v Value, seen map[any]bool) (any, error) {
	switch v.Type {
	case TypeNil:
		return nil, nil
	case TypeBool:
		return v.IntVal != 0, nil
	case TypeInt:
		return v.IntVal, nil
	case TypeFloat:
		return v.FloatVal, nil
	case TypeString:
		return v.StringVal, nil
	case TypeList:
		if v.ListVal == nil {
			return []any{}, nil
		}
		if seen[v.ListVal] {
			return nil, &SerializeError{Class: class, Member: member, Message: "value is cyclic"}
		}
		seen[v.ListVal] = true
		defer delete(seen, v.ListVal)
		items := make([]any, len(v.ListVal.Items))
		for i, item := range v.ListVal.Items {
			plain, err := toPlain(class, member, item, seen)
			if err != nil {
				return nil, err
			}
			items[i] = plain
		}
		return items, nil
	case TypeMap:
		if v.MapVal == nil {
			return map[string]any{}, nil
		}
		if seen[v.MapVal] {
			return nil, &SerializeError{Class: class, Member: member, Message: "value is cyclic"}
		}
		seen[v.MapVal] = true
		defer delete(seen, v.MapVal)
		entries := make(map[string]any, len(v.MapVal.Entries))
		for k, entry := range v.MapVal.Entries {
			plain, err := toPlain(class, member, entry, seen)
			if err != nil {
				return nil, err
			}
			entries[k] = plain
		}
		return entries, nil
	case TypeFunc:
		return nil, &SerializeError{Class: class, Member: member, Message: "function values have no plain form"}
	case TypeInstance:
		return nil, &SerializeError{Class: class, Member: member, Message: "instance references have no plain form; mark the member transient"}
	default:
		return nil, &SerializeError{Class: class, Member: member, Message: "unknown value type"}
	}
}

// Restore rebuilds an instance from serialized data, resolving the target
// class from the name tag.
func (r *Registry) Restore(data map[string]any) (*Ref, error) {
	raw, ok := data[memberNameTag]
	if !ok {
		return nil, &ResolutionError{Class: "?", Message: "serialized data carries no class tag"}
	}
	name, ok := raw.(string)
	if !ok {
		return nil, &ResolutionError{Class: "?", Message: "serialized class tag is not a string"}
	}
	cls, ok := r.Lookup(name)
	if !ok {
		return nil, &ResolutionError{Class: name, Message: "class is not registered"}
	}
	return cls.Restore(data)
}

// Restore follows the same shape as New minus the constructor: abstract
// gate, template clone, then an overlay of the serialized fields with
// transient members left at their declared defaults. Unknown keys are
// ignored.
func (c *Class) Restore(data map[string]any) (*Ref, error) {
	if raw, ok := data[memberNameTag]; ok {
		if tag, isStr := raw.(string); isStr && tag != c.name {
			return nil, &ResolutionError{Class: c.name, Message: "serialized data is tagged for class " + tag}
		}
	}
	if c.IsAbstract() {
		return nil, &AbstractError{Class: c.name, Missing: c.MissingAbstract()}
	}

	inst := c.template.cloneTree(true)
	markConstructed(inst)
	if err := overlay(inst, data); err != nil {
		return nil, err
	}
	c.registerFinalizer(inst)
	c.registry.track(inst)
	return c.registry.runAfterCreate(&Ref{inst: inst})
}

// markConstructed flags every inheritance level of a restored instance.
// Snapshots hold post-construction state, so no level's constructor may
// run again.
func markConstructed(inst *Instance) {
	inst.constructed = true
	for _, rec := range inst.members {
		if !rec.Modifiers().Has(ModParent) {
			continue
		}
		if sub := rec.Value().InstanceVal; sub != nil && !sub.constructed {
			markConstructed(sub)
		}
	}
}

// overlay assigns serialized fields into a freshly cloned member table.
// This is the structural layer, not the access layer: private and const
// members restore like any other, while transient, static, and function
// members never come from data.
func overlay(inst *Instance, data map[string]any) error {
	for key, raw := range data {
		if key == memberNameTag {
			continue
		}
		rec, ok := inst.members[key]
		if !ok {
			continue
		}
		if rec.Modifiers().Has(ModParent) {
			if rec.Ambiguous() {
				return &ResolutionError{Class: inst.class.name, Member: key, Message: "serialized parent key is ambiguous; regenerate the data"}
			}
			nested, isMap := raw.(map[string]any)
			if !isMap {
				return &SerializeError{Class: inst.class.name, Member: key, Message: "parent entry is not a nested map"}
			}
			sub := rec.Value().InstanceVal
			if sub == nil {
				continue
			}
			if err := overlay(sub, nested); err != nil {
				return err
			}
			continue
		}
		mods := rec.Modifiers()
		if mods.Has(ModTransient) || mods.Has(ModStatic) || mods.Has(ModAbstract) || rec.Ambiguous() {
			continue
		}
		if rec.Owner() != inst.class {
			// Inherited state restores at its declaring level.
			continue
		}
		if rec.isFunction() {
			continue
		}
		rec.setValue(FromPlain(raw))
	}
	return nil
}
