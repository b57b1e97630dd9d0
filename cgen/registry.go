package cgen

// SymbolID indexes the registry's entry arena. IDs stay valid after the
// frame that declared them is popped, so deferred tokens can hold them.
type SymbolID int

// Entry is what the registry knows about a declared variable.
type Entry struct {
	Name       string
	Type       string
	ArraySizes []string
	Pointer    bool
	Dynamic    bool // heap array declared with [x] * n
}

// Field is one member of a synthesized multi-value return structure.
type Field struct {
	Type    string
	Pointer bool
}

type frame struct {
	names map[string]SymbolID
	order []SymbolID
}

// Registry tracks declared variables in a stack of frames: the global
// frame, then one frame per function or block body being walked. Lookups
// fall back from the innermost frame to the global one.
type Registry struct {
	entries []Entry
	frames  []*frame
	structs map[string][]Field
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset drops every frame, entry and structure.
func (r *Registry) Reset() {
	r.entries = nil
	r.frames = []*frame{newFrame()}
	r.structs = map[string][]Field{}
}

func newFrame() *frame {
	return &frame{names: map[string]SymbolID{}}
}

// Push opens a nested frame.
func (r *Registry) Push() {
	r.frames = append(r.frames, newFrame())
}

// Pop closes the innermost frame. The global frame is never popped.
func (r *Registry) Pop() {
	if len(r.frames) > 1 {
		r.frames = r.frames[:len(r.frames)-1]
	}
}

// Depth is the number of open frames above the global one.
func (r *Registry) Depth() int {
	return len(r.frames) - 1
}

// Declare records e in the innermost frame. Redeclaring a name in the
// same frame gives it a fresh entry, so tokens emitted for the earlier
// declaration keep rendering the earlier entry; ok is false in that case.
func (r *Registry) Declare(e Entry) (id SymbolID, ok bool) {
	f := r.frames[len(r.frames)-1]
	old, exists := f.names[e.Name]
	id = SymbolID(len(r.entries))
	r.entries = append(r.entries, e)
	f.names[e.Name] = id
	if !exists {
		f.order = append(f.order, id)
		return id, true
	}
	for i, o := range f.order {
		if o == old {
			f.order[i] = id
		}
	}
	return id, false
}

// DeclareGlobal records e in the global frame, e.g. for symbols imported
// from another module. The first declaration of a name wins.
func (r *Registry) DeclareGlobal(e Entry) (SymbolID, bool) {
	f := r.frames[0]
	if id, ok := f.names[e.Name]; ok {
		return id, false
	}
	id := SymbolID(len(r.entries))
	r.entries = append(r.entries, e)
	f.names[e.Name] = id
	f.order = append(f.order, id)
	return id, true
}

// Lookup finds name in the innermost frame that declares it.
func (r *Registry) Lookup(name string) (SymbolID, bool) {
	for i := len(r.frames) - 1; i >= 0; i-- {
		if id, ok := r.frames[i].names[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// Entry returns the entry for id.
func (r *Registry) Entry(id SymbolID) *Entry {
	return &r.entries[id]
}

// LookupEntry is Lookup followed by Entry.
func (r *Registry) LookupEntry(name string) (*Entry, bool) {
	id, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return r.Entry(id), true
}

// Backfill sets the array sizes of a visible entry that has none yet. It
// reports whether an entry was changed.
func (r *Registry) Backfill(name string, sizes []string) bool {
	e, ok := r.LookupEntry(name)
	if !ok || len(e.ArraySizes) > 0 {
		return false
	}
	e.ArraySizes = sizes
	return true
}

// Globals returns the global frame's entries in declaration order.
func (r *Registry) Globals() []Entry {
	var out []Entry
	for _, id := range r.frames[0].order {
		out = append(out, r.entries[id])
	}
	return out
}

// DefineStruct records the fields of the named multi-value return
// structure. It reports false if a different shape was already recorded.
func (r *Registry) DefineStruct(name string, fields []Field) bool {
	if old, ok := r.structs[name]; ok {
		if len(old) != len(fields) {
			return false
		}
		for i := range old {
			if old[i] != fields[i] {
				return false
			}
		}
		return true
	}
	r.structs[name] = fields
	return true
}

// Struct returns the fields of the named structure.
func (r *Registry) Struct(name string) ([]Field, bool) {
	fields, ok := r.structs[name]
	return fields, ok
}
