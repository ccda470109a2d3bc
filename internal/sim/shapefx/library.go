package shapefx

import (
	"sort"
	"strings"

	"scenemesh.ai/internal/sim/terrain"
	"scenemesh.ai/internal/sim/vmap"
)

// Factory turns a stored graph definition into a runnable modifier.
type Factory func(def vmap.GraphDef) terrain.Modifier

// Library resolves region_graph ids against the graph definitions carried by a map.
// It satisfies terrain.ModifierResolver.
type Library struct {
	kinds map[string]Factory
}

// NewLibrary returns a library with the built-in kinds registered.
func NewLibrary() *Library {
	l := &Library{kinds: map[string]Factory{}}
	l.Register(KindFlatten, func(def vmap.GraphDef) terrain.Modifier { return NewFlatten(def) })
	l.Register(KindRidge, func(def vmap.GraphDef) terrain.Modifier { return NewRidge(def) })
	l.Register(KindTint, func(def vmap.GraphDef) terrain.Modifier { return NewTint(def) })
	return l
}

// Register adds or replaces a kind. Kind names are case-insensitive.
func (l *Library) Register(kind string, f Factory) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" || f == nil {
		return
	}
	l.kinds[kind] = f
}

func (l *Library) Kinds() []string {
	out := make([]string, 0, len(l.kinds))
	for k := range l.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Modifier looks id up in m's graphs. Unknown ids and unknown kinds resolve to (nil, false).
func (l *Library) Modifier(m *vmap.Map, id string) (terrain.Modifier, bool) {
	if l == nil || m == nil {
		return nil, false
	}
	def, ok := m.Graph(id)
	if !ok {
		return nil, false
	}
	f, ok := l.kinds[strings.ToLower(strings.TrimSpace(def.Kind))]
	if !ok {
		return nil, false
	}
	return f(def), true
}
