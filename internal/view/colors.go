package view

import "sync"

// palette cycles once the distinct keys outnumber it.
var palette = []string{
	"#bd93f9", "#8be9fd", "#50fa7b", "#ffb86c",
	"#ff79c6", "#f1fa8c", "#ff5555", "#6272a4",
	"#69f0ae", "#40c4ff", "#ffd740", "#b388ff",
}

// ColorRegistry hands out a stable color per tag or cluster label. Assignment
// is insertion-order based, so the same sequence of keys always yields the
// same colors; it is an explicit object rather than process-wide state so
// tests can assert stability.
type ColorRegistry struct {
	mu       sync.Mutex
	assigned map[string]string
	order    []string
}

func NewColorRegistry() *ColorRegistry {
	return &ColorRegistry{assigned: make(map[string]string)}
}

// ColorFor returns the color for key, assigning the next palette entry the
// first time a key is seen.
func (r *ColorRegistry) ColorFor(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.assigned[key]; ok {
		return c
	}
	c := palette[len(r.order)%len(palette)]
	r.assigned[key] = c
	r.order = append(r.order, key)
	return c
}

// Snapshot returns a copy of every assignment made so far.
func (r *ColorRegistry) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.assigned))
	for k, v := range r.assigned {
		out[k] = v
	}
	return out
}
