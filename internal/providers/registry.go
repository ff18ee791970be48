// Registry manages adapter registration and lookup.
//
// DESIGN: Thread-safe map of provider prefix → Adapter. Lookup is by the
// exact segment of the model id before the first dot
// ("anthropic.claude-v2" → "anthropic"). Substring matching was
// deliberately rejected: it is ambiguous against future model ids. An
// unmatched prefix is a hard error raised before any network call.
package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedProvider is returned when a model id's provider prefix
// matches no registered adapter.
var ErrUnsupportedProvider = errors.New("unsupported model provider")

// Registry maps provider prefixes to adapters.
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates a registry with all built-in model families.
func NewRegistry() *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter),
	}

	r.Register(NewAnthropicAdapter())
	r.Register(NewTitanAdapter())
	r.Register(NewDeepSeekAdapter())
	r.Register(NewMistralAdapter())

	return r
}

// Register adds (or replaces) an adapter under its own name.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Name()] = adapter
}

// ForModel resolves the adapter for a Bedrock model id.
// Returns ErrUnsupportedProvider when the prefix is unknown.
func (r *Registry) ForModel(modelID string) (Adapter, error) {
	prefix := modelID
	if idx := strings.Index(modelID, "."); idx != -1 {
		prefix = modelID[:idx]
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[prefix]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)",
			ErrUnsupportedProvider, modelID, strings.Join(r.names(), ", "))
	}
	return adapter, nil
}

// names returns registered prefixes, sorted, for error messages.
// Caller must hold at least a read lock.
func (r *Registry) names() []string {
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
