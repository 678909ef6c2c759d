package relay

import (
	"errors"
	"fmt"

	"github.com/danmuck/weechatpage/internal/observability"
)

var ErrUnknownBufferPointer = errors.New("relay: unknown buffer pointer")

// Registry maps remote buffer pointers to display names for one connection.
type Registry struct {
	buffers map[string]string
}

func NewRegistry() *Registry {
	return &Registry{buffers: make(map[string]string)}
}

func (r *Registry) Put(ptr, name string) {
	r.buffers[ptr] = name
	observability.SetBufferCount(len(r.buffers))
}

// Remove reports whether ptr was known.
func (r *Registry) Remove(ptr string) bool {
	_, ok := r.buffers[ptr]
	delete(r.buffers, ptr)
	observability.SetBufferCount(len(r.buffers))
	return ok
}

func (r *Registry) Lookup(ptr string) (string, error) {
	name, ok := r.buffers[ptr]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBufferPointer, ptr)
	}
	return name, nil
}

func (r *Registry) Len() int {
	return len(r.buffers)
}

func (r *Registry) Snapshot() map[string]string {
	out := make(map[string]string, len(r.buffers))
	for k, v := range r.buffers {
		out[k] = v
	}
	return out
}
