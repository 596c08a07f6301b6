package dupe

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Embedder turns texts into fixed-length unit vectors, one per input, in
// input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Fallback is a composite embedder: it tries the remote backend first and
// silently switches to the local one for that call on any failure. Callers
// never see a remote error.
type Fallback struct {
	remote Embedder
	local  Embedder
	logger log.Logger
	hooks  Hooks
}

// NewFallback creates the composite. Remote may be nil, in which case every
// call uses the local backend.
func NewFallback(remote, local Embedder, logger log.Logger, hooks Hooks) *Fallback {
	if logger == nil {
		logger = log.Nop()
	}
	return &Fallback{
		remote: remote,
		local:  local,
		logger: logger,
		hooks:  hooks,
	}
}

// Embed implements Embedder.
func (f *Fallback) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.remote != nil {
		start := time.Now()
		vecs, err := f.remote.Embed(ctx, texts)
		f.observe("remote", time.Since(start).Seconds(), err == nil)
		if err == nil {
			return vecs, nil
		}
		f.logger.Warn(ctx, "remote embedding failed, using local model", "error", err)
	}

	start := time.Now()
	vecs, err := f.local.Embed(ctx, texts)
	f.observe("local", time.Since(start).Seconds(), err == nil)
	return vecs, err
}

func (f *Fallback) observe(backend string, duration float64, ok bool) {
	if f.hooks.OnEmbed != nil {
		f.hooks.OnEmbed(backend, duration, ok)
	}
}
