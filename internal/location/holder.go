package location

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// NodeLister supplies the full node set for a rebuild.
type NodeLister interface {
	ListAllNodes(ctx context.Context) ([]model.LocationNode, error)
}

// Holder owns the live Index. Readers load the current snapshot without
// locking; rebuilds construct a new Index and swap the pointer, so a
// partially built index is never visible.
type Holder struct {
	current    atomic.Pointer[Index]
	generation atomic.Uint64
	opts       Options
	reloadMu   sync.Mutex
}

// NewHolder returns a Holder serving ix as generation 1.
func NewHolder(ix *Index, opts Options) *Holder {
	h := &Holder{opts: opts}
	h.Swap(ix)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Index {
	return h.current.Load()
}

// Generation returns the number of snapshots published so far.
func (h *Holder) Generation() uint64 {
	return h.generation.Load()
}

// Swap publishes ix and returns its generation.
func (h *Holder) Swap(ix *Index) uint64 {
	h.current.Store(ix)
	return h.generation.Add(1)
}

// Reload rebuilds the index from src and publishes it. On failure the
// previous snapshot keeps serving.
func (h *Holder) Reload(ctx context.Context, src NodeLister) (uint64, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	nodes, err := src.ListAllNodes(ctx)
	if err != nil {
		return h.Generation(), eris.Wrap(err, "location: list nodes")
	}
	ix, err := Build(nodes, h.opts)
	if err != nil {
		return h.Generation(), eris.Wrap(err, "location: rebuild index")
	}
	gen := h.Swap(ix)
	zap.L().Info("location index reloaded",
		zap.Int("nodes", ix.Len()),
		zap.Uint64("generation", gen),
	)
	return gen, nil
}

// Watch reloads every interval until ctx is done. Failures are logged and
// the previous snapshot is kept.
func (h *Holder) Watch(ctx context.Context, src NodeLister, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.Reload(ctx, src); err != nil {
				zap.L().Warn("location index reload failed", zap.Error(err))
			}
		}
	}
}

// Open builds an index from src and wraps it in a Holder.
func Open(ctx context.Context, src NodeLister, opts Options) (*Holder, error) {
	nodes, err := src.ListAllNodes(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "location: list nodes")
	}
	ix, err := Build(nodes, opts)
	if err != nil {
		return nil, err
	}
	return NewHolder(ix, opts), nil
}
