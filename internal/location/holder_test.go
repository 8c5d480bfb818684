package location

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/groundwater-cli/internal/model"
)

type stubLister struct {
	nodes []model.LocationNode
	err   error
}

func (s stubLister) ListAllNodes(_ context.Context) ([]model.LocationNode, error) {
	return s.nodes, s.err
}

func TestHolder_ReloadSwapsSnapshot(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, stubLister{nodes: fixtureNodes()}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Generation())

	old := h.Load()
	grown := append(fixtureNodes(), node("mh-nashik", "Nashik", model.TypeDistrict, "mh"))
	gen, err := h.Reload(ctx, stubLister{nodes: grown})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)

	assert.Empty(t, old.Resolve("Nashik", "", ""), "old snapshot is unchanged")
	assert.NotEmpty(t, h.Load().Resolve("Nashik", "", ""))
}

func TestHolder_ReloadFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, stubLister{nodes: fixtureNodes()}, DefaultOptions())
	require.NoError(t, err)
	before := h.Load()

	_, err = h.Reload(ctx, stubLister{err: errors.New("db down")})
	require.Error(t, err)

	bad := []model.LocationNode{node("x", "X", model.TypeState, "missing")}
	_, err = h.Reload(ctx, stubLister{nodes: bad})
	require.Error(t, err)

	assert.Same(t, before, h.Load())
	assert.Equal(t, uint64(1), h.Generation())
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, stubLister{nodes: fixtureNodes()}, DefaultOptions())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				got := h.Load().Resolve("Pune", model.TypeDistrict, "")
				assert.NotEmpty(t, got)
			}
		}()
	}
	for range 5 {
		_, err := h.Reload(ctx, stubLister{nodes: fixtureNodes()})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, uint64(6), h.Generation())
}

func TestOpen_ListError(t *testing.T) {
	_, err := Open(context.Background(), stubLister{err: errors.New("boom")}, DefaultOptions())
	assert.Error(t, err)
}
