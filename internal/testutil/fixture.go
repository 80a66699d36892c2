package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/store"
)

// OpenStore opens a fresh database in a temp dir and closes it on cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// NewEngine returns an engine over a fresh store with deterministic op ids
// ("op-1", "op-2", ...).
func NewEngine(t testing.TB, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{engine.WithIDGenerator(engine.NewFixedGenerator())}, opts...)
	return engine.New(OpenStore(t), opts...)
}
