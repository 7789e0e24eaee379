package app

import (
	"testing"

	"github.com/dkeye/dialnet/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Connections(t *testing.T) {
	r := NewRegistry()

	cancelled := 0
	r.Attach("s1", nopSignal{}, func() { cancelled++ })
	assert.True(t, r.IsLive("s1"))
	_, ok := r.Signal("s1")
	assert.True(t, ok)

	assert.True(t, r.Cancel("s1"))
	assert.Equal(t, 1, cancelled)

	r.Detach("s1")
	assert.False(t, r.IsLive("s1"))
	assert.False(t, r.Cancel("s1"))
	assert.Equal(t, 1, cancelled)
}

func TestRegistry_Sessions(t *testing.T) {
	r := NewRegistry()

	r.Put("s1", Session{Room: "general", Username: "alice", Origin: "1.2.3.4"})
	r.Put("s2", Session{Room: "tech", Username: "bob"})
	assert.Equal(t, 2, r.Count())

	s, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "alice", s.Username)

	r.Remove("s1")
	_, ok = r.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_OriginIndex(t *testing.T) {
	r := NewRegistry()
	origin := core.Origin("1.2.3.4")

	r.BindOrigin(origin, "s1")
	owner, ok := r.OriginOwner(origin)
	require.True(t, ok)
	assert.Equal(t, core.SessionID("s1"), owner)

	r.BindOrigin(origin, "s2")
	r.UnbindOrigin(origin, "s1")
	owner, ok = r.OriginOwner(origin)
	require.True(t, ok, "stale unbind must not drop the newer owner")
	assert.Equal(t, core.SessionID("s2"), owner)

	r.UnbindOrigin(origin, "s2")
	_, ok = r.OriginOwner(origin)
	assert.False(t, ok)
}
