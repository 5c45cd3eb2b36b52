package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	log := &wireLog{}
	registry := NewRegistry()
	a, _ := newBareConn(log, "a", "alice")
	b, _ := newBareConn(log, "b", "bob")

	registry.Register(a)
	registry.Register(b)
	registry.Register(a)
	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, []*Connection{a, b}, registry.All())

	registry.Unregister(a)
	registry.Unregister(a)
	assert.Equal(t, 1, registry.Count())
	assert.Equal(t, []*Connection{b}, registry.All())

	_, ok := registry.Get("a")
	assert.False(t, ok)
}

func TestRegistry_FindByIdentity(t *testing.T) {
	log := &wireLog{}
	registry := NewRegistry()
	anonymous, _ := newBareConn(log, "anon", "")
	first, _ := newBareConn(log, "first", "alice")
	duplicate, _ := newBareConn(log, "dup", "alice")
	registry.Register(anonymous)
	registry.Register(first)
	registry.Register(duplicate)

	tests := []struct {
		name   string
		userID string
		want   *Connection
	}{
		{name: "first of duplicate logins", userID: "alice", want: first},
		{name: "unknown identity", userID: "bob", want: nil},
		{name: "empty id never matches unidentified connections", userID: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := registry.FindByIdentity(tt.userID)
			if tt.want == nil {
				assert.False(t, ok)
				assert.Nil(t, got)
				return
			}
			require.True(t, ok)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestRegistry_FindByIdentity_FollowsIdentityChanges(t *testing.T) {
	log := &wireLog{}
	registry := NewRegistry()
	conn, _ := newBareConn(log, "c1", "")
	registry.Register(conn)

	_, ok := registry.FindByIdentity("carol")
	assert.False(t, ok, "unidentified connection must not be found")

	conn.SetIdentity(identityOf("carol"))
	got, ok := registry.FindByIdentity("carol")
	require.True(t, ok)
	assert.Same(t, conn, got)

	conn.SetIdentity(identityOf("caroline"))
	_, ok = registry.FindByIdentity("carol")
	assert.False(t, ok)
}

func TestRegistry_IdentityInUse(t *testing.T) {
	log := &wireLog{}
	registry := NewRegistry()
	alice, _ := newBareConn(log, "a", "Alice")
	bob, _ := newBareConn(log, "b", "bob")
	registry.Register(alice)
	registry.Register(bob)

	assert.True(t, registry.IdentityInUse("alice", bob), "comparison ignores case")
	assert.False(t, registry.IdentityInUse("alice", alice), "own identity is not a collision")
	assert.False(t, registry.IdentityInUse("carol", nil))
}
