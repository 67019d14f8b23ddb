package peers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	open bool
	err  error
	got  [][]byte
}

func (f *fakeSender) Send(data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, data)
	return nil
}

func (f *fakeSender) Open() bool { return f.open }

func TestRoleFromToken(t *testing.T) {
	require.Equal(t, RoleServer, RoleFromToken(ServerRoleToken))
	for _, tok := range []string{"", "client", "laplace-event-bridge-role-server ", "LAPLACE-EVENT-BRIDGE-ROLE-SERVER", "laplace-event-bridge-role-client"} {
		require.Equal(t, RoleClient, RoleFromToken(tok), tok)
	}
	require.Equal(t, "server", RoleServer.String())
	require.Equal(t, "client", RoleClient.String())
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	a := &fakeSender{open: true}
	require.NoError(t, r.Add(a, Peer{ID: "server-1", Role: RoleServer}))
	require.ErrorIs(t, r.Add(a, Peer{ID: "server-2", Role: RoleServer}), ErrDuplicate)
	require.Equal(t, 1, r.Len())

	p, ok := r.Get(a)
	require.True(t, ok)
	require.Equal(t, "server-1", p.ID)

	p, ok = r.Remove(a)
	require.True(t, ok)
	require.Equal(t, "server-1", p.ID)
	_, ok = r.Remove(a)
	require.False(t, ok)
	require.Zero(t, r.Len())
}

func TestRegistry_BroadcastSkipsSenderAndClosed(t *testing.T) {
	r := NewRegistry()
	srv := &fakeSender{open: true}
	c1 := &fakeSender{open: true}
	c2 := &fakeSender{open: false}
	c3 := &fakeSender{open: true, err: errors.New("buffer full")}
	c4 := &fakeSender{open: true}
	require.NoError(t, r.Add(srv, Peer{ID: "server-1", Role: RoleServer}))
	require.NoError(t, r.Add(c1, Peer{ID: "client-2"}))
	require.NoError(t, r.Add(c2, Peer{ID: "client-3"}))
	require.NoError(t, r.Add(c3, Peer{ID: "client-4"}))
	require.NoError(t, r.Add(c4, Peer{ID: "client-5"}))

	var sent []string
	eligible, failed := r.Broadcast(srv, []byte("x"), func(p Peer) { sent = append(sent, p.ID) })
	require.Equal(t, 4, eligible)
	require.Len(t, failed, 1)
	require.Contains(t, failed, "client-4")
	require.ElementsMatch(t, []string{"client-2", "client-5"}, sent)
	require.Empty(t, srv.got)
	require.Empty(t, c2.got)
	require.Equal(t, [][]byte{[]byte("x")}, c1.got)
}

func TestRegistry_CountListClear(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	a, b, c := &fakeSender{open: true}, &fakeSender{open: true}, &fakeSender{open: true}
	require.NoError(t, r.Add(b, Peer{ID: "client-2", ConnectedAt: now.Add(time.Second)}))
	require.NoError(t, r.Add(a, Peer{ID: "server-1", Role: RoleServer, ConnectedAt: now}))
	require.NoError(t, r.Add(c, Peer{ID: "client-3", ConnectedAt: now.Add(2 * time.Second)}))

	servers, clients := r.CountByRole()
	require.Equal(t, 1, servers)
	require.Equal(t, 2, clients)

	list := r.List()
	require.Equal(t, "server-1", list[0].ID)
	require.Equal(t, "client-3", list[2].ID)

	js, err := json.Marshal(list[0])
	require.NoError(t, err)
	require.Contains(t, string(js), `"role":"server"`)

	require.Len(t, r.Clear(), 3)
	require.Zero(t, r.Len())
}

func TestRole_TextRoundTrip(t *testing.T) {
	var p Peer
	require.NoError(t, json.Unmarshal([]byte(`{"id":"server-9","role":"server"}`), &p))
	require.Equal(t, RoleServer, p.Role)
	require.NoError(t, json.Unmarshal([]byte(`{"id":"client-1","role":"client"}`), &p))
	require.Equal(t, RoleClient, p.Role)
}
