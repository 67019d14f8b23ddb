package peers

import (
	"errors"
	"sort"
)

var ErrDuplicate = errors.New("peers: connection already registered")

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[Sender]Peer),
	}
}

func (r *Registry) Add(s Sender, p Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[s]; ok {
		return ErrDuplicate
	}
	r.peers[s] = p
	return nil
}

// Remove reports the removed peer, if s was registered.
func (r *Registry) Remove(s Sender) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[s]
	if ok {
		delete(r.peers, s)
	}
	return p, ok
}

func (r *Registry) Get(s Sender) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[s]
	return p, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// CountByRole returns the number of registered servers and clients.
func (r *Registry) CountByRole() (servers, clients int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.peers {
		if p.Role.IsServer() {
			servers++
		} else {
			clients++
		}
	}
	return servers, clients
}

// List returns a snapshot ordered by connection time.
func (r *Registry) List() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// Broadcast delivers data to every open sender other than from. It returns the
// number of peers that were eligible (registry size minus the sender) and the
// ids of the peers whose Send failed. A failed send does not stop the loop.
func (r *Registry) Broadcast(from Sender, data []byte, onSent func(Peer)) (eligible int, failed map[string]error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eligible = len(r.peers)
	if _, ok := r.peers[from]; ok {
		eligible--
	}
	for s, p := range r.peers {
		if s == from || !s.Open() {
			continue
		}
		if err := s.Send(data); err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[p.ID] = err
			continue
		}
		if onSent != nil {
			onSent(p)
		}
	}
	return eligible, failed
}

// Clear empties the registry and hands back the senders that were in it.
func (r *Registry) Clear() []Sender {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sender, 0, len(r.peers))
	for s := range r.peers {
		out = append(out, s)
	}
	r.peers = make(map[Sender]Peer)
	return out
}
