package directory

import (
	"errors"
	"fmt"
	"sync"

	"privacy-node/internal/config"
)

// ErrUnknownPeer is returned when no node is known for a public key.
var ErrUnknownPeer = errors.New("directory: unknown peer")

// Directory maps a participant's encoded public key to the base URL of the
// node hosting that key. Read concurrently by every workflow; written by
// startup wiring and discovery.
type Directory struct {
	mu    sync.RWMutex
	peers map[string]string
}

func New() *Directory {
	return &Directory{peers: make(map[string]string)}
}

// Register associates a public key with a node URL.
func (d *Directory) Register(publicKey, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[publicKey] = url
}

// Deregister removes a public key from the directory.
func (d *Directory) Deregister(publicKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, publicKey)
}

// Resolve returns the node URL hosting the given public key.
func (d *Directory) Resolve(publicKey string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	url, ok := d.peers[publicKey]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPeer, publicKey)
	}
	return url, nil
}

// FromConfig registers every configured peer.
func FromConfig(peers []config.Peer) *Directory {
	d := New()
	for _, p := range peers {
		d.Register(p.PublicKey, p.URL)
	}
	return d
}
