package enclave

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"

	"golang.org/x/crypto/nacl/box"

	"privacy-node/internal/model"
)

// ErrNoMatchingPrivateKey is returned when this node holds no private key for
// the requested identity.
var ErrNoMatchingPrivateKey = errors.New("enclave: no matching private key")

// KeyRing holds the node's own key pairs, looked up by the portable encoding
// of the public key.
type KeyRing struct {
	mu   sync.RWMutex
	keys map[string]*[model.KeyLength]byte
}

func NewKeyRing() *KeyRing {
	return &KeyRing{keys: make(map[string]*[model.KeyLength]byte)}
}

// Add registers a key pair with the ring.
func (r *KeyRing) Add(pub model.PublicKey, priv *[model.KeyLength]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[pub.Encode()] = priv
}

// Generate creates a fresh curve25519 key pair and adds it to the ring.
func (r *KeyRing) Generate() (model.PublicKey, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return model.PublicKey{}, err
	}
	key := model.PublicKey(*pub)
	r.Add(key, priv)
	return key, nil
}

// AddEncoded registers a key pair given in portable base64 form.
func (r *KeyRing) AddEncoded(pub, priv string) error {
	rawPub, err := base64.StdEncoding.DecodeString(pub)
	if err != nil || len(rawPub) != model.KeyLength {
		return errors.New("enclave: malformed public key encoding")
	}
	rawPriv, err := base64.StdEncoding.DecodeString(priv)
	if err != nil || len(rawPriv) != model.KeyLength {
		return errors.New("enclave: malformed private key encoding")
	}
	var pubKey model.PublicKey
	copy(pubKey[:], rawPub)
	privKey := new([model.KeyLength]byte)
	copy(privKey[:], rawPriv)
	r.Add(pubKey, privKey)
	return nil
}

// PrivateKey returns the private key for an identity held by this node.
func (r *KeyRing) PrivateKey(pub model.PublicKey) (*[model.KeyLength]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	priv, ok := r.keys[pub.Encode()]
	if !ok {
		return nil, ErrNoMatchingPrivateKey
	}
	return priv, nil
}

// Holds reports whether the ring has a private key for the identity.
func (r *KeyRing) Holds(pub model.PublicKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[pub.Encode()]
	return ok
}
