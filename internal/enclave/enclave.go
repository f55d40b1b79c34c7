package enclave

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/sha3"

	"privacy-node/internal/model"
)

const (
	nonceLength  = 24
	symKeyLength = 32
)

var (
	// ErrWrongPrivateKey is returned when none of a payload's combined keys
	// open with the caller's private key.
	ErrWrongPrivateKey = errors.New("enclave: wrong private key for payload")

	// ErrKeyDecode is returned for a malformed portable key encoding.
	ErrKeyDecode = errors.New("enclave: malformed public key encoding")
)

// Enclave implements the payload encryption contract and the digest
// primitives used for privacy group identity: x25519-xsalsa20-poly1305 for
// the combined keys, xsalsa20-poly1305 for the payload body.
type Enclave struct {
	keys *KeyRing
}

func New(keys *KeyRing) *Enclave {
	return &Enclave{keys: keys}
}

// Keys exposes the key ring, for wiring configured key pairs at startup.
func (e *Enclave) Keys() *KeyRing {
	return e.keys
}

// Encrypt seals plaintext with a fresh one-time symmetric key and wraps that
// key once per recipient and once for the sender, all seals sharing one fresh
// combined-key nonce. Two calls with identical input never produce equal
// output.
func (e *Enclave) Encrypt(plaintext []byte, sender model.PublicKey, recipients []model.PublicKey) (*model.EncryptedPayload, error) {
	senderPriv, err := e.keys.PrivateKey(sender)
	if err != nil {
		return nil, err
	}

	var symKey [symKeyLength]byte
	if _, err := io.ReadFull(rand.Reader, symKey[:]); err != nil {
		return nil, fmt.Errorf("enclave: generate symmetric key: %w", err)
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("enclave: generate nonce: %w", err)
	}
	var combinedNonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, combinedNonce[:]); err != nil {
		return nil, fmt.Errorf("enclave: generate combined key nonce: %w", err)
	}

	cipherText := secretbox.Seal(nil, plaintext, &nonce, &symKey)

	// The sender always gets a combined key so it can decrypt its own sends.
	sealFor := make([]model.PublicKey, 0, len(recipients)+1)
	seen := make(map[string]bool, len(recipients)+1)
	for _, r := range append(append([]model.PublicKey(nil), recipients...), sender) {
		if seen[r.Encode()] {
			continue
		}
		seen[r.Encode()] = true
		sealFor = append(sealFor, r)
	}

	encryptedKeys := make([][]byte, len(sealFor))
	owners := make(map[string]int, len(sealFor))
	for i, r := range sealFor {
		pub := [model.KeyLength]byte(r)
		encryptedKeys[i] = box.Seal(nil, symKey[:], &combinedNonce, &pub, senderPriv)
		owners[r.Encode()] = i
	}

	return &model.EncryptedPayload{
		Sender:             sender.Bytes(),
		Nonce:              nonce[:],
		CipherText:         cipherText,
		CombinedKeyNonce:   combinedNonce[:],
		EncryptedKeys:      encryptedKeys,
		EncryptedKeyOwners: owners,
	}, nil
}

// Decrypt recovers the plaintext for the given local identity. Every combined
// key is tried in turn: a stripped payload carries no owner map, so position
// means nothing to the receiver.
func (e *Enclave) Decrypt(payload *model.EncryptedPayload, identity model.PublicKey) ([]byte, error) {
	priv, err := e.keys.PrivateKey(identity)
	if err != nil {
		return nil, err
	}

	var senderPub [model.KeyLength]byte
	if len(payload.Sender) != model.KeyLength {
		return nil, ErrKeyDecode
	}
	copy(senderPub[:], payload.Sender)

	var combinedNonce [nonceLength]byte
	copy(combinedNonce[:], payload.CombinedKeyNonce)

	var symKey [symKeyLength]byte
	opened := false
	for _, ek := range payload.EncryptedKeys {
		raw, ok := box.Open(nil, ek, &combinedNonce, &senderPub, priv)
		if ok && len(raw) == symKeyLength {
			copy(symKey[:], raw)
			opened = true
			break
		}
	}
	if !opened {
		return nil, ErrWrongPrivateKey
	}

	var nonce [nonceLength]byte
	copy(nonce[:], payload.Nonce)
	plaintext, ok := secretbox.Open(nil, payload.CipherText, &nonce, &symKey)
	if !ok {
		return nil, ErrWrongPrivateKey
	}
	return plaintext, nil
}

// GeneratePrivacyGroupID derives the self-certifying group ID. The address
// set is order-normalized, so every participant computes the same bytes; the
// seed and type tag pin the identity to the creation-time inputs.
func (e *Enclave) GeneratePrivacyGroupID(addresses []string, seed []byte, groupType model.PrivacyGroupType) []byte {
	sorted := append([]string(nil), addresses...)
	sort.Strings(sorted)

	h := sha3.New256()
	for _, a := range sorted {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	h.Write(seed)
	h.Write([]byte(groupType))
	return h.Sum(nil)
}

// ReadKey decodes the portable base64 form of a public key.
func (e *Enclave) ReadKey(encoded string) (model.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != model.KeyLength {
		return model.PublicKey{}, ErrKeyDecode
	}
	var key model.PublicKey
	copy(key[:], raw)
	return key, nil
}

// GenerateSeed produces a cryptographically random seed for group creation
// when the client supplies none.
func GenerateSeed() ([]byte, error) {
	seed := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, fmt.Errorf("enclave: generate seed: %w", err)
	}
	return seed, nil
}
