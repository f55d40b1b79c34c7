package model

import (
	"encoding/base64"
	"encoding/json"
)

// KeyLength is the size of a curve25519 public key.
const KeyLength = 32

// PublicKey is an asymmetric public key used as a participant identity.
// Its portable form is the std base64 encoding of the raw bytes.
type PublicKey [KeyLength]byte

// Encode returns the portable base64 form of the key.
func (k PublicKey) Encode() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// Bytes returns a copy of the raw key bytes.
func (k PublicKey) Bytes() []byte {
	b := make([]byte, KeyLength)
	copy(b, k[:])
	return b
}

// PrivacyGroupState is the lifecycle state of a privacy group.
type PrivacyGroupState string

const (
	StateActive  PrivacyGroupState = "ACTIVE"
	StateDeleted PrivacyGroupState = "DELETED"
)

// PrivacyGroupType distinguishes explicitly created groups from the implicit
// pairwise groups inferred from plain point-to-point sends.
type PrivacyGroupType string

const (
	TypeLegacy   PrivacyGroupType = "LEGACY"
	TypePantheon PrivacyGroupType = "PANTHEON"
)

// EncryptedPayload is the wire and storage form of an end-to-end encrypted
// transaction payload. It is created once at send time and never mutated;
// StripFor produces reduced copies for forwarding.
type EncryptedPayload struct {
	Sender           []byte   `json:"sender"`
	Nonce            []byte   `json:"nonce"`
	CipherText       []byte   `json:"cipherText"`
	CombinedKeyNonce []byte   `json:"combinedKeyNonce"`
	EncryptedKeys    [][]byte `json:"encryptedKeys"`
	// EncryptedKeyOwners maps a recipient's encoded public key to its index
	// in EncryptedKeys. Local bookkeeping only; dropped from stripped copies.
	EncryptedKeyOwners map[string]int `json:"encryptedKeyOwners,omitempty"`
	PrivacyGroupID     []byte         `json:"privacyGroupId,omitempty"`
}

// StripFor returns a copy of the payload containing only the combined key the
// given recipient can open, without the owner map. When the owner map is
// absent or does not know the recipient, the copy carries all keys so the
// recipient can still try each one.
func (p *EncryptedPayload) StripFor(recipient PublicKey) *EncryptedPayload {
	out := &EncryptedPayload{
		Sender:           append([]byte(nil), p.Sender...),
		Nonce:            append([]byte(nil), p.Nonce...),
		CipherText:       append([]byte(nil), p.CipherText...),
		CombinedKeyNonce: append([]byte(nil), p.CombinedKeyNonce...),
		PrivacyGroupID:   append([]byte(nil), p.PrivacyGroupID...),
	}
	if idx, ok := p.EncryptedKeyOwners[recipient.Encode()]; ok && idx >= 0 && idx < len(p.EncryptedKeys) {
		out.EncryptedKeys = [][]byte{append([]byte(nil), p.EncryptedKeys[idx]...)}
		return out
	}
	out.EncryptedKeys = make([][]byte, len(p.EncryptedKeys))
	for i, ek := range p.EncryptedKeys {
		out.EncryptedKeys[i] = append([]byte(nil), ek...)
	}
	return out
}

// PrivacyGroupPayload is the replicated record of a privacy group. The group
// ID is not part of the record for PANTHEON groups created here: every node
// recomputes it from Addresses, RandomSeed and Type as they were at creation.
type PrivacyGroupPayload struct {
	Addresses   []string          `json:"addresses"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	State       PrivacyGroupState `json:"state"`
	Type        PrivacyGroupType  `json:"type"`
	RandomSeed  []byte            `json:"randomSeed,omitempty"`
}

// HasAddress reports whether the encoded key is a member of the group.
func (p *PrivacyGroupPayload) HasAddress(encoded string) bool {
	for _, a := range p.Addresses {
		if a == encoded {
			return true
		}
	}
	return false
}

// QueryPrivacyGroupPayload is the reverse-index record mapping an exact
// participant set to every privacy group ID ever associated with it. The
// list is append-only; deleted groups are filtered at read time.
type QueryPrivacyGroupPayload struct {
	Addresses       []string `json:"addresses"`
	PrivacyGroupIDs [][]byte `json:"privacyGroupId"`

	// GroupToModify carries write intent while an existing record is being
	// updated. Never persisted.
	GroupToModify []byte `json:"-"`
	ToDelete      bool   `json:"-"`
}

// PrivacyGroup is the client-facing summary of a group.
type PrivacyGroup struct {
	PrivacyGroupID []byte           `json:"privacyGroupId"`
	Type           PrivacyGroupType `json:"type"`
	Name           string           `json:"name,omitempty"`
	Description    string           `json:"description,omitempty"`
	Members        []string         `json:"members"`
}

// Marshal returns the canonical JSON encoding used for storage and digests.
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes the canonical JSON encoding.
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
