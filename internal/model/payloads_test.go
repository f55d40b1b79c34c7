package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-node/internal/model"
)

func key(b byte) model.PublicKey {
	var k model.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func TestStripForKnownRecipient(t *testing.T) {
	alice, bob := key(1), key(2)
	payload := &model.EncryptedPayload{
		Sender:           key(9).Bytes(),
		Nonce:            []byte("nonce"),
		CipherText:       []byte("cipher"),
		CombinedKeyNonce: []byte("combined"),
		EncryptedKeys:    [][]byte{[]byte("key-for-alice"), []byte("key-for-bob")},
		EncryptedKeyOwners: map[string]int{
			alice.Encode(): 0,
			bob.Encode():   1,
		},
		PrivacyGroupID: []byte("group"),
	}

	stripped := payload.StripFor(bob)
	assert.Equal(t, [][]byte{[]byte("key-for-bob")}, stripped.EncryptedKeys)
	assert.Nil(t, stripped.EncryptedKeyOwners)
	assert.Equal(t, payload.CipherText, stripped.CipherText)
	assert.Equal(t, payload.PrivacyGroupID, stripped.PrivacyGroupID)

	// the original is untouched
	assert.Len(t, payload.EncryptedKeys, 2)
	assert.Len(t, payload.EncryptedKeyOwners, 2)
}

func TestStripForUnknownRecipientKeepsAllKeys(t *testing.T) {
	payload := &model.EncryptedPayload{
		EncryptedKeys:      [][]byte{[]byte("k0"), []byte("k1")},
		EncryptedKeyOwners: map[string]int{key(1).Encode(): 0},
	}

	stripped := payload.StripFor(key(7))
	assert.Equal(t, payload.EncryptedKeys, stripped.EncryptedKeys)
	assert.Nil(t, stripped.EncryptedKeyOwners)
}

func TestStripForReturnsIndependentCopy(t *testing.T) {
	payload := &model.EncryptedPayload{
		CipherText:         []byte("cipher"),
		EncryptedKeys:      [][]byte{[]byte("k0")},
		EncryptedKeyOwners: map[string]int{key(1).Encode(): 0},
	}

	stripped := payload.StripFor(key(1))
	stripped.CipherText[0] = 'X'
	stripped.EncryptedKeys[0][0] = 'X'
	assert.Equal(t, []byte("cipher"), payload.CipherText)
	assert.Equal(t, []byte("k0"), payload.EncryptedKeys[0])
}

func TestEncryptedKeyOwnersNeverTravel(t *testing.T) {
	payload := &model.EncryptedPayload{
		EncryptedKeys:      [][]byte{[]byte("k0")},
		EncryptedKeyOwners: map[string]int{key(1).Encode(): 0},
	}

	encoded, err := model.Marshal(payload.StripFor(key(1)))
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "encryptedKeyOwners")
}

func TestQueryRecordIntentFieldsNeverPersist(t *testing.T) {
	record := &model.QueryPrivacyGroupPayload{
		Addresses:       []string{"a", "b"},
		PrivacyGroupIDs: [][]byte{[]byte("g1")},
		GroupToModify:   []byte("transient"),
		ToDelete:        true,
	}

	encoded, err := model.Marshal(record)
	require.NoError(t, err)

	var decoded model.QueryPrivacyGroupPayload
	require.NoError(t, model.Unmarshal(encoded, &decoded))
	assert.Nil(t, decoded.GroupToModify)
	assert.False(t, decoded.ToDelete)
	assert.Equal(t, record.PrivacyGroupIDs, decoded.PrivacyGroupIDs)
}
