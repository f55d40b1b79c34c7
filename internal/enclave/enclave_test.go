package enclave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-node/internal/enclave"
	"privacy-node/internal/model"
)

func newEnclave(t *testing.T, keyCount int) (*enclave.Enclave, []model.PublicKey) {
	t.Helper()
	ring := enclave.NewKeyRing()
	keys := make([]model.PublicKey, keyCount)
	for i := range keys {
		key, err := ring.Generate()
		require.NoError(t, err)
		keys[i] = key
	}
	return enclave.New(ring), keys
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, keys := newEnclave(t, 3)
	sender, recipients := keys[0], keys[1:]

	plaintext := []byte("private transaction payload")
	payload, err := enc.Encrypt(plaintext, sender, recipients)
	require.NoError(t, err)

	// every recipient and the sender itself can decrypt
	for _, identity := range keys {
		got, err := enc.Decrypt(payload, identity)
		require.NoError(t, err, "identity %s", identity.Encode())
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptProducesFreshCiphertext(t *testing.T) {
	enc, keys := newEnclave(t, 2)

	first, err := enc.Encrypt([]byte("same input"), keys[0], keys[1:])
	require.NoError(t, err)
	second, err := enc.Encrypt([]byte("same input"), keys[0], keys[1:])
	require.NoError(t, err)

	assert.NotEqual(t, first.CipherText, second.CipherText)
	assert.NotEqual(t, first.Nonce, second.Nonce)
	assert.NotEqual(t, first.EncryptedKeys, second.EncryptedKeys)
}

func TestDecryptStrippedPayload(t *testing.T) {
	enc, keys := newEnclave(t, 3)

	payload, err := enc.Encrypt([]byte("stripped"), keys[0], keys[1:])
	require.NoError(t, err)

	stripped := payload.StripFor(keys[1])
	require.Len(t, stripped.EncryptedKeys, 1)
	require.Nil(t, stripped.EncryptedKeyOwners)

	got, err := enc.Decrypt(stripped, keys[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("stripped"), got)
}

func TestDecryptWrongPrivateKey(t *testing.T) {
	enc, keys := newEnclave(t, 2)

	payload, err := enc.Encrypt([]byte("secret"), keys[0], nil)
	require.NoError(t, err)

	outsider, err := enc.Keys().Generate()
	require.NoError(t, err)

	_, err = enc.Decrypt(payload, outsider)
	require.ErrorIs(t, err, enclave.ErrWrongPrivateKey)

	// the sender itself is always a recipient
	got, err := enc.Decrypt(payload, keys[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), got)
}

func TestDecryptUnknownIdentity(t *testing.T) {
	enc, keys := newEnclave(t, 2)

	payload, err := enc.Encrypt([]byte("secret"), keys[0], keys[1:])
	require.NoError(t, err)

	stranger := enclave.NewKeyRing()
	strangerKey, err := stranger.Generate()
	require.NoError(t, err)

	_, err = enc.Decrypt(payload, strangerKey)
	require.ErrorIs(t, err, enclave.ErrNoMatchingPrivateKey)
}

func TestGeneratePrivacyGroupIDIsOrderNormalized(t *testing.T) {
	enc, keys := newEnclave(t, 3)
	a, b, c := keys[0].Encode(), keys[1].Encode(), keys[2].Encode()
	seed := []byte("0123456789abcdefghij")

	id := enc.GeneratePrivacyGroupID([]string{a, b, c}, seed, model.TypePantheon)
	assert.Equal(t, id, enc.GeneratePrivacyGroupID([]string{c, a, b}, seed, model.TypePantheon))
	assert.Equal(t, id, enc.GeneratePrivacyGroupID([]string{b, c, a}, seed, model.TypePantheon))

	assert.NotEqual(t, id, enc.GeneratePrivacyGroupID([]string{a, b}, seed, model.TypePantheon))
	assert.NotEqual(t, id, enc.GeneratePrivacyGroupID([]string{a, b, c}, []byte("other seed material"), model.TypePantheon))
	assert.NotEqual(t, id, enc.GeneratePrivacyGroupID([]string{a, b, c}, seed, model.TypeLegacy))
}

func TestReadKey(t *testing.T) {
	enc, keys := newEnclave(t, 1)

	decoded, err := enc.ReadKey(keys[0].Encode())
	require.NoError(t, err)
	assert.Equal(t, keys[0], decoded)

	_, err = enc.ReadKey("not base64!!!")
	require.ErrorIs(t, err, enclave.ErrKeyDecode)

	_, err = enc.ReadKey("dG9vIHNob3J0")
	require.ErrorIs(t, err, enclave.ErrKeyDecode)
}
