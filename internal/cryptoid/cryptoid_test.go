package cryptoid

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/model"
)

func TestDeriveUIDIsDeterministic(t *testing.T) {
	assert := assert.New(t)

	kp, err := GenerateKeyPair()
	assert.Nil(err)

	uid1 := DeriveUID(kp.SigningPublicKey)
	uid2 := DeriveUID(kp.SigningPublicKey)
	assert.Equal(uid1, uid2)
	assert.Len(uid1, 32) // hex of 16 bytes
}

func TestDeriveSharedIsSymmetric(t *testing.T) {
	assert := assert.New(t)

	alice, err := GenerateKeyPair()
	assert.Nil(err)
	bob, err := GenerateKeyPair()
	assert.Nil(err)

	aliceShared, err := DeriveShared(alice.KxSecretKey, bob.KxPublicKey[:])
	assert.Nil(err)
	bobShared, err := DeriveShared(bob.KxSecretKey, alice.KxPublicKey[:])
	assert.Nil(err)

	assert.Equal(aliceShared, bobShared)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	assert := assert.New(t)

	alice, _ := GenerateKeyPair()
	bob, _ := GenerateKeyPair()
	shared, err := DeriveShared(alice.KxSecretKey, bob.KxPublicKey[:])
	assert.Nil(err)

	plaintext := []byte("hello")
	envelope, err := Encrypt(shared, plaintext)
	assert.Nil(err)

	decrypted, err := Decrypt(shared, envelope)
	assert.Nil(err)
	assert.Equal(plaintext, decrypted)
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	assert := assert.New(t)

	alice, _ := GenerateKeyPair()
	bob, _ := GenerateKeyPair()
	shared, _ := DeriveShared(alice.KxSecretKey, bob.KxPublicKey[:])

	envelope, err := Encrypt(shared, []byte("hello"))
	assert.Nil(err)

	tampered := append([]byte{}, envelope...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = Decrypt(shared, tampered)
	assert.NotNil(err)
}

func TestTokenIssueParseVerifyRoundTrip(t *testing.T) {
	assert := assert.New(t)

	alice, err := GenerateKeyPair()
	assert.Nil(err)

	encoded, err := IssueToken(alice, "127.0.0.1:18080", 24*60*60*1000)
	assert.Nil(err)

	token, err := ParseAndVerifyToken(encoded)
	assert.Nil(err)
	assert.Equal("127.0.0.1:18080", token.Payload.IP)

	err = CheckExpiry(token, model.NowMillis())
	assert.Nil(err)
}

func TestTokenExpiryAtExactlyNowIsRejected(t *testing.T) {
	assert := assert.New(t)

	alice, _ := GenerateKeyPair()
	encoded, err := IssueToken(alice, "127.0.0.1:18080", 0)
	assert.Nil(err)

	token, err := ParseAndVerifyToken(encoded)
	assert.Nil(err)

	err = CheckExpiry(token, token.Payload.ExpiryMillis)
	assert.ErrorIs(err, model.ErrTokenExpired)
}

func TestTokenTamperedPayloadFailsVerification(t *testing.T) {
	assert := assert.New(t)

	alice, _ := GenerateKeyPair()
	encoded, err := IssueToken(alice, "127.0.0.1:18080", 24*60*60*1000)
	assert.Nil(err)

	raw, err := base64.URLEncoding.DecodeString(encoded)
	assert.Nil(err)
	raw[len(raw)/2] ^= 0xFF
	tampered := base64.URLEncoding.EncodeToString(raw)

	_, err = ParseAndVerifyToken(tampered)
	assert.NotNil(err)
}

func TestSelfImportGuard(t *testing.T) {
	assert := assert.New(t)

	alice, _ := GenerateKeyPair()
	encoded, err := IssueToken(alice, "127.0.0.1:18080", 24*60*60*1000)
	assert.Nil(err)

	token, err := ParseAndVerifyToken(encoded)
	assert.Nil(err)

	ourUID := DeriveUID(alice.SigningPublicKey)
	err = CheckSelfImport(token, ourUID)
	assert.ErrorIs(err, model.ErrSelfImport)
}
