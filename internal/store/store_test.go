package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIdentityExactlyOneRow(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	_, err := s.LoadIdentity()
	assert.ErrorIs(err, model.ErrIdentityNotFound)

	id := &model.Identity{
		UID:              "deadbeef",
		SigningPublicKey: []byte{1, 2, 3},
		SigningSecretKey: []byte{4, 5, 6},
		KxPublicKey:      []byte{7, 8, 9},
		KxSecretKey:      []byte{10, 11, 12},
	}
	assert.Nil(s.CreateIdentity(id))

	loaded, err := s.LoadIdentity()
	assert.Nil(err)
	assert.Equal("deadbeef", loaded.UID)

	// A second insert violates the PRIMARY KEY, preserving "exactly one, ever".
	err = s.CreateIdentity(id)
	assert.NotNil(err)
}

func TestContactUpsertIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	c := &model.Contact{UID: "bob", IP: "1.2.3.4:9000", SigningPublicKey: []byte{1}, KxPublicKey: []byte{2}, ExpiryMillis: 1000}
	assert.Nil(s.UpsertContact(c))
	assert.Nil(s.UpsertContact(c))

	contacts, err := s.ListContacts()
	assert.Nil(err)
	assert.Len(contacts, 1)
}

func TestChatCascadeDeleteRemovesMessages(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	c := &model.Contact{UID: "bob", IP: "1.2.3.4:9000", SigningPublicKey: []byte{1}, KxPublicKey: []byte{2}, ExpiryMillis: 1000}
	assert.Nil(s.UpsertContact(c))
	_, err := s.GetOrCreateChat("bob")
	assert.Nil(err)

	msg := &model.Message{ID: "m1", ChatUID: "bob", SenderUID: "bob", ReceiverUID: "me", Type: model.MessageTypeText, TimestampMillis: 1, Status: model.DeliveryDelivered}
	assert.Nil(s.AppendMessage(msg))

	assert.Nil(s.DeleteChat("bob"))

	msgs, err := s.ListMessages("bob")
	assert.Nil(err)
	assert.Len(msgs, 0)
}

func TestContactCascadeDeleteRemovesChat(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	c := &model.Contact{UID: "bob", IP: "1.2.3.4:9000", SigningPublicKey: []byte{1}, KxPublicKey: []byte{2}, ExpiryMillis: 1000}
	assert.Nil(s.UpsertContact(c))
	_, err := s.GetOrCreateChat("bob")
	assert.Nil(err)

	assert.Nil(s.DeleteContact("bob"))

	_, err = s.GetChat("bob")
	assert.ErrorIs(err, model.ErrChatNotFound)
}

func TestMessageZeroLengthPayloadAccepted(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	c := &model.Contact{UID: "bob", IP: "1.2.3.4:9000", SigningPublicKey: []byte{1}, KxPublicKey: []byte{2}, ExpiryMillis: 1000}
	assert.Nil(s.UpsertContact(c))
	_, err := s.GetOrCreateChat("bob")
	assert.Nil(err)

	msg := &model.Message{ID: "m1", ChatUID: "bob", SenderUID: "bob", ReceiverUID: "me", Type: model.MessageTypeDeleteChat, TimestampMillis: 1, Payload: []byte{}, Status: model.DeliveryDelivered}
	assert.Nil(s.AppendMessage(msg))

	msgs, err := s.ListMessages("bob")
	assert.Nil(err)
	assert.Len(msgs, 1)
	assert.Len(msgs[0].Payload, 0)
}

func TestSettingsRetryIntervalClamped(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	_, err := s.LoadSettings("")
	assert.Nil(err)

	assert.Nil(s.UpdateRetryInterval(5))
	assert.NotNil(s.UpdateRetryInterval(0))
	assert.NotNil(s.UpdateRetryInterval(1441))
}

func TestMigrateLegacyFileIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	dir := t.TempDir()
	legacyPath := filepath.Join(dir, "pure2p_state.json")
	legacyJSON := `{
		"user_keypair": {"uid": "alice", "signing_public_key": "AQID", "signing_secret_key": "BAUG", "kx_public_key": "BwgJ", "kx_secret_key": "CgsM"},
		"user_ip": "203.0.113.1",
		"user_port": 51000,
		"contacts": [],
		"chats": [],
		"message_queue": [],
		"settings": {"retry_interval_minutes": 2, "token_validity_hours": 24, "max_retries": 5, "base_retry_delay_ms": 1000, "notifications_enabled": true}
	}`
	assert.Nil(os.WriteFile(legacyPath, []byte(legacyJSON), 0o600))

	assert.Nil(MigrateLegacyFile(s, legacyPath))

	id, err := s.LoadIdentity()
	assert.Nil(err)
	assert.Equal("alice", id.UID)

	_, err = os.Stat(legacyPath)
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(legacyPath + ".bak")
	assert.Nil(err)

	// Running again (no legacy file present anymore) is a no-op.
	assert.Nil(MigrateLegacyFile(s, legacyPath))
}
