package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/cryptoid"
	"pure2p/internal/messaging"
	"pure2p/internal/model"
	"pure2p/internal/queue"
	"pure2p/internal/store"
	"pure2p/internal/transport"
)

// newTestApp builds an App around in-memory stores without running the
// network-facing startup sequence in New(), so the collaborator
// operations can be exercised in isolation.
func newTestApp(t *testing.T) *App {
	t.Helper()

	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	q, err := queue.OpenInMemory()
	if err != nil {
		t.Fatalf("opening queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })

	kp, err := cryptoid.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	identity := kp.ToIdentity()
	if err := s.CreateIdentity(identity); err != nil {
		t.Fatalf("creating identity: %v", err)
	}

	client := transport.NewClient()
	orch := messaging.New(s, q, client, kp, model.DefaultTokenValidityHours)
	orch.SetExternalAddr("127.0.0.1:29999")

	return &App{
		dataDir:  t.TempDir(),
		store:    s,
		queue:    q,
		client:   client,
		orch:     orch,
		identity: identity,
		port:     29999,
		worker:   queue.NewWorker(q, orch, model.DefaultMaxRetries, model.DefaultBaseRetryDelayMillis, 1, time.Minute),
	}
}

func TestLoadStateReturnsUIDAndSettings(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	state, err := a.LoadState()
	assert.Nil(err)
	assert.Equal(a.identity.UID, state.UID)
	assert.Equal(model.DefaultRetryIntervalMinutes, state.Settings.RetryIntervalMinutes)
	assert.Empty(state.Chats)
}

func TestGenerateShareTokenRoundTrips(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	token, err := a.GenerateShareToken()
	assert.Nil(err)
	assert.NotEmpty(token)

	parsed, err := cryptoid.ParseAndVerifyToken(token)
	assert.Nil(err)
	assert.Equal(a.identity.UID, cryptoid.DeriveUID(parsed.Payload.SigningPublicKey))
	assert.Equal("127.0.0.1:29999", parsed.Payload.IP)
}

func TestImportContactThenListChatsAndOpenChat(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	peerKP, err := cryptoid.GenerateKeyPair()
	assert.Nil(err)
	token, err := cryptoid.IssueToken(peerKP, "127.0.0.1:29998", 3600_000)
	assert.Nil(err)

	assert.Nil(a.ImportContact(context.Background(), token))

	chats, err := a.ListChats()
	assert.Nil(err)
	assert.Len(chats, 1)

	view, err := a.OpenChat(chats[0].ContactUID)
	assert.Nil(err)
	assert.Equal(model.ChatStatusPending, view.Chat.Status())
	assert.Empty(view.Messages)
}

func TestDeleteChatViaCollaboratorContract(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	peerKP, err := cryptoid.GenerateKeyPair()
	assert.Nil(err)
	token, err := cryptoid.IssueToken(peerKP, "127.0.0.1:29997", 3600_000)
	assert.Nil(err)
	assert.Nil(a.ImportContact(context.Background(), token))

	peerUID := cryptoid.DeriveUID(peerKP.SigningPublicKey)
	assert.Nil(a.DeleteChat(context.Background(), peerUID))

	chats, err := a.ListChats()
	assert.Nil(err)
	assert.Empty(chats)
}

func TestUpdateSettingRetryIntervalAcceptsValidValue(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	assert.Nil(a.UpdateSetting("retry_interval_minutes", "5"))

	state, err := a.LoadState()
	assert.Nil(err)
	assert.Equal(5, state.Settings.RetryIntervalMinutes)
}

func TestUpdateSettingRejectsOutOfRangeValue(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	err := a.UpdateSetting("retry_interval_minutes", "99999")
	assert.ErrorIs(err, model.ErrInvalidSetting)
}

func TestUpdateSettingRejectsUnknownName(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	err := a.UpdateSetting("not_a_real_setting", "1")
	assert.NotNil(err)
}

func TestRunDiagnosticsReflectsLastRun(t *testing.T) {
	assert := assert.New(t)
	a := newTestApp(t)

	diag := a.RunDiagnostics()
	assert.Empty(diag.Attempts)
	assert.False(diag.CGNAT)
}
