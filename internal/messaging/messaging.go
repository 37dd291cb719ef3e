// Package messaging glues transport, queue, and store together and
// implements chat lifecycle semantics: send/receive orchestration,
// smart delete, and the reciprocal-import handshake.
package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"pure2p/internal/cryptoid"
	"pure2p/internal/model"
	"pure2p/internal/queue"
	"pure2p/internal/store"
	"pure2p/internal/transport"
	"pure2p/internal/wire"
)

// Orchestrator implements transport.Handlers for inbound traffic and
// exposes the send-side operations the app controller and UI call into.
type Orchestrator struct {
	store  *store.Store
	queue  *queue.Queue
	client *transport.Client
	kp     *cryptoid.KeyPair
	uid    string

	tokenValidityMillis int64
	externalAddr        string
}

func New(s *store.Store, q *queue.Queue, client *transport.Client, kp *cryptoid.KeyPair, tokenValidityHours int) *Orchestrator {
	return &Orchestrator{
		store:               s,
		queue:               q,
		client:              client,
		kp:                  kp,
		uid:                 cryptoid.DeriveUID(kp.SigningPublicKey),
		tokenValidityMillis: int64(tokenValidityHours) * 3600_000,
	}
}

// SetExternalAddr records the host:port a freshly issued share token
// should advertise, updated whenever connectivity re-establishes.
func (o *Orchestrator) SetExternalAddr(addr string) {
	o.externalAddr = addr
}

// SendText implements send_text: attempt immediate delivery, falling
// back to the durable queue on anything short of Delivered.
func (o *Orchestrator) SendText(ctx context.Context, contactUID string, text string) error {
	return o.send(ctx, contactUID, model.MessageTypeText, []byte(text), model.PriorityFor(model.MessageTypeText))
}

// DeleteChat implements delete_chat: smart delete. An active chat gets
// a best-effort Delete notification enqueued before local removal; an
// inactive one is simply removed.
func (o *Orchestrator) DeleteChat(ctx context.Context, contactUID string) error {
	chat, err := o.store.GetChat(contactUID)
	if err != nil {
		return err
	}

	if chat.IsActive {
		if err := o.send(ctx, contactUID, model.MessageTypeDeleteChat, []byte{}, model.PriorityFor(model.MessageTypeDeleteChat)); err != nil {
			log.Errorf("messaging: notifying %s of chat deletion: %v", contactUID, err)
		}
	}

	if err := o.store.DeleteChat(contactUID); err != nil {
		return err
	}
	return o.store.DeleteContact(contactUID)
}

// send is the shared send path: try transport first, persist the
// outcome, and enqueue on anything but Delivered.
func (o *Orchestrator) send(ctx context.Context, contactUID string, msgType model.MessageType, payload []byte, priority model.Priority) error {
	contact, err := o.store.GetContact(contactUID)
	if err != nil {
		return err
	}

	msg := &model.Message{
		ID:              uuid.NewString(),
		ChatUID:         contactUID,
		SenderUID:       o.uid,
		ReceiverUID:     contactUID,
		Type:            msgType,
		TimestampMillis: model.NowMillis(),
		Payload:         payload,
		Status:          model.DeliveryPending,
	}

	result := o.client.SendMessage(ctx, contact.IP, o.uid, msgType, payload)

	if result.Outcome == transport.Delivered {
		msg.Status = model.DeliverySent
		if err := o.store.AppendMessage(msg); err != nil {
			return err
		}
		pending, err := o.queue.HasPending(contactUID)
		if err != nil {
			return err
		}
		return o.store.SetChatHasPendingMessages(contactUID, pending)
	}

	if _, err := o.queue.Enqueue(contactUID, msgType, payload, priority); err != nil {
		return err
	}
	if err := o.store.SetChatHasPendingMessages(contactUID, true); err != nil {
		return err
	}
	return o.store.AppendMessage(msg)
}

// ImportContact implements import_contact: verify the token, reject
// self-import, upsert the contact, create a Pending chat, and enqueue
// the reciprocal ping.
func (o *Orchestrator) ImportContact(ctx context.Context, tokenB64 string) error {
	token, err := cryptoid.ParseAndVerifyToken(tokenB64)
	if err != nil {
		return err
	}
	if err := cryptoid.CheckExpiry(token, model.NowMillis()); err != nil {
		return err
	}
	if err := cryptoid.CheckSelfImport(token, o.uid); err != nil {
		return err
	}

	peerUID := cryptoid.DeriveUID(token.Payload.SigningPublicKey)
	if err := o.store.UpsertContact(&model.Contact{
		UID:              peerUID,
		IP:               token.Payload.IP,
		SigningPublicKey: token.Payload.SigningPublicKey,
		KxPublicKey:      token.Payload.KxPublicKey,
		ExpiryMillis:     token.Payload.ExpiryMillis,
		IsActive:         false,
	}); err != nil {
		return err
	}
	if _, err := o.store.GetOrCreateChat(peerUID); err != nil {
		return err
	}

	ourToken, err := o.GenerateShareToken()
	if err != nil {
		return err
	}

	_, err = o.queue.Enqueue(peerUID, model.MessageTypePing, []byte(ourToken), model.PriorityFor(model.MessageTypePing))
	return err
}

// GenerateShareToken implements generate_share_token: a freshly signed
// contact token carrying our own public endpoint.
func (o *Orchestrator) GenerateShareToken() (string, error) {
	return cryptoid.IssueToken(o.kp, o.externalAddr, o.tokenValidityMillis)
}

// HandleOutput accepts a legacy /output envelope: accept-only, no
// reciprocal-import behavior.
func (o *Orchestrator) HandleOutput(ctx context.Context, env wire.MessageEnvelope) error {
	if err := wire.CheckVersion(env.Version); err != nil {
		return err
	}
	return o.storeInbound(env.FromUID, env.ToUID, env.MessageType, env.Payload)
}

// HandleMessage accepts a /message request and persists it as an
// inbound message.
func (o *Orchestrator) HandleMessage(ctx context.Context, req wire.MessageRequest) error {
	if err := o.storeInbound(req.FromUID, o.uid, req.MessageType, req.Payload); err != nil {
		return err
	}

	if req.MessageType == model.MessageTypeDeleteChat {
		return o.store.DeleteChat(req.FromUID)
	}
	return o.store.SetChatActive(req.FromUID, true)
}

func (o *Orchestrator) storeInbound(fromUID, toUID string, msgType model.MessageType, payload []byte) error {
	if _, err := o.store.GetContact(fromUID); err != nil {
		return model.NewError(model.KindValidation, "message from unknown peer", model.ErrUnknownPeer)
	}
	if _, err := o.store.GetOrCreateChat(fromUID); err != nil {
		return err
	}

	msg := &model.Message{
		ID:              uuid.NewString(),
		ChatUID:         fromUID,
		SenderUID:       fromUID,
		ReceiverUID:     toUID,
		Type:            msgType,
		TimestampMillis: model.NowMillis(),
		Payload:         payload,
		Status:          model.DeliveryDelivered,
	}
	return o.store.AppendMessage(msg)
}

// HandlePing implements the reciprocal-import handshake: verify the
// incoming token, reject self-import, upsert the contact, mark the
// chat active, and answer with our own UID.
func (o *Orchestrator) HandlePing(ctx context.Context, req wire.PingRequest) (wire.PingResponse, error) {
	token, err := cryptoid.ParseAndVerifyToken(req.ContactToken)
	if err != nil {
		return wire.PingResponse{}, err
	}
	if err := cryptoid.CheckExpiry(token, model.NowMillis()); err != nil {
		return wire.PingResponse{}, err
	}
	if err := cryptoid.CheckSelfImport(token, o.uid); err != nil {
		return wire.PingResponse{}, err
	}

	peerUID := cryptoid.DeriveUID(token.Payload.SigningPublicKey)
	if err := o.store.UpsertContact(&model.Contact{
		UID:              peerUID,
		IP:               token.Payload.IP,
		SigningPublicKey: token.Payload.SigningPublicKey,
		KxPublicKey:      token.Payload.KxPublicKey,
		ExpiryMillis:     token.Payload.ExpiryMillis,
		IsActive:         true,
	}); err != nil {
		return wire.PingResponse{}, err
	}
	if _, err := o.store.GetOrCreateChat(peerUID); err != nil {
		return wire.PingResponse{}, err
	}
	if err := o.store.SetChatActive(peerUID, true); err != nil {
		return wire.PingResponse{}, err
	}

	return wire.PingResponse{UID: o.uid, Status: wire.PingStatusOK}, nil
}

// DeliverQueueEntry implements queue.Sender for the retry worker:
// resolve the target contact, dispatch, and flip chat.is_active on a
// successful ping.
func (o *Orchestrator) DeliverQueueEntry(ctx context.Context, entry model.QueueEntry) error {
	contact, err := o.store.GetContact(entry.TargetUID)
	if err != nil {
		return err
	}
	if contact.Expired(model.NowMillis()) {
		return model.ErrContactNotFound
	}

	if entry.MessageType == model.MessageTypePing {
		_, result := o.client.SendPing(ctx, contact.IP, string(entry.Payload))
		if result.Outcome != transport.Delivered {
			return model.NewError(model.KindTransport, "ping delivery failed", nil)
		}
		return o.store.SetChatActive(entry.TargetUID, true)
	}

	result := o.client.SendMessage(ctx, contact.IP, o.uid, entry.MessageType, entry.Payload)
	if result.Outcome != transport.Delivered {
		return model.NewError(model.KindTransport, "message delivery failed", nil)
	}

	pending, err := o.queue.HasPending(entry.TargetUID)
	if err != nil {
		return err
	}
	return o.store.SetChatHasPendingMessages(entry.TargetUID, pending)
}
