package store

import (
	"pure2p/internal/model"
)

// AppendMessage inserts a message row scoped to chatUID. Payload of
// exactly zero bytes (nil or empty) is accepted and recorded as empty
// content.
func (s *Store) AppendMessage(m *model.Message) error {
	row := *m
	if row.Payload == nil {
		row.Payload = []byte{}
	}
	_, err := s.db.NamedExec(`INSERT INTO messages
		(id, chat_uid, sender_uid, receiver_uid, message_type, timestamp_ms, content, status)
		VALUES (:id, :chat_uid, :sender_uid, :receiver_uid, :message_type, :timestamp_ms, :content, :status)`, &row)
	if err != nil {
		return model.NewError(model.KindStorage, "appending message", err)
	}
	return nil
}

// ListMessages returns a chat's history ordered for display: timestamp
// ascending, ties broken by id.
func (s *Store) ListMessages(chatUID string) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.Select(&messages, `SELECT id, chat_uid, sender_uid, receiver_uid, message_type, timestamp_ms, content, status
		FROM messages WHERE chat_uid = ? ORDER BY timestamp_ms ASC, id ASC`, chatUID)
	if err != nil {
		return nil, model.NewError(model.KindStorage, "listing messages", err)
	}
	return messages, nil
}

func (s *Store) SetMessageStatus(id string, status model.DeliveryStatus) error {
	_, err := s.db.Exec(`UPDATE messages SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return model.NewError(model.KindStorage, "updating message status", err)
	}
	return nil
}
