package store

import (
	"database/sql"
	"errors"

	"pure2p/internal/model"
)

// GetOrCreateChat returns the chat for contactUID, creating an
// inactive/no-pending row if one doesn't exist yet: a chat is created
// on first outbound import or first inbound ping/message.
func (s *Store) GetOrCreateChat(contactUID string) (*model.Chat, error) {
	chat, err := s.GetChat(contactUID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, model.ErrChatNotFound) {
		return nil, err
	}

	_, err = s.db.Exec(`INSERT INTO chats (contact_uid, is_active, has_pending_messages) VALUES (?, 0, 0)`, contactUID)
	if err != nil {
		return nil, model.NewError(model.KindStorage, "creating chat", err)
	}
	return &model.Chat{ContactUID: contactUID}, nil
}

func (s *Store) GetChat(contactUID string) (*model.Chat, error) {
	var c model.Chat
	err := s.db.Get(&c, `SELECT contact_uid, is_active, has_pending_messages FROM chats WHERE contact_uid = ?`, contactUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrChatNotFound
		}
		return nil, model.NewError(model.KindStorage, "loading chat", err)
	}
	return &c, nil
}

func (s *Store) ListChats() ([]model.Chat, error) {
	var chats []model.Chat
	err := s.db.Select(&chats, `SELECT contact_uid, is_active, has_pending_messages FROM chats`)
	if err != nil {
		return nil, model.NewError(model.KindStorage, "listing chats", err)
	}
	return chats, nil
}

func (s *Store) SetChatActive(contactUID string, active bool) error {
	_, err := s.db.Exec(`UPDATE chats SET is_active = ? WHERE contact_uid = ?`, active, contactUID)
	if err != nil {
		return model.NewError(model.KindStorage, "updating chat activity", err)
	}
	return nil
}

func (s *Store) SetChatHasPendingMessages(contactUID string, pending bool) error {
	_, err := s.db.Exec(`UPDATE chats SET has_pending_messages = ? WHERE contact_uid = ?`, pending, contactUID)
	if err != nil {
		return model.NewError(model.KindStorage, "updating chat pending flag", err)
	}
	return nil
}

// DeleteChat removes the chat row; the messages(chat_uid) ON DELETE
// CASCADE foreign key takes its messages with it. The contact row is
// untouched; only smart delete removes a contact.
func (s *Store) DeleteChat(contactUID string) error {
	_, err := s.db.Exec(`DELETE FROM chats WHERE contact_uid = ?`, contactUID)
	if err != nil {
		return model.NewError(model.KindStorage, "deleting chat", err)
	}
	return nil
}
