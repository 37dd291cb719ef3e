package store

import (
	"database/sql"
	"errors"

	"pure2p/internal/model"
)

// UpsertContact inserts a contact row, or refreshes its fields when a
// new token for the same UID arrives.
func (s *Store) UpsertContact(c *model.Contact) error {
	_, err := s.db.NamedExec(`INSERT INTO contacts (uid, ip, signing_public_key, kx_public_key, expiry_ms, is_active)
		VALUES (:uid, :ip, :signing_public_key, :kx_public_key, :expiry_ms, :is_active)
		ON CONFLICT(uid) DO UPDATE SET
			ip = excluded.ip,
			signing_public_key = excluded.signing_public_key,
			kx_public_key = excluded.kx_public_key,
			expiry_ms = excluded.expiry_ms`, c)
	if err != nil {
		return model.NewError(model.KindStorage, "upserting contact", err)
	}
	return nil
}

func (s *Store) GetContact(uid string) (*model.Contact, error) {
	var c model.Contact
	err := s.db.Get(&c, `SELECT uid, ip, signing_public_key, kx_public_key, expiry_ms, is_active
		FROM contacts WHERE uid = ?`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrContactNotFound
		}
		return nil, model.NewError(model.KindStorage, "loading contact", err)
	}
	return &c, nil
}

func (s *Store) ListContacts() ([]model.Contact, error) {
	var contacts []model.Contact
	err := s.db.Select(&contacts, `SELECT uid, ip, signing_public_key, kx_public_key, expiry_ms, is_active FROM contacts`)
	if err != nil {
		return nil, model.NewError(model.KindStorage, "listing contacts", err)
	}
	return contacts, nil
}

func (s *Store) SetContactActive(uid string, active bool) error {
	_, err := s.db.Exec(`UPDATE contacts SET is_active = ? WHERE uid = ?`, active, uid)
	if err != nil {
		return model.NewError(model.KindStorage, "updating contact activity", err)
	}
	return nil
}

// DeleteContact removes the contact row; the chats(contact_uid) ON
// DELETE CASCADE foreign key takes the chat and its messages with it.
func (s *Store) DeleteContact(uid string) error {
	_, err := s.db.Exec(`DELETE FROM contacts WHERE uid = ?`, uid)
	if err != nil {
		return model.NewError(model.KindStorage, "deleting contact", err)
	}
	return nil
}
