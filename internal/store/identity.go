package store

import (
	"database/sql"
	"errors"

	"pure2p/internal/model"
)

// LoadIdentity returns the single identity row, or
// model.ErrIdentityNotFound if none exists yet: exactly one identity
// row, generated on first run.
func (s *Store) LoadIdentity() (*model.Identity, error) {
	var id model.Identity
	err := s.db.Get(&id, `SELECT uid, signing_public_key, signing_secret_key,
		kx_public_key, kx_secret_key, external_ip, external_port
		FROM user_identity LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, model.NewError(model.KindStorage, "loading identity", err)
	}
	return &id, nil
}

// CreateIdentity inserts the one-and-only identity row. Callers must
// ensure LoadIdentity previously found no row; the PRIMARY KEY on uid
// plus its two callers (app startup and MigrateLegacyFile), both of
// which insert only after LoadIdentity fails, is what keeps the
// "exactly one, ever" invariant.
func (s *Store) CreateIdentity(id *model.Identity) error {
	_, err := s.db.NamedExec(`INSERT INTO user_identity
		(uid, signing_public_key, signing_secret_key, kx_public_key, kx_secret_key, external_ip, external_port)
		VALUES (:uid, :signing_public_key, :signing_secret_key, :kx_public_key, :kx_secret_key, :external_ip, :external_port)`, id)
	if err != nil {
		return model.NewError(model.KindStorage, "creating identity", err)
	}
	return nil
}

// UpdateExternalEndpoint persists the detected external IP:port once
// connectivity establishment completes.
func (s *Store) UpdateExternalEndpoint(uid, externalIP string, externalPort int) error {
	_, err := s.db.Exec(`UPDATE user_identity SET external_ip = ?, external_port = ? WHERE uid = ?`,
		externalIP, externalPort, uid)
	if err != nil {
		return model.NewError(model.KindStorage, "updating external endpoint", err)
	}
	return nil
}
