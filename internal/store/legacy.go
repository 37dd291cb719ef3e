package store

import (
	"encoding/json"
	"errors"
	"os"

	"pure2p/internal/model"
)

// legacyKeypair and legacyState mirror the on-disk JSON shape of the
// predecessor's single state file: an optional keypair, detected
// IP/port, contacts, chats, and settings. The queued-message-id list
// is not migrated and no queue entries are created from it, since the
// legacy format stored only ids with no payload/priority/backoff state
// to restore; each chat keeps the has_pending_messages flag recorded
// in the legacy file.
type legacyKeypair struct {
	SigningPublicKey []byte `json:"signing_public_key"`
	SigningSecretKey []byte `json:"signing_secret_key"`
	KxPublicKey      []byte `json:"kx_public_key"`
	KxSecretKey      []byte `json:"kx_secret_key"`
	UID              string `json:"uid"`
}

type legacyContact struct {
	UID              string `json:"uid"`
	IP               string `json:"ip"`
	SigningPublicKey []byte `json:"signing_public_key"`
	KxPublicKey      []byte `json:"kx_public_key"`
	ExpiryMillis     int64  `json:"expiry_ms"`
	IsActive         bool   `json:"is_active"`
}

type legacyChat struct {
	ContactUID         string `json:"contact_uid"`
	IsActive           bool   `json:"is_active"`
	HasPendingMessages bool   `json:"has_pending_messages"`
}

type legacySettings struct {
	RetryIntervalMinutes int  `json:"retry_interval_minutes"`
	TokenValidityHours   int  `json:"token_validity_hours"`
	MaxRetries           int  `json:"max_retries"`
	BaseRetryDelayMillis int  `json:"base_retry_delay_ms"`
	NotificationsEnabled bool `json:"notifications_enabled"`
}

type legacyState struct {
	UserKeypair *legacyKeypair  `json:"user_keypair"`
	UserIP      string          `json:"user_ip"`
	UserPort    int             `json:"user_port"`
	Contacts    []legacyContact `json:"contacts"`
	Chats       []legacyChat    `json:"chats"`
	Settings    legacySettings  `json:"settings"`
}

// MigrateLegacyFile is idempotent: absence of the legacy file is a
// no-op, and once the identity row exists a prior migration is assumed
// complete so a second call is skipped even if the .bak rename somehow
// failed.
func MigrateLegacyFile(s *Store, legacyPath string) error {
	if _, err := os.Stat(legacyPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return model.NewError(model.KindStorage, "checking legacy state file", err)
	}

	if _, err := s.LoadIdentity(); err == nil {
		return renameLegacyBackup(legacyPath)
	}

	raw, err := os.ReadFile(legacyPath)
	if err != nil {
		return model.NewError(model.KindStorage, "reading legacy state file", err)
	}

	var legacy legacyState
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return model.NewError(model.KindCodec, "decoding legacy state file", err)
	}

	if legacy.UserKeypair != nil {
		id := &model.Identity{
			UID:              legacy.UserKeypair.UID,
			SigningPublicKey: legacy.UserKeypair.SigningPublicKey,
			SigningSecretKey: legacy.UserKeypair.SigningSecretKey,
			KxPublicKey:      legacy.UserKeypair.KxPublicKey,
			KxSecretKey:      legacy.UserKeypair.KxSecretKey,
			ExternalIP:       legacy.UserIP,
			ExternalPort:     legacy.UserPort,
		}
		if err := s.CreateIdentity(id); err != nil {
			return err
		}
	}

	for _, c := range legacy.Contacts {
		if err := s.UpsertContact(&model.Contact{
			UID:              c.UID,
			IP:               c.IP,
			SigningPublicKey: c.SigningPublicKey,
			KxPublicKey:      c.KxPublicKey,
			ExpiryMillis:     c.ExpiryMillis,
			IsActive:         c.IsActive,
		}); err != nil {
			return err
		}
	}

	for _, c := range legacy.Chats {
		if _, err := s.GetOrCreateChat(c.ContactUID); err != nil {
			return err
		}
		if err := s.SetChatActive(c.ContactUID, c.IsActive); err != nil {
			return err
		}
		if err := s.SetChatHasPendingMessages(c.ContactUID, c.HasPendingMessages); err != nil {
			return err
		}
	}

	settings := model.Settings{
		RetryIntervalMinutes: legacy.Settings.RetryIntervalMinutes,
		TokenValidityHours:   legacy.Settings.TokenValidityHours,
		MaxRetries:           legacy.Settings.MaxRetries,
		BaseRetryDelayMillis: legacy.Settings.BaseRetryDelayMillis,
		NotificationsEnabled: legacy.Settings.NotificationsEnabled,
	}
	if settings.RetryIntervalMinutes == 0 {
		settings = model.DefaultSettings("")
	}
	if err := s.saveSettingsRow(&settings); err != nil {
		return err
	}

	return renameLegacyBackup(legacyPath)
}

func renameLegacyBackup(legacyPath string) error {
	if _, err := os.Stat(legacyPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return model.NewError(model.KindStorage, "checking legacy state file", err)
	}
	if err := os.Rename(legacyPath, legacyPath+".bak"); err != nil {
		return model.NewError(model.KindStorage, "renaming legacy state file", err)
	}
	return nil
}
