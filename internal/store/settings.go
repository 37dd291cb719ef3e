package store

import (
	"database/sql"
	"errors"

	"pure2p/internal/model"
)

// LoadSettings returns the single settings row, or writes and returns
// model.DefaultSettings(storagePath) if none exists yet. Mirrors the
// identity "generate on first run" lifecycle but without the "never
// regenerate" restriction, since settings are user-adjustable.
func (s *Store) LoadSettings(storagePath string) (*model.Settings, error) {
	var set model.Settings
	err := s.db.Get(&set, `SELECT retry_interval_minutes, storage_path, token_validity_hours,
		max_retries, base_retry_delay_ms, notifications_enabled FROM settings LIMIT 1`)
	if err == nil {
		return &set, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewError(model.KindStorage, "loading settings", err)
	}

	defaults := model.DefaultSettings(storagePath)
	if err := s.saveSettingsRow(&defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

func (s *Store) saveSettingsRow(set *model.Settings) error {
	_, err := s.db.Exec(`INSERT INTO settings
		(id, retry_interval_minutes, storage_path, token_validity_hours, max_retries, base_retry_delay_ms, notifications_enabled)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			retry_interval_minutes = excluded.retry_interval_minutes,
			storage_path = excluded.storage_path,
			token_validity_hours = excluded.token_validity_hours,
			max_retries = excluded.max_retries,
			base_retry_delay_ms = excluded.base_retry_delay_ms,
			notifications_enabled = excluded.notifications_enabled`,
		set.RetryIntervalMinutes, set.StoragePath, set.TokenValidityHours,
		set.MaxRetries, set.BaseRetryDelayMillis, set.NotificationsEnabled)
	if err != nil {
		return model.NewError(model.KindStorage, "saving settings", err)
	}
	return nil
}

// UpdateRetryInterval rejects out-of-range values rather than clamping
// them.
func (s *Store) UpdateRetryInterval(minutes int) error {
	if err := model.ValidateRetryInterval(minutes); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE settings SET retry_interval_minutes = ? WHERE id = 1`, minutes)
	if err != nil {
		return model.NewError(model.KindStorage, "updating retry interval", err)
	}
	return nil
}

func (s *Store) UpdateNotificationsEnabled(enabled bool) error {
	_, err := s.db.Exec(`UPDATE settings SET notifications_enabled = ? WHERE id = 1`, enabled)
	if err != nil {
		return model.NewError(model.KindStorage, "updating notifications setting", err)
	}
	return nil
}
