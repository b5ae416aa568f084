package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/01moynul/cancelbuddy/internal/database"
	"github.com/01moynul/cancelbuddy/internal/models"
)

const settingsColumns = "id, session_id, push_enabled, email_enabled, sms_enabled, whatsapp_enabled, reminder_days"

// GetOrCreateSettings returns the session's settings, inserting the defaults on first use.
func (s *Store) GetOrCreateSettings(ctx context.Context, sessionKey string) (*models.NotificationSettings, error) {
	sess, err := s.activeSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return s.settingsFor(ctx, sess.ID)
}

// UpdateSettings applies a partial update to the session's settings and returns the result.
func (s *Store) UpdateSettings(ctx context.Context, sessionKey string, patch models.SettingsPatch) (*models.NotificationSettings, error) {
	// 1. --- Validate before touching storage ---
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	// 2. --- Resolve the session and make sure a row exists ---
	sess, err := s.activeSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsFor(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	// 3. --- Apply and write ---
	patch.Apply(settings)
	query := s.rebind(`
		UPDATE notification_settings
		SET push_enabled = ?, email_enabled = ?, sms_enabled = ?, whatsapp_enabled = ?, reminder_days = ?
		WHERE id = ? AND session_id = ?`)
	_, err = s.db.ExecContext(ctx, query,
		settings.PushEnabled, settings.EmailEnabled, settings.SmsEnabled, settings.WhatsappEnabled, settings.ReminderDays,
		settings.ID, sess.ID,
	)
	if err != nil {
		return nil, unavailable("update settings", err)
	}
	return settings, nil
}

// settingsFor loads or creates the settings row owned by sessionID.
func (s *Store) settingsFor(ctx context.Context, sessionID string) (*models.NotificationSettings, error) {
	settings, err := s.selectSettings(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return s.createDefaultSettings(ctx, sessionID)
	}
	return settings, err
}

// createDefaultSettings inserts the default row. session_id is unique, so a concurrent
// first request loses with a unique violation and reads the winner's row instead.
func (s *Store) createDefaultSettings(ctx context.Context, sessionID string) (*models.NotificationSettings, error) {
	settings := models.DefaultNotificationSettings(s.newID(), sessionID)
	query := s.rebind(`
		INSERT INTO notification_settings (` + settingsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		settings.ID, settings.SessionID,
		settings.PushEnabled, settings.EmailEnabled, settings.SmsEnabled, settings.WhatsappEnabled,
		settings.ReminderDays,
	)
	if database.IsUniqueViolation(err) {
		return s.selectSettings(ctx, sessionID)
	}
	if err != nil {
		return nil, unavailable("create settings", err)
	}
	return &settings, nil
}

func (s *Store) selectSettings(ctx context.Context, sessionID string) (*models.NotificationSettings, error) {
	query := s.rebind(`SELECT ` + settingsColumns + ` FROM notification_settings WHERE session_id = ?`)
	var settings models.NotificationSettings
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&settings.ID, &settings.SessionID,
		&settings.PushEnabled, &settings.EmailEnabled, &settings.SmsEnabled, &settings.WhatsappEnabled,
		&settings.ReminderDays,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get settings", err)
	}
	return &settings, nil
}
