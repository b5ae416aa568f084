package models

// NotificationSettings is the model for the 'notification_settings' table.
// There is exactly one row per session. The channel toggles are stored preferences only.
type NotificationSettings struct {
	ID              string `json:"id" db:"id"`
	SessionID       string `json:"sessionId" db:"session_id"`
	PushEnabled     bool   `json:"pushEnabled" db:"push_enabled"`
	EmailEnabled    bool   `json:"emailEnabled" db:"email_enabled"`
	SmsEnabled      bool   `json:"smsEnabled" db:"sms_enabled"`
	WhatsappEnabled bool   `json:"whatsappEnabled" db:"whatsapp_enabled"`
	ReminderDays    int    `json:"reminderDays" db:"reminder_days"`
}

// MaxReminderDays bounds the warning window to one year.
const MaxReminderDays = 365

// DefaultNotificationSettings returns the row inserted the first time a session asks for settings.
func DefaultNotificationSettings(id, sessionID string) NotificationSettings {
	return NotificationSettings{
		ID:              id,
		SessionID:       sessionID,
		PushEnabled:     true,
		EmailEnabled:    false,
		SmsEnabled:      false,
		WhatsappEnabled: false,
		ReminderDays:    DefaultReminderDays,
	}
}

// SettingsPatch carries a partial settings update.
type SettingsPatch struct {
	PushEnabled     *bool `json:"pushEnabled"`
	EmailEnabled    *bool `json:"emailEnabled"`
	SmsEnabled      *bool `json:"smsEnabled"`
	WhatsappEnabled *bool `json:"whatsappEnabled"`
	ReminderDays    *int  `json:"reminderDays" binding:"omitempty,min=1,max=365"`
}

// Validate checks only the fields present in the patch.
func (p SettingsPatch) Validate() error {
	if p.ReminderDays != nil {
		if *p.ReminderDays < 1 {
			return invalid("reminderDays", "must be a positive number of days")
		}
		if *p.ReminderDays > MaxReminderDays {
			return invalid("reminderDays", "must be at most 365")
		}
	}
	return nil
}

// Apply copies the present fields of p onto s.
func (p SettingsPatch) Apply(s *NotificationSettings) {
	if p.PushEnabled != nil {
		s.PushEnabled = *p.PushEnabled
	}
	if p.EmailEnabled != nil {
		s.EmailEnabled = *p.EmailEnabled
	}
	if p.SmsEnabled != nil {
		s.SmsEnabled = *p.SmsEnabled
	}
	if p.WhatsappEnabled != nil {
		s.WhatsappEnabled = *p.WhatsappEnabled
	}
	if p.ReminderDays != nil {
		s.ReminderDays = *p.ReminderDays
	}
}
