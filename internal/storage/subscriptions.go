package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/01moynul/cancelbuddy/internal/models"
)

const subscriptionColumns = "id, session_id, name, plan, price, currency, start_date, cancel_by_date, cancel_url, logo_url, created_at"

// ListSubscriptions returns the session's subscriptions in insertion order.
// An unknown or inactive session gets an empty list, not an error.
func (s *Store) ListSubscriptions(ctx context.Context, sessionKey string) ([]models.Subscription, error) {
	sess, err := s.activeSession(ctx, sessionKey)
	if errors.Is(err, ErrNotActivated) {
		return []models.Subscription{}, nil
	}
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsFor(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	query := s.rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE session_id = ? ORDER BY created_at, id`)
	rows, err := s.db.QueryContext(ctx, query, sess.ID)
	if err != nil {
		return nil, unavailable("list subscriptions", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, unavailable("scan subscription", err)
		}
		sub.Status = s.deriveStatus(sub.CancelByDate, settings.ReminderDays)
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list subscriptions", err)
	}
	return subs, nil
}

// GetSubscription returns one subscription owned by the session.
// A row owned by another session is reported as ErrNotFound.
func (s *Store) GetSubscription(ctx context.Context, id, sessionKey string) (*models.Subscription, error) {
	sess, err := s.activeSession(ctx, sessionKey)
	if errors.Is(err, ErrNotActivated) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsFor(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	query := s.rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ? AND session_id = ?`)
	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id, sess.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get subscription", err)
	}
	sub.Status = s.deriveStatus(sub.CancelByDate, settings.ReminderDays)
	return sub, nil
}

// CreateSubscription stores a new subscription owned by the session.
func (s *Store) CreateSubscription(ctx context.Context, sessionKey string, in models.NewSubscription) (*models.Subscription, error) {
	// 1. --- Validate before touching storage ---
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// 2. --- Resolve the owner and its reminder window ---
	sess, err := s.activeSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsFor(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	// 3. --- Build the row ---
	currency := models.NormalizeCurrency(in.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}
	sub := &models.Subscription{
		ID:        s.newID(),
		SessionID: sess.ID,
		Name:      strings.TrimSpace(in.Name),
		Plan:      in.Plan,
		Price:     float64(*in.Price),
		Currency:  currency,
		StartDate: truncate(in.StartDate.Time),
		CancelURL: in.CancelURL.Value,
		LogoURL:   in.LogoURL,
		CreatedAt: truncate(s.now()),
	}
	if in.CancelByDate != nil {
		t := truncate(in.CancelByDate.Time)
		sub.CancelByDate = &t
	}
	sub.Status = s.deriveStatus(sub.CancelByDate, settings.ReminderDays)

	// 4. --- Insert ---
	query := s.rebind(`
		INSERT INTO subscriptions (` + subscriptionColumns + `, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		sub.ID, sub.SessionID, sub.Name, nullString(sub.Plan), sub.Price, sub.Currency,
		toMillis(sub.StartDate), nullMillis(sub.CancelByDate), nullString(sub.CancelURL), nullString(sub.LogoURL),
		toMillis(sub.CreatedAt), string(sub.Status),
	)
	if err != nil {
		return nil, unavailable("create subscription", err)
	}
	return sub, nil
}

// UpdateSubscription applies a partial update to a subscription owned by the session.
// Concurrent updates of the same row are last writer wins.
func (s *Store) UpdateSubscription(ctx context.Context, id, sessionKey string, patch models.SubscriptionPatch) (*models.Subscription, error) {
	// 1. --- Validate before touching storage ---
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	// 2. --- Resolve the owner and its reminder window ---
	sess, err := s.activeSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsFor(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	// 3. --- Read, patch and write the scoped row in one transaction ---
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin update", err)
	}

	selectQuery := s.rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ? AND session_id = ?`)
	sub, err := scanSubscription(tx.QueryRowContext(ctx, selectQuery, id, sess.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rollbackWith(tx, ErrNotFound)
	}
	if err != nil {
		return nil, rollbackWith(tx, unavailable("get subscription", err))
	}

	patch.Apply(sub)
	sub.StartDate = truncate(sub.StartDate)
	if sub.CancelByDate != nil {
		t := truncate(*sub.CancelByDate)
		sub.CancelByDate = &t
	}
	sub.Status = s.deriveStatus(sub.CancelByDate, settings.ReminderDays)

	updateQuery := s.rebind(`
		UPDATE subscriptions
		SET name = ?, plan = ?, price = ?, currency = ?, start_date = ?, cancel_by_date = ?,
			cancel_url = ?, logo_url = ?, status = ?
		WHERE id = ? AND session_id = ?`)
	_, err = tx.ExecContext(ctx, updateQuery,
		sub.Name, nullString(sub.Plan), sub.Price, sub.Currency,
		toMillis(sub.StartDate), nullMillis(sub.CancelByDate),
		nullString(sub.CancelURL), nullString(sub.LogoURL), string(sub.Status),
		sub.ID, sess.ID,
	)
	if err != nil {
		return nil, rollbackWith(tx, unavailable("update subscription", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit update", err)
	}
	return sub, nil
}

// DeleteSubscription removes a subscription owned by the session.
// It reports false, with no error, when nothing matched.
func (s *Store) DeleteSubscription(ctx context.Context, id, sessionKey string) (bool, error) {
	sess, err := s.activeSession(ctx, sessionKey)
	if err != nil {
		return false, err
	}

	query := s.rebind(`DELETE FROM subscriptions WHERE id = ? AND session_id = ?`)
	result, err := s.db.ExecContext(ctx, query, id, sess.ID)
	if err != nil {
		return false, unavailable("delete subscription", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("delete subscription", err)
	}
	return affected > 0, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub          models.Subscription
		plan         sql.NullString
		cancelURL    sql.NullString
		logoURL      sql.NullString
		startDate    int64
		cancelByDate sql.NullInt64
		createdAt    int64
	)
	err := row.Scan(
		&sub.ID, &sub.SessionID, &sub.Name, &plan, &sub.Price, &sub.Currency,
		&startDate, &cancelByDate, &cancelURL, &logoURL, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Plan = stringPtr(plan)
	sub.StartDate = fromMillis(startDate)
	sub.CancelByDate = timePtr(cancelByDate)
	sub.CancelURL = stringPtr(cancelURL)
	sub.LogoURL = stringPtr(logoURL)
	sub.CreatedAt = fromMillis(createdAt)
	return &sub, nil
}
