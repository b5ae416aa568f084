package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxNameLength bounds name and plan, counted in characters.
const MaxNameLength = 200

// Subscription is the model for the 'subscriptions' table.
// Status is filled in on every read from CancelByDate and the owner's reminder window.
type Subscription struct {
	ID           string     `json:"id" db:"id"`
	SessionID    string     `json:"sessionId" db:"session_id"`
	Name         string     `json:"name" db:"name"`
	Plan         *string    `json:"plan" db:"plan"`
	Price        float64    `json:"price" db:"price"` // monthly amount
	Currency     string     `json:"currency" db:"currency"`
	StartDate    time.Time  `json:"startDate" db:"start_date"`
	CancelByDate *time.Time `json:"cancelByDate" db:"cancel_by_date"`
	CancelURL    *string    `json:"cancelUrl" db:"cancel_url"`
	LogoURL      *string    `json:"logoUrl" db:"logo_url"`
	Status       Status     `json:"status" db:"-"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// NewSubscription is the accepted input for creating a subscription.
// ID, SessionID and Status are server-owned and have no field here.
type NewSubscription struct {
	Name         string           `json:"name" binding:"required,max=200"`
	Plan         *string          `json:"plan" binding:"omitempty,max=200"`
	Price        *Amount          `json:"price" binding:"required"`
	Currency     string           `json:"currency" binding:"omitempty,len=3"`
	StartDate    *Timestamp       `json:"startDate" binding:"required"`
	CancelByDate *Timestamp       `json:"cancelByDate"`
	CancelURL    Optional[string] `json:"cancelUrl"` // explicit null opts out of the catalog link
	LogoURL      *string          `json:"logoUrl" binding:"omitempty,http_url"`
}

// Validate checks the input independently of how it was decoded.
func (n NewSubscription) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return invalid("name", "is required")
	}
	if err := validateLength("name", &n.Name); err != nil {
		return err
	}
	if err := validateLength("plan", n.Plan); err != nil {
		return err
	}
	if n.Price == nil {
		return invalid("price", "is required")
	}
	if err := n.Price.validate(); err != nil {
		return err
	}
	if n.StartDate == nil || n.StartDate.IsZero() {
		return invalid("startDate", "is required")
	}
	if n.Currency != "" {
		if err := validateCurrency(NormalizeCurrency(n.Currency)); err != nil {
			return err
		}
	}
	if err := validateLink("cancelUrl", n.CancelURL.Value); err != nil {
		return err
	}
	if err := validateLink("logoUrl", n.LogoURL); err != nil {
		return err
	}
	return nil
}

// SubscriptionPatch carries a partial update. Nil pointers and unset Optionals are left alone;
// an Optional set to JSON null clears the column.
type SubscriptionPatch struct {
	Name         *string             `json:"name" binding:"omitempty,max=200"`
	Plan         Optional[string]    `json:"plan"`
	Price        *Amount             `json:"price"`
	Currency     *string             `json:"currency"`
	StartDate    *Timestamp          `json:"startDate"`
	CancelByDate Optional[Timestamp] `json:"cancelByDate"`
	CancelURL    Optional[string]    `json:"cancelUrl"`
	LogoURL      Optional[string]    `json:"logoUrl"`
}

// Validate checks only the fields present in the patch.
func (p SubscriptionPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if err := validateLength("name", p.Name); err != nil {
		return err
	}
	if err := validateLength("plan", p.Plan.Value); err != nil {
		return err
	}
	if p.Price != nil {
		if err := p.Price.validate(); err != nil {
			return err
		}
	}
	if p.Currency != nil {
		if err := validateCurrency(NormalizeCurrency(*p.Currency)); err != nil {
			return err
		}
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		return invalid("startDate", "must not be empty")
	}
	if err := validateLink("cancelUrl", p.CancelURL.Value); err != nil {
		return err
	}
	if err := validateLink("logoUrl", p.LogoURL.Value); err != nil {
		return err
	}
	return nil
}

func validateLength(field string, v *string) *ValidationError {
	if v != nil && utf8.RuneCountInString(*v) > MaxNameLength {
		return invalid(field, fmt.Sprintf("must be at most %d", MaxNameLength))
	}
	return nil
}

var links = validator.New()

// validateLink accepts absolute http(s) URLs. Empty strings pass, matching omitempty on create.
func validateLink(field string, v *string) *ValidationError {
	if v == nil || *v == "" {
		return nil
	}
	if err := links.Var(*v, "http_url"); err != nil {
		return invalid(field, "must be a valid URL")
	}
	return nil
}

// Apply copies the present fields of p onto s.
func (p SubscriptionPatch) Apply(s *Subscription) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Plan.Set {
		s.Plan = p.Plan.Value
	}
	if p.Price != nil {
		s.Price = float64(*p.Price)
	}
	if p.Currency != nil {
		s.Currency = NormalizeCurrency(*p.Currency)
	}
	if p.StartDate != nil {
		s.StartDate = p.StartDate.UTC()
	}
	if p.CancelByDate.Set {
		if p.CancelByDate.Value == nil {
			s.CancelByDate = nil
		} else {
			t := p.CancelByDate.Value.UTC()
			s.CancelByDate = &t
		}
	}
	if p.CancelURL.Set {
		s.CancelURL = p.CancelURL.Value
	}
	if p.LogoURL.Set {
		s.LogoURL = p.LogoURL.Value
	}
}

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON is only called when the key is present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Amount is a non-negative money value that also accepts numeric strings ("9.99").
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(s, ",", ".", 1)), 64)
		if err != nil {
			return invalid("price", "must be a number")
		}
		*a = Amount(f)
		if err := a.validate(); err != nil {
			return err
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func (a Amount) validate() *ValidationError {
	f := float64(a)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return invalid("price", "must be a finite number")
	case f < 0:
		return invalid("price", "must not be negative")
	}
	return nil
}

// Timestamp is a time that also accepts the date-only and datetime-local forms
// browsers send from form inputs. Values without a zone are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("date %q is not in a supported format", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Ptr returns the wrapped time as a UTC pointer, or nil for a nil Timestamp.
func (t *Timestamp) Ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
