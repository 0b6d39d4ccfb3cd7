package models

import (
	"strings"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

const (
	DefaultPoints   = 10
	DefaultCurrency = "INR"
	DefaultRegion   = "IND"
)

// Profile is stored at users/{user_id}/profile.
type Profile struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Password      string `json:"password,omitempty"`
	DeviceID      string `json:"device_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	LastLogin     string `json:"last_login,omitempty"`
	Points        int    `json:"points"`
	StoreUnlocked bool   `json:"store_unlocked"`
	MFAEnabled    bool   `json:"mfa_enabled"`
}

// Settings is stored at users/{user_id}/settings.
type Settings struct {
	Currency      string `json:"currency"`
	Region        string `json:"region"`
	BackupEnabled bool   `json:"backup_enabled"`
	Timezone      string `json:"timezone,omitempty"`
}

// User is the whole users/{user_id} node without its child collections.
type User struct {
	ID       string   `json:"id,omitempty"`
	Profile  Profile  `json:"profile"`
	Settings Settings `json:"settings"`
}

// SignupRequest is the flat body of POST /create/user and /auth/signin.
type SignupRequest struct {
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	Phone         string                 `json:"phone"`
	Password      string                 `json:"password"`
	DeviceID      string                 `json:"device_id"`
	Points        patch.Optional[int]    `json:"points"`
	StoreUnlocked bool                   `json:"store_unlocked"`
	MFAEnabled    bool                   `json:"mfa_enabled"`
	Currency      patch.Optional[string] `json:"currency"`
	Region        patch.Optional[string] `json:"region"`
	BackupEnabled bool                   `json:"backup_enabled"`
	Timezone      string                 `json:"timezone"`
}

// Split separates the request into the two stored documents, applying defaults.
func (r SignupRequest) Split() (Profile, Settings) {
	p := Profile{
		Name:          strings.TrimSpace(r.Name),
		Email:         utils.NormalizeEmail(r.Email),
		Phone:         strings.TrimSpace(r.Phone),
		Password:      r.Password,
		DeviceID:      r.DeviceID,
		Points:        DefaultPoints,
		StoreUnlocked: r.StoreUnlocked,
		MFAEnabled:    r.MFAEnabled,
	}
	if v, ok := r.Points.Get(); ok {
		p.Points = v
	}
	s := Settings{
		Currency:      DefaultCurrency,
		Region:        DefaultRegion,
		BackupEnabled: r.BackupEnabled,
		Timezone:      r.Timezone,
	}
	if v, ok := r.Currency.Get(); ok && v != "" {
		s.Currency = v
	}
	if v, ok := r.Region.Get(); ok && v != "" {
		s.Region = v
	}
	return p, s
}

// IsZero reports whether no profile field was supplied.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// IsZero reports whether no settings field was supplied.
func (s Settings) IsZero() bool {
	return s == Settings{}
}

// Validate checks the fields required to create an account.
func (p Profile) Validate() error {
	if err := utils.Required("email", p.Email); err != nil {
		return err
	}
	if err := utils.Required("password", p.Password); err != nil {
		return err
	}
	if err := utils.ValidateEmail(p.Email); err != nil {
		return err
	}
	if p.Phone != "" {
		if err := utils.ValidatePhone(p.Phone); err != nil {
			return err
		}
	}
	if p.Points < 0 {
		return &utils.ValidationError{Field: "points", Message: "points must be non-negative"}
	}
	return nil
}

// ApplyDefaults stamps creation time and fills empty settings.
func (u *User) ApplyDefaults(now time.Time) {
	if u.Profile.CreatedAt == "" {
		u.Profile.CreatedAt = Timestamp(now)
	}
	if u.Profile.LastLogin == "" {
		u.Profile.LastLogin = u.Profile.CreatedAt
	}
	if u.Settings.Currency == "" {
		u.Settings.Currency = DefaultCurrency
	}
	if u.Settings.Region == "" {
		u.Settings.Region = DefaultRegion
	}
	if u.Profile.Phone != "" {
		u.Profile.MFAEnabled = true
	}
}

// UserPatch is the body of PATCH /update/user.
type UserPatch struct {
	UserID        string                 `json:"user_id"`
	Name          patch.Optional[string] `json:"name"`
	Email         patch.Optional[string] `json:"email"`
	Phone         patch.Optional[string] `json:"phone"`
	Password      patch.Optional[string] `json:"password"`
	DeviceID      patch.Optional[string] `json:"device_id"`
	LastLogin     patch.Optional[string] `json:"last_login"`
	Points        patch.Optional[int]    `json:"points"`
	StoreUnlocked patch.Optional[bool]   `json:"store_unlocked"`
	MFAEnabled    patch.Optional[bool]   `json:"mfa_enabled"`
	Currency      patch.Optional[string] `json:"currency"`
	Region        patch.Optional[string] `json:"region"`
	BackupEnabled patch.Optional[bool]   `json:"backup_enabled"`
	Timezone      patch.Optional[string] `json:"timezone"`
}

// Document returns the present fields keyed as profile/<field> and settings/<field>.
func (p UserPatch) Document() (patch.Document, error) {
	if v, ok := p.Email.Get(); ok {
		if err := utils.ValidateEmail(v); err != nil {
			return nil, err
		}
		p.Email = patch.Some(utils.NormalizeEmail(v))
	}
	if v, ok := p.Phone.Get(); ok && v != "" {
		if err := utils.ValidatePhone(v); err != nil {
			return nil, err
		}
	}
	if err := optionalRequired("password", p.Password); err != nil {
		return nil, err
	}
	if v, ok := p.Points.Get(); ok && v < 0 {
		return nil, &utils.ValidationError{Field: "points", Message: "points must be non-negative"}
	}

	profile := patch.NewBuilder()
	patch.Field(profile, "name", p.Name)
	patch.Field(profile, "email", p.Email)
	patch.Field(profile, "phone", p.Phone)
	patch.Field(profile, "password", p.Password)
	patch.Field(profile, "device_id", p.DeviceID)
	patch.Field(profile, "last_login", p.LastLogin)
	patch.Field(profile, "points", p.Points)
	patch.Field(profile, "store_unlocked", p.StoreUnlocked)
	patch.Field(profile, "mfa_enabled", p.MFAEnabled)

	settings := patch.NewBuilder()
	patch.Field(settings, "currency", p.Currency)
	patch.Field(settings, "region", p.Region)
	patch.Field(settings, "backup_enabled", p.BackupEnabled)
	patch.Field(settings, "timezone", p.Timezone)

	b := patch.NewBuilder()
	if d, err := profile.Build(); err == nil {
		b.Prefixed("profile", d)
	}
	if d, err := settings.Build(); err == nil {
		b.Prefixed("settings", d)
	}
	return b.Build()
}
