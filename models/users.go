package models

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"expense-tracker/api/apperr"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

var (
	SupportedLanguages  = []string{"he", "en"}
	SupportedCurrencies = []string{"ILS", "USD", "EUR", "GBP"}
	SupportedThemes     = []string{"light", "dark"}
)

type Preferences struct {
	Language string `bson:"language" json:"language"`
	Currency string `bson:"currency" json:"currency"`
	Theme    string `bson:"theme" json:"theme"`
}

func DefaultPreferences() Preferences {
	return Preferences{Language: "he", Currency: "ILS", Theme: "light"}
}

type User struct {
	ID           string      `bson:"_id,omitempty" json:"id"`
	Name         string      `bson:"name" json:"name"`
	Email        string      `bson:"email" json:"email"`
	PasswordHash string      `bson:"password" json:"-"`
	Income       float64     `bson:"income" json:"income"`
	Preferences  Preferences `bson:"preferences" json:"preferences"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Registration is the input for creating an account.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// ProfilePatch carries the profile fields a user may change. Nil fields are
// left untouched.
type ProfilePatch struct {
	Name     *string
	Language *string
	Currency *string
	Theme    *string
	Income   *float64
}

// NormalizeEmail lower-cases and trims an address so uniqueness is case
// insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Registration) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

func (r Registration) Validate() error {
	if r.Name == "" {
		return apperr.Validation("name", apperr.CodeNameRequired)
	}
	if !emailPattern.MatchString(r.Email) {
		return apperr.Validation("email", apperr.CodeEmailInvalid)
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return apperr.Validation("password", apperr.CodePasswordTooShort)
	}
	return nil
}

// Apply merges the patch into u.
func (p ProfilePatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Language != nil {
		u.Preferences.Language = *p.Language
	}
	if p.Currency != nil {
		u.Preferences.Currency = strings.ToUpper(*p.Currency)
	}
	if p.Theme != nil {
		u.Preferences.Theme = *p.Theme
	}
	if p.Income != nil {
		u.Income = RoundAmount(*p.Income)
	}
}

// ValidateUser checks the mutable fields of a stored user.
func ValidateUser(u *User) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperr.Validation("name", apperr.CodeNameRequired)
	}
	if u.Income < 0 {
		return apperr.Validation("income", apperr.CodeIncomeNegative)
	}
	if !AmountInRange(u.Income) {
		return apperr.Validation("income", apperr.CodeAmountTooLarge)
	}
	if !slices.Contains(SupportedLanguages, u.Preferences.Language) {
		return apperr.Validation("language", apperr.CodePreferenceInvalid)
	}
	if !slices.Contains(SupportedCurrencies, u.Preferences.Currency) {
		return apperr.Validation("currency", apperr.CodePreferenceInvalid)
	}
	if !slices.Contains(SupportedThemes, u.Preferences.Theme) {
		return apperr.Validation("theme", apperr.CodePreferenceInvalid)
	}
	return nil
}
