package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
	"expense-tracker/api/models"
)

// Session is the result of a successful registration or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Accounts registers users, logs them in and maintains their profile.
type Accounts struct {
	users  UserStore
	hasher auth.PasswordHasher
	issuer *auth.Issuer
	now    func() time.Time

	// dummyHash is compared against when the email is unknown so both login
	// failures cost one bcrypt comparison.
	dummyHash string
}

func NewAccounts(users UserStore, hasher auth.PasswordHasher, issuer *auth.Issuer, clock func() time.Time) (*Accounts, error) {
	if clock == nil {
		clock = time.Now
	}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("preparing password hasher: %w", err)
	}
	return &Accounts{users: users, hasher: hasher, issuer: issuer, now: clock, dummyHash: dummy}, nil
}

func (a *Accounts) Register(ctx context.Context, reg models.Registration) (*Session, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	existing, err := a.users.FindUserByEmail(ctx, reg.Email)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.ErrEmailTaken
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, storeError(err, nil)
	}

	hash, err := a.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	now := a.now()
	u := &models.User{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, storeError(err, nil)
	}
	return a.session(u)
}

// Login returns the same error for an unknown email and a wrong password.
func (a *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email", apperr.CodeEmailInvalid)
	}
	if password == "" {
		return nil, apperr.Validation("password", apperr.CodePasswordTooShort)
	}

	u, err := a.users.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		_ = a.hasher.Compare(a.dummyHash, password)
		return nil, apperr.ErrBadLogin
	}
	if err != nil {
		return nil, storeError(err, nil)
	}
	if err := a.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return a.session(u)
}

func (a *Accounts) Profile(ctx context.Context, p auth.Principal) (*models.User, error) {
	id, err := ownerID(p)
	if err != nil {
		return nil, err
	}
	u, err := a.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, apperr.ErrUserNotFound)
	}
	return u, nil
}

func (a *Accounts) UpdateIncome(ctx context.Context, p auth.Principal, income float64) (*models.User, error) {
	if math.IsNaN(income) || math.IsInf(income, 0) {
		return nil, apperr.Validation("income", apperr.CodeInvalidNumber)
	}
	return a.UpdateProfile(ctx, p, models.ProfilePatch{Income: &income})
}

func (a *Accounts) UpdateProfile(ctx context.Context, p auth.Principal, patch models.ProfilePatch) (*models.User, error) {
	u, err := a.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	patch.Apply(u)
	if err := models.ValidateUser(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = a.now()

	if err := a.users.ReplaceUser(ctx, u); err != nil {
		return nil, storeError(err, apperr.ErrUserNotFound)
	}
	return u, nil
}

func (a *Accounts) session(u *models.User) (*Session, error) {
	token, exp, err := a.issuer.Issue(u.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnexpected, apperr.CodeUnexpected, err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}
