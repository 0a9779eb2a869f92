package account

import (
	"context"
	"time"

	"github.com/zombieTDV/studentms/core"
)

// Roles
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Account is the base identity record shared by every principal: credentials,
// role and creation time. It never exposes the password hash to callers.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) bool {
	return CheckPassword(pwd, a.PasswordHash)
}

// Principal is the closed set of account variants. principalFromRecord is the
// single place the stored role discriminator selects a variant; everything
// else switches on the concrete type or calls IsAdmin/IsStudent.
type Principal interface {
	Base() *Account
	IsAdmin() bool
	IsStudent() bool
	sealed()
}

func (a *Account) Base() *Account  { return a }
func (a *Account) IsAdmin() bool   { return false }
func (a *Account) IsStudent() bool { return false }
func (a *Account) sealed()         {}

// Student is an Account with a student profile attached.
type Student struct {
	Account
	FullName    string    `json:"full_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender"`
	Address     string    `json:"address"`
	Contact     string    `json:"contact"`
	Major       string    `json:"major"`
	AvatarRef   string    `json:"avatar_ref"`
	IsActive    bool      `json:"is_active"`
}

func (s *Student) IsStudent() bool { return true }

// Admin carries no fields beyond the base Account; its authority lives in the
// registrar operations that require it.
type Admin struct {
	Account
}

func (a *Admin) IsAdmin() bool { return true }

// Record is the persisted superset of all account variants, as stored in the
// accounts collection. Optional pointer fields keep merge-update semantics:
// nil means "leave the stored value alone".
type Record struct {
	ID           string
	Username     string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time

	// student profile
	FullName    string
	DateOfBirth time.Time
	Gender      string
	Address     string
	Contact     string
	Major       string
	AvatarRef   string
	IsActive    *bool
}

// principalFromRecord reconstitutes the correct variant from a stored record.
// Unrecognized roles fall back to the base Account.
func principalFromRecord(rec Record) Principal {
	base := Account{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		Role:         rec.Role,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}
	switch rec.Role {
	case RoleStudent:
		active := true
		if rec.IsActive != nil {
			active = *rec.IsActive
		}
		return &Student{
			Account:     base,
			FullName:    rec.FullName,
			DateOfBirth: rec.DateOfBirth,
			Gender:      rec.Gender,
			Address:     rec.Address,
			Contact:     rec.Contact,
			Major:       rec.Major,
			AvatarRef:   rec.AvatarRef,
			IsActive:    active,
		}
	case RoleAdmin:
		return &Admin{Account: base}
	default:
		return &base
	}
}

// recordFromPrincipal flattens a variant back into its persisted shape.
func recordFromPrincipal(p Principal) Record {
	base := p.Base()
	rec := Record{
		ID:           base.ID,
		Username:     base.Username,
		Email:        base.Email,
		Role:         base.Role,
		PasswordHash: base.PasswordHash,
		CreatedAt:    base.CreatedAt,
	}
	if s, ok := p.(*Student); ok {
		rec.FullName = s.FullName
		rec.DateOfBirth = s.DateOfBirth
		rec.Gender = s.Gender
		rec.Address = s.Address
		rec.Contact = s.Contact
		rec.Major = s.Major
		rec.AvatarRef = s.AvatarRef
		active := s.IsActive
		rec.IsActive = &active
	}
	return rec
}

// NewStudent contains the information needed to register a new student
// account (the new-account construction path: a plaintext password is
// mandatory, the id is assigned on first persist).
type NewStudent struct {
	Username    string    `json:"username" validate:"required,min=3,max=50,username_"`
	Email       string    `json:"email" validate:"required,email"`
	Password    string    `json:"password" validate:"required,min=8,max=128"`
	FullName    string    `json:"full_name" validate:"required"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender"`
	Address     string    `json:"address"`
	Contact     string    `json:"contact" validate:"omitempty,phone_vn"`
	Major       string    `json:"major"`
	AvatarRef   string    `json:"avatar_ref"`
}

func (ns *NewStudent) Validate(ctx context.Context, svc *Service) error {
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.FullName = core.CleanString(ns.FullName)
	ns.Contact = core.CleanString(ns.Contact)

	if err := core.TranslateError(core.Validate.Struct(ns)); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.Username, ns.Email)
}

// NewAdmin contains the information needed to create a new admin account.
type NewAdmin struct {
	Username string `json:"username" validate:"required,min=3,max=50,username_"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (na *NewAdmin) Validate(ctx context.Context, svc *Service) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Email = core.CleanString(na.Email, true /* lower */)

	if err := core.TranslateError(core.Validate.Struct(na)); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, na.Username, na.Email)
}

// UpdateStudent defines what profile information may be modified on an
// existing Student. Zero-valued fields are left unchanged.
type UpdateStudent struct {
	Email       string    `json:"email" validate:"omitempty,email"`
	FullName    string    `json:"full_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender"`
	Address     string    `json:"address"`
	Contact     string    `json:"contact" validate:"omitempty,phone_vn"`
	Major       string    `json:"major"`
	AvatarRef   string    `json:"avatar_ref"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig *Student, svc *Service) error {
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.FullName = core.CleanString(us.FullName)
	us.Contact = core.CleanString(us.Contact)

	if err := core.TranslateError(core.Validate.Struct(us)); err != nil {
		return err
	}
	if us.Email != "" && us.Email != orig.Email {
		return svc.checkUniqueness(ctx, "", us.Email, orig.ID)
	}
	return nil
}
