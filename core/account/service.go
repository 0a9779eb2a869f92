package account

import (
	"context"
	"errors"
	"time"

	"github.com/zombieTDV/studentms/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrUsernameExists     = errors.New("an account with this username already exists")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordRequired   = errors.New("password required for new account")
)

type (
	// Repository is the persistence adapter around the accounts collection.
	// Lookups return ErrNotFound when no record matches; a malformed id is
	// indistinguishable from an absent one. Update applies merge semantics:
	// unset optional fields in the record do not clear stored values.
	Repository interface {
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		Insert(ctx context.Context, rec Record) (string, error)
		GetByID(ctx context.Context, id string) (Record, error)
		GetByUsername(ctx context.Context, username string) (Record, error)
		GetByEmail(ctx context.Context, email string) (Record, error)
		AllByRole(ctx context.Context, role Role) ([]Record, error)
		Update(ctx context.Context, rec Record) error
		UpdatePasswordHash(ctx context.Context, id, hash string) error
		SetActive(ctx context.Context, id string, active bool) error
		Delete(ctx context.Context, id string) (bool, error)
		CountByRole(ctx context.Context, role Role) (int64, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, exclIDs...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Authenticate verifies a username/password pair and returns the fully-typed
// principal. An unknown username and a wrong password both come back as
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (svc *Service) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	rec, err := svc.repo.GetByUsername(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(password, rec.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return principalFromRecord(rec), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Principal, error) {
	rec, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return principalFromRecord(rec), nil
}

func (svc *Service) GetByUsername(ctx context.Context, username string) (Principal, error) {
	rec, err := svc.repo.GetByUsername(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		return nil, err
	}
	return principalFromRecord(rec), nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Principal, error) {
	rec, err := svc.repo.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return nil, err
	}
	return principalFromRecord(rec), nil
}

// StudentByID resolves an id that must belong to a student account.
func (svc *Service) StudentByID(ctx context.Context, id string) (*Student, error) {
	p, err := svc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	st, ok := p.(*Student)
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

func (svc *Service) AllByRole(ctx context.Context, role Role) ([]Principal, error) {
	recs, err := svc.repo.AllByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	principals := make([]Principal, 0, len(recs))
	for _, rec := range recs {
		principals = append(principals, principalFromRecord(rec))
	}
	return principals, nil
}

func (svc *Service) CountByRole(ctx context.Context, role Role) (int64, error) {
	return svc.repo.CountByRole(ctx, role)
}

// CreateStudent registers a student through the new-account path: the
// plaintext password is hashed immediately and never stored.
func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (*Student, error) {
	st := &Student{
		Account: Account{
			Username:  ns.Username,
			Email:     ns.Email,
			Role:      RoleStudent,
			CreatedAt: time.Now().UTC(),
		},
		FullName:    ns.FullName,
		DateOfBirth: ns.DateOfBirth,
		Gender:      ns.Gender,
		Address:     ns.Address,
		Contact:     ns.Contact,
		Major:       ns.Major,
		AvatarRef:   ns.AvatarRef,
		IsActive:    true,
	}
	if err := st.SetPassword(ns.Password); err != nil {
		return nil, err
	}
	id, err := svc.Save(ctx, st)
	if err != nil {
		return nil, err
	}
	st.ID = id
	return st, nil
}

func (svc *Service) CreateAdmin(ctx context.Context, na NewAdmin) (*Admin, error) {
	adm := &Admin{
		Account: Account{
			Username:  na.Username,
			Email:     na.Email,
			Role:      RoleAdmin,
			CreatedAt: time.Now().UTC(),
		},
	}
	if err := adm.SetPassword(na.Password); err != nil {
		return nil, err
	}
	id, err := svc.Save(ctx, adm)
	if err != nil {
		return nil, err
	}
	adm.ID = id
	return adm, nil
}

// Save persists a principal: inserts when the id is unset, full-replace
// updates otherwise. A brand new account without a password hash is a
// construction error, never an insert of a credential-less row.
func (svc *Service) Save(ctx context.Context, p Principal) (string, error) {
	base := p.Base()
	if base.ID == "" {
		if base.PasswordHash == "" {
			return "", core.NewValidationError(ErrPasswordRequired)
		}
		id, err := svc.repo.Insert(ctx, recordFromPrincipal(p))
		if err != nil {
			return "", err
		}
		base.ID = id
		return id, nil
	}
	if err := svc.repo.Update(ctx, recordFromPrincipal(p)); err != nil {
		return "", err
	}
	return base.ID, nil
}

// UpdateProfile applies a student-profile patch and persists it. Only fields
// set in the patch are touched.
func (svc *Service) UpdateProfile(ctx context.Context, studentID string, us UpdateStudent) (*Student, error) {
	st, err := svc.StudentByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err = us.Validate(ctx, st, svc); err != nil {
		return nil, err
	}

	if us.Email != "" {
		st.Email = us.Email
	}
	if us.FullName != "" {
		st.FullName = us.FullName
	}
	if !us.DateOfBirth.IsZero() {
		st.DateOfBirth = us.DateOfBirth
	}
	if us.Gender != "" {
		st.Gender = us.Gender
	}
	if us.Address != "" {
		st.Address = us.Address
	}
	if us.Contact != "" {
		st.Contact = us.Contact
	}
	if us.Major != "" {
		st.Major = us.Major
	}
	if us.AvatarRef != "" {
		st.AvatarRef = us.AvatarRef
	}

	if _, err = svc.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// UpdatePassword rehashes and persists only the password hash. Authorization
// is the caller's concern.
func (svc *Service) UpdatePassword(ctx context.Context, id, newPlain string) error {
	hash, err := HashPassword(newPlain)
	if err != nil {
		return err
	}
	return svc.repo.UpdatePasswordHash(ctx, id, hash)
}

// SetActive flips the soft-delete flag on a student account.
func (svc *Service) SetActive(ctx context.Context, id string, active bool) error {
	return svc.repo.SetActive(ctx, id, active)
}

// Delete permanently removes the account row. Dependent fee/transaction rows
// are the ledger's concern (see registrar.HardDeleteStudent).
func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	return svc.repo.Delete(ctx, id)
}
