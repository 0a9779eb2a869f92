package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/zombieTDV/studentms/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query() []account.Record {
	recs := make([]account.Record, 0, len(repo.db.table))
	for _, id := range repo.db.order {
		recs = append(recs, *repo.db.table[id])
	}
	return recs
}

func (repo *accountRepository) CheckUniqueness(_ context.Context, username, email string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}

	for _, rec := range repo.query() {
		if excluded[rec.ID] {
			continue
		}
		if username != "" && rec.Username == username {
			return account.ErrUsernameExists
		}
		if email != "" && rec.Email == email {
			return account.ErrEmailExists
		}
	}
	return nil
}

func (repo *accountRepository) Insert(_ context.Context, rec account.Record) (string, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.NewString()
	repo.db.table[rec.ID] = &rec
	repo.db.order = append(repo.db.order, rec.ID)
	return rec.ID, nil
}

func (repo *accountRepository) GetByID(_ context.Context, id string) (account.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return account.Record{}, account.ErrNotFound
}

func (repo *accountRepository) GetByUsername(_ context.Context, username string) (account.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.query() {
		if rec.Username == username {
			return rec, nil
		}
	}
	return account.Record{}, account.ErrNotFound
}

func (repo *accountRepository) GetByEmail(_ context.Context, email string) (account.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.query() {
		if rec.Email == email {
			return rec, nil
		}
	}
	return account.Record{}, account.ErrNotFound
}

func (repo *accountRepository) AllByRole(_ context.Context, role account.Role) ([]account.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []account.Record
	for _, rec := range repo.query() {
		if rec.Role == role {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// Update only saves set fields, mirroring the $set document the production
// backend builds.
func (repo *accountRepository) Update(_ context.Context, rec account.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok {
		return account.ErrNotFound
	}
	orig.Username = rec.Username
	orig.Email = rec.Email
	if rec.PasswordHash != "" {
		orig.PasswordHash = rec.PasswordHash
	}
	if rec.FullName != "" {
		orig.FullName = rec.FullName
	}
	if !rec.DateOfBirth.IsZero() {
		orig.DateOfBirth = rec.DateOfBirth
	}
	if rec.Gender != "" {
		orig.Gender = rec.Gender
	}
	if rec.Address != "" {
		orig.Address = rec.Address
	}
	if rec.Contact != "" {
		orig.Contact = rec.Contact
	}
	if rec.Major != "" {
		orig.Major = rec.Major
	}
	if rec.AvatarRef != "" {
		orig.AvatarRef = rec.AvatarRef
	}
	if rec.IsActive != nil {
		orig.IsActive = rec.IsActive
	}
	return nil
}

func (repo *accountRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return account.ErrNotFound
	}
	rec.PasswordHash = hash
	return nil
}

func (repo *accountRepository) SetActive(_ context.Context, id string, active bool) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return account.ErrNotFound
	}
	rec.IsActive = &active
	return nil
}

func (repo *accountRepository) Delete(_ context.Context, id string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return true, nil
}

func (repo *accountRepository) CountByRole(_ context.Context, role account.Role) (int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int64
	for _, rec := range repo.query() {
		if rec.Role == role {
			n++
		}
	}
	return n, nil
}
