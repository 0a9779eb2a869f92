package account

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repository with failure hooks for the paths the
// dummy store cannot exercise.
type fakeRepo struct {
	table   map[string]*Record
	nextID  int
	hashErr error // forced UpdatePasswordHash failure
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{table: make(map[string]*Record)}
}

func (r *fakeRepo) CheckUniqueness(_ context.Context, username, email string, excludedIDs ...string) error {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, rec := range r.table {
		if excluded[rec.ID] {
			continue
		}
		if username != "" && rec.Username == username {
			return ErrUsernameExists
		}
		if email != "" && rec.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeRepo) Insert(_ context.Context, rec Record) (string, error) {
	r.nextID++
	rec.ID = fmt.Sprintf("id-%d", r.nextID)
	r.table[rec.ID] = &rec
	return rec.ID, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (Record, error) {
	if rec, ok := r.table[id]; ok {
		return *rec, nil
	}
	return Record{}, ErrNotFound
}

func (r *fakeRepo) GetByUsername(_ context.Context, username string) (Record, error) {
	for _, rec := range r.table {
		if rec.Username == username {
			return *rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (Record, error) {
	for _, rec := range r.table {
		if rec.Email == email {
			return *rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *fakeRepo) AllByRole(_ context.Context, role Role) ([]Record, error) {
	var recs []Record
	for _, rec := range r.table {
		if rec.Role == role {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (r *fakeRepo) Update(_ context.Context, rec Record) error {
	orig, ok := r.table[rec.ID]
	if !ok {
		return ErrNotFound
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

func (r *fakeRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	if r.hashErr != nil {
		return r.hashErr
	}
	rec, ok := r.table[id]
	if !ok {
		return ErrNotFound
	}
	rec.PasswordHash = hash
	return nil
}

func (r *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	rec, ok := r.table[id]
	if !ok {
		return ErrNotFound
	}
	rec.IsActive = &active
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.table[id]; !ok {
		return false, nil
	}
	delete(r.table, id)
	return true, nil
}

func (r *fakeRepo) CountByRole(_ context.Context, role Role) (int64, error) {
	var n int64
	for _, rec := range r.table {
		if rec.Role == role {
			n++
		}
	}
	return n, nil
}

func newTestStudent(t *testing.T, svc *Service, uname, email, pwd string) *Student {
	t.Helper()
	st, err := svc.CreateStudent(context.Background(), NewStudent{
		Username: uname,
		Email:    email,
		Password: pwd,
		FullName: "Nguyen Van A",
	})
	require.NoError(t, err)
	return st
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "ok", username: "vana", password: "s3cr3t-pwd"},
		{name: "uppercase username is normalized", username: "VanA", password: "s3cr3t-pwd"},
		{name: "unknown username", username: "nobody", password: "s3cr3t-pwd", wantErr: ErrInvalidCredentials},
		{name: "wrong password", username: "vana", password: "wrong", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.IsStudent())
			assert.Equal(t, "vana", p.Base().Username)
		})
	}
}

func TestService_CreateStudent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	st := newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	assert.NotEmpty(t, st.ID)
	assert.Equal(t, RoleStudent, st.Role)
	assert.True(t, st.IsActive)
	assert.NotEmpty(t, st.PasswordHash)
	assert.NotEqual(t, "s3cr3t-pwd", st.PasswordHash)

	// round-trip through the repository preserves the variant
	p, err := svc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	got, ok := p.(*Student)
	require.True(t, ok)
	assert.Equal(t, st.Username, got.Username)
	assert.Equal(t, st.FullName, got.FullName)
}

func TestService_duplicateCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	tests := []struct {
		name string
		ns   NewStudent
		want string
	}{
		{
			name: "duplicate username",
			ns:   NewStudent{Username: "vana", Email: "other@test.edu.vn", Password: "s3cr3t-pwd", FullName: "B"},
			want: ErrUsernameExists.Error(),
		},
		{
			name: "duplicate email",
			ns:   NewStudent{Username: "vanb", Email: "vana@test.edu.vn", Password: "s3cr3t-pwd", FullName: "B"},
			want: ErrEmailExists.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(ctx, svc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestService_StudentByID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	adm, err := svc.CreateAdmin(ctx, NewAdmin{Username: "boss", Email: "boss@test.edu.vn", Password: "s3cr3t-pwd"})
	require.NoError(t, err)

	// an admin id does not resolve as a student
	_, err = svc.StudentByID(ctx, adm.ID)
	assert.Equal(t, ErrNotFound, err)
}

func TestService_Save_requiresPasswordOnInsert(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Save(context.Background(), &Student{
		Account: Account{Username: "vana", Email: "vana@test.edu.vn", Role: RoleStudent, CreatedAt: time.Now()},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrPasswordRequired.Error())
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	st := newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	got, err := svc.UpdateProfile(ctx, st.ID, UpdateStudent{Major: "Computer Science", Contact: "0912345678"})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", got.Major)
	assert.Equal(t, "0912345678", got.Contact)
	// untouched fields keep their values
	assert.Equal(t, "Nguyen Van A", got.FullName)
	assert.Equal(t, "vana@test.edu.vn", got.Email)
}

func TestService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	st := newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	require.NoError(t, svc.UpdatePassword(ctx, st.ID, "n3w-s3cr3t"))

	_, err := svc.Authenticate(ctx, "vana", "s3cr3t-pwd")
	assert.Equal(t, ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, "vana", "n3w-s3cr3t")
	assert.NoError(t, err)
}
