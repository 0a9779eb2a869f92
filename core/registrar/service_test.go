package registrar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombieTDV/studentms/core/account"
	"github.com/zombieTDV/studentms/core/announce"
	"github.com/zombieTDV/studentms/core/ledger"
	dummydb "github.com/zombieTDV/studentms/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fixture struct {
	svc    *Service
	accSvc *account.Service
	ledSvc *ledger.Service
	admin  *account.Admin
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	accSvc := account.NewService(dummydb.NewAccountRepository(db))
	ledSvc := ledger.NewService(dummydb.NewFeeRepository(db), dummydb.NewTransactionRepository(db))
	annSvc := announce.NewService(dummydb.NewAnnouncementRepository(db))

	admin, err := accSvc.CreateAdmin(context.Background(), account.NewAdmin{
		Username: "boss",
		Email:    "boss@test.edu.vn",
		Password: "s3cr3t-pwd",
	})
	require.NoError(t, err)

	return &fixture{
		svc:    NewService(accSvc, ledSvc, annSvc, nopLogger{}),
		accSvc: accSvc,
		ledSvc: ledSvc,
		admin:  admin,
	}
}

func (f *fixture) createStudent(t *testing.T, uname, email string) *account.Student {
	t.Helper()
	res := f.svc.CreateStudent(context.Background(), f.admin, account.NewStudent{
		Username: uname,
		Email:    email,
		Password: "s3cr3t-pwd",
		FullName: "Nguyen Van A",
	})
	require.True(t, res.Success, res.Message)
	return res.Student
}

func (f *fixture) billStudent(t *testing.T, studentID string, amount int64) ledger.Fee {
	t.Helper()
	res := f.svc.CreateFee(context.Background(), f.admin, ledger.NewFee{
		StudentID:   studentID,
		Description: "Học phí",
		Amount:      amount,
		DueDate:     time.Now().AddDate(0, 1, 0),
		Period:      "Học kỳ 1 2026",
	})
	require.True(t, res.Success, res.Message)
	return res.Fee
}

func TestService_unauthorizedCallers(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")

	callers := []struct {
		name   string
		caller account.Principal
	}{
		{name: "anonymous", caller: nil},
		{name: "student", caller: st},
	}
	for _, c := range callers {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, msgUnauthorized, f.svc.CreateStudent(ctx, c.caller, account.NewStudent{}).Message)
			assert.Equal(t, msgUnauthorized, f.svc.EditStudent(ctx, c.caller, st.ID, account.UpdateStudent{}).Message)
			assert.Equal(t, msgUnauthorized, f.svc.UpdateStudentPassword(ctx, c.caller, st.ID, "x").Message)
			assert.Equal(t, msgUnauthorized, f.svc.SoftDeleteStudent(ctx, c.caller, st.ID).Message)
			assert.Equal(t, msgUnauthorized, f.svc.HardDeleteStudent(ctx, c.caller, st.ID).Message)
			assert.Equal(t, msgUnauthorized, f.svc.CreateFee(ctx, c.caller, ledger.NewFee{}).Message)
			assert.Equal(t, msgUnauthorized, f.svc.ReconcilePayment(ctx, c.caller, "x", 0).Message)
			assert.Equal(t, msgUnauthorized, f.svc.PostAnnouncement(ctx, c.caller, "t", "c").Message)
			assert.Equal(t, msgUnauthorized, f.svc.Students(ctx, c.caller).Message)
			assert.Equal(t, msgUnauthorized, f.svc.CountStudents(ctx, c.caller).Message)
		})
	}

	// students may read their own balance but nobody else's
	assert.True(t, f.svc.Balance(ctx, st, st.ID).Success)
	assert.Equal(t, msgUnauthorized, f.svc.Balance(ctx, st, f.admin.ID).Message)
	assert.Equal(t, msgUnauthorized, f.svc.Balance(ctx, nil, st.ID).Message)
}

func TestService_CreateStudent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.createStudent(t, "vana", "vana@test.edu.vn")

	tests := []struct {
		name    string
		ns      account.NewStudent
		wantMsg string
	}{
		{
			name:    "duplicate username",
			ns:      account.NewStudent{Username: "vana", Email: "x@test.edu.vn", Password: "s3cr3t-pwd", FullName: "B"},
			wantMsg: account.ErrUsernameExists.Error(),
		},
		{
			name:    "duplicate email",
			ns:      account.NewStudent{Username: "vanb", Email: "vana@test.edu.vn", Password: "s3cr3t-pwd", FullName: "B"},
			wantMsg: account.ErrEmailExists.Error(),
		},
		{
			name:    "short password",
			ns:      account.NewStudent{Username: "vanc", Email: "vanc@test.edu.vn", Password: "short", FullName: "C"},
			wantMsg: "password",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.CreateStudent(ctx, f.admin, tt.ns)
			assert.False(t, res.Success)
			assert.Contains(t, res.Message, tt.wantMsg)
		})
	}
}

func TestService_EditStudent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")

	res := f.svc.EditStudent(ctx, f.admin, st.ID, account.UpdateStudent{Major: "Mathematics"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Mathematics", res.Student.Major)
	assert.Equal(t, "Nguyen Van A", res.Student.FullName)

	res = f.svc.EditStudent(ctx, f.admin, "missing", account.UpdateStudent{})
	assert.Equal(t, msgStudentNotFound, res.Message)
}

func TestService_UpdateStudentPassword(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")

	res := f.svc.UpdateStudentPassword(ctx, f.admin, st.ID, "n3w-s3cr3t")
	require.True(t, res.Success, res.Message)

	_, err := f.accSvc.Authenticate(ctx, "vana", "n3w-s3cr3t")
	assert.NoError(t, err)
	_, err = f.accSvc.Authenticate(ctx, "vana", "s3cr3t-pwd")
	assert.Equal(t, account.ErrInvalidCredentials, err)

	// the admin's own account is not a valid target
	res = f.svc.UpdateStudentPassword(ctx, f.admin, f.admin.ID, "n3w-s3cr3t")
	assert.Equal(t, msgStudentNotFound, res.Message)
}

func TestService_SoftDeleteStudent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")

	res := f.svc.SoftDeleteStudent(ctx, f.admin, st.ID)
	require.True(t, res.Success, res.Message)

	got, err := f.accSvc.StudentByID(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestService_HardDeleteStudent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")
	other := f.createStudent(t, "vanb", "vanb@test.edu.vn")

	f1 := f.billStudent(t, st.ID, 1_500_000)
	f2 := f.billStudent(t, st.ID, 800_000)
	f.billStudent(t, other.ID, 100_000)

	require.True(t, f.svc.ReconcilePayment(ctx, f.admin, f1.ID, 0).Success)
	require.True(t, f.svc.ReconcilePayment(ctx, f.admin, f2.ID, 0).Success)

	res := f.svc.HardDeleteStudent(ctx, f.admin, st.ID)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, int64(1), res.AccountsDeleted)
	assert.Equal(t, int64(2), res.FeesDeleted)
	assert.Equal(t, int64(2), res.TransactionsDeleted)

	// the account and its ledger rows are gone
	_, err := f.accSvc.GetByID(ctx, st.ID)
	assert.Equal(t, account.ErrNotFound, err)
	fees, err := f.ledSvc.FeesByStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, fees)

	// the other student is untouched
	fees, err = f.ledSvc.FeesByStudent(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, fees, 1)

	// missing target
	res = f.svc.HardDeleteStudent(ctx, f.admin, "missing")
	assert.Equal(t, msgStudentNotFound, res.Message)
}

func TestService_CreateFee(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")

	fee := f.billStudent(t, st.ID, 1_500_000)
	assert.Equal(t, ledger.FeePending, fee.Status)

	// unknown student rejects before anything is written
	res := f.svc.CreateFee(ctx, f.admin, ledger.NewFee{StudentID: "missing", Description: "x", Amount: 1})
	assert.Equal(t, msgStudentNotFound, res.Message)

	// fees cannot target admin accounts
	res = f.svc.CreateFee(ctx, f.admin, ledger.NewFee{StudentID: f.admin.ID, Description: "x", Amount: 1})
	assert.Equal(t, msgStudentNotFound, res.Message)
}

func TestService_ReconcilePayment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")
	fee := f.billStudent(t, st.ID, 1_500_000)

	// zero amount pays the fee in full
	res := f.svc.ReconcilePayment(ctx, f.admin, fee.ID, 0)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, int64(1_500_000), res.Transaction.Amount)
	assert.Equal(t, methodAdminEntry, res.Transaction.Method)

	bal := f.svc.Balance(ctx, f.admin, st.ID)
	require.True(t, bal.Success)
	assert.Equal(t, int64(0), bal.Balance.TotalRemaining)

	// a second reconciliation rejects
	res = f.svc.ReconcilePayment(ctx, f.admin, fee.ID, 0)
	assert.False(t, res.Success)
	assert.Equal(t, "Fee is already paid", res.Message)
}

func TestService_ReconcilePayment_zeroAmountFee(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	st := f.createStudent(t, "vana", "vana@test.edu.vn")
	waiver := f.billStudent(t, st.ID, 0)

	// nothing to collect: the fee is settled without a transaction
	res := f.svc.ReconcilePayment(ctx, f.admin, waiver.ID, 0)
	require.True(t, res.Success, res.Message)
	assert.Empty(t, res.Transaction.ID)

	got, err := f.ledSvc.Fee(ctx, waiver.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.FeePaid, got.Status)
	txns, err := f.ledSvc.TransactionsByFee(ctx, waiver.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)

	// settling twice rejects like any other paid fee
	res = f.svc.ReconcilePayment(ctx, f.admin, waiver.ID, 0)
	assert.False(t, res.Success)
	assert.Equal(t, "Fee is already paid", res.Message)
}

func TestService_Students(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.createStudent(t, "vana", "vana@test.edu.vn")
	f.createStudent(t, "vanb", "vanb@test.edu.vn")

	res := f.svc.Students(ctx, f.admin)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Count)
	// the admin is not in the student list
	for _, st := range res.Students {
		assert.NotEqual(t, f.admin.ID, st.ID)
	}

	count := f.svc.CountStudents(ctx, f.admin)
	require.True(t, count.Success)
	assert.Equal(t, int64(2), count.Count)
}

func TestService_SearchStudents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.createStudent(t, "vana", "vana@test.edu.vn")
	f.createStudent(t, "minhb", "minhb@test.edu.vn")

	tests := []struct {
		name string
		term string
		want int
	}{
		{name: "by username", term: "VANA", want: 1},
		{name: "by email fragment", term: "minhb@", want: 1},
		{name: "by full name", term: "nguyen", want: 2},
		{name: "no match", term: "zzz", want: 0},
		{name: "empty term returns all", term: "  ", want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.SearchStudents(ctx, f.admin, tt.term)
			require.True(t, res.Success)
			assert.Equal(t, tt.want, res.Count)
		})
	}
}

func TestService_PostAnnouncement(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	res := f.svc.PostAnnouncement(ctx, f.admin, "Nghỉ lễ", "Trường nghỉ lễ Quốc khánh 2/9.")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, announce.StatusPublished, res.Announcement.Status)
	assert.Equal(t, f.admin.ID, res.Announcement.CreatedBy)

	res = f.svc.PostAnnouncement(ctx, f.admin, "", "")
	assert.False(t, res.Success)
}
