// Package registrar holds the role-gated administrative operations that
// compose the account, ledger and announcement services. Every operation
// takes the calling principal explicitly (no ambient "current user" here)
// and returns a plain result struct so no error ever escapes to the GUI
// layer.
package registrar

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zombieTDV/studentms/core"
	"github.com/zombieTDV/studentms/core/account"
	"github.com/zombieTDV/studentms/core/announce"
	"github.com/zombieTDV/studentms/core/ledger"
)

// user-facing messages
const (
	msgUnauthorized    = "Unauthorized"
	msgStudentNotFound = "Student not found"
	msgFeeNotFound     = "Fee not found"

	// payment method recorded for admin reconciliations
	methodAdminEntry = "admin_entry"
)

// Result is the minimal GUI-boundary contract: a success flag and a
// user-presentable message.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StudentResult struct {
	Result
	Student *account.Student `json:"student,omitempty"`
}

type StudentsResult struct {
	Result
	Students []*account.Student `json:"students"`
	Count    int                `json:"count"`
}

type DeleteStudentResult struct {
	Result
	AccountsDeleted     int64 `json:"accounts_deleted"`
	FeesDeleted         int64 `json:"fees_deleted"`
	TransactionsDeleted int64 `json:"transactions_deleted"`
}

type FeeResult struct {
	Result
	Fee ledger.Fee `json:"fee,omitempty"`
}

type PaymentResult struct {
	Result
	Transaction ledger.Transaction `json:"transaction,omitempty"`
}

type BalanceResult struct {
	Result
	Balance ledger.Balance `json:"balance,omitempty"`
}

type AnnouncementResult struct {
	Result
	Announcement announce.Announcement `json:"announcement,omitempty"`
}

type CountResult struct {
	Result
	Count int64 `json:"count"`
}

type Service struct {
	accounts      *account.Service
	ledger        *ledger.Service
	announcements *announce.Service
	logger        core.Logger
}

func NewService(accounts *account.Service, ledgerSvc *ledger.Service, announcements *announce.Service, logger core.Logger) *Service {
	return &Service{
		accounts:      accounts,
		ledger:        ledgerSvc,
		announcements: announcements,
		logger:        logger,
	}
}

// authorized reports whether the caller may perform admin operations. The
// check runs before any storage access so unauthorized callers learn nothing
// about the target.
func (svc *Service) authorized(caller account.Principal) bool {
	return caller != nil && caller.IsAdmin()
}

func ok(msg string) Result   { return Result{Success: true, Message: msg} }
func fail(msg string) Result { return Result{Message: msg} }

// failFrom converts a core error into a GUI-boundary failure. Validation and
// not-found errors carry their own message; anything else is a persistence
// failure that gets logged and degraded to a message.
func (svc *Service) failFrom(op string, err error) Result {
	cause := errors.Cause(err)
	switch {
	case core.IsValidationError(err):
		return fail(core.ValidationMessage(err))
	case cause == account.ErrNotFound:
		return fail(msgStudentNotFound)
	case cause == ledger.ErrFeeNotFound:
		return fail(msgFeeNotFound)
	case cause == announce.ErrNotFound:
		return fail("Announcement not found")
	case cause == ledger.ErrFeeAlreadyPaid:
		return fail("Fee is already paid")
	}
	svc.logger.Error(fmt.Sprintf("registrar.%s: %v", op, err), err)
	return fail(err.Error())
}

// CreateStudent registers a new student account. Duplicate usernames and
// duplicate emails both reject.
func (svc *Service) CreateStudent(ctx context.Context, caller account.Principal, ns account.NewStudent) StudentResult {
	if !svc.authorized(caller) {
		return StudentResult{Result: fail(msgUnauthorized)}
	}
	if err := ns.Validate(ctx, svc.accounts); err != nil {
		return StudentResult{Result: svc.failFrom("CreateStudent", err)}
	}
	st, err := svc.accounts.CreateStudent(ctx, ns)
	if err != nil {
		return StudentResult{Result: svc.failFrom("CreateStudent", err)}
	}
	return StudentResult{
		Result:  ok(fmt.Sprintf("Student %q registered successfully", st.Username)),
		Student: st,
	}
}

// EditStudent applies a profile patch to an existing student. Only
// student-profile fields are touched.
func (svc *Service) EditStudent(ctx context.Context, caller account.Principal, studentID string, patch account.UpdateStudent) StudentResult {
	if !svc.authorized(caller) {
		return StudentResult{Result: fail(msgUnauthorized)}
	}
	st, err := svc.accounts.UpdateProfile(ctx, studentID, patch)
	if err != nil {
		return StudentResult{Result: svc.failFrom("EditStudent", err)}
	}
	return StudentResult{Result: ok("Profile updated successfully"), Student: st}
}

// UpdateStudentPassword lets an admin set a student's password directly.
func (svc *Service) UpdateStudentPassword(ctx context.Context, caller account.Principal, studentID, newPassword string) Result {
	if !svc.authorized(caller) {
		return fail(msgUnauthorized)
	}
	if newPassword == "" || len(newPassword) > 128 {
		return fail("Invalid password")
	}
	st, err := svc.accounts.StudentByID(ctx, studentID)
	if err != nil {
		return svc.failFrom("UpdateStudentPassword", err)
	}
	if err = svc.accounts.UpdatePassword(ctx, st.ID, newPassword); err != nil {
		return svc.failFrom("UpdateStudentPassword", err)
	}
	return ok("Password changed successfully")
}

// SoftDeleteStudent deactivates the account. Fees and transactions are left
// alone; there is currently no reactivation path.
func (svc *Service) SoftDeleteStudent(ctx context.Context, caller account.Principal, studentID string) Result {
	if !svc.authorized(caller) {
		return fail(msgUnauthorized)
	}
	st, err := svc.accounts.StudentByID(ctx, studentID)
	if err != nil {
		return svc.failFrom("SoftDeleteStudent", err)
	}
	if err = svc.accounts.SetActive(ctx, st.ID, false); err != nil {
		return svc.failFrom("SoftDeleteStudent", err)
	}
	return ok("Student deactivated")
}

// HardDeleteStudent removes the account row and cascades to every fee and
// transaction referencing the student. Irreversible; the result carries
// per-collection deletion counts for audit logging.
func (svc *Service) HardDeleteStudent(ctx context.Context, caller account.Principal, studentID string) DeleteStudentResult {
	if !svc.authorized(caller) {
		return DeleteStudentResult{Result: fail(msgUnauthorized)}
	}
	st, err := svc.accounts.StudentByID(ctx, studentID)
	if err != nil {
		return DeleteStudentResult{Result: svc.failFrom("HardDeleteStudent", err)}
	}

	cascade, err := svc.ledger.CascadeDeleteForStudent(ctx, st.ID)
	res := DeleteStudentResult{
		FeesDeleted:         cascade.Fees,
		TransactionsDeleted: cascade.Transactions,
	}
	if err != nil {
		res.Result = svc.failFrom("HardDeleteStudent", err)
		return res
	}

	deleted, err := svc.accounts.Delete(ctx, st.ID)
	if err != nil {
		res.Result = svc.failFrom("HardDeleteStudent", err)
		return res
	}
	if deleted {
		res.AccountsDeleted = 1
	}
	res.Result = ok(fmt.Sprintf(
		"Student deleted (%d fees, %d transactions removed)",
		cascade.Fees, cascade.Transactions,
	))
	return res
}

// CreateFee bills a student. The target must be an existing student account.
func (svc *Service) CreateFee(ctx context.Context, caller account.Principal, nf ledger.NewFee) FeeResult {
	if !svc.authorized(caller) {
		return FeeResult{Result: fail(msgUnauthorized)}
	}
	if _, err := svc.accounts.StudentByID(ctx, nf.StudentID); err != nil {
		return FeeResult{Result: svc.failFrom("CreateFee", err)}
	}
	fee, err := svc.ledger.CreateFee(ctx, nf)
	if err != nil {
		return FeeResult{Result: svc.failFrom("CreateFee", err)}
	}
	return FeeResult{Result: ok("Fee created"), Fee: fee}
}

// ReconcilePayment records an admin-entered payment against a fee. A zero
// amount pays the fee in full (the usual reconciliation path). Zero-amount
// fees (waivers) have nothing to collect: they are settled in place without a
// money movement.
func (svc *Service) ReconcilePayment(ctx context.Context, caller account.Principal, feeID string, amountPaid int64) PaymentResult {
	if !svc.authorized(caller) {
		return PaymentResult{Result: fail(msgUnauthorized)}
	}
	if amountPaid == 0 {
		fee, err := svc.ledger.Fee(ctx, feeID)
		if err != nil {
			return PaymentResult{Result: svc.failFrom("ReconcilePayment", err)}
		}
		if fee.Amount == 0 {
			if fee.Status == ledger.FeePaid {
				return PaymentResult{Result: svc.failFrom("ReconcilePayment", ledger.ErrFeeAlreadyPaid)}
			}
			if _, err = svc.ledger.MarkPaid(ctx, fee.ID); err != nil {
				return PaymentResult{Result: svc.failFrom("ReconcilePayment", err)}
			}
			return PaymentResult{Result: ok("Payment recorded")}
		}
		amountPaid = fee.Amount
	}
	txn, err := svc.ledger.RecordPayment(ctx, feeID, amountPaid, methodAdminEntry)
	if err != nil {
		return PaymentResult{Result: svc.failFrom("ReconcilePayment", err)}
	}
	return PaymentResult{Result: ok("Payment recorded"), Transaction: txn}
}

// Balance returns a student's aggregate financial position. Available to the
// admin console and (via the GUI controller) to students viewing their own
// balance.
func (svc *Service) Balance(ctx context.Context, caller account.Principal, studentID string) BalanceResult {
	if caller == nil {
		return BalanceResult{Result: fail(msgUnauthorized)}
	}
	if !caller.IsAdmin() && caller.Base().ID != studentID {
		return BalanceResult{Result: fail(msgUnauthorized)}
	}
	bal, err := svc.ledger.BalanceForStudent(ctx, studentID)
	if err != nil {
		return BalanceResult{Result: svc.failFrom("Balance", err)}
	}
	return BalanceResult{Result: ok(""), Balance: bal}
}

// PostAnnouncement publishes an announcement authored by the caller.
func (svc *Service) PostAnnouncement(ctx context.Context, caller account.Principal, title, content string) AnnouncementResult {
	if !svc.authorized(caller) {
		return AnnouncementResult{Result: fail(msgUnauthorized)}
	}
	na := announce.NewAnnouncement{Title: title, Content: content}
	a, err := svc.announcements.Post(ctx, caller.Base().ID, na)
	if err != nil {
		return AnnouncementResult{Result: svc.failFrom("PostAnnouncement", err)}
	}
	return AnnouncementResult{Result: ok("Announcement published"), Announcement: a}
}

// Students lists all student accounts, in store order.
func (svc *Service) Students(ctx context.Context, caller account.Principal) StudentsResult {
	if !svc.authorized(caller) {
		return StudentsResult{Result: fail(msgUnauthorized)}
	}
	principals, err := svc.accounts.AllByRole(ctx, account.RoleStudent)
	if err != nil {
		return StudentsResult{Result: svc.failFrom("Students", err)}
	}
	students := make([]*account.Student, 0, len(principals))
	for _, p := range principals {
		if st, okType := p.(*account.Student); okType {
			students = append(students, st)
		}
	}
	return StudentsResult{Result: ok(""), Students: students, Count: len(students)}
}

// SearchStudents filters the student list by a case-insensitive match on
// username, email or full name.
func (svc *Service) SearchStudents(ctx context.Context, caller account.Principal, term string) StudentsResult {
	res := svc.Students(ctx, caller)
	if !res.Success {
		return res
	}
	term = strings.ToLower(core.CleanString(term))
	if term == "" {
		return res
	}
	filtered := make([]*account.Student, 0, len(res.Students))
	for _, st := range res.Students {
		if strings.Contains(strings.ToLower(st.Username), term) ||
			strings.Contains(strings.ToLower(st.Email), term) ||
			strings.Contains(strings.ToLower(st.FullName), term) {
			filtered = append(filtered, st)
		}
	}
	res.Students = filtered
	res.Count = len(filtered)
	return res
}

// CountStudents reports the number of student accounts.
func (svc *Service) CountStudents(ctx context.Context, caller account.Principal) CountResult {
	if !svc.authorized(caller) {
		return CountResult{Result: fail(msgUnauthorized)}
	}
	n, err := svc.accounts.CountByRole(ctx, account.RoleStudent)
	if err != nil {
		return CountResult{Result: svc.failFrom("CountStudents", err)}
	}
	return CountResult{Result: ok(""), Count: n}
}
