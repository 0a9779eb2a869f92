package ledger

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/zombieTDV/studentms/core"
)

var (
	// errors
	ErrFeeNotFound         = errors.New("fee not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrFeeAlreadyPaid      = errors.New("fee is already paid")
	ErrInvalidAmount       = errors.New("payment amount must be positive")
)

var nowFunc = time.Now // mockable

type (
	// FeeRepository persists fees. Lookups return ErrFeeNotFound when no row
	// matches (malformed ids included).
	FeeRepository interface {
		Insert(ctx context.Context, fee Fee) (string, error)
		GetByID(ctx context.Context, id string) (Fee, error)
		ByStudent(ctx context.Context, studentID string) ([]Fee, error)
		Update(ctx context.Context, fee Fee) error
		UpdateStatus(ctx context.Context, id string, status FeeStatus) error
		Delete(ctx context.Context, id string) (bool, error)
		DeleteByStudent(ctx context.Context, studentID string) (int64, error)
	}

	// TransactionRepository persists transactions.
	TransactionRepository interface {
		Insert(ctx context.Context, txn Transaction) (string, error)
		GetByID(ctx context.Context, id string) (Transaction, error)
		ByStudent(ctx context.Context, studentID string) ([]Transaction, error)
		ByFee(ctx context.Context, feeID string) ([]Transaction, error)
		Delete(ctx context.Context, id string) (bool, error)
		DeleteByStudent(ctx context.Context, studentID string) (int64, error)
		DeleteByFee(ctx context.Context, feeID string) (int64, error)
	}

	Service struct {
		fees FeeRepository
		txns TransactionRepository
	}
)

func NewService(fees FeeRepository, txns TransactionRepository) *Service {
	return &Service{fees: fees, txns: txns}
}

// CreateFee bills a student. The fee starts out pending.
func (svc *Service) CreateFee(ctx context.Context, nf NewFee) (Fee, error) {
	if err := nf.Validate(); err != nil {
		return Fee{}, err
	}
	fee := Fee{
		Description: nf.Description,
		Amount:      nf.Amount,
		StudentID:   nf.StudentID,
		DueDate:     nf.DueDate,
		Period:      nf.Period,
		Status:      FeePending,
	}
	id, err := svc.fees.Insert(ctx, fee)
	if err != nil {
		return Fee{}, err
	}
	fee.ID = id
	return fee, nil
}

func (svc *Service) Fee(ctx context.Context, id string) (Fee, error) {
	return svc.fees.GetByID(ctx, id)
}

func (svc *Service) FeesByStudent(ctx context.Context, studentID string) ([]Fee, error) {
	return svc.fees.ByStudent(ctx, studentID)
}

func (svc *Service) TransactionsByStudent(ctx context.Context, studentID string) ([]Transaction, error) {
	return svc.txns.ByStudent(ctx, studentID)
}

func (svc *Service) TransactionsByFee(ctx context.Context, feeID string) ([]Transaction, error) {
	return svc.txns.ByFee(ctx, feeID)
}

// MarkPaid transitions a fee to paid. Idempotent at the status level: an
// already-paid fee is returned unchanged. It never creates a Transaction;
// RecordPayment composes the two.
func (svc *Service) MarkPaid(ctx context.Context, feeID string) (Fee, error) {
	fee, err := svc.fees.GetByID(ctx, feeID)
	if err != nil {
		return Fee{}, err
	}
	if fee.Status == FeePaid {
		return fee, nil
	}
	if err = svc.fees.UpdateStatus(ctx, fee.ID, FeePaid); err != nil {
		return Fee{}, err
	}
	fee.Status = FeePaid
	return fee, nil
}

// MarkOverdue flags an unpaid fee as overdue (scheduler/admin path; nothing
// time-driven happens inside the ledger).
func (svc *Service) MarkOverdue(ctx context.Context, feeID string) (Fee, error) {
	fee, err := svc.fees.GetByID(ctx, feeID)
	if err != nil {
		return Fee{}, err
	}
	if fee.Status == FeePaid {
		return Fee{}, ErrFeeAlreadyPaid
	}
	if fee.Status == FeeOverdue {
		return fee, nil
	}
	if err = svc.fees.UpdateStatus(ctx, fee.ID, FeeOverdue); err != nil {
		return Fee{}, err
	}
	fee.Status = FeeOverdue
	return fee, nil
}

// UpdateFee edits the non-status, non-amount fields of a fee. Empty patch
// fields keep the stored values.
func (svc *Service) UpdateFee(ctx context.Context, feeID string, uf UpdateFee) (Fee, error) {
	fee, err := svc.fees.GetByID(ctx, feeID)
	if err != nil {
		return Fee{}, err
	}
	if desc := core.CleanString(uf.Description); desc != "" {
		fee.Description = desc
	}
	if !uf.DueDate.IsZero() {
		fee.DueDate = uf.DueDate
	}
	if period := core.CleanString(uf.Period); period != "" {
		fee.Period = period
	}
	if err = svc.fees.Update(ctx, fee); err != nil {
		return Fee{}, err
	}
	return fee, nil
}

// RecordPayment is the only sanctioned "pay" operation: it creates a
// completed Transaction against the fee and marks the fee paid. The two
// writes behave as a unit: when the status update fails, the freshly
// inserted transaction is deleted again (compensating action; the document
// store gives us no multi-collection transaction).
func (svc *Service) RecordPayment(ctx context.Context, feeID string, amount int64, method string) (Transaction, error) {
	fee, err := svc.fees.GetByID(ctx, feeID)
	if err != nil {
		return Transaction{}, err
	}
	if fee.Status == FeePaid {
		return Transaction{}, ErrFeeAlreadyPaid
	}
	if amount <= 0 {
		return Transaction{}, core.NewValidationError(ErrInvalidAmount)
	}

	txn := Transaction{
		Amount:    amount,
		Method:    method,
		StudentID: fee.StudentID,
		FeeID:     fee.ID,
		Status:    TransactionCompleted,
		Date:      nowFunc().UTC(),
	}
	txnID, err := svc.txns.Insert(ctx, txn)
	if err != nil {
		return Transaction{}, pkgerrors.Wrap(err, "recording transaction")
	}
	txn.ID = txnID

	if err = svc.fees.UpdateStatus(ctx, fee.ID, FeePaid); err != nil {
		if _, derr := svc.txns.Delete(ctx, txnID); derr != nil {
			return Transaction{}, pkgerrors.Wrapf(err, "marking fee paid (transaction %s could not be rolled back: %v)", txnID, derr)
		}
		return Transaction{}, pkgerrors.Wrap(err, "marking fee paid")
	}
	return txn, nil
}

// BalanceForStudent aggregates a student's fees against their completed
// transactions. Per-fee remaining is floored at zero; TotalRemaining only
// counts fees that are not fully covered.
func (svc *Service) BalanceForStudent(ctx context.Context, studentID string) (Balance, error) {
	fees, err := svc.fees.ByStudent(ctx, studentID)
	if err != nil {
		return Balance{}, err
	}
	txns, err := svc.txns.ByStudent(ctx, studentID)
	if err != nil {
		return Balance{}, err
	}

	paidByFee := make(map[string]int64, len(fees))
	for _, txn := range txns {
		if txn.Status == TransactionCompleted {
			paidByFee[txn.FeeID] += txn.Amount
		}
	}

	bal := Balance{Fees: make([]FeeBalance, 0, len(fees))}
	for _, fee := range fees {
		paid := paidByFee[fee.ID]
		remaining := fee.Amount - paid
		if remaining < 0 {
			remaining = 0
		}
		bal.Fees = append(bal.Fees, FeeBalance{Fee: fee, Paid: paid, Remaining: remaining})
		bal.TotalBilled += fee.Amount
		bal.TotalPaid += paid
		bal.TotalRemaining += remaining
	}
	return bal, nil
}

// DeleteFee removes a fee together with its transactions (children first).
func (svc *Service) DeleteFee(ctx context.Context, feeID string) (bool, error) {
	fee, err := svc.fees.GetByID(ctx, feeID)
	if err != nil {
		if err == ErrFeeNotFound {
			return false, nil
		}
		return false, err
	}
	if _, err = svc.txns.DeleteByFee(ctx, fee.ID); err != nil {
		return false, pkgerrors.Wrap(err, "deleting fee transactions")
	}
	return svc.fees.Delete(ctx, fee.ID)
}

// CascadeDeleteForStudent removes every fee and transaction referencing the
// student, transactions first. Used exclusively by the hard-delete-student
// path; irreversible.
func (svc *Service) CascadeDeleteForStudent(ctx context.Context, studentID string) (CascadeResult, error) {
	var res CascadeResult

	n, err := svc.txns.DeleteByStudent(ctx, studentID)
	res.Transactions = n
	if err != nil {
		return res, pkgerrors.Wrap(err, "deleting student transactions")
	}

	n, err = svc.fees.DeleteByStudent(ctx, studentID)
	res.Fees = n
	if err != nil {
		return res, pkgerrors.Wrap(err, "deleting student fees")
	}
	return res, nil
}
