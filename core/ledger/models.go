package ledger

import (
	"time"

	"github.com/zombieTDV/studentms/core"
)

// Fee statuses. pending → paid, pending → overdue and overdue → paid are the
// only transitions; nothing leaves paid.
type FeeStatus string

const (
	FeePending FeeStatus = "pending"
	FeePaid    FeeStatus = "paid"
	FeeOverdue FeeStatus = "overdue"
)

// Transaction statuses. Only completed transactions count toward balances.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Fee is a billable obligation assigned to one student. Amount is fixed at
// creation; only the status moves afterwards.
type Fee struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"` // VND, whole dong
	StudentID   string    `json:"student_id"`
	DueDate     time.Time `json:"due_date"`
	Period      string    `json:"period"` // e.g. "Học kỳ 1 2025"
	Status      FeeStatus `json:"status"`
}

// Transaction is a payment applied toward a Fee. A completed transaction is
// the authoritative record of money received.
type Transaction struct {
	ID        string            `json:"id"`
	Amount    int64             `json:"amount"`
	Method    string            `json:"method"` // e.g. "admin_entry", "student_portal", "bank_transfer"
	StudentID string            `json:"student_id"`
	FeeID     string            `json:"fee_id"`
	Status    TransactionStatus `json:"status"`
	Date      time.Time         `json:"date"` // UTC
}

// NewFee contains the information needed to bill a student.
type NewFee struct {
	StudentID   string    `json:"student_id" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Amount      int64     `json:"amount" validate:"gte=0"`
	DueDate     time.Time `json:"due_date"`
	Period      string    `json:"period"`
}

func (nf *NewFee) Validate() error {
	nf.Description = core.CleanString(nf.Description)
	nf.Period = core.CleanString(nf.Period)
	return core.TranslateError(core.Validate.Struct(nf))
}

// UpdateFee defines the mutable non-status fields of an existing fee. Amount
// is deliberately absent: it is immutable after creation.
type UpdateFee struct {
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Period      string    `json:"period"`
}

// FeeBalance is one fee with the completed payments applied against it.
type FeeBalance struct {
	Fee       Fee   `json:"fee"`
	Paid      int64 `json:"paid"`
	Remaining int64 `json:"remaining"`
}

// Balance is the aggregate financial position of one student.
type Balance struct {
	Fees           []FeeBalance `json:"fees"`
	TotalBilled    int64        `json:"total_billed"`
	TotalPaid      int64        `json:"total_paid"`
	TotalRemaining int64        `json:"total_remaining"`
}

// CascadeResult reports how many dependent rows a cascading delete removed,
// for audit logging. Counts are populated even when a leg fails partway.
type CascadeResult struct {
	Transactions int64 `json:"transactions"`
	Fees         int64 `json:"fees"`
}
