package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/zombieTDV/studentms/core/ledger"
)

// Fees

type feeRepository struct {
	db *feeTable
}

var _ ledger.FeeRepository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) ledger.FeeRepository {
	return &feeRepository{db: db.fee}
}

func (repo *feeRepository) Insert(_ context.Context, fee ledger.Fee) (string, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	fee.ID = uuid.NewString()
	repo.db.table[fee.ID] = &fee
	repo.db.order = append(repo.db.order, fee.ID)
	return fee.ID, nil
}

func (repo *feeRepository) GetByID(_ context.Context, id string) (ledger.Fee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if fee, ok := repo.db.table[id]; ok {
		return *fee, nil
	}
	return ledger.Fee{}, ledger.ErrFeeNotFound
}

func (repo *feeRepository) ByStudent(_ context.Context, studentID string) ([]ledger.Fee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var fees []ledger.Fee
	for _, id := range repo.db.order {
		if fee := repo.db.table[id]; fee.StudentID == studentID {
			fees = append(fees, *fee)
		}
	}
	return fees, nil
}

func (repo *feeRepository) Update(_ context.Context, fee ledger.Fee) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[fee.ID]
	if !ok {
		return ledger.ErrFeeNotFound
	}
	orig.Description = fee.Description
	orig.DueDate = fee.DueDate
	orig.Period = fee.Period
	orig.Status = fee.Status
	return nil
}

func (repo *feeRepository) UpdateStatus(_ context.Context, id string, status ledger.FeeStatus) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	fee, ok := repo.db.table[id]
	if !ok {
		return ledger.ErrFeeNotFound
	}
	fee.Status = status
	return nil
}

func (repo *feeRepository) Delete(_ context.Context, id string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return true, nil
}

func (repo *feeRepository) DeleteByStudent(_ context.Context, studentID string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	for id, fee := range repo.db.table {
		if fee.StudentID == studentID {
			delete(repo.db.table, id)
			repo.db.order = removeID(repo.db.order, id)
			n++
		}
	}
	return n, nil
}

// Transactions

type transactionRepository struct {
	db *transactionTable
}

var _ ledger.TransactionRepository = (*transactionRepository)(nil) // interface compliance check

func NewTransactionRepository(db *DB) ledger.TransactionRepository {
	return &transactionRepository{db: db.transaction}
}

func (repo *transactionRepository) Insert(_ context.Context, txn ledger.Transaction) (string, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	txn.ID = uuid.NewString()
	repo.db.table[txn.ID] = &txn
	repo.db.order = append(repo.db.order, txn.ID)
	return txn.ID, nil
}

func (repo *transactionRepository) GetByID(_ context.Context, id string) (ledger.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if txn, ok := repo.db.table[id]; ok {
		return *txn, nil
	}
	return ledger.Transaction{}, ledger.ErrTransactionNotFound
}

func (repo *transactionRepository) ByStudent(_ context.Context, studentID string) ([]ledger.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var txns []ledger.Transaction
	for _, id := range repo.db.order {
		if txn := repo.db.table[id]; txn.StudentID == studentID {
			txns = append(txns, *txn)
		}
	}
	return txns, nil
}

func (repo *transactionRepository) ByFee(_ context.Context, feeID string) ([]ledger.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var txns []ledger.Transaction
	for _, id := range repo.db.order {
		if txn := repo.db.table[id]; txn.FeeID == feeID {
			txns = append(txns, *txn)
		}
	}
	return txns, nil
}

func (repo *transactionRepository) Delete(_ context.Context, id string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return true, nil
}

func (repo *transactionRepository) DeleteByStudent(_ context.Context, studentID string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	for id, txn := range repo.db.table {
		if txn.StudentID == studentID {
			delete(repo.db.table, id)
			repo.db.order = removeID(repo.db.order, id)
			n++
		}
	}
	return n, nil
}

func (repo *transactionRepository) DeleteByFee(_ context.Context, feeID string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int64
	for id, txn := range repo.db.table {
		if txn.FeeID == feeID {
			delete(repo.db.table, id)
			repo.db.order = removeID(repo.db.order, id)
			n++
		}
	}
	return n, nil
}
