// Package dummydb provides in-memory repositories backing tests and local
// development where no MongoDB deployment is available.
package dummydb

import (
	"sync"

	"github.com/zombieTDV/studentms/core/account"
	"github.com/zombieTDV/studentms/core/announce"
	"github.com/zombieTDV/studentms/core/ledger"
)

type (
	DB struct {
		account      *accountTable
		fee          *feeTable
		transaction  *transactionTable
		announcement *announcementTable
	}

	// each table keeps an insertion-order id index so listings come back in
	// the same order the production store returns them (natural order)
	accountTable struct {
		sync.RWMutex
		table map[string]*account.Record
		order []string
	}

	feeTable struct {
		sync.RWMutex
		table map[string]*ledger.Fee
		order []string
	}

	transactionTable struct {
		sync.RWMutex
		table map[string]*ledger.Transaction
		order []string
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*announce.Announcement
		order []string
	}
)

// removeID drops id from an insertion-order index.
func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func Open() (*DB, error) {
	db := &DB{
		account:      &accountTable{table: make(map[string]*account.Record)},
		fee:          &feeTable{table: make(map[string]*ledger.Fee)},
		transaction:  &transactionTable{table: make(map[string]*ledger.Transaction)},
		announcement: &announcementTable{table: make(map[string]*announce.Announcement)},
	}
	return db, nil
}
