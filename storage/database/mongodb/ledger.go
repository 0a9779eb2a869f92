package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zombieTDV/studentms/core/ledger"
)

type feeDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Amount      int64              `bson:"amount"`
	StudentID   primitive.ObjectID `bson:"student_id"`
	DueDate     time.Time          `bson:"dueDate"`
	Period      string             `bson:"period"`
	Status      string             `bson:"status"`
}

func (d feeDoc) fee() ledger.Fee {
	return ledger.Fee{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Amount:      d.Amount,
		StudentID:   d.StudentID.Hex(),
		DueDate:     d.DueDate,
		Period:      d.Period,
		Status:      ledger.FeeStatus(d.Status),
	}
}

type txnDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Amount    int64              `bson:"amount"`
	Method    string             `bson:"method"`
	StudentID primitive.ObjectID `bson:"student_id"`
	FeeID     primitive.ObjectID `bson:"fee_id"`
	Status    string             `bson:"status"`
	Date      time.Time          `bson:"date"`
}

func (d txnDoc) transaction() ledger.Transaction {
	return ledger.Transaction{
		ID:        d.ID.Hex(),
		Amount:    d.Amount,
		Method:    d.Method,
		StudentID: d.StudentID.Hex(),
		FeeID:     d.FeeID.Hex(),
		Status:    ledger.TransactionStatus(d.Status),
		Date:      d.Date,
	}
}

// Fees

type feeRepository struct {
	col *mongo.Collection
}

var _ ledger.FeeRepository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) ledger.FeeRepository {
	return &feeRepository{col: db.db.Collection(colFees)}
}

func (repo *feeRepository) Insert(ctx context.Context, fee ledger.Fee) (string, error) {
	studentID, err := primitive.ObjectIDFromHex(fee.StudentID)
	if err != nil {
		return "", errors.Wrap(err, "parsing student id")
	}
	doc := feeDoc{
		Description: fee.Description,
		Amount:      fee.Amount,
		StudentID:   studentID,
		DueDate:     fee.DueDate,
		Period:      fee.Period,
		Status:      string(fee.Status),
	}
	res, err := repo.col.InsertOne(ctx, doc)
	if err != nil {
		return "", errors.Wrap(err, "inserting fee")
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (repo *feeRepository) GetByID(ctx context.Context, id string) (ledger.Fee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ledger.Fee{}, ledger.ErrFeeNotFound
	}
	var doc feeDoc
	if err = repo.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return ledger.Fee{}, ledger.ErrFeeNotFound
		}
		return ledger.Fee{}, errors.Wrap(err, "finding fee")
	}
	return doc.fee(), nil
}

func (repo *feeRepository) ByStudent(ctx context.Context, studentID string) ([]ledger.Fee, error) {
	oid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return nil, nil
	}
	cur, err := repo.col.Find(ctx, bson.M{"student_id": oid})
	if err != nil {
		return nil, errors.Wrap(err, "querying fees by student")
	}
	defer func() { _ = cur.Close(ctx) }()

	var fees []ledger.Fee
	for cur.Next(ctx) {
		var doc feeDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding fee")
		}
		fees = append(fees, doc.fee())
	}
	return fees, errors.Wrap(cur.Err(), "iterating fees")
}

func (repo *feeRepository) Update(ctx context.Context, fee ledger.Fee) error {
	oid, err := primitive.ObjectIDFromHex(fee.ID)
	if err != nil {
		return ledger.ErrFeeNotFound
	}
	set := bson.M{
		"description": fee.Description,
		"dueDate":     fee.DueDate,
		"period":      fee.Period,
		"status":      string(fee.Status),
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating fee")
	}
	if res.MatchedCount == 0 {
		return ledger.ErrFeeNotFound
	}
	return nil
}

func (repo *feeRepository) UpdateStatus(ctx context.Context, id string, status ledger.FeeStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ledger.ErrFeeNotFound
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return errors.Wrap(err, "updating fee status")
	}
	if res.MatchedCount == 0 {
		return ledger.ErrFeeNotFound
	}
	return nil
}

func (repo *feeRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrap(err, "deleting fee")
	}
	return res.DeletedCount > 0, nil
}

func (repo *feeRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return 0, nil
	}
	res, err := repo.col.DeleteMany(ctx, bson.M{"student_id": oid})
	if err != nil {
		return 0, errors.Wrap(err, "deleting fees by student")
	}
	return res.DeletedCount, nil
}

// Transactions

type transactionRepository struct {
	col *mongo.Collection
}

var _ ledger.TransactionRepository = (*transactionRepository)(nil) // interface compliance check

func NewTransactionRepository(db *DB) ledger.TransactionRepository {
	return &transactionRepository{col: db.db.Collection(colTransactions)}
}

func (repo *transactionRepository) Insert(ctx context.Context, txn ledger.Transaction) (string, error) {
	studentID, err := primitive.ObjectIDFromHex(txn.StudentID)
	if err != nil {
		return "", errors.Wrap(err, "parsing student id")
	}
	feeID, err := primitive.ObjectIDFromHex(txn.FeeID)
	if err != nil {
		return "", errors.Wrap(err, "parsing fee id")
	}
	doc := txnDoc{
		Amount:    txn.Amount,
		Method:    txn.Method,
		StudentID: studentID,
		FeeID:     feeID,
		Status:    string(txn.Status),
		Date:      txn.Date,
	}
	res, err := repo.col.InsertOne(ctx, doc)
	if err != nil {
		return "", errors.Wrap(err, "inserting transaction")
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (repo *transactionRepository) GetByID(ctx context.Context, id string) (ledger.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	var doc txnDoc
	if err = repo.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return ledger.Transaction{}, ledger.ErrTransactionNotFound
		}
		return ledger.Transaction{}, errors.Wrap(err, "finding transaction")
	}
	return doc.transaction(), nil
}

func (repo *transactionRepository) ByStudent(ctx context.Context, studentID string) ([]ledger.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return nil, nil
	}
	return repo.query(ctx, bson.M{"student_id": oid})
}

func (repo *transactionRepository) ByFee(ctx context.Context, feeID string) ([]ledger.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(feeID)
	if err != nil {
		return nil, nil
	}
	return repo.query(ctx, bson.M{"fee_id": oid})
}

func (repo *transactionRepository) query(ctx context.Context, filter bson.M) ([]ledger.Transaction, error) {
	cur, err := repo.col.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}
	defer func() { _ = cur.Close(ctx) }()

	var txns []ledger.Transaction
	for cur.Next(ctx) {
		var doc txnDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding transaction")
		}
		txns = append(txns, doc.transaction())
	}
	return txns, errors.Wrap(cur.Err(), "iterating transactions")
}

func (repo *transactionRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrap(err, "deleting transaction")
	}
	return res.DeletedCount > 0, nil
}

func (repo *transactionRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return 0, nil
	}
	res, err := repo.col.DeleteMany(ctx, bson.M{"student_id": oid})
	if err != nil {
		return 0, errors.Wrap(err, "deleting transactions by student")
	}
	return res.DeletedCount, nil
}

func (repo *transactionRepository) DeleteByFee(ctx context.Context, feeID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(feeID)
	if err != nil {
		return 0, nil
	}
	res, err := repo.col.DeleteMany(ctx, bson.M{"fee_id": oid})
	if err != nil {
		return 0, errors.Wrap(err, "deleting transactions by fee")
	}
	return res.DeletedCount, nil
}
