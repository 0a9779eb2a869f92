// Package mongodb implements the persistence adapters on top of the MongoDB
// collections the application runs on: accounts, fees, transactions and
// announcements.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/zombieTDV/studentms/core"
)

// collection names
const (
	colAccounts      = "accounts"
	colFees          = "fees"
	colTransactions  = "transactions"
	colAnnouncements = "announcements"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the configured MongoDB deployment and pings it. Waits up
// to the configured timeout for the server to be ready.
func Open(conf *core.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "DB ping timeout")
	}
	return &DB{
		client: client,
		db:     client.Database(conf.Database.Name),
	}, nil
}

func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. Collections
// themselves are created lazily on first write.
func EnsureIndexes(ctx context.Context, db *DB) error {
	unique := options.Index().SetUnique(true)

	_, err := db.db.Collection(colAccounts).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "indexing accounts")
	}

	_, err = db.db.Collection(colFees).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_id", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "indexing fees")
	}

	_, err = db.db.Collection(colTransactions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_id", Value: 1}}},
		{Keys: bson.D{{Key: "fee_id", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "indexing transactions")
	}

	_, err = db.db.Collection(colAnnouncements).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createAt", Value: -1}}},
	})
	return errors.Wrap(err, "indexing announcements")
}
