package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zombieTDV/studentms/core/account"
)

// accountDoc is the stored shape of an account row. Field names follow the
// documents already in production (createAt, imageURL are historical).
type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	Role         string             `bson:"role"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"createAt"`

	FullName    string     `bson:"fullName,omitempty"`
	DateOfBirth *time.Time `bson:"dob,omitempty"`
	Gender      string     `bson:"gender,omitempty"`
	Address     string     `bson:"address,omitempty"`
	Contact     string     `bson:"contact,omitempty"`
	Major       string     `bson:"major,omitempty"`
	AvatarRef   string     `bson:"imageURL,omitempty"`
	IsActive    *bool      `bson:"is_active,omitempty"`
}

func (d accountDoc) record() account.Record {
	rec := account.Record{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		Role:         account.Role(d.Role),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		FullName:     d.FullName,
		Gender:       d.Gender,
		Address:      d.Address,
		Contact:      d.Contact,
		Major:        d.Major,
		AvatarRef:    d.AvatarRef,
		IsActive:     d.IsActive,
	}
	if d.DateOfBirth != nil {
		rec.DateOfBirth = *d.DateOfBirth
	}
	return rec
}

type accountRepository struct {
	col *mongo.Collection
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{col: db.db.Collection(colAccounts)}
}

func (repo *accountRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	excluded := make([]primitive.ObjectID, 0, len(excludedIDs))
	for _, id := range excludedIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			excluded = append(excluded, oid)
		}
	}

	check := func(field, value string, sentinel error) error {
		if value == "" {
			return nil
		}
		filter := bson.M{field: value}
		if len(excluded) > 0 {
			filter["_id"] = bson.M{"$nin": excluded}
		}
		n, err := repo.col.CountDocuments(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "checking "+field+" uniqueness")
		}
		if n > 0 {
			return sentinel
		}
		return nil
	}

	if err := check("username", username, account.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, account.ErrEmailExists)
}

func (repo *accountRepository) Insert(ctx context.Context, rec account.Record) (string, error) {
	res, err := repo.col.InsertOne(ctx, docFromRecord(rec))
	if err != nil {
		return "", errors.Wrap(err, "inserting account")
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (repo *accountRepository) GetByID(ctx context.Context, id string) (account.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return account.Record{}, account.ErrNotFound
	}
	return repo.getOne(ctx, bson.M{"_id": oid})
}

func (repo *accountRepository) GetByUsername(ctx context.Context, username string) (account.Record, error) {
	return repo.getOne(ctx, bson.M{"username": username})
}

func (repo *accountRepository) GetByEmail(ctx context.Context, email string) (account.Record, error) {
	return repo.getOne(ctx, bson.M{"email": email})
}

func (repo *accountRepository) getOne(ctx context.Context, filter bson.M) (account.Record, error) {
	var doc accountDoc
	if err := repo.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return account.Record{}, account.ErrNotFound
		}
		return account.Record{}, errors.Wrap(err, "finding account")
	}
	return doc.record(), nil
}

func (repo *accountRepository) AllByRole(ctx context.Context, role account.Role) ([]account.Record, error) {
	cur, err := repo.col.Find(ctx, bson.M{"role": string(role)})
	if err != nil {
		return nil, errors.Wrap(err, "querying accounts by role")
	}
	defer func() { _ = cur.Close(ctx) }()

	var recs []account.Record
	for cur.Next(ctx) {
		var doc accountDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding account")
		}
		recs = append(recs, doc.record())
	}
	return recs, errors.Wrap(cur.Err(), "iterating accounts")
}

// Update replaces the mutable fields via $set. Unset optional fields are left
// out of the update document so they never null out persisted values.
func (repo *accountRepository) Update(ctx context.Context, rec account.Record) error {
	oid, err := primitive.ObjectIDFromHex(rec.ID)
	if err != nil {
		return account.ErrNotFound
	}

	set := bson.M{
		"username": rec.Username,
		"email":    rec.Email,
	}
	if rec.PasswordHash != "" {
		set["password_hash"] = rec.PasswordHash
	}
	if rec.FullName != "" {
		set["fullName"] = rec.FullName
	}
	if !rec.DateOfBirth.IsZero() {
		set["dob"] = rec.DateOfBirth
	}
	if rec.Gender != "" {
		set["gender"] = rec.Gender
	}
	if rec.Address != "" {
		set["address"] = rec.Address
	}
	if rec.Contact != "" {
		set["contact"] = rec.Contact
	}
	if rec.Major != "" {
		set["major"] = rec.Major
	}
	if rec.AvatarRef != "" {
		set["imageURL"] = rec.AvatarRef
	}
	if rec.IsActive != nil {
		set["is_active"] = *rec.IsActive
	}

	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (repo *accountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return account.ErrNotFound
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return errors.Wrap(err, "updating password hash")
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (repo *accountRepository) SetActive(ctx context.Context, id string, active bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return account.ErrNotFound
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"is_active": active}})
	if err != nil {
		return errors.Wrap(err, "updating is_active")
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (repo *accountRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrap(err, "deleting account")
	}
	return res.DeletedCount > 0, nil
}

func (repo *accountRepository) CountByRole(ctx context.Context, role account.Role) (int64, error) {
	n, err := repo.col.CountDocuments(ctx, bson.M{"role": string(role)})
	return n, errors.Wrap(err, "counting accounts by role")
}

func docFromRecord(rec account.Record) accountDoc {
	doc := accountDoc{
		Username:     rec.Username,
		Email:        rec.Email,
		Role:         string(rec.Role),
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		FullName:     rec.FullName,
		Gender:       rec.Gender,
		Address:      rec.Address,
		Contact:      rec.Contact,
		Major:        rec.Major,
		AvatarRef:    rec.AvatarRef,
		IsActive:     rec.IsActive,
	}
	if !rec.DateOfBirth.IsZero() {
		dob := rec.DateOfBirth
		doc.DateOfBirth = &dob
	}
	return doc
}
