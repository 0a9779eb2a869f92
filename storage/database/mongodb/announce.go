package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zombieTDV/studentms/core/announce"
)

type announcementDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	CreatedBy primitive.ObjectID `bson:"createBy"`
	CreatedAt time.Time          `bson:"createAt"`
	Status    string             `bson:"status"`
}

func (d announcementDoc) announcement() announce.Announcement {
	return announce.Announcement{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		CreatedBy: d.CreatedBy.Hex(),
		CreatedAt: d.CreatedAt,
		Status:    announce.Status(d.Status),
	}
}

type announcementRepository struct {
	col *mongo.Collection
}

var _ announce.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announce.Repository {
	return &announcementRepository{col: db.db.Collection(colAnnouncements)}
}

func (repo *announcementRepository) Insert(ctx context.Context, a announce.Announcement) (string, error) {
	createdBy, err := primitive.ObjectIDFromHex(a.CreatedBy)
	if err != nil {
		return "", errors.Wrap(err, "parsing author id")
	}
	doc := announcementDoc{
		Title:     a.Title,
		Content:   a.Content,
		CreatedBy: createdBy,
		CreatedAt: a.CreatedAt,
		Status:    string(a.Status),
	}
	res, err := repo.col.InsertOne(ctx, doc)
	if err != nil {
		return "", errors.Wrap(err, "inserting announcement")
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (repo *announcementRepository) GetByID(ctx context.Context, id string) (announce.Announcement, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return announce.Announcement{}, announce.ErrNotFound
	}
	var doc announcementDoc
	if err = repo.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return announce.Announcement{}, announce.ErrNotFound
		}
		return announce.Announcement{}, errors.Wrap(err, "finding announcement")
	}
	return doc.announcement(), nil
}

func (repo *announcementRepository) AllByStatus(ctx context.Context, status announce.Status) ([]announce.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createAt", Value: -1}})
	cur, err := repo.col.Find(ctx, bson.M{"status": string(status)}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	defer func() { _ = cur.Close(ctx) }()

	var all []announce.Announcement
	for cur.Next(ctx) {
		var doc announcementDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding announcement")
		}
		all = append(all, doc.announcement())
	}
	return all, errors.Wrap(cur.Err(), "iterating announcements")
}

func (repo *announcementRepository) Update(ctx context.Context, a announce.Announcement) error {
	oid, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return announce.ErrNotFound
	}
	set := bson.M{
		"title":   a.Title,
		"content": a.Content,
		"status":  string(a.Status),
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	if res.MatchedCount == 0 {
		return announce.ErrNotFound
	}
	return nil
}

func (repo *announcementRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrap(err, "deleting announcement")
	}
	return res.DeletedCount > 0, nil
}
