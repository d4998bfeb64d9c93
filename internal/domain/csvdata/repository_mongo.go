package csvdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection matches the collection name mongoose derives for "CsvData".
const MongoCollection = "csvdatas"

type mongoRecord struct {
	ID        string         `bson:"_id"`
	RequestID string         `bson:"requestId"`
	File      string         `bson:"file"`
	RowCount  int64          `bson:"rowCount"`
	CreatedAt time.Time      `bson:"createdAt"`
	Extra     map[string]any `bson:",inline"`
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(MongoCollection)}
}

// EnsureMongoIndexes creates the requestId lookup index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MongoCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, rec *UploadRecord) error {
	doc := mongoRecord{
		ID:        rec.ID,
		RequestID: rec.RequestID,
		File:      rec.File,
		RowCount:  rec.RowCount,
		CreatedAt: rec.CreatedAt,
		Extra:     map[string]any(rec.Extra),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert csv record: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetByRequestID(ctx context.Context, requestID string) (*UploadRecord, error) {
	var doc mongoRecord
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	err := r.coll.FindOne(ctx, bson.M{"requestId": requestID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find csv record: %w", err)
	}

	rec := &UploadRecord{
		ID:        doc.ID,
		RequestID: doc.RequestID,
		File:      doc.File,
		RowCount:  doc.RowCount,
		CreatedAt: doc.CreatedAt,
	}
	if len(doc.Extra) > 0 {
		rec.Extra = doc.Extra
	}
	return rec, nil
}
