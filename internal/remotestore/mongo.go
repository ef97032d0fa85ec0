package remotestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/pkg/model"
)

// CollectionQARecords holds one document per answered question
const CollectionQARecords = "qa_records"

// mongoRecord stores the record id as a string _id
type mongoRecord struct {
	ID             string `bson:"_id"`
	model.QARecord `bson:",inline"`
}

// Mongo stores QA records in a MongoDB collection
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to MongoDB and ensures the collection indexes exist
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m := &Mongo{
		client: client,
		coll:   client.Database(dbName).Collection(CollectionQARecords),
	}
	if err := m.Initialize(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Str("database", dbName).Msg("connected to MongoDB")
	return m, nil
}

// Initialize creates the lookup and expiry indexes
func (m *Mongo) Initialize(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vibe", Value: 1}, {Key: "answer_length", Value: 1}, {Key: "normalized_prompt", Value: 1}}},
		{Keys: bson.D{{Key: "vibe", Value: 1}, {Key: "answer_length", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", CollectionQARecords, err)
	}
	return nil
}

// Name identifies the store in logs and stats
func (m *Mongo) Name() string {
	return "mongo"
}

// Ping checks if MongoDB is reachable
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Record inserts a QA record. Duplicate ids are ignored.
func (m *Mongo) Record(ctx context.Context, rec *model.QARecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := m.coll.InsertOne(ctx, mongoRecord{ID: rec.ID.String(), QARecord: *rec})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert qa record: %w", err)
	}
	return nil
}

// FindExact returns the newest record stored under key, or nil
func (m *Mongo) FindExact(ctx context.Context, key cache.Key) (*model.QARecord, error) {
	var doc mongoRecord
	err := m.coll.FindOne(ctx, partitionFilter(key, bson.E{Key: "normalized_prompt", Value: key.Prompt}),
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&doc)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find qa record: %w", err)
	}
	return doc.record()
}

// FindSemantic compares vec against the most recent embedded records in key's partition
func (m *Mongo) FindSemantic(ctx context.Context, key cache.Key, vec []float32, threshold float64) (*model.QARecord, float64, error) {
	cursor, err := m.coll.Find(ctx,
		partitionFilter(key, bson.E{Key: "embedding", Value: bson.M{"$exists": true}}),
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(cache.SemanticCandidates),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query qa records: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []*model.QARecord
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode qa record: %w", err)
		}
		rec, err := doc.record()
		if err != nil {
			continue
		}
		candidates = append(candidates, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate qa records: %w", err)
	}

	rec, sim := cache.BestRecord(candidates, key, vec, threshold)
	return rec, sim, nil
}

// Delete removes a record by id
func (m *Mongo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("failed to delete qa record: %w", err)
	}
	return nil
}

func partitionFilter(key cache.Key, extra bson.E) bson.D {
	return bson.D{
		{Key: "vibe", Value: string(key.Vibe)},
		{Key: "answer_length", Value: string(key.Length)},
		{Key: "no_cache", Value: bson.M{"$ne": true}},
		extra,
	}
}

func (d mongoRecord) record() (*model.QARecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid qa record id %q: %w", d.ID, err)
	}
	rec := d.QARecord
	rec.ID = id
	return &rec, nil
}
