package audit

import (
	"context"
	"fmt"
	"time"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/timeline"
	"slaughterhouse/internal/core/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "process_timeline"

// entryDocument is the stored form of a timeline entry. (process_id, sequence) is unique, so
// publishing the same entry twice leaves one document.
type entryDocument struct {
	ProcessID  string    `bson:"process_id"`
	Sequence   int       `bson:"sequence"`
	Stage      string    `bson:"stage"`
	Operation  string    `bson:"operation"`
	Actor      string    `bson:"actor"`
	StartedAt  time.Time `bson:"started_at"`
	EndedAt    time.Time `bson:"ended_at"`
	DurationMs int64     `bson:"duration_ms"`
	Status     string    `bson:"status"`
	Note       string    `bson:"note,omitempty"`
}

func toDocument(processID kernel.UUID, e timeline.Entry) entryDocument {
	return entryDocument{
		ProcessID:  processID.String(),
		Sequence:   e.Sequence,
		Stage:      e.Stage,
		Operation:  e.Operation,
		Actor:      e.Actor,
		StartedAt:  e.StartedAt.UTC(),
		EndedAt:    e.EndedAt.UTC(),
		DurationMs: e.Duration().Milliseconds(),
		Status:     e.Status.String(),
		Note:       e.Note,
	}
}

// MongoSink stores entries in the process_timeline collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ ports.AuditSink = (*MongoSink)(nil)

// NewMongoSink connects, pings and makes sure the unique index exists.
func NewMongoSink(ctx context.Context, uri, dbName string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	collection := client.Database(dbName).Collection(collectionName)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "process_id", Value: 1}, {Key: "sequence", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create timeline index: %w", err)
	}
	return &MongoSink{client: client, collection: collection}, nil
}

func (s *MongoSink) Append(ctx context.Context, processID kernel.UUID, e timeline.Entry) error {
	_, err := s.collection.InsertOne(ctx, toDocument(processID, e))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert timeline entry: %w", err)
	}
	return nil
}

// Entries returns the stored entries of one process in sequence order.
func (s *MongoSink) Entries(ctx context.Context, processID kernel.UUID) ([]timeline.Entry, error) {
	cur, err := s.collection.Find(ctx, bson.M{"process_id": processID.String()},
		options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []entryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]timeline.Entry, 0, len(docs))
	for _, d := range docs {
		e := timeline.Entry{
			Sequence:  d.Sequence,
			Stage:     d.Stage,
			Operation: d.Operation,
			Actor:     d.Actor,
			StartedAt: d.StartedAt,
			EndedAt:   d.EndedAt,
			Note:      d.Note,
		}
		if err := e.Status.UnmarshalText([]byte(d.Status)); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
