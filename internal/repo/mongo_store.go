package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects, pings the primary and ensures indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cl, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, err
	}

	s := &MongoStore{client: cl, db: cl.Database(database)}
	if err := ensureIndexes(ctx, s.db); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, err
	}
	log.Info().Str("database", database).Msg("MongoDB connected and indexes ensured")
	return s, nil
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// roasts: newest first
	if _, err := d.Collection(domain.CollectionRoasts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_created_at_desc"),
	}); err != nil {
		return err
	}

	// payments: status for the dashboard, one holder per idempotency key.
	// Keyless payments omit the field, so the sparse index skips them.
	if _, err := d.Collection(domain.CollectionPayments).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetName("uniq_idempotency_key").SetUnique(true).SetSparse(true),
		},
	}); err != nil {
		return err
	}

	// events: event_type for share counts
	if _, err := d.Collection(domain.CollectionEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_type", Value: 1}},
		Options: options.Index().SetName("idx_event_type"),
	}); err != nil {
		return err
	}
	return nil
}

// InsertRoast implements Store.
func (s *MongoStore) InsertRoast(ctx context.Context, rec *domain.RoastRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	_, err := s.db.Collection(domain.CollectionRoasts).InsertOne(ctx, rec)
	return err
}

// InsertPayment implements Store.
func (s *MongoStore) InsertPayment(ctx context.Context, rec *domain.PaymentRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	if _, err := s.db.Collection(domain.CollectionPayments).InsertOne(ctx, rec); err != nil {
		if rec.IdempotencyKey != "" && isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindPaymentByIdempotencyKey implements Store.
func (s *MongoStore) FindPaymentByIdempotencyKey(ctx context.Context, key string, since time.Time) (*domain.PaymentRecord, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	filter := bson.M{
		"idempotency_key": key,
		"createdAt":       bson.M{"$gt": since},
	}
	var rec domain.PaymentRecord
	err := s.db.Collection(domain.CollectionPayments).FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertEvent implements Store.
func (s *MongoStore) InsertEvent(ctx context.Context, rec *domain.EventRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	_, err := s.db.Collection(domain.CollectionEvents).InsertOne(ctx, rec)
	return err
}

// Stats implements Store.
func (s *MongoStore) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	var err error

	if st.Roasts, err = s.db.Collection(domain.CollectionRoasts).CountDocuments(ctx, bson.D{}); err != nil {
		return domain.Stats{}, err
	}
	if st.Payments, err = s.db.Collection(domain.CollectionPayments).CountDocuments(ctx,
		bson.M{"status": domain.PaymentStatusCreated}); err != nil {
		return domain.Stats{}, err
	}
	if st.Shares, err = s.db.Collection(domain.CollectionEvents).CountDocuments(ctx,
		bson.M{"event_type": domain.EventShareTwitter}); err != nil {
		return domain.Stats{}, err
	}
	return st, nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
