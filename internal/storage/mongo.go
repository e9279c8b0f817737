package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trainerbook/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	scheduleCollectionName = "schedules"
	scheduleDocumentID     = "schedule"

	mongoConnectTimeout = 10 * time.Second
)

// scheduleDocument is the single Mongo document holding the whole state.
// The fixed _id makes the collection a singleton.
type scheduleDocument struct {
	ID       string           `bson:"_id"`
	Bookings []domain.Booking `bson:"bookings"`
	Blocked  []string         `bson:"blocked"`
	Settings domain.Settings  `bson:"settings"`
	Version  int64            `bson:"version"`
}

// mongoStore implements ScheduleStore on a single-document collection.
// Compare-and-swap is a ReplaceOne filtered on {_id, version}: the filter
// matches nothing when another writer bumped the version first, which is
// the transactional upgrade over the blind read-validate-write the file
// store can only approximate across processes.
type mongoStore struct {
	collection *mongo.Collection
	defaults   domain.Settings
	logger     *zap.Logger
}

// ConnectMongo establishes and pings a MongoDB connection.
func ConnectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectMongo gracefully closes the client.
func DisconnectMongo(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// NewMongoStore creates a store over the schedule singleton in the given
// database.
func NewMongoStore(db *mongo.Database, defaults domain.Settings, logger *zap.Logger) ScheduleStore {
	return &mongoStore{
		collection: db.Collection(scheduleCollectionName),
		defaults:   defaults,
		logger:     logger,
	}
}

func (m *mongoStore) Load(ctx context.Context) (domain.Schedule, error) {
	var doc scheduleDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": scheduleDocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NewSchedule(m.defaults), nil
	}
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: load schedule document: %v", ErrUnavailable, err)
	}
	return docToSchedule(doc), nil
}

func (m *mongoStore) CompareAndSwap(ctx context.Context, expectedVersion int64, next domain.Schedule) error {
	next.Version = expectedVersion + 1
	doc := scheduleToDoc(next)

	if expectedVersion == 0 {
		// The document may not exist yet; try to create it first.
		_, err := m.collection.InsertOne(ctx, doc)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: insert schedule document: %v", ErrUnavailable, err)
		}
		// The document exists; fall through to the versioned replace,
		// which succeeds only if it still sits at version 0.
	}

	result, err := m.collection.ReplaceOne(ctx,
		bson.M{"_id": scheduleDocumentID, "version": expectedVersion},
		doc)
	if err != nil {
		return fmt.Errorf("%w: replace schedule document: %v", ErrUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: expected version %d", ErrVersionConflict, expectedVersion)
	}

	m.logger.Debug("schedule persisted",
		zap.Int64("version", next.Version),
		zap.Int("bookings", len(next.Bookings)))
	return nil
}

func docToSchedule(doc scheduleDocument) domain.Schedule {
	schedule := domain.Schedule{
		Bookings: doc.Bookings,
		Blocked:  doc.Blocked,
		Settings: doc.Settings,
		Version:  doc.Version,
	}
	if schedule.Bookings == nil {
		schedule.Bookings = []domain.Booking{}
	}
	if schedule.Blocked == nil {
		schedule.Blocked = []string{}
	}
	return schedule
}

func scheduleToDoc(schedule domain.Schedule) scheduleDocument {
	return scheduleDocument{
		ID:       scheduleDocumentID,
		Bookings: schedule.Bookings,
		Blocked:  schedule.Blocked,
		Settings: schedule.Settings,
		Version:  schedule.Version,
	}
}
