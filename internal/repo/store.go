// Package repo implements the persistence layer for roasts, payments and
// analytics events.
//
// Two backends satisfy Store. MongoStore targets the production document
// store (database "airoast" by default). SQLStore runs on GORM with the
// pure-Go SQLite driver for local development and tests. Open picks the
// backend from the URI scheme:
//
//	mongodb://… or mongodb+srv://…   → MongoStore
//	sqlite:<path> or sqlite::memory: → SQLStore
//
// Inserts fill in a UUID and a UTC CreatedAt when the caller left them empty.
package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// DefaultDatabase is the MongoDB database name used when none is configured.
const DefaultDatabase = "airoast"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by InsertPayment when another payment already
	// holds the idempotency key.
	ErrDuplicate = errors.New("duplicate")

	// ErrUnsupportedStore is returned by Open for an unknown URI scheme.
	ErrUnsupportedStore = errors.New("unsupported store URI")
)

// Store is the persistence contract shared by every backend.
type Store interface {
	// InsertRoast appends a roast record.
	InsertRoast(ctx context.Context, rec *domain.RoastRecord) error
	// InsertPayment appends a payment record, or returns ErrDuplicate when
	// its idempotency key is taken.
	InsertPayment(ctx context.Context, rec *domain.PaymentRecord) error
	// FindPaymentByIdempotencyKey returns the payment holding key when it was
	// recorded after since, or ErrNotFound.
	FindPaymentByIdempotencyKey(ctx context.Context, key string, since time.Time) (*domain.PaymentRecord, error)
	// InsertEvent appends an analytics event.
	InsertEvent(ctx context.Context, rec *domain.EventRecord) error
	// Stats returns the dashboard counts.
	Stats(ctx context.Context) (domain.Stats, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// Open connects to the store named by uri. database only applies to MongoDB
// and defaults to DefaultDatabase.
func Open(ctx context.Context, uri, database string) (Store, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		if database == "" {
			database = DefaultDatabase
		}
		return OpenMongo(ctx, uri, database)
	case strings.HasPrefix(uri, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(uri, "sqlite:"), "//")
		if path == "" {
			return nil, ErrUnsupportedStore
		}
		return OpenSQLStore(path)
	default:
		return nil, ErrUnsupportedStore
	}
}

var (
	sharedOnce  sync.Once
	sharedStore Store
	sharedErr   error
)

// Shared opens the process-wide store on first call and returns the same
// instance (or the same error) afterwards. Later arguments are ignored.
func Shared(ctx context.Context, uri, database string) (Store, error) {
	sharedOnce.Do(func() {
		sharedStore, sharedErr = Open(ctx, uri, database)
	})
	return sharedStore, sharedErr
}

// isDuplicate reports a unique-constraint violation. glebarez/sqlite often
// returns plain-text errors for UNIQUE violations.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// stamp fills in the generated fields of a new record.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = newID()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
