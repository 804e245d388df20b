// Package domain defines the persisted records and value types of the roast
// backend. Records carry both bson tags (MongoDB store) and gorm tags (SQL
// store) so a single shape flows through either backend.
package domain

import "time"

// Collection / table names shared by every store backend.
const (
	CollectionRoasts   = "roasts"
	CollectionPayments = "payments"
	CollectionEvents   = "events"
)

// PaymentStatusCreated is the only payment status written by this service.
const PaymentStatusCreated = "created"

// EventShareTwitter is the analytics event counted as a "share" on the dashboard.
const EventShareTwitter = "share_twitter"

// RoastRecord is an append-only row for every generation whose model output
// parsed as JSON.
//
// Fields:
//   - ID: UUID primary key.
//   - URL: the submitted site.
//   - Roast / Advice / Jokes: the parsed model output (Jokes empty for standard roasts).
//   - Upgrade: whether the upgraded template was used.
//   - CreatedAt: insertion time (UTC).
type RoastRecord struct {
	ID        string    `json:"id"         bson:"_id"        gorm:"type:char(36);primaryKey"`
	URL       string    `json:"url"        bson:"url"        gorm:"type:text;not null"`
	Roast     string    `json:"roast"      bson:"roast"      gorm:"type:text;not null"`
	Advice    []string  `json:"advice"     bson:"advice"     gorm:"serializer:json"`
	Jokes     []string  `json:"jokes"      bson:"jokes"      gorm:"serializer:json"`
	Upgrade   bool      `json:"upgrade"    bson:"upgrade"    gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"  gorm:"not null;index"`
}

// TableName returns the database table name for RoastRecord.
func (RoastRecord) TableName() string { return CollectionRoasts }

// PaymentRecord mirrors an order created at the payment gateway. Status
// transitions are not modeled; "created" is the only written state.
//
// IdempotencyKey is optional; when set it lets a retried POST /payment replay
// the original order instead of creating a second one. Non-empty keys are
// unique per backend, so at most one record ever holds a given key.
type PaymentRecord struct {
	ID             string    `json:"id"                        bson:"_id"                       gorm:"type:char(36);primaryKey"`
	OrderID        string    `json:"order_id"                  bson:"razorpay_order_id"         gorm:"type:varchar(64);not null;index"`
	Amount         int64     `json:"amount"                    bson:"amount"                    gorm:"not null"`
	Currency       string    `json:"currency"                  bson:"currency"                  gorm:"type:varchar(8);not null"`
	Receipt        string    `json:"receipt,omitempty"         bson:"receipt,omitempty"         gorm:"type:varchar(64)"`
	Status         string    `json:"status"                    bson:"status"                    gorm:"type:varchar(16);not null;index"`
	IdempotencyKey string    `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty" gorm:"type:varchar(200);uniqueIndex:uniq_payments_idempotency_key,where:idempotency_key <> ''"`
	CreatedAt      time.Time `json:"created_at"                bson:"createdAt"                 gorm:"not null"`
}

// TableName returns the database table name for PaymentRecord.
func (PaymentRecord) TableName() string { return CollectionPayments }

// EventRecord is a write-once analytics event. The client IP is never stored
// in clear; only its SHA-256 hex digest.
type EventRecord struct {
	ID        string    `json:"id"         bson:"_id"        gorm:"type:char(36);primaryKey"`
	EventType string    `json:"event_type" bson:"event_type" gorm:"type:varchar(64);not null;index"`
	URL       string    `json:"url"        bson:"url"        gorm:"type:text"`
	UserAgent string    `json:"user_agent" bson:"user_agent" gorm:"type:text"`
	IPHash    string    `json:"ip_hash"    bson:"ip_hash"    gorm:"type:char(64)"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"  gorm:"not null"`
}

// TableName returns the database table name for EventRecord.
func (EventRecord) TableName() string { return CollectionEvents }

// Stats are the aggregate counts served by the dashboard.
type Stats struct {
	Roasts   int64 `json:"roasts"`
	Payments int64 `json:"payments"`
	Shares   int64 `json:"shares"`
}
