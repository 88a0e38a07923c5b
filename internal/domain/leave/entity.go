package leave

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is a named leave balance. The canonical vocabulary is sick,
// annual, casual and unpaid.
type Bucket string

const (
	BucketSick   Bucket = "sick"
	BucketAnnual Bucket = "annual"
	BucketCasual Bucket = "casual"
	BucketUnpaid Bucket = "unpaid"

	// LegacyBucketEarned is the pre-migration name of BucketAnnual.
	LegacyBucketEarned Bucket = "earned"
)

var CanonicalBuckets = []Bucket{BucketSick, BucketAnnual, BucketCasual, BucketUnpaid}

func (b Bucket) IsCanonical() bool {
	for _, c := range CanonicalBuckets {
		if b == c {
			return true
		}
	}
	return false
}

// Balance maps a bucket to its remaining units (days). No bucket is ever negative.
type Balance map[Bucket]decimal.Decimal

func (b Balance) Get(bucket Bucket) decimal.Decimal {
	if v, ok := b[bucket]; ok {
		return v
	}
	return decimal.Zero
}

func (b Balance) Clone() Balance {
	out := make(Balance, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Debit removes units from bucket. It never drives the bucket negative.
func (b Balance) Debit(bucket Bucket, units decimal.Decimal) error {
	if units.IsNegative() {
		return ErrInvalidUnits
	}
	current := b.Get(bucket)
	if current.LessThan(units) {
		return ErrInsufficientBalance
	}
	b[bucket] = current.Sub(units)
	return nil
}

func (b Balance) Credit(bucket Bucket, units decimal.Decimal) error {
	if units.IsNegative() {
		return ErrInvalidUnits
	}
	b[bucket] = b.Get(bucket).Add(units)
	return nil
}

// Migrate folds legacy buckets into the canonical vocabulary and reports
// whether anything changed.
func (b Balance) Migrate() (Balance, bool) {
	out := make(Balance, len(CanonicalBuckets))
	for _, c := range CanonicalBuckets {
		out[c] = b.Get(c)
	}

	changed := false
	for k, v := range b {
		if k.IsCanonical() {
			continue
		}
		changed = true
		if k == LegacyBucketEarned {
			out[BucketAnnual] = out[BucketAnnual].Add(v)
		}
	}
	for _, c := range CanonicalBuckets {
		if _, ok := b[c]; !ok {
			changed = true
		}
	}
	return out, changed
}

// Buckets returns the bucket names in a stable order.
func (b Balance) Buckets() []Bucket {
	keys := make([]Bucket, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Value implements driver.Valuer for JSONB storage
func (b Balance) Value() (driver.Value, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB retrieval
func (b *Balance) Scan(value interface{}) error {
	if value == nil {
		*b = Balance{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	out := Balance{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*b = out
	return nil
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a leave request. Only approved half-day applications are
// read by the deduction engine.
type Application struct {
	ID         string
	EmployeeID string
	Bucket     Bucket
	StartDate  time.Time
	EndDate    time.Time
	IsHalfDay  bool
	Status     ApplicationStatus
	CreatedAt  time.Time
}
