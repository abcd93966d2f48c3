package models

import (
	"time"
)

type PaymentMethod string

const (
	MethodCard                PaymentMethod = "card"
	MethodCash                PaymentMethod = "cash"
	MethodTransferInstant     PaymentMethod = "transfer_instant"
	MethodTransferTraditional PaymentMethod = "transfer_traditional"
)

// IsTransfer reports whether the method is one of the bank transfer variants.
func (m PaymentMethod) IsTransfer() bool {
	return m == MethodTransferInstant || m == MethodTransferTraditional
}

// Valid reports whether the method is one of the four accepted values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodCash, MethodTransferInstant, MethodTransferTraditional:
		return true
	}
	return false
}

type PaymentStatus string

const (
	// StatusAbsent means the field was never written (cash path, card path,
	// legacy records). It is the zero value on purpose.
	StatusAbsent    PaymentStatus = ""
	StatusPending   PaymentStatus = "pending"
	StatusConfirmed PaymentStatus = "confirmed"
	StatusCancelled PaymentStatus = "cancelled"
	StatusExpired   PaymentStatus = "expired"
)

// Bucket is the derived, display-facing lifecycle classification.
type Bucket string

const (
	BucketConfirmed Bucket = "confirmed"
	BucketPending   Bucket = "pending"
	BucketCancelled Bucket = "cancelled"
)

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type Registration struct {
	ID            string        `json:"id"`
	EventID       string        `json:"event_id"`
	Contact       Contact       `json:"contact"`
	Note          string        `json:"note,omitempty"`
	TicketCount   int           `json:"ticket_count"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	PaymentProof  string        `json:"payment_proof,omitempty"` // opaque store reference
	Actor         string        `json:"actor,omitempty"`         // staff id of last mutation
	CreatedAt     time.Time     `json:"created_at"`
}

// ComputeBucket classifies a registration into exactly one bucket. Stored
// status wins; only when no status was ever written does the event's pricing
// decide. A fee-bearing event with no recorded status cannot be assumed
// settled, so it lands in pending. Free events, cash-at-door and legacy
// records land in confirmed.
func (r *Registration) ComputeBucket(event *Event) Bucket {
	switch r.PaymentStatus {
	case StatusConfirmed:
		return BucketConfirmed
	case StatusCancelled, StatusExpired:
		return BucketCancelled
	case StatusPending:
		return BucketPending
	}

	if event != nil && event.FeeBearing() {
		return BucketPending
	}
	return BucketConfirmed
}

// HasPendingEvidence reports whether staff should be prompted to review this
// registration. Independent of the bucket: a registration can sit in the
// pending bucket without any uploaded evidence (cash on a paid event), and
// that one must not enter the review queue.
func (r *Registration) HasPendingEvidence() bool {
	if r.PaymentProof == "" {
		return false
	}
	return r.PaymentStatus == StatusAbsent || r.PaymentStatus == StatusPending
}

// Decided reports whether the registration already carries a terminal status.
func (r *Registration) Decided() bool {
	switch r.PaymentStatus {
	case StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
