package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccessType string

const (
	AccessMembersOnly AccessType = "members"
	AccessAllWelcome  AccessType = "all"
)

type Event struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Fee        decimal.Decimal  `json:"fee"`
	MemberFee  *decimal.Decimal `json:"member_fee,omitempty"`
	Capacity   *int             `json:"capacity,omitempty"` // nil = unlimited
	AccessType AccessType       `json:"access_type"`
	Currency   string           `json:"currency"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    time.Time        `json:"end_time"`
}

// FeeBearing reports whether either fee tier carries a non-zero price.
// The member fee only counts when the event is open to non-members.
func (e *Event) FeeBearing() bool {
	if e.Fee.IsPositive() {
		return true
	}
	if e.AccessType != AccessMembersOnly && e.MemberFee != nil && e.MemberFee.IsPositive() {
		return true
	}
	return false
}

// IsFree is the inverse of FeeBearing.
func (e *Event) IsFree() bool {
	return !e.FeeBearing()
}

// PriceFor returns the applicable fee for a member or non-member registrant.
func (e *Event) PriceFor(isMember bool) decimal.Decimal {
	if isMember && e.AccessType != AccessMembersOnly && e.MemberFee != nil {
		return *e.MemberFee
	}
	return e.Fee
}
