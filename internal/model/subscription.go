package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Plan type constants for Subscription.PlanType
var (
	PlanFree     = "free"
	PlanMonthly  = "monthly"
	PlanYearly   = "yearly"
	PlanLifetime = "lifetime"
)

// Subscription status constants
var (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is gorm model for a user's premium subscription.
// One logical row per user, upserted on user_id conflict.
type Subscription struct {
	ID     uint      `gorm:"primaryKey;autoIncrement;->" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	IsPremium bool   `gorm:"not null;default:false" json:"is_premium"`
	PlanType  string `gorm:"type:text;not null;default:'free'" json:"plan_type"`

	CurrentPeriodStart *time.Time `gorm:"type:timestamp" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp" json:"current_period_end"`

	RazorpayCustomerID string `gorm:"type:text" json:"razorpay_customer_id"`
	RazorpayPaymentID  string `gorm:"type:text" json:"razorpay_payment_id"`

	Status string `gorm:"type:text;not null;default:'active'" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;autoUpdateTime" json:"updated_at"`
}

// ActiveAt reports whether the subscription grants premium access at the given time.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if !s.IsPremium || s.Status != SubscriptionStatusActive {
		return false
	}
	if s.CurrentPeriodEnd == nil {
		return false
	}
	return s.CurrentPeriodEnd.After(now)
}

// PeriodEnd computes the subscription period end for a plan starting at from.
// Lifetime uses a +100 year sentinel instead of a null "forever" value.
func PeriodEnd(planType string, from time.Time) (time.Time, error) {
	switch planType {
	case PlanMonthly:
		return from.AddDate(0, 1, 0), nil
	case PlanYearly:
		return from.AddDate(1, 0, 0), nil
	case PlanLifetime:
		return from.AddDate(100, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown plan type: %s", planType)
	}
}

// Payment status constants
var (
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
)

// Payment is an append-only audit row for a gateway payment.
type Payment struct {
	ID     uint      `gorm:"primaryKey;autoIncrement;->" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;references:ID" json:"-"`

	// Weak reference: the subscription may be rewritten after this row is recorded
	SubscriptionID *uint `json:"subscription_id"`

	RazorpayPaymentID string `gorm:"type:text;not null" json:"razorpay_payment_id"`
	RazorpayOrderID   string `gorm:"type:text;not null" json:"razorpay_order_id"`

	// Amount in the smallest currency unit (paise for INR)
	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:text;not null;default:'INR'" json:"currency"`
	Status   string `gorm:"type:text;not null" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
}
