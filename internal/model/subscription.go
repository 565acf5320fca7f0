package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan is the entitlement tier of a subscription.
type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanBasic      SubscriptionPlan = "basic"
	PlanStandard   SubscriptionPlan = "standard"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

var validPlans = map[SubscriptionPlan]struct{}{
	PlanFree:       {},
	PlanBasic:      {},
	PlanStandard:   {},
	PlanPremium:    {},
	PlanEnterprise: {},
}

func (p SubscriptionPlan) String() string {
	return string(p)
}

func (p SubscriptionPlan) IsValid() bool {
	_, ok := validPlans[p]
	return ok
}

// ParsePlan maps a plan string to a known tier, falling back to basic
// for unknown values.
func ParsePlan(plan string) SubscriptionPlan {
	p := SubscriptionPlan(plan)
	if !p.IsValid() {
		return PlanBasic
	}

	return p
}

// Subscription is a tenant's entitlement record.
type Subscription struct {
	AutoTimeModel

	ID       uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID string           `gorm:"type:varchar(50);not null;index"`
	Plan     SubscriptionPlan `gorm:"type:varchar(50);not null;default:'free'"`
	IsActive bool             `gorm:"default:true;index"`

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`

	MaxUsers          int `gorm:"default:50"`
	MaxStorageMB      int `gorm:"default:1000"`
	MaxAPICallsPerDay int `gorm:"default:1000"`

	Features FeatureSet `gorm:"type:jsonb"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsExpired reports whether the subscription's validity window has passed.
// Expiration is derived, never stored.
func (s *Subscription) IsExpired(now time.Time) bool {
	return now.After(s.EndDate)
}

// DefaultFeatures returns the feature flags a plan grants by default.
func DefaultFeatures(plan SubscriptionPlan) FeatureSet {
	features := FeatureSet{
		"ai_chat":     true,
		"file_upload": true,
		"rag":         false,
		"discussion":  false,
		"quiz":        false,

		"api_integration": false,
	}

	switch plan {
	case PlanFree, PlanBasic:
	case PlanStandard:
		features["rag"] = true
		features["discussion"] = true
	case PlanPremium:
		features["rag"] = true
		features["discussion"] = true
		features["quiz"] = true
		features["api_integration"] = true
	case PlanEnterprise:
		features["rag"] = true
		features["discussion"] = true
		features["quiz"] = true
		features["api_integration"] = true
		features["custom_branding"] = true
		features["priority_support"] = true
		features["dedicated_resources"] = true
	}

	return features
}
