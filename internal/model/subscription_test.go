package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openpaas/tenantd/internal/model"
)

func TestParsePlan(t *testing.T) {
	assert.Equal(t, model.PlanPremium, model.ParsePlan("premium"))
	assert.Equal(t, model.PlanEnterprise, model.ParsePlan("enterprise"))
	assert.Equal(t, model.PlanBasic, model.ParsePlan("not-a-plan"))
	assert.Equal(t, model.PlanBasic, model.ParsePlan(""))
}

func TestDefaultFeatures(t *testing.T) {
	tests := map[string]struct {
		plan     model.SubscriptionPlan
		enabled  []string
		disabled []string
	}{
		"free": {
			plan:     model.PlanFree,
			enabled:  []string{"ai_chat", "file_upload"},
			disabled: []string{"rag", "discussion", "quiz", "api_integration"},
		},
		"basic": {
			plan:     model.PlanBasic,
			enabled:  []string{"ai_chat", "file_upload"},
			disabled: []string{"rag", "discussion", "quiz", "api_integration"},
		},
		"standard": {
			plan:     model.PlanStandard,
			enabled:  []string{"ai_chat", "file_upload", "rag", "discussion"},
			disabled: []string{"quiz", "api_integration"},
		},
		"premium": {
			plan:    model.PlanPremium,
			enabled: []string{"ai_chat", "file_upload", "rag", "discussion", "quiz", "api_integration"},
		},
		"enterprise": {
			plan: model.PlanEnterprise,
			enabled: []string{
				"ai_chat", "file_upload", "rag", "discussion", "quiz",
				"api_integration", "custom_branding", "priority_support", "dedicated_resources",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			features := model.DefaultFeatures(test.plan)

			for _, f := range test.enabled {
				assert.True(t, features.Enabled(f), f)
			}

			for _, f := range test.disabled {
				assert.False(t, features.Enabled(f), f)
			}
		})
	}
}

func TestSubscriptionIsExpired(t *testing.T) {
	now := time.Now().UTC()
	sub := &model.Subscription{
		StartDate: now.AddDate(0, 0, -10),
		EndDate:   now.AddDate(0, 0, 10),
	}

	assert.False(t, sub.IsExpired(now))
	assert.True(t, sub.IsExpired(now.AddDate(0, 0, 11)))
}
