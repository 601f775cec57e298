package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type RuleServiceImpl struct {
	rules attendance.RuleRepository
	clock clock.Clock
}

func NewRuleService(rules attendance.RuleRepository, clk clock.Clock) attendance.RuleService {
	return &RuleServiceImpl{rules: rules, clock: clk}
}

// GetRule implements attendance.RuleService.
func (s *RuleServiceImpl) GetRule(ctx context.Context, companyID string) (attendance.Rule, error) {
	rule, err := s.rules.GetByCompanyID(ctx, companyID)
	if err != nil {
		if errors.Is(err, attendance.ErrRuleNotFound) {
			return fixtures.DefaultAttendanceRule(companyID), nil
		}
		return attendance.Rule{}, fmt.Errorf("failed to get attendance rule: %w", err)
	}
	return rule, nil
}

// UpsertRule implements attendance.RuleService.
func (s *RuleServiceImpl) UpsertRule(ctx context.Context, actor identity.Actor, req attendance.UpsertRuleRequest) (attendance.Rule, error) {
	if err := req.Validate(); err != nil {
		return attendance.Rule{}, err
	}

	rule, err := req.ToRule(actor.CompanyID, actor.UserID, s.clock.Now())
	if err != nil {
		return attendance.Rule{}, fmt.Errorf("failed to build attendance rule: %w", err)
	}

	saved, err := s.rules.Upsert(ctx, rule)
	if err != nil {
		return attendance.Rule{}, fmt.Errorf("failed to save attendance rule: %w", err)
	}

	slog.InfoContext(ctx, "attendance rule updated",
		"company_id", saved.CompanyID,
		"scheduled_start", saved.ScheduledStart.String(),
		"scheduled_end", saved.ScheduledEnd.String(),
		"flexible", saved.IsFlexible,
		"actor_id", actor.UserID,
	)
	return saved, nil
}
