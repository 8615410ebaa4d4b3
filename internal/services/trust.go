package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

// Trust bands.
const (
	BandHigh   = "HIGH"
	BandMedium = "MEDIUM"
	BandLow    = "LOW"
)

const (
	trustWindowDays    = 30
	burstWindowDays    = 7
	burstFreeSignals   = 2
	burstPenaltyWeight = 4
)

// severityWeights is the per-signal deduction. Reviewed signals (an admin
// looked and kept them on record) weigh a third, floored at 1.
var severityWeights = map[string]int{
	types.SeverityHigh:   15,
	types.SeverityMedium: 8,
	types.SeverityLow:    3,
}

// TrustSummary is the user-facing view of the rolling signal window.
type TrustSummary struct {
	Score              int            `json:"score"`
	Band               string         `json:"band"`
	SignalsLast30Days  int            `json:"signals_last_30_days"`
	SignalsBySeverity  map[string]int `json:"signals_by_severity"`
	BurstPenalty       int            `json:"burst_penalty"`
	SeverityDeductions int            `json:"severity_deductions"`
}

type TrustService interface {
	// GetSummary recomputes the score from the trailing 30-day window.
	// Absence of signals is a perfect score, never an error.
	GetSummary(dbc DBContext, userID uuid.UUID, now time.Time) (*TrustSummary, error)
	// RecordSignal appends one signal to the window. Details are stored as
	// JSON for later review; marshalling failures drop the details, not
	// the signal.
	RecordSignal(dbc DBContext, userID uuid.UUID, signalType, severity string, details map[string]interface{}, now time.Time) error
}

type trustService struct {
	db             *gorm.DB
	log            *logger.Logger
	suspiciousRepo repos.SuspiciousActivityRepo
}

func NewTrustService(db *gorm.DB, baseLog *logger.Logger, suspiciousRepo repos.SuspiciousActivityRepo) TrustService {
	serviceLog := baseLog.With("service", "TrustService")
	return &trustService{db: db, log: serviceLog, suspiciousRepo: suspiciousRepo}
}

// TrustBand maps a 0-100 score to its band.
func TrustBand(score int) string {
	switch {
	case score >= 85:
		return BandHigh
	case score >= 65:
		return BandMedium
	default:
		return BandLow
	}
}

func (s *trustService) GetSummary(dbc DBContext, userID uuid.UUID, now time.Time) (*TrustSummary, error) {
	windowStart := now.AddDate(0, 0, -trustWindowDays)
	signals, err := s.suspiciousRepo.GetForUserSince(dbc.Ctx, dbc.Tx, userID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("load signal window: %w", err)
	}

	bySeverity := map[string]int{}
	deductions := 0
	burstWindowStart := now.AddDate(0, 0, -burstWindowDays)
	recentCount := 0

	for _, signal := range signals {
		weight, ok := severityWeights[signal.Severity]
		if !ok {
			weight = severityWeights[types.SeverityMedium]
		}
		if signal.Reviewed {
			weight = weight / 3
			if weight < 1 {
				weight = 1
			}
		}
		deductions += weight
		bySeverity[signal.Severity]++
		if !signal.FlaggedAt.Before(burstWindowStart) {
			recentCount++
		}
	}

	// Many signals packed into one week cost extra beyond their weights.
	burstPenalty := 0
	if recentCount > burstFreeSignals {
		burstPenalty = (recentCount - burstFreeSignals) * burstPenaltyWeight
	}

	score := 100 - deductions - burstPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &TrustSummary{
		Score:              score,
		Band:               TrustBand(score),
		SignalsLast30Days:  len(signals),
		SignalsBySeverity:  bySeverity,
		BurstPenalty:       burstPenalty,
		SeverityDeductions: deductions,
	}, nil
}

func (s *trustService) RecordSignal(dbc DBContext, userID uuid.UUID, signalType, severity string, details map[string]interface{}, now time.Time) error {
	var payload datatypes.JSON
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			s.log.Warn("failed to marshal signal details", "signal_type", signalType, "error", err)
		} else {
			payload = datatypes.JSON(raw)
		}
	}

	signal := &types.SuspiciousActivity{
		ID:           uuid.New(),
		UserID:       userID,
		ActivityType: signalType,
		Severity:     severity,
		Details:      payload,
		FlaggedAt:    now,
	}
	if _, err := s.suspiciousRepo.Create(dbc.Ctx, dbc.Tx, []*types.SuspiciousActivity{signal}); err != nil {
		return fmt.Errorf("record signal: %w", err)
	}
	s.log.Info("suspicious signal recorded", "user_id", userID.String(), "signal_type", signalType, "severity", severity)
	return nil
}
