package app

import (
	"time"

	"courseassist/internal/wellbeing"
)

const defaultRecentDays = 7

type Dashboard struct {
	TotalFlags     int                    `json:"total_flags"`
	RecentFlags    []wellbeing.Analysis   `json:"recent_flags"`
	StudentSummary map[string]interface{} `json:"student_summary"`
}

type DashboardService struct {
	flags      *wellbeing.FlagStore
	recentDays int
}

func NewDashboardService(flags *wellbeing.FlagStore, recentDays int) *DashboardService {
	if recentDays <= 0 {
		recentDays = defaultRecentDays
	}
	return &DashboardService{flags: flags, recentDays: recentDays}
}

// Snapshot reports all flags counted and those newer than the recent window listed.
// StudentSummary is always empty.
func (s *DashboardService) Snapshot(now time.Time) Dashboard {
	cutoff := now.Add(-time.Duration(s.recentDays) * 24 * time.Hour)
	return Dashboard{
		TotalFlags:     s.flags.Len(),
		RecentFlags:    s.flags.Since(cutoff),
		StudentSummary: map[string]interface{}{},
	}
}
