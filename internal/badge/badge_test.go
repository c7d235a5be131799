package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeets(t *testing.T) {
	stats := Stats{
		TotalSessions:     25,
		TotalMinutes:      300,
		LongestStreak:     10,
		BreathingSessions: 4,
		CoursesCompleted:  1,
	}

	tests := []struct {
		name  string
		badge Badge
		want  bool
	}{
		{"sessions met", Badge{RequirementType: RequirementTotalSessions, RequirementValue: 25}, true},
		{"sessions not met", Badge{RequirementType: RequirementTotalSessions, RequirementValue: 26}, false},
		{"minutes met", Badge{RequirementType: RequirementTotalMinutes, RequirementValue: 100}, true},
		{"streak uses longest", Badge{RequirementType: RequirementStreakDays, RequirementValue: 10}, true},
		{"breathing not met", Badge{RequirementType: RequirementBreathingSessions, RequirementValue: 5}, false},
		{"courses met", Badge{RequirementType: RequirementCoursesCompleted, RequirementValue: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Meets(tt.badge, stats))
		})
	}
}

func TestMeets_UnknownRequirementTypeIsInert(t *testing.T) {
	b := Badge{RequirementType: "moon_phases_observed", RequirementValue: 0}
	assert.False(t, Meets(b, Stats{TotalSessions: 1000}))
}
