package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_TotalSessionsAccumulates(t *testing.T) {
	g := &Goal{GoalType: TypeTotalSessions, TargetValue: 10, CurrentValue: 8, IsActive: true}

	changed, completed := Apply(g, Activity{Sessions: 1})
	assert.True(t, changed)
	assert.False(t, completed)
	assert.Equal(t, 9, g.CurrentValue)

	changed, completed = Apply(g, Activity{Sessions: 1})
	assert.True(t, changed)
	assert.True(t, completed)
	assert.Equal(t, 10, g.CurrentValue)
}

func TestApply_TotalMinutesAccumulates(t *testing.T) {
	g := &Goal{GoalType: TypeTotalMinutes, TargetValue: 100, CurrentValue: 40, IsActive: true}

	changed, completed := Apply(g, Activity{Sessions: 1, Minutes: 70})
	assert.True(t, changed)
	assert.True(t, completed)
	assert.Equal(t, 110, g.CurrentValue)
}

func TestApply_StreakDaysTakesObservedMaximum(t *testing.T) {
	g := &Goal{GoalType: TypeStreakDays, TargetValue: 7, CurrentValue: 5, IsActive: true}

	// A streak reset reports a lower value; progress must not go backwards.
	changed, completed := Apply(g, Activity{StreakDays: 1})
	assert.False(t, changed)
	assert.False(t, completed)
	assert.Equal(t, 5, g.CurrentValue)

	changed, completed = Apply(g, Activity{StreakDays: 7})
	assert.True(t, changed)
	assert.True(t, completed)
	assert.Equal(t, 7, g.CurrentValue)
}

func TestApply_WeeklySessionsIsMonotonic(t *testing.T) {
	g := &Goal{GoalType: TypeWeeklySessions, TargetValue: 5, CurrentValue: 3, IsActive: true}

	changed, _ := Apply(g, Activity{WeeklySessions: 2})
	assert.False(t, changed)
	assert.Equal(t, 3, g.CurrentValue)

	changed, completed := Apply(g, Activity{WeeklySessions: 5})
	assert.True(t, changed)
	assert.True(t, completed)
}

func TestApply_InactiveGoalIgnored(t *testing.T) {
	g := &Goal{GoalType: TypeTotalSessions, TargetValue: 10, CurrentValue: 9, IsActive: false}

	changed, completed := Apply(g, Activity{Sessions: 5})
	assert.False(t, changed)
	assert.False(t, completed)
	assert.Equal(t, 9, g.CurrentValue)
}

func TestApply_OvershootStillCompletes(t *testing.T) {
	g := &Goal{GoalType: TypeTotalMinutes, TargetValue: 60, CurrentValue: 55, IsActive: true}

	_, completed := Apply(g, Activity{Minutes: 45})
	assert.True(t, completed)
	assert.Equal(t, 100, g.CurrentValue)
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(TypeTotalSessions))
	assert.True(t, ValidType(TypeWeeklySessions))
	assert.False(t, ValidType("daily_pushups"))
}
