package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAdvance_FirstActivity(t *testing.T) {
	s := &Streak{StreakType: TypeOverall}

	outcome := Advance(s, day("2025-03-10"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeStarted, outcome)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 0, s.GraceUsed)
	require.NotNil(t, s.LastActivityDate)
	assert.Equal(t, day("2025-03-10"), *s.LastActivityDate)
}

func TestAdvance_SameDayIsNoOp(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 5, LongestStreak: 8, LastActivityDate: &last}

	outcome := Advance(s, day("2025-03-10"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeNoChange, outcome)
	assert.Equal(t, 5, s.CurrentStreak)
	assert.Equal(t, 8, s.LongestStreak)
}

func TestAdvance_SameDayDifferentClockTime(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 5, LongestStreak: 8, LastActivityDate: &last}

	// An evening session on the same calendar date must not extend the streak.
	evening := time.Date(2025, 3, 10, 22, 45, 0, 0, time.UTC)
	outcome := Advance(s, evening, Policy{GraceDays: 1})

	assert.Equal(t, OutcomeNoChange, outcome)
	assert.Equal(t, 5, s.CurrentStreak)
}

func TestAdvance_ConsecutiveDayExtends(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 5, LongestStreak: 5, LastActivityDate: &last}

	outcome := Advance(s, day("2025-03-11"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 6, s.CurrentStreak)
	assert.Equal(t, 6, s.LongestStreak)
	assert.Equal(t, 0, s.GraceUsed)
}

func TestAdvance_OneMissedDayConsumesGrace(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 5, LongestStreak: 5, LastActivityDate: &last}

	outcome := Advance(s, day("2025-03-12"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeExtendedWithGrace, outcome)
	assert.Equal(t, 6, s.CurrentStreak)
	assert.Equal(t, 1, s.GraceUsed)
}

func TestAdvance_GraceAlreadySpentResets(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 6, LongestStreak: 6, GraceUsed: 1, LastActivityDate: &last}

	outcome := Advance(s, day("2025-03-12"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeReset, outcome)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 0, s.GraceUsed)
	assert.Equal(t, 6, s.LongestStreak)
}

func TestAdvance_GapBeyondGraceResets(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 12, LongestStreak: 12, LastActivityDate: &last}

	outcome := Advance(s, day("2025-03-14"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeReset, outcome)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 12, s.LongestStreak)
}

func TestAdvance_LargerGraceAllowanceCoversMultiDayGap(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 3, LongestStreak: 3, LastActivityDate: &last}

	// Two missed days, allowance of three.
	outcome := Advance(s, day("2025-03-13"), Policy{GraceDays: 3})

	assert.Equal(t, OutcomeExtendedWithGrace, outcome)
	assert.Equal(t, 4, s.CurrentStreak)
	assert.Equal(t, 2, s.GraceUsed)
}

func TestAdvance_GraceResetsAfterStreakReset(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 6, LongestStreak: 6, GraceUsed: 1, LastActivityDate: &last}

	require.Equal(t, OutcomeReset, Advance(s, day("2025-03-20"), Policy{GraceDays: 1}))
	assert.Equal(t, 0, s.GraceUsed)

	// Fresh run gets a fresh allowance.
	require.Equal(t, OutcomeExtended, Advance(s, day("2025-03-21"), Policy{GraceDays: 1}))
	outcome := Advance(s, day("2025-03-23"), Policy{GraceDays: 1})
	assert.Equal(t, OutcomeExtendedWithGrace, outcome)
	assert.Equal(t, 3, s.CurrentStreak)
}

func TestAdvance_BackDatedEventResets(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 4, LongestStreak: 4, LastActivityDate: &last}

	outcome := Advance(s, day("2025-03-08"), Policy{GraceDays: 1})

	assert.Equal(t, OutcomeReset, outcome)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, day("2025-03-08"), *s.LastActivityDate)
}

func TestAdvance_LongestStreakNeverDecreases(t *testing.T) {
	last := day("2025-03-10")
	s := &Streak{CurrentStreak: 30, LongestStreak: 30, LastActivityDate: &last}

	Advance(s, day("2025-04-01"), Policy{GraceDays: 1})
	assert.Equal(t, 30, s.LongestStreak)

	Advance(s, day("2025-04-02"), Policy{GraceDays: 1})
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 30, s.LongestStreak)
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 7, 4, 18, 30, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), DateOnly(in))
}
