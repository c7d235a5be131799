package streak

import (
	"time"

	"github.com/google/uuid"
)

type StreakType string

const (
	TypeOverall    StreakType = "overall"
	TypeMeditation StreakType = "meditation"
	TypeBreathing  StreakType = "breathing"
)

func ValidType(t StreakType) bool {
	switch t {
	case TypeOverall, TypeMeditation, TypeBreathing:
		return true
	}
	return false
}

type Streak struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	StreakType       StreakType `json:"streak_type" db:"streak_type"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
	GraceUsed        int        `json:"grace_used" db:"grace_used"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Policy is the grace allowance for one streak run. GraceDays is the total
// number of skippable days before a streak hard-breaks; consumed days
// accumulate in Streak.GraceUsed and only reset when the streak resets.
type Policy struct {
	GraceDays int
}

type Outcome int

const (
	// OutcomeNoChange means the activity date was already counted.
	OutcomeNoChange Outcome = iota
	// OutcomeStarted means this is the first counted activity for the streak.
	OutcomeStarted
	// OutcomeExtended means the streak grew by one day.
	OutcomeExtended
	// OutcomeExtendedWithGrace means the streak grew after consuming grace days.
	OutcomeExtendedWithGrace
	// OutcomeReset means the gap exceeded the grace allowance (or the event
	// was back-dated) and the streak restarted at 1.
	OutcomeReset
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoChange:
		return "no_change"
	case OutcomeStarted:
		return "started"
	case OutcomeExtended:
		return "extended"
	case OutcomeExtendedWithGrace:
		return "extended_with_grace"
	case OutcomeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// DateOnly strips the time component, normalizing to UTC midnight. All streak
// arithmetic happens on calendar dates, never timestamps.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// Advance applies one qualifying activity date to the streak and reports what
// happened. It mutates s in place; the caller persists the result in the same
// transaction that locked the row.
func Advance(s *Streak, activityDate time.Time, p Policy) Outcome {
	day := DateOnly(activityDate)

	if s.LastActivityDate == nil {
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		s.GraceUsed = 0
		s.LastActivityDate = &day
		return OutcomeStarted
	}

	gap := daysBetween(*s.LastActivityDate, day)

	switch {
	case gap == 0:
		return OutcomeNoChange

	case gap == 1:
		s.CurrentStreak++
		s.LastActivityDate = &day
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		return OutcomeExtended

	case gap > 1 && gap-1 <= p.GraceDays-s.GraceUsed:
		s.GraceUsed += gap - 1
		s.CurrentStreak++
		s.LastActivityDate = &day
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		return OutcomeExtendedWithGrace

	default:
		// Back-dated events (gap < 0) land here too: treated as a break.
		s.CurrentStreak = 1
		s.GraceUsed = 0
		s.LastActivityDate = &day
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		return OutcomeReset
	}
}
