package stats

// DashboardSummary is the single read-only aggregation backing the home
// screen of the web and mobile clients.
type DashboardSummary struct {
	TotalSessions       int     `json:"total_sessions"`
	TotalMinutes        int     `json:"total_minutes"`
	CurrentStreak       int     `json:"current_streak"`
	TokenBalance        int     `json:"token_balance"`
	ActiveGoals         int     `json:"active_goals"`
	UnreadNotifications int     `json:"unread_notifications"`
	EnrolledCourses     int     `json:"enrolled_courses"`
	MindfulnessScore    float64 `json:"mindfulness_score"`
}

type PeriodStat struct {
	Sessions int `json:"sessions"`
	Minutes  int `json:"minutes"`
}

type ProgressStats struct {
	Weekly            PeriodStat `json:"weekly"`
	Monthly           PeriodStat `json:"monthly"`
	BreathingSessions int        `json:"breathing_sessions"`
	CoursesCompleted  int        `json:"courses_completed"`
	BadgesEarned      int        `json:"badges_earned"`
	LongestStreak     int        `json:"longest_streak"`
}
