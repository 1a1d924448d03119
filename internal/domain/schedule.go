package domain

import "time"

// ScheduleKind selects the calendar rule of a producer.
type ScheduleKind string

const (
	ScheduleWeekly    ScheduleKind = "weekly"
	ScheduleMonthly   ScheduleKind = "monthly"
	ScheduleQuarterly ScheduleKind = "quarterly"
)

// Cooldowns armed after a positive monthly or quarterly decision.
const (
	MonthlyCooldown   = 1440 * time.Minute
	QuarterlyCooldown = 43200 * time.Minute
)

// WeeklyWindow is the run window of one weekday: [StartHour, EndHour)
// ticking every IntervalMinutes from StartHour.
type WeeklyWindow struct {
	StartHour       int
	EndHour         int
	IntervalMinutes int
}

type MonthlySpec struct {
	Day  int
	Hour int
}

type QuarterlySpec struct {
	Months []int
	Day    int
	Hour   int
}

// ProducerSchedule is loaded once at startup and never mutated.
type ProducerSchedule struct {
	Name      string
	Kind      ScheduleKind
	Weekly    map[time.Weekday]WeeklyWindow
	Monthly   *MonthlySpec
	Quarterly *QuarterlySpec
}
