package config

import (
	"fmt"
	"sort"
	"time"

	"crawling_observer/internal/domain"
)

// SchedulesConfig mirrors the schedule file layout:
//
//	weekly:
//	  yahoo_news:
//	    Monday: [9, 17, 60]
//	monthly:
//	  fred_macro: {day: 1, hour: 9}
//	quarterly:
//	  financials: {months: [1, 4, 7, 10], day: 15, hour: 9}
type SchedulesConfig struct {
	Weekly    map[string]map[string][]int `yaml:"weekly"`
	Monthly   map[string]MonthlyEntry     `yaml:"monthly"`
	Quarterly map[string]QuarterlyEntry   `yaml:"quarterly"`
}

type MonthlyEntry struct {
	Day  int `yaml:"day"`
	Hour int `yaml:"hour"`
}

type QuarterlyEntry struct {
	Months []int `yaml:"months"`
	Day    int   `yaml:"day"`
	Hour   int   `yaml:"hour"`
}

var weekdays = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		m[d.String()] = d
	}
	return m
}()

// ProducerSchedules converts the schedule section into immutable domain
// schedules keyed by producer name.
func (c *Config) ProducerSchedules() (map[string]domain.ProducerSchedule, error) {
	out := make(map[string]domain.ProducerSchedule)

	add := func(s domain.ProducerSchedule) error {
		if prev, ok := out[s.Name]; ok {
			return scheduleErr(s.Name, fmt.Errorf("listed as both %s and %s", prev.Kind, s.Kind))
		}
		out[s.Name] = s
		return nil
	}

	for _, name := range sortedKeys(c.Schedules.Weekly) {
		days := c.Schedules.Weekly[name]
		s := domain.ProducerSchedule{
			Name:   name,
			Kind:   domain.ScheduleWeekly,
			Weekly: make(map[time.Weekday]domain.WeeklyWindow, len(days)),
		}
		for day, window := range days {
			wd, ok := weekdays[day]
			if !ok {
				return nil, scheduleErr(name, fmt.Errorf("unknown weekday %q", day))
			}
			w, err := weeklyWindow(window)
			if err != nil {
				return nil, scheduleErr(name, fmt.Errorf("%s: %w", day, err))
			}
			s.Weekly[wd] = w
		}
		if err := add(s); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(c.Schedules.Monthly) {
		e := c.Schedules.Monthly[name]
		if err := checkDayHour(e.Day, e.Hour); err != nil {
			return nil, scheduleErr(name, err)
		}
		s := domain.ProducerSchedule{
			Name:    name,
			Kind:    domain.ScheduleMonthly,
			Monthly: &domain.MonthlySpec{Day: e.Day, Hour: e.Hour},
		}
		if err := add(s); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(c.Schedules.Quarterly) {
		e := c.Schedules.Quarterly[name]
		if err := checkDayHour(e.Day, e.Hour); err != nil {
			return nil, scheduleErr(name, err)
		}
		if len(e.Months) == 0 {
			return nil, scheduleErr(name, fmt.Errorf("months must not be empty"))
		}
		for _, m := range e.Months {
			if m < 1 || m > 12 {
				return nil, scheduleErr(name, fmt.Errorf("month %d out of range", m))
			}
		}
		s := domain.ProducerSchedule{
			Name: name,
			Kind: domain.ScheduleQuarterly,
			Quarterly: &domain.QuarterlySpec{
				Months: append([]int(nil), e.Months...),
				Day:    e.Day,
				Hour:   e.Hour,
			},
		}
		if err := add(s); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func weeklyWindow(v []int) (domain.WeeklyWindow, error) {
	if len(v) != 3 {
		return domain.WeeklyWindow{}, fmt.Errorf("want [start_hour, end_hour, interval_minutes], got %v", v)
	}
	w := domain.WeeklyWindow{StartHour: v[0], EndHour: v[1], IntervalMinutes: v[2]}
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return domain.WeeklyWindow{}, fmt.Errorf("invalid hours [%d, %d)", w.StartHour, w.EndHour)
	}
	if w.IntervalMinutes <= 0 {
		return domain.WeeklyWindow{}, fmt.Errorf("interval must be positive, got %d", w.IntervalMinutes)
	}
	return w, nil
}

func checkDayHour(day, hour int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("day %d out of range", day)
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour %d out of range", hour)
	}
	return nil
}

func scheduleErr(name string, err error) error {
	return domain.E(domain.KindConfiguration, "schedule "+name, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
