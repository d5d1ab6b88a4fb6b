// Package crontask implements the CronTask component from spec §4.6: cron
// spec parsing, the build-time topology (reachability/acyclicity) check,
// and the unique broker task name a Spring's periodic task schedules
// under. It is grounded on original_source/src/core/cron.py's CronTask,
// redesigned per spec §9's Open Question resolution to use the standard
// cron field order (minute, hour, day_of_month, month_of_year,
// day_of_week) rather than the source's other, non-standard ordering.
package crontask

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// fieldParser accepts the standard five whitespace-separated cron fields,
// in order: minute, hour, day-of-month, month, day-of-week.
var fieldParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a whitespace-separated cron string into a
// cron.Schedule. Missing trailing positions default to "every" ("*"), per
// spec §4.6.
func ParseSchedule(spec string) (cron.Schedule, error) {
	fields := strings.Fields(spec)
	if len(fields) > 5 {
		return nil, fmt.Errorf("cron spec %q: too many fields, expected at most 5", spec)
	}
	padded := [5]string{"*", "*", "*", "*", "*"}
	copy(padded[:], fields)
	schedule, err := fieldParser.Parse(strings.Join(padded[:], " "))
	if err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	return schedule, nil
}
