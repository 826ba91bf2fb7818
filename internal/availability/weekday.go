package availability

import "time"

// Weekday names as stored in the employee schedule table. Derived from
// time.Time.Weekday, which is calendar arithmetic on the proleptic Gregorian
// calendar and independent of locale or formatting settings.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayName maps a calendar date to its lowercase weekday name.
func WeekdayName(date time.Time) string {
	return weekdayNames[date.Weekday()]
}

// KnownWeekday reports whether name is one of the seven weekday names.
func KnownWeekday(name string) bool {
	for _, n := range weekdayNames {
		if n == name {
			return true
		}
	}
	return false
}
