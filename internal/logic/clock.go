package logic

import "time"

// ToLocal converts a UTC hour to the local hour for a fixed signed offset.
// The result is always in [0,23] whatever the sign of the offset.
func ToLocal(utcHour, offsetHours int) int {
	return ((utcHour+offsetHours)%24 + 24) % 24
}

// dayShift returns how many calendar days the offset moves the date.
func dayShift(utcHour, offsetHours int) int {
	h := utcHour + offsetHours
	if h < 0 {
		return (h - 23) / 24
	}
	return h / 24
}

// LocalTimeOf applies the offset to a reading. Minute and second pass through;
// the date rolls backwards or forwards when the hour crosses midnight. A
// reading without a year is treated as a leap year for the date roll.
func LocalTimeOf(r TimeReading, offsetHours int) LocalTime {
	lt := LocalTime{
		Month:  r.Month,
		Day:    r.Day,
		Hour:   ToLocal(r.Hour, offsetHours),
		Minute: r.Minute,
		Second: r.Second,
	}

	if shift := dayShift(r.Hour, offsetHours); shift != 0 && r.Month >= 1 && r.Month <= 12 && r.Day >= 1 {
		d := time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, shift)
		lt.Month = int(d.Month())
		lt.Day = d.Day()
	}
	return lt
}
