package model

import "time"

// Weekdays lists the day bucket keys in display order, Monday first
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// MonthKeys lists the month abbreviations used as monthly stats keys
var MonthKeys = []string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// WeekdayKey returns the day bucket key for t
func WeekdayKey(t time.Time) string {
	return t.Weekday().String()
}

// MonthKey returns the monthly stats key for t
func MonthKey(t time.Time) string {
	return MonthKeys[int(t.Month())-1]
}
