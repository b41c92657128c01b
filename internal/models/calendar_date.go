package models

import "time"

const CalendarDateLayout = "2006-01-02"

// CalendarDate is a day in ISO form. Lexical order matches chronological order.
type CalendarDate string

func DateOf(value time.Time, location *time.Location) CalendarDate {
	if location == nil {
		location = time.Local
	}
	return CalendarDate(value.In(location).Format(CalendarDateLayout))
}

func (date CalendarDate) Time(location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.Local
	}
	return time.ParseInLocation(CalendarDateLayout, string(date), location)
}

func (date CalendarDate) String() string {
	return string(date)
}

func SameDate(value *CalendarDate, date CalendarDate) bool {
	return value != nil && *value == date
}
