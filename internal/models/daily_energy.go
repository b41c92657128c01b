package models

import "time"

type DailyEnergy struct {
	Date      CalendarDate `json:"date"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
}
