package models

import "time"

type EntryType string

const (
	EntryTypeNote        EntryType = "note"
	EntryTypeTarot       EntryType = "tarot"
	EntryTypeDailyEnergy EntryType = "daily_energy"
)

type DiaryEntry struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Type      EntryType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
