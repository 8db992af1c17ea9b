package models

import "time"

// RecordStatus marks the outcome of a translation event.
type RecordStatus string

const (
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
)

// TranslationRecord is the persisted trace of a translation event. It is
// written fire-and-forget after a translation finishes; summary and
// insights are filled in later if generation runs.
type TranslationRecord struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	UserID         string       `json:"userId" gorm:"index"`
	SourceName     string       `json:"sourceName"`
	TranslatedName string       `json:"translatedName"`
	Size           string       `json:"size"`
	SizeBytes      int64        `json:"sizeBytes"`
	TargetLanguage string       `json:"targetLanguage"`
	Status         RecordStatus `json:"status"`
	Summary        string       `json:"summary,omitempty"`
	Insights       string       `json:"insights,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}
