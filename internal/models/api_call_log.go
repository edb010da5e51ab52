package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APICallLog records every outbound Zoho call, success or failure. Inserting
// a log row must never fail the call it describes.
type APICallLog struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	Endpoint     string    `json:"endpoint" gorm:"not null"`
	Method       string    `json:"method"`
	StatusCode   int       `json:"status_code"`
	Success      bool      `json:"success"`
	DurationMS   int64     `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

func (a *APICallLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
