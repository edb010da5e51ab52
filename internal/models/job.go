package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobType string

const (
	JobCreateZohoCustomer JobType = "create_zoho_customer"
	JobPushOrderToZoho    JobType = "push_order_to_zoho"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is one durable unit of outbound work. Attempts is incremented before
// the handler runs, so a crash mid-job leaves a processing row with a
// nonzero attempt count. Once Attempts reaches MaxAttempts a failed job is
// terminal and needs manual retry.
type Job struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	Type        JobType   `json:"type" gorm:"not null"`
	UserID      *string   `json:"user_id"`
	OrderID     *string   `json:"order_id"`
	Payload     string    `json:"payload"`
	Status      JobStatus `json:"status" gorm:"index;default:pending"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts" gorm:"default:3"`
	LastError   *string   `json:"last_error"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	return nil
}
