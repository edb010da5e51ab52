package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus string

const (
	UserPending   UserStatus = "pending"
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserRejected  UserStatus = "rejected"
)

// User is a wholesale buyer account. ZohoContactID is backfilled by the
// customer-creation job once the contact exists remotely. A rejected user is
// never reactivated by webhook traffic, only by explicit admin action.
type User struct {
	ID            string     `json:"id" gorm:"type:uuid;primary_key"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	Name          string     `json:"name" gorm:"not null"`
	CompanyName   string     `json:"company_name"`
	Status        UserStatus `json:"status" gorm:"index;default:pending"`
	ZohoContactID *string    `json:"zoho_contact_id" gorm:"uniqueIndex"`
	PriceListID   *string    `json:"price_list_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
