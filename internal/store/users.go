package store

import (
	"errors"
	"strings"

	"wholesale/internal/jobs"
	"wholesale/internal/models"
)

// RegisterUser creates a pending buyer account and queues creation of the
// matching Zoho contact. Signup commits locally whether or not Zoho is
// reachable; the contact id is backfilled when the job completes.
func (s *Store) RegisterUser(email, name, company string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || name == "" {
		return nil, errors.New("email and name are required")
	}

	user := models.User{
		Email:       email,
		Name:        name,
		CompanyName: company,
		Status:      models.UserPending,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	if err := jobs.EnqueueCreateCustomer(s.db, &user, s.jobMaxAttempts); err != nil {
		s.logger.Error("failed to queue zoho contact creation for user %s: %v", user.ID, err)
	}
	return &user, nil
}

func (s *Store) GetUser(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserStatus is the admin path for account decisions, including the only
// way a rejected account ever comes back.
func (s *Store) SetUserStatus(id string, status models.UserStatus) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("status", status).Error; err != nil {
		return nil, err
	}
	user.Status = status
	return user, nil
}
