package webhooks

import (
	"fmt"

	"wholesale/internal/models"

	"gorm.io/gorm"
)

// HandleCustomer applies a customer change notification. A contact that
// never registered locally is a clean no-op. Deactivation suspends the local
// user; a remote reactivation only lifts a suspension, it never reverses a
// local rejection, which takes explicit admin action.
func (s *Service) HandleCustomer(body []byte) Result {
	payload, err := parseCustomerPayload(body)
	if err != nil {
		return failure("invalid_payload", err.Error())
	}
	contactID := payload.Contact.ContactID

	var user models.User
	err = s.db.First(&user, "zoho_contact_id = ?", contactID).Error
	if err == gorm.ErrRecordNotFound {
		return success("not_registered", fmt.Sprintf("contact %s has no local account", contactID))
	}
	if err != nil {
		return failure("lookup_failed", err.Error())
	}

	if payload.Action == "delete" || payload.Contact.Status != "active" {
		if user.Status == models.UserRejected {
			return success("ignored", "rejected accounts are not changed by webhooks")
		}
		if user.Status == models.UserSuspended {
			return success("already_suspended", fmt.Sprintf("user %s already suspended", user.ID))
		}
		if err := s.db.Model(&user).Update("status", models.UserSuspended).Error; err != nil {
			return failure("suspend_failed", err.Error())
		}
		return success("suspended", fmt.Sprintf("user %s suspended", user.ID))
	}

	if user.Status == models.UserSuspended {
		if err := s.db.Model(&user).Update("status", models.UserActive).Error; err != nil {
			return failure("reactivate_failed", err.Error())
		}
		return success("reactivated", fmt.Sprintf("user %s reactivated", user.ID))
	}
	return success("ignored", fmt.Sprintf("user %s is %s, nothing to do", user.ID, user.Status))
}
