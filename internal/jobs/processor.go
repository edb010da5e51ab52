package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wholesale/internal/logger"
	"wholesale/internal/models"
	"wholesale/internal/services/zoho"

	"gorm.io/gorm"
)

// ZohoAPI is the slice of the Zoho client the job handlers consume.
type ZohoAPI interface {
	CreateContact(ctx context.Context, contact *zoho.Contact) (*zoho.Contact, error)
	CreateSalesOrder(ctx context.Context, so *zoho.SalesOrder) (*zoho.SalesOrder, error)
}

type CreateCustomerPayload struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

type PushOrderPayload struct {
	OrderID string `json:"order_id"`
}

// Processor drains the durable outbox. Jobs decouple user-facing
// transactions from Zoho availability: order approval and signup commit
// locally and the push happens here, retried up to each job's MaxAttempts.
type Processor struct {
	db     *gorm.DB
	api    ZohoAPI
	logger *logger.Logger
}

func NewProcessor(db *gorm.DB, api ZohoAPI, logger *logger.Logger) *Processor {
	return &Processor{db: db, api: api, logger: logger}
}

// EnqueueCreateCustomer queues creation of the Zoho contact for a local user.
func EnqueueCreateCustomer(db *gorm.DB, user *models.User, maxAttempts int) error {
	payload, err := json.Marshal(CreateCustomerPayload{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Company: user.CompanyName,
	})
	if err != nil {
		return err
	}
	userID := user.ID
	return db.Create(&models.Job{
		Type:        models.JobCreateZohoCustomer,
		UserID:      &userID,
		Payload:     string(payload),
		Status:      models.JobPending,
		MaxAttempts: maxAttempts,
	}).Error
}

// EnqueueOrderPush queues the push of an approved order to Zoho.
func EnqueueOrderPush(db *gorm.DB, order *models.Order, maxAttempts int) error {
	payload, err := json.Marshal(PushOrderPayload{OrderID: order.ID})
	if err != nil {
		return err
	}
	orderID := order.ID
	return db.Create(&models.Job{
		Type:        models.JobPushOrderToZoho,
		OrderID:     &orderID,
		Payload:     string(payload),
		Status:      models.JobPending,
		MaxAttempts: maxAttempts,
	}).Error
}

// ProcessQueue drains every pending job once. Attempts is bumped and the job
// marked processing before the handler runs, so a crash mid-job leaves a
// visible processing row with a nonzero attempt count rather than silently
// reverting to pending.
func (p *Processor) ProcessQueue(ctx context.Context) (completed, failed int, err error) {
	var pending []models.Job
	if err := p.db.Where("status = ?", models.JobPending).Order("created_at ASC").Find(&pending).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load pending jobs: %w", err)
	}

	for i := range pending {
		job := &pending[i]

		job.Attempts++
		updates := map[string]interface{}{
			"status":   models.JobProcessing,
			"attempts": job.Attempts,
		}
		if err := p.db.Model(&models.Job{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
			p.logger.Error("failed to mark job %s processing: %v", job.ID, err)
			continue
		}

		if handleErr := p.dispatch(ctx, job); handleErr != nil {
			failed++
			p.failJob(job, handleErr)
			continue
		}

		completed++
		if err := p.db.Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
			"status":     models.JobCompleted,
			"last_error": nil,
		}).Error; err != nil {
			p.logger.Error("failed to mark job %s completed: %v", job.ID, err)
		}
	}

	return completed, failed, nil
}

func (p *Processor) dispatch(ctx context.Context, job *models.Job) error {
	switch job.Type {
	case models.JobCreateZohoCustomer:
		return p.handleCreateCustomer(ctx, job)
	case models.JobPushOrderToZoho:
		return p.handlePushOrder(ctx, job)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// failJob returns the job to pending for another attempt, or marks it
// terminally failed once its attempts are spent.
func (p *Processor) failJob(job *models.Job, handleErr error) {
	status := models.JobPending
	if job.Attempts >= job.MaxAttempts {
		status = models.JobFailed
		p.logger.Error("job %s (%s) failed permanently after %d attempts: %v", job.ID, job.Type, job.Attempts, handleErr)
	} else {
		p.logger.Warn("job %s (%s) attempt %d failed, will retry: %v", job.ID, job.Type, job.Attempts, handleErr)
	}

	msg := handleErr.Error()
	if len(msg) > 1000 {
		msg = msg[:1000]
	}
	if err := p.db.Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     status,
		"last_error": msg,
	}).Error; err != nil {
		p.logger.Error("failed to record job %s failure: %v", job.ID, err)
	}
}

func (p *Processor) handleCreateCustomer(ctx context.Context, job *models.Job) error {
	var payload CreateCustomerPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}

	var user models.User
	if err := p.db.First(&user, "id = ?", payload.UserID).Error; err != nil {
		return fmt.Errorf("user %s not found: %w", payload.UserID, err)
	}
	if user.ZohoContactID != nil {
		// A prior attempt already created the contact.
		return nil
	}

	contact, err := p.api.CreateContact(ctx, &zoho.Contact{
		ContactName: payload.Name,
		CompanyName: payload.Company,
		Email:       payload.Email,
	})
	if err != nil {
		return err
	}

	return p.db.Model(&user).Update("zoho_contact_id", contact.ContactID).Error
}

func (p *Processor) handlePushOrder(ctx context.Context, job *models.Job) error {
	var payload PushOrderPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}

	var order models.Order
	if err := p.db.Preload("Items").First(&order, "id = ?", payload.OrderID).Error; err != nil {
		return fmt.Errorf("order %s not found: %w", payload.OrderID, err)
	}
	if order.Status == models.OrderPushed {
		return nil
	}

	var user models.User
	if err := p.db.First(&user, "id = ?", order.UserID).Error; err != nil {
		return fmt.Errorf("user %s not found: %w", order.UserID, err)
	}
	if user.ZohoContactID == nil {
		// Retry once the customer-creation job has backfilled the id.
		return fmt.Errorf("user %s has no zoho contact yet", user.ID)
	}

	lines := make([]zoho.SalesOrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		var product models.Product
		if err := p.db.First(&product, "id = ?", item.ProductID).Error; err != nil || product.ZohoItemID == nil {
			return fmt.Errorf("order line %s has no zoho item mapping", item.ID)
		}
		lines = append(lines, zoho.SalesOrderLine{
			ItemID:   *product.ZohoItemID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Rate:     item.UnitPrice,
		})
	}

	so, err := p.api.CreateSalesOrder(ctx, &zoho.SalesOrder{
		CustomerID:  *user.ZohoContactID,
		ReferenceID: order.ID,
		LineItems:   lines,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	return p.db.Model(&order).Updates(map[string]interface{}{
		"status":              models.OrderPushed,
		"zoho_sales_order_id": so.SalesOrderID,
		"pushed_at":           now,
	}).Error
}
