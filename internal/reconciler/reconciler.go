package reconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wholesale/internal/events"
	"wholesale/internal/images"
	"wholesale/internal/logger"
	"wholesale/internal/models"
	"wholesale/internal/services/zoho"

	"gorm.io/gorm"
)

const (
	// staleStreakLimit bounds incremental pagination: once this many
	// consecutive items are older than the watermark on a modified-desc
	// feed, nothing newer remains further down.
	staleStreakLimit = 5

	maxRecordedErrors = 100
)

// ZohoAPI is the slice of the Zoho client the reconciler consumes.
type ZohoAPI interface {
	ListItems(ctx context.Context, page int) ([]zoho.Item, bool, error)
	ListCategories(ctx context.Context) ([]zoho.Category, error)
	ListPricebooks(ctx context.Context) ([]zoho.Pricebook, error)
	ListPricebookItems(ctx context.Context, pricebookID string) ([]zoho.PricebookItem, error)
}

// Reconciler pulls the remote catalog into the local mirror. Full sync walks
// every page and is the only mode allowed to delist; incremental sync is
// bounded by the watermark of the last successful run and by construction
// sees an incomplete catalog, so it never delists anything.
type Reconciler struct {
	db          *gorm.DB
	api         ZohoAPI
	transformer *zoho.Transformer
	queue       *images.Queue
	publisher   *events.Publisher
	logger      *logger.Logger
}

func New(db *gorm.DB, api ZohoAPI, queue *images.Queue, publisher *events.Publisher, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		db:          db,
		api:         api,
		transformer: zoho.NewTransformer(),
		queue:       queue,
		publisher:   publisher,
		logger:      logger,
	}
}

func (r *Reconciler) RunFull(ctx context.Context, trigger string) (*models.SyncRun, error) {
	return r.run(ctx, models.SyncRunFull, trigger)
}

func (r *Reconciler) RunIncremental(ctx context.Context, trigger string) (*models.SyncRun, error) {
	return r.run(ctx, models.SyncRunIncremental, trigger)
}

func (r *Reconciler) run(ctx context.Context, runType models.SyncRunType, trigger string) (*models.SyncRun, error) {
	var watermark time.Time
	if runType == models.SyncRunIncremental {
		watermark = r.watermark()
	}

	// The run row goes in before any network call so a crash mid-sync is
	// visible as a stuck "running" row.
	run := &models.SyncRun{
		Type:          runType,
		TriggerSource: trigger,
		Status:        models.SyncRunRunning,
		StartedAt:     time.Now(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}

	seen := make(map[string]struct{})
	var errs []string

	page := 1
	staleStreak := 0

pageLoop:
	for {
		items, hasMore, err := r.api.ListItems(ctx, page)
		if err != nil {
			// List fetch failure after the client's own retries is
			// catastrophic; the whole run fails.
			r.finalize(run, models.SyncRunFailed, append(errs, err.Error()))
			return run, err
		}

		for i := range items {
			item := &items[i]

			if runType == models.SyncRunIncremental && !watermark.IsZero() {
				if mod := item.ModifiedAt(); !mod.IsZero() && mod.Before(watermark) {
					staleStreak++
					if staleStreak >= staleStreakLimit {
						break pageLoop
					}
					continue
				}
				staleStreak = 0
			}

			if item.Status != "active" {
				run.SkippedCount++
				continue
			}
			seen[item.ItemID] = struct{}{}

			created, err := r.processItem(item)
			if err != nil {
				run.ErrorCount++
				if len(errs) < maxRecordedErrors {
					errs = append(errs, fmt.Sprintf("item %s: %v", item.ItemID, err))
				}
				continue
			}
			if created {
				run.CreatedCount++
			} else {
				run.UpdatedCount++
			}
		}

		if !hasMore {
			break
		}
		page++
	}

	if runType == models.SyncRunFull {
		delisted, err := r.delistMissing(seen)
		run.DelistedCount = delisted
		if err != nil {
			run.ErrorCount++
			if len(errs) < maxRecordedErrors {
				errs = append(errs, fmt.Sprintf("delist pass: %v", err))
			}
		}
	}

	r.finalize(run, models.SyncRunCompleted, errs)
	r.logger.Info("%s sync finished: created=%d updated=%d skipped=%d delisted=%d errors=%d",
		runType, run.CreatedCount, run.UpdatedCount, run.SkippedCount, run.DelistedCount, run.ErrorCount)
	return run, nil
}

func (r *Reconciler) processItem(item *zoho.Item) (bool, error) {
	var product models.Product
	err := r.db.First(&product, "zoho_item_id = ?", item.ItemID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, err
	}

	if err == gorm.ErrRecordNotFound {
		product = models.Product{
			CasePackSize: 1,
			MinOrderQty:  1,
			ImageSource:  models.ImageSourceNone,
		}
		r.transformer.Apply(&product, item)
		if err := r.db.Create(&product).Error; err != nil {
			return false, err
		}
		// Fire-and-forget image fetch; the sync never waits on downloads.
		r.queue.Enqueue(item.ItemID, item.GroupID)
		r.publisher.Publish(events.EventProductCreated, product.ID, item.ItemID, item.GroupID)
		return true, nil
	}

	r.transformer.Apply(&product, item)
	if err := r.db.Save(&product).Error; err != nil {
		return false, err
	}
	r.publisher.Publish(events.EventProductUpdated, product.ID, item.ItemID, item.GroupID)
	return false, nil
}

// delistMissing marks every online product whose remote id was not seen this
// run as offline and inactive. Only full sync calls this.
func (r *Reconciler) delistMissing(seen map[string]struct{}) (int, error) {
	var products []models.Product
	if err := r.db.Where("zoho_item_id IS NOT NULL AND is_online = ?", true).Find(&products).Error; err != nil {
		return 0, err
	}

	delisted := 0
	for i := range products {
		p := &products[i]
		if _, ok := seen[*p.ZohoItemID]; ok {
			continue
		}
		err := r.db.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"is_online": false,
			"is_active": false,
		}).Error
		if err != nil {
			return delisted, err
		}
		delisted++
		r.publisher.Publish(events.EventProductDelisted, p.ID, *p.ZohoItemID, "")
	}
	return delisted, nil
}

// watermark is the StartedAt of the most recent successful full or
// incremental run. Using StartedAt rather than FinishedAt means items
// modified while that run was in flight are picked up again.
func (r *Reconciler) watermark() time.Time {
	var last models.SyncRun
	err := r.db.
		Where("type IN ? AND status = ?",
			[]models.SyncRunType{models.SyncRunFull, models.SyncRunIncremental},
			models.SyncRunCompleted).
		Order("started_at DESC").
		First(&last).Error
	if err != nil {
		return time.Time{}
	}
	return last.StartedAt
}

func (r *Reconciler) finalize(run *models.SyncRun, status models.SyncRunStatus, errs []string) {
	now := time.Now()
	run.Status = status
	run.FinishedAt = &now
	run.DurationMS = now.Sub(run.StartedAt).Milliseconds()
	if len(errs) > 0 {
		if len(errs) > maxRecordedErrors {
			errs = errs[:maxRecordedErrors]
		}
		joined := strings.Join(errs, "\n")
		run.Errors = &joined
	}
	if err := r.db.Save(run).Error; err != nil {
		r.logger.Error("failed to finalize sync run %s: %v", run.ID, err)
	}
}
