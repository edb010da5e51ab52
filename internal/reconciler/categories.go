package reconciler

import (
	"context"
	"fmt"

	"wholesale/internal/models"
	"wholesale/internal/services/zoho"

	"gorm.io/gorm"
)

// SyncCategories mirrors remote categories into local rows. Upsert only,
// keyed by remote category id with slug as the fallback match; categories
// are never deleted.
func (r *Reconciler) SyncCategories(ctx context.Context, trigger string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		Type:          models.SyncRunCategories,
		TriggerSource: trigger,
		Status:        models.SyncRunRunning,
		StartedAt:     nowFunc(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}

	categories, err := r.api.ListCategories(ctx)
	if err != nil {
		r.finalize(run, models.SyncRunFailed, []string{err.Error()})
		return run, err
	}

	var errs []string
	for _, remote := range categories {
		if remote.Name == "" {
			run.SkippedCount++
			continue
		}
		created, err := r.upsertCategory(&remote)
		if err != nil {
			run.ErrorCount++
			errs = append(errs, fmt.Sprintf("category %s: %v", remote.CategoryID, err))
			continue
		}
		if created {
			run.CreatedCount++
		} else {
			run.UpdatedCount++
		}
	}

	r.finalize(run, models.SyncRunCompleted, errs)
	return run, nil
}

func (r *Reconciler) upsertCategory(remote *zoho.Category) (bool, error) {
	slug := zoho.Slugify(remote.Name)

	var category models.Category
	err := r.db.First(&category, "zoho_category_id = ?", remote.CategoryID).Error
	if err == gorm.ErrRecordNotFound {
		// A category created before its remote id was known matches on slug.
		err = r.db.First(&category, "slug = ?", slug).Error
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, err
	}

	if err == gorm.ErrRecordNotFound {
		remoteID := remote.CategoryID
		category = models.Category{
			Slug:           slug,
			Name:           remote.Name,
			ZohoCategoryID: &remoteID,
		}
		return true, r.db.Create(&category).Error
	}

	remoteID := remote.CategoryID
	category.Name = remote.Name
	category.Slug = slug
	category.ZohoCategoryID = &remoteID
	return false, r.db.Save(&category).Error
}
