package reconciler

import (
	"context"
	"fmt"
	"time"

	"wholesale/internal/models"

	"gorm.io/gorm"
)

var nowFunc = time.Now

// SyncPriceLists mirrors remote pricebooks and their per-item rates. Same
// upsert-by-remote-id, never-delete pattern as the category pass.
func (r *Reconciler) SyncPriceLists(ctx context.Context, trigger string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		Type:          models.SyncRunPriceLists,
		TriggerSource: trigger,
		Status:        models.SyncRunRunning,
		StartedAt:     nowFunc(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}

	pricebooks, err := r.api.ListPricebooks(ctx)
	if err != nil {
		r.finalize(run, models.SyncRunFailed, []string{err.Error()})
		return run, err
	}

	var errs []string
	for _, pb := range pricebooks {
		if pb.Status != "" && pb.Status != "active" {
			run.SkippedCount++
			continue
		}

		priceList, created, err := r.upsertPriceList(pb.PricebookID, pb.Name)
		if err != nil {
			run.ErrorCount++
			errs = append(errs, fmt.Sprintf("pricebook %s: %v", pb.PricebookID, err))
			continue
		}
		if created {
			run.CreatedCount++
		} else {
			run.UpdatedCount++
		}

		items, err := r.api.ListPricebookItems(ctx, pb.PricebookID)
		if err != nil {
			run.ErrorCount++
			errs = append(errs, fmt.Sprintf("pricebook %s items: %v", pb.PricebookID, err))
			continue
		}
		for _, item := range items {
			if err := r.upsertCustomerPrice(priceList.ID, item.ItemID, item.PricebookRate); err != nil {
				run.ErrorCount++
				if len(errs) < maxRecordedErrors {
					errs = append(errs, fmt.Sprintf("price %s/%s: %v", pb.PricebookID, item.ItemID, err))
				}
			}
		}
	}

	r.finalize(run, models.SyncRunCompleted, errs)
	return run, nil
}

func (r *Reconciler) upsertPriceList(pricebookID, name string) (*models.PriceList, bool, error) {
	var priceList models.PriceList
	err := r.db.First(&priceList, "zoho_pricebook_id = ?", pricebookID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if err == gorm.ErrRecordNotFound {
		priceList = models.PriceList{
			Name:            name,
			ZohoPricebookID: pricebookID,
		}
		if err := r.db.Create(&priceList).Error; err != nil {
			return nil, false, err
		}
		return &priceList, true, nil
	}

	priceList.Name = name
	if err := r.db.Save(&priceList).Error; err != nil {
		return nil, false, err
	}
	return &priceList, false, nil
}

func (r *Reconciler) upsertCustomerPrice(priceListID, itemID string, rate float64) error {
	var price models.CustomerPrice
	err := r.db.First(&price, "price_list_id = ? AND zoho_item_id = ?", priceListID, itemID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	if err == gorm.ErrRecordNotFound {
		price = models.CustomerPrice{
			PriceListID: priceListID,
			ZohoItemID:  itemID,
			Price:       rate,
		}
		return r.db.Create(&price).Error
	}

	price.Price = rate
	return r.db.Save(&price).Error
}
