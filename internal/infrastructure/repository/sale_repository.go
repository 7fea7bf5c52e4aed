package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	domainRepo "github.com/sangkips/vendas-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

// CreateWithStock runs every stock decrement and the sale insert in one
// transaction. Products are decremented in id order so concurrent sales over
// the same products lock rows in the same sequence.
func (r *saleRepository) CreateWithStock(ctx context.Context, commit *domainRepo.SaleCommit) error {
	decrements := mergeDecrements(commit.Products)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range decrements {
			ok, err := decrementStock(tx, &entity.Product{}, d.ID, d.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &domainRepo.StockShortageError{Resource: domainRepo.StockResourceProduct, ID: d.ID}
			}
		}

		if p := commit.Packaging; p != nil && p.Quantity > 0 {
			ok, err := decrementStock(tx, &entity.Packaging{}, p.ID, p.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &domainRepo.StockShortageError{Resource: domainRepo.StockResourcePackaging, ID: p.ID}
			}
		}

		// Resolved products ride along for the response only and must not be
		// upserted with the items.
		refs := make([]*entity.Product, len(commit.Sale.Items))
		for i := range commit.Sale.Items {
			commit.Sale.Items[i].Position = i
			refs[i] = commit.Sale.Items[i].Product
			commit.Sale.Items[i].Product = nil
		}
		err := tx.Create(commit.Sale).Error
		for i := range commit.Sale.Items {
			commit.Sale.Items[i].Product = refs[i]
		}
		return err
	})
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := withItems(r.db.WithContext(ctx)).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Sale{})

	if params.PaymentMethod != "" {
		query = query.Where("payment_method = ?", params.PaymentMethod)
	}
	if params.StartDate != nil {
		query = query.Where("date >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = withItems(query).Order("date DESC, created_at DESC")
	if params.Pagination != nil {
		params.Pagination.Validate()
		query = query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage)
	}

	err := query.Find(&sales).Error
	return sales, total, err
}

func (r *saleRepository) Update(ctx context.Context, sale *entity.Sale, items []entity.SaleItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(sale).Error; err != nil {
			return err
		}
		if items == nil {
			return nil
		}

		if err := tx.Where("sale_id = ?", sale.ID).Delete(&entity.SaleItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].SaleID = sale.ID
			items[i].Position = i
			items[i].Product = nil
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		sale.Items = items
		return nil
	})
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&entity.SaleItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Sale{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// withItems preloads sale lines in their original order along with the
// products they reference. Removed products resolve to nil.
func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Product")
}

// mergeDecrements folds repeated ids into one decrement each, sorted by id.
func mergeDecrements(in []domainRepo.StockDecrement) []domainRepo.StockDecrement {
	totals := make(map[uuid.UUID]int, len(in))
	for _, d := range in {
		totals[d.ID] += d.Quantity
	}
	out := make([]domainRepo.StockDecrement, 0, len(totals))
	for id, qty := range totals {
		out = append(out, domainRepo.StockDecrement{ID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
