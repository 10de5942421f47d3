package repository

import (
	"paygate/internal/models"

	"gorm.io/gorm"
)

type RecurringRepository struct {
	db *gorm.DB
}

func NewRecurringRepository(db *gorm.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(rp *models.RecurringPayment) error {
	return r.db.Create(rp).Error
}

// FindByInitialOrder returns every series rooted at the given order. In
// practice an order opens at most one series, but nothing enforces that
// downstream of the gateway.
func (r *RecurringRepository) FindByInitialOrder(orderID uint) ([]models.RecurringPayment, error) {
	var series []models.RecurringPayment
	err := r.db.Where("initial_order_id = ?", orderID).Order("id ASC").Find(&series).Error
	return series, err
}

func (r *RecurringRepository) Update(rp *models.RecurringPayment) error {
	return r.db.Save(rp).Error
}

func (r *RecurringRepository) History(recurringPaymentID uint) ([]models.RecurringPaymentHistory, error) {
	var history []models.RecurringPaymentHistory
	err := r.db.Where("recurring_payment_id = ?", recurringPaymentID).Order("created_at ASC, id ASC").Find(&history).Error
	return history, err
}

func (r *RecurringRepository) HasHistory(recurringPaymentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.RecurringPaymentHistory{}).
		Where("recurring_payment_id = ?", recurringPaymentID).Count(&count).Error
	return count > 0, err
}

func (r *RecurringRepository) AppendHistory(h *models.RecurringPaymentHistory) error {
	return r.db.Create(h).Error
}
