package repository

import (
	"paygate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByGUID resolves the externally-exposed correlation key. A malformed GUID
// resolves to not-found, same as a well-formed unknown one.
func (r *OrderRepository) GetByGUID(guid string) (*models.Order, error) {
	parsed, err := uuid.Parse(guid)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var o models.Order
	if err := r.db.Where("order_guid = ?", parsed.String()).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByIDForUpdate re-reads the order under a row lock so the subsequent
// guard-then-mutate sequence is atomic against concurrent duplicate delivery.
func (r *OrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	q := r.db
	// SQLite serializes writers on its own; SELECT ... FOR UPDATE only exists on MySQL.
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o models.Order
	if err := q.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

func (r *OrderRepository) AppendNote(orderID uint, note string, displayToCustomer bool) error {
	return r.db.Create(&models.OrderNote{
		OrderID:           orderID,
		Note:              note,
		DisplayToCustomer: displayToCustomer,
	}).Error
}

func (r *OrderRepository) NotesByOrder(orderID uint) ([]models.OrderNote, error) {
	var notes []models.OrderNote
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&notes).Error
	return notes, err
}

// Transaction runs fn against a repository bound to one database transaction.
func (r *OrderRepository) Transaction(fn func(r *OrderRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&OrderRepository{db: tx})
	})
}
