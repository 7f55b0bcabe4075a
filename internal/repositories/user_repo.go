package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
)

// UserRepository reads the minimal user profiles the chat core needs.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID loads a user.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ActiveIDsByRole returns the IDs of every currently active user holding
// the role. Queried fresh on each fanout; admin membership changes must be
// picked up immediately.
func (r *UserRepository) ActiveIDsByRole(role policy.Role) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).
		Where("role = ? AND active = ?", role, true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// ActiveUsers returns every active user, for the reminder bot's unread
// scan.
func (r *UserRepository) ActiveUsers() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("active = ?", true).Order("id").Find(&users).Error
	return users, err
}

// GetByIDs loads users by ID, preserving no particular order.
func (r *UserRepository) GetByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}
