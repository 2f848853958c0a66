package repositories

import (
	"github.com/feathr-social/backend/internal/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for user/account data operations
type AccountRepository interface {
	CreateAccount(user *models.User, account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByUsername(username string) (*models.Account, error)
	GetByFirebaseUID(uid string) (*models.Account, error)
	UpdateAccount(account *models.Account) error
}

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *gorm.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// CreateAccount creates the credential row and its account in one
// transaction so a half-registered identity can never be observed.
func (r *PostgresAccountRepository) CreateAccount(user *models.User, account *models.Account) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		account.UserID = user.ID
		return tx.Create(account).Error
	})
}

func (r *PostgresAccountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.Preload("User").First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepository) GetByUsername(username string) (*models.Account, error) {
	var account models.Account
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = accounts.user_id").
		Where("users.username = ?", username).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepository) GetByFirebaseUID(uid string) (*models.Account, error) {
	var account models.Account
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = accounts.user_id").
		Where("users.firebase_uid = ?", uid).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepository) UpdateAccount(account *models.Account) error {
	return r.db.Save(account).Error
}
