// Package storage is the CRUD adapter over the persisted entities. A Storage
// is constructed with an explicit *gorm.DB and passed to the route layer at
// startup, so tests can run against isolated in-memory instances.
package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/models"
)

// NewScenario carries a Scenario insert after coercion: the date parsed and
// the amount as the caller's original text, already checked to parse as a
// decimal. The text is stored verbatim; re-rendering it from a parsed decimal
// would drop trailing zeros ("1000.50" becoming "1000.5").
type NewScenario struct {
	CoinID           string
	Date             time.Time
	InvestmentAmount string
	Notes            *string
}

// Storage is the persistence surface used by the route layer.
//
// Deletes are unconditional primary-key deletes: they succeed as a no-op when
// the row does not exist, and they do not check ownership (see the handlers
// for why that is deliberate).
type Storage interface {
	GetFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
	CreateFavorite(ctx context.Context, userID string, input contract.InsertFavorite) (*models.Favorite, error)
	DeleteFavorite(ctx context.Context, id uint) error

	GetScenarios(ctx context.Context, userID string) ([]models.Scenario, error)
	CreateScenario(ctx context.Context, userID string, input NewScenario) (*models.Scenario, error)
	DeleteScenario(ctx context.Context, id uint) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetMessages(ctx context.Context, conversationID uint) ([]models.ChatMessage, error)
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
}

type gormStorage struct {
	db *gorm.DB
}

// New creates a Storage backed by the given database handle
func New(db *gorm.DB) Storage {
	return &gormStorage{db: db}
}

// GetFavorites returns all favorites for a user, order unspecified
func (s *gormStorage) GetFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&favorites)
	return favorites, result.Error
}

// CreateFavorite inserts a favorite owned by userID. The owner always comes
// from the session principal; any user id in the request body is ignored.
func (s *gormStorage) CreateFavorite(ctx context.Context, userID string, input contract.InsertFavorite) (*models.Favorite, error) {
	favorite := models.Favorite{
		UserID: userID,
		Symbol: input.Symbol,
		Name:   input.Name,
	}
	if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		return nil, err
	}
	return &favorite, nil
}

// DeleteFavorite deletes by primary key. Missing rows are a no-op success.
func (s *gormStorage) DeleteFavorite(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Favorite{}, id).Error
}

// GetScenarios returns all scenarios for a user, order unspecified
func (s *gormStorage) GetScenarios(ctx context.Context, userID string) ([]models.Scenario, error) {
	var scenarios []models.Scenario
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&scenarios)
	return scenarios, result.Error
}

// CreateScenario inserts a scenario owned by userID. The amount text is
// stored exactly as received.
func (s *gormStorage) CreateScenario(ctx context.Context, userID string, input NewScenario) (*models.Scenario, error) {
	scenario := models.Scenario{
		UserID:           userID,
		CoinID:           input.CoinID,
		Date:             input.Date,
		InvestmentAmount: input.InvestmentAmount,
		Notes:            input.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&scenario).Error; err != nil {
		return nil, err
	}
	return &scenario, nil
}

// DeleteScenario deletes by primary key. Missing rows are a no-op success.
func (s *gormStorage) DeleteScenario(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Scenario{}, id).Error
}

func (s *gormStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStorage) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStorage) CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error) {
	conversation := models.Conversation{
		UserID: userID,
		Title:  title,
	}
	if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *gormStorage) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetMessages returns a conversation's messages oldest first
func (s *gormStorage) GetMessages(ctx context.Context, conversationID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	result := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id asc").
		Find(&messages)
	return messages, result.Error
}

func (s *gormStorage) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return s.db.WithContext(ctx).Create(msg).Error
}
