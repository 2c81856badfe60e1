package repository

import (
	"context"

	"truvamate/internal/domain"
	"truvamate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, wrap("get user", err, domain.ErrUserNotFound)
	}
	return &u, nil
}

// GetUsers returns the users found among ids keyed by id. Missing ids are skipped.
func (r *UserRepository) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, wrap("get users", err, nil)
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

// UpsertUser syncs identity fields. Referral fields are never touched here.
func (r *UserRepository) UpsertUser(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "role", "updated_at"}),
	}).Create(u).Error
	return wrap("upsert user", err, nil)
}

func (r *UserRepository) SetFCMToken(ctx context.Context, userID, token string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token)
	if res.Error != nil {
		return wrap("set fcm token", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
