package repository

import (
	"context"
	"encoding/json"

	"truvamate/internal/domain"
	"truvamate/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (datatypes.JSON, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).First(&s).Error; err != nil {
		return nil, wrap("get setting", err, domain.ErrNotFound)
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key string, value datatypes.JSON) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
	return wrap("set setting", err, nil)
}

// GetSettings returns the stored referral settings or domain.ErrNotFound.
func (r *SettingRepository) GetSettings(ctx context.Context) (*models.ReferralSettings, error) {
	raw, err := r.Get(ctx, domain.SettingReferral)
	if err != nil {
		return nil, err
	}
	var s models.ReferralSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, domain.Persistence("decode referral settings", err)
	}
	return &s, nil
}

func (r *SettingRepository) SaveSettings(ctx context.Context, s models.ReferralSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Set(ctx, domain.SettingReferral, datatypes.JSON(raw))
}
