package repository

import "gorm.io/gorm"

// Store is the SQL-backed ledger store.
type Store struct {
	*UserRepository
	*ReferralRepository
	*SettingRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		UserRepository:     NewUserRepository(db),
		ReferralRepository: NewReferralRepository(db),
		SettingRepository:  NewSettingRepository(db),
	}
}
