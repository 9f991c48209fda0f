package database

import "gorm.io/gorm"

type AcquisitionRepository struct {
	db *gorm.DB
}

func NewAcquisitionRepository(db *gorm.DB) *AcquisitionRepository {
	return &AcquisitionRepository{db: db}
}

func (r *AcquisitionRepository) Create(a *Acquisition) error {
	return r.db.Create(a).Error
}

func (r *AcquisitionRepository) ListRecent(limit int) ([]Acquisition, error) {
	var rows []Acquisition
	if err := r.db.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
