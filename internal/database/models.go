// Package database ведет журнал выгрузок в PostgreSQL.
// Использует GORM ORM с prepared statements для защиты от SQL injection.
package database

import (
	"errors"
	"strings"
	"time"

	"docFetcher/internal/acquire"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Acquisition одна попытка получить документ.
type Acquisition struct {
	ID        uint      `gorm:"primaryKey"`
	Tags      string    `gorm:"type:text;not null"`        // Теги через дефис, как в имени файла
	SourceID  string    `gorm:"type:varchar(128)"`         // Идентификатор документа из адреса
	Path      string    `gorm:"type:text"`                 // Путь к сохраненному файлу
	SizeBytes int64     `gorm:"not null;default:0"`        // Размер файла
	Strategy  string    `gorm:"type:varchar(32)"`          // Сработавшая стратегия
	Status    string    `gorm:"type:varchar(16);not null"` // succeeded или failed
	Reason    string    `gorm:"type:text"`                 // Причина неудачи
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// NewAcquisition переводит результат Acquire в строку журнала.
func NewAcquisition(req acquire.Request, record *acquire.ArtifactRecord, err error) *Acquisition {
	row := &Acquisition{
		Tags:     strings.Join(req.Tags, "-"),
		SourceID: req.SourceID,
	}

	if record != nil && err == nil {
		row.Status = StatusSucceeded
		row.Path = record.Path
		row.SizeBytes = record.SizeBytes
		row.Strategy = record.Strategy.String()
		return row
	}

	row.Status = StatusFailed
	if err == nil {
		err = errors.New("нет результата")
	}
	row.Reason = err.Error()
	return row
}
