// Package processrepo persists slaughter process aggregates in PostgreSQL through GORM.
//
// The aggregate is stored whole as a JSONB snapshot. The columns next to it duplicate the fields
// the read side filters on, plus the optimistic-concurrency version.
package processrepo

import (
	"encoding/json"
	"fmt"
	"time"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
)

// ProcessDTO is one row of the processes table.
type ProcessDTO struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	Number         string `gorm:"size:32;uniqueIndex"`
	CertificateID  string `gorm:"size:64;index"`
	Stage          string `gorm:"size:32;index"`
	PaymentStatus  string `gorm:"size:16;index"`
	StageEnteredAt time.Time
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
	Version        int64  `gorm:"not null"`
	Payload        []byte `gorm:"type:jsonb;not null"`
}

func (ProcessDTO) TableName() string {
	return "processes"
}

// fromDomain maps the aggregate to a row carrying the version it will have once saved.
func fromDomain(p *process.Process, version int64) (ProcessDTO, error) {
	payload, err := json.Marshal(p.Snapshot())
	if err != nil {
		return ProcessDTO{}, fmt.Errorf("encode process %s: %w", p.ID(), err)
	}
	return ProcessDTO{
		ID:             p.ID().String(),
		Number:         p.Number(),
		CertificateID:  p.CertificateID(),
		Stage:          p.Stage().String(),
		PaymentStatus:  p.PaymentStatus().String(),
		StageEnteredAt: p.StageEnteredAt(),
		CreatedAt:      p.CreatedAt(),
		Version:        version,
		Payload:        payload,
	}, nil
}

func toDomain(dto ProcessDTO) (*process.Process, error) {
	if _, err := kernel.UUIDFromString(dto.ID); err != nil {
		return nil, err
	}
	var snap process.Snapshot
	if err := json.Unmarshal(dto.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode process %s: %w", dto.ID, err)
	}
	snap.Version = dto.Version
	return process.Restore(snap)
}
