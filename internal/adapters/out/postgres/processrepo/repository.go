package processrepo

import (
	"context"
	"errors"
	"fmt"

	"slaughterhouse/internal/core/domain/model/kernel"
	"slaughterhouse/internal/core/domain/model/process"
	"slaughterhouse/internal/core/ports"
	"slaughterhouse/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormProcessRepository implements ports.ProcessRepository using GORM.
type GormProcessRepository struct {
	db *gorm.DB
}

var _ ports.ProcessRepository = (*GormProcessRepository)(nil)

// NewGormProcessRepository creates a repository over db, which may be a transaction.
func NewGormProcessRepository(db *gorm.DB) *GormProcessRepository {
	return &GormProcessRepository{db: db}
}

func (r *GormProcessRepository) Load(ctx context.Context, id kernel.UUID) (*process.Process, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ProcessDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("process", id)
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormProcessRepository) List(ctx context.Context, filter ports.ProcessFilter) ([]*process.Process, error) {
	q := r.db.WithContext(ctx).Model(&ProcessDTO{})
	if len(filter.Stages) > 0 {
		names := make([]string, 0, len(filter.Stages))
		for _, s := range filter.Stages {
			names = append(names, s.String())
		}
		q = q.Where("stage IN ?", names)
	}
	if len(filter.PaymentStatuses) > 0 {
		names := make([]string, 0, len(filter.PaymentStatuses))
		for _, s := range filter.PaymentStatuses {
			names = append(names, s.String())
		}
		q = q.Where("payment_status IN ?", names)
	}
	if !filter.ReceivedBefore.IsZero() {
		q = q.Where("created_at < ?", filter.ReceivedBefore)
	}

	var dtos []ProcessDTO
	if err := q.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*process.Process, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Save inserts version 0 aggregates and otherwise updates the row only when its version still
// matches. Either way the stored version becomes p.Version()+1.
func (r *GormProcessRepository) Save(ctx context.Context, p *process.Process) error {
	if err := p.Validate(); err != nil {
		return err
	}

	expected := p.Version()
	dto, err := fromDomain(p, expected+1)
	if err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	if expected == 0 {
		var count int64
		if err := db.Model(&ProcessDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.NewConflictError("process", p.ID(), expected)
		}
		var owner ProcessDTO
		err := db.Select("id").Where("number = ?", dto.Number).Limit(1).Find(&owner).Error
		if err != nil {
			return err
		}
		if owner.ID != "" {
			return fmt.Errorf("%w: %s is held by %s", ports.ErrProcessNumberTaken, dto.Number, owner.ID)
		}
		if err := db.Create(&dto).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.NewConflictError("process", p.ID(), expected)
			}
			return err
		}
	} else {
		result := db.Model(&ProcessDTO{}).
			Where("id = ? AND version = ?", dto.ID, expected).
			Updates(map[string]any{
				"stage":            dto.Stage,
				"payment_status":   dto.PaymentStatus,
				"stage_entered_at": dto.StageEnteredAt,
				"version":          dto.Version,
				"payload":          dto.Payload,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewConflictError("process", p.ID(), expected)
		}
	}

	p.SetVersion(expected + 1)
	return nil
}
