package repository

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"call-insights/dto"
	"call-insights/entities"
)

// ErrRecordNotFound is returned by lookups that match nothing, regardless
// of backing store.
var ErrRecordNotFound = errors.New("record not found")

type Repository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error

	FindTenantByAPIKey(ctx context.Context, apiKey string) (*entities.Tenant, error)
	FindTenantByID(ctx context.Context, id uint) (*entities.Tenant, error)
	CreateTenant(ctx context.Context, tenant *entities.Tenant) error
	DeleteTenantCascade(ctx context.Context, id uint) error

	CreateCallRecord(ctx context.Context, record *entities.CallRecord) error
	CallIDExists(ctx context.Context, callID string) (bool, error)
	FindCallByID(ctx context.Context, id uint) (*entities.CallRecord, error)
	FindCallForTenant(ctx context.Context, tenantID uint, callID string) (*entities.CallRecord, error)
	ListCalls(ctx context.Context, tenantID uint, filter dto.ListFilter) ([]entities.CallRecord, error)
	ListProcessedCalls(ctx context.Context, tenantID uint) ([]entities.CallRecord, error)
	ListPendingCallIDs(ctx context.Context) ([]uint, error)

	SaveInsightMarkProcessed(ctx context.Context, insight *entities.CallInsight) error
	FindInsightByCallRecordID(ctx context.Context, callRecordID uint) (*entities.CallInsight, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) (Repository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	return &repo{
		db: gormDB,
	}, nil
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(ctx)
	}, opts...)
}

func (r *repo) FindTenantByAPIKey(ctx context.Context, apiKey string) (*entities.Tenant, error) {
	tenant := &entities.Tenant{}
	err := r.db.WithContext(ctx).First(tenant, "api_key = ?", apiKey).Error
	if err != nil {
		return nil, translate(err)
	}
	return tenant, nil
}

func (r *repo) FindTenantByID(ctx context.Context, id uint) (*entities.Tenant, error) {
	tenant := &entities.Tenant{}
	err := r.db.WithContext(ctx).First(tenant, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return tenant, nil
}

func (r *repo) CreateTenant(ctx context.Context, tenant *entities.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

// DeleteTenantCascade removes the tenant and everything it owns inside one
// transaction, children first: insights, call records, tenant.
func (r *repo) DeleteTenantCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			"DELETE FROM call_insights WHERE call_record_id IN (SELECT id FROM call_records WHERE tenant_id = ?)", id,
		).Error
		if err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&entities.CallRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Tenant{}, id).Error
	})
}

func (r *repo) CreateCallRecord(ctx context.Context, record *entities.CallRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repo) CallIDExists(ctx context.Context, callID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.CallRecord{}).Where("call_id = ?", callID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindCallByID(ctx context.Context, id uint) (*entities.CallRecord, error) {
	record := &entities.CallRecord{}
	err := r.db.WithContext(ctx).First(record, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

func (r *repo) FindCallForTenant(ctx context.Context, tenantID uint, callID string) (*entities.CallRecord, error) {
	record := &entities.CallRecord{}
	err := r.db.WithContext(ctx).First(record, "tenant_id = ? AND call_id = ?", tenantID, callID).Error
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

func (r *repo) ListCalls(ctx context.Context, tenantID uint, filter dto.ListFilter) ([]entities.CallRecord, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.FromDate != nil {
		q = q.Where("start_time >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("start_time <= ?", *filter.ToDate)
	}
	if filter.DurationGT != nil {
		q = q.Where("duration >= ?", *filter.DurationGT)
	}
	if filter.DurationLT != nil {
		q = q.Where("duration <= ?", *filter.DurationLT)
	}

	var records []entities.CallRecord
	err := q.Order("id ASC").Offset(filter.Offset).Limit(filter.Limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListProcessedCalls(ctx context.Context, tenantID uint) ([]entities.CallRecord, error) {
	var records []entities.CallRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_processed = ?", tenantID, true).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListPendingCallIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entities.CallRecord{}).
		Where("is_processed = ?", false).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveInsightMarkProcessed writes the insight row and flips the record's
// processed flag in a single transaction. Any failure rolls back both.
func (r *repo) SaveInsightMarkProcessed(ctx context.Context, insight *entities.CallInsight) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(insight).Error; err != nil {
			return err
		}
		return tx.Model(&entities.CallRecord{}).
			Where("id = ?", insight.CallRecordID).
			Update("is_processed", true).Error
	})
}

func (r *repo) FindInsightByCallRecordID(ctx context.Context, callRecordID uint) (*entities.CallInsight, error) {
	insight := &entities.CallInsight{}
	err := r.db.WithContext(ctx).First(insight, "call_record_id = ?", callRecordID).Error
	if err != nil {
		return nil, translate(err)
	}
	return insight, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
