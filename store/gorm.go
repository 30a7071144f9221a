package store

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/transcribot/database"
	apperrors "github.com/kbukum/transcribot/errors"
)

// GormStore implements Store on a GORM connection.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore returns a store over db. The schema must already exist.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) UpsertAccount(ctx context.Context, account *Account) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "is_bot", "chat_type", "language_code", "updated_at"}),
	}).Create(account).Error
	if err != nil {
		return database.FromDatabase(err, "account")
	}
	return nil
}

func (s *GormStore) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&Account{}, id).Error; err != nil {
		return database.FromDatabase(err, "account")
	}
	return nil
}

func (s *GormStore) GetAccount(ctx context.Context, id int64) (*Account, error) {
	var account Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if database.IsNotFoundError(err) {
			return nil, apperrors.NotFound("account", strconv.FormatInt(id, 10))
		}
		return nil, database.FromDatabase(err, "account")
	}
	return &account, nil
}

func (s *GormStore) ListAccounts(ctx context.Context, offset, limit int) ([]Account, error) {
	var accounts []Account
	q := s.db.WithContext(ctx).Order("id").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&accounts).Error; err != nil {
		return nil, database.FromDatabase(err, "account")
	}
	return accounts, nil
}

func (s *GormStore) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Account{}).Count(&n).Error; err != nil {
		return 0, database.FromDatabase(err, "account")
	}
	return n, nil
}

func (s *GormStore) EnqueueJob(ctx context.Context, job *Job) error {
	job.ID = 0
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return database.FromDatabase(err, "job")
	}
	return nil
}

func (s *GormStore) PendingJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := s.db.WithContext(ctx).Order("id").Find(&jobs).Error; err != nil {
		return nil, database.FromDatabase(err, "job")
	}
	return jobs, nil
}

func (s *GormStore) DeleteJob(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&Job{}, id).Error; err != nil {
		return database.FromDatabase(err, "job")
	}
	return nil
}

func (s *GormStore) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Job{}).Count(&n).Error; err != nil {
		return 0, database.FromDatabase(err, "job")
	}
	return n, nil
}

func (s *GormStore) FindResult(ctx context.Context, fingerprint string) (*CachedResult, error) {
	var result CachedResult
	err := s.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).Take(&result).Error
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, apperrors.NotFound("cached result", fingerprint)
		}
		return nil, database.FromDatabase(err, "cached result")
	}
	return &result, nil
}

func (s *GormStore) SaveResult(ctx context.Context, result *CachedResult) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(result).Error
	if err != nil {
		return database.FromDatabase(err, "cached result")
	}
	return nil
}
