package database

import (
	"context"
	"fmt"
	"time"

	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the append-only record of every case ever captured
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
	now    func() time.Time
}

// SaveResult summarizes one SaveNewRecords batch
type SaveResult struct {
	Inserted   int                  `json:"inserted"`
	Duplicates int                  `json:"duplicates"`
	Errors     []*RecordInsertError `json:"-"`
	// Saved holds the inserted records in batch order
	Saved []CaseRecord `json:"-"`
}

// NewStore wraps an open database
func NewStore(db *gorm.DB, logger *logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Initialize creates the table and indexes. Safe to call on every start.
func (s *Store) Initialize() error {
	if err := Migrate(s.db); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// LoadSeenIDs returns every stored pdf_id. A store that was never
// initialized yields an empty set.
func (s *Store) LoadSeenIDs(ctx context.Context) (SeenSet, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&CaseRecord{}) {
		s.logger.Debug("Seen-set table missing, starting empty")
		return NewSeenSet(), nil
	}

	var ids []string
	if err := db.Model(&CaseRecord{}).Pluck("pdf_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load seen ids: %w", err)
	}

	s.logger.Debug("Loaded seen-set", "count", len(ids))
	return NewSeenSet(ids...), nil
}

// SaveNewRecords inserts each record unless its pdf_id is already stored.
// A failing record is reported in the result and does not stop the batch.
// Every attempted record gets its ScrapeDate stamped in place.
func (s *Store) SaveNewRecords(ctx context.Context, records []CaseRecord) SaveResult {
	var result SaveResult
	if len(records) == 0 {
		s.logger.Info("No new data to save")
		return result
	}

	scrapeDate := s.now().Format(ScrapeDateLayout)
	db := s.db.WithContext(ctx)

	for i := range records {
		rec := &records[i]
		rec.ScrapeDate = scrapeDate

		if err := rec.Validate(); err != nil {
			s.recordError(&result, rec.PDFID, err)
			continue
		}

		tx := db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if tx.Error != nil {
			s.recordError(&result, rec.PDFID, tx.Error)
			continue
		}

		if tx.RowsAffected == 0 {
			result.Duplicates++
			continue
		}
		result.Inserted++
		result.Saved = append(result.Saved, *rec)
	}

	s.logger.Info("Saved scraped records",
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors),
	)

	return result
}

func (s *Store) recordError(result *SaveResult, pdfID string, err error) {
	insertErr := &RecordInsertError{PDFID: pdfID, Err: err}
	result.Errors = append(result.Errors, insertErr)
	s.logger.Error("Failed to insert record", "pdf_id", pdfID, "error", err)
}

// ListRecords returns stored records, newest capture first
func (s *Store) ListRecords(ctx context.Context, page, limit int) ([]CaseRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&CaseRecord{}) {
		return []CaseRecord{}, 0, nil
	}

	var total int64
	if err := db.Model(&CaseRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	records := []CaseRecord{}
	err := db.Order("scrape_date DESC").Order("pdf_id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}

	return records, total, nil
}

// Ping reports whether the database answers
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
