package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

const (
	reportPrefix = "report/"
	imagePrefix  = "image/"
)

// BadgerReportRepository keeps reports in BadgerDB
type BadgerReportRepository struct {
	db *badger.DB
}

// NewBadgerReportRepository opens a store under dir, or an in-memory store
// when dir is empty
func NewBadgerReportRepository(dir string) (*BadgerReportRepository, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerReportRepository{db: db}, nil
}

func reportKey(id string) []byte {
	return []byte(reportPrefix + id)
}

func imageIndexKey(imageID, id string) []byte {
	return []byte(imagePrefix + imageID + "/" + id)
}

// Save stores report and indexes it by image id
func (r *BadgerReportRepository) Save(_ context.Context, report *models.DetectionReport) error {
	if report == nil || report.ID == "" {
		return apperrors.NewValidationError("report id is required", nil)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(reportKey(report.ID), data); err != nil {
			return err
		}
		return txn.Set(imageIndexKey(report.ImageID, report.ID), []byte(report.ID))
	})
}

// Get returns the report with id
func (r *BadgerReportRepository) Get(_ context.Context, id string) (*models.DetectionReport, error) {
	data, err := r.get(reportKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NewNotFoundError("report not found", ErrReportNotFound).WithDetails("id=%s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	var report models.DetectionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// List returns reports for imageID ordered by creation time
func (r *BadgerReportRepository) List(ctx context.Context, imageID string) ([]*models.DetectionReport, error) {
	var raw [][]byte
	var err error

	if imageID == "" {
		raw, err = r.scan([]byte(reportPrefix))
	} else {
		var ids [][]byte
		ids, err = r.scan([]byte(imagePrefix + imageID + "/"))
		for _, id := range ids {
			if err != nil {
				break
			}
			var data []byte
			data, err = r.get(reportKey(string(id)))
			raw = append(raw, data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]*models.DetectionReport, 0, len(raw))
	for _, data := range raw {
		var report models.DetectionReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID < reports[j].ID
		}
		return reports[i].CreatedAt.Before(reports[j].CreatedAt)
	})
	return reports, nil
}

// Close releases the database
func (r *BadgerReportRepository) Close() error {
	return r.db.Close()
}

func (r *BadgerReportRepository) get(key []byte) ([]byte, error) {
	var val []byte

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)

		return err
	})

	return val, err
}

func (r *BadgerReportRepository) scan(prefix []byte) ([][]byte, error) {
	var results [][]byte

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			results = append(results, val)
		}

		return nil
	})

	return results, err
}
