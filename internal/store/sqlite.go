package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solar-battery-sim/internal/simulation"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const ledgerBatchSize = 1000

// storedRun is the runs table. Config and summary are kept as JSON; the
// listing columns are duplicated so List does not decode them.
type storedRun struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time `gorm:"index"`
	Strategy  string
	Intervals int
	NetCost   float64
	Config    string
	Summary   string
}

func (storedRun) TableName() string { return "runs" }

// storedLedgerRow is one ledger row of a run, keyed by its position.
type storedLedgerRow struct {
	RunID string `gorm:"primaryKey"`
	Seq   int    `gorm:"primaryKey;autoIncrement:false"`
	simulation.LedgerRow
}

func (storedLedgerRow) TableName() string { return "ledger_rows" }

// SQLite stores runs in a SQLite file through gorm.
type SQLite struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&storedRun{}, &storedLedgerRow{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, run *Run) error {
	prepare(run)
	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	rows := make([]storedLedgerRow, len(run.Ledger))
	for i, r := range run.Ledger {
		rows[i] = storedLedgerRow{RunID: run.ID, Seq: i, LedgerRow: r}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		info := run.Info()
		if err := tx.Create(&storedRun{
			ID:        info.ID,
			Name:      info.Name,
			CreatedAt: info.CreatedAt,
			Strategy:  info.Strategy,
			Intervals: info.Intervals,
			NetCost:   info.NetCost,
			Config:    string(cfg),
			Summary:   string(summary),
		}).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, ledgerBatchSize).Error; err != nil {
			return fmt.Errorf("insert ledger: %w", err)
		}
		return nil
	})
}

func (s *SQLite) Get(ctx context.Context, id string) (*Run, error) {
	db := s.db.WithContext(ctx)

	var sr storedRun
	if err := db.First(&sr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	run := &Run{ID: sr.ID, Name: sr.Name, CreatedAt: sr.CreatedAt}
	if err := json.Unmarshal([]byte(sr.Config), &run.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(sr.Summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	var rows []storedLedgerRow
	if err := db.Where("run_id = ?", id).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	run.Ledger = make([]simulation.LedgerRow, len(rows))
	for i, r := range rows {
		run.Ledger[i] = r.LedgerRow
	}
	return run, nil
}

func (s *SQLite) List(ctx context.Context) ([]RunInfo, error) {
	var runs []storedRun
	err := s.db.WithContext(ctx).
		Select("id", "name", "created_at", "strategy", "intervals", "net_cost").
		Order("created_at desc, id asc").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	out := make([]RunInfo, len(runs))
	for i, r := range runs {
		out[i] = RunInfo{
			ID:        r.ID,
			Name:      r.Name,
			CreatedAt: r.CreatedAt,
			Strategy:  r.Strategy,
			Intervals: r.Intervals,
			NetCost:   r.NetCost,
		}
	}
	return out, nil
}

func (s *SQLite) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
