package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Win is one claimed chair.
type Win struct {
	RoomCode   string
	WinnerID   string
	WinnerName string
	Score      int
	Round      int
	At         time.Time
}

type Standing struct {
	Name string `json:"name"`
	Wins int64  `json:"wins"`
}

// Recorder must not block the caller.
type Recorder interface {
	RecordWin(w Win)
}

type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]Standing, error)
}

type Nop struct{}

func (Nop) RecordWin(Win) {}

func (Nop) Leaderboard(context.Context, int) ([]Standing, error) { return []Standing{}, nil }

type RoundResult struct {
	ID         uint   `gorm:"primaryKey"`
	RoomCode   string `gorm:"size:8;index"`
	WinnerID   string `gorm:"size:64"`
	WinnerName string `gorm:"size:128;index"`
	Score      int
	Round      int
	CreatedAt  time.Time
}

func toResult(w Win) RoundResult {
	return RoundResult{
		RoomCode:   w.RoomCode,
		WinnerID:   w.WinnerID,
		WinnerName: w.WinnerName,
		Score:      w.Score,
		Round:      w.Round,
		CreatedAt:  w.At,
	}
}

const writeTimeout = 5 * time.Second

type Store struct {
	db  *gorm.DB
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Open connects to Postgres and migrates the results table.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.AutoMigrate(&RoundResult{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return New(db, log), nil
}

func (s *Store) RecordWin(w Win) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		row := toResult(w)
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			s.log.Warn("record win failed", zap.String("room", w.RoomCode), zap.Error(err))
		}
	}()
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	out := []Standing{}
	err := s.leaderboardQuery(s.db.WithContext(ctx), limit).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return out, nil
}

func (s *Store) leaderboardQuery(db *gorm.DB, limit int) *gorm.DB {
	return db.Model(&RoundResult{}).
		Select("winner_name AS name, COUNT(*) AS wins").
		Group("winner_name").
		Order("wins DESC").
		Limit(limit)
}

// Close waits for in-flight writes.
func (s *Store) Close() error {
	s.wg.Wait()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
