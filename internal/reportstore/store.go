// Package reportstore keeps generated workbooks and analysis results in
// Redis. Workbooks are stored per report id so concurrent uploads never
// overwrite each other's downloads.
package reportstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FangWolf96/corepoint-ingest/internal/board"
	"github.com/FangWolf96/corepoint-ingest/internal/infra/logging"
)

// ErrReportNotFound is returned when a workbook id is unknown or expired.
var ErrReportNotFound = errors.New("report not found")

const (
	workbookKeyPrefix = "workbook:"
	analysisKeyPrefix = "boardcache:"
)

// Store wraps the Redis client with report-specific operations.
type Store struct {
	rdb         *redis.Client
	workbookTTL time.Duration
	analysisTTL time.Duration
}

// New creates a store. TTLs that are zero or negative fall back to one minute.
func New(rdb *redis.Client, workbookTTL, analysisTTL time.Duration) *Store {
	if workbookTTL <= 0 {
		workbookTTL = time.Minute
	}
	if analysisTTL <= 0 {
		analysisTTL = time.Minute
	}
	return &Store{rdb: rdb, workbookTTL: workbookTTL, analysisTTL: analysisTTL}
}

// SaveWorkbook stores the xlsx bytes under the report id.
func (s *Store) SaveWorkbook(ctx context.Context, id string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.rdb.Set(ctx, workbookKeyPrefix+id, data, s.workbookTTL).Err()
}

// GetWorkbook retrieves the xlsx bytes for a report id.
func (s *Store) GetWorkbook(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	data, err := s.rdb.Get(ctx, workbookKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// AnalysisKey derives the cache key for an uploaded export.
func AnalysisKey(upload []byte) string {
	sum := sha256.Sum256(upload)
	return analysisKeyPrefix + hex.EncodeToString(sum[:])
}

type cachedAnalysis struct {
	ReportID string        `json:"report_id"`
	Report   *board.Report `json:"report"`
}

// GetAnalysis returns a previously computed report for the same upload bytes,
// but only while its workbook is still downloadable. Cache errors are treated
// as misses.
func (s *Store) GetAnalysis(ctx context.Context, key string) (string, *board.Report, bool) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return "", nil, false
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return "", nil, false
	}

	var cached cachedAnalysis
	if err := json.Unmarshal(raw, &cached); err != nil {
		logging.Warn("Corrupt analysis cache entry", "key", key, "error", err)
		return "", nil, false
	}
	if err := s.rdb.Get(ctx, workbookKeyPrefix+cached.ReportID).Err(); err != nil {
		return "", nil, false
	}
	return cached.ReportID, cached.Report, true
}

// SaveAnalysis caches the report under the upload hash. Failures are logged
// and swallowed: the cache is an optimization, not a dependency.
func (s *Store) SaveAnalysis(ctx context.Context, key, reportID string, rep *board.Report) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	raw, err := json.Marshal(cachedAnalysis{ReportID: reportID, Report: rep})
	if err != nil {
		logging.Warn("Cannot marshal analysis cache entry", "error", err)
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.analysisTTL).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}
