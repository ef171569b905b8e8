package reportstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/FangWolf96/corepoint-ingest/internal/board"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Hour, time.Hour), mr
}

func TestWorkbookRoundTrip(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorkbook(ctx, "r1", []byte("xlsx-bytes")))

	got, err := s.GetWorkbook(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, []byte("xlsx-bytes"), got)
}

func TestGetWorkbook_UnknownID(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.GetWorkbook(context.Background(), "missing")
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestGetWorkbook_Expired(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorkbook(ctx, "r1", []byte("xlsx")))
	mr.FastForward(2 * time.Hour)

	_, err := s.GetWorkbook(ctx, "r1")
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestAnalysisCacheRoundTrip(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	rep := &board.Report{ScopeRows: []board.ScopeRow{{Scope: "all", Count: 2, AvgAge: 3.5}}}
	key := AnalysisKey([]byte("<html>upload</html>"))

	require.NoError(t, s.SaveWorkbook(ctx, "r7", []byte("xlsx")))
	s.SaveAnalysis(ctx, key, "r7", rep)

	id, got, ok := s.GetAnalysis(ctx, key)
	require.True(t, ok)
	require.Equal(t, "r7", id)
	require.Equal(t, rep.ScopeRows, got.ScopeRows)
}

func TestAnalysisCache_MissWhenWorkbookGone(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	key := AnalysisKey([]byte("upload"))
	s.SaveAnalysis(ctx, key, "gone", &board.Report{})

	_, _, ok := s.GetAnalysis(ctx, key)
	require.False(t, ok)

	// and a plain miss
	mr.FlushAll()
	_, _, ok = s.GetAnalysis(ctx, AnalysisKey([]byte("other")))
	require.False(t, ok)
}

func TestAnalysisKeyIsStable(t *testing.T) {
	a := AnalysisKey([]byte("same"))
	b := AnalysisKey([]byte("same"))
	c := AnalysisKey([]byte("different"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
