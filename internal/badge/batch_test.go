package badge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/registrant"
)

// sliceSource serves badge rows from memory, mimicking the repository's
// keyset pagination.
type sliceSource struct {
	rows []registrant.BadgeRow
}

func (s *sliceSource) CountBadgeRows(_ context.Context, ids []int64) (int, error) {
	return len(s.filter(ids)), nil
}

func (s *sliceSource) BadgeRows(_ context.Context, afterID int64, limit int, ids []int64) ([]registrant.BadgeRow, error) {
	var out []registrant.BadgeRow
	for _, r := range s.filter(ids) {
		if r.ID > afterID {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *sliceSource) filter(ids []int64) []registrant.BadgeRow {
	if len(ids) == 0 {
		return s.rows
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []registrant.BadgeRow
	for _, r := range s.rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func newTestRunner(t *testing.T, rows []registrant.BadgeRow) *Runner {
	t.Helper()
	renderer, err := NewRenderer(DefaultOptions())
	require.NoError(t, err)
	return NewRunner(&sliceSource{rows: rows}, renderer)
}

func TestRunGeneratesWholeRoster(t *testing.T) {
	rows := []registrant.BadgeRow{
		{ID: 1, Name: "Ana", District: "Norte", Church: "Central"},
		{ID: 2, Name: "Beto", District: "Norte", Church: "Central"},
		{ID: 3, Name: "Carla", District: "Sur", Church: "Emanuel"},
	}
	runner := newTestRunner(t, rows)
	runner.ChunkSize = 2 // force multiple chunks

	base := t.TempDir()
	report, err := runner.Run(context.Background(), base, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Generated)
	assert.Zero(t, report.Failed)
	assert.NotEmpty(t, report.RunID)

	for _, want := range []string{
		filepath.Join(base, "norte", "central", "1-ana.png"),
		filepath.Join(base, "norte", "central", "2-beto.png"),
		filepath.Join(base, "sur", "emanuel", "3-carla.png"),
	} {
		assert.FileExists(t, want)
	}
}

func TestRunExplicitIDSubset(t *testing.T) {
	rows := []registrant.BadgeRow{
		{ID: 1, Name: "Ana", District: "Norte", Church: "Central"},
		{ID: 2, Name: "Beto", District: "Norte", Church: "Central"},
	}
	runner := newTestRunner(t, rows)

	base := t.TempDir()
	report, err := runner.Run(context.Background(), base, []int64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Generated)
	assert.NoFileExists(t, filepath.Join(base, "norte", "central", "1-ana.png"))
	assert.FileExists(t, filepath.Join(base, "norte", "central", "2-beto.png"))
}

func TestRunContinuesPastPerRegistrantFailure(t *testing.T) {
	rows := []registrant.BadgeRow{
		{ID: 1, Name: "Ana", District: "Norte", Church: "Central"},
		{ID: 2, Name: "Beto", District: "Roto", Church: "Central"},
		{ID: 3, Name: "Carla", District: "Norte", Church: "Central"},
	}
	runner := newTestRunner(t, rows)

	base := t.TempDir()
	// a plain file where the district folder should go makes id 2 fail
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "roto"), []byte("x"), 0o644))

	report, err := runner.Run(context.Background(), base, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Generated)
	assert.Equal(t, 1, report.Failed)
}

func TestRunEmptyRoster(t *testing.T) {
	runner := newTestRunner(t, nil)
	report, err := runner.Run(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Generated)
	assert.Zero(t, report.Failed)
}
