package reconstruct

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vis2table/internal/domain"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recordingRefresher) Refresh(_ context.Context, datasets []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, datasets)
	return r.err
}

func TestScheduler_RunNow(t *testing.T) {
	t.Parallel()
	rec := &recordingRefresher{}
	s := NewScheduler(rec, discardLogger())

	require.NoError(t, s.Reload("@every 1h", []string{"cars", "stocks"}))
	assert.Equal(t, 1, s.Entries())

	s.RunNow()
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"cars", "stocks"}, rec.calls[0])
}

func TestScheduler_ReloadReplacesEntry(t *testing.T) {
	t.Parallel()
	rec := &recordingRefresher{}
	s := NewScheduler(rec, discardLogger())

	require.NoError(t, s.Reload("@every 1h", []string{"cars"}))
	require.NoError(t, s.Reload("@every 2h", []string{"stocks"}))
	assert.Equal(t, 1, s.Entries())

	s.RunNow()
	assert.Equal(t, [][]string{{"stocks"}}, rec.calls)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	t.Parallel()
	s := NewScheduler(&recordingRefresher{}, discardLogger())

	err := s.Start("every tuesday", []string{"cars"})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_RefreshErrorIsLogged(t *testing.T) {
	t.Parallel()
	rec := &recordingRefresher{err: errors.New("boom")}
	s := NewScheduler(rec, discardLogger())

	require.NoError(t, s.Start("@every 1h", []string{"cars"}))
	defer s.Stop()

	assert.NotPanics(t, s.RunNow)
	assert.Len(t, rec.calls, 1)
}
