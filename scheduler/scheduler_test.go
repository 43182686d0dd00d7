package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("not a cron spec", func(ctx context.Context) (int, error) { return 0, nil })
	assert.Error(t, err)
}

func TestSchedulerFires(t *testing.T) {
	fired := make(chan struct{}, 1)
	// The standard cron parser has minute granularity, so drive run()
	// directly instead of waiting a wall-clock minute.
	s, err := New("* * * * *", func(ctx context.Context) (int, error) {
		select {
		case fired <- struct{}{}:
		default:
		}
		return 1, nil
	})
	require.NoError(t, err)

	s.run()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scan did not run")
	}

	s.Start()
	s.Stop()
}
