package sources

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/datanorm"
	"github.com/ignite/marketpulse/internal/pkg/logger"
)

type stubSource struct {
	name   string
	ds     *datanorm.Dataset
	err    error
	delay  time.Duration
	panics bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) (*datanorm.Dataset, error) {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.ds, s.err
}

func quietLogger() *logger.Logger {
	return logger.With("test", true)
}

func TestCollectorMergesInSourceOrder(t *testing.T) {
	slow := &stubSource{
		name:  "facebook",
		ds:    &datanorm.Dataset{Headers: []string{"Campaign", "Clicks"}, Rows: [][]string{{"Spring", "1"}}},
		delay: 20 * time.Millisecond,
	}
	fast := &stubSource{
		name: "linkedin",
		ds:   &datanorm.Dataset{Headers: []string{"campaign", "Spend"}, Rows: [][]string{{"Spring", "$2"}}},
	}

	c := NewCollector(time.Second, quietLogger())
	out := c.Collect(context.Background(), slow, fast)

	assert.True(t, out.Available())
	assert.Empty(t, out.Warnings)
	assert.Equal(t, []string{"Campaign", "Clicks", "Spend"}, out.Dataset.Headers)
	assert.Equal(t, [][]string{{"Spring", "1", ""}, {"Spring", "", "$2"}}, out.Dataset.Rows)
	require.Len(t, out.Statuses, 2)
	assert.Equal(t, "facebook", out.Statuses[0].Source)
	assert.Equal(t, 1, out.Statuses[0].Rows)
}

func TestCollectorIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	good := &stubSource{name: "csv", ds: &datanorm.Dataset{Headers: []string{"Clicks"}, Rows: [][]string{{"5"}}}}
	bad := &stubSource{name: "ga", err: errors.New("token expired")}
	hung := &stubSource{name: "warehouse", delay: time.Second}
	broken := &stubSource{name: "panicky", panics: true}
	empty := &stubSource{name: "nil"}

	c := NewCollector(30*time.Millisecond, nil)
	out := c.Collect(context.Background(), bad, good, hung, broken, empty)

	assert.True(t, out.Available())
	assert.Equal(t, [][]string{{"5"}}, out.Dataset.Rows)
	require.Len(t, out.Warnings, 4)
	for _, w := range out.Warnings {
		assert.Equal(t, analytics.WarnSourceUnavailable, w.Kind)
	}
	assert.Contains(t, out.Warnings[0].Message, "token expired")
	assert.Contains(t, out.Statuses[2].Error, context.DeadlineExceeded.Error())
	assert.Contains(t, out.Statuses[3].Error, "panic")
	assert.False(t, out.Statuses[4].OK)
	assert.Contains(t, buf.String(), "source fetch failed")
}

func TestCollectorNoSources(t *testing.T) {
	out := NewCollector(0, quietLogger()).Collect(context.Background())
	assert.False(t, out.Available())
	assert.NotNil(t, out.Dataset)
	assert.Empty(t, out.Dataset.Rows)
}
