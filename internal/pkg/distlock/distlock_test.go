package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockExclusive(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "report:c-1", time.Minute)
	b := NewRedisLock(client, "report:c-1", time.Minute)
	assert.Equal(t, "lock:report:c-1", a.Key())

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Release(ctx), "releasing a lock we do not own is a no-op")
	assert.True(t, mr.Exists(a.Key()))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists(a.Key()))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	l := NewRedisLock(client, "k", 10*time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(5 * time.Second)
	assert.True(t, mr.Exists(l.Key()))

	mr.FastForward(10 * time.Second)
	assert.False(t, mr.Exists(l.Key()))

	ok, err = NewRedisLock(client, "k", 10*time.Second).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock can be taken by another holder")
}

func TestRedisLockUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	_, err := NewRedisLock(client, "k", time.Second).Acquire(context.Background())
	assert.ErrorContains(t, err, "failed to acquire lock lock:k")
}

func TestWait(t *testing.T) {
	mr, client := newRedis(t)

	first := NewRedisLock(client, "w", time.Minute)
	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, Wait(ctx, NewRedisLock(client, "w", time.Minute), 5*time.Millisecond), context.DeadlineExceeded)

	mr.Del(first.Key())
	require.NoError(t, Wait(context.Background(), NewRedisLock(client, "w", time.Minute), 5*time.Millisecond))
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "report:c-1")
	assert.Equal(t, l.lockID, NewPGAdvisoryLock(db, "report:c-1").lockID)

	mock.ExpectQuery("SELECT pg_try_advisory_lock").WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "re-acquire while held does not query again")

	require.NoError(t, l.Release(context.Background()))
	require.NoError(t, l.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLockBusy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	l := NewPGAdvisoryLock(db, "busy")
	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, l.Release(context.Background()), "release without holding is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}
