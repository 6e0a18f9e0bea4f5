package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisLock(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, "lock:", ttl), m, client
}

func TestRedis_SerializesSameKey(t *testing.T) {
	req := require.New(t)
	l, _, _ := newRedisLock(t, 2*time.Second)

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			unlock, err := l.Lock(ctx, "m1:u1")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	req.Equal(int32(1), maxInside.Load())
}

func TestRedis_ContextCancelled(t *testing.T) {
	req := require.New(t)
	l, _, _ := newRedisLock(t, 2*time.Second)

	unlock, err := l.Lock(context.Background(), "m1:u1")
	req.NoError(err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "m1:u1")
	req.ErrorIs(err, ErrNotAcquired)
	req.ErrorIs(err, context.DeadlineExceeded)

	other, err := l.Lock(context.Background(), "m1:u2")
	req.NoError(err)
	other()
}

func TestRedis_UnlockDeletesKey(t *testing.T) {
	req := require.New(t)
	l, m, _ := newRedisLock(t, 2*time.Second)

	unlock, err := l.Lock(context.Background(), "m1:u1")
	req.NoError(err)
	req.True(m.Exists("lock:m1:u1"))

	unlock()
	unlock()
	req.False(m.Exists("lock:m1:u1"))
}

func TestRedis_LeaseRefreshedWhileHeld(t *testing.T) {
	req := require.New(t)
	ttl := 300 * time.Millisecond
	l, m, _ := newRedisLock(t, ttl)

	unlock, err := l.Lock(context.Background(), "m1:u1")
	req.NoError(err)
	defer unlock()

	// Miniredis only ages keys on FastForward, so a TTL above what is left
	// afterwards means a refresh happened.
	m.FastForward(250 * time.Millisecond)

	req.Eventually(func() bool {
		return m.TTL("lock:m1:u1") > 200*time.Millisecond
	}, time.Second, 10*time.Millisecond)
}

func TestRedis_ReleaseKeepsForeignLease(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	l, m, client := newRedisLock(t, 2*time.Second)

	first, err := l.Lock(ctx, "m1:u1")
	req.NoError(err)

	// The first lease expires before its holder is done and another
	// holder takes the key.
	m.FastForward(3 * time.Second)
	req.False(m.Exists("lock:m1:u1"))

	second, err := l.Lock(ctx, "m1:u1")
	req.NoError(err)
	token, err := client.Get(ctx, "lock:m1:u1").Result()
	req.NoError(err)

	first()

	current, err := client.Get(ctx, "lock:m1:u1").Result()
	req.NoError(err)
	req.Equal(token, current)

	second()
	req.False(m.Exists("lock:m1:u1"))
}
