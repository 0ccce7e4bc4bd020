package watch

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/copymd/dbopen"
	_ "modernc.org/sqlite"
)

// counter is a Detector driven by the test.
type counter struct{ v atomic.Int64 }

func (c *counter) detect(context.Context, *sql.DB) (int64, error) { return c.v.Load(), nil }

func start(t *testing.T, w *Watcher, reload func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.OnChange(ctx, reload)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestMaxColumn(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE "set tings" (k TEXT, "updated at" INTEGER)`))
	det := MaxColumn("set tings", "updated at")

	v, err := det(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, err = db.Exec(`INSERT INTO "set tings" VALUES ('theme', 170)`)
	require.NoError(t, err)
	v, err = det(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(170), v)
}

func TestPragmaDataVersion(t *testing.T) {
	db := dbopen.OpenMemory(t)
	v, err := PragmaDataVersion(context.Background(), db)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(0))
}

func TestOnChange_Reloads(t *testing.T) {
	var c counter
	var reloads atomic.Int32
	w := New(nil, Options{Interval: 5 * time.Millisecond, Detector: c.detect})
	start(t, w, func() error { reloads.Add(1); return nil })

	require.Eventually(t, func() bool { return w.Version() == 0 }, time.Second, time.Millisecond)
	c.v.Store(1)
	require.Eventually(t, func() bool { return w.Version() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	c.v.Store(2)
	require.Eventually(t, func() bool { return w.Version() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(2), reloads.Load())
	assert.Equal(t, int64(2), w.Stats().Reloads)
}

func TestOnChange_Debounce(t *testing.T) {
	var c counter
	var reloads atomic.Int32
	w := New(nil, Options{
		Interval: 5 * time.Millisecond,
		Debounce: 80 * time.Millisecond,
		Detector: c.detect,
	})
	start(t, w, func() error { reloads.Add(1); return nil })
	require.Eventually(t, func() bool { return w.Version() == 0 }, time.Second, time.Millisecond)

	for i := int64(1); i <= 5; i++ {
		c.v.Store(i)
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return w.Version() == 5 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())
}

func TestOnChange_FailedReloadRetries(t *testing.T) {
	var c counter
	var calls atomic.Int32
	w := New(nil, Options{Interval: 5 * time.Millisecond, Detector: c.detect})
	start(t, w, func() error {
		if calls.Add(1) == 1 {
			return errors.New("settings locked")
		}
		return nil
	})
	require.Eventually(t, func() bool { return w.Version() == 0 }, time.Second, time.Millisecond)

	c.v.Store(7)
	require.Eventually(t, func() bool { return w.Version() == 7 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, w.Stats().Errors, int64(1))
}
