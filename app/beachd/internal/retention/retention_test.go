package retention

import (
	"testing"
	"time"

	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/metrics"
	"github.com/lk2023060901/beachd/app/beachd/internal/reservation"
	"github.com/lk2023060901/beachd/pkg/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPrunesOldReservations(t *testing.T) {
	clock := func() time.Time { return time.Date(2017, time.September, 1, 3, 0, 0, 0, time.UTC) }
	cat, err := catalog.New(catalog.DefaultSeason(), clock)
	require.NoError(t, err)
	store := reservation.NewStore(cat.Size(), clock)

	day := func(m time.Month, d int) catalog.Range { return catalog.Day(catalog.NewDate(2017, m, d)) }
	_, _ = store.Insert(0, day(time.June, 10), "a")
	_, _ = store.Insert(0, catalog.Range{Start: catalog.NewDate(2017, time.July, 20), End: catalog.NewDate(2017, time.August, 5)}, "b")
	_, _ = store.Insert(1, day(time.August, 30), "c")

	client, err := prometheus.New(&prometheus.Config{Namespace: "beachd"})
	require.NoError(t, err)
	m, err := metrics.New(client, func() int { return 0 })
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.KeepDays = 20
	job, err := New(cfg, store, cat, m, nil)
	require.NoError(t, err)

	// 截止日 12/08/2017：前两条被删除
	assert.Equal(t, 2, job.Run())
	assert.Equal(t, 1, store.Count())
	assert.Zero(t, job.Run())
}

func TestRunSkipsFinishedSeason(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, time.March, 1, 3, 0, 0, 0, time.UTC) }
	cat, err := catalog.New(catalog.DefaultSeason(), clock)
	require.NoError(t, err)
	store := reservation.NewStore(cat.Size(), clock)
	_, _ = store.Insert(0, catalog.Day(catalog.NewDate(2017, time.June, 10)), "a")
	_, _ = store.Insert(5, catalog.Day(catalog.NewDate(2017, time.September, 30)), "b")

	job, err := New(DefaultConfig(), store, cat, nil, nil)
	require.NoError(t, err)

	assert.Zero(t, job.Run())
	assert.Equal(t, 2, store.Count())
}

func TestScheduleValidation(t *testing.T) {
	cat, err := catalog.New(catalog.DefaultSeason(), nil)
	require.NoError(t, err)
	store := reservation.NewStore(cat.Size(), nil)

	_, err = New(Config{Schedule: "not a schedule"}, store, cat, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Schedule: "@daily", KeepDays: -1}, store, cat, nil, nil)
	assert.Error(t, err)

	job, err := New(Config{Schedule: "*/5 * * * *"}, store, cat, nil, nil)
	require.NoError(t, err)
	require.NoError(t, job.Start())
	require.NoError(t, job.Stop())
}
