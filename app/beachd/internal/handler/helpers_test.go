package handler

import (
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/beachd/app/beachd/internal/admission"
	"github.com/lk2023060901/beachd/app/beachd/internal/booking"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/lock"
	"github.com/lk2023060901/beachd/app/beachd/internal/metrics"
	"github.com/lk2023060901/beachd/app/beachd/internal/reservation"
	"github.com/lk2023060901/beachd/app/beachd/internal/session"
	"github.com/lk2023060901/beachd/pkg/prometheus"
	"github.com/stretchr/testify/require"
)

// recConn 记录写出内容的内存连接
type recConn struct {
	id string

	mu     sync.Mutex
	lines  []string
	closed bool
}

func (c *recConn) ID() string         { return c.id }
func (c *recConn) RemoteAddr() string { return "mem:" + c.id }

func (c *recConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	return nil
}

func (c *recConn) WriteAndClose(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	c.closed = true
	return nil
}

func (c *recConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recConn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *recConn) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

func (c *recConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var testNow = time.Date(2017, time.July, 15, 9, 0, 0, 0, time.UTC)

type env struct {
	catalog    *catalog.Catalog
	svc        *booking.Service
	sessions   *session.Manager
	admission  *admission.Controller
	metrics    *metrics.Metrics
	dispatcher *Dispatcher
}

func newEnv(t *testing.T, capacity int) *env {
	t.Helper()
	clock := func() time.Time { return testNow }
	cat, err := catalog.New(catalog.DefaultSeason(), clock)
	require.NoError(t, err)

	locks := lock.NewTable(cat.Size())
	svc := booking.NewService(cat, locks, reservation.NewStore(cat.Size(), clock), nil)

	client, err := prometheus.New(&prometheus.Config{Namespace: "beachd"})
	require.NoError(t, err)
	m, err := metrics.New(client, locks.HeldCount)
	require.NoError(t, err)

	return &env{
		catalog:    cat,
		svc:        svc,
		sessions:   session.NewManager(16),
		admission:  admission.New(capacity),
		metrics:    m,
		dispatcher: NewDispatcher(svc, m, nil),
	}
}
