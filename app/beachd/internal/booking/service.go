package booking

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/lock"
	"github.com/lk2023060901/beachd/app/beachd/internal/reservation"
	"github.com/lk2023060901/beachd/app/beachd/internal/session"
	"github.com/lk2023060901/beachd/pkg/logger"
)

// Service 两阶段预订：先选择（加锁）后提交。
// 同一会话的调用由其串行处理器保证有序；不同会话之间只通过 lock.Table 与
// reservation.Store 的每资源互斥交互，从不阻塞等待其他会话。
type Service struct {
	catalog *catalog.Catalog
	locks   *lock.Table
	store   *reservation.Store
	logger  logger.Logger
}

// NewService 创建预订服务
func NewService(cat *catalog.Catalog, locks *lock.Table, store *reservation.Store, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoop()
	}
	return &Service{
		catalog: cat,
		locks:   locks,
		store:   store,
		logger:  l.Named("booking"),
	}
}

// Catalog 资源目录
func (svc *Service) Catalog() *catalog.Catalog { return svc.catalog }

// Locks 选择锁表
func (svc *Service) Locks() *lock.Table { return svc.locks }

// Store 预订表
func (svc *Service) Store() *reservation.Store { return svc.store }

// Begin 开始一次预订：释放已持有的锁并回到 Idle
func (svc *Service) Begin(s *session.Session) {
	svc.ReleaseSession(s)
}

// Select 选择资源 r。锁被他人持有时返回 lock.Busy 且不改变状态。
func (svc *Service) Select(s *session.Session, r int) (lock.Outcome, error) {
	if !svc.catalog.Contains(r) {
		return lock.Busy, protocolf(catalog.ErrUnknownResource, "select %d", r)
	}
	if cur, ok := s.Selection(); ok && cur != r {
		return lock.Busy, protocolf(nil, "select %d while holding %d", r, cur)
	}

	out, err := svc.locks.TrySelect(r, s.ID())
	if err != nil {
		return lock.Busy, protocolf(err, "select %d", r)
	}
	if out != lock.Busy {
		s.Select(r)
	}
	return out, nil
}

// Commit 提交资源 r 在 dates（一个或两个日期）上的预订。
// 未持有 r 的锁或日期无效时返回 ErrProtocol，日期无效时锁保留；
// 相交时返回 ErrConflict 并释放锁。
func (svc *Service) Commit(s *session.Session, r int, dates []string) (reservation.Reservation, error) {
	if !svc.catalog.Contains(r) {
		return reservation.Reservation{}, protocolf(catalog.ErrUnknownResource, "commit %d", r)
	}
	if cur, ok := s.Selection(); !ok || cur != r {
		return reservation.Reservation{}, protocolf(lock.ErrNotHolder, "commit %d", r)
	}
	rng, err := svc.catalog.ParseRange(dates)
	if err != nil {
		return reservation.Reservation{}, protocolf(err, "commit %d", r)
	}

	owner := s.Identity()
	var res reservation.Reservation
	err = svc.locks.Commit(r, s.ID(), func() error {
		var insertErr error
		res, insertErr = svc.store.Insert(r, rng, owner)
		return insertErr
	})
	// 锁已由 Commit 释放（或本就不属于本会话）
	s.Clear()

	switch {
	case err == nil:
		svc.logger.Info("reservation committed",
			"id", res.ID, "resource", r, "range", rng.String(), "owner", owner, "conn_id", s.ID())
		return res, nil
	case errors.Is(err, reservation.ErrOverlap):
		svc.logger.Debug("reservation conflict", "resource", r, "range", rng.String(), "owner", owner)
		return reservation.Reservation{}, errors.Mark(err, ErrConflict)
	default:
		return reservation.Reservation{}, protocolf(err, "commit %d", r)
	}
}

// Cancel 放弃当前选择；未持有锁时返回 ErrProtocol
func (svc *Service) Cancel(s *session.Session) error {
	if !svc.ReleaseSession(s) {
		return protocolf(nil, "cancel without selection")
	}
	return nil
}

// ReleaseSession 释放会话持有的锁（断开、登出、重新开始时调用），返回是否释放了锁
func (svc *Service) ReleaseSession(s *session.Session) bool {
	r, ok := s.Selection()
	s.Clear()
	if !ok {
		return false
	}
	released := svc.locks.Release(r, s.ID())
	if released {
		svc.logger.Debug("selection released", "resource", r, "conn_id", s.ID())
	}
	return released
}

// CancelReservations 删除调用方在资源 r 上的全部预订
func (svc *Service) CancelReservations(s *session.Session, r int) (int, error) {
	if !svc.catalog.Contains(r) {
		return 0, protocolf(catalog.ErrUnknownResource, "cancel %d", r)
	}
	n, err := svc.store.RemoveOwner(r, s.Identity())
	if err != nil {
		return 0, protocolf(err, "cancel %d", r)
	}
	if n > 0 {
		svc.logger.Info("reservations cancelled", "resource", r, "owner", s.Identity(), "count", n)
	}
	return n, nil
}

// Available 在 dates 指定区间（为空表示今天）内没有预订的资源
func (svc *Service) Available(dates []string) ([]int, error) {
	rng, err := svc.catalog.QueryRange(dates)
	if err != nil {
		return nil, protocolf(err, "available")
	}
	return svc.store.Free(svc.catalog.IDs(), rng), nil
}

// AvailableRow 同 Available，限定在某一排；排号无效返回 catalog.ErrUnknownRow
func (svc *Service) AvailableRow(row int, dates []string) ([]int, error) {
	ids, err := svc.catalog.RowIDs(row)
	if err != nil {
		return nil, err
	}
	rng, err := svc.catalog.QueryRange(dates)
	if err != nil {
		return nil, protocolf(err, "availrow")
	}
	return svc.store.Free(ids, rng), nil
}
