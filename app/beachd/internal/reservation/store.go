package reservation

import (
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/pkg/idgen"
)

var (
	// ErrOverlap 区间与已有预订相交
	ErrOverlap = errors.New("reservation: range overlaps existing reservation")
	// ErrUnknownResource 资源编号越界
	ErrUnknownResource = errors.New("reservation: unknown resource")
)

// Reservation 已提交的预订
type Reservation struct {
	ID        int64         `json:"id"`
	Resource  int           `json:"resource"`
	Range     catalog.Range `json:"-"`
	Owner     string        `json:"owner"`
	CreatedAt time.Time     `json:"created_at"`
}

type bucket struct {
	mu    sync.RWMutex
	items []Reservation // 按 Range.Start 升序，两两不相交
}

func (b *bucket) overlaps(rng catalog.Range) bool {
	// 第一个 Start > rng.End 的位置之前的元素才可能相交，且只需看最后一个
	i, _ := slices.BinarySearchFunc(b.items, rng.End+1, func(r Reservation, d catalog.Date) int {
		return int(r.Range.Start) - int(d)
	})
	return i > 0 && b.items[i-1].Range.End >= rng.Start
}

// Store 内存预订表，每个资源一把锁
type Store struct {
	buckets []bucket
	clock   catalog.Clock
	ids     idgen.Generator
}

// Option 预订表选项
type Option func(*Store)

// WithIDGenerator 指定预订编号生成器，默认进程内自增
func WithIDGenerator(g idgen.Generator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// NewStore 为 size 个资源创建预订表
func NewStore(size int, clock catalog.Clock, opts ...Option) *Store {
	if clock == nil {
		clock = time.Now
	}
	s := &Store{
		buckets: make([]bucket, size),
		clock:   clock,
		ids:     idgen.NewSequence(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) bucket(r int) (*bucket, error) {
	if r < 0 || r >= len(s.buckets) {
		return nil, errors.Wrapf(ErrUnknownResource, "%d", r)
	}
	return &s.buckets[r], nil
}

// Overlaps rng 是否与资源 r 上任一预订相交
func (s *Store) Overlaps(r int, rng catalog.Range) bool {
	b, err := s.bucket(r)
	if err != nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overlaps(rng)
}

// Insert 检查相交并插入，二者在同一把锁内完成
func (s *Store) Insert(r int, rng catalog.Range, owner string) (Reservation, error) {
	b, err := s.bucket(r)
	if err != nil {
		return Reservation{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overlaps(rng) {
		return Reservation{}, errors.Wrapf(ErrOverlap, "resource %d range %s", r, rng)
	}
	id, err := s.ids.NextID()
	if err != nil {
		return Reservation{}, err
	}
	res := Reservation{
		ID:        id,
		Resource:  r,
		Range:     rng,
		Owner:     owner,
		CreatedAt: s.clock(),
	}
	i, _ := slices.BinarySearchFunc(b.items, rng.Start, func(x Reservation, d catalog.Date) int {
		return int(x.Range.Start) - int(d)
	})
	b.items = slices.Insert(b.items, i, res)
	return res, nil
}

// RemoveOwner 删除 owner 在资源 r 上的全部预订，返回删除数量
func (s *Store) RemoveOwner(r int, owner string) (int, error) {
	b, err := s.bucket(r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	before := len(b.items)
	b.items = slices.DeleteFunc(b.items, func(x Reservation) bool {
		return x.Owner == owner
	})
	return before - len(b.items), nil
}

// Free 返回 ids 中在 rng 内没有任何预订的资源
func (s *Store) Free(ids []int, rng catalog.Range) []int {
	free := make([]int, 0, len(ids))
	for _, r := range ids {
		b, err := s.bucket(r)
		if err != nil {
			continue
		}
		b.mu.RLock()
		busy := b.overlaps(rng)
		b.mu.RUnlock()
		if !busy {
			free = append(free, r)
		}
	}
	return free
}

// List 资源 r 上的预订快照
func (s *Store) List(r int) ([]Reservation, error) {
	b, err := s.bucket(r)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items), nil
}

// Count 预订总数
func (s *Store) Count() int {
	n := 0
	for i := range s.buckets {
		b := &s.buckets[i]
		b.mu.RLock()
		n += len(b.items)
		b.mu.RUnlock()
	}
	return n
}

// Prune 删除结束日期早于 before 的预订，返回删除数量
func (s *Store) Prune(before catalog.Date) int {
	n := 0
	for i := range s.buckets {
		b := &s.buckets[i]
		b.mu.Lock()
		old := len(b.items)
		b.items = slices.DeleteFunc(b.items, func(x Reservation) bool {
			return x.Range.End < before
		})
		n += old - len(b.items)
		b.mu.Unlock()
	}
	return n
}
