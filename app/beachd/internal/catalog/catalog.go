package catalog

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// Season 营业季配置：Rows 排，每排 Cols 把伞，编号 0..Rows*Cols-1
type Season struct {
	Rows  int  `mapstructure:"rows" validate:"gt=0"`
	Cols  int  `mapstructure:"cols" validate:"gt=0"`
	Start Date `mapstructure:"start"`
	End   Date `mapstructure:"end"`
}

// DefaultSeason 默认 10×10，2017 年 6 月 1 日至 9 月 30 日
func DefaultSeason() Season {
	return Season{
		Rows:  10,
		Cols:  10,
		Start: NewDate(2017, time.June, 1),
		End:   NewDate(2017, time.September, 30),
	}
}

// Validate 检查排列数与起止日期
func (s Season) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return errors.Wrapf(ErrInvalidSeason, "rows=%d cols=%d", s.Rows, s.Cols)
	}
	if s.Start > s.End {
		return errors.Wrapf(ErrInvalidSeason, "start %s after end %s", s.Start, s.End)
	}
	if s.Start.Year() != s.End.Year() {
		return errors.Wrapf(ErrInvalidSeason, "season spans years %d-%d", s.Start.Year(), s.End.Year())
	}
	return nil
}

// Clock 时间源
type Clock func() time.Time

// Catalog 资源目录，创建后不可变，可并发读
type Catalog struct {
	season Season
	clock  Clock
}

// New 创建资源目录，clock 为 nil 时使用 time.Now
func New(season Season, clock Clock) (*Catalog, error) {
	if err := season.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return &Catalog{season: season, clock: clock}, nil
}

// Season 返回营业季配置
func (c *Catalog) Season() Season { return c.season }

// Size 资源总数
func (c *Catalog) Size() int { return c.season.Rows * c.season.Cols }

// Rows 排数
func (c *Catalog) Rows() int { return c.season.Rows }

// Contains r 是否在目录内
func (c *Catalog) Contains(r int) bool {
	return r >= 0 && r < c.Size()
}

// Row r 所在排
func (c *Catalog) Row(r int) int {
	return r / c.season.Cols
}

// RowIDs 指定排的所有资源编号
func (c *Catalog) RowIDs(row int) ([]int, error) {
	if row < 0 || row >= c.season.Rows {
		return nil, errors.Wrapf(ErrUnknownRow, "%d", row)
	}
	ids := make([]int, c.season.Cols)
	for i := range ids {
		ids[i] = row*c.season.Cols + i
	}
	return ids, nil
}

// IDs 全部资源编号
func (c *Catalog) IDs() []int {
	ids := make([]int, c.Size())
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// ParseResource 解析资源编号
func (c *Catalog) ParseResource(s string) (int, error) {
	r, err := strconv.Atoi(s)
	if err != nil || !c.Contains(r) {
		return 0, errors.Wrapf(ErrUnknownResource, "%q", s)
	}
	return r, nil
}

// ParseRow 解析排号
func (c *Catalog) ParseRow(s string) (int, error) {
	row, err := strconv.Atoi(s)
	if err != nil || row < 0 || row >= c.season.Rows {
		return 0, errors.Wrapf(ErrUnknownRow, "%q", s)
	}
	return row, nil
}

// Today 当前日历日
func (c *Catalog) Today() Date {
	return DateOf(c.clock())
}

// InSeason d 是否位于营业季 [Start, End]
func (c *Catalog) InSeason(d Date) bool {
	return c.season.Start <= d && d <= c.season.End
}

// ParseSeasonDate 解析日期并要求其位于营业季内
func (c *Catalog) ParseSeasonDate(s string) (Date, error) {
	d, err := ParseDate(s)
	if err != nil {
		return 0, err
	}
	if !c.InSeason(d) {
		return 0, errors.Wrapf(ErrOutOfSeason, "%s not in %s-%s", d, c.season.Start, c.season.End)
	}
	return d, nil
}

// ParseRange 解析一个或两个日期为闭区间；一个日期表示 [d, d]
func (c *Catalog) ParseRange(args []string) (Range, error) {
	switch len(args) {
	case 1:
		d, err := c.ParseSeasonDate(args[0])
		if err != nil {
			return Range{}, err
		}
		return Day(d), nil
	case 2:
		start, err := c.ParseSeasonDate(args[0])
		if err != nil {
			return Range{}, err
		}
		end, err := c.ParseSeasonDate(args[1])
		if err != nil {
			return Range{}, err
		}
		rng := Range{Start: start, End: end}
		if !rng.Valid() {
			return Range{}, errors.Wrapf(ErrBadRange, "%s", rng)
		}
		return rng, nil
	default:
		return Range{}, errors.Wrapf(ErrBadDate, "expected 1 or 2 dates, got %d", len(args))
	}
}

// QueryRange 查询用区间：无参数时为今天
func (c *Catalog) QueryRange(args []string) (Range, error) {
	if len(args) == 0 {
		return Day(c.Today()), nil
	}
	return c.ParseRange(args)
}
