package catalog

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownResource 编号不在目录内
	ErrUnknownResource = errors.New("catalog: unknown resource")
	// ErrUnknownRow 排号不在目录内
	ErrUnknownRow = errors.New("catalog: unknown row")
	// ErrBadDate 日期格式错误
	ErrBadDate = errors.New("catalog: malformed date")
	// ErrOutOfSeason 日期不在营业季内
	ErrOutOfSeason = errors.New("catalog: date outside season")
	// ErrBadRange 起始日期晚于结束日期
	ErrBadRange = errors.New("catalog: start after end")
	// ErrInvalidSeason 营业季配置无效
	ErrInvalidSeason = errors.New("catalog: invalid season")
)
