package catalog

import (
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
)

const (
	// DateLayout 输出格式，始终补零
	DateLayout = "02/01/2006"
	// 输入允许省略前导零，如 1/8/2017
	inputLayout = "2/1/2006"
)

// Date 自 1970-01-01 起的天数，零值即纪元日
type Date int32

// NewDate 由年月日构造
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf 取 t 在其所在时区的日历日
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date(u.Unix() / 86400)
}

// ParseDate 解析 dd/mm/yyyy
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(inputLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(ErrBadDate, "%q", s)
	}
	return DateOf(t), nil
}

// Time 返回当天 00:00 UTC
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// Year 所在年份
func (d Date) Year() int {
	return d.Time().Year()
}

// AddDays 加减天数
func (d Date) AddDays(n int) Date {
	return d + Date(n)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// Range 闭区间 [Start, End]
type Range struct {
	Start Date
	End   Date
}

// Day 单日区间 [d, d]
func Day(d Date) Range {
	return Range{Start: d, End: d}
}

// Overlaps 两个闭区间是否相交
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// Contains d 是否落在区间内
func (r Range) Contains(d Date) bool {
	return r.Start <= d && d <= r.End
}

// Valid Start 不晚于 End
func (r Range) Valid() bool {
	return r.Start <= r.End
}

func (r Range) String() string {
	if r.Start == r.End {
		return r.Start.String()
	}
	return r.Start.String() + "-" + r.End.String()
}

var dateType = reflect.TypeOf(Date(0))

// StringToDateHookFunc 配置解码钩子：把 "dd/mm/yyyy" 字符串解码为 Date
func StringToDateHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != dateType {
			return data, nil
		}
		return ParseDate(data.(string))
	}
}
