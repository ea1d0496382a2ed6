package catalog

import (
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(DefaultSeason(), fixedClock(time.Date(2017, time.July, 15, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	return c
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"01/08/2017", "01/08/2017", false},
		{"1/08/2017", "01/08/2017", false},
		{"1/8/2017", "01/08/2017", false},
		{"31/12/2017", "31/12/2017", false},
		{"32/01/2017", "", true},
		{"2017-08-01", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.err {
				assert.True(t, errors.Is(err, ErrBadDate))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestRangeOverlaps(t *testing.T) {
	d := NewDate(2017, time.August, 1)
	a := Range{Start: d, End: d.AddDays(2)}

	assert.True(t, a.Overlaps(Day(d)))
	assert.True(t, a.Overlaps(Day(d.AddDays(2))))
	assert.True(t, a.Overlaps(Range{Start: d.AddDays(-5), End: d.AddDays(10)}))
	assert.False(t, a.Overlaps(Day(d.AddDays(3))))
	assert.False(t, a.Overlaps(Day(d.AddDays(-1))))
	assert.True(t, a.Contains(d.AddDays(1)))
	assert.Equal(t, "01/08/2017-03/08/2017", a.String())
}

func TestSeasonValidate(t *testing.T) {
	assert.NoError(t, DefaultSeason().Validate())

	s := DefaultSeason()
	s.Rows = 0
	assert.True(t, errors.Is(s.Validate(), ErrInvalidSeason))

	s = DefaultSeason()
	s.Start, s.End = s.End, s.Start
	assert.True(t, errors.Is(s.Validate(), ErrInvalidSeason))

	s = DefaultSeason()
	s.End = NewDate(2018, time.January, 2)
	assert.True(t, errors.Is(s.Validate(), ErrInvalidSeason))
}

func TestCatalogResources(t *testing.T) {
	c := newCatalog(t)

	assert.Equal(t, 100, c.Size())
	assert.True(t, c.Contains(0))
	assert.True(t, c.Contains(99))
	assert.False(t, c.Contains(100))
	assert.False(t, c.Contains(-1))
	assert.Equal(t, 1, c.Row(12))

	ids, err := c.RowIDs(2)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 21, 22, 23, 24, 25, 26, 27, 28, 29}, ids)
	_, err = c.RowIDs(10)
	assert.True(t, errors.Is(err, ErrUnknownRow))

	r, err := c.ParseResource("12")
	require.NoError(t, err)
	assert.Equal(t, 12, r)
	for _, bad := range []string{"100", "-1", "abc"} {
		_, err := c.ParseResource(bad)
		assert.True(t, errors.Is(err, ErrUnknownResource), bad)
	}

	_, err = c.ParseRow("x")
	assert.True(t, errors.Is(err, ErrUnknownRow))
}

func TestCatalogRanges(t *testing.T) {
	c := newCatalog(t)

	rng, err := c.ParseRange([]string{"1/08/2017"})
	require.NoError(t, err)
	assert.Equal(t, Day(NewDate(2017, time.August, 1)), rng)

	rng, err = c.ParseRange([]string{"01/08/2017", "05/08/2017"})
	require.NoError(t, err)
	assert.Equal(t, NewDate(2017, time.August, 5), rng.End)

	_, err = c.ParseRange([]string{"05/08/2017", "01/08/2017"})
	assert.True(t, errors.Is(err, ErrBadRange))

	_, err = c.ParseRange([]string{"01/01/2017"})
	assert.True(t, errors.Is(err, ErrOutOfSeason))

	_, err = c.ParseRange([]string{"01/08/2018"})
	assert.True(t, errors.Is(err, ErrOutOfSeason))

	_, err = c.ParseRange(nil)
	assert.True(t, errors.Is(err, ErrBadDate))

	rng, err = c.QueryRange(nil)
	require.NoError(t, err)
	assert.Equal(t, "15/07/2017", rng.String())
}

func TestStringToDateHook(t *testing.T) {
	var out struct {
		Start Date `mapstructure:"start"`
		Rows  int  `mapstructure:"rows"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: StringToDateHookFunc(),
		Result:     &out,
	})
	require.NoError(t, err)
	require.NoError(t, dec.Decode(map[string]any{"start": "01/06/2017", "rows": 3}))
	assert.Equal(t, NewDate(2017, time.June, 1), out.Start)
	assert.Equal(t, 3, out.Rows)

	hook := StringToDateHookFunc().(func(reflect.Type, reflect.Type, any) (any, error))
	_, err = hook(reflect.TypeOf(""), dateType, "nope")
	assert.Error(t, err)
}
