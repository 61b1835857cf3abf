package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := ParseISO(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseISO(t *testing.T) {
	_, err := ParseISO("01/02/2024")
	assert.Error(t, err)

	got, err := ParseISO("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "29022024", got.Format(Compact))
}

func TestMonthEnd(t *testing.T) {
	assert.Equal(t, d("2024-02-29"), MonthEnd(d("2024-02-01")))
	assert.Equal(t, d("2023-02-28"), MonthEnd(d("2023-02-15")))
	assert.Equal(t, d("2023-12-31"), MonthEnd(d("2023-12-01")))
}

func TestMonthlyGroupsPerYear(t *testing.T) {
	today := d("2030-01-01")
	groups := Monthly(d("2022-11-15"), d("2024-02-10"), today)
	require.Len(t, groups, 3)

	assert.Equal(t, d("2022-11-01"), groups[0].Start)
	assert.Equal(t, d("2022-12-31"), groups[0].End)
	assert.Len(t, groups[0].Months, 2)

	assert.Len(t, groups[1].Months, 12)
	assert.Equal(t, d("2023-12-31"), groups[1].End)

	assert.Equal(t, []time.Time{d("2024-01-01"), d("2024-02-01")}, groups[2].Months)
	assert.Equal(t, d("2024-02-29"), groups[2].End)
}

func TestMonthlyClampsToToday(t *testing.T) {
	groups := Monthly(d("2024-01-01"), d("2024-12-31"), time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC))
	require.Len(t, groups, 1)
	assert.Equal(t, d("2024-03-10"), groups[0].End)
	assert.Equal(t, []time.Time{d("2024-01-01"), d("2024-02-01"), d("2024-03-01")}, groups[0].Months)
}

func TestMonthlyDropsFutureMonths(t *testing.T) {
	groups := Monthly(d("2026-01-01"), d("2027-06-30"), d("2026-10-15"))
	require.Len(t, groups, 1)
	assert.Equal(t, d("2026-01-01"), groups[0].Start)
	assert.Equal(t, d("2026-10-15"), groups[0].End)
	require.Len(t, groups[0].Months, 10)
	assert.Equal(t, d("2026-10-01"), groups[0].Months[9])

	assert.Empty(t, Monthly(d("2027-01-01"), d("2027-06-30"), d("2026-10-15")))
}

func TestWhole(t *testing.T) {
	g := Whole(d("2023-01-01"), d("2023-12-31"), d("2023-06-30"))
	require.Len(t, g, 1)
	assert.Equal(t, d("2023-06-30"), g[0].End)
	assert.Empty(t, g[0].Months)

	assert.Nil(t, Whole(d("2023-02-01"), d("2023-01-01"), d("2030-01-01")))
	assert.Nil(t, Whole(d("2027-01-01"), d("2027-12-31"), d("2026-10-15")))
}

func TestRowNames(t *testing.T) {
	assert.Equal(t, "01.03.png", RowTemplate(d("2024-03-01")))
	assert.Equal(t, "01.11.png", RowTemplate(d("2024-11-20")))
	assert.Equal(t, "01/11/2024", RowText(d("2024-11-20")))
}
