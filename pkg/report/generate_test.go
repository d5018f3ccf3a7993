package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemsCSV = `Location,Order Id,Order Date,Menu Item,Qty,Net Price,Void?
Downtown,1001,2025-12-24 11:05:00,Burger,1,12.50,false
Downtown,1001,2025-12-24 11:05:00,Fries,2,7.00,false
Downtown,1002,2025-12-24 11:40:00,Salad,1,9.25,false
Downtown,1003,2025-12-24 13:15:00,Burger,1,12.50,false
Downtown,1004,2025-12-24 13:59:00,Soda,3,"6.75",false
`

const modifiersCSV = `Location,Order Id,Order Date,Modifier,Qty,Net Price,Void?
Downtown,1001,2025-12-24 11:05:00,Extra Cheese,1,1.50,false
Downtown,1003,2025-12-24 13:15:00,Bacon,1,2.00,false
`

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestGenerate_HourlyBuckets(t *testing.T) {
	rep, err := Generate(strings.NewReader(itemsCSV), strings.NewReader(modifiersCSV), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "Downtown", rep.Location)
	assert.True(t, time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC).Equal(rep.Date))
	require.Len(t, rep.Rows, 2)

	eleven := rep.Rows[0]
	assert.True(t, time.Date(2025, time.December, 24, 11, 0, 0, 0, time.UTC).Equal(eleven.IntervalStart))
	assert.Equal(t, 2, eleven.Orders)
	assert.True(t, dec(t, "4").Equal(eleven.ItemQty), "qty: %s", eleven.ItemQty)
	assert.True(t, dec(t, "28.75").Equal(eleven.NetSales), "net: %s", eleven.NetSales)
	assert.True(t, dec(t, "1.50").Equal(eleven.ModifierSales))
	assert.True(t, dec(t, "30.25").Equal(eleven.Total()))

	thirteen := rep.Rows[1]
	assert.True(t, time.Date(2025, time.December, 24, 13, 0, 0, 0, time.UTC).Equal(thirteen.IntervalStart))
	assert.Equal(t, 2, thirteen.Orders)
	assert.True(t, dec(t, "19.25").Equal(thirteen.NetSales))
	assert.True(t, dec(t, "2.00").Equal(thirteen.ModifierSales))
}

func TestGenerate_ThirtyMinuteBuckets(t *testing.T) {
	rep, err := Generate(strings.NewReader(itemsCSV), strings.NewReader(modifiersCSV), 30*time.Minute)
	require.NoError(t, err)

	// 11:05 and 11:40 land in different half-hour buckets.
	require.Len(t, rep.Rows, 4)
	assert.True(t, time.Date(2025, time.December, 24, 11, 0, 0, 0, time.UTC).Equal(rep.Rows[0].IntervalStart))
	assert.True(t, time.Date(2025, time.December, 24, 11, 30, 0, 0, time.UTC).Equal(rep.Rows[1].IntervalStart))
	assert.True(t, time.Date(2025, time.December, 24, 13, 0, 0, 0, time.UTC).Equal(rep.Rows[2].IntervalStart))
	assert.True(t, time.Date(2025, time.December, 24, 13, 30, 0, 0, time.UTC).Equal(rep.Rows[3].IntervalStart))
}

func TestGenerate_Empty(t *testing.T) {
	tests := []struct {
		name  string
		items string
	}{
		{
			name:  "no_rows",
			items: "Location,Order Id,Order Date,Qty,Net Price\n",
		},
		{
			name:  "no_content",
			items: "",
		},
		{
			name: "all_rows_voided",
			items: `Location,Order Id,Order Date,Qty,Net Price,Void?
Downtown,1001,2025-12-24 11:05:00,1,12.50,true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(strings.NewReader(tt.items), strings.NewReader(""), time.Hour)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEmpty)
		})
	}
}

func TestGenerate_MalformedExports(t *testing.T) {
	tests := []struct {
		name      string
		items     string
		modifiers string
		wantIn    string
	}{
		{
			name:   "missing_required_column",
			items:  "Location,Order Id,Order Date,Qty\nDowntown,1,2025-12-24 11:00:00,1\n",
			wantIn: "missing required column",
		},
		{
			name:   "unparsable_order_date",
			items:  "Location,Order Id,Order Date,Qty,Net Price\nDowntown,1,yesterday,1,5.00\n",
			wantIn: "unparsable order date",
		},
		{
			name:   "unparsable_price",
			items:  "Location,Order Id,Order Date,Qty,Net Price\nDowntown,1,2025-12-24 11:00:00,1,twelve\n",
			wantIn: "unparsable net price",
		},
		{
			name:      "broken_modifier_export",
			items:     itemsCSV,
			modifiers: "Modifier,Qty\nBacon,1\n",
			wantIn:    "missing required column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(strings.NewReader(tt.items), strings.NewReader(tt.modifiers), time.Hour)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrEmpty)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

func TestGenerate_MoneyFormats(t *testing.T) {
	items := `Location,Order Id,Order Date,Qty,Net Price
Downtown,1,2025-12-24 11:00:00,1,"$1,250.00"
Downtown,2,2025-12-24 11:30:00,1,(10.00)
Downtown,3,2025-12-24 11:45:00,1,
`
	rep, err := Generate(strings.NewReader(items), strings.NewReader(""), time.Hour)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.True(t, dec(t, "1240.00").Equal(rep.Rows[0].NetSales), "net: %s", rep.Rows[0].NetSales)
	assert.Equal(t, 3, rep.Rows[0].Orders)
}

func TestGenerate_AMPMLayout(t *testing.T) {
	items := `Location,Order Id,Order Date,Qty,Net Price
Downtown,1,12/24/25 1:15 PM,1,5.00
`
	rep, err := Generate(strings.NewReader(items), strings.NewReader(""), time.Hour)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.True(t, time.Date(2025, time.December, 24, 13, 0, 0, 0, time.UTC).Equal(rep.Rows[0].IntervalStart))
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      time.Duration
		wantError bool
	}{
		{name: "one_hour", input: "1h", want: time.Hour},
		{name: "thirty_minutes", input: "30m", want: 30 * time.Minute},
		{name: "fifteen_minutes", input: "15m", want: 15 * time.Minute},
		{name: "uneven_divisor", input: "7h", wantError: true},
		{name: "too_small", input: "30s", wantError: true},
		{name: "garbage", input: "hourly", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
