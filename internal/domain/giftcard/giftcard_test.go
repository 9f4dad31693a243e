package giftcard

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AssignsIDAndTrimsStoreName(t *testing.T) {
	expiry := Date{Year: 2026, Month: time.November, Day: 18}

	card, err := New(42, "  IKEA \n", decimal.NewFromInt(500), expiry)
	require.NoError(t, err)

	assert.NotEmpty(t, card.ID)
	assert.Equal(t, int64(42), card.OwnerID)
	assert.Equal(t, "IKEA", card.StoreName)
	assert.True(t, card.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, expiry, card.ExpiryDate)

	other, err := New(42, "IKEA", decimal.NewFromInt(500), expiry)
	require.NoError(t, err)
	assert.NotEqual(t, card.ID, other.ID)
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	expiry := Date{Year: 2026, Month: time.November, Day: 18}

	tests := []struct {
		name      string
		storeName string
		amount    decimal.Decimal
		expiry    Date
		field     string
	}{
		{"empty store name", "", decimal.NewFromInt(10), expiry, "store name"},
		{"blank store name", "   \t", decimal.NewFromInt(10), expiry, "store name"},
		{"zero amount", "IKEA", decimal.Zero, expiry, "amount"},
		{"negative amount", "IKEA", decimal.NewFromInt(-5), expiry, "amount"},
		{"missing expiry", "IKEA", decimal.NewFromInt(10), Date{}, "expiry date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := New(1, tt.storeName, tt.amount, tt.expiry)
			assert.Nil(t, card)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "500", want: "500"},
		{input: "12,5", want: "12.5"},
		{input: "12.5", want: "12.5"},
		{input: " 1 000,25 ", want: "1000.25"},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				var validationErr *ValidationError
				assert.True(t, errors.As(err, &validationErr))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := Date{Year: 2026, Month: time.December, Day: 31}

	for _, input := range []string{"2026-12-31", "31.12.2026", "31/12/2026", " 2026-12-31 "} {
		got, err := ParseDate(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseDate("next tuesday")
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestDate_Arithmetic(t *testing.T) {
	d := Date{Year: 2026, Month: time.October, Day: 19}

	assert.Equal(t, Date{Year: 2026, Month: time.November, Day: 18}, d.AddDays(30))
	assert.Equal(t, Date{Year: 2026, Month: time.October, Day: 12}, d.AddDays(-7))
	assert.Equal(t, Date{Year: 2027, Month: time.April, Day: 19}, d.AddMonths(6))
	assert.Equal(t, "2026-10-19", d.String())

	assert.Equal(t, -1, d.Compare(d.AddDays(1)))
	assert.Equal(t, 0, d.Compare(d))
	assert.Equal(t, 1, d.AddDays(1).Compare(d))

	loc := time.FixedZone("CET", 3600)
	assert.Equal(t, time.Date(2026, time.October, 19, 9, 0, 0, 0, loc), d.At(9, 0, loc))
}

func TestDate_ScanAndValue(t *testing.T) {
	want := Date{Year: 2026, Month: time.November, Day: 18}

	var fromTime Date
	require.NoError(t, fromTime.Scan(time.Date(2026, time.November, 18, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, want, fromTime)

	var fromString Date
	require.NoError(t, fromString.Scan("2026-11-18"))
	assert.Equal(t, want, fromString)

	var fromBytes Date
	require.NoError(t, fromBytes.Scan([]byte("2026-11-18T00:00:00Z")))
	assert.Equal(t, want, fromBytes)

	var fromNil Date
	assert.Error(t, fromNil.Scan(nil))

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-11-18", v)
}
