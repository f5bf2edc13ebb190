package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		valid bool
		value float64
	}{
		{`12.5`, true, 12.5},
		{`-3`, true, -3},
		{`"42.1"`, true, 42.1},
		{`" 7 "`, true, 7},
		{`null`, false, 0},
		{`"n/a"`, false, 0},
		{`""`, false, 0},
		{`"NaN"`, false, 0},
		{`true`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.valid, n.Valid())
			assert.Equal(t, tt.value, n.Value())
		})
	}
}

func TestNumber_MarshalKeepsInvalidInput(t *testing.T) {
	var trade struct {
		PnL Number `json:"P&L"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"P&L": "n/a"}`), &trade))

	out, err := json.Marshal(trade)
	require.NoError(t, err)
	assert.JSONEq(t, `{"P&L": "n/a"}`, string(out))

	out, err = json.Marshal(NewNumber(1.5))
	require.NoError(t, err)
	assert.Equal(t, "1.5", string(out))

	out, err = json.Marshal(Number{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	for _, s := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T11:30:00+01:00",
		"2024-01-15T10:30:00",
		"2024-01-15 10:30:00",
		"2024-01-15 10:30",
		" 2024-01-15T10:30:00.000 ",
	} {
		got, ok := ParseTimestamp(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
		assert.Equal(t, time.UTC, got.Location(), s)
	}

	for _, s := range []string{"", "yesterday", "15/01/2024 10:30"} {
		_, ok := ParseTimestamp(s)
		assert.False(t, ok, s)
	}
}

func TestTrade_Validity(t *testing.T) {
	valid := Trade{Outcome: "BE", Timestamp: "2024-01-15 10:30:00", PnL: NewNumber(0)}
	assert.True(t, valid.Valid(), "unknown outcomes do not invalidate a trade")
	assert.Empty(t, valid.Problem())
	assert.False(t, valid.Outcome.Known())
	assert.False(t, valid.Outcome.IsWin())
	assert.False(t, valid.Outcome.IsLoss())
	assert.True(t, OutcomeTP.IsWin())
	assert.True(t, OutcomeSL.IsLoss())

	badTime := Trade{Outcome: OutcomeTP, Timestamp: "soon", PnL: NewNumber(1)}
	assert.False(t, badTime.Valid())
	assert.Equal(t, "invalid timestamp", badTime.Problem())

	badPnL := Trade{Outcome: OutcomeSL, Timestamp: "2024-01-15 10:30:00"}
	assert.False(t, badPnL.Valid())
	assert.Equal(t, "non-numeric P&L", badPnL.Problem())
}

func TestTrade_TolerantDecoding(t *testing.T) {
	input := `{"ORDEN": "BUY", "RESULTADO": 1, "ENTRADA": 1.1, "SALIDA": "n/a", "TP": 1.2,
	           "HORA": 1704182400, "P&L": 12, "IMAGE": "chart.png"}`

	var trade Trade
	require.NoError(t, json.Unmarshal([]byte(input), &trade))

	assert.Equal(t, SideBuy, trade.Side)
	assert.Empty(t, trade.Outcome)
	assert.Equal(t, 1.1, trade.EntryPrice.Value())
	require.NotNil(t, trade.ExitPrice)
	assert.False(t, trade.ExitPrice.Valid())
	assert.Equal(t, 1.2, trade.TakeProfit.Value())
	assert.Nil(t, trade.StopLoss)
	assert.Empty(t, trade.Timestamp)
	assert.Nil(t, trade.Images)

	assert.False(t, trade.Valid())
	assert.Equal(t, "invalid timestamp", trade.Problem())
	assert.Equal(t, []FieldIssue{
		{Field: "RESULTADO", Expected: "string", Got: "number"},
		{Field: "HORA", Expected: "string", Got: "number"},
		{Field: "IMAGE", Expected: "array of images", Got: "string"},
		{Field: "SALIDA", Expected: "number", Got: "string"},
	}, trade.Issues())

	out, err := json.Marshal(trade)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out), "unexpected values are written back as read")
}

func TestTrade_NonObjectRecord(t *testing.T) {
	var trades []Trade
	require.NoError(t, json.Unmarshal([]byte(`[5, {"HORA": "2024-01-15 10:30:00", "P&L": 1}]`), &trades))
	require.Len(t, trades, 2)

	assert.Equal(t, "not an object", trades[0].Problem())
	assert.Equal(t, []FieldIssue{{Expected: "object", Got: "number"}}, trades[0].Issues())
	assert.True(t, trades[1].Valid())
	assert.Empty(t, trades[1].Issues())

	out, err := json.Marshal(trades[0])
	require.NoError(t, err)
	assert.Equal(t, "5", string(out))
}

func TestCalendarKeys(t *testing.T) {
	at := time.Date(2024, 8, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sunday", WeekdayKey(at))
	assert.Equal(t, "Ago", MonthKey(at))
	assert.Len(t, MonthKeys, 12)
	assert.Equal(t, "Monday", Weekdays[0])
}
