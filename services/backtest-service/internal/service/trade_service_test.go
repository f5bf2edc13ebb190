package service

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/store"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(page *TradePage) []int {
	out := make([]int, len(page.Items))
	for i, row := range page.Items {
		out[i] = row.Number
	}
	return out
}

func TestListTrades(t *testing.T) {
	svc, _, _ := newTestService(t)
	seed(t, svc, "run-1")
	all := utils.Page{Number: 1, Size: 50}

	tests := []struct {
		name  string
		query TradeQuery
		want  []int
		total int
	}{
		{"default order", TradeQuery{}, []int{1, 2, 3, 4}, 4},
		{"wins only", TradeQuery{Result: model.OutcomeTP}, []int{1, 3, 4}, 3},
		{"sell side", TradeQuery{Side: model.SideSell}, []int{2, 4}, 2},
		{"single day", TradeQuery{From: "2024-01-16", To: "2024-01-16"}, []int{2}, 1},
		{"open ended range", TradeQuery{From: "2024-01-16"}, []int{2, 3}, 2},
		{"search outcome", TradeQuery{Search: "sl"}, []int{2}, 1},
		{"search number", TradeQuery{Search: "3"}, []int{3}, 1},
		{"search image title", TradeQuery{Search: "entry"}, []int{1}, 1},
		{"time desc", TradeQuery{Sort: "time", Direction: "desc"}, []int{3, 2, 1, 4}, 4},
		{"time asc", TradeQuery{Sort: "time", Direction: "asc"}, []int{1, 2, 3, 4}, 4},
		{"pnl desc", TradeQuery{Sort: "pnl", Direction: "DESC"}, []int{1, 3, 4, 2}, 4},
		{"index desc", TradeQuery{Direction: "desc"}, []int{4, 3, 2, 1}, 4},
		{"second page", TradeQuery{Page: utils.Page{Number: 2, Size: 3}}, []int{4}, 4},
		{"past last page", TradeQuery{Page: utils.Page{Number: 5, Size: 3}}, []int{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			if q.Page == (utils.Page{}) {
				q.Page = all
			}
			page, err := svc.ListTrades(context.Background(), "run-1", q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, numbers(page))
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestListTrades_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "run-1")
	page := utils.Page{Number: 1, Size: 10}

	_, err := svc.ListTrades(ctx, "run-1", TradeQuery{From: "16/01/2024", Page: page})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.ListTrades(ctx, "run-1", TradeQuery{From: "2024-02-01", To: "2024-01-01", Page: page})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.ListTrades(ctx, "missing", TradeQuery{Page: page})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetTrade(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "run-1")

	d, err := svc.GetTrade(ctx, "run-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Number)
	assert.Equal(t, "Monday", d.Weekday)
	require.NotNil(t, d.Hour)
	assert.Equal(t, 10, *d.Hour)
	require.NotNil(t, d.NetPnL)
	assert.InDelta(t, 48.0, *d.NetPnL, 1e-9)
	require.NotNil(t, d.ExitPrice)
	assert.Equal(t, []ImageRef{{Number: 1, Title: "Entry M15"}}, d.ImageList)
	assert.Empty(t, d.Problem)

	d, err = svc.GetTrade(ctx, "run-1", 4)
	require.NoError(t, err)
	assert.Nil(t, d.Time)
	assert.Nil(t, d.Hour)
	assert.Equal(t, "invalid timestamp", d.Problem)
	assert.Empty(t, d.ImageList)

	for _, n := range []int{0, 5} {
		_, err = svc.GetTrade(ctx, "run-1", n)
		assert.ErrorIs(t, err, ErrTradeNotFound)
	}
}

func TestTradeImage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "run-1")

	img, err := svc.TradeImage(ctx, "run-1", 1, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	thumb, err := svc.TradeImage(ctx, "run-1", 1, 1, "small")
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(thumb.Data))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)

	_, err = svc.TradeImage(ctx, "run-1", 1, 1, "huge")
	assert.ErrorIs(t, err, ErrUnknownSize)

	_, err = svc.TradeImage(ctx, "run-1", 1, 2, "")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = svc.TradeImage(ctx, "run-1", 2, 1, "")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = svc.TradeImage(ctx, "run-1", 9, 1, "")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}
