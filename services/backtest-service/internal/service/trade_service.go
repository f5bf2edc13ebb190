package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/imaging"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/utils"
)

var (
	// ErrTradeNotFound is returned for a trade number outside the trade list
	ErrTradeNotFound = errors.New("trade not found")
	// ErrImageNotFound is returned for an image number outside a trade's images
	ErrImageNotFound = errors.New("image not found")
	// ErrUnknownSize is returned for a thumbnail size that is not configured
	ErrUnknownSize = errors.New("unknown thumbnail size")
	// ErrInvalidQuery is returned for malformed trade list filters
	ErrInvalidQuery = errors.New("invalid trade query")
)

// Trade list sort fields
const (
	SortByIndex = "index"
	SortByTime  = "time"
	SortByPnL   = "pnl"
)

// TradeQuery filters, sorts and paginates a trade list. Empty fields do not
// filter. From and To are inclusive calendar dates (YYYY-MM-DD, UTC).
type TradeQuery struct {
	Result    model.Outcome
	Side      model.Side
	From      string
	To        string
	Search    string
	Sort      string
	Direction string
	Page      utils.Page
}

// TradeSummary is one row of a trade list. Number is the 1-based position
// of the trade in the stored document.
type TradeSummary struct {
	Number     int           `json:"number"`
	Time       *time.Time    `json:"time"`
	Side       model.Side    `json:"side"`
	Result     model.Outcome `json:"result"`
	EntryPrice model.Number  `json:"entry_price"`
	ExitPrice  *model.Number `json:"exit_price,omitempty"`
	PnL        model.Number  `json:"pnl"`
	NetPnL     *float64      `json:"net_pnl"`
	Weekday    string        `json:"weekday,omitempty"`
	Hour       *int          `json:"hour,omitempty"`
	Images     int           `json:"images"`
	Problem    string        `json:"problem,omitempty"`
}

// ImageRef describes an image attached to a trade without its payload
type ImageRef struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// TradeDetail is a single trade with every derived field
type TradeDetail struct {
	TradeSummary
	TakeProfit *model.Number `json:"take_profit,omitempty"`
	StopLoss   *model.Number `json:"stop_loss,omitempty"`
	ImageList  []ImageRef    `json:"image_list"`
}

// TradePage is one page of a filtered trade list
type TradePage struct {
	Items []TradeSummary
	Total int
}

// ListTrades returns a filtered, sorted page of the trades of a backtest
func (s *BacktestService) ListTrades(ctx context.Context, id string, q TradeQuery) (*TradePage, error) {
	from, to, err := parseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	commission := b.Config.Commission
	search := strings.ToLower(strings.TrimSpace(q.Search))

	rows := make([]TradeSummary, 0, len(b.Trades))
	for i, t := range b.Trades {
		row := summarize(i+1, t, commission)

		if q.Result != "" && t.Outcome != q.Result {
			continue
		}
		if q.Side != "" && t.Side != q.Side {
			continue
		}
		if !from.IsZero() || !to.IsZero() {
			if row.Time == nil {
				continue
			}
			if !from.IsZero() && row.Time.Before(from) {
				continue
			}
			if !to.IsZero() && !row.Time.Before(to) {
				continue
			}
		}
		if search != "" && !matches(row, t, search) {
			continue
		}

		rows = append(rows, row)
	}

	sortTrades(rows, q.Sort, q.Direction)

	start, end := q.Page.Bounds(len(rows))
	return &TradePage{Items: rows[start:end], Total: len(rows)}, nil
}

// GetTrade returns the n-th trade (1-based) of a backtest
func (s *BacktestService) GetTrade(ctx context.Context, id string, n int) (*TradeDetail, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := tradeAt(b, n)
	if err != nil {
		return nil, err
	}

	detail := &TradeDetail{
		TradeSummary: summarize(n, t, b.Config.Commission),
		TakeProfit:   t.TakeProfit,
		StopLoss:     t.StopLoss,
		ImageList:    make([]ImageRef, len(t.Images)),
	}
	for i, img := range t.Images {
		detail.ImageList[i] = ImageRef{Number: i + 1, Title: img.Title}
	}
	return detail, nil
}

// TradeImage decodes the img-th image (1-based) of the n-th trade. A non-empty
// size names a configured thumbnail size the image is scaled down to.
func (s *BacktestService) TradeImage(ctx context.Context, id string, n, img int, size string) (*imaging.Image, error) {
	var thumb *config.ThumbnailSize
	if size != "" {
		for i := range s.thumbnails {
			if s.thumbnails[i].Name == size {
				thumb = &s.thumbnails[i]
				break
			}
		}
		if thumb == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSize, size)
		}
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := tradeAt(b, n)
	if err != nil {
		return nil, err
	}
	if img < 1 || img > len(t.Images) {
		return nil, fmt.Errorf("%w: trade %d image %d", ErrImageNotFound, n, img)
	}

	decoded, err := imaging.Decode(t.Images[img-1].Data)
	if err != nil {
		return nil, err
	}
	if thumb == nil {
		return decoded, nil
	}
	return imaging.Thumbnail(decoded, thumb.Width, thumb.Height)
}

func tradeAt(b *model.Backtest, n int) (model.Trade, error) {
	if n < 1 || n > len(b.Trades) {
		return model.Trade{}, fmt.Errorf("%w: %d", ErrTradeNotFound, n)
	}
	return b.Trades[n-1], nil
}

func summarize(n int, t model.Trade, commission float64) TradeSummary {
	row := TradeSummary{
		Number:     n,
		Side:       t.Side,
		Result:     t.Outcome,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		PnL:        t.PnL,
		Images:     len(t.Images),
		Problem:    t.Problem(),
	}
	if at, ok := t.Time(); ok {
		hour := at.Hour()
		row.Time = &at
		row.Weekday = model.WeekdayKey(at)
		row.Hour = &hour
	}
	if pnl, ok := t.PnL.Float(); ok {
		net := pnl - commission
		row.NetPnL = &net
	}
	return row
}

func matches(row TradeSummary, t model.Trade, term string) bool {
	if strconv.Itoa(row.Number) == term {
		return true
	}
	if strings.Contains(strings.ToLower(string(t.Side)), term) ||
		strings.Contains(strings.ToLower(string(t.Outcome)), term) {
		return true
	}
	for _, img := range t.Images {
		if strings.Contains(strings.ToLower(img.Title), term) {
			return true
		}
	}
	return false
}

// sortTrades orders rows in place. Rows without a timestamp or numeric P&L
// sort after every other row regardless of direction.
func sortTrades(rows []TradeSummary, field, direction string) {
	field = utils.NormalizeSortField(field, SortByIndex, SortByTime, SortByPnL)
	desc := utils.NormalizeSortDirection(direction, utils.SortAsc) == utils.SortDesc

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch field {
		case SortByTime:
			if (a.Time == nil) != (b.Time == nil) {
				return b.Time == nil
			}
			if a.Time == nil || a.Time.Equal(*b.Time) {
				return false
			}
			return a.Time.Before(*b.Time) != desc
		case SortByPnL:
			if (a.NetPnL == nil) != (b.NetPnL == nil) {
				return b.NetPnL == nil
			}
			if a.NetPnL == nil || *a.NetPnL == *b.NetPnL {
				return false
			}
			return (*a.NetPnL < *b.NetPnL) != desc
		default:
			return (a.Number < b.Number) != desc
		}
	})
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	if from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.UTC)
		if err != nil {
			return start, end, fmt.Errorf("%w: from %q is not a YYYY-MM-DD date", ErrInvalidQuery, from)
		}
		start = t
	}
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.UTC)
		if err != nil {
			return start, end, fmt.Errorf("%w: to %q is not a YYYY-MM-DD date", ErrInvalidQuery, to)
		}
		end = t.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return start, end, fmt.Errorf("%w: from is after to", ErrInvalidQuery)
	}
	return start, end, nil
}
