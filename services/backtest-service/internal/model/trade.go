package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Side of an executed position
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Outcome of a closed position
type Outcome string

const (
	OutcomeTP Outcome = "TP"
	OutcomeSL Outcome = "SL"
)

// IsWin reports whether the outcome is a take-profit
func (o Outcome) IsWin() bool { return o == OutcomeTP }

// IsLoss reports whether the outcome is a stop-loss
func (o Outcome) IsLoss() bool { return o == OutcomeSL }

// Known reports whether the outcome is one of TP or SL
func (o Outcome) Known() bool { return o == OutcomeTP || o == OutcomeSL }

// TradeImage is a chart snapshot attached to a trade
type TradeImage struct {
	Title string `json:"titulo"`
	Data  string `json:"imagen"`
}

// Trade represents one executed position of a backtest run.
// Values of an unexpected JSON type are kept as written so the record
// survives a round trip and is excluded from computations instead of
// failing the whole document.
type Trade struct {
	Side       Side         `json:"ORDEN"`
	Outcome    Outcome      `json:"RESULTADO"`
	EntryPrice Number       `json:"ENTRADA"`
	ExitPrice  *Number      `json:"SALIDA,omitempty"`
	TakeProfit *Number      `json:"TP,omitempty"`
	StopLoss   *Number      `json:"SL,omitempty"`
	Timestamp  string       `json:"HORA"`
	PnL        Number       `json:"P&L"`
	Images     []TradeImage `json:"IMAGE,omitempty"`

	raw map[string]json.RawMessage
}

const (
	sideField      = "ORDEN"
	outcomeField   = "RESULTADO"
	timestampField = "HORA"
	imagesField    = "IMAGE"

	// wholeRecord keys a trade that is not a JSON object at all
	wholeRecord = ""
)

// FieldIssue is a trade value whose JSON type did not match the field
type FieldIssue struct {
	// Field is empty when the record itself is not an object
	Field    string
	Expected string
	Got      string
}

type tradeFields Trade

// UnmarshalJSON implements json.Unmarshaler
func (t *Trade) UnmarshalJSON(data []byte) error {
	*t = Trade{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		t.keep(wholeRecord, trimmed)
		return nil
	}

	aux := struct {
		*tradeFields
		Side      json.RawMessage `json:"ORDEN"`
		Outcome   json.RawMessage `json:"RESULTADO"`
		Timestamp json.RawMessage `json:"HORA"`
		Images    json.RawMessage `json:"IMAGE"`
	}{tradeFields: (*tradeFields)(t)}
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return err
	}

	t.Side = Side(t.text(sideField, aux.Side))
	t.Outcome = Outcome(t.text(outcomeField, aux.Outcome))
	t.Timestamp = t.text(timestampField, aux.Timestamp)

	if images := bytes.TrimSpace(aux.Images); len(images) > 0 && !isNull(images) {
		if err := json.Unmarshal(images, &t.Images); err != nil {
			t.Images = nil
			t.keep(imagesField, images)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Trade) MarshalJSON() ([]byte, error) {
	if raw, ok := t.raw[wholeRecord]; ok {
		return raw, nil
	}

	aux := struct {
		tradeFields
		Side      interface{} `json:"ORDEN"`
		Outcome   interface{} `json:"RESULTADO"`
		Timestamp interface{} `json:"HORA"`
		Images    interface{} `json:"IMAGE,omitempty"`
	}{
		tradeFields: tradeFields(t),
		Side:        t.Side,
		Outcome:     t.Outcome,
		Timestamp:   t.Timestamp,
	}
	if len(t.Images) > 0 {
		aux.Images = t.Images
	}

	if raw, ok := t.raw[sideField]; ok {
		aux.Side = raw
	}
	if raw, ok := t.raw[outcomeField]; ok {
		aux.Outcome = raw
	}
	if raw, ok := t.raw[timestampField]; ok {
		aux.Timestamp = raw
	}
	if raw, ok := t.raw[imagesField]; ok {
		aux.Images = raw
	}
	return json.Marshal(aux)
}

// text decodes a string field, keeping any other JSON value as written
func (t *Trade) text(field string, raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.keep(field, raw)
		return ""
	}
	return s
}

func (t *Trade) keep(field string, raw []byte) {
	if t.raw == nil {
		t.raw = make(map[string]json.RawMessage)
	}
	t.raw[field] = append(json.RawMessage(nil), raw...)
}

// Issues lists the values of the trade that had an unexpected JSON type
func (t Trade) Issues() []FieldIssue {
	if raw, ok := t.raw[wholeRecord]; ok {
		return []FieldIssue{{Expected: "object", Got: jsonKind(raw)}}
	}

	var issues []FieldIssue
	for _, f := range []struct{ name, expected string }{
		{sideField, "string"},
		{outcomeField, "string"},
		{timestampField, "string"},
		{imagesField, "array of images"},
	} {
		if raw, ok := t.raw[f.name]; ok {
			issues = append(issues, FieldIssue{Field: f.name, Expected: f.expected, Got: jsonKind(raw)})
		}
	}

	for _, f := range []struct {
		name string
		n    *Number
	}{
		{"ENTRADA", &t.EntryPrice},
		{"SALIDA", t.ExitPrice},
		{"TP", t.TakeProfit},
		{"SL", t.StopLoss},
		{"P&L", &t.PnL},
	} {
		if f.n != nil && !f.n.valid && len(f.n.raw) > 0 {
			issues = append(issues, FieldIssue{Field: f.name, Expected: "number", Got: jsonKind(f.n.raw)})
		}
	}
	return issues
}

func isNull(raw []byte) bool {
	return bytes.Equal(raw, []byte("null"))
}

// jsonKind names the JSON type of a raw value
func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	}
	return "number"
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses the timestamp formats emitted by backtest producers.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Time returns the trade timestamp in UTC
func (t Trade) Time() (time.Time, bool) {
	return ParseTimestamp(t.Timestamp)
}

// Valid reports whether the trade can take part in derived computations.
// An unknown outcome does not invalidate a trade: it still moves the balance
// but counts as neither a win nor a loss.
func (t Trade) Valid() bool {
	_, ok := t.Time()
	return ok && t.PnL.Valid()
}

// Problem describes why a trade is excluded from derived computations,
// or returns an empty string for valid trades.
func (t Trade) Problem() string {
	if _, ok := t.raw[wholeRecord]; ok {
		return "not an object"
	}
	if _, ok := t.Time(); !ok {
		return "invalid timestamp"
	}
	if !t.PnL.Valid() {
		return "non-numeric P&L"
	}
	return ""
}
