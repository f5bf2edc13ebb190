package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"

	simplejson "github.com/bitly/go-simplejson"
	"github.com/go-playground/validator/v10"
)

// Source describes the document a canonical backtest was read from
type Source struct {
	Schema    Schema `json:"schema"`
	RunID     string `json:"run_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Result is a normalized backtest document
type Result struct {
	Backtest *model.Backtest
	Source   Source
	// Warnings name trade values that had an unexpected type. Those trades
	// are kept but left out of derived computations.
	Warnings []string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Detect reports the schema of a parsed document
func Detect(doc *simplejson.Json) Schema {
	if _, ok := doc.CheckGet(runIDField); ok {
		return SchemaNew
	}
	return SchemaLegacy
}

// Normalize parses a backtest document of either schema into its canonical form.
// It fails with *InvalidFormatError when a required section is absent or has the
// wrong container kind. The input is not modified.
func Normalize(data []byte) (*Result, error) {
	doc, err := simplejson.NewJson(data)
	if err != nil {
		return nil, &InvalidFormatError{Schema: SchemaLegacy, Invalid: []string{"document: " + err.Error()}}
	}
	if _, err := doc.Map(); err != nil {
		return nil, &InvalidFormatError{Schema: SchemaLegacy, Invalid: []string{"document: expected a JSON object"}}
	}

	schema := Detect(doc)
	fields := legacySchemaFields
	if schema == SchemaNew {
		fields = newSchemaFields
	}

	verr := &InvalidFormatError{Schema: schema}
	checkFields(doc, fields, verr)
	if !verr.empty() {
		return nil, verr
	}

	var (
		backtest *model.Backtest
		source   = Source{Schema: schema}
		prefix   string
	)

	switch schema {
	case SchemaNew:
		var d newDocument
		if err := decode(data, &d, schema); err != nil {
			return nil, err
		}
		backtest = d.canonical()
		source.RunID = d.BacktestID
		source.Timestamp = d.Metadata.Timestamp
		prefix = "metadata.config"
	default:
		var d legacyDocument
		if err := decode(data, &d, schema); err != nil {
			return nil, err
		}
		backtest = d.canonical()
		prefix = "config"
	}

	if err := validate.Struct(backtest.Config); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s.%s (%s)", prefix, fe.Field(), describeTag(fe)))
		}
		return nil, verr
	}

	return &Result{Backtest: backtest, Source: source, Warnings: tradeWarnings(backtest.Trades)}, nil
}

func tradeWarnings(trades []model.Trade) []string {
	var warnings []string
	for i, t := range trades {
		for _, issue := range t.Issues() {
			name := fmt.Sprintf("trades[%d]", i)
			if issue.Field != "" {
				name += "." + issue.Field
			}
			warnings = append(warnings, fmt.Sprintf("%s (expected %s, got %s)", name, issue.Expected, issue.Got))
		}
	}
	return warnings
}

// Encode writes a canonical backtest back in the document schema of src
func Encode(b *model.Backtest, src Source) ([]byte, error) {
	var doc interface{}
	switch src.Schema {
	case SchemaNew:
		doc = newDocumentFrom(b, src)
	default:
		d := legacyDocument(*b)
		doc = &d
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", src.Schema, err)
	}
	return data, nil
}

func checkFields(doc *simplejson.Json, fields []requiredField, verr *InvalidFormatError) {
	absent := make(map[string]bool)

	for _, f := range fields {
		name := strings.Join(f.path, ".")
		if len(f.path) > 1 && absent[strings.Join(f.path[:len(f.path)-1], ".")] {
			// parent already reported
			absent[name] = true
			continue
		}

		node, ok := doc.CheckGet(f.path[0])
		for _, key := range f.path[1:] {
			if !ok {
				break
			}
			node, ok = node.CheckGet(key)
		}
		if !ok || node.Interface() == nil {
			verr.Missing = append(verr.Missing, name)
			absent[name] = true
			continue
		}

		if !hasKind(node, f.kind) {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s (expected %s)", name, f.kind))
			absent[name] = true
		}
	}
}

func hasKind(node *simplejson.Json, kind containerKind) bool {
	switch kind {
	case kindObject:
		_, err := node.Map()
		return err == nil
	case kindArray:
		_, err := node.Array()
		return err == nil
	case kindString:
		s, err := node.String()
		return err == nil && s != ""
	}
	return false
}

func (k containerKind) String() string {
	switch k {
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	case kindString:
		return "non-empty string"
	}
	return "unknown"
}

func decode(data []byte, v interface{}, schema Schema) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "document"
			}
			return &InvalidFormatError{
				Schema:  schema,
				Invalid: []string{fmt.Sprintf("%s (expected %s, got %s)", field, typeErr.Type, typeErr.Value)},
			}
		}
		return &InvalidFormatError{Schema: schema, Invalid: []string{"document: " + err.Error()}}
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}
