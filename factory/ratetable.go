/*
Package factory converts rate-table and calculation documents into engine
values.

PURPOSE:
  Rate tables are published outside the application (a court registry
  page, a spreadsheet export, a fetched document). The factory turns
  such documents into validated engine.Schedule values, and turns
  calculation request documents into engine.Request values, so the
  engine never sees loosely typed input.

DOCUMENT SCHEMA (JSON or YAML):
  {
    "BC": [
      {"start": "2022-01-01", "end": "2022-06-30", "prejudgment": 2.0, "postjudgment": 3.0},
      {"start": "2022-07-01", "end": "2022-12-31", "prejudgment": "2.5", "postjudgment": "3.5"}
    ]
  }

  Rates may be numbers or strings; both are parsed exactly as decimals.

USAGE:
  f := factory.NewRateTableFactory()
  table, err := f.ParseFile("rates/bc.yaml")
  calc := engine.NewCalculator(table)

SEE ALSO:
  - engine/rates.go: Schedule validation rules
  - factory/request.go: Calculation request documents
  - store/sqlite/sqlite.go: Persists parsed schedules
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/judgment-interest/engine"
)

// =============================================================================
// DOCUMENT FORMAT
// =============================================================================

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON, "":
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported document format %q", format)
	}
}

// =============================================================================
// NUMBER - Decimal accepted from JSON numbers, JSON strings and YAML scalars
// =============================================================================

type Number struct {
	decimal.Decimal
}

func NewNumber(d decimal.Decimal) Number { return Number{Decimal: d} }

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q: %w", node.Line, node.Value, err)
	}
	n.Decimal = d
	return nil
}

func (n Number) MarshalYAML() (any, error) {
	return n.Decimal.String(), nil
}

// =============================================================================
// RATE TABLE DOCUMENT
// =============================================================================

// RateTableJSON is the document form of a rate table, keyed by jurisdiction.
type RateTableJSON map[string][]RatePeriodJSON

// RatePeriodJSON is one published period. Dates are YYYY-MM-DD.
type RatePeriodJSON struct {
	Start        string `json:"start" yaml:"start" validate:"required"`
	End          string `json:"end" yaml:"end" validate:"required"`
	Prejudgment  Number `json:"prejudgment" yaml:"prejudgment"`
	Postjudgment Number `json:"postjudgment" yaml:"postjudgment"`
}

// ToPeriod parses the dates.
func (p RatePeriodJSON) ToPeriod() (engine.RatePeriod, error) {
	start, err := engine.ParseDate(p.Start)
	if err != nil {
		return engine.RatePeriod{}, fmt.Errorf("start: %w", err)
	}
	end, err := engine.ParseDate(p.End)
	if err != nil {
		return engine.RatePeriod{}, fmt.Errorf("end: %w", err)
	}
	return engine.RatePeriod{
		Start:        start,
		End:          end,
		Prejudgment:  p.Prejudgment.Decimal,
		Postjudgment: p.Postjudgment.Decimal,
	}, nil
}

// NewRatePeriodJSON is the inverse of ToPeriod.
func NewRatePeriodJSON(p engine.RatePeriod) RatePeriodJSON {
	return RatePeriodJSON{
		Start:        p.Start.String(),
		End:          p.End.String(),
		Prejudgment:  NewNumber(p.Prejudgment),
		Postjudgment: NewNumber(p.Postjudgment),
	}
}

// =============================================================================
// RATE TABLE FACTORY
// =============================================================================

type RateTableFactory struct{}

func NewRateTableFactory() *RateTableFactory {
	return &RateTableFactory{}
}

// Parse decodes a document and validates every jurisdiction's schedule.
func (f *RateTableFactory) Parse(data []byte, format Format) (map[engine.Jurisdiction]engine.Schedule, error) {
	var doc RateTableJSON
	if err := decode(data, format, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode rate table: %w", err)
	}
	return f.Schedules(doc)
}

// ParseFile reads path and parses it by extension.
func (f *RateTableFactory) ParseFile(path string) (*engine.RateTable, error) {
	schedules, err := f.ParseFileSchedules(path)
	if err != nil {
		return nil, err
	}
	return engine.NewRateTable(schedules), nil
}

// ParseFileSchedules is ParseFile without building the table, for importers.
func (f *RateTableFactory) ParseFileSchedules(path string) (map[engine.Jurisdiction]engine.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate table %s: %w", path, err)
	}
	schedules, err := f.Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schedules, nil
}

// Schedules converts a decoded document.
func (f *RateTableFactory) Schedules(doc RateTableJSON) (map[engine.Jurisdiction]engine.Schedule, error) {
	out := make(map[engine.Jurisdiction]engine.Schedule, len(doc))
	for name, periods := range doc {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty jurisdiction name", engine.ErrInvalidRateTable)
		}
		s, err := f.Schedule(periods)
		if err != nil {
			return nil, fmt.Errorf("jurisdiction %s: %w", name, err)
		}
		out[engine.Jurisdiction(name)] = s
	}
	return out, nil
}

// Schedule converts one jurisdiction's periods.
func (f *RateTableFactory) Schedule(periods []RatePeriodJSON) (engine.Schedule, error) {
	converted := make([]engine.RatePeriod, 0, len(periods))
	for i, p := range periods {
		rp, err := p.ToPeriod()
		if err != nil {
			return engine.Schedule{}, fmt.Errorf("period %d: %w", i, err)
		}
		converted = append(converted, rp)
	}
	return engine.NewSchedule(converted)
}

// Document renders a table back into its document form.
func (f *RateTableFactory) Document(t *engine.RateTable) RateTableJSON {
	doc := make(RateTableJSON)
	for _, j := range t.Jurisdictions() {
		s, _ := t.Schedule(j)
		doc[string(j)] = SchedulePeriods(s)
	}
	return doc
}

// SchedulePeriods renders one schedule, ordered by start.
func SchedulePeriods(s engine.Schedule) []RatePeriodJSON {
	periods := s.Periods()
	out := make([]RatePeriodJSON, len(periods))
	for i, p := range periods {
		out[i] = NewRatePeriodJSON(p)
	}
	return out
}
