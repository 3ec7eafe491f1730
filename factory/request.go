package factory

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/warp/judgment-interest/engine"
)

// =============================================================================
// REQUEST DOCUMENT
// =============================================================================

// RequestJSON is the document form of a calculation request.
type RequestJSON struct {
	Regime         string              `json:"regime" yaml:"regime" validate:"required,oneof=prejudgment postjudgment"`
	Start          string              `json:"start" yaml:"start" validate:"required"`
	End            string              `json:"end" yaml:"end" validate:"required"`
	Principal      Number              `json:"principal" yaml:"principal"`
	Jurisdiction   string              `json:"jurisdiction" yaml:"jurisdiction" validate:"required"`
	SpecialDamages []SpecialDamageJSON `json:"special_damages,omitempty" yaml:"special_damages,omitempty" validate:"dive"`
}

type SpecialDamageJSON struct {
	Date        string `json:"date" yaml:"date" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Amount      Number `json:"amount" yaml:"amount"`
}

// ToRequest parses dates and the regime. Range and amount rules are left
// to engine.Request.Validate.
func (r RequestJSON) ToRequest() (engine.Request, error) {
	regime, err := engine.ParseRegime(r.Regime)
	if err != nil {
		return engine.Request{}, err
	}
	start, err := engine.ParseDate(r.Start)
	if err != nil {
		return engine.Request{}, fmt.Errorf("start: %w", err)
	}
	end, err := engine.ParseDate(r.End)
	if err != nil {
		return engine.Request{}, fmt.Errorf("end: %w", err)
	}

	req := engine.Request{
		Regime:       regime,
		Start:        start,
		End:          end,
		Principal:    r.Principal.Decimal,
		Jurisdiction: engine.Jurisdiction(r.Jurisdiction),
	}
	for i, d := range r.SpecialDamages {
		on, err := engine.ParseDate(d.Date)
		if err != nil {
			return engine.Request{}, fmt.Errorf("special damage %d: %w", i, err)
		}
		req.SpecialDamages = append(req.SpecialDamages, engine.SpecialDamage{
			Date:        on,
			Description: d.Description,
			Amount:      d.Amount.Decimal,
		})
	}
	return req, nil
}

// ParseRequest decodes and converts a request document.
func ParseRequest(data []byte, format Format) (engine.Request, error) {
	var doc RequestJSON
	if err := decode(data, format, &doc); err != nil {
		return engine.Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return doc.ToRequest()
}

// ParseRequestFile reads path and parses it by extension.
func ParseRequestFile(path string) (engine.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Request{}, fmt.Errorf("failed to read request %s: %w", path, err)
	}
	return ParseRequest(data, FormatFromPath(path))
}

// =============================================================================
// RESULT DOCUMENT
// =============================================================================

// ResultJSON is what presentation layers consume. Amounts are strings so
// no precision is lost; Total is fixed to currency places.
type ResultJSON struct {
	Details                 []RowJSON      `json:"details" yaml:"details"`
	Total                   string         `json:"total" yaml:"total"`
	Principal               string         `json:"principal" yaml:"principal"`
	SpecialDamagesPrincipal string         `json:"special_damages_principal" yaml:"special_damages_principal"`
	Subtotals               []SubtotalJSON `json:"subtotals" yaml:"subtotals"`
}

type RowJSON struct {
	PeriodStart string `json:"period_start" yaml:"period_start"`
	PeriodEnd   string `json:"period_end" yaml:"period_end"`
	Days        int    `json:"days" yaml:"days"`
	Rate        string `json:"rate" yaml:"rate"`
	Principal   string `json:"principal" yaml:"principal"`
	Interest    string `json:"interest" yaml:"interest"`
	Source      string `json:"source" yaml:"source"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type SubtotalJSON struct {
	Source      string `json:"source" yaml:"source"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Principal   string `json:"principal" yaml:"principal"`
	Interest    string `json:"interest" yaml:"interest"`
}

// rowPlaces bounds the digits shown for unrounded row interest.
const rowPlaces = 6

// NewResultJSON renders a result. Row interest is shown to six places for
// display only; the total was computed from unrounded values.
func NewResultJSON(r *engine.Result) ResultJSON {
	out := ResultJSON{
		Details:                 make([]RowJSON, 0, len(r.Details)),
		Total:                   r.Total.StringFixed(engine.CurrencyPlaces),
		Principal:               r.Principal.String(),
		SpecialDamagesPrincipal: r.SpecialDamagesPrincipal.String(),
		Subtotals:               make([]SubtotalJSON, 0, len(r.Subtotals)),
	}
	for _, row := range r.Details {
		out.Details = append(out.Details, RowJSON{
			PeriodStart: row.PeriodStart.String(),
			PeriodEnd:   row.PeriodEnd.String(),
			Days:        row.Days,
			Rate:        row.Rate.String(),
			Principal:   row.Principal.String(),
			Interest:    displayInterest(row.Interest),
			Source:      string(row.Source.Kind),
			Description: row.Source.Description,
		})
	}
	for _, s := range r.Subtotals {
		out.Subtotals = append(out.Subtotals, SubtotalJSON{
			Source:      string(s.Source.Kind),
			Description: s.Source.Description,
			Principal:   s.Principal.String(),
			Interest:    s.Interest.StringFixed(engine.CurrencyPlaces),
		})
	}
	return out
}

func displayInterest(d decimal.Decimal) string {
	return d.Round(rowPlaces).String()
}
