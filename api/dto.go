/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Calculation and
  rate-table documents reuse the factory's document types so the file
  formats and the API stay the same shape.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Calculation:
    CalculateRequest (factory.RequestJSON), CalculationResultDTO (factory.ResultJSON)

  Rates:
    JurisdictionDTO, RatePeriodDTO, RateOnDTO, ReplaceRatesRequest

  Imports:
    ImportDTO

VALIDATION:
  Struct tags are checked by ParseJSON (go-playground/validator). Date
  parsing and range rules stay in the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/request.go: RequestJSON and ResultJSON
*/
package api

import (
	"time"

	"github.com/warp/judgment-interest/engine"
	"github.com/warp/judgment-interest/factory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CalculateRequest is the body of POST /api/calculations.
type CalculateRequest = factory.RequestJSON

// CalculationResultDTO is the calculation response.
type CalculationResultDTO = factory.ResultJSON

// RatePeriodDTO is one published period.
type RatePeriodDTO = factory.RatePeriodJSON

// JurisdictionDTO summarizes one jurisdiction's schedule.
type JurisdictionDTO struct {
	Name    string `json:"name"`
	Periods int    `json:"periods"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// RateOnDTO is the rate in force on a date. A regime filter leaves the
// other column empty.
type RateOnDTO struct {
	Jurisdiction string `json:"jurisdiction"`
	Date         string `json:"date"`
	PeriodStart  string `json:"period_start"`
	PeriodEnd    string `json:"period_end"`
	Prejudgment  string `json:"prejudgment,omitempty"`
	Postjudgment string `json:"postjudgment,omitempty"`
}

// ReplaceRatesRequest is the body of PUT /api/jurisdictions/{jurisdiction}/rates.
type ReplaceRatesRequest struct {
	Source  string          `json:"source,omitempty" validate:"max=200"`
	Periods []RatePeriodDTO `json:"periods" validate:"required,min=1,dive"`
}

// ImportDTO is one entry of a jurisdiction's import history.
type ImportDTO struct {
	ID           string `json:"id"`
	Jurisdiction string `json:"jurisdiction"`
	Periods      int    `json:"periods"`
	Source       string `json:"source,omitempty"`
	ImportedAt   string `json:"imported_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toJurisdictionDTO(j engine.Jurisdiction, s engine.Schedule) JurisdictionDTO {
	dto := JurisdictionDTO{Name: string(j), Periods: s.Len()}
	if periods := s.Periods(); len(periods) > 0 {
		dto.From = periods[0].Start.String()
		dto.To = periods[len(periods)-1].End.String()
	}
	return dto
}

func toImportDTO(rec engine.ImportRecord) ImportDTO {
	return ImportDTO{
		ID:           rec.ID,
		Jurisdiction: string(rec.Jurisdiction),
		Periods:      rec.Periods,
		Source:       rec.Source,
		ImportedAt:   rec.ImportedAt.Format(time.RFC3339),
	}
}

func toImportDTOs(recs []engine.ImportRecord) []ImportDTO {
	dtos := make([]ImportDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toImportDTO(rec)
	}
	return dtos
}
