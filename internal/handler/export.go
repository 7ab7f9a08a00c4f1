// Package handler: export.go implements GET /stacs/export.
// Returns every selected option of the caller's STACs as a flat table.
// Supports ?format=csv (CSV) or the default (JSON).
package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/stacit/stacit/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"stac_id", "stac_name", "date", "start_at", "end_at", "location",
	"budget_category", "party_size", "preference", "option_name",
	"option_description", "option_location", "timing_start", "timing_end",
}

// ExportRow is one row of the JSON export.
type ExportRow struct {
	StacId            uuid.UUID          `json:"stac_id"`
	StacName          string             `json:"stac_name"`
	Date              openapi_types.Date `json:"date"`
	StartAt           time.Time          `json:"start_at"`
	EndAt             time.Time          `json:"end_at"`
	Location          string             `json:"location"`
	BudgetCategory    string             `json:"budget_category"`
	PartySize         int                `json:"party_size"`
	Preference        string             `json:"preference"`
	OptionName        string             `json:"option_name"`
	OptionDescription *string            `json:"option_description,omitempty"`
	OptionLocation    *string            `json:"option_location,omitempty"`
	TimingStart       *string            `json:"timing_start,omitempty"`
	TimingEnd         *string            `json:"timing_end,omitempty"`
}

// GetExport handles GET /stacs/export.
// Use ?format=csv to receive CSV; default is JSON. Any other format is a 422.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		requestError(w, "format must be csv or json")
		return
	}

	rows, err := s.stacs.Export(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err, stacNotFound)
		return
	}

	if format == "csv" {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, buildJSONRows(rows))
}

// buildJSONRows converts domain rows to the JSON response.
func buildJSONRows(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRowToJSON(r))
	}
	return out
}

// writeCSV encodes domain rows as CSV with a header row.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="stacs.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// domainRowToJSON maps a domain.ExportRow to its JSON shape.
// Fields that are empty strings become nil pointers (omitempty in JSON).
func domainRowToJSON(r domain.ExportRow) ExportRow {
	stacID, _ := uuid.Parse(r.StacID)
	row := ExportRow{
		StacId:         stacID,
		StacName:       r.StacName,
		Date:           parseDate(r.Date),
		StartAt:        r.StartAt,
		EndAt:          r.EndAt,
		Location:       r.Location,
		BudgetCategory: r.BudgetCategory,
		PartySize:      r.PartySize,
		Preference:     r.Preference,
		OptionName:     r.OptionName,
	}
	row.OptionDescription = optional(r.Description)
	row.OptionLocation = optional(r.OptionPlace)
	row.TimingStart = optional(r.TimingStart)
	row.TimingEnd = optional(r.TimingEnd)
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Zero times are encoded as empty strings.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.StacID,
		r.StacName,
		r.Date,
		formatTime(r.StartAt),
		formatTime(r.EndAt),
		r.Location,
		r.BudgetCategory,
		strconv.Itoa(r.PartySize),
		r.Preference,
		r.OptionName,
		r.Description,
		r.OptionPlace,
		r.TimingStart,
		r.TimingEnd,
	}
}

// parseDate parses a "2006-01-02" string into an openapi_types.Date.
// Malformed input yields the zero date.
func parseDate(s string) openapi_types.Date {
	t, _ := time.Parse(openapi_types.DateFormat, s)
	return openapi_types.Date{Time: t}
}

// formatTime returns the RFC3339 representation of t, or "" if t is zero.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
