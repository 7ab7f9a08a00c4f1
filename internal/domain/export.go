package domain

import "time"

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per selected option, with STAC
// fields repeated for every option on that STAC.
type ExportRow struct {
	// STAC fields, repeated for every option.
	StacID         string
	StacName       string
	Date           string // "2006-01-02" formatted date
	StartAt        time.Time
	EndAt          time.Time
	Location       string
	BudgetCategory string
	PartySize      int

	// Option fields.
	Preference  string
	OptionName  string
	Description string
	OptionPlace string
	TimingStart string
	TimingEnd   string
}
