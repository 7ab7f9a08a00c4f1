package handler

import (
	"fmt"
	"net/http"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/stacit/stacit/backend/internal/domain"
)

// GetStacCalendar handles GET /stacs/{id}/calendar.ics.
// The STAC becomes one VEVENT whose description lists the selected options.
func (s *Server) GetStacCalendar(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, stacNotFound)
	if !ok {
		return
	}
	rec, err := s.stacs.GetByID(r.Context(), sess, id)
	if err != nil {
		s.fail(w, r, err, stacNotFound)
		return
	}

	body := renderCalendar(rec)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stac-%s.ics"`, rec.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func renderCalendar(rec domain.StacRecord) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//STAC-IT//Planner//EN")

	event := cal.AddEvent(rec.ID.String() + "@stacit")
	event.SetDtStampTime(rec.UpdatedAt.UTC())
	event.SetCreatedTime(rec.CreatedAt.UTC())
	event.SetModifiedAt(rec.UpdatedAt.UTC())
	if rec.StartAt.IsZero() || rec.EndAt.IsZero() {
		event.SetAllDayStartAt(rec.Date)
		event.SetAllDayEndAt(rec.Date.AddDate(0, 0, 1))
	} else {
		event.SetStartAt(rec.StartAt.UTC())
		event.SetEndAt(rec.EndAt.UTC())
	}
	event.SetSummary(rec.Name)
	event.SetLocation(rec.Location)
	event.SetDescription(calendarDescription(rec))
	return cal.Serialize()
}

func calendarDescription(rec domain.StacRecord) string {
	var lines []string
	for _, pref := range rec.SelectedPreferences() {
		line := pref
		if t, ok := rec.PreferenceTimings[pref]; ok && t.Start != "" {
			line += fmt.Sprintf(" (%s - %s)", t.Start, t.End)
		}
		for _, opt := range rec.SelectedOptions[pref] {
			d := rec.OptionDetail(pref, opt)
			entry := line + ": " + opt
			if d.Location != "" {
				entry += " at " + d.Location
			}
			lines = append(lines, entry)
		}
	}
	if len(lines) == 0 {
		return rec.Preferences
	}
	return strings.Join(lines, "\n")
}
