package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacit/stacit/backend/internal/domain"
)

func TestGetStacCalendar_RendersEvent(t *testing.T) {
	stac := stacFixture()
	h := newHTTPHandler(services{stacs: &mockStacServicer{
		getByID: func(context.Context, domain.Session, uuid.UUID) (domain.StacRecord, error) {
			return stac, nil
		},
	}})

	rec := do(h, http.MethodGet, "/stacs/"+stac.ID.String()+"/calendar.ics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")

	cal, err := ics.ParseCalendar(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, stac.ID.String()+"@stacit", ev.Id())
	assert.Equal(t, "Soccer Day", ev.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Contains(t, ev.GetProperty(ics.ComponentPropertyLocation).Value, "Austin")

	start, err := ev.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(stac.StartAt))
	end, err := ev.GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(stac.EndAt))

	desc := ev.GetProperty(ics.ComponentPropertyDescription).Value
	assert.Contains(t, desc, "Park A")
}

func TestGetStacCalendar_NotFound(t *testing.T) {
	h := newHTTPHandler(services{stacs: &mockStacServicer{
		getByID: func(context.Context, domain.Session, uuid.UUID) (domain.StacRecord, error) {
			return domain.StacRecord{}, domain.ErrNotFound
		},
	}})

	rec := do(h, http.MethodGet, "/stacs/"+uuid.NewString()+"/calendar.ics", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
