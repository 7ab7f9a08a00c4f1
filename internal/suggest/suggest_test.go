package suggest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/metrics"
	"github.com/stacit/stacit/backend/internal/suggest"
)

func validDraft() domain.ValidDraft {
	return domain.ValidDraft{
		Name:           "Soccer Day",
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Start:          domain.TimeOfDay{Hour: 8},
		End:            domain.TimeOfDay{Hour: 17, Minute: 30},
		City:           "Stamford",
		State:          "CT",
		PartySize:      4,
		Budget:         40,
		BudgetCategory: domain.BudgetModerate,
		Preferences:    []string{"Soccer", "Pizza"},
	}
}

// ---------------------------------------------------------------------------
// BuildPrompt
// ---------------------------------------------------------------------------

func TestBuildPrompt_NoSelection(t *testing.T) {
	got := suggest.BuildPrompt(validDraft(), nil, nil)

	assert.Contains(t, got, "Mon Jun 02 2025")
	assert.Contains(t, got, "Stamford, CT")
	assert.Contains(t, got, "Soccer, Pizza")
	assert.Contains(t, got, "moderate ($40 per person)")
	assert.Contains(t, got, "8:00am to 5:30pm")
	assert.Contains(t, got, "Number of people: 4.")
	assert.NotContains(t, got, "Keep these options")
}

func TestBuildPrompt_KeepClause(t *testing.T) {
	sel := domain.Selection{"Soccer": {"Park A"}, "Pizza": {"Joe's"}}

	got := suggest.BuildPrompt(validDraft(), sel, []string{"Soccer", "Pizza"})

	assert.Contains(t, got, " (Keep these options: Soccer: Park A; Pizza: Joe's)")
}

func TestKeepClause_OrderFallsBackToAlphabetical(t *testing.T) {
	sel := domain.Selection{"Zoo": {"Z1"}, "Art": {"A1"}, "Soccer": {"Park A"}, "Empty": {}}

	got := suggest.KeepClause(sel, []string{"Soccer"})

	assert.Equal(t, " (Keep these options: Soccer: Park A; Art: A1; Zoo: Z1)", got)
}

func TestKeepClause_Empty(t *testing.T) {
	assert.Equal(t, "", suggest.KeepClause(domain.Selection{"Soccer": {}}, []string{"Soccer"}))
}

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

const sampleResponse = `{"preferences":[
  {"preference":"Soccer","options":[
    {"name":"Park A","activity_description":"Open field","location":"1 Park Rd","timing":{"start":"8:00 AM","end":"10:00 AM"}},
    {"name":"Park B","activity_description":"Turf","timing":{"start":"9:00 AM","end":"11:00 AM"}}
  ]},
  {"preference":"Pizza","timing":{"start":"12:00 PM","end":"1:00 PM"},"options":[
    {"name":"Joe's","activity_description":"Slices"}
  ]}
]}`

func TestDecode_Plain(t *testing.T) {
	set, err := suggest.Decode(sampleResponse)

	require.NoError(t, err)
	assert.Equal(t, []string{"Soccer", "Pizza"}, set.Order())
	opt, ok := set.Option("Soccer", "Park A")
	require.True(t, ok)
	assert.Equal(t, "Open field", opt.Description)
	assert.Equal(t, "1 Park Rd", opt.Location)
	other, _ := set.Option("Soccer", "Park B")
	assert.Equal(t, "", other.Location)
}

func TestDecode_TimingFallsBackToFirstOption(t *testing.T) {
	set, err := suggest.Decode(sampleResponse)

	require.NoError(t, err)
	timings := set.Timings()
	assert.Equal(t, domain.TimeWindow{Start: "8:00 AM", End: "10:00 AM"}, timings["Soccer"])
	assert.Equal(t, domain.TimeWindow{Start: "12:00 PM", End: "1:00 PM"}, timings["Pizza"])
}

func TestDecode_FencedJSON(t *testing.T) {
	set, err := suggest.Decode("  ```json\n" + sampleResponse + "\n```  ")

	require.NoError(t, err)
	assert.Len(t, set.Preferences, 2)
}

func TestDecode_BareFence(t *testing.T) {
	set, err := suggest.Decode("```\n" + sampleResponse + "\n```")

	require.NoError(t, err)
	assert.Len(t, set.Preferences, 2)
}

func TestDecode_FenceInfoStrings(t *testing.T) {
	for _, info := range []string{"JSON", "js", "json5", "Json "} {
		t.Run(info, func(t *testing.T) {
			set, err := suggest.Decode("```" + info + "\n" + sampleResponse + "\n```")

			require.NoError(t, err)
			assert.Len(t, set.Preferences, 2)
		})
	}
}

func TestDecode_SingleLineFence(t *testing.T) {
	set, err := suggest.Decode("```json" + `{"preferences":[]}` + "```")

	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestDecode_EmptyPreferences(t *testing.T) {
	set, err := suggest.Decode(`{"preferences":[]}`)

	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "prose", body: "Sorry, I cannot help with that."},
		{name: "missing preferences", body: `{"ideas":[]}`},
		{name: "wrong type", body: `{"preferences":"soccer"}`},
		{name: "unnamed preference", body: `{"preferences":[{"options":[]}]}`},
		{name: "empty", body: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := suggest.Decode(tc.body)
			assert.ErrorIs(t, err, suggest.ErrMalformedResponse)
		})
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

func TestClient_Suggest_PostsFormMessage(t *testing.T) {
	var gotMessage, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		vals, _ := url.ParseQuery(string(body))
		gotMessage = vals.Get("message")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	t.Cleanup(srv.Close)

	c := suggest.NewClient(srv.URL, srv.Client(), metrics.New())
	got, err := c.Suggest(context.Background(), "hello & goodbye")

	require.NoError(t, err)
	assert.Equal(t, sampleResponse, got)
	assert.Equal(t, "hello & goodbye", gotMessage)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
}

func TestClient_Suggest_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := suggest.NewClient(srv.URL, srv.Client(), nil).Suggest(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrSuggestionUnavailable)
}

func TestClient_Suggest_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := suggest.NewClient(addr, nil, nil).Suggest(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrSuggestionUnavailable)
}

func TestClient_Suggest_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := suggest.NewClient(srv.URL, srv.Client(), nil).Suggest(ctx, "x")

	assert.ErrorIs(t, err, domain.ErrSuggestionUnavailable)
}
