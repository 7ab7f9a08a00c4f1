package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacit/stacit/backend/internal/domain"
)

func TestDraft_AddActivity_AppendsEmptySlot(t *testing.T) {
	d := domain.NewDraft()
	d.Activities[0] = "Coffee"

	d.AddActivity()

	assert.Equal(t, []string{"Coffee", ""}, d.Activities)
}

func TestDraft_RemoveActivity_IndexZeroIsNoOp(t *testing.T) {
	d := domain.NewDraft()
	d.Activities = []string{"Soccer", "Lunch"}

	d.RemoveActivity(0)

	require.Len(t, d.Activities, 2)
	assert.Equal(t, "Soccer", d.Activities[0])
}

func TestDraft_RemoveActivity_RemovesByIndex(t *testing.T) {
	d := domain.NewDraft()
	d.Activities = []string{"Soccer", "Lunch", "Movie"}

	d.RemoveActivity(1)

	assert.Equal(t, []string{"Soccer", "Movie"}, d.Activities)
}

func TestDraft_RemoveActivity_OutOfRangeIsNoOp(t *testing.T) {
	d := domain.NewDraft()
	d.Activities = []string{"Soccer"}

	d.RemoveActivity(5)
	d.RemoveActivity(-1)

	assert.Equal(t, []string{"Soccer"}, d.Activities)
}

func TestDraft_SetActivity(t *testing.T) {
	d := domain.NewDraft()

	require.NoError(t, d.SetActivity(0, "Bowling"))
	assert.Equal(t, "Bowling", d.Activities[0])

	err := d.SetActivity(3, "nope")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDraft_Apply_OnlySetFields(t *testing.T) {
	d := domain.NewDraft()
	d.City = "Stamford"
	name := "Soccer Day"
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	d.Apply(domain.DraftUpdate{Name: &name, Date: &date})

	assert.Equal(t, "Soccer Day", d.Name)
	assert.Equal(t, "Stamford", d.City, "unset fields are preserved")
	assert.True(t, d.Date.Equal(date))
}

func TestDraft_Apply_EmptyActivitiesKeepsRequiredSlot(t *testing.T) {
	d := domain.NewDraft()

	d.Apply(domain.DraftUpdate{Activities: []string{}})

	assert.Equal(t, []string{""}, d.Activities)
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want domain.TimeOfDay
	}{
		{"08:00", domain.TimeOfDay{Hour: 8}},
		{"17:30", domain.TimeOfDay{Hour: 17, Minute: 30}},
		{"5:30 PM", domain.TimeOfDay{Hour: 17, Minute: 30}},
		{"12:15am", domain.TimeOfDay{Hour: 0, Minute: 15}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseTimeOfDay(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := domain.ParseTimeOfDay("noon")
	assert.Error(t, err)
}

func TestTimeOfDay_Kitchen(t *testing.T) {
	assert.Equal(t, "8:00am", domain.TimeOfDay{Hour: 8}.Kitchen())
	assert.Equal(t, "12:05pm", domain.TimeOfDay{Hour: 12, Minute: 5}.Kitchen())
	assert.Equal(t, "12:00am", domain.TimeOfDay{}.Kitchen())
	assert.Equal(t, "5:00pm", domain.TimeOfDay{Hour: 17}.Kitchen())
}

func TestIsStateCode(t *testing.T) {
	assert.True(t, domain.IsStateCode("CT"))
	assert.True(t, domain.IsStateCode("ct"), "matching is case-insensitive")
	assert.True(t, domain.IsStateCode(" wy "))
	assert.False(t, domain.IsStateCode("DC"))
	assert.False(t, domain.IsStateCode("XX"))
	assert.False(t, domain.IsStateCode(""))
}

func TestCategorizeBudget(t *testing.T) {
	cases := []struct {
		amount float64
		want   domain.BudgetCategory
	}{
		{1, domain.BudgetCheap},
		{29.99, domain.BudgetCheap},
		{30, domain.BudgetModerate},
		{45, domain.BudgetModerate},
		{60, domain.BudgetModerate},
		{60.01, domain.BudgetExpensive},
		{500, domain.BudgetExpensive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.CategorizeBudget(tc.amount), "amount %v", tc.amount)
	}
}
