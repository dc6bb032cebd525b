package scenarios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	r := DefaultRecommender()

	tests := []struct {
		sector string
		want   string
	}{
		{"Financial Services", "Net Zero 2050"},
		{"Real Estate", "Net Zero 2050"},
		{"Agriculture", "Delayed Transition"},
		{"Energy", "Immediate Disorderly Transition (2025 release)"},
		{"Manufacturing", "Current Policies Extension (2025 release)"},
		{"  energy ", "Immediate Disorderly Transition (2025 release)"},
		{"REAL   ESTATE", "Net Zero 2050"},
	}

	for _, tt := range tests {
		t.Run(tt.sector, func(t *testing.T) {
			got, err := r.Suggest(tt.sector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestUnmapped(t *testing.T) {
	_, err := DefaultRecommender().Suggest("Space Tourism")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrSectorNotMapped)
}

func TestDefaultsAreCopies(t *testing.T) {
	r := DefaultRecommender()
	defaults, err := r.Defaults("Agriculture")
	require.NoError(t, err)
	assert.Equal(t, []string{"Delayed Transition", "Hot House World"}, defaults)

	defaults[0] = "mutated"
	again, err := r.Defaults("Agriculture")
	require.NoError(t, err)
	assert.Equal(t, "Delayed Transition", again[0])
}

func TestRecommenderRejectsUnknownScenario(t *testing.T) {
	_, err := newRecommender("test", []industryDefault{
		{Sector: "Retail", Scenarios: []string{"Not A Scenario"}},
	}, Default())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecommenderSectors(t *testing.T) {
	assert.Equal(t, []string{
		"Financial Services", "Real Estate", "Agriculture", "Energy", "Manufacturing",
	}, DefaultRecommender().Sectors())
	assert.Equal(t, RecommenderVersion, DefaultRecommender().Version())
}
