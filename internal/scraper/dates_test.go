package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOption(t *testing.T) {
	tests := []struct {
		input   string
		want    Option
		wantErr bool
	}{
		{"", OptionYes, false},
		{"Yes", OptionYes, false},
		{"y", OptionYes, false},
		{"NO", OptionNo, false},
		{" all ", OptionAll, false},
		{"maybe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOption(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFiltersWindow(t *testing.T) {
	to := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	f := NewFilters(to, 10, OptionNo)

	assert.Equal(t, "23/02/2025", f.FromString())
	assert.Equal(t, "05/03/2025", f.ToString())
	assert.Equal(t, OptionNo, f.Option)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{
		"14/08/2025",
		"14-08-2025",
		"2025-08-14",
		"14 Aug 2025",
		"Thursday, 14 August 2025",
		"  14/08/2025 ",
	} {
		t.Run(input, func(t *testing.T) {
			got, err := ParseDate(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}
