package datescope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFolder(t *testing.T) {
	tests := []struct {
		name      string
		folder    string
		want      time.Time
		wantError bool
	}{
		{
			name:   "valid_date",
			folder: "20251224",
			want:   date(2025, time.December, 24),
		},
		{
			name:      "not_a_date",
			folder:    "archive",
			wantError: true,
		},
		{
			name:      "dashed_format",
			folder:    "2025-12-24",
			wantError: true,
		},
		{
			name:      "empty",
			folder:    "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFolder(tt.folder)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestRange_Validation(t *testing.T) {
	_, err := Range(date(2025, time.December, 23), date(2025, time.December, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date range")

	s, err := Range(date(2025, time.December, 1), date(2025, time.December, 1))
	require.NoError(t, err)
	assert.False(t, s.IsSingle())
	assert.Equal(t, "20251201..20251201", s.String())
}

func TestScope_Candidates(t *testing.T) {
	scope, err := Range(date(2025, time.December, 1), date(2025, time.December, 23))
	require.NoError(t, err)

	tests := []struct {
		name    string
		folders []string
		want    []string
	}{
		{
			name:    "sorted_ascending",
			folders: []string{"20251205", "20251202", "20251210"},
			want:    []string{"20251202", "20251205", "20251210"},
		},
		{
			name:    "out_of_range_dropped",
			folders: []string{"20251130", "20251201", "20251223", "20251224"},
			want:    []string{"20251201", "20251223"},
		},
		{
			name:    "unparsable_skipped",
			folders: []string{"backup", "20251205", ".DS_Store"},
			want:    []string{"20251205"},
		},
		{
			name:    "empty_listing",
			folders: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scope.Candidates(tt.folders))
		})
	}
}

func TestSingle(t *testing.T) {
	s := Single(time.Date(2025, time.December, 24, 13, 45, 0, 0, time.UTC))
	assert.True(t, s.IsSingle())
	assert.Equal(t, "20251224", s.Folder())
	assert.Equal(t, "20251224", s.String())
	assert.True(t, s.Contains(date(2025, time.December, 24)))
	assert.False(t, s.Contains(date(2025, time.December, 25)))
}

func TestYesterday(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 30, 0, 0, time.UTC)
	s := Yesterday(now)
	assert.True(t, s.IsSingle())
	assert.Equal(t, "20251231", s.Folder())
}
