package eventapi

import (
	"testing"

	"ticketwizard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"19:05", "7:05 PM"},
		{"00:30", "12:30 AM"},
		{"12:00", "12:00 PM"},
		{"09:15", "9:15 AM"},
		{"23:59", "11:59 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FormatTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "7pm", "24:00", "19:60"} {
		_, err := FormatTime(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "calendar date", in: "2025-01-01", want: "2025-01-01T00:00:00.000Z"},
		{name: "utc instant", in: "2025-03-10T18:30:00Z", want: "2025-03-10T18:30:00.000Z"},
		{name: "offset converted to utc", in: "2025-03-10T01:00:00+02:00", want: "2025-03-09T23:00:00.000Z"},
		{name: "invalid", in: "next friday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
