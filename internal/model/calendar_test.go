package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInterval(t *testing.T, start string, minutes int) Interval {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	iv, err := NewInterval(ts, minutes)
	require.NoError(t, err)
	return iv
}

func TestIntervalValidate(t *testing.T) {
	now := time.Now()

	_, err := NewInterval(now, 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(now, -30)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(now, 1)
	assert.NoError(t, err)
}

func TestOverlapsSymmetry(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "disjoint",
			a:    mustInterval(t, "2025-03-01T09:00:00Z", 60),
			b:    mustInterval(t, "2025-03-01T11:00:00Z", 60),
			want: false,
		},
		{
			name: "touching endpoints are half-open disjoint",
			a:    mustInterval(t, "2025-03-01T09:00:00Z", 60),
			b:    mustInterval(t, "2025-03-01T10:00:00Z", 60),
			want: false,
		},
		{
			name: "partial overlap",
			a:    mustInterval(t, "2025-03-01T09:00:00Z", 90),
			b:    mustInterval(t, "2025-03-01T10:00:00Z", 60),
			want: true,
		},
		{
			name: "containment",
			a:    mustInterval(t, "2025-03-01T09:00:00Z", 480),
			b:    mustInterval(t, "2025-03-01T12:00:00Z", 30),
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestOverlapsSelf(t *testing.T) {
	iv := mustInterval(t, "2025-03-01T15:00:00Z", 60)
	assert.True(t, iv.Overlaps(iv), "a non-empty interval overlaps itself")
}
