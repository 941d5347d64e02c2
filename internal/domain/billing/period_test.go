package billing

import (
	"testing"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewBillingPeriod(t *testing.T) {
	t.Run("valid period", func(t *testing.T) {
		p, err := NewBillingPeriod(date(2025, time.June, 15), date(2025, time.June, 30))
		require.NoError(t, err)
		assert.Equal(t, 15, p.Start().Day())
		assert.Equal(t, 30, p.End().Day())
	})

	t.Run("single day period", func(t *testing.T) {
		p, err := NewBillingPeriod(date(2025, time.June, 10), date(2025, time.June, 10))
		require.NoError(t, err)
		assert.Equal(t, 1, p.EffectiveDays())
	})

	t.Run("end before start fails", func(t *testing.T) {
		_, err := NewBillingPeriod(date(2025, time.June, 20), date(2025, time.June, 10))
		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("times are truncated to the day", func(t *testing.T) {
		start := time.Date(2025, time.June, 15, 23, 59, 0, 0, time.UTC)
		end := time.Date(2025, time.June, 30, 0, 1, 0, 0, time.UTC)
		p, err := NewBillingPeriod(start, end)
		require.NoError(t, err)
		assert.Equal(t, 16, p.EffectiveDays())
	})
}

func TestBillingPeriod_EffectiveDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		days  int
	}{
		{"half of june", date(2025, time.June, 15), date(2025, time.June, 30), 16},
		{"full june", date(2025, time.June, 1), date(2025, time.June, 30), 30},
		{"full february non leap", date(2025, time.February, 1), date(2025, time.February, 28), 28},
		{"full february leap", date(2024, time.February, 1), date(2024, time.February, 29), 29},
		{"last day only", date(2025, time.January, 31), date(2025, time.January, 31), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewBillingPeriod(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.days, p.EffectiveDays())
		})
	}
}

func TestBillingPeriod_DaysInMonth(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		days int
	}{
		{"june has 30", date(2025, time.June, 30), 30},
		{"july has 31", date(2025, time.July, 15), 31},
		{"february non leap", date(2025, time.February, 10), 28},
		{"february leap", date(2024, time.February, 10), 29},
		{"december has 31", date(2025, time.December, 1), 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewBillingPeriod(tt.end.AddDate(0, 0, -(tt.end.Day()-1)), tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.days, p.DaysInMonth())
		})
	}
}

func TestBillingPeriod_IsPartial(t *testing.T) {
	full := FullMonth(date(2025, time.June, 10))
	assert.False(t, full.IsPartial())

	partial, err := NewBillingPeriod(date(2025, time.June, 15), date(2025, time.June, 30))
	require.NoError(t, err)
	assert.True(t, partial.IsPartial())
}

func TestBillingPeriod_Proportion(t *testing.T) {
	tests := []struct {
		name       string
		start      time.Time
		end        time.Time
		proportion string
	}{
		{"16 of 30 days", date(2025, time.June, 15), date(2025, time.June, 30), "0.5333"},
		{"full month", date(2025, time.June, 1), date(2025, time.June, 30), "1"},
		{"10 of 31 days", date(2025, time.July, 1), date(2025, time.July, 10), "0.3226"},
		{"1 of 28 days", date(2025, time.February, 3), date(2025, time.February, 3), "0.0357"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewBillingPeriod(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.proportion, p.Proportion().String())
		})
	}
}

func TestFullMonth(t *testing.T) {
	p := FullMonth(date(2025, time.June, 17))
	assert.Equal(t, date(2025, time.June, 1), p.Start())
	assert.Equal(t, date(2025, time.June, 30), p.End())
	assert.Equal(t, 30, p.EffectiveDays())
	assert.False(t, p.IsPartial())
}

func TestBillingPeriod_Description(t *testing.T) {
	p, err := NewBillingPeriod(date(2025, time.June, 15), date(2025, time.June, 30))
	require.NoError(t, err)
	assert.Equal(t, "Internet 50MB (15 al 30 de Junio 2025)", p.Description("Internet 50MB"))
}

func TestSpanishMonth(t *testing.T) {
	assert.Equal(t, "Enero", SpanishMonth(time.January))
	assert.Equal(t, "Junio", SpanishMonth(time.June))
	assert.Equal(t, "Diciembre", SpanishMonth(time.December))
}
