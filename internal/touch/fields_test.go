package touch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickExactBeforeNormalized(t *testing.T) {
	d := Document{"Fecha": "2025-02-01", "fecha": "", "FechaReg": "2025-03-01"}
	assert.Equal(t, "2025-02-01", d.Pick(TimestampKeys...))
}

func TestPickNormalizedFallback(t *testing.T) {
	d := Document{"Can Tad": 3.0}
	assert.Equal(t, 3.0, d.Pick(QuantityKeys...))

	d = Document{"NUM TIKET": "42"}
	assert.Equal(t, "42", d.PickString(TicketKeys...))
}

func TestPickMissing(t *testing.T) {
	d := Document{"other": "x", "cantidad": nil}
	assert.Nil(t, d.Pick(QuantityKeys...))
	assert.Equal(t, "", d.PickString(QuantityKeys...))
}

func TestLinesIgnoresNonObjects(t *testing.T) {
	d := Document{"productos": []any{map[string]any{"referencia": "A1"}, "junk", nil}}
	lines := d.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "A1", lines[0].String("referencia"))

	assert.Empty(t, Document{}.Lines())
}

func TestStringFormatsIntegralNumbers(t *testing.T) {
	d := Document{"referencia": 1234.0, "precio": 2.5}
	assert.Equal(t, "1234", d.String("referencia"))
	assert.Equal(t, "2.5", d.String("precio"))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-02-03T10:15:30", time.Date(2025, 2, 3, 10, 15, 30, 0, time.UTC)},
		{"2025-02-03T10:15:30Z", time.Date(2025, 2, 3, 10, 15, 30, 0, time.UTC)},
		{"2025-02-03T10:15:30.123", time.Date(2025, 2, 3, 10, 15, 30, 0, time.UTC)},
		{"2025-02-03T10:15", time.Date(2025, 2, 3, 10, 15, 0, 0, time.UTC)},
		{"2025-02-03 08:05:00", time.Date(2025, 2, 3, 8, 5, 0, 0, time.UTC)},
		{"2025-02-03", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"2025-02-03Tgarbage", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestDocumentTimestamp(t *testing.T) {
	ts, err := Document{"FechaReg": "2025-02-03T09:00:00"}.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, 9, ts.Hour())

	_, err = Document{}.Timestamp()
	assert.Error(t, err)
}
