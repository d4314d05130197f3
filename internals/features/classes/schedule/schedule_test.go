package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slot(day Day, start, end string) TimeSlot {
	return TimeSlot{Day: day, Start: MustClock(start), End: MustClock(end)}
}

func TestOverlapsHalfOpen(t *testing.T) {
	tests := []struct {
		name string
		a, b Schedule
		want bool
	}{
		{"same slot", Schedule{slot(Monday, "09:00", "10:00")}, Schedule{slot(Monday, "09:00", "10:00")}, true},
		{"partial", Schedule{slot(Monday, "09:00", "10:30")}, Schedule{slot(Monday, "10:00", "11:00")}, true},
		{"contained", Schedule{slot(Friday, "08:00", "12:00")}, Schedule{slot(Friday, "09:00", "09:30")}, true},
		{"back to back", Schedule{slot(Monday, "10:00", "11:00")}, Schedule{slot(Monday, "11:00", "12:00")}, false},
		{"different day", Schedule{slot(Monday, "09:00", "10:00")}, Schedule{slot(Tuesday, "09:00", "10:00")}, false},
		{"second slot hits", Schedule{slot(Monday, "09:00", "10:00"), slot(Wednesday, "13:00", "14:00")}, Schedule{slot(Wednesday, "13:30", "15:00")}, true},
		{"empty left", nil, Schedule{slot(Monday, "09:00", "10:00")}, false},
		{"both empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be commutative")
		})
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Schedule{}.Validate(), ErrEmptySchedule)
	assert.Error(t, Schedule{slot(Monday, "10:00", "09:00")}.Validate())
	assert.Error(t, Schedule{slot(Monday, "10:00", "10:00")}.Validate())
	assert.Error(t, Schedule{{Day: 9, Start: 0, End: 60}}.Validate())
	assert.Error(t, Schedule{slot(Monday, "09:00", "10:00"), slot(Monday, "09:30", "11:00")}.Validate())
	assert.NoError(t, Schedule{slot(Monday, "09:00", "10:00"), slot(Monday, "10:00", "11:00")}.Validate())
	assert.NoError(t, Schedule{slot(Sunday, "22:00", "24:00")}.Validate())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("Wednesday")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, d)

	d, err = ParseDay("SAT")
	require.NoError(t, err)
	assert.Equal(t, Saturday, d)

	_, err = ParseDay("funday")
	assert.Error(t, err)
	_, err = ParseDay("mo")
	assert.Error(t, err)
}

func TestParseAndString(t *testing.T) {
	s, err := Parse("mon 9:00-10:00, wednesday 13:00-14:30")
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "monday 09:00-10:00, wednesday 13:00-14:30", s.String())

	_, err = Parse("monday 09:00")
	assert.Error(t, err)
	_, err = Parse("")
	assert.ErrorIs(t, err, ErrEmptySchedule)
}

func TestJSON(t *testing.T) {
	in := Schedule{slot(Tuesday, "08:15", "09:45")}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"day":"tuesday","start":"08:15","end":"09:45"}]`, string(b))

	var out Schedule
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	require.NoError(t, json.Unmarshal([]byte(`"thu 10:00-11:00"`), &out))
	assert.Equal(t, Schedule{slot(Thursday, "10:00", "11:00")}, out)

	assert.Error(t, json.Unmarshal([]byte(`[{"day":"noday","start":"08:00","end":"09:00"}]`), &out))
}

func TestFirstConflictReportsPair(t *testing.T) {
	a := Schedule{slot(Monday, "09:00", "10:00"), slot(Thursday, "14:00", "15:00")}
	b := Schedule{slot(Thursday, "14:30", "16:00")}
	x, y, ok := FirstConflict(a, b)
	require.True(t, ok)
	assert.Equal(t, a[1], x)
	assert.Equal(t, b[0], y)
}

func TestLegacyEqual(t *testing.T) {
	assert.True(t, LegacyEqual("Mon 9-10", " Mon 9-10 "))
	assert.False(t, LegacyEqual("Mon 9-10", "Mon 9-11"))
}
