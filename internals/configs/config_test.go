package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeConflictPolicy(t *testing.T) {
	assert.Equal(t, ConflictPolicyOverlap, NormalizeConflictPolicy(""))
	assert.Equal(t, ConflictPolicyOverlap, NormalizeConflictPolicy("whatever"))
	assert.Equal(t, ConflictPolicyLegacy, NormalizeConflictPolicy(" LEGACY "))
	assert.Equal(t, ConflictPolicyOff, NormalizeConflictPolicy("off"))
}

func TestEnvReaders(t *testing.T) {
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BAD_DUR", "-1s")
	t.Setenv("X_INT", "7")
	t.Setenv("X_BAD_INT", "abc")
	t.Setenv("X_LIST", " a, ,b ")
	t.Setenv("X_EMPTY", "")

	assert.Equal(t, 90*time.Second, GetDuration("X_DUR", time.Second))
	assert.Equal(t, time.Second, GetDuration("X_BAD_DUR", time.Second))
	assert.Equal(t, 7, GetInt("X_INT", 1))
	assert.Equal(t, 1, GetInt("X_BAD_INT", 1))
	assert.Equal(t, []string{"a", "b"}, GetList("X_LIST", ""))
	assert.Equal(t, "dflt", GetEnv("X_EMPTY", "dflt"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SCHEDULE_CONFLICT_POLICY", "legacy")
	t.Setenv("ATTENDANCE_AUTOCLOSE_CRON", "")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ConflictPolicyLegacy, cfg.ScheduleConflictPolicy)
	assert.Equal(t, "@every 1m", cfg.AttendanceAutoCloseCron)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
}

func TestCronCanBeDisabled(t *testing.T) {
	t.Setenv("ATTENDANCE_AUTOCLOSE_CRON", "OFF")
	assert.Empty(t, Load().AttendanceAutoCloseCron)
}
