package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDomain_OverridesDefaults(t *testing.T) {
	d, err := DecodeDomain(`
[calendar]
default_timezone = "Australia/Melbourne"
working_hours_start = 8

[requests]
ttl = "72h"

[fees]
platform_fee_percent = 12.5
`)
	require.NoError(t, err)

	assert.Equal(t, "Australia/Melbourne", d.Calendar.DefaultTimezone)
	assert.Equal(t, 8, d.Calendar.WorkingHoursStart)
	assert.Equal(t, 21, d.Calendar.WorkingHoursEnd)
	assert.Equal(t, 72*time.Hour, d.Requests.TTL.Duration)
	assert.Equal(t, 10*time.Minute, d.Requests.ExpirySweepInterval.Duration)
	assert.InDelta(t, 12.5, d.Fees.PlatformFeePercent, 0.0001)
	assert.Equal(t, 7, d.Offers.DefaultExpiryDays)
}

func TestDecodeDomain_RejectsBadHours(t *testing.T) {
	_, err := DecodeDomain(`
[calendar]
working_hours_start = 22
working_hours_end = 9
`)
	assert.Error(t, err)
}

func TestLoadDomain_MissingFileUsesDefaults(t *testing.T) {
	d, err := LoadDomain("./does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultDomain(), d)
}
