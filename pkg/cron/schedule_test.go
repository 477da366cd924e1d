package cron_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/pkg/cron"
)

func TestParse(t *testing.T) {
	from := time.Date(2025, 3, 10, 9, 15, 30, 0, time.UTC)

	cases := []struct {
		desc     string
		expr     string
		timezone string
		next     time.Time
		err      error
	}{
		{
			desc: "every five minutes",
			expr: "*/5 * * * *",
			next: time.Date(2025, 3, 10, 9, 20, 0, 0, time.UTC),
		},
		{
			desc: "hourly descriptor",
			expr: "@hourly",
			next: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			desc: "interval descriptor",
			expr: "@every 10m",
			next: from.Add(10 * time.Minute),
		},
		{
			desc:     "daily in timezone",
			expr:     "0 12 * * *",
			timezone: "Asia/Karachi",
			next:     time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC),
		},
		{
			desc: "empty",
			expr: "",
			err:  cron.ErrInvalidExpression,
		},
		{
			desc: "seconds field",
			expr: "0 */5 * * * *",
			err:  cron.ErrInvalidExpression,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			s, err := cron.Parse(tc.expr, tc.timezone)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.True(t, tc.next.Equal(s.Next(from)), "got %s want %s", s.Next(from), tc.next)
			assert.Equal(t, tc.expr, s.String())
		})
	}
}

func TestParseInvalidTimezone(t *testing.T) {
	_, err := cron.Parse("@daily", "Mars/Olympus")
	assert.Error(t, err)
}
