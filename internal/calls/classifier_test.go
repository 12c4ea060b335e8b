package calls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLead(t *testing.T) {
	tests := []struct {
		name string
		s    Summary
		want bool
	}{
		{
			"wrong number forces non-lead even with keywords",
			Summary{Transcript: "sorry wrong number, I was calling about a leak", DurationMS: 120_000},
			false,
		},
		{
			"misdial",
			Summary{SummaryText: "Caller misdialed.", DurationMS: 200_000},
			false,
		},
		{
			"confirmed booking forces lead",
			Summary{BookingConfirmed: true, DurationMS: 5_000},
			true,
		},
		{
			"address on file forces lead",
			Summary{HasAddress: true, DurationMS: 5_000},
			true,
		},
		{
			"schedule preference forces lead",
			Summary{HasSchedule: true, DurationMS: 5_000},
			true,
		},
		{
			"substantive issue description forces lead",
			Summary{Issue: "water heater leaking into the basement", DurationMS: 10_000},
			true,
		},
		{
			"service keyword in transcript forces lead",
			Summary{Transcript: "my toilet keeps running", DurationMS: 10_000},
			true,
		},
		{
			"short empty call defaults non-lead",
			Summary{DurationMS: 8_000},
			false,
		},
		{
			"long call with no signal defaults lead",
			Summary{Transcript: "general questions about the company", DurationMS: 90_000},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLead(tt.s))
		})
	}
}
