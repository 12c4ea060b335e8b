package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"formatted with country code", "1-937-884-3414", "9378843414", false},
		{"bare ten digits", "9378843414", "9378843414", false},
		{"parenthesized", "(937) 884-3414", "9378843414", false},
		{"e164", "+19378843414", "9378843414", false},
		{"eleven digits leading one", "19378843414", "9378843414", false},
		{"seven digits", "884-3414", "", true},
		{"eleven digits no leading one", "29378843414", "", true},
		{"empty", "", "", true},
		{"letters only", "call me", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
