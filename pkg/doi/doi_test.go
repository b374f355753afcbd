package doi

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	t.Run("generates valid non-zero DOI", func(t *testing.T) {
		d := Mint("")
		assert.False(t, d.IsZero())
		assert.Regexp(t, regexp.MustCompile(`^10\.20393/[0-9a-f-]{36}$`), d.String())
	})

	t.Run("generates unique DOIs", func(t *testing.T) {
		d1 := Mint("")
		d2 := Mint("")
		assert.False(t, d1.Equal(d2))
	})

	t.Run("uses provided prefix", func(t *testing.T) {
		d := Mint("10.5072")
		assert.Equal(t, "10.5072", d.Prefix())
		assert.Len(t, d.Suffix(), 36)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "valid DOI",
			input: "10.20393/3fa85f64-5717-4562-b3fc-2c963f66afa6",
		},
		{
			name:  "valid DOI with non-UUID suffix",
			input: "10.5072/example.2023",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing suffix",
			input:   "10.20393/",
			wantErr: true,
		},
		{
			name:    "missing slash",
			input:   "10.20393",
			wantErr: true,
		},
		{
			name:    "bad directory indicator",
			input:   "11.20393/abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, d.String())
		})
	}
}

func TestMustParse(t *testing.T) {
	t.Run("parses valid DOI", func(t *testing.T) {
		d := MustParse("10.20393/abc")
		assert.Equal(t, "10.20393/abc", d.String())
	})

	t.Run("panics on invalid DOI", func(t *testing.T) {
		assert.Panics(t, func() {
			MustParse("not-a-doi")
		})
	})
}
