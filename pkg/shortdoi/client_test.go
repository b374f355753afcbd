package shortdoi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Resolve(t *testing.T) {
	t.Run("extracts the alias from the response page", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/10.20393/abc", r.URL.Path)

			_, _ = w.Write([]byte(`<html><body>` +
				`<div class="para">The shortDOI service has created the shortcut</div>` +
				`<div class="para">10/abcde</div>` +
				`<div class="para">for your DOI</div>` +
				`</body></html>`))
		}))
		defer mockServer.Close()

		client := NewClient(Config{BaseURL: mockServer.URL})

		alias, err := client.Resolve(context.Background(), "10.20393/abc")
		require.NoError(t, err)
		assert.Equal(t, "10/abcde", alias)
	})

	t.Run("200 without the marker yields empty alias, not an error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body>unexpected page</body></html>`))
		}))
		defer mockServer.Close()

		client := NewClient(Config{BaseURL: mockServer.URL})

		alias, err := client.Resolve(context.Background(), "10.20393/abc")
		require.NoError(t, err)
		assert.Empty(t, alias)
	})

	t.Run("non-200 yields StatusError with code and body", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("DOI not found"))
		}))
		defer mockServer.Close()

		client := NewClient(Config{BaseURL: mockServer.URL})

		_, err := client.Resolve(context.Background(), "10.20393/missing")
		require.Error(t, err)

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Equal(t, "DOI not found", statusErr.Body)
	})
}

func TestExtractAlias(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "marker present",
			body: `...<div class="para">10/abcde</div>...`,
			want: "10/abcde",
		},
		{
			name: "surrounding whitespace trimmed",
			body: `<div class="para">10/abcde ` + "\n" + `</div>`,
			want: "10/abcde",
		},
		{
			name: "marker absent",
			body: `<div class="other">10/abcde</div>`,
			want: "",
		},
		{
			name: "unterminated marker",
			body: `<div class="para">10/abcde`,
			want: "",
		},
		{
			name: "para div without the shortcut prefix is skipped",
			body: `<div class="para">notice</div><div class="para">10/xyz</div>`,
			want: "10/xyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAlias(tt.body))
		})
	}
}
