package contact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks_All(t *testing.T) {
	tests := []struct {
		name  string
		links Links
		want  []Link
	}{
		{
			name:  "defaults",
			links: DefaultLinks(),
			want: []Link{
				{Name: NameBookingForm, URL: DefaultBookingFormURL},
				{Name: NameMessaging, URL: DefaultMessagingURL},
			},
		},
		{
			name:  "empty URL is skipped",
			links: Links{MessagingURL: "https://wa.me/1"},
			want: []Link{
				{Name: NameMessaging, URL: "https://wa.me/1"},
			},
		},
		{
			name:  "nothing configured",
			links: Links{},
			want:  []Link{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.links.All())
		})
	}
}

func TestProber_Probe(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/form":
			w.WriteHeader(http.StatusOK)
		case "/chat":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	prober := NewProber(time.Second)

	t.Run("reachable links and GET fallback", func(t *testing.T) {
		methods = nil
		got := prober.Probe(context.Background(), Links{
			BookingFormURL: server.URL + "/form",
			MessagingURL:   server.URL + "/chat",
		})

		require.Len(t, got, 2)
		assert.Equal(t, Status{Name: NameBookingForm, URL: server.URL + "/form", StatusCode: http.StatusOK, Reachable: true}, got[0])
		assert.Equal(t, Status{Name: NameMessaging, URL: server.URL + "/chat", StatusCode: http.StatusOK, Reachable: true}, got[1])
		assert.Equal(t, []string{"HEAD /form", "HEAD /chat", "GET /chat"}, methods)
	})

	t.Run("broken link", func(t *testing.T) {
		got := prober.Probe(context.Background(), Links{BookingFormURL: server.URL + "/gone"})

		require.Len(t, got, 1)
		assert.False(t, got[0].Reachable)
		assert.Equal(t, http.StatusNotFound, got[0].StatusCode)
		assert.Error(t, got[0].Err)
	})

	t.Run("unreachable host", func(t *testing.T) {
		closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		closedURL := closed.URL
		closed.Close()

		got := prober.Probe(context.Background(), Links{MessagingURL: closedURL})

		require.Len(t, got, 1)
		assert.False(t, got[0].Reachable)
		assert.Zero(t, got[0].StatusCode)
		assert.Error(t, got[0].Err)
	})
}
