package weather

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProxyClient_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(ProxyPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("city") {
		case "Rome,IT":
			_, _ = w.Write([]byte(`{"city":"Rome","country":"IT","temperature":24,"description":"clear sky",` +
				`"humidity":40,"windSpeed":3.2,"lat":41.9,"lon":12.5,"observedAt":1714564800,"utcOffset":7200}`))
		case "Broken,XX":
			_, _ = w.Write([]byte(`{"city":`))
		case "Nowhere,XX":
			_, _ = w.Write([]byte(`{"city":"Nowhere","country":"XX","description":"N/A","lat":123,"lon":0}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Weather API error: Not Found","details":"city not found","status":404}`))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewProxyClient(srv.Client(), srv.URL+"/")

	t.Run("decodes a normalized record", func(t *testing.T) {
		r, err := c.Fetch(t.Context(), "Rome,IT")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.City != "Rome" || r.Temperature != 24 || r.UTCOffset == nil || *r.UTCOffset != 7200 {
			t.Errorf("unexpected record %+v", r)
		}
	})
	t.Run("non-2xx is an error", func(t *testing.T) {
		_, err := c.Fetch(t.Context(), "Atlantis,XX")
		if err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("expected 404 error, got %v", err)
		}
	})
	t.Run("malformed body is an error", func(t *testing.T) {
		if _, err := c.Fetch(t.Context(), "Broken,XX"); err == nil {
			t.Error("expected decode error")
		}
	})
	t.Run("invalid record is an error", func(t *testing.T) {
		if _, err := c.Fetch(t.Context(), "Nowhere,XX"); err == nil {
			t.Error("expected validation error")
		}
	})
}
