package weather

import (
	"errors"
	"testing"
)

func TestParseCityQuery(t *testing.T) {
	got := ParseCityQuery(" Rome,IT ;New York,US;; ")
	if len(got) != 2 || got[0] != "Rome,IT" || got[1] != "New York,US" {
		t.Errorf("unexpected query %#v", got)
	}
	if q := ParseCityQuery(""); len(q) != 0 {
		t.Errorf("expected empty query, got %#v", q)
	}
}

func TestWeatherRecord_LocalTime(t *testing.T) {
	ts, offset := int64(1714564800), 7200 // 2024-05-01T12:00:00Z
	r := WeatherRecord{ObservedAt: &ts, UTCOffset: &offset}

	local, ok := r.LocalTime()
	if !ok {
		t.Fatal("expected local time to be available")
	}
	if got := local.Format("15:04"); got != "14:00" {
		t.Errorf("expected 14:00 local time, got %s", got)
	}

	if _, ok := (WeatherRecord{ObservedAt: &ts}).LocalTime(); ok {
		t.Error("expected no local time without offset")
	}
}

func TestWeatherRecord_Validate(t *testing.T) {
	valid := WeatherRecord{City: "Rome", Country: "IT", Description: "clear sky", Lat: 41.9, Lon: 12.5}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	invalid := valid
	invalid.Lon = 181
	if err := invalid.Validate(); !errors.Is(err, ErrIncompleteData) {
		t.Errorf("expected ErrIncompleteData, got %v", err)
	}
}

func TestRecordKey(t *testing.T) {
	r := WeatherRecord{City: "New York", Country: "US"}
	if r.Key() != "New York:US" {
		t.Errorf("unexpected key %q", r.Key())
	}
}
