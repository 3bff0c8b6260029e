// Package scene composes the globe view: one marker per weather record,
// hover highlighting and a single detail popup for the selected marker.
package scene

import (
	"errors"
	"sync"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-globe/internal/geo"
	"github.com/i474232898/weather-globe/internal/weather"
)

const (
	// RotationSpeed is the globe spin around Y in radians per second.
	RotationSpeed = 0.05
	// GlobeAsset is the mesh served to the front-end.
	GlobeAsset = "/earth.glb"

	markerSize     = 0.05
	ringInner      = 0.06
	ringOuter      = 0.08
	opacityIdle    = 0.8
	opacityHovered = 1.0
	opacityRing    = 0.5
)

// ErrUnknownMarker is returned for a marker key that is not in the scene.
var ErrUnknownMarker = errors.New("unknown marker")

// Globe describes the rotating sphere the markers are attached to.
type Globe struct {
	Radius        float64 `json:"radius"`
	RotationSpeed float64 `json:"rotationSpeed"`
	Asset         string  `json:"asset"`
}

// Ring is the highlight drawn around a hovered marker.
type Ring struct {
	Inner   float64 `json:"inner"`
	Outer   float64 `json:"outer"`
	Opacity float64 `json:"opacity"`
}

// Marker is one rendered point on the globe.
type Marker struct {
	Key         string    `json:"key"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature int       `json:"temperature"`
	Position    geo.Point `json:"position"`
	Band        Band      `json:"band"`
	Size        float64   `json:"size"`
	Opacity     float64   `json:"opacity"`
	Hovered     bool      `json:"hovered"`
	Selected    bool      `json:"selected"`
	Ring        *Ring     `json:"ring,omitempty"`
}

// Popup is the detail panel of the selected marker.
type Popup struct {
	Key         string    `json:"key"`
	Position    geo.Point `json:"position"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature int       `json:"temperature"`
	Condition   string    `json:"condition"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	LocalTime   string    `json:"localTime,omitempty"`
	Daylight    *bool     `json:"daylight,omitempty"`
}

// View is a point-in-time copy of the scene.
type View struct {
	Globe   Globe    `json:"globe"`
	Markers []Marker `json:"markers"`
	Popup   *Popup   `json:"popup,omitempty"`
	Legend  []Band   `json:"legend,omitempty"`
	Status  Status   `json:"status"`
}

// Scene owns the displayed records, the hover flags and the selection.
type Scene struct {
	mu       sync.RWMutex
	radius   float64
	records  []weather.WeatherRecord
	hovered  map[string]bool
	selected string
}

// New creates an empty scene on a globe of the given radius.
func New(radius float64) *Scene {
	if radius <= 0 {
		radius = geo.DefaultRadius
	}
	return &Scene{
		radius:  radius,
		hovered: make(map[string]bool),
	}
}

// SetRecords replaces the displayed records wholesale. Records with invalid
// coordinates are skipped. A repeated key keeps its first position and the
// last record. Hover flags and the selection survive only for keys that are
// still present.
func (s *Scene) SetRecords(records []weather.WeatherRecord) {
	next := make([]weather.WeatherRecord, 0, len(records))
	keys := make(map[string]int, len(records))
	for _, r := range records {
		if !geo.Valid(r.Lat, r.Lon) {
			continue
		}
		if i, ok := keys[r.Key()]; ok {
			next[i] = r
			continue
		}
		keys[r.Key()] = len(next)
		next = append(next, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = next
	for k := range s.hovered {
		if _, ok := keys[k]; !ok {
			delete(s.hovered, k)
		}
	}
	if _, ok := keys[s.selected]; !ok {
		s.selected = ""
	}
}

// Select makes key the selected marker, replacing any earlier selection.
func (s *Scene) Select(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(key); !ok {
		return ErrUnknownMarker
	}
	s.selected = key
	return nil
}

// ClearSelection closes the popup.
func (s *Scene) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// Selected returns the selected record, if any.
func (s *Scene) Selected() (weather.WeatherRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		return weather.WeatherRecord{}, false
	}
	return s.findLocked(s.selected)
}

// Hover sets or clears the hover flag of key.
func (s *Scene) Hover(key string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(key); !ok {
		return ErrUnknownMarker
	}
	if on {
		s.hovered[key] = true
	} else {
		delete(s.hovered, key)
	}
	return nil
}

// View renders the scene with the given status banner.
func (s *Scene) View(status Status) View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Globe: Globe{
			Radius:        s.radius,
			RotationSpeed: RotationSpeed,
			Asset:         GlobeAsset,
		},
		Markers: make([]Marker, 0, len(s.records)),
		Status:  status,
	}
	if len(s.records) > 0 {
		v.Legend = Legend()
	}

	for _, r := range s.records {
		m := s.markerLocked(r)
		v.Markers = append(v.Markers, m)
		if m.Selected {
			v.Popup = newPopup(r, m.Position)
		}
	}
	return v
}

func (s *Scene) markerLocked(r weather.WeatherRecord) Marker {
	key := r.Key()
	m := Marker{
		Key:         key,
		City:        r.City,
		Country:     r.Country,
		Temperature: r.Temperature,
		Position:    geo.Project(r.Lat, r.Lon, s.radius),
		Band:        TemperatureBand(r.Temperature),
		Size:        markerSize,
		Opacity:     opacityIdle,
		Hovered:     s.hovered[key],
		Selected:    key == s.selected,
	}
	if m.Hovered {
		m.Opacity = opacityHovered
		m.Ring = &Ring{Inner: ringInner, Outer: ringOuter, Opacity: opacityRing}
	}
	return m
}

func (s *Scene) findLocked(key string) (weather.WeatherRecord, bool) {
	for _, r := range s.records {
		if r.Key() == key {
			return r, true
		}
	}
	return weather.WeatherRecord{}, false
}

func newPopup(r weather.WeatherRecord, pos geo.Point) *Popup {
	p := &Popup{
		Key:         r.Key(),
		Position:    pos,
		City:        r.City,
		Country:     r.Country,
		Temperature: r.Temperature,
		Condition:   cases.Title(language.Und).String(r.Description),
		Humidity:    r.Humidity,
		WindSpeed:   r.WindSpeed,
	}
	if local, ok := r.LocalTime(); ok {
		p.LocalTime = local.Format("15:04")
	}
	if observed, ok := r.Observed(); ok {
		p.Daylight = daylight(r, observed)
	}
	return p
}

// daylight reports whether the sun was up at the record's position when it
// was observed. It returns nil during polar day or night.
func daylight(r weather.WeatherRecord, observed time.Time) *bool {
	day := observed
	if local, ok := r.LocalTime(); ok {
		day = local
	}
	rise, set := sunrise.SunriseSunset(r.Lat, r.Lon, day.Year(), day.Month(), day.Day())
	if rise.IsZero() || set.IsZero() {
		return nil
	}
	up := !observed.Before(rise) && observed.Before(set)
	return &up
}
