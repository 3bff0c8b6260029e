package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/weather"
)

// DefaultInterval is the refresh period of the weather set.
const DefaultInterval = 10 * time.Minute

const (
	// EmptyResultMessage is shown when a cycle resolved no city at all.
	EmptyResultMessage = "No weather data available. The API key may not be configured."
	// FailureMessage is shown when a cycle failed unexpectedly.
	FailureMessage = "Failed to load weather data"
)

// ErrCycleInProgress is returned when a refresh is requested while loading.
var ErrCycleInProgress = errors.New("weather refresh already in progress")

// Collector runs one aggregation cycle.
type Collector interface {
	Collect(ctx context.Context) weather.AggregatedSet
}

// Listener receives every set accepted by the controller.
type Listener func(weather.AggregatedSet)

// State is the observable polling state.
type State struct {
	Loading         bool                  `json:"loading"`
	ErrorMessage    *string               `json:"errorMessage"`
	HasUsableSource bool                  `json:"hasUsableSource"`
	Active          bool                  `json:"active"`
	Set             weather.AggregatedSet `json:"set"`
	UpdatedAt       time.Time             `json:"updatedAt,omitzero"`
}

// Controller periodically refreshes the aggregated weather set and exposes
// loading and error state. It is inert until Activate and must be
// Deactivated when the scene goes away.
type Controller struct {
	collector Collector
	interval  time.Duration
	logger    *logger.Logger
	listeners []Listener

	mu         sync.Mutex
	state      State
	scheduler  *gocron.Scheduler
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
}

// New creates a new Controller.
func New(collector Collector, interval time.Duration, log *logger.Logger, listeners ...Listener) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		collector: collector,
		interval:  interval,
		logger:    log,
		listeners: listeners,
		state: State{
			HasUsableSource: true,
			Set:             weather.AggregatedSet{Records: []weather.WeatherRecord{}},
		},
	}
}

// Activate runs a cycle immediately and then every interval. Calling it on
// an active controller is a no-op.
func (c *Controller) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduler != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(c.interval).SingletonMode().Do(func() {
		if err := c.Refresh(ctx); errors.Is(err, ErrCycleInProgress) {
			c.logger.Debug("scheduler: skipping tick, refresh already running")
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule weather refresh: %w", err)
	}

	c.scheduler = s
	c.ctx, c.cancel = ctx, cancel
	c.state.Active = true
	s.StartAsync()

	c.logger.Info("scheduler: weather polling activated", "interval", c.interval.String())
	return nil
}

// Deactivate cancels the interval and the in-flight cycle. Results of a
// cycle that started before Deactivate are discarded.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	s := c.scheduler
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.scheduler = nil
	c.cancel()
	c.generation++
	c.state.Loading = false
	c.state.Active = false
	c.mu.Unlock()

	s.Stop()
	c.logger.Info("scheduler: weather polling deactivated")
}

// Refresh runs one cycle synchronously. It fails with ErrCycleInProgress
// while another cycle is loading.
func (c *Controller) Refresh(ctx context.Context) error {
	gen, ok := c.begin()
	if !ok {
		return ErrCycleInProgress
	}
	c.run(ctx, gen)
	return nil
}

// RefreshAsync starts a cycle in the background, bound to the controller's
// lifetime when active.
func (c *Controller) RefreshAsync() error {
	gen, ok := c.begin()
	if !ok {
		return ErrCycleInProgress
	}

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		ctx = context.Background()
	}

	go c.run(ctx, gen)
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if st.ErrorMessage != nil {
		msg := *st.ErrorMessage
		st.ErrorMessage = &msg
	}
	st.Set.Records = make([]weather.WeatherRecord, len(c.state.Set.Records))
	copy(st.Set.Records, c.state.Set.Records)
	return st
}

// begin marks the start of a cycle: loading set, error cleared.
func (c *Controller) begin() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Loading {
		return 0, false
	}
	c.state.Loading = true
	c.state.ErrorMessage = nil
	return c.generation, true
}

func (c *Controller) run(ctx context.Context, gen uint64) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("scheduler: weather cycle panicked", "panic", fmt.Sprint(r))
			c.finish(gen, weather.AggregatedSet{}, false)
		}
	}()

	c.logger.Debug("scheduler: running weather fetch cycle")
	set := c.collector.Collect(ctx)
	c.finish(gen, set, true)
}

func (c *Controller) finish(gen uint64, set weather.AggregatedSet, ok bool) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("scheduler: discarding result of superseded cycle", "cycle", set.ID)
		return
	}
	c.state.Loading = false

	switch {
	case !ok:
		msg := FailureMessage
		c.state.ErrorMessage = &msg
		c.state.HasUsableSource = false
		c.mu.Unlock()
		return
	case len(set.Records) == 0:
		// Keep the previous set on screen.
		msg := EmptyResultMessage
		c.state.ErrorMessage = &msg
		c.state.HasUsableSource = false
		c.mu.Unlock()
		c.logger.Warn("scheduler: weather cycle returned no data", "cycle", set.ID)
		return
	}

	c.state.Set = set
	c.state.ErrorMessage = nil
	c.state.HasUsableSource = true
	c.state.UpdatedAt = set.CollectedAt
	listeners := c.listeners
	c.mu.Unlock()

	for _, l := range listeners {
		c.notify(l, set)
	}
	c.logger.Info("scheduler: completed weather fetch cycle", "cycle", set.ID, "records", len(set.Records))
}

// notify calls l, isolating the cycle and the other listeners from its panic.
func (c *Controller) notify(l Listener, set weather.AggregatedSet) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("scheduler: listener panicked", "cycle", set.ID, "panic", fmt.Sprint(r))
		}
	}()
	l(set)
}
