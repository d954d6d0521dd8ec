package dataimporter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultRealtimeInterval = 15 * time.Second
	DefaultStaticInterval   = 1 * time.Hour
)

type Loader interface {
	LoadSchedule(ctx context.Context) ScheduleResult
	LoadVehiclePositions(ctx context.Context) LoadResult
	LoadTripUpdates(ctx context.Context) LoadResult
}

// CycleObserver is told about every load the scheduler finishes
type CycleObserver interface {
	ObserveLoad(load string, success bool, count int, duration time.Duration)
}

const (
	LoadNameSchedule         = "schedule"
	LoadNameVehiclePositions = "vehicle-positions"
	LoadNameTripUpdates      = "trip-updates"
)

type RealtimeCycleResult struct {
	VehiclePositions LoadResult `json:"vehiclePositions"`
	TripUpdates      LoadResult `json:"tripUpdates"`
}

type Scheduler struct {
	Loader           Loader
	RealtimeInterval time.Duration
	StaticInterval   time.Duration
	Observers        []CycleObserver

	requests chan RefreshKind

	realtimeRunning atomic.Bool
	staticRunning   atomic.Bool
	running         sync.WaitGroup
}

func NewScheduler(loader Loader) *Scheduler {
	return &Scheduler{
		Loader:           loader,
		RealtimeInterval: DefaultRealtimeInterval,
		StaticInterval:   DefaultStaticInterval,
		requests:         make(chan RefreshKind, 8),
	}
}

// Run loads the schedule and the realtime feeds straight away, then on every tick until ctx is done.
// Cycles run in the background so a slow static load never delays the realtime ticks.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().
		Str("realtime", s.RealtimeInterval.String()).
		Str("static", s.StaticInterval.String()).
		Msg("Starting refresh scheduler")

	realtimeTicker := time.NewTicker(s.RealtimeInterval)
	defer realtimeTicker.Stop()
	staticTicker := time.NewTicker(s.StaticInterval)
	defer staticTicker.Stop()

	s.startStatic(ctx)
	s.startRealtime(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Waiting for running refresh cycles")
			s.running.Wait()
			return ctx.Err()
		case <-realtimeTicker.C:
			s.startRealtime(ctx)
		case <-staticTicker.C:
			s.startStatic(ctx)
		case kind := <-s.requests:
			log.Info().Str("kind", string(kind)).Msg("Manual refresh requested")
			switch kind {
			case RefreshStatic:
				s.startStatic(ctx)
			case RefreshRealtime:
				s.startRealtime(ctx)
			}
		}
	}
}

// Trigger queues a manual refresh. It reports false when the request had to be dropped.
func (s *Scheduler) Trigger(kind RefreshKind) bool {
	select {
	case s.requests <- kind:
		return true
	default:
		return false
	}
}

func (s *Scheduler) startRealtime(ctx context.Context) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.RunRealtimeCycle(ctx)
	}()
}

func (s *Scheduler) startStatic(ctx context.Context) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.RunStaticCycle(ctx)
	}()
}

type namedLoad struct {
	name   string
	result LoadResult
}

// RunRealtimeCycle loads vehicle positions and trip updates concurrently and waits for both,
// whatever either returns. It reports false without loading anything if a cycle is already running.
func (s *Scheduler) RunRealtimeCycle(ctx context.Context) (RealtimeCycleResult, bool) {
	if !s.realtimeRunning.CompareAndSwap(false, true) {
		log.Warn().Msg("Previous realtime cycle still running, skipping")
		return RealtimeCycleResult{}, false
	}
	defer s.realtimeRunning.Store(false)

	startTime := time.Now()

	p := pool.NewWithResults[namedLoad]()
	p.Go(func() namedLoad {
		return s.timedLoad(LoadNameVehiclePositions, func() LoadResult {
			return s.Loader.LoadVehiclePositions(ctx)
		})
	})
	p.Go(func() namedLoad {
		return s.timedLoad(LoadNameTripUpdates, func() LoadResult {
			return s.Loader.LoadTripUpdates(ctx)
		})
	})

	var result RealtimeCycleResult
	for _, load := range p.Wait() {
		switch load.name {
		case LoadNameVehiclePositions:
			result.VehiclePositions = load.result
		case LoadNameTripUpdates:
			result.TripUpdates = load.result
		}
	}

	event := log.Info()
	if !result.VehiclePositions.Success || !result.TripUpdates.Success {
		event = log.Warn()
	}
	event.
		Bool("vehiclepositions", result.VehiclePositions.Success).
		Int("vehicles", result.VehiclePositions.Count).
		Bool("tripupdates", result.TripUpdates.Success).
		Int("updates", result.TripUpdates.Count).
		Str("vehiclepositionserror", result.VehiclePositions.Error).
		Str("tripupdateserror", result.TripUpdates.Error).
		Msgf("Realtime cycle took %s", time.Since(startTime).String())

	return result, true
}

// RunStaticCycle reloads the schedule. It reports false if a static load is already running.
func (s *Scheduler) RunStaticCycle(ctx context.Context) (ScheduleResult, bool) {
	if !s.staticRunning.CompareAndSwap(false, true) {
		log.Warn().Msg("Previous static load still running, skipping")
		return ScheduleResult{}, false
	}
	defer s.staticRunning.Store(false)

	startTime := time.Now()
	result := s.Loader.LoadSchedule(ctx)
	duration := time.Since(startTime)

	s.observe(LoadNameSchedule, result.Success, result.RouteCount+result.TripCount, duration)

	if result.Success {
		log.Info().
			Int("routes", result.RouteCount).
			Int("trips", result.TripCount).
			Msgf("Static load took %s", duration.String())
	} else {
		log.Error().Str("error", result.Error).Msg("Static load failed")
	}

	return result, true
}

func (s *Scheduler) timedLoad(name string, load func() LoadResult) namedLoad {
	startTime := time.Now()
	result := load()

	s.observe(name, result.Success, result.Count, time.Since(startTime))

	return namedLoad{name: name, result: result}
}

func (s *Scheduler) observe(load string, success bool, count int, duration time.Duration) {
	for _, observer := range s.Observers {
		observer.ObserveLoad(load, success, count, duration)
	}
}
