package transport

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/sources/catalog"
)

const (
	// DefaultSimInterval is how often the generator rolls the dice.
	DefaultSimInterval = 5 * time.Second
	// DefaultSimProbability is the chance that a tick produces an event.
	DefaultSimProbability = 0.3
)

// SimulatedOptions configures the synthetic generator.
type SimulatedOptions struct {
	Interval    time.Duration
	Probability float64
	Catalog     *catalog.Catalog // default: embedded catalog
	Rand        *rand.Rand       // default: time-seeded
	NewID       func() string    // default: uuid
	Now         func() time.Time // default: time.Now
}

// Simulated produces synthetic `new` events on a fixed interval. The ticker
// is owned by the transport: it starts on Connect and is gone after
// Disconnect returns.
type Simulated struct {
	opts    SimulatedOptions
	mapper  *catalog.Mapper
	handler Handler
	logger  logger.Logger
	emitted atomic.Int64

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

var _ Transport = (*Simulated)(nil)

// NewSimulated creates a stopped generator.
func NewSimulated(opts SimulatedOptions, handler Handler, log logger.Logger) *Simulated {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSimInterval
	}
	if opts.Probability < 0 || opts.Probability > 1 {
		opts.Probability = DefaultSimProbability
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Simulated{
		opts:    opts,
		mapper:  catalog.NewMapper(opts.Now),
		handler: handler,
		logger:  log,
	}
}

// Connect starts the generator. The credential is ignored.
func (s *Simulated) Connect(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stopCh, s.done)

	s.logger.Info("simulated transport started",
		logger.Duration("interval", s.opts.Interval),
		logger.Float64("probability", s.opts.Probability))
	return nil
}

// Disconnect stops the generator and waits for the current tick to finish.
// The wait happens outside the lock, so a handler may still call Status.
func (s *Simulated) Disconnect() {
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh, s.done = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	<-done

	s.logger.Info("simulated transport stopped",
		logger.Int("emitted", int(s.emitted.Load())))
}

// Status is connected while the generator runs.
func (s *Simulated) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return StatusConnected
	}
	return StatusDisconnected
}

// Mode always returns ModeSimulated.
func (s *Simulated) Mode() Mode { return ModeSimulated }

// Delivered returns how many events were generated so far.
func (s *Simulated) Delivered() int64 {
	return s.emitted.Load()
}

func (s *Simulated) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// a stop request wins over a tick that fired at the same time
			select {
			case <-stopCh:
				return
			default:
			}
			s.tick()
		case <-stopCh:
			return
		}
	}
}

// tick is one independent unit of work; it runs only on the run goroutine.
func (s *Simulated) tick() {
	if s.opts.Rand.Float64() >= s.opts.Probability {
		return
	}

	archetypes := s.opts.Catalog.Archetypes
	arch := archetypes[s.opts.Rand.Intn(len(archetypes))]
	raw := s.mapper.Instantiate(arch, s.opts.NewID(), s.opts.Rand)

	s.emitted.Add(1)
	s.logger.Debug("simulated event",
		logger.String("archetype", arch.Name),
		logger.String("id", raw.ID))

	s.handler(domain.InboundEvent{Kind: domain.EventNew, Raw: raw})
}
