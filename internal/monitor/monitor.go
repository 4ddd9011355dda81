package monitor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/internal/engine"
)

// Sink receives every status sample.
type Sink interface {
	WriteStatus(ctx context.Context, s Status) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger     zerolog.Logger
	Dispatcher interface{ Stats() dispatcher.Stats }
	Engine     interface{ Stats() engine.Stats }
	// LastWrite reports the duration of the most recent storage write.
	LastWrite  func() time.Duration
	StatusFile string
	Interval   time.Duration
	Sink       Sink
}

// Status is one sample of the indexer's counters.
type Status struct {
	Time                time.Time        `json:"time"`
	Dispatcher          dispatcher.Stats `json:"dispatcher"`
	Engine              engine.Stats     `json:"engine"`
	LastWriteDurationMs float64          `json:"lastWriteDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 10 * time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus samples the current counters and renders them as
// indented JSON lines.
func (s *Service) GetProgramStatus() (output []string, status Status) {
	status.Time = time.Now()
	if s.deps.Dispatcher != nil {
		status.Dispatcher = s.deps.Dispatcher.Stats()
	}
	if s.deps.Engine != nil {
		status.Engine = s.deps.Engine.Stats()
	}
	if s.deps.LastWrite != nil {
		status.LastWriteDurationMs = float64(s.deps.LastWrite().Microseconds()) / 1000
	}

	for _, part := range []any{status.Dispatcher, status.Engine, status.LastWriteDurationMs} {
		b, err := json.MarshalIndent(part, "", "  ")
		if err != nil {
			b = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(b))
	}
	return output, status
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	var statusFile *os.File
	if s.deps.StatusFile != "" {
		f, err := os.Create(s.deps.StatusFile)
		if err != nil {
			s.deps.Logger.Error().Err(err).Str("path", s.deps.StatusFile).Msg("Error creating status file")
		} else {
			statusFile = f
		}
	}

	go func() {
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(s.done)
		}()

		s.deps.Logger.Debug().Dur("interval", s.deps.Interval).Msg("Starting status monitor")
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sample(statusFile)
			}
		}
	}()

	return nil
}

func (s *Service) sample(statusFile *os.File) {
	lines, status := s.GetProgramStatus()

	if statusFile != nil {
		statusFile.Truncate(0)
		statusFile.Seek(0, 0)
		for _, line := range lines {
			statusFile.WriteString(line + "\n")
		}
	}

	s.deps.Logger.Info().
		Int64("processed", status.Dispatcher.Processed).
		Int64("failed", status.Dispatcher.Failed).
		Int64("dropped", status.Dispatcher.Dropped).
		Int("queued", status.Dispatcher.Queued).
		Int("settled", status.Engine.Settled).
		Int("integrityFaults", status.Engine.IntegrityFaults).
		Float64("lastWriteMs", status.LastWriteDurationMs).
		Msg("Indexer status")

	if s.deps.Sink != nil {
		if err := s.deps.Sink.WriteStatus(context.Background(), status); err != nil {
			s.deps.Logger.Error().Err(err).Msg("Error writing status sample")
		}
	}
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
