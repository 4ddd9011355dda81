// Package influx ships settlement results and indexer status samples to
// InfluxDB, falling back to a gzip line-protocol file when the server is
// unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/engine"
	"github.com/dfarena/indexer/internal/monitor"
)

const (
	// BucketMatches receives match_settled and rating_update points.
	BucketMatches = "match_data"
	// BucketIndexer receives indexer_status points.
	BucketIndexer = "indexer_performance"
)

// DefaultBucketNames are the buckets created on connect.
var DefaultBucketNames = []string{BucketMatches, BucketIndexer}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	mu         sync.Mutex
	backupFile *os.File
}

var (
	_ engine.Observer = (*Manager)(nil)
	_ monitor.Sink    = (*Manager)(nil)
)

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		IsValid:     false,
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
		cfg:         cfg,
	}
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer a ping, points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)

	if err != nil || !running {
		m.Logger.Info().Str("backupPath", m.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		if err := m.OpenBackup(); err != nil {
			return err
		}
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBuckets(ctx); err != nil {
		return err
	}
	m.CreateWriters()
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

// OpenBackup opens the gzip backup file if it is not open yet.
func (m *Manager) OpenBackup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBuckets(ctx context.Context) error {
	orgName := m.cfg.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	for _, bucket := range m.BucketNames {
		m.Writers[bucket] = m.Client.WriteAPI(m.cfg.Org, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(strings.TrimSuffix(lineProtocol, "\n") + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// MatchSettled records a settled arena.
func (m *Manager) MatchSettled(ctx context.Context, s engine.Settlement) {
	point := influxdb2_write.NewPoint(
		"match_settled",
		map[string]string{
			"arena":      s.Arena,
			"configHash": s.ConfigHash,
			"ranked":     fmt.Sprint(s.Ranked),
		},
		map[string]any{
			"players":  s.Players,
			"winners":  len(s.Winners),
			"duration": s.Duration,
		},
		time.Unix(s.EndTime, 0),
	)
	if err := m.WritePoint(ctx, BucketMatches, point); err != nil {
		m.Logger.Error().Err(err).Str("arena", s.Arena).Msg("Error writing settlement point")
	}
}

// RatingUpdated records one applied rating change.
func (m *Manager) RatingUpdated(ctx context.Context, u engine.RatingUpdate) {
	point := influxdb2_write.NewPoint(
		"rating_update",
		map[string]string{
			"arena":      u.Arena,
			"configHash": u.ConfigHash,
			"winner":     u.Winner,
			"loser":      u.Loser,
		},
		map[string]any{
			"winnerElo": u.WinnerElo,
			"loserElo":  u.LoserElo,
			"delta":     u.Delta,
		},
		time.Now(),
	)
	if err := m.WritePoint(ctx, BucketMatches, point); err != nil {
		m.Logger.Error().Err(err).Str("arena", u.Arena).Msg("Error writing rating point")
	}
}

// WriteStatus records one monitor sample.
func (m *Manager) WriteStatus(ctx context.Context, s monitor.Status) error {
	point := influxdb2_write.NewPointWithMeasurement("indexer_status").
		AddField("processed", s.Dispatcher.Processed).
		AddField("failed", s.Dispatcher.Failed).
		AddField("dropped", s.Dispatcher.Dropped).
		AddField("queued", s.Dispatcher.Queued).
		AddField("settled", s.Engine.Settled).
		AddField("ratingUpdates", s.Engine.RatingUpdates).
		AddField("integrityFaults", s.Engine.IntegrityFaults).
		AddField("configFailures", s.Engine.ConfigFailures).
		AddField("lastWriteMs", s.LastWriteDurationMs).
		SetTime(s.Time)
	return m.WritePoint(ctx, BucketIndexer, point)
}

// Close flushes pending writes and closes the client and backup file.
func (m *Manager) Close() error {
	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}
