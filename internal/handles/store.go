package handles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/northpeak/mcp-jobnimbus/internal/logging"
)

// DefaultTTL is the default lifetime of a stored result.
const DefaultTTL = 900 * time.Second

// DefaultCleanupInterval is how often the background sweep runs. This is
// separate from native TTL expiry - entries are also removed on access if
// expired.
const DefaultCleanupInterval = 300 * time.Second

// keyPrefix namespaces all store keys in the backend.
const keyPrefix = "results:"

// MetricsCallback is an interface for recording store metrics.
// This allows the store to report metrics without depending on the
// instrumentation package.
type MetricsCallback interface {
	// OnStoreHit is called when a retrieve finds a live entry.
	OnStoreHit()
	// OnStoreMiss is called when a retrieve misses or finds an expired entry.
	OnStoreMiss()
	// OnStoreWrite is called after a successful write with the payload size.
	OnStoreWrite(sizeBytes int)
	// OnSweep is called after a sweep pass with the number of removed entries.
	OnSweep(removed int)
}

// StoredResult is a handle store entry: the deferred payload plus the
// metadata needed for expiry checks and the fetch endpoint's handle info.
type StoredResult struct {
	Data     any            `json:"data"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata describes a stored result. Timestamps are epoch milliseconds.
type ResultMetadata struct {
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	SizeBytes int    `json:"size_bytes"`
	ToolName  string `json:"tool_name"`
	Verbosity string `json:"verbosity"`
	Instance  string `json:"instance"`
}

// Expired reports whether the entry's lifetime has elapsed at the given time.
func (m ResultMetadata) Expired(now time.Time) bool {
	return now.UnixMilli() >= m.ExpiresAt
}

// Config holds handle store configuration.
type Config struct {
	// TTL is the default lifetime for stored results. Defaults to DefaultTTL.
	TTL time.Duration
	// CleanupInterval is the sweep period. Defaults to DefaultCleanupInterval.
	CleanupInterval time.Duration
	// Metrics is an optional callback for recording store metrics.
	Metrics MetricsCallback
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Store is a TTL-bounded key/value store for deferred response payloads.
// Keys are partitioned by a logical instance identifier; a handle issued for
// one instance is not retrievable through another.
//
// A handle is binary present/absent: created by a store, gone after TTL
// expiry, explicit deletion, or the periodic sweep.
type Store struct {
	backend Backend
	ttl     time.Duration
	metrics MetricsCallback
	logger  *slog.Logger

	// now is injectable for expiry tests.
	now func() time.Time

	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepDone     chan struct{}
}

// NewStore creates a handle store on top of the given backend and starts the
// background sweep. Call Close to stop the sweep.
func NewStore(backend Backend, cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Store{
		backend:       backend,
		ttl:           cfg.TTL,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		now:           time.Now,
		sweepInterval: cfg.CleanupInterval,
		stopSweep:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}

	go s.sweepLoop()

	return s
}

// TTL returns the store's default entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// key builds the backend key for a handle scoped to an instance.
func key(instance, handle string) string {
	return keyPrefix + instance + ":" + handle
}

// Store serializes data into a StoredResult and persists it under a freshly
// generated handle scoped to instance. A non-positive ttl uses the store
// default. The write failing is returned as an error; callers decide whether
// to degrade or abort.
func (s *Store) Store(ctx context.Context, entity string, data any, toolName, verbosity, instance string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	handle := generateAt(entity, data, now)

	serialized, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("serialize result for %s: %w", entity, err)
	}

	result := StoredResult{
		Data: json.RawMessage(serialized),
		Metadata: ResultMetadata{
			CreatedAt: now.UnixMilli(),
			ExpiresAt: now.Add(ttl).UnixMilli(),
			SizeBytes: len(serialized),
			ToolName:  toolName,
			Verbosity: verbosity,
			Instance:  instance,
		},
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("serialize stored result for %s: %w", entity, err)
	}

	if err := s.backend.Set(ctx, key(instance, handle), payload, ttl); err != nil {
		return "", fmt.Errorf("store result %s: %w", handle, err)
	}

	if s.metrics != nil {
		s.metrics.OnStoreWrite(len(serialized))
	}
	s.logger.Debug("result stored",
		logging.Handle(handle),
		logging.Instance(instance),
		logging.SizeBytes(len(serialized)))

	return handle, nil
}

// Retrieve returns the stored result for a handle within an instance.
// It returns ErrNotFound when the handle is absent, belongs to a different
// instance, or has expired; an expired entry is deleted on access as a lazy
// double-check on top of the backend's native TTL.
func (s *Store) Retrieve(ctx context.Context, handle, instance string) (*StoredResult, error) {
	payload, err := s.backend.Get(ctx, key(instance, handle))
	if err != nil {
		if s.metrics != nil {
			s.metrics.OnStoreMiss()
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("retrieve %s: %w", handle, err)
	}

	var result StoredResult
	if err := json.Unmarshal(payload, &result); err != nil {
		if s.metrics != nil {
			s.metrics.OnStoreMiss()
		}
		return nil, fmt.Errorf("decode stored result %s: %w", handle, err)
	}

	if result.Metadata.Expired(s.now()) {
		if _, err := s.backend.Delete(ctx, key(instance, handle)); err != nil {
			s.logger.Warn("failed to delete expired handle", logging.Handle(handle), logging.Err(err))
		}
		if s.metrics != nil {
			s.metrics.OnStoreMiss()
		}
		return nil, ErrNotFound
	}

	if s.metrics != nil {
		s.metrics.OnStoreHit()
	}
	return &result, nil
}

// Delete removes a handle from an instance and returns how many entries were
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, handle, instance string) (int, error) {
	return s.backend.Delete(ctx, key(instance, handle))
}

// Exists reports whether a handle is currently retrievable in an instance.
func (s *Store) Exists(ctx context.Context, handle, instance string) bool {
	_, err := s.Retrieve(ctx, handle, instance)
	return err == nil
}

// CleanExpired sweeps all instances for entries whose embedded expiry has
// passed and deletes them. The backend's native TTL already expires keys
// per-entry; this is a proactive safety net. The sweep only ever removes
// entries it independently determines are expired, so it is safe to run
// concurrently with store/retrieve traffic.
func (s *Store) CleanExpired(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list stored results: %w", err)
	}

	now := s.now()
	removed := 0
	for _, k := range keys {
		payload, err := s.backend.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("sweep: failed to read entry", slog.String("key", k), logging.Err(err))
			continue
		}
		var result StoredResult
		if err := json.Unmarshal(payload, &result); err != nil {
			// Undecodable entries are removed; they can never be served.
			if n, delErr := s.backend.Delete(ctx, k); delErr == nil {
				removed += n
			}
			continue
		}
		if result.Metadata.Expired(now) {
			n, err := s.backend.Delete(ctx, k)
			if err != nil {
				s.logger.Warn("sweep: failed to delete entry", slog.String("key", k), logging.Err(err))
				continue
			}
			removed += n
		}
	}

	if s.metrics != nil {
		s.metrics.OnSweep(removed)
	}
	if removed > 0 {
		s.logger.Debug("sweep removed expired results", logging.Count(removed))
	}
	return removed, nil
}

// sweepLoop periodically purges expired entries until Close is called.
func (s *Store) sweepLoop() {
	defer close(s.sweepDone)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := s.CleanExpired(ctx); err != nil {
				s.logger.Warn("periodic sweep failed", logging.Err(err))
			}
			cancel()
		case <-s.stopSweep:
			return
		}
	}
}

// Close stops the background sweep and closes the backend.
func (s *Store) Close() error {
	close(s.stopSweep)
	<-s.sweepDone
	return s.backend.Close()
}
