package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// leafToken is the key suffix holding a path's single value. Generated
// child keys are alphanumeric and never collide with it.
const leafToken = "_value"

// NATSConfig holds configuration for the JetStream key-value store
type NATSConfig struct {
	URL           string
	Bucket        string
	History       uint8
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration // Bound on one-shot reads
}

// DefaultNATSConfig returns default JetStream key-value configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Bucket:        "RACEDASH",
		History:       1,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATS is a Store on a JetStream key-value bucket. A path's leaf lives at
// "<path>._value" and its children at "<path>.<id>", so one watch on
// "<path>.>" observes everything stored at the path.
type NATS struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	cfg    NATSConfig
	newKey func() string

	mu      sync.Mutex
	watches map[*natsWatch]struct{}
	closed  bool
}

var _ Store = (*NATS)(nil)

// OpenNATS connects to NATS and binds or creates the bucket.
func OpenNATS(ctx context.Context, cfg NATSConfig) (*NATS, error) {
	s := &NATS{
		cfg:     cfg,
		newKey:  NewKey,
		watches: make(map[*natsWatch]struct{}),
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
			if err == nil {
				err = errors.New("disconnected")
			}
			s.failAll(fmt.Errorf("nats store: %w", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			s.resendAll()
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "racedash timer and roster",
			History:     cfg.History,
		})
		if err == nil {
			log.Info().Str("bucket", cfg.Bucket).Msg("created key-value bucket")
		}
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("bind key-value bucket: %w", err)
	}

	s.nc = nc
	s.kv = kv
	return s, nil
}

// Subscribe implements Store.
func (s *NATS) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	watcher, err := s.kv.Watch(watchCtx, path+".>")
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &natsWatch{path: path, watcher: watcher, state: &node{}}
	w.sub = NewSubscription(path, func() {
		cancel()
		if err := watcher.Stop(); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("stop watcher")
		}
		s.untrack(w)
	})
	s.watches[w] = struct{}{}

	go w.run(watchCtx)
	return w.sub, nil
}

// ReadOnce implements Store.
func (s *NATS) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	n, _, err := s.collect(ctx, path)
	if err != nil {
		return nil, err
	}
	return n.value()
}

// WriteFull implements Store. Children are deleted before the leaf is put,
// so watchers may observe the intermediate empty state.
func (s *NATS) WriteFull(ctx context.Context, path string, value json.RawMessage) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}
	raw := cloneRaw(value)
	if raw == nil {
		return s.RemoveAll(ctx, path)
	}

	_, keys, err := s.collect(ctx, path)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if key == leafKey(path) {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	if _, err := s.kv.Put(ctx, leafKey(path), raw); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// WriteKeyed implements Store.
func (s *NATS) WriteKeyed(ctx context.Context, path string, value json.RawMessage) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if err := validateValue(value); err != nil {
		return "", err
	}
	raw := cloneRaw(value)
	if raw == nil {
		raw = json.RawMessage("null")
	}

	if err := s.kv.Delete(ctx, leafKey(path)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", fmt.Errorf("delete leaf %s: %w", path, err)
	}

	id := s.newKey()
	if _, err := s.kv.Create(ctx, childKey(path, id), raw); err != nil {
		return "", fmt.Errorf("create %s/%s: %w", path, id, err)
	}
	return id, nil
}

// RemoveKeyed implements Store.
func (s *NATS) RemoveKeyed(ctx context.Context, path, id string) error {
	if err := validateKey(path, id); err != nil {
		return err
	}
	if id == leafToken {
		return fmt.Errorf("%w: key %q", ErrInvalidPath, id)
	}
	if err := s.kv.Delete(ctx, childKey(path, id)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s/%s: %w", path, id, err)
	}
	return nil
}

// RemoveAll implements Store.
func (s *NATS) RemoveAll(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	_, keys, err := s.collect(ctx, path)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// Close closes every subscription and the NATS connection.
func (s *NATS) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	watches := make([]*natsWatch, 0, len(s.watches))
	for w := range s.watches {
		watches = append(watches, w)
	}
	s.mu.Unlock()

	for _, w := range watches {
		w.sub.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}

// collect reads the live keys under path with a short-lived watcher.
func (s *NATS) collect(ctx context.Context, path string) (*node, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	watcher, err := s.kv.Watch(ctx, path+".>", jetstream.IgnoreDeletes())
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Stop()

	n := &node{}
	var keys []string
	for {
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("read %s: %w", path, ctx.Err())
		case entry, ok := <-watcher.Updates():
			if !ok {
				return nil, nil, fmt.Errorf("read %s: watcher closed", path)
			}
			if entry == nil {
				// initial values delivered
				return n, keys, nil
			}
			keys = append(keys, entry.Key())
			applyEntry(n, path, entry)
		}
	}
}

func (s *NATS) untrack(w *natsWatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watches, w)
}

func (s *NATS) snapshotWatches() []*natsWatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	watches := make([]*natsWatch, 0, len(s.watches))
	for w := range s.watches {
		watches = append(watches, w)
	}
	return watches
}

func (s *NATS) failAll(err error) {
	for _, w := range s.snapshotWatches() {
		w.sub.Deliver(Event{Path: w.path, Err: err})
	}
}

func (s *NATS) resendAll() {
	for _, w := range s.snapshotWatches() {
		w.emit(true)
	}
}

// natsWatch folds key-value updates of one path into full snapshots.
type natsWatch struct {
	path    string
	watcher jetstream.KeyWatcher
	sub     *Subscription

	mu    sync.Mutex
	state *node
	ready bool
}

func (w *natsWatch) run(ctx context.Context) {
	updates := w.watcher.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-updates:
			if !ok {
				return
			}
			if entry == nil {
				w.mu.Lock()
				w.ready = true
				w.mu.Unlock()
				w.emit(false)
				continue
			}
			w.mu.Lock()
			applyEntry(w.state, w.path, entry)
			ready := w.ready
			w.mu.Unlock()
			if ready {
				w.emit(false)
			}
		}
	}
}

// emit delivers the folded snapshot. With onlyReady set it is a no-op
// until the initial values have arrived.
func (w *natsWatch) emit(onlyReady bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if onlyReady && !w.ready {
		return
	}
	value, err := w.state.value()
	if err != nil {
		w.sub.Deliver(Event{Path: w.path, Err: err})
		return
	}
	w.sub.Deliver(Event{Path: w.path, Value: value})
}

func applyEntry(n *node, path string, entry jetstream.KeyValueEntry) {
	suffix := strings.TrimPrefix(entry.Key(), path+".")
	removed := entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge

	if suffix == leafToken {
		if removed {
			n.leaf = nil
		} else {
			n.leaf = cloneRaw(entry.Value())
		}
		return
	}

	if removed {
		delete(n.children, suffix)
		return
	}
	if n.children == nil {
		n.children = make(map[string]json.RawMessage)
	}
	n.children[suffix] = cloneRaw(entry.Value())
}

func leafKey(path string) string {
	return path + "." + leafToken
}

func childKey(path, id string) string {
	return path + "." + id
}
