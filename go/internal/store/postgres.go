package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/racedash/go/internal/sqlutil"
)

// SchemaStatements create the table backing the Postgres store. Leaf values
// use the empty key; keyed children use their generated id.
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS racedash_nodes (
    path       TEXT        NOT NULL,
    key        TEXT        NOT NULL DEFAULT '',
    value      JSONB,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (path, key)
)`,
	`CREATE INDEX IF NOT EXISTS racedash_nodes_path_idx ON racedash_nodes (path)`,
}

// DefaultNotifyChannel is the LISTEN/NOTIFY channel carrying changed paths.
const DefaultNotifyChannel = "racedash_changes"

type PostgresConfig struct {
	DatabaseURL          string        // Postgres DSN, also used by the listener
	NotifyChannel        string        // Channel name to LISTEN on
	FallbackInterval     time.Duration // How often to re-read subscribed paths
	PingInterval         time.Duration
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		NotifyChannel:        DefaultNotifyChannel,
		FallbackInterval:     30 * time.Second,
		PingInterval:         90 * time.Second,
		MinReconnectInterval: 10 * time.Second,
		MaxReconnectInterval: time.Minute,
	}
}

// Postgres is a Store kept in a single table. Every write transaction sends
// a NOTIFY with the changed path; a pq.Listener turns notifications into
// fresh snapshots for local subscribers, so several processes can share
// one database.
type Postgres struct {
	db       *sql.DB
	listener *pq.Listener
	hub      *hub
	cfg      PostgresConfig
	newKey   func() string

	// refreshMu orders snapshot reads with their delivery
	refreshMu sync.Mutex
	lastMu    sync.Mutex
	last      map[string]string

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects, ensures the schema and starts listening.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("postgres store: database url is required")
	}
	if cfg.NotifyChannel == "" {
		cfg.NotifyChannel = DefaultNotifyChannel
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := sqlutil.ExecAll(ctx, db, SchemaStatements); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	p := &Postgres{
		db:     db,
		hub:    newHub(),
		cfg:    cfg,
		newKey: NewKey,
		last:   make(map[string]string),
		done:   make(chan struct{}),
	}

	p.listener = pq.NewListener(cfg.DatabaseURL, cfg.MinReconnectInterval, cfg.MaxReconnectInterval, p.onListenerEvent)
	if err := p.listener.Listen(cfg.NotifyChannel); err != nil {
		p.listener.Close()
		db.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.listen(runCtx)

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("postgres store listening for notifications")

	return p, nil
}

// Subscribe implements Store.
func (p *Postgres) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	value, err := p.read(ctx, path)
	if err != nil {
		return nil, err
	}
	p.remember(path, value)

	sub := p.hub.add(path)
	sub.Deliver(Event{Path: path, Value: value})
	return sub, nil
}

// ReadOnce implements Store.
func (p *Postgres) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	return p.read(ctx, path)
}

// WriteFull implements Store.
func (p *Postgres) WriteFull(ctx context.Context, path string, value json.RawMessage) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	return p.write(ctx, path, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM racedash_nodes WHERE path = $1`, path); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		if raw := cloneRaw(value); raw != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO racedash_nodes (path, key, value) VALUES ($1, '', $2::jsonb)`,
				path, string(raw),
			); err != nil {
				return fmt.Errorf("insert %s: %w", path, err)
			}
		}
		return nil
	})
}

// WriteKeyed implements Store.
func (p *Postgres) WriteKeyed(ctx context.Context, path string, value json.RawMessage) (string, error) {
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

	id := p.newKey()
	err := p.write(ctx, path, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM racedash_nodes WHERE path = $1 AND key = ''`, path); err != nil {
			return fmt.Errorf("delete leaf %s: %w", path, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO racedash_nodes (path, key, value) VALUES ($1, $2, $3::jsonb)`,
			path, id, string(raw),
		); err != nil {
			return fmt.Errorf("insert %s/%s: %w", path, id, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveKeyed implements Store.
func (p *Postgres) RemoveKeyed(ctx context.Context, path, id string) error {
	if err := validateKey(path, id); err != nil {
		return err
	}
	return p.write(ctx, path, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM racedash_nodes WHERE path = $1 AND key = $2`, path, id); err != nil {
			return fmt.Errorf("delete %s/%s: %w", path, id, err)
		}
		return nil
	})
}

// RemoveAll implements Store.
func (p *Postgres) RemoveAll(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	return p.write(ctx, path, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM racedash_nodes WHERE path = $1`, path); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		return nil
	})
}

// Close stops the listener, closes subscriptions and the database.
func (p *Postgres) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.cancel()
		<-p.done
		p.hub.closeAll()
		if lerr := p.listener.Close(); lerr != nil {
			err = lerr
		}
		if derr := p.db.Close(); derr != nil && err == nil {
			err = derr
		}
	})
	return err
}

// write runs fn and the change notification in one transaction; Postgres
// delivers the NOTIFY only if the transaction commits.
func (p *Postgres) write(ctx context.Context, path string, fn func(tx *sql.Tx) error) error {
	return sqlutil.Run(ctx, p.db, func(tx *sql.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, p.cfg.NotifyChannel, path); err != nil {
			return fmt.Errorf("notify %s: %w", path, err)
		}
		return nil
	})
}

func (p *Postgres) read(ctx context.Context, path string) (json.RawMessage, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT key, value FROM racedash_nodes WHERE path = $1 ORDER BY key`, path)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	defer rows.Close()

	n := &node{}
	for rows.Next() {
		var (
			key   string
			value pqtype.NullRawMessage
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		var raw json.RawMessage
		if value.Valid {
			raw = cloneRaw(value.RawMessage)
		}
		if key == "" {
			n.leaf = raw
			continue
		}
		if n.children == nil {
			n.children = make(map[string]json.RawMessage)
		}
		n.children[key] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", path, err)
	}
	return n.value()
}

func (p *Postgres) listen(ctx context.Context) {
	defer close(p.done)

	pingTicker := time.NewTicker(p.cfg.PingInterval)
	fallbackTicker := time.NewTicker(p.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("postgres store listener shutting down")
			return
		case note := <-p.listener.Notify:
			if note == nil {
				// nil notification means the connection was re-established
				p.refreshAll(ctx)
				continue
			}
			p.refresh(ctx, note.Extra)
		case <-fallbackTicker.C:
			p.refreshAll(ctx)
		case <-pingTicker.C:
			if err := p.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (p *Postgres) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
		log.Error().Err(err).Msg("postgres listener disconnected")
		p.lastMu.Lock()
		p.last = make(map[string]string)
		p.lastMu.Unlock()
		cause := err
		if cause == nil {
			cause = errors.New("listener disconnected")
		}
		for _, path := range p.hub.paths() {
			p.hub.fail(path, fmt.Errorf("postgres store: %w", cause))
		}
	case pq.ListenerEventReconnected:
		log.Info().Msg("postgres listener reconnected")
	}
}

func (p *Postgres) refreshAll(ctx context.Context) {
	for _, path := range p.hub.paths() {
		p.refresh(ctx, path)
	}
}

// refresh re-reads path and publishes it when it differs from the last
// published snapshot.
func (p *Postgres) refresh(ctx context.Context, path string) {
	if validatePath(path) != nil || p.hub.count(path) == 0 {
		return
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	value, err := p.read(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Str("path", path).Msg("failed to refresh path")
		p.hub.fail(path, err)
		return
	}

	if p.remember(path, value) {
		p.hub.publish(path, value)
	}
}

// remember records value as the last snapshot seen for path and reports
// whether it differs from the previous one.
func (p *Postgres) remember(path string, value json.RawMessage) bool {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()

	prev, seen := p.last[path]
	p.last[path] = string(value)
	return !seen || prev != string(value)
}
