package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hive-corporation/spyglass/internal/core/ports"
	"github.com/hive-corporation/spyglass/internal/metrics"
	"github.com/hive-corporation/spyglass/misp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the mirror tables when they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS events (
			uuid TEXT PRIMARY KEY,
			info TEXT NOT NULL DEFAULT '',
			published BOOLEAN NOT NULL DEFAULT FALSE,
			event_timestamp TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL,
			date_mirrored TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attributes (
			uuid TEXT PRIMARY KEY,
			event_uuid TEXT NOT NULL REFERENCES events(uuid) ON DELETE CASCADE,
			type TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			value TEXT NOT NULL,
			to_ids BOOLEAN NOT NULL DEFAULT FALSE,
			tags TEXT[] NOT NULL DEFAULT '{}',
			attr_timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attributes_value ON attributes (value)`,
		`CREATE INDEX IF NOT EXISTS idx_attributes_event ON attributes (event_uuid)`,
	}
	for _, stmt := range ddl {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) SaveEventBatch(ctx context.Context, events []*misp.Event) error {
	batch := &pgx.Batch{}

	eventQuery := `
		INSERT INTO events (uuid, info, published, event_timestamp, payload, date_mirrored)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uuid) DO UPDATE SET
			info = EXCLUDED.info,
			published = EXCLUDED.published,
			event_timestamp = EXCLUDED.event_timestamp,
			payload = EXCLUDED.payload,
			date_mirrored = EXCLUDED.date_mirrored
	`

	attrQuery := `
		INSERT INTO attributes (uuid, event_uuid, type, category, value, to_ids, tags, attr_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (uuid) DO UPDATE SET
			type = EXCLUDED.type,
			category = EXCLUDED.category,
			value = EXCLUDED.value,
			to_ids = EXCLUDED.to_ids,
			tags = EXCLUDED.tags,
			attr_timestamp = EXCLUDED.attr_timestamp
	`

	now := time.Now()
	for _, ev := range events {
		payload, err := ev.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize event %s: %w", ev.UUID(), err)
		}

		batch.Queue(eventQuery,
			ev.UUID(),
			ev.Info(),
			ev.Published(),
			entityTime(ev, now),
			payload,
			now,
		)

		for _, a := range eventAttributes(ev) {
			tags := make([]string, 0, len(a.Tags()))
			for _, tag := range a.Tags() {
				tags = append(tags, tag.Name())
			}
			batch.Queue(attrQuery,
				a.UUID(),
				ev.UUID(),
				a.Type(),
				a.Category(),
				a.Value(),
				a.ToIDS(),
				tags,
				entityTime(a, now),
			)
		}
	}

	timer := metrics.StartBatchTimer()
	defer timer.ObserveDuration()

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) FindByUUID(ctx context.Context, uuid string) (*misp.Event, error) {
	query := `
		SELECT payload
		FROM events
		WHERE uuid = $1
		LIMIT 1
	`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, uuid).Scan(&payload); err != nil {
		return nil, err
	}

	ev := misp.NewEvent()
	if err := ev.FromJSON(payload); err != nil {
		return nil, fmt.Errorf("failed to hydrate event %s: %w", uuid, err)
	}
	return ev, nil
}

func (r *PostgresRepository) FindEventsSince(ctx context.Context, since time.Time, limit int) ([]*misp.Event, error) {
	query := `
		SELECT payload
		FROM events
		WHERE date_mirrored >= $1
		ORDER BY event_timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*misp.Event

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev := misp.NewEvent()
		if err := ev.FromJSON(payload); err != nil {
			return nil, fmt.Errorf("failed to hydrate event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) FindAttributesByValue(ctx context.Context, value string) ([]ports.AttributeRecord, error) {
	query := `
		SELECT a.uuid, a.event_uuid, e.info, a.type, a.category, a.value, a.to_ids, a.tags, a.attr_timestamp
		FROM attributes a
		JOIN events e ON e.uuid = a.event_uuid
		WHERE a.value = $1
		ORDER BY a.attr_timestamp DESC
		LIMIT 100
	`

	rows, err := r.db.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	return scanAttributeRecords(rows)
}

func (r *PostgresRepository) FindAttributesSince(ctx context.Context, since time.Time, limit int) ([]ports.AttributeRecord, error) {
	query := `
		SELECT a.uuid, a.event_uuid, e.info, a.type, a.category, a.value, a.to_ids, a.tags, a.attr_timestamp
		FROM attributes a
		JOIN events e ON e.uuid = a.event_uuid
		WHERE a.attr_timestamp >= $1
		ORDER BY a.attr_timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes since %v: %w", since, err)
	}
	defer rows.Close()

	return scanAttributeRecords(rows)
}

func (r *PostgresRepository) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func scanAttributeRecords(rows pgx.Rows) ([]ports.AttributeRecord, error) {
	var records []ports.AttributeRecord

	for rows.Next() {
		var rec ports.AttributeRecord
		err := rows.Scan(
			&rec.UUID,
			&rec.EventUUID,
			&rec.EventInfo,
			&rec.Type,
			&rec.Category,
			&rec.Value,
			&rec.ToIDS,
			&rec.Tags,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// eventAttributes flattens the event's own attributes with those nested in
// its objects.
func eventAttributes(ev *misp.Event) []*misp.Attribute {
	attrs := ev.Attributes()
	for _, o := range ev.Objects() {
		attrs = append(attrs, o.Attributes()...)
	}
	return attrs
}

// entityTime reads an entity's timestamp field however it is typed; events
// hydrated from JSON carry numbers, locally built ones may hold time values.
func entityTime(e misp.Entity, fallback time.Time) time.Time {
	v, err := e.Get("timestamp")
	if err != nil {
		return fallback
	}
	switch ts := v.(type) {
	case time.Time:
		return ts
	case float64:
		return time.Unix(int64(ts), 0)
	case int:
		return time.Unix(int64(ts), 0)
	case int64:
		return time.Unix(ts, 0)
	case string:
		if sec, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.Unix(sec, 0)
		}
	}
	return fallback
}
