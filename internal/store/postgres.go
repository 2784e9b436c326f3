package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-analytics-tracker/internal/event"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, ev event.Event) (uuid.UUID, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analytics_events (
			event_id, event_type, user_id, session_id, product_id, order_id, event_data, synced_to_supabase, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, false, $8
		)
	`, ev.ID, string(ev.Type), ev.UserID, ev.SessionID, ev.ProductID, ev.OrderID, payload, ev.CreatedAt)
	if err != nil {
		return uuid.Nil, err
	}
	return ev.ID, nil
}

func (s *PostgresStore) MarkSynced(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE analytics_events
		SET synced_to_supabase = true
		WHERE event_id = $1 AND synced_to_supabase = false
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, event_type, user_id, session_id, product_id, order_id, event_data, synced_to_supabase, created_at
		FROM analytics_events
		WHERE synced_to_supabase = false
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		var ev event.Event
		var eventType string
		var payload []byte
		if err := rows.Scan(&ev.ID, &eventType, &ev.UserID, &ev.SessionID, &ev.ProductID, &ev.OrderID, &payload, &ev.Synced, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = event.Type(eventType)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM analytics_events WHERE synced_to_supabase = false
	`).Scan(&n)
	return n, err
}
