package repo

import (
	"context"
	"database/sql"

	"opsdeck/internal/domain"
)

// LatestEvents returns the newest events first, optionally filtered.
func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	query := `SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events`
	var clauses []string
	var args []any
	if evtType != "" {
		clauses = append(clauses, `type=?`)
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, `entity_kind=?`)
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, `entity_id=?`)
		args = append(args, entityID)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entity sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entity, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		e.EntityID = fromNull(entity)
		res = append(res, e)
	}
	return res, rows.Err()
}
