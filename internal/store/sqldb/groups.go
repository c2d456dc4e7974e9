package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// SQLGroupStore implements store.GroupStore on database/sql.
type SQLGroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *SQLGroupStore {
	return &SQLGroupStore{db: db}
}

const groupColumns = `id, external_id, guild_id, name, position, village_index, center_x, center_z, is_archived, created_at, updated_at`

func (s *SQLGroupStore) Create(ctx context.Context, g *store.Group) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO groups (external_id, guild_id, name, position, village_index, center_x, center_z, is_archived, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		g.ExternalID, g.GuildID, g.Name, g.Position, g.VillageIndex, g.CenterX, g.CenterZ, false, now, now,
	).Scan(&g.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert group: %w", err)
	}
	g.IsArchived = false
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

func (s *SQLGroupStore) ByExternalID(ctx context.Context, externalID string) (*store.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE external_id = $1`, externalID)
	return scanGroup(row)
}

func (s *SQLGroupStore) ByID(ctx context.Context, id int64) (*store.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = $1`, id)
	return scanGroup(row)
}

func (s *SQLGroupStore) List(ctx context.Context, includeArchived bool) ([]store.Group, error) {
	q := `SELECT ` + groupColumns + ` FROM groups`
	if !includeArchived {
		q += ` WHERE is_archived = FALSE`
	}
	q += ` ORDER BY village_index`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var result []store.Group
	for rows.Next() {
		g, err := scanGroupRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	return result, rows.Err()
}

func (s *SQLGroupStore) NextVillageIndex(ctx context.Context) (int, error) {
	// Index 0 maps to grid cell (0,0), which belongs to the Crossroads hub,
	// so assignment starts at 1. Indices are never reused after archival.
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(village_index) FROM groups`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next village index: %w", err)
	}
	if !max.Valid || max.Int64 < 0 {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

func (s *SQLGroupStore) Update(ctx context.Context, g *store.Group) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = $1, position = $2, updated_at = $3 WHERE id = $4`,
		g.Name, g.Position, time.Now().UTC(), g.ID)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

func (s *SQLGroupStore) Archive(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE groups SET is_archived = TRUE, updated_at = $1 WHERE id = $2`, now, id); err != nil {
		return fmt.Errorf("archive group: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE channels SET is_archived = TRUE, updated_at = $1 WHERE group_id = $2`, now, id); err != nil {
		return fmt.Errorf("archive group channels: %w", err)
	}
	return tx.Commit()
}

func (s *SQLGroupStore) Unarchive(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET is_archived = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("unarchive group: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row *sql.Row) (*store.Group, error) {
	g, err := scanGroupFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func scanGroupRows(rows *sql.Rows) (*store.Group, error) {
	return scanGroupFrom(rows)
}

func scanGroupFrom(r rowScanner) (*store.Group, error) {
	var g store.Group
	err := r.Scan(&g.ID, &g.ExternalID, &g.GuildID, &g.Name, &g.Position,
		&g.VillageIndex, &g.CenterX, &g.CenterZ, &g.IsArchived, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
