package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// SQLChannelStore implements store.ChannelStore on database/sql.
type SQLChannelStore struct {
	db *sql.DB
}

func NewChannelStore(db *sql.DB) *SQLChannelStore {
	return &SQLChannelStore{db: db}
}

const channelColumns = `id, external_id, group_id, name, topic, member_count, position, building_index, building_x, building_z, is_archived, created_at, updated_at`

func (s *SQLChannelStore) Create(ctx context.Context, c *store.Channel) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO channels (external_id, group_id, name, topic, member_count, position, building_index, is_archived, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		c.ExternalID, c.GroupID, c.Name, c.Topic, c.MemberCount, c.Position, c.BuildingIndex, false, now, now,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert channel: %w", err)
	}
	c.IsArchived = false
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (s *SQLChannelStore) ByExternalID(ctx context.Context, externalID string) (*store.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE external_id = $1`, externalID)
	return scanChannel(row)
}

func (s *SQLChannelStore) ByID(ctx context.Context, id int64) (*store.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)
	return scanChannel(row)
}

func (s *SQLChannelStore) ListByGroup(ctx context.Context, groupID int64, includeArchived bool) ([]store.Channel, error) {
	q := `SELECT ` + channelColumns + ` FROM channels WHERE group_id = $1`
	if !includeArchived {
		q += ` AND is_archived = FALSE`
	}
	q += ` ORDER BY building_index`

	rows, err := s.db.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var result []store.Channel
	for rows.Next() {
		c, err := scanChannelFrom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *SQLChannelStore) NextBuildingIndex(ctx context.Context, groupID int64) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(building_index) FROM channels WHERE group_id = $1 AND is_archived = FALSE`,
		groupID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next building index: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

func (s *SQLChannelStore) Update(ctx context.Context, c *store.Channel) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET name = $1, topic = $2, member_count = $3, position = $4, updated_at = $5 WHERE id = $6`,
		c.Name, c.Topic, c.MemberCount, c.Position, time.Now().UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	return nil
}

func (s *SQLChannelStore) SetCoords(ctx context.Context, id int64, x, z int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET building_x = $1, building_z = $2, updated_at = $3 WHERE id = $4`,
		x, z, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set channel coords: %w", err)
	}
	return nil
}

func (s *SQLChannelStore) Archive(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET is_archived = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("archive channel: %w", err)
	}
	return nil
}

func (s *SQLChannelStore) Unarchive(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET is_archived = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("unarchive channel: %w", err)
	}
	return nil
}

func (s *SQLChannelStore) Search(ctx context.Context, query string, limit int) ([]store.Channel, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels
		 WHERE is_archived = FALSE AND LOWER(name) LIKE $1
		 ORDER BY LENGTH(name), name
		 LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search channels: %w", err)
	}
	defer rows.Close()

	var result []store.Channel
	for rows.Next() {
		c, err := scanChannelFrom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func scanChannel(row *sql.Row) (*store.Channel, error) {
	c, err := scanChannelFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanChannelFrom(r rowScanner) (*store.Channel, error) {
	var c store.Channel
	var topic sql.NullString
	var bx, bz sql.NullInt64
	err := r.Scan(&c.ID, &c.ExternalID, &c.GroupID, &c.Name, &topic, &c.MemberCount,
		&c.Position, &c.BuildingIndex, &bx, &bz, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Topic = topic.String
	if bx.Valid {
		x := int(bx.Int64)
		c.BuildingX = &x
	}
	if bz.Valid {
		z := int(bz.Int64)
		c.BuildingZ = &z
	}
	return &c, nil
}
