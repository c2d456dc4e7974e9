package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// SQLStatsStore implements store.StatsStore on database/sql.
type SQLStatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *SQLStatsStore {
	return &SQLStatsStore{db: db}
}

func (s *SQLStatsStore) Stats(ctx context.Context) (store.Stats, error) {
	var st store.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM groups WHERE is_archived = FALSE),
		   (SELECT COUNT(*) FROM channels WHERE is_archived = FALSE)`).
		Scan(&st.VillageCount, &st.BuildingCount)
	if err != nil {
		return store.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (s *SQLStatsStore) BuildingCountByGroup(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, COUNT(*) FROM channels WHERE is_archived = FALSE GROUP BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("building counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var groupID int64
		var n int
		if err := rows.Scan(&groupID, &n); err != nil {
			return nil, err
		}
		counts[groupID] = n
	}
	return counts, rows.Err()
}
