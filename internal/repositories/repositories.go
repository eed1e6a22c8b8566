// package repositories provides persistence implementations for playlists.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers are not exposed in CLI output but keep listings in creation order.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// mergeTracks appends each track whose id is not already present.
func mergeTracks(existing []models.Track, incoming []models.Track) []models.Track {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := append([]models.Track(nil), existing...)
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}
	for _, t := range incoming {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}

func encodeTracks(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode tracks: %v", shared.ErrPersistence, err)
	}
	return data, nil
}

func decodeTracks(data []byte) ([]models.Track, error) {
	var tracks []models.Track
	if len(data) == 0 {
		return []models.Track{}, nil
	}
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tracks: %v", shared.ErrPersistence, err)
	}
	return tracks, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %v", shared.ErrPersistence, op, err)
}
