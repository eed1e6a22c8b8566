package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

// PlaylistRepository implements [models.PlaylistStore] on SQLite.
//
// Tracks are stored as a JSON array so replace and union stay single-row writes.
type PlaylistRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new playlist with a generated ID and sequence
func (r *PlaylistRepository) Create(ctx context.Context, p models.Playlist) (*models.Playlist, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	sequence, err := NextSequence(ctx, r.db, models.PlaylistCollection)
	if err != nil {
		return nil, persistence("generate sequence", err)
	}

	tracks, err := encodeTracks(p.Tracks)
	if err != nil {
		return nil, err
	}

	now := r.now()
	created := p.Clone()
	created.ID = shared.GenerateID()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Tracks == nil {
		created.Tracks = []models.Track{}
	}

	query := `
		INSERT INTO playlists (id, owner_id, name, tracks, created_at, updated_at, sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, created.ID, created.OwnerID, created.Name, string(tracks), now, now, sequence); err != nil {
		return nil, persistence("insert playlist", err)
	}

	return &created, nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `
		SELECT id, owner_id, name, tracks, created_at, updated_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	p, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByOwner returns the owner's playlists in creation order
func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	query := `
		SELECT id, owner_id, name, tracks, created_at, updated_at
		FROM playlists
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, persistence("list playlists", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence("iterate playlists", err)
	}
	return playlists, nil
}

// Rename updates the playlist name
func (r *PlaylistRepository) Rename(ctx context.Context, id, name string) error {
	query := `
		UPDATE playlists
		SET name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.execOne(ctx, "rename playlist", id, query, name, r.now(), id)
}

// ReplaceTracks overwrites the stored track array
func (r *PlaylistRepository) ReplaceTracks(ctx context.Context, id string, tracks []models.Track) error {
	data, err := encodeTracks(tracks)
	if err != nil {
		return err
	}

	query := `
		UPDATE playlists
		SET tracks = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.execOne(ctx, "replace tracks", id, query, string(data), r.now(), id)
}

// UnionTracks appends tracks whose id is not yet stored, inside a single transaction
func (r *PlaylistRepository) UnionTracks(ctx context.Context, id string, tracks ...models.Track) ([]models.Track, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence("begin transaction", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT tracks FROM playlists WHERE id = ? AND deleted_at IS NULL", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, persistence("read tracks", err)
	}

	existing, err := decodeTracks([]byte(raw))
	if err != nil {
		return nil, err
	}

	merged := mergeTracks(existing, tracks)
	data, err := encodeTracks(merged)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE playlists SET tracks = ?, updated_at = ? WHERE id = ?", string(data), r.now(), id); err != nil {
		return nil, persistence("union tracks", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, persistence("commit union", err)
	}
	return merged, nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.execOne(ctx, "delete playlist", id, query, r.now(), id)
}

// execOne runs an update expected to touch exactly one live row.
func (r *PlaylistRepository) execOne(ctx context.Context, op, id, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return persistence(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return persistence("get affected rows", err)
	}
	if rows == 0 {
		return notFound(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var (
		p   models.Playlist
		raw string
	)

	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, persistence("scan playlist", err)
	}

	tracks, err := decodeTracks([]byte(raw))
	if err != nil {
		return nil, err
	}
	p.Tracks = tracks
	return &p, nil
}
