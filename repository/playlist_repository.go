package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fmusic/logger"
	"fmusic/model"

	"github.com/go-sql-driver/mysql"
)

// PlaylistRepository defines the store operations for playlists and the
// favorites membership set. Playlists are returned unresolved: the
// ordered song-id list is populated, full song records are not.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) (int64, error)
	Get(ctx context.Context, id int64) (*model.Playlist, error)
	GetAll(ctx context.Context) ([]*model.Playlist, error)
	Update(ctx context.Context, playlist *model.Playlist) error
	Delete(ctx context.Context, id int64) error

	AddFavorite(ctx context.Context, songID int64) error
	RemoveFavorite(ctx context.Context, songID int64) error
	IsFavorite(ctx context.Context, songID int64) (bool, error)
	ListFavoriteIDs(ctx context.Context) ([]int64, error)
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository creates a playlist repository on the given connection.
func NewMySQLPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &mysqlPlaylistRepository{db: db}
}

// Create inserts a new playlist with its ordered song-id list. A name
// collision returns ErrDuplicate.
func (r *mysqlPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) (int64, error) {
	raw, err := encodeSongIDs(playlist.SongIDs)
	if err != nil {
		return 0, err
	}

	query := `INSERT INTO playlists (name, playlist_art, songs) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, playlist.Name, playlist.Art, raw)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return 0, fmt.Errorf("playlist %q: %w", playlist.Name, ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}
	logger.Debug("Playlist created", logger.Int64("id", id), logger.String("name", playlist.Name))
	return id, nil
}

// Get retrieves a playlist row by id.
func (r *mysqlPlaylistRepository) Get(ctx context.Context, id int64) (*model.Playlist, error) {
	query := `SELECT id, name, playlist_art, songs FROM playlists WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	playlist, err := scanPlaylist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("playlist %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan playlist %d: %w", id, err)
	}
	return playlist, nil
}

// GetAll retrieves every stored playlist.
func (r *mysqlPlaylistRepository) GetAll(ctx context.Context) ([]*model.Playlist, error) {
	query := `SELECT id, name, playlist_art, songs FROM playlists ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlist rows iteration: %w", err)
	}
	return playlists, nil
}

// Update replaces a playlist's name, art and song-id list.
func (r *mysqlPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) error {
	raw, err := encodeSongIDs(playlist.SongIDs)
	if err != nil {
		return err
	}

	query := `UPDATE playlists SET name = ?, playlist_art = ?, songs = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, playlist.Name, playlist.Art, raw, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist %d: %w", playlist.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for playlist %d: %w", playlist.ID, err)
	}
	if affected == 0 {
		// The update may also be a no-op on identical data; confirm existence.
		if _, err := r.Get(ctx, playlist.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a playlist by id. Deleting an unknown id is not an error.
func (r *mysqlPlaylistRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}
	return nil
}

// AddFavorite adds a song id to the favorites set. Adding an id that is
// already present returns ErrDuplicate.
func (r *mysqlPlaylistRepository) AddFavorite(ctx context.Context, songID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO favorites (song_id) VALUES (?)`, songID)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("favorite %d: %w", songID, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert favorite %d: %w", songID, err)
	}
	return nil
}

// RemoveFavorite removes a song id from the favorites set. Removing an
// id that is not present returns ErrNotFound.
func (r *mysqlPlaylistRepository) RemoveFavorite(ctx context.Context, songID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE song_id = ?`, songID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite %d: %w", songID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for favorite %d: %w", songID, err)
	}
	if affected == 0 {
		return fmt.Errorf("favorite %d: %w", songID, ErrNotFound)
	}
	return nil
}

// IsFavorite reports whether a song id is in the favorites set.
func (r *mysqlPlaylistRepository) IsFavorite(ctx context.Context, songID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE song_id = ?)`, songID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite %d: %w", songID, err)
	}
	return exists, nil
}

// ListFavoriteIDs returns the favorite song ids in insertion order.
func (r *mysqlPlaylistRepository) ListFavoriteIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT song_id FROM favorites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during favorite rows iteration: %w", err)
	}
	return ids, nil
}

func scanPlaylist(row rowScanner) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	if err := row.Scan(&playlist.ID, &playlist.Name, &playlist.Art, &playlist.SongsRaw); err != nil {
		return nil, err
	}
	ids, err := decodeSongIDs(playlist.SongsRaw)
	if err != nil {
		return nil, err
	}
	playlist.SongIDs = ids
	return playlist, nil
}

// encodeSongIDs serializes an ordered id list to the text stored in the
// songs column.
func encodeSongIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode song ids: %w", err)
	}
	return string(raw), nil
}

// decodeSongIDs parses the stored text back to an ordered id list. An
// empty column decodes to an empty list.
func decodeSongIDs(raw string) ([]int64, error) {
	if raw == "" {
		return []int64{}, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode song ids: %w", err)
	}
	return ids, nil
}
