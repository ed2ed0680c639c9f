package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fmusic/logger"
	"fmusic/model"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the MySQL error number for a UNIQUE violation.
const mysqlDuplicateEntry = 1062

// songColumns is the column list shared by every song SELECT.
const songColumns = "id, name, abs_path, bpm, length, kbps, genre, artist, album, album_art"

// SongRepository defines the catalog store operations for songs.
//
// Every lookup that can match multiple rows takes a limit; a negative
// limit means unbounded, zero yields an empty result.
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Song, error)
	GetByName(ctx context.Context, name string) (*model.Song, error)
	GetByPath(ctx context.Context, path string) (*model.Song, error)
	GetAll(ctx context.Context, limit int64) ([]*model.Song, error)
	GetRange(ctx context.Context, field Field, low, high, limit int64) ([]*model.Song, error)
	GetByExact(ctx context.Context, field Field, value string, limit int64) ([]*model.Song, error)
	Search(ctx context.Context, q string, limit int64) ([]*model.Song, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a song repository on the given connection.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

// Create inserts a new song. When song.ID is zero the store assigns the
// next id; a non-zero id is inserted as-is. A name or path collision
// returns ErrDuplicate and leaves the store unchanged.
func (r *mysqlSongRepository) Create(ctx context.Context, song *model.Song) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if song.ID != 0 {
		query := `INSERT INTO songs (id, name, abs_path, bpm, length, kbps, genre, artist, album, album_art)
		           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err = r.db.ExecContext(ctx, query,
			song.ID, song.Name, song.AbsPath, song.BPM, song.Length, song.Kbps, song.Genre, song.Artist, song.Album, song.AlbumArt)
	} else {
		query := `INSERT INTO songs (name, abs_path, bpm, length, kbps, genre, artist, album, album_art)
		           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err = r.db.ExecContext(ctx, query,
			song.Name, song.AbsPath, song.BPM, song.Length, song.Kbps, song.Genre, song.Artist, song.Album, song.AlbumArt)
	}
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return 0, fmt.Errorf("song %q (%s): %w", song.Name, song.AbsPath, ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	if song.ID != 0 {
		id = song.ID
	}
	logger.Debug("Song created", logger.Int64("id", id), logger.String("name", song.Name))
	return id, nil
}

// GetByID retrieves a song by its id.
func (r *mysqlSongRepository) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByName retrieves a song by its unique display name.
func (r *mysqlSongRepository) GetByName(ctx context.Context, name string) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE name = ?`
	return r.getOne(ctx, query, name)
}

// GetByPath retrieves a song by its unique absolute source path.
func (r *mysqlSongRepository) GetByPath(ctx context.Context, path string) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE abs_path = ?`
	return r.getOne(ctx, query, path)
}

func (r *mysqlSongRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Song, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("song %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return song, nil
}

// GetAll retrieves songs in storage order.
func (r *mysqlSongRepository) GetAll(ctx context.Context, limit int64) ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY id`
	if limit < 0 {
		return r.getMany(ctx, query)
	}
	return r.getMany(ctx, query+` LIMIT ?`, limit)
}

// GetRange retrieves songs whose numeric field lies in [low, high], both
// bounds inclusive. low == high behaves as an exact match. A descending
// range matches nothing.
func (r *mysqlSongRepository) GetRange(ctx context.Context, field Field, low, high, limit int64) ([]*model.Song, error) {
	if !field.Numeric() {
		return nil, fmt.Errorf("range lookup on %q: %w", field, ErrInvalidField)
	}
	col, ok := field.column()
	if !ok {
		return nil, fmt.Errorf("field %q: %w", field, ErrInvalidField)
	}
	query := `SELECT ` + songColumns + ` FROM songs WHERE ` + col + ` BETWEEN ? AND ?`
	if limit < 0 {
		return r.getMany(ctx, query, low, high)
	}
	return r.getMany(ctx, query+` LIMIT ?`, low, high, limit)
}

// GetByExact retrieves songs whose textual field equals value.
func (r *mysqlSongRepository) GetByExact(ctx context.Context, field Field, value string, limit int64) ([]*model.Song, error) {
	if field.Numeric() {
		return nil, fmt.Errorf("exact-text lookup on %q: %w", field, ErrInvalidField)
	}
	col, ok := field.column()
	if !ok {
		return nil, fmt.Errorf("field %q: %w", field, ErrInvalidField)
	}
	query := `SELECT ` + songColumns + ` FROM songs WHERE ` + col + ` = ?`
	if limit < 0 {
		return r.getMany(ctx, query, value)
	}
	return r.getMany(ctx, query+` LIMIT ?`, value, limit)
}

// Search matches q as a substring against every textual and numeric
// column; numeric columns are compared through their decimal string form.
// Case handling follows the connection collation.
func (r *mysqlSongRepository) Search(ctx context.Context, q string, limit int64) ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs
	           WHERE name LIKE ? OR abs_path LIKE ?
	              OR CAST(bpm AS CHAR) LIKE ? OR CAST(length AS CHAR) LIKE ? OR CAST(kbps AS CHAR) LIKE ?
	              OR genre LIKE ? OR artist LIKE ? OR album LIKE ?`
	pattern := "%" + escapeLike(q) + "%"
	args := []interface{}{pattern, pattern, pattern, pattern, pattern, pattern, pattern, pattern}
	if limit >= 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.getMany(ctx, query, args...)
}

// Delete removes a song by id. Deleting an unknown id is not an error.
func (r *mysqlSongRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, err)
	}
	return nil
}

// Count returns the number of songs in the catalog.
func (r *mysqlSongRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

func (r *mysqlSongRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song rows iteration: %w", err)
	}
	return songs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (*model.Song, error) {
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Name, &song.AbsPath, &song.BPM, &song.Length, &song.Kbps,
		&song.Genre, &song.Artist, &song.Album, &song.AlbumArt)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// escapeLike escapes LIKE metacharacters so q is matched literally.
func escapeLike(q string) string {
	out := make([]byte, 0, len(q))
	for i := 0; i < len(q); i++ {
		switch q[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, q[i])
	}
	return string(out)
}
