package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fmusic/model"
	"fmusic/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EphemeralStore holds dynamically generated playlists in redis. They
// are materialized from query or search results for presentation, keyed
// by a random token, expire after the TTL and are never written to the
// catalog store.
type EphemeralStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEphemeralStore creates an ephemeral playlist store.
func NewEphemeralStore(client *redis.Client, ttl time.Duration) *EphemeralStore {
	return &EphemeralStore{client: client, ttl: ttl}
}

func ephemeralKey(token string) string {
	return fmt.Sprintf("ephemeral:%s", token)
}

func nameKey(token string) string {
	return fmt.Sprintf("ephemeral:%s:name", token)
}

// Materialize stores a result set under a caller-supplied display name
// and returns the token it can be fetched with until expiry.
func (s *EphemeralStore) Materialize(ctx context.Context, name string, songs []*model.Song) (string, error) {
	token := uuid.NewString()
	key := ephemeralKey(token)

	// Sorted set ordered by result position, one JSON member per song.
	members := make([]redis.Z, 0, len(songs))
	for i, song := range songs {
		raw, err := json.Marshal(song)
		if err != nil {
			return "", fmt.Errorf("failed to marshal ephemeral playlist entry: %w", err)
		}
		members = append(members, redis.Z{Score: float64(i), Member: string(raw)})
	}

	pipe := s.client.TxPipeline()
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	} else {
		// Keep an empty marker so Get can tell "empty" from "expired".
		pipe.ZAdd(ctx, key, redis.Z{Score: -1, Member: "{}"})
	}
	pipe.Set(ctx, nameKey(token), name, s.ttl)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store ephemeral playlist: %w", repository.ErrUnavailable)
	}
	return token, nil
}

// Get fetches an ephemeral playlist by token. An expired or unknown
// token is ErrNotFound.
func (s *EphemeralStore) Get(ctx context.Context, token string) (*model.Playlist, error) {
	name, err := s.client.Get(ctx, nameKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("ephemeral playlist %s: %w", token, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ephemeral playlist name: %w", repository.ErrUnavailable)
	}

	raw, err := s.client.ZRangeByScore(ctx, ephemeralKey(token), &redis.ZRangeBy{
		Min: "0",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ephemeral playlist entries: %w", repository.ErrUnavailable)
	}

	playlist := &model.Playlist{Name: name, Songs: make([]*model.Song, 0, len(raw))}
	for _, entry := range raw {
		song := &model.Song{}
		if err := json.Unmarshal([]byte(entry), song); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ephemeral playlist entry: %w", err)
		}
		playlist.Songs = append(playlist.Songs, song)
		playlist.SongIDs = append(playlist.SongIDs, song.ID)
	}
	return playlist, nil
}

// Delete drops an ephemeral playlist before its TTL runs out.
func (s *EphemeralStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, ephemeralKey(token), nameKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete ephemeral playlist: %w", repository.ErrUnavailable)
	}
	return nil
}
