package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	goredis "github.com/go-redis/redis/v9"

	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
)

const maxWatchRetries = 8

// NewRedisClient connects to the server described by cfg and pings it.
//
// The returned func closes the client.
func NewRedisClient(ctx context.Context, cfg shared.RedisConfig, l *log.Logger) (*goredis.Client, func(), error) {
	client := goredis.NewClient(
		&goredis.Options{
			Network:         "tcp",
			Addr:            cfg.Addr,
			Password:        cfg.Password,
			DB:              cfg.DB,
			MaxRetries:      3,
			MinRetryBackoff: 50 * time.Millisecond,
			MaxRetryBackoff: 2 * time.Second,
			DialTimeout:     10 * time.Second,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			MinIdleConns:    1,
			MaxIdleConns:    8,
			ConnMaxIdleTime: time.Minute,
		},
	)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, persistence("ping redis", err)
	}
	return client, func() {
		if err := client.Close(); err != nil && l != nil {
			l.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

// RedisPlaylistStore implements [models.PlaylistStore] on Redis.
//
// Each playlist is a JSON document at playlists:{id}. Owners are indexed by a
// sorted set at playlists:owner:{owner} scored by creation time. Updates run as
// WATCH transactions so replace and union are atomic per document.
type RedisPlaylistStore struct {
	client *goredis.Client
	now    func() time.Time
}

// NewRedisPlaylistStore creates a store backed by client.
func NewRedisPlaylistStore(client *goredis.Client) *RedisPlaylistStore {
	return &RedisPlaylistStore{client: client, now: func() time.Time { return time.Now().UTC() }}
}

func docKey(id string) string {
	return models.PlaylistCollection + ":" + id
}

func ownerKey(ownerID string) string {
	return models.PlaylistCollection + ":owner:" + ownerID
}

func (s *RedisPlaylistStore) Create(ctx context.Context, p models.Playlist) (*models.Playlist, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	now := s.now()
	created := p.Clone()
	created.ID = shared.GenerateID()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Tracks == nil {
		created.Tracks = []models.Track{}
	}

	data, err := json.Marshal(created)
	if err != nil {
		return nil, persistence("encode playlist", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, docKey(created.ID), data, 0)
		pipe.ZAdd(ctx, ownerKey(created.OwnerID), goredis.Z{Score: float64(now.UnixNano()), Member: created.ID})
		return nil
	})
	if err != nil {
		return nil, persistence("create playlist", err)
	}
	return &created, nil
}

func (s *RedisPlaylistStore) Get(ctx context.Context, id string) (*models.Playlist, error) {
	raw, err := s.client.Get(ctx, docKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, persistence("get playlist", err)
	}
	return decodePlaylist(raw)
}

func (s *RedisPlaylistStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	ids, err := s.client.ZRange(ctx, ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, persistence("list playlist ids", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, persistence("list playlists", err)
	}

	playlists := make([]models.Playlist, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		p, err := decodePlaylist([]byte(raw))
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	return playlists, nil
}

func (s *RedisPlaylistStore) Rename(ctx context.Context, id, name string) error {
	_, err := s.update(ctx, id, func(p *models.Playlist) { p.Name = name })
	return err
}

func (s *RedisPlaylistStore) ReplaceTracks(ctx context.Context, id string, tracks []models.Track) error {
	_, err := s.update(ctx, id, func(p *models.Playlist) {
		p.Tracks = append([]models.Track{}, tracks...)
	})
	return err
}

func (s *RedisPlaylistStore) UnionTracks(ctx context.Context, id string, tracks ...models.Track) ([]models.Track, error) {
	p, err := s.update(ctx, id, func(p *models.Playlist) {
		p.Tracks = mergeTracks(p.Tracks, tracks)
	})
	if err != nil {
		return nil, err
	}
	return p.Tracks, nil
}

func (s *RedisPlaylistStore) Delete(ctx context.Context, id string) error {
	key := docKey(id)
	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return notFound(id)
		}
		if err != nil {
			return err
		}

		p, err := decodePlaylist(raw)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, ownerKey(p.OwnerID), id)
			return nil
		})
		return err
	}
	return s.watch(ctx, "delete playlist", key, txf)
}

// update applies mutate to the stored document inside a WATCH transaction.
func (s *RedisPlaylistStore) update(ctx context.Context, id string, mutate func(*models.Playlist)) (*models.Playlist, error) {
	key := docKey(id)
	var updated *models.Playlist

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return notFound(id)
		}
		if err != nil {
			return err
		}

		p, err := decodePlaylist(raw)
		if err != nil {
			return err
		}
		mutate(p)
		p.UpdatedAt = s.now()

		data, err := json.Marshal(p)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = p
		}
		return err
	}

	if err := s.watch(ctx, "update playlist", key, txf); err != nil {
		return nil, err
	}
	return updated, nil
}

// watch retries txf while another client modifies key between WATCH and EXEC.
func (s *RedisPlaylistStore) watch(ctx context.Context, op, key string, txf func(*goredis.Tx) error) error {
	for range maxWatchRetries {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrPersistence):
			return err
		default:
			return persistence(op, err)
		}
	}
	return persistence(op, fmt.Errorf("too many concurrent modifications of %s", key))
}

func decodePlaylist(raw []byte) (*models.Playlist, error) {
	var p models.Playlist
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, persistence("decode playlist", err)
	}
	if p.Tracks == nil {
		p.Tracks = []models.Track{}
	}
	return &p, nil
}
