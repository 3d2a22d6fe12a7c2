package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
	"pricehub/internal/infrastructure/config"
	"pricehub/internal/infrastructure/storage/composite"
	pgrepo "pricehub/internal/infrastructure/storage/postgres"
	redisrepo "pricehub/internal/infrastructure/storage/redis"
	sqliterepo "pricehub/internal/infrastructure/storage/sqlite"
)

// Container owns the storage backends that mirror the latest state.
type Container struct {
	cfg          *config.Config
	redisRepo    *redisrepo.Repo
	sqliteRepo   *sqliterepo.Repo
	postgresRepo *pgrepo.Repo
	closeOnce    sync.Once
	closerChain  []func() error
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	if cfg.Storage.Enabled {
		if err := c.initStorage(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

func (c *Container) initStorage(ctx context.Context) error {
	if c.cfg.Storage.Redis.Enabled {
		if err := c.initRedis(ctx); err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
	}

	if c.cfg.Storage.SQLite.Enabled {
		if err := c.initSQLite(); err != nil {
			return fmt.Errorf("sqlite init failed: %w", err)
		}
	}

	if c.cfg.Storage.Postgres.Enabled {
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
	}

	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	rc := c.cfg.Storage.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisRepo = redisrepo.New(rdb, rc.Prefix, time.Duration(rc.TTLSec)*time.Second, rc.Channel)

	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return c.redisRepo.Close()
	})

	log.Info().
		Str("addr", rc.Addr).
		Int("db", rc.DB).
		Msg("redis initialized")

	return nil
}

func (c *Container) initSQLite() error {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
	if err != nil {
		return err
	}

	c.sqliteRepo = repo

	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", c.cfg.Storage.SQLite.Path).
		Msg("sqlite initialized")

	return nil
}

func (c *Container) initPostgres() error {
	repo, err := pgrepo.New(c.cfg.Storage.Postgres.DSN)
	if err != nil {
		return err
	}

	c.postgresRepo = repo

	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("postgres initialized")
	return nil
}

func (c *Container) SQLiteRepo() *sqliterepo.Repo {
	return c.sqliteRepo
}

// Repository fans writes out to every initialized backend, or returns nil when
// none is configured. Closing is left to the container.
func (c *Container) Repository() port.Repository {
	var repos []port.Repository
	if c.redisRepo != nil {
		repos = append(repos, c.redisRepo)
	}
	if c.sqliteRepo != nil {
		repos = append(repos, c.sqliteRepo)
	}
	if c.postgresRepo != nil {
		repos = append(repos, c.postgresRepo)
	}
	if len(repos) == 0 {
		return nil
	}
	return composite.New(repos...)
}

// Close releases resources in reverse order of creation.
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
