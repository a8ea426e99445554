package persistence

import (
	"context"
	"fmt"

	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/logger"
)

// Repositories bundles the document stores behind the configured driver.
type Repositories struct {
	Profiles profile.Repository
	Users    user.Repository
	Posts    post.Repository
	close    func(context.Context) error
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// OpenRepositories connects to the store named by cfg.DB.Driver.
func OpenRepositories(ctx context.Context, cfg config.Config, log logger.Logger) (*Repositories, error) {
	switch cfg.DB.Driver {
	case config.DriverPostgres, "":
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Profiles: NewPostgresProfileRepo(pool, log),
			Users:    NewPostgresUserRepo(pool),
			Posts:    NewPostgresPostRepo(pool),
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	case config.DriverMongo:
		db, err := NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Profiles: NewMongoProfileRepo(db, log),
			Users:    NewMongoUserRepo(db),
			Posts:    NewMongoPostRepo(db),
			close:    db.Client().Disconnect,
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}
