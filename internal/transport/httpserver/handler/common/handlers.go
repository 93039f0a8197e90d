package common

import (
	"context"

	fridgedomain "fridge-app-go/internal/domain/fridge"
	profiledomain "fridge-app-go/internal/domain/profile"
	"fridge-app-go/pkg/logger"
)

// SessionCloser ends every live stream session of a user.
type SessionCloser interface {
	CloseUser(userID string) int
}

type DBPinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Profiles *profiledomain.Service
	Fridges  *fridgedomain.Service
	Sessions SessionCloser
	db       DBPinger
	log      logger.Logger
}

func New(profiles *profiledomain.Service, fridges *fridgedomain.Service, sessions SessionCloser, db DBPinger, log logger.Logger) *Handlers {
	return &Handlers{
		Profiles: profiles,
		Fridges:  fridges,
		Sessions: sessions,
		db:       db,
		log:      log,
	}
}
