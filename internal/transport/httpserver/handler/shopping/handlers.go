package shopping

import (
	shoppingdomain "fridge-app-go/internal/domain/shopping"
	"fridge-app-go/pkg/logger"
)

type Handlers struct {
	Shopping *shoppingdomain.Service
	log      logger.Logger
}

func New(shopping *shoppingdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Shopping: shopping,
		log:      log,
	}
}
