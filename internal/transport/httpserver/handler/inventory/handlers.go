package inventory

import (
	inventorydomain "fridge-app-go/internal/domain/inventory"
	"fridge-app-go/pkg/logger"
)

type Handlers struct {
	Inventory *inventorydomain.Service
	log       logger.Logger
}

func New(inventory *inventorydomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Inventory: inventory,
		log:       log,
	}
}
