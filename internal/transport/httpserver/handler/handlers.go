package handler

import (
	"fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/fridges"
	"fridge-app-go/internal/transport/httpserver/handler/inventory"
	"fridge-app-go/internal/transport/httpserver/handler/shopping"
	"fridge-app-go/internal/transport/httpserver/handler/stream"
)

type Handlers struct {
	Common    *common.Handlers
	Fridges   *fridges.Handlers
	Inventory *inventory.Handlers
	Shopping  *shopping.Handlers
	Stream    *stream.Handlers
}

func New(common *common.Handlers, fridges *fridges.Handlers, inventory *inventory.Handlers, shopping *shopping.Handlers, stream *stream.Handlers) *Handlers {
	return &Handlers{
		Common:    common,
		Fridges:   fridges,
		Inventory: inventory,
		Shopping:  shopping,
		Stream:    stream,
	}
}
