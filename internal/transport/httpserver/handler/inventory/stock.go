package inventory

import (
	"net/http"

	inventorydomain "fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/response"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	Name         string           `json:"name" validate:"required,max=120"`
	Quantity     *decimal.Decimal `json:"quantity" validate:"required"`
	Unit         string           `json:"unit" validate:"max=32"`
	ExpireDate   string           `json:"expire_date"`
	Barcode      string           `json:"barcode" validate:"max=64"`
	LowThreshold *decimal.Decimal `json:"low_threshold"`
}

type removeQuantityRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type stockListResponse struct {
	Items []response.StockItem `json:"items"`
}

type barcodeResponse struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
}

func (h *Handlers) ListStock(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	items, err := h.Inventory.ListItems(r.Context(), user.ID, fridgeID)
	if err != nil {
		common.WriteDomainError(w, h.log, "stock.list", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusOK, stockListResponse{Items: response.FromStockItems(items)})
}

func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !common.Bind(w, r, &req) {
		return
	}
	expireDate, err := common.ParseDate(req.ExpireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expire_date must be YYYY-MM-DD or RFC 3339")
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")

	in := inventorydomain.AddItemInput{
		Name:         req.Name,
		Quantity:     *req.Quantity,
		Unit:         req.Unit,
		ExpireDate:   expireDate,
		Barcode:      req.Barcode,
		LowThreshold: decimal.Zero,
		Source:       inventorydomain.SourceManual,
	}
	if req.LowThreshold != nil {
		in.LowThreshold = *req.LowThreshold
	}

	item, err := h.Inventory.AddItem(r.Context(), fridgeID, actorFrom(user), in)
	if err != nil {
		common.WriteDomainError(w, h.log, "stock.add", err, "user_id", user.ID, "fridge_id", fridgeID)
		return
	}
	writeJSON(w, http.StatusCreated, response.FromStockItem(item))
}

func (h *Handlers) RemoveQuantity(w http.ResponseWriter, r *http.Request) {
	var req removeQuantityRequest
	if !common.Bind(w, r, &req) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fridgeID := chi.URLParam(r, "fridge_id")
	itemID := chi.URLParam(r, "item_id")

	result, err := h.Inventory.RemoveQuantity(r.Context(), fridgeID, actorFrom(user), itemID, *req.Amount)
	if err != nil {
		common.WriteDomainError(w, h.log, "stock.remove", err, "user_id", user.ID, "fridge_id", fridgeID, "item_id", itemID)
		return
	}
	writeJSON(w, http.StatusOK, response.FromRemoval(*result))
}

func (h *Handlers) LookupBarcode(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	lookup, err := h.Inventory.LookupBarcode(r.Context(), code)
	if err != nil {
		common.WriteDomainError(w, h.log, "barcodes.lookup", err, "user_id", user.ID, "barcode", code)
		return
	}
	writeJSON(w, http.StatusOK, barcodeResponse{Barcode: lookup.Barcode, Name: lookup.Name, Unit: lookup.Unit})
}
