package fridges

import (
	"net/http"

	"fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/response"
)

type auditResponse struct {
	Consistent bool               `json:"consistent"`
	Anomalies  []response.Anomaly `json:"anomalies"`
}

func (h *Handlers) MembershipAudit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	anomalies, err := h.Fridges.Audit(r.Context(), user.ID)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.membership_audit", err, "user_id", user.ID)
		return
	}
	if len(anomalies) > 0 {
		h.log.Warn("admin.membership_audit: mirror anomalies found", "user_id", user.ID, "count", len(anomalies))
	}
	writeJSON(w, http.StatusOK, auditResponse{
		Consistent: len(anomalies) == 0,
		Anomalies:  response.FromAnomalies(anomalies),
	})
}
