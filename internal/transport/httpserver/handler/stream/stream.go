package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"fridge-app-go/internal/domain/errs"
	"fridge-app-go/internal/realtime"
	commonhandler "fridge-app-go/internal/transport/httpserver/handler/common"
	"fridge-app-go/internal/transport/httpserver/handler/response"
	"fridge-app-go/internal/transport/httpserver/middleware"
	"fridge-app-go/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

type Handlers struct {
	Sessions  *realtime.Manager
	heartbeat time.Duration
	log       logger.Logger
}

func New(sessions *realtime.Manager, heartbeat time.Duration, log logger.Logger) *Handlers {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handlers{
		Sessions:  sessions,
		heartbeat: heartbeat,
		log:       log,
	}
}

type snapshotView struct {
	SessionID string                `json:"session_id"`
	Version   uint64                `json:"version"`
	Profile   *response.Profile     `json:"profile"`
	Fridges   []response.Fridge     `json:"fridges"`
	Data      map[string]fridgeView `json:"data"`
}

type fridgeView struct {
	Fridge   response.Fridge          `json:"fridge"`
	Members  []response.Member        `json:"members"`
	Stock    *response.Groups         `json:"stock"`
	Shopping []response.ShoppingEntry `json:"shopping"`
	History  []response.History       `json:"history"`
}

type streamError struct {
	FridgeID string `json:"fridge_id,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Stream serves one live session as server-sent events. The session is
// closed, and every subscription released, when the client goes away.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		commonhandler.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		commonhandler.WriteError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	session := h.Sessions.Open(r.Context(), user.ID)
	defer session.Close()
	log := h.log.With("user_id", user.ID, "session_id", session.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("stream: client disconnected")
			return
		case <-session.Done():
			_ = writeEvent(w, "closed", "", map[string]string{"reason": "session closed"})
			flusher.Flush()
			return
		case <-session.Updates():
			snapshot := session.Snapshot()
			if err := writeEvent(w, "snapshot", strconv.FormatUint(snapshot.Version, 10), toSnapshotView(snapshot)); err != nil {
				log.Warn("stream: write snapshot failed", "err", err)
				return
			}
			flusher.Flush()
		case err := <-session.Errors():
			if err := writeEvent(w, "error", "", toStreamError(err)); err != nil {
				log.Warn("stream: write error event failed", "err", err)
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, id string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func toSnapshotView(snapshot realtime.Snapshot) snapshotView {
	view := snapshotView{
		SessionID: snapshot.SessionID,
		Version:   snapshot.Version,
		Fridges:   []response.Fridge{},
		Data:      make(map[string]fridgeView, len(snapshot.Fridges)),
	}
	if snapshot.User != nil {
		if snapshot.User.Profile != nil {
			p := response.FromProfile(snapshot.User.Profile)
			view.Profile = &p
		}
		view.Fridges = response.FromUserFridges(snapshot.User.Fridges)
	}

	ids := make([]string, 0, len(snapshot.Fridges))
	for id := range snapshot.Fridges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		state := snapshot.Fridges[id]
		data := fridgeView{
			Fridge:   response.FromFridge(&state.Fridge),
			Members:  response.FromMembers(state.Members),
			Shopping: response.FromShoppingEntries(state.Shopping),
			History:  response.FromHistory(state.History),
		}
		if state.Stock != nil {
			groups := response.FromGroupsView(state.Stock)
			data.Stock = &groups
		}
		view.Data[id] = data
	}
	return view
}

func toStreamError(err error) streamError {
	result := streamError{Code: string(errs.KindOf(err)), Message: err.Error()}
	var loadErr *realtime.LoadError
	if errors.As(err, &loadErr) {
		result.FridgeID = loadErr.FridgeID
		result.Message = loadErr.Err.Error()
	}
	if errs.KindOf(err) == errs.KindTransient {
		result.Message = "live updates interrupted, please retry"
	}
	return result
}
