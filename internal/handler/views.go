package handler

import (
	"net/http"
	"strconv"

	"github.com/denissonlm/AcoCameras/internal/filter"
	"github.com/denissonlm/AcoCameras/internal/fleet"
	"github.com/denissonlm/AcoCameras/internal/layout"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/stats"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{
		"status":    "ok",
		"loaded_at": h.Cache.Current().LoadedAt,
	})
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.Cache.Current())
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.Cache.Current()
	jsonOK(w, stats.Compute(snap.Devices, snap.Divisions))
}

type dashboardResponse struct {
	Filter     filter.State     `json:"filter"`
	ActiveName string           `json:"active_name"`
	Devices    []model.Device   `json:"devices"`
	Divisions  []model.Division `json:"divisions"`
	Stats      stats.Stats      `json:"stats"`
	IsAdmin    bool             `json:"is_admin"`
}

func filterFromQuery(r *http.Request) (filter.State, error) {
	q := r.URL.Query()
	s := filter.State{
		Status: model.ChannelStatus(q.Get("status")),
		Action: model.ActionType(q.Get("action")),
	}
	if v := q.Get("division"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return s, fleet.Validation("divisão de filtro inválida")
		}
		s.DivisionID = id
	}
	if err := s.Validate(); err != nil {
		return s, fleet.Validation(err.Error())
	}
	return s, nil
}

// Dashboard returns the devices visible under the query's filters. Stats
// always cover the whole fleet.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	state, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err, "aplicar o filtro")
		return
	}
	snap := h.Cache.Current()
	jsonOK(w, dashboardResponse{
		Filter:     state,
		ActiveName: state.ActiveName(snap.Divisions),
		Devices:    state.Apply(snap.Devices),
		Divisions:  snap.Divisions,
		Stats:      stats.Compute(snap.Devices, snap.Divisions),
		IsAdmin:    isAdmin(r),
	})
}

type filterRequest struct {
	State      filter.State      `json:"state"`
	Transition filter.Transition `json:"transition"`
}

type filterResponse struct {
	Filter     filter.State `json:"filter"`
	ActiveName string       `json:"active_name"`
}

// FilterTransition applies one filter selection to the given state.
func (h *Handler) FilterTransition(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "aplicar o filtro")
		return
	}
	if err := req.State.Validate(); err != nil {
		writeError(w, fleet.Validation(err.Error()), "aplicar o filtro")
		return
	}
	if err := fleet.ValidateStruct(req.Transition); err != nil {
		writeError(w, err, "aplicar o filtro")
		return
	}
	next, err := req.State.Next(req.Transition)
	if err != nil {
		writeError(w, fleet.Validation(err.Error()), "aplicar o filtro")
		return
	}
	jsonOK(w, filterResponse{Filter: next, ActiveName: next.ActiveName(h.Cache.Current().Divisions)})
}

func (h *Handler) LayoutGet(w http.ResponseWriter, r *http.Request) {
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		writeError(w, err, "carregar o layout")
		return
	}
	snap := h.Cache.Current()
	if _, ok := snap.Division(divisionID); !ok {
		writeError(w, layout.ErrUnknownDivision, "carregar o layout")
		return
	}
	jsonOK(w, layout.BuildView(snap, divisionID))
}

func (h *Handler) ChannelLogs(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "carregar o histórico")
		return
	}
	logs, err := h.Fleet.Logs(r.Context(), id)
	if err != nil {
		writeError(w, err, "carregar o histórico")
		return
	}
	jsonOK(w, logs)
}

// Refresh reloads the snapshot by hand, for clients that lost the feed.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Cache.Refresh(r.Context()); err != nil {
		writeError(w, err, "atualizar os dados")
		return
	}
	jsonOK(w, h.Cache.Current())
}
