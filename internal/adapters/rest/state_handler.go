package rest

import (
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/philly/devtools-relay/internal/adapters/api"
	"github.com/philly/devtools-relay/internal/devtools/application"
	"github.com/philly/devtools-relay/internal/devtools/domain"
)

// StateHandler serves the panel state and the snapshot archive
type StateHandler struct {
	*BaseHandler
	service *application.Service
}

// NewStateHandler creates a new state handler
func NewStateHandler(base *BaseHandler, service *application.Service) *StateHandler {
	return &StateHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetState returns the current panel state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONResponse(w, r, stateToAPI(h.service.State()), http.StatusOK)
}

// PutTheme switches the panel theme
func (h *StateHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req api.ThemeRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	state, err := h.service.SetTheme(r.Context(), req.Theme)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, stateToAPI(state), http.StatusOK)
}

// PutQuery replaces the query editor text
func (h *StateHandler) PutQuery(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	state := h.service.SetQuery(r.Context(), req.Query)
	h.WriteJSONResponse(w, r, stateToAPI(state), http.StatusOK)
}

// ListSnapshots returns recent archived snapshots
func (h *StateHandler) ListSnapshots(w http.ResponseWriter, r *http.Request, params api.ListSnapshotsParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	snapshots, err := h.service.Snapshots(r.Context(), limit)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	response := api.SnapshotList{Snapshots: make([]api.Snapshot, 0, len(snapshots))}
	for _, snapshot := range snapshots {
		response.Snapshots = append(response.Snapshots, snapshotToAPI(snapshot))
	}
	h.WriteJSONResponse(w, r, response, http.StatusOK)
}

// GetSnapshot returns one archived snapshot
func (h *StateHandler) GetSnapshot(w http.ResponseWriter, r *http.Request, id openapi_types.UUID) {
	snapshot, err := h.service.Snapshot(r.Context(), uuid.UUID(id))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, snapshotToAPI(snapshot), http.StatusOK)
}

func stateToAPI(state domain.State) api.PanelState {
	response := api.PanelState{
		Theme: string(state.Theme),
		Query: state.Query,
	}
	if state.Snapshot != nil {
		snapshot := snapshotToAPI(state.Snapshot)
		response.Snapshot = &snapshot
	}
	return response
}

func snapshotToAPI(snapshot *domain.Snapshot) api.Snapshot {
	return api.Snapshot{
		Id:         openapi_types.UUID(snapshot.ID),
		Queries:    snapshot.Queries,
		Mutations:  snapshot.Mutations,
		Cache:      snapshot.Cache,
		CapturedAt: snapshot.CapturedAt,
	}
}
