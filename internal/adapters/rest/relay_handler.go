package rest

import (
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/philly/devtools-relay/internal/adapters/api"
	"github.com/philly/devtools-relay/internal/devtools/application"
	"github.com/philly/devtools-relay/internal/relay"
)

// RelayHandler exposes message publishing and forward rules
type RelayHandler struct {
	*BaseHandler
	service *application.Service
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(base *BaseHandler, service *application.Service) *RelayHandler {
	return &RelayHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListConnections lists the registered connection names
func (h *RelayHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONResponse(w, r, api.ConnectionList{Connections: h.service.Connections()}, http.StatusOK)
}

// PublishMessage sends a message through the relay.
// Delivery is synchronous, but the caller learns nothing about who received
// it, so the response is 202.
func (h *RelayHandler) PublishMessage(w http.ResponseWriter, r *http.Request) {
	var req api.Message
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Publish(r.Context(), apiMessageToRelay(req))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	response := api.PublishResponse{DispatchKey: result.DispatchKey}
	if result.ForwardedTo != "" {
		response.ForwardedTo = &result.ForwardedTo
	}
	h.WriteJSONResponse(w, r, response, http.StatusAccepted)
}

// ListForwards lists the installed forward rules
func (h *RelayHandler) ListForwards(w http.ResponseWriter, r *http.Request) {
	rules := h.service.Forwards()

	response := api.ForwardRuleList{Rules: make([]api.ForwardRule, 0, len(rules))}
	for _, rule := range rules {
		response.Rules = append(response.Rules, forwardRuleToAPI(rule))
	}
	h.WriteJSONResponse(w, r, response, http.StatusOK)
}

// CreateForward installs a forward rule
func (h *RelayHandler) CreateForward(w http.ResponseWriter, r *http.Request) {
	var req api.CreateForwardRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	rule, err := h.service.AddForward(r.Context(), req.Topic, req.Recipient)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, forwardRuleToAPI(rule), http.StatusCreated)
}

// DeleteForward removes a forward rule
func (h *RelayHandler) DeleteForward(w http.ResponseWriter, r *http.Request, id openapi_types.UUID) {
	if err := h.service.RemoveForward(r.Context(), uuid.UUID(id)); err != nil {
		h.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func apiMessageToRelay(msg api.Message) relay.Message {
	out := relay.Message{Message: msg.Message, Payload: msg.Payload}
	if msg.To != nil {
		out.To = *msg.To
	}
	return out
}

func relayMessageToAPI(msg relay.Message) api.Message {
	out := api.Message{Message: msg.Message, Payload: msg.Payload}
	if msg.To != "" {
		to := msg.To
		out.To = &to
	}
	return out
}

func forwardRuleToAPI(rule application.ForwardRule) api.ForwardRule {
	return api.ForwardRule{
		Id:        openapi_types.UUID(rule.ID),
		Topic:     rule.Topic,
		Recipient: rule.Recipient,
		CreatedAt: rule.CreatedAt,
	}
}
