package application

import (
	"context"
	"errors"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/philly/devtools-relay/internal/devtools/domain"
	"github.com/philly/devtools-relay/internal/devtools/ports"
	"github.com/philly/devtools-relay/internal/platform/apperror"
	"github.com/philly/devtools-relay/internal/platform/events"
	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/philly/devtools-relay/internal/platform/validator"
	"github.com/philly/devtools-relay/internal/relay"
)

// Service errors
var (
	ErrForwardRuleNotFound = apperror.NotFound(
		apperror.BusinessCodeForwardRuleNotFound,
		"forward rule not found",
	)

	ErrSnapshotNotFound = apperror.NotFound(
		apperror.BusinessCodeSnapshotNotFound,
		"snapshot not found",
	)

	ErrConnectionInUse = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeConnectionInUse,
		"connection name is already registered",
	)
)

// Snapshot listing bounds.
const (
	DefaultSnapshotLimit = 20
	MaxSnapshotLimit     = 100
)

const archiveTimeout = 5 * time.Second

// ConnectionPrefix marks a stream key as a connection name rather than a topic.
const ConnectionPrefix = "@"

// Config holds the service settings read from the environment.
type Config struct {
	ForwardRules []validator.ForwardRule
}

// ForwardRule is a standing relay rule installed through the service.
type ForwardRule struct {
	ID        uuid.UUID
	Topic     string
	Recipient string
	CreatedAt time.Time

	unsubscribe func()
}

// PublishResult reports where a published message was dispatched.
type PublishResult struct {
	DispatchKey string
	ForwardedTo string
}

// Service is the panel side of the relay: it keeps the panel state in sync
// with the messages flowing through the relay and exposes the relay to the
// HTTP layer.
//
// Every relay entry point goes through mu, so the relay only ever runs on one
// goroutine at a time. Handlers registered here run with mu held and must not
// call back into locked Service methods.
type Service struct {
	mu      sync.Mutex
	relay   *relay.Relay
	store   *domain.Store
	archive ports.SnapshotArchive
	logger  logger.Logger

	sanitizer *bluemonday.Policy
	now       func() time.Time

	rules    map[uuid.UUID]*ForwardRule
	teardown []func()
}

// NewService registers the panel connection and the devtools topic listeners
// on r, installs the configured forward rules, and returns a cleanup function
// that removes all of them.
func NewService(r *relay.Relay, archive ports.SnapshotArchive, log logger.Logger, config Config) (*Service, func()) {
	s := &Service{
		relay:     r,
		store:     domain.NewStore(),
		archive:   archive,
		logger:    log,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
		rules:     make(map[uuid.UUID]*ForwardRule),
	}

	s.mu.Lock()
	s.teardown = append(s.teardown,
		r.AddConnection(events.PanelConnection, s.apply),
		r.Listen(events.SnapshotTopic, s.apply),
		r.Listen(events.ThemeTopic, s.apply),
		r.Listen(events.QueryTopic, s.apply),
		r.Listen(events.StateRequestTopic, s.apply),
	)
	for _, rule := range config.ForwardRules {
		s.addForwardLocked(rule.Topic, rule.Recipient)
		log.Info(context.Background(), "forward rule installed", "topic", rule.Topic, "recipient", rule.Recipient)
	}
	s.mu.Unlock()

	return s, s.Close
}

// Close removes every registration the service made on the relay.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, unsubscribe := range s.teardown {
		unsubscribe()
	}
	s.teardown = nil

	for id, rule := range s.rules {
		rule.unsubscribe()
		delete(s.rules, id)
	}
}

// Publish validates msg and sends it through the relay.
func (s *Service) Publish(ctx context.Context, msg relay.Message) (PublishResult, error) {
	if err := validator.ValidateTopic(msg.Message); err != nil {
		return PublishResult{}, apperror.Validation(apperror.BusinessCodeInvalidTopic, err.Error())
	}
	if err := validator.ValidateAddress(msg.To); err != nil {
		return PublishResult{}, apperror.Validation(apperror.BusinessCodeInvalidAddress, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, to := relay.Resolve(msg.To, msg.Message, s.relay.HasConnection)
	s.relay.Send(msg)

	s.logger.Debug(ctx, "message published", "message", msg.Message, "to", msg.To, "dispatch_key", key)
	return PublishResult{DispatchKey: key, ForwardedTo: to}, nil
}

// AddForward installs a rule relaying every message on topic to recipient.
func (s *Service) AddForward(ctx context.Context, topic string, recipient string) (ForwardRule, error) {
	if err := validator.ValidateTopic(topic); err != nil {
		return ForwardRule{}, apperror.Validation(apperror.BusinessCodeInvalidTopic, err.Error())
	}
	if recipient == "" {
		return ForwardRule{}, apperror.Validation(apperror.BusinessCodeInvalidAddress, "recipient is required")
	}
	if err := validator.ValidateAddress(recipient); err != nil {
		return ForwardRule{}, apperror.Validation(apperror.BusinessCodeInvalidAddress, err.Error())
	}

	s.mu.Lock()
	rule := s.addForwardLocked(topic, recipient)
	connected := s.relay.HasConnection(firstHop(recipient))
	s.mu.Unlock()

	s.logger.Info(ctx, "forward rule added", "id", rule.ID, "topic", topic, "recipient", recipient)
	if !connected {
		s.logger.Warn(ctx, "forward recipient is not connected; messages are dropped until it is",
			"id", rule.ID, "recipient", recipient)
	}
	return *rule, nil
}

func (s *Service) addForwardLocked(topic string, recipient string) *ForwardRule {
	rule := &ForwardRule{
		ID:          uuid.New(),
		Topic:       topic,
		Recipient:   recipient,
		CreatedAt:   s.now().UTC(),
		unsubscribe: s.relay.Listen(topic, s.forwardTo(recipient)),
	}
	s.rules[rule.ID] = rule
	return rule
}

// forwardTo relays each message to recipient while its first hop is a
// registered connection. An unmatched hop resolves back to the rule's own
// topic and would fire the rule again, so such messages are dropped.
func (s *Service) forwardTo(recipient string) relay.MessageHandler {
	head := firstHop(recipient)
	return func(msg relay.Message) {
		if !s.relay.HasConnection(head) {
			s.logger.Warn(context.Background(), "forward recipient not connected, dropping message",
				"message", msg.Message,
				"recipient", recipient,
			)
			return
		}
		msg.To = recipient
		s.relay.Send(msg)
	}
}

func firstHop(address string) string {
	head, _, _ := strings.Cut(address, relay.Delimiter)
	return head
}

// RemoveForward uninstalls a rule.
func (s *Service) RemoveForward(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	rule, ok := s.rules[id]
	if ok {
		rule.unsubscribe()
		delete(s.rules, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrForwardRuleNotFound
	}

	s.logger.Info(ctx, "forward rule removed", "id", id, "topic", rule.Topic)
	return nil
}

// Forwards lists the installed rules, oldest first.
func (s *Service) Forwards() []ForwardRule {
	s.mu.Lock()
	rules := make([]ForwardRule, 0, len(s.rules))
	for _, rule := range s.rules {
		rules = append(rules, *rule)
	}
	s.mu.Unlock()

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].ID.String() < rules[j].ID.String()
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
	return rules
}

// Connections lists the relay's addressable endpoints.
func (s *Service) Connections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relay.Connections()
}

// HasConnection reports whether name is currently registered.
func (s *Service) HasConnection(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relay.HasConnection(name)
}

// State returns the current panel state.
func (s *Service) State() domain.State {
	return s.store.State()
}

// SetTheme sends a theme change to the panel connection.
func (s *Service) SetTheme(ctx context.Context, raw string) (domain.State, error) {
	theme, err := domain.ParseColorTheme(raw)
	if err != nil {
		return domain.State{}, apperror.Validation(apperror.BusinessCodeInvalidTheme, err.Error())
	}

	s.send(events.PanelConnection, events.ThemeTopic, events.ThemePayload{Theme: string(theme)})
	return s.store.State(), nil
}

// SetQuery sends new query editor text to the panel connection.
func (s *Service) SetQuery(ctx context.Context, query string) domain.State {
	s.send(events.PanelConnection, events.QueryTopic, events.QueryPayload{Query: query})
	return s.store.State()
}

func (s *Service) send(to string, topic string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relay.Send(relay.Message{To: to, Message: topic, Payload: payload})
}

// Snapshots returns recent archived captures, newest first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	if limit > MaxSnapshotLimit {
		limit = MaxSnapshotLimit
	}

	snapshots, err := s.archive.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error(ctx, "failed to list snapshots", "error", err)
		return nil, apperror.Internal(err)
	}
	return snapshots, nil
}

// Snapshot returns one archived capture.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	snapshot, err := s.archive.FindByID(ctx, id)
	if errors.Is(err, ports.ErrSnapshotNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		s.logger.Error(ctx, "failed to load snapshot", "error", err, "snapshotID", id)
		return nil, apperror.Internal(err)
	}
	return snapshot, nil
}

// Subscribe attaches fn to the relay. A key starting with ConnectionPrefix
// registers fn as the connection with the rest of the key as its name;
// anything else listens on the key as a topic. fn runs synchronously inside
// a dispatch and must not block.
func (s *Service) Subscribe(key string, fn relay.MessageHandler) (func(), error) {
	if name, ok := strings.CutPrefix(key, ConnectionPrefix); ok {
		if err := validator.ValidateConnectionName(name); err != nil {
			return nil, apperror.Validation(apperror.BusinessCodeInvalidAddress, err.Error())
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.relay.HasConnection(name) {
			return nil, ErrConnectionInUse
		}
		return s.locked(s.relay.AddConnection(name, fn)), nil
	}

	if err := validator.ValidateTopic(key); err != nil {
		return nil, apperror.Validation(apperror.BusinessCodeInvalidTopic, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked(s.relay.Listen(key, fn)), nil
}

func (s *Service) locked(fn func()) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
	}
}

// apply is the relay handler for every devtools message. It runs with mu held.
func (s *Service) apply(msg relay.Message) {
	ctx := context.Background()

	switch msg.Message {
	case events.SnapshotTopic:
		var payload events.SnapshotPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			s.logger.Warn(ctx, "ignoring malformed snapshot", "error", err)
			return
		}
		snapshot := s.store.WriteData(payload.Queries, payload.Mutations, payload.Cache, s.now())
		s.archiveSnapshot(snapshot)

	case events.ThemeTopic:
		var payload events.ThemePayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			s.logger.Warn(ctx, "ignoring malformed theme", "error", err)
			return
		}
		if _, err := s.store.SetTheme(payload.Theme); err != nil {
			s.logger.Warn(ctx, "ignoring unknown theme", "theme", payload.Theme, "error", err)
			return
		}

	case events.QueryTopic:
		var payload events.QueryPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			s.logger.Warn(ctx, "ignoring malformed query", "error", err)
			return
		}
		s.store.SetQuery(s.sanitizeQuery(payload.Query))

	case events.StateRequestTopic:
		// The hint left in To names the requester; with no hint the reply
		// goes out on the state topic.
		s.relay.Send(relay.Message{
			To:      msg.To,
			Message: events.StateTopic,
			Payload: statePayload(s.store.State()),
		})

	default:
		s.logger.Debug(ctx, "panel ignoring message", "message", msg.Message)
	}
}

// sanitizeQuery strips markup from editor text. The policy escapes what it
// keeps, so the result is unescaped back to plain query text.
func (s *Service) sanitizeQuery(query string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(query))
}

func (s *Service) archiveSnapshot(snapshot *domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := s.archive.Save(ctx, snapshot); err != nil {
		s.logger.Error(ctx, "failed to archive snapshot", "error", err, "snapshotID", snapshot.ID)
	}
}

func statePayload(state domain.State) events.StatePayload {
	payload := events.StatePayload{
		Theme: string(state.Theme),
		Query: state.Query,
	}
	if snap := state.Snapshot; snap != nil {
		id, at := snap.ID, snap.CapturedAt
		payload.SnapshotID = &id
		payload.CapturedAt = &at
		payload.Queries = snap.Queries
		payload.Mutations = snap.Mutations
		payload.Cache = snap.Cache
	}
	return payload
}
