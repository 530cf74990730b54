// Package session holds the client's authentication state machine. The
// machine keeps {user, role, token} and mirrors every transition into a
// persisted key/value store, so a restarted client resumes where it left off.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/client/storage"
	"github.com/atinyakov/DocDesk/internal/logger"
	"github.com/atinyakov/DocDesk/internal/models"
)

// Keys under which the session fields are persisted.
const (
	KeyUser  = "user"
	KeyToken = "token"
	KeyRole  = "role"
)

var (
	// ErrInvalidPayload is returned by CompleteLogin when user, token or role is missing.
	ErrInvalidPayload = errors.New("invalid login payload")
	// ErrInvalidTransition is returned when a transition is not allowed from the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Phase is the coarse state of the machine.
type Phase int

const (
	// Anonymous means no user is logged in.
	Anonymous Phase = iota
	// Authenticating means a login attempt has started. It is never persisted.
	Authenticating
	// Authenticated means user, role and token are all set.
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return "phase(" + strconv.Itoa(int(p)) + ")"
}

// State is the session triple. A nil User, empty Role and empty Token are the
// null values.
type State struct {
	User  *models.User
	Role  models.Role
	Token string
}

// IsAnonymous reports whether all three fields are null.
func (s State) IsAnonymous() bool {
	return s.User == nil && s.Role == "" && s.Token == ""
}

// IsAuthenticated reports whether all three fields are set.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Role != "" && s.Token != ""
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

type loginPayload struct {
	User  *models.User `validate:"required"`
	Token string       `validate:"required"`
	Role  models.Role  `validate:"required,oneof=none patient doctor admin"`
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for transitions and hydration problems.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.log = logger.OrNop(l) }
}

// WithStrictHydration makes hydration discard a partially persisted session
// (some keys present, others missing or corrupt) and clear the store.
func WithStrictHydration() Option {
	return func(m *Machine) { m.strict = true }
}

// Machine is the session state machine. Transitions are serialized; each one
// is persisted before subscribers run and before the next transition starts.
type Machine struct {
	// transMu serializes transitions together with their side effects.
	transMu sync.Mutex
	// mu guards state and phase.
	mu    sync.RWMutex
	state State
	phase Phase

	store    storage.KeyValueStore
	log      *zap.Logger
	validate *validator.Validate
	strict   bool

	subMu  sync.Mutex
	subs   map[int]func(State, Phase)
	nextID int
}

// New creates a Machine and hydrates it from store.
func New(store storage.KeyValueStore, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		log:      zap.NewNop(),
		validate: validator.New(),
		subs:     make(map[int]func(State, Phase)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.hydrate()
	return m
}

// State returns a copy of the current session triple.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Token returns the bearer token, or "" when anonymous.
func (m *Machine) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

// BeginLogin marks the start of a login attempt and clears the session.
func (m *Machine) BeginLogin() error {
	return m.transition("begin_login", State{}, Authenticating)
}

// CompleteLogin stores an authenticated session. It fails with
// ErrInvalidPayload, leaving the machine untouched, if any argument is absent.
func (m *Machine) CompleteLogin(user *models.User, token string, role models.Role) error {
	if err := m.validate.Struct(loginPayload{User: user, Token: token, Role: role}); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, describe(err))
	}
	u := *user
	return m.transition("complete_login", State{User: &u, Role: role, Token: token}, Authenticated, Anonymous, Authenticating)
}

// Logout clears the session from any phase.
func (m *Machine) Logout() error {
	return m.transition("logout", State{}, Anonymous)
}

// Subscribe registers fn to run after every transition, once the new state
// has been persisted. fn must not start a transition itself. The returned
// function removes the subscription.
func (m *Machine) Subscribe(fn func(State, Phase)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// transition applies next and persists it. When allowed is non-empty the
// current phase must be one of its entries.
func (m *Machine) transition(name string, next State, phase Phase, allowed ...Phase) error {
	m.transMu.Lock()
	defer m.transMu.Unlock()

	m.mu.Lock()
	from := m.phase
	if len(allowed) > 0 && !slices.Contains(allowed, from) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, name, from)
	}
	m.state = next
	m.phase = phase
	err := m.persist(next)
	m.mu.Unlock()

	m.log.Debug("session transition",
		zap.String("action", name),
		zap.Stringer("from", from),
		zap.Stringer("to", phase),
	)
	if err != nil {
		m.log.Warn("failed to persist session", zap.String("action", name), zap.Error(err))
	}

	m.notify(next, phase)
	return err
}

func (m *Machine) notify(s State, p Phase) {
	m.subMu.Lock()
	fns := make([]func(State, Phase), 0, len(m.subs))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s.clone(), p)
	}
}

// persist writes every non-null field and removes every null one.
func (m *Machine) persist(s State) error {
	var errs []error

	if s.User != nil {
		b, err := json.Marshal(s.User)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode user: %w", err))
		} else if err := m.store.Set(KeyUser, string(b)); err != nil {
			errs = append(errs, fmt.Errorf("store user: %w", err))
		}
	} else if err := m.store.Remove(KeyUser); err != nil {
		errs = append(errs, fmt.Errorf("remove user: %w", err))
	}

	errs = append(errs, m.persistString(KeyToken, s.Token))
	errs = append(errs, m.persistString(KeyRole, string(s.Role)))

	return errors.Join(errs...)
}

func (m *Machine) persistString(key, value string) error {
	if value == "" {
		if err := m.store.Remove(key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		return nil
	}
	if err := m.store.Set(key, value); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// hydrate reads the three keys independently. A corrupt field is logged and
// treated as absent; the others are still used.
func (m *Machine) hydrate() {
	var s State

	if raw, ok := m.store.Get(KeyUser); ok {
		var u *models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil || u == nil {
			m.log.Warn("discarding corrupt persisted field", zap.String("key", KeyUser), zap.Error(err))
		} else {
			s.User = u
		}
	}
	if raw, ok := m.store.Get(KeyToken); ok {
		s.Token = unquote(raw)
	}
	if raw, ok := m.store.Get(KeyRole); ok {
		role := models.Role(unquote(raw))
		if role.Valid() {
			s.Role = role
		} else {
			m.log.Warn("discarding corrupt persisted field", zap.String("key", KeyRole), zap.String("value", raw))
		}
	}

	if !s.IsAnonymous() && !s.IsAuthenticated() && m.strict {
		m.log.Warn("partial session in store, logging out")
		s = State{}
		if err := m.persist(s); err != nil {
			m.log.Warn("failed to clear partial session", zap.Error(err))
		}
	}

	m.state = s
	m.phase = Anonymous
	if s.IsAuthenticated() {
		m.phase = Authenticated
	}
}

// unquote accepts both raw strings and JSON-encoded strings.
func unquote(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
