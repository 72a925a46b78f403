package state

import (
	"context"
	"sync"
	"time"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/provider"
	"github.com/havenhq/haven/internal/storage"
)

// Durable keys remembering the last successful connection. They live
// outside the API-key namespace so key management never touches them.
const (
	lastProviderKey    = "last_connected_provider"
	lastConnectedAtKey = "last_connected_at"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	// AutoConnect enables silent reconnection to the last
	// successfully connected provider.
	AutoConnect bool

	// Logger receives store diagnostics. Nil discards them.
	Logger *config.Logger
}

// Store owns the wallet state. All mutations flow through dispatched
// actions; reads take a snapshot. Failures inside action handlers
// become error transitions, never panics or silent state corruption.
type Store struct {
	manager *provider.Manager
	backend storage.Backend
	opts    StoreOptions
	logger  *config.Logger

	mu    sync.Mutex
	state State

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int

	// Guarded by mu: Connect, Disconnect, and Close may swap these
	// from different goroutines.
	unsubscribeManager  func()
	unsubscribeNotifier func()
}

// NewStore creates a store bound to the manager's event stream. The
// backend persists the last-connected provider across runs, so it must
// outlive the process; session-scoped backends lose the hint on every
// restart.
func NewStore(manager *provider.Manager, backend storage.Backend, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = config.NullLogger()
	}

	s := &Store{
		manager: manager,
		backend: backend,
		opts:    opts,
		logger:  logger,
		state:   InitialState(),
		subs:    make(map[int]func(State)),
	}

	s.unsubscribeManager = manager.AddListener(func(event provider.Event) {
		switch event.Type {
		case provider.EventProviderChange:
			s.Dispatch(Action{Type: ActionProviderChanged, Provider: event.Provider})
		case provider.EventConnectionChange:
			s.Refresh(context.Background())
		}
	})

	return s
}

// Dispatch applies an action and notifies subscribers with the new
// state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	s.mu.Unlock()

	s.notify(next)
}

// State returns the current state snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for state change notifications and returns
// its unsubscribe function.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Connect connects through the manager and reflects the outcome into
// state. The error is both returned and recorded as an error
// transition, so UI layers reading only state stay correct.
func (s *Store) Connect(ctx context.Context, name string) error {
	s.Dispatch(Action{Type: ActionConnecting})

	accounts, err := s.manager.Connect(ctx, name)
	if err != nil {
		s.Dispatch(Action{Type: ActionError, Message: err.Error()})
		return err
	}

	address := ""
	if len(accounts) > 0 {
		address = accounts[0]
	}

	active := s.manager.ActiveProvider()
	providerName := ""
	if active != nil {
		providerName = active.Name
	}

	chainID := ""
	if active != nil {
		if reader, ok := active.Provider().(provider.ChainReader); ok {
			if id, chainErr := reader.ChainID(ctx); chainErr == nil {
				chainID = id
			}
		}
	}

	s.Dispatch(Action{
		Type:     ActionConnected,
		Address:  address,
		ChainID:  chainID,
		Provider: providerName,
	})

	s.persistConnection(providerName)
	s.watchProvider(ctx)
	return nil
}

// Disconnect clears the connection state and the persisted
// reconnection hint.
func (s *Store) Disconnect() {
	s.detachNotifier()

	s.Dispatch(Action{Type: ActionDisconnected})

	if s.backend != nil {
		_ = s.backend.RemoveItem(lastProviderKey)
		_ = s.backend.RemoveItem(lastConnectedAtKey)
	}
}

// AutoConnect silently reconnects to the persisted provider when
// enabled. Failures are logged and swallowed: an autoconnect problem
// must never surface as a user-facing error.
func (s *Store) AutoConnect(ctx context.Context) {
	if !s.opts.AutoConnect || s.backend == nil {
		return
	}

	name, err := s.backend.GetItem(lastProviderKey)
	if err != nil || name == "" {
		return
	}

	if err := s.Connect(ctx, name); err != nil {
		s.logger.Debug("state: autoconnect to %q failed: %v", name, err)
		// Connect recorded an error transition; autoconnect failures
		// are not user-facing, so clear it.
		s.Dispatch(Action{Type: ActionClearError})
	}
}

// Refresh recomputes connection state from the manager and reconciles
// the store with it.
func (s *Store) Refresh(ctx context.Context) {
	conn := s.manager.ConnectionState(ctx)

	if !conn.IsConnected {
		if s.State().IsConnected {
			s.Dispatch(Action{Type: ActionDisconnected})
		}
		return
	}

	s.Dispatch(Action{
		Type:     ActionConnected,
		Address:  conn.Address,
		ChainID:  conn.ChainID,
		Provider: conn.ActiveProvider,
	})
}

// persistConnection records the provider name and timestamp for
// autoconnect. Best effort.
func (s *Store) persistConnection(name string) {
	if s.backend == nil || name == "" {
		return
	}
	if err := s.backend.SetItem(lastProviderKey, name); err != nil {
		s.logger.Debug("state: persisting provider name: %v", err)
		return
	}
	_ = s.backend.SetItem(lastConnectedAtKey, time.Now().UTC().Format(time.RFC3339))
}

// watchProvider subscribes to the active provider's native change
// notifications when it offers them, re-querying state on each.
func (s *Store) watchProvider(ctx context.Context) {
	s.detachNotifier()

	active := s.manager.ActiveProvider()
	if active == nil {
		return
	}
	notifier, ok := active.Provider().(provider.Notifier)
	if !ok {
		return
	}

	unsub := notifier.Subscribe(func(provider.ChangeEvent) {
		s.Refresh(ctx)
	})

	s.mu.Lock()
	s.unsubscribeNotifier = unsub
	s.mu.Unlock()
}

// detachNotifier drops the provider notification subscription. The
// unsubscribe call runs outside the lock so it cannot deadlock against
// a notification dispatching into the store.
func (s *Store) detachNotifier() {
	s.mu.Lock()
	unsub := s.unsubscribeNotifier
	s.unsubscribeNotifier = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// UpdateAuthLevel sets the auth level, recomputing features with it.
func (s *Store) UpdateAuthLevel(level AuthLevel) {
	s.Dispatch(Action{Type: ActionUpdateAuthLevel, Level: level})
}

// SetPendingAction records a deferred operation awaiting a stronger
// auth level.
func (s *Store) SetPendingAction(pending PendingAction) {
	s.Dispatch(Action{Type: ActionSetPendingAction, Pending: &pending})
}

// ClearPendingAction discards the deferred operation.
func (s *Store) ClearPendingAction() {
	s.Dispatch(Action{Type: ActionClearPendingAction})
}

// ClearError discards the recorded error message.
func (s *Store) ClearError() {
	s.Dispatch(Action{Type: ActionClearError})
}

// CanAccess reports whether the current auth level satisfies
// required.
func (s *Store) CanAccess(required AuthLevel) bool {
	return CanAccessFeature(s.State().AuthLevel, required)
}

// Close detaches the store from the manager's event stream.
func (s *Store) Close() {
	s.detachNotifier()

	s.mu.Lock()
	unsub := s.unsubscribeManager
	s.unsubscribeManager = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
