package provider

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/metrics"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// Default detection timings.
const (
	DefaultDetectWait   = 3 * time.Second
	DefaultProbeStep    = 100 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

// Event types emitted to listeners.
const (
	EventProviderChange   = "provider-change"
	EventConnectionChange = "connection-change"
)

// Event notifies listeners of a registry or connection change.
type Event struct {
	Type     string
	Provider string
}

// ConnectionState is the externally visible snapshot, computed on
// demand rather than cached.
type ConnectionState struct {
	IsAvailable        bool
	IsConnected        bool
	ActiveProvider     string
	Address            string
	ChainID            string
	AvailableProviders []Record
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// DetectWait bounds the Initialize wait for a first source.
	DetectWait time.Duration

	// ProbeStep is the re-check interval during the Initialize wait.
	ProbeStep time.Duration

	// PollInterval drives the periodic re-detection loop. Zero
	// disables the loop; Initialize then runs a single pass only.
	PollInterval time.Duration

	// Logger receives arbitration diagnostics. Nil discards them.
	Logger *config.Logger
}

// Manager detects available providers, keeps a priority-ordered
// registry, designates one active provider, and falls back across the
// rest when requests fail.
type Manager struct {
	opts   ManagerOptions
	logger *config.Logger

	mu       sync.RWMutex
	sources  []Source
	registry []Record
	active   *Record
	pinned   string

	listenerMu sync.Mutex
	listeners  map[int]func(Event)
	nextID     int

	stopOnce    sync.Once
	stop        chan struct{}
	done        chan struct{}
	loopStarted bool
}

// NewManager creates a manager with no registered sources.
func NewManager(opts ManagerOptions) *Manager {
	if opts.DetectWait <= 0 {
		opts.DetectWait = DefaultDetectWait
	}
	if opts.ProbeStep <= 0 {
		opts.ProbeStep = DefaultProbeStep
	}
	logger := opts.Logger
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Manager{
		opts:      opts,
		logger:    logger,
		listeners: make(map[int]func(Event)),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Register adds a source. Registration order is the probe order within
// a detection pass; it does not affect registry ordering, which is by
// priority alone.
func (m *Manager) Register(source Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

// Initialize waits, bounded by DetectWait, for any source to probe
// successfully, then runs one detection pass and starts the periodic
// re-detection loop. An empty registry at the deadline is not an
// error: initialization completes and detection keeps polling.
func (m *Manager) Initialize(ctx context.Context) error {
	deadline := time.Now().Add(m.opts.DetectWait)
	for !m.anySourceAvailable(ctx) {
		if time.Now().After(deadline) {
			m.logger.Debug("provider: no source appeared within %s", m.opts.DetectWait)
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.opts.ProbeStep):
		}
	}

	m.DetectProviders(ctx)

	if m.opts.PollInterval > 0 {
		m.mu.Lock()
		m.loopStarted = true
		m.mu.Unlock()
		go m.pollLoop()
	}
	return nil
}

// anySourceAvailable reports whether at least one source currently
// probes successfully.
func (m *Manager) anySourceAvailable(ctx context.Context) bool {
	m.mu.RLock()
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mu.RUnlock()

	for _, source := range sources {
		if _, err := source.Probe(ctx); err == nil {
			return true
		}
	}
	return false
}

// pollLoop re-runs detection until Close.
func (m *Manager) pollLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.DetectProviders(context.Background())
		}
	}
}

// DetectProviders probes every source and replaces the registry with
// the result, sorted by descending priority with the preferred flag
// breaking ties. The active provider becomes the top entry unless a
// pin is in effect and the pinned name is still present. Detection is
// best-effort and never returns an error.
func (m *Manager) DetectProviders(ctx context.Context) {
	m.mu.RLock()
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mu.RUnlock()

	records := make([]Record, 0, len(sources))
	for _, source := range sources {
		info := source.Describe()
		p, err := source.Probe(ctx)
		if err != nil {
			m.logger.Debug("provider: source %q unavailable: %v", info.Name, err)
			continue
		}
		records = append(records, Record{
			Name:      info.Name,
			Priority:  info.Priority,
			Preferred: info.Preferred,
			provider:  p,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority > records[j].Priority
		}
		return records[i].Preferred && !records[j].Preferred
	})

	metrics.Global.RecordDetectionPass()

	m.mu.Lock()
	previous := ""
	if m.active != nil {
		previous = m.active.Name
	}

	m.registry = records
	m.active = m.selectActiveLocked()

	current := ""
	if m.active != nil {
		current = m.active.Name
	}
	m.mu.Unlock()

	if current != previous {
		m.emit(Event{Type: EventProviderChange, Provider: current})
	}
}

// selectActiveLocked picks the active record from the registry. Caller
// holds mu.
func (m *Manager) selectActiveLocked() *Record {
	if m.pinned != "" {
		for i := range m.registry {
			if m.registry[i].Name == m.pinned {
				return &m.registry[i]
			}
		}
		// The pinned provider disappeared; fall back to priority order.
		m.pinned = ""
	}
	if len(m.registry) == 0 {
		return nil
	}
	return &m.registry[0]
}

// lookup returns the registered record with the given name.
func (m *Manager) lookup(name string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.registry {
		if m.registry[i].Name == name {
			return &m.registry[i], true
		}
	}
	return nil, false
}

// Connect pins the named provider (when given) as active and issues an
// account request through it. An unknown name leaves the active
// provider unchanged. Errors are classified for logging only and
// always returned to the caller.
func (m *Manager) Connect(ctx context.Context, name string) ([]string, error) {
	if name != "" {
		record, ok := m.lookup(name)
		if !ok {
			return nil, m.unknownProviderError(name)
		}
		m.mu.Lock()
		m.pinned = name
		m.active = record
		m.mu.Unlock()
	}

	active := m.ActiveProvider()
	if active == nil {
		return nil, havenerr.WithSuggestion(ErrNoProvider,
			"check that a wallet endpoint is configured and reachable")
	}

	accounts, err := requestAccounts(ctx, active.Provider())
	if err != nil {
		switch classify(err) {
		case classUserRejected:
			m.logger.Debug("provider: connection declined by user on %q", active.Name)
		case classUnavailable:
			m.logger.Error("provider: %q unavailable during connect: %v", active.Name, err)
		default:
			m.logger.Error("provider: connect via %q failed: %v", active.Name, err)
		}
		return nil, err
	}

	m.emit(Event{Type: EventConnectionChange, Provider: active.Name})
	return accounts, nil
}

// requestAccounts asks a provider for its accounts, preferring the
// AccountReader capability over a raw request.
func requestAccounts(ctx context.Context, p Provider) ([]string, error) {
	if reader, ok := p.(AccountReader); ok {
		return reader.Accounts(ctx)
	}

	raw, err := p.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, havenerr.Wrap(err, "malformed accounts response")
	}
	return accounts, nil
}

// Request issues an operation call through the active provider. A
// user rejection is terminal and returned immediately. Any other
// failure tries every remaining registered provider once, in priority
// order and strictly sequentially; the first to succeed becomes the
// new active provider and its result is returned. If all fail, the
// original error is returned.
func (m *Manager) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	m.mu.RLock()
	active := m.active
	registry := make([]Record, len(m.registry))
	copy(registry, m.registry)
	m.mu.RUnlock()

	if active == nil {
		return nil, havenerr.WithSuggestion(ErrNoProvider,
			"check that a wallet endpoint is configured and reachable")
	}

	start := time.Now()
	result, origErr := active.Provider().Request(ctx, method, params...)
	metrics.Global.RecordRequest(time.Since(start), origErr)
	if origErr == nil {
		return result, nil
	}
	if classify(origErr) == classUserRejected {
		m.logger.Debug("provider: %q rejected by user, not retrying", method)
		return nil, origErr
	}

	m.logger.Debug("provider: %q failed on %q, trying fallbacks: %v", method, active.Name, origErr)

	for i := range registry {
		record := registry[i]
		if record.Name == active.Name {
			continue
		}

		result, err := record.Provider().Request(ctx, method, params...)
		metrics.Global.RecordFallback(err == nil)
		if err != nil {
			m.logger.Debug("provider: fallback %q failed: %v", record.Name, err)
			continue
		}

		m.mu.Lock()
		m.pinned = record.Name
		m.active = &registry[i]
		m.mu.Unlock()

		m.logger.Debug("provider: %q succeeded via fallback %q", method, record.Name)
		m.emit(Event{Type: EventProviderChange, Provider: record.Name})
		return result, nil
	}

	return nil, origErr
}

// SwitchProvider pins the named provider as active. The name must be
// registered.
func (m *Manager) SwitchProvider(name string) error {
	record, ok := m.lookup(name)
	if !ok {
		return m.unknownProviderError(name)
	}

	m.mu.Lock()
	m.pinned = name
	m.active = record
	m.mu.Unlock()

	m.emit(Event{Type: EventProviderChange, Provider: name})
	return nil
}

// AddListener subscribes fn to manager events and returns its
// unsubscribe function. A listener that panics is logged and does not
// prevent other listeners from running.
func (m *Manager) AddListener(fn func(Event)) (unsubscribe func()) {
	m.listenerMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

// emit fans an event out to all listeners.
func (m *Manager) emit(event Event) {
	m.listenerMu.Lock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenerMu.Unlock()

	for _, fn := range fns {
		m.safeNotify(fn, event)
	}
}

// safeNotify isolates one listener invocation.
func (m *Manager) safeNotify(fn func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("provider: event listener panicked: %v", r)
		}
	}()
	fn(event)
}

// ConnectionState computes the externally visible snapshot by querying
// the active provider. Any query failure degrades the result to "not
// connected" rather than returning an error.
func (m *Manager) ConnectionState(ctx context.Context) ConnectionState {
	m.mu.RLock()
	active := m.active
	registry := make([]Record, len(m.registry))
	copy(registry, m.registry)
	m.mu.RUnlock()

	state := ConnectionState{
		IsAvailable:        len(registry) > 0,
		AvailableProviders: registry,
	}
	if active == nil {
		return state
	}
	state.ActiveProvider = active.Name

	accounts, err := readAccounts(ctx, active.Provider())
	if err != nil || len(accounts) == 0 {
		return state
	}
	state.IsConnected = true
	state.Address = accounts[0]

	if reader, ok := active.Provider().(ChainReader); ok {
		if chainID, err := reader.ChainID(ctx); err == nil {
			state.ChainID = chainID
		}
	}
	return state
}

// readAccounts queries accounts without triggering a connection
// prompt: it uses the passive eth_accounts call, not a request.
func readAccounts(ctx context.Context, p Provider) ([]string, error) {
	if reader, ok := p.(AccountReader); ok {
		return reader.Accounts(ctx)
	}

	raw, err := p.Request(ctx, "eth_accounts")
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// AvailableProviders returns the current registry snapshot, ordered by
// descending priority.
func (m *Manager) AvailableProviders() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.registry))
	copy(out, m.registry)
	return out
}

// ActiveProvider returns the current active record, or nil.
func (m *Manager) ActiveProvider() *Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	record := *m.active
	return &record
}

// unknownProviderError builds the error for an unregistered name,
// with a closest-match suggestion when one is near enough.
func (m *Manager) unknownProviderError(name string) error {
	err := havenerr.WithDetails(ErrUnknownProvider, map[string]string{
		"provider": name,
	})
	if suggestion := m.suggestName(name); suggestion != "" {
		err = havenerr.WithSuggestion(err, "did you mean \""+suggestion+"\"?")
	}
	return err
}

// Close stops the detection loop and releases provider resources.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.RLock()
	started := m.loopStarted
	m.mu.RUnlock()
	if started {
		<-m.done
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.registry {
		if closer, ok := m.registry[i].provider.(Closer); ok {
			_ = closer.Close()
		}
	}
	m.registry = nil
	m.active = nil
	return nil
}
