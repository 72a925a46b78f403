package state

// ActionType tags a reducer action.
type ActionType string

// Reducer action types.
const (
	ActionConnecting         ActionType = "CONNECTING"
	ActionConnected          ActionType = "CONNECTED"
	ActionDisconnected       ActionType = "DISCONNECTED"
	ActionError              ActionType = "ERROR"
	ActionProviderChanged    ActionType = "PROVIDER_CHANGED"
	ActionClearError         ActionType = "CLEAR_ERROR"
	ActionUpdateAuthLevel    ActionType = "UPDATE_AUTH_LEVEL"
	ActionSetPendingAction   ActionType = "SET_PENDING_ACTION"
	ActionClearPendingAction ActionType = "CLEAR_PENDING_ACTION"
)

// PendingAction is a deferred operation blocked on a future
// authentication step. It is cleared explicitly, never implicitly.
type PendingAction struct {
	Name     string            `json:"name"`
	Required AuthLevel         `json:"required"`
	Context  map[string]string `json:"context,omitempty"`
}

// Action is one reducer input. Only the fields relevant to its Type
// are read.
type Action struct {
	Type ActionType

	// Connection payload for ActionConnected / ActionProviderChanged.
	Address  string
	ChainID  string
	Provider string

	// Message for ActionError.
	Message string

	// Level for ActionUpdateAuthLevel.
	Level AuthLevel

	// Pending for ActionSetPendingAction.
	Pending *PendingAction
}

// State is the application-facing wallet state.
type State struct {
	IsConnecting bool           `json:"is_connecting"`
	IsConnected  bool           `json:"is_connected"`
	Address      string         `json:"address,omitempty"`
	ChainID      string         `json:"chain_id,omitempty"`
	Provider     string         `json:"provider,omitempty"`
	Error        string         `json:"error,omitempty"`
	AuthLevel    AuthLevel      `json:"auth_level"`
	Features     []string       `json:"features,omitempty"`
	Pending      *PendingAction `json:"pending,omitempty"`
}

// InitialState is the state before any action.
func InitialState() State {
	return State{AuthLevel: AuthNone}
}

// Reduce is the pure transition function: (state, action) -> state.
// It is total over the action enum; an unknown action type returns
// the state unchanged. AuthLevel and Features always move together.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionConnecting:
		s.IsConnecting = true
		s.Error = ""
		return s

	case ActionConnected:
		s.IsConnecting = false
		s.IsConnected = true
		s.Address = a.Address
		s.ChainID = a.ChainID
		s.Provider = a.Provider
		s.Error = ""
		return withAuthLevel(s, AuthBasic)

	case ActionDisconnected:
		pending := s.Pending
		s = InitialState()
		// A pending action survives disconnection: it is waiting for
		// a stronger authentication, not for this session.
		s.Pending = pending
		return s

	case ActionError:
		s.IsConnecting = false
		s.Error = a.Message
		return s

	case ActionProviderChanged:
		s.Provider = a.Provider
		if a.Address != "" {
			s.Address = a.Address
		}
		if a.ChainID != "" {
			s.ChainID = a.ChainID
		}
		return s

	case ActionClearError:
		s.Error = ""
		return s

	case ActionUpdateAuthLevel:
		return withAuthLevel(s, a.Level)

	case ActionSetPendingAction:
		s.Pending = a.Pending
		return s

	case ActionClearPendingAction:
		s.Pending = nil
		return s

	default:
		return s
	}
}

// withAuthLevel sets the level and recomputes the feature set in one
// step so they never diverge.
func withAuthLevel(s State, level AuthLevel) State {
	s.AuthLevel = level
	s.Features = FeaturesFor(level)
	return s
}
