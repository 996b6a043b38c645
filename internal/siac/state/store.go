package state

import (
	"sync"

	"go.uber.org/zap"
)

// Store holds the current AppState and funnels every change through
// Reduce. Subscribers are invoked synchronously, in registration order,
// with the state after the event.
type Store struct {
	logger *zap.Logger

	mu          sync.Mutex
	state       AppState
	subscribers []func(AppState)
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger: logger.Named("state"),
		state:  Initial(),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to run after every dispatch. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(AppState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
	idx := len(s.subscribers) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers[idx] = nil
	}
}

// Dispatch applies the event and notifies subscribers. It returns the
// resulting state so callers can read derived values (most importantly
// the load generation) without a second lock round-trip.
func (s *Store) Dispatch(event Event) AppState {
	s.mu.Lock()
	s.state = Reduce(s.state, event)
	next := s.state
	subs := make([]func(AppState), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	s.logger.Debug("dispatched event", zap.String("type", eventName(event)))
	for _, fn := range subs {
		if fn != nil {
			fn(next)
		}
	}
	return next
}

func eventName(event Event) string {
	switch event.(type) {
	case NavigatedToBusiness:
		return "navigated_to_business"
	case NavigatedToLauncher:
		return "navigated_to_launcher"
	case NavigatedToUserManagement:
		return "navigated_to_user_management"
	case CompaniesLoaded:
		return "companies_loaded"
	case ModulesLoaded:
		return "modules_loaded"
	case UsersLoaded:
		return "users_loaded"
	case BranchesLoaded:
		return "branches_loaded"
	case ProductsLoaded:
		return "products_loaded"
	case StockLoaded:
		return "stock_loaded"
	case CatalogConfigLoaded:
		return "catalog_config_loaded"
	case SubmitStarted:
		return "submit_started"
	case SubmitFailed:
		return "submit_failed"
	case UploadStarted:
		return "upload_started"
	case UploadFinished:
		return "upload_finished"
	case UploadFailed:
		return "upload_failed"
	default:
		return "state_changed"
	}
}
