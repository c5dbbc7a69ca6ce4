package subscription

import (
	"sync"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/models"
)

// Snapshot is the last server answer for the account's subscriptions and payments, plus
// the request state around it. It is replaced as a whole, never merged.
type Snapshot struct {
	ActiveSubscription *models.Subscription  `json:"activeSubscription"`
	Subscriptions      []models.Subscription `json:"subscriptions"`
	Payments           []models.Payment      `json:"payments"`
	Loaded             bool                  `json:"loaded"`
	Loading            bool                  `json:"loading"`
	Error              string                `json:"error,omitempty"`
	Version            uint64                `json:"version"`
	LoadedAt           time.Time             `json:"loadedAt,omitempty"`
}

// Store holds the snapshot for one session. Versions are issued per request; an answer
// is applied only when its version is newer than the one already applied.
type Store struct {
	mu       sync.RWMutex
	snap     Snapshot
	issued   uint64
	inflight int
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Snapshot returns a copy that callers may keep.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	if s.snap.ActiveSubscription != nil {
		active := *s.snap.ActiveSubscription
		snap.ActiveSubscription = &active
	}
	snap.Subscriptions = append([]models.Subscription(nil), s.snap.Subscriptions...)
	snap.Payments = append([]models.Payment(nil), s.snap.Payments...)
	return snap
}

// Active returns the active subscription, if the last load had one.
func (s *Store) Active() (models.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap.ActiveSubscription == nil {
		return models.Subscription{}, false
	}
	return *s.snap.ActiveSubscription, true
}

// Payment finds a payment of the last load by id.
func (s *Store) Payment(id string) (models.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, payment := range s.snap.Payments {
		if payment.ID == id {
			return payment, true
		}
	}
	return models.Payment{}, false
}

// begin issues the version for a new load.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	s.inflight++
	s.snap.Loading = true
	return s.issued
}

func (s *Store) finish() {
	s.inflight--
	s.snap.Loading = s.inflight > 0
}

// apply replaces the snapshot with data loaded under version. It reports false when a
// newer answer has already been applied, in which case data is dropped.
func (s *Store) apply(version uint64, data models.AccountPayments) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.finish()

	if version <= s.snap.Version {
		return false
	}

	s.snap.ActiveSubscription = data.ActiveSubscription
	s.snap.Subscriptions = data.Subscriptions
	s.snap.Payments = data.Payments
	s.snap.Loaded = true
	s.snap.Error = ""
	s.snap.Version = version
	s.snap.LoadedAt = s.now()
	return true
}

// fail records a failed load. A stale failure does not overwrite a newer success.
func (s *Store) fail(version uint64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.finish()

	if version <= s.snap.Version {
		return
	}
	s.snap.Error = message
}

func (s *Store) setError(message string) {
	s.mu.Lock()
	s.snap.Error = message
	s.mu.Unlock()
}

// reset drops everything, e.g. after a forced logout.
func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.snap.Version
	s.snap = Snapshot{Version: version}
}
