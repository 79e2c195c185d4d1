// Package readmodel maintains the live, locally ordered appointment view
// that dashboards consume. It is push-driven off the store's change feed and
// falls back to the last persisted snapshot while the store is unreachable.
package readmodel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/cache"
	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/repository"
)

const (
	changeChannel    = "appointments_changed"
	listenerMinDelay = time.Second
	listenerMaxDelay = time.Minute
	pingInterval     = 90 * time.Second
	dateLayout       = "2006-01-02"
)

// Update is one synchronized result set pushed to a subscriber. The set is
// already sorted ascending by date+time.
type Update struct {
	Appointments []*models.Appointment `json:"appointments"`
	Online       bool                  `json:"online"`
	LastSync     time.Time             `json:"last_sync"`
}

// Counts are the summary statistics derived from the unfiltered set.
type Counts struct {
	Today    int `json:"today"`
	Upcoming int `json:"upcoming"`
	Total    int `json:"total"`
}

// Subscription is one dashboard's feed of updates. Close releases it; every
// subscription must be closed when the dashboard disconnects or changes
// scope.
type Subscription struct {
	C     chan Update
	scope models.AppointmentScope
	rm    *ReadModel
	once  sync.Once
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.rm.unsubscribe(s)
	})
}

// ReadModel synchronizes scope-keyed appointment sets from the store and
// fans them out to subscribers.
type ReadModel struct {
	repo      repository.AppointmentRepository
	snapshots *cache.SnapshotStore
	collector *metrics.Collector
	dsn       string
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sets     map[models.AppointmentScope][]*models.Appointment
	online   bool
	lastSync time.Time
	subs     map[models.AppointmentScope]map[*Subscription]struct{}
}

// New creates a ReadModel. Call Run to start synchronizing.
func New(repo repository.AppointmentRepository, snapshots *cache.SnapshotStore, collector *metrics.Collector, dsn string, log zerolog.Logger) *ReadModel {
	return &ReadModel{
		repo:      repo,
		snapshots: snapshots,
		collector: collector,
		dsn:       dsn,
		log:       log.With().Str("component", "readmodel").Logger(),
		now:       time.Now,
		sets:      make(map[models.AppointmentScope][]*models.Appointment),
		subs:      make(map[models.AppointmentScope]map[*Subscription]struct{}),
	}
}

// Run owns the store's change feed: it listens on the appointments channel
// and refreshes every scope whenever anything changes. Blocks until the
// context is cancelled.
func (rm *ReadModel) Run(ctx context.Context) {
	listener := pq.NewListener(rm.dsn, listenerMinDelay, listenerMaxDelay,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				rm.log.Warn().Err(err).Int("event", int(ev)).Msg("Store listener event")
			}
		})
	defer listener.Close()

	if err := listener.Listen(changeChannel); err != nil {
		rm.log.Error().Err(err).Msg("Failed to listen on change channel")
	}

	rm.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			rm.log.Info().Msg("Read model stopped")
			return
		case n := <-listener.Notify:
			// A nil notification means the listener reconnected after a
			// dropped connection; the feed may have gaps either way, so
			// requery everything.
			if n == nil {
				rm.log.Warn().Msg("Store listener reconnected, resynchronizing")
			}
			rm.Refresh(ctx)
		case <-time.After(pingInterval):
			if err := listener.Ping(); err != nil {
				rm.log.Warn().Err(err).Msg("Store listener ping failed")
				rm.Refresh(ctx)
			}
		}
	}
}

// Refresh requeries every scope from the store. On success the working sets
// are replaced, persisted to the snapshot cache and broadcast; on failure
// the model flips offline and keeps serving the last good sets (loading
// them from the snapshot cache when memory is empty, e.g. right after a
// restart into an outage).
func (rm *ReadModel) Refresh(ctx context.Context) {
	today := rm.now().Format(dateLayout)

	fresh := make(map[models.AppointmentScope][]*models.Appointment, 3)
	for _, scope := range []models.AppointmentScope{models.ScopeAll, models.ScopeToday, models.ScopeUpcoming} {
		appointments, err := rm.query(ctx, scope, today)
		if err != nil {
			rm.goOffline(err)
			return
		}
		sortByDueTime(appointments)
		fresh[scope] = appointments
	}

	rm.mu.Lock()
	rm.sets = fresh
	wasOffline := !rm.online
	rm.online = true
	rm.lastSync = rm.now()
	rm.mu.Unlock()

	rm.collector.RecordReadModelSync()
	rm.collector.SetReadModelOffline(false)
	if wasOffline {
		rm.log.Info().Msg("Store connectivity restored, live view resumed")
	}

	for scope, appointments := range fresh {
		if err := rm.snapshots.Save(scope, appointments); err != nil {
			rm.log.Warn().Err(err).Str("scope", string(scope)).Msg("Failed to persist snapshot")
		}
	}

	rm.broadcast()
}

func (rm *ReadModel) query(ctx context.Context, scope models.AppointmentScope, today string) ([]*models.Appointment, error) {
	switch scope {
	case models.ScopeToday:
		return rm.repo.ListByDate(ctx, today)
	case models.ScopeUpcoming:
		return rm.repo.ListFromDate(ctx, today)
	default:
		return rm.repo.ListAll(ctx)
	}
}

// goOffline keeps the current sets untouched and marks the view offline.
// The cached snapshot is promoted into memory only when there is nothing
// in memory yet.
func (rm *ReadModel) goOffline(cause error) {
	rm.mu.Lock()
	if rm.online || len(rm.sets) == 0 {
		rm.log.Warn().Err(cause).Msg("Store unreachable, serving cached snapshot")
	}
	rm.online = false
	if len(rm.sets) == 0 {
		restored := make(map[models.AppointmentScope][]*models.Appointment)
		for _, scope := range []models.AppointmentScope{models.ScopeAll, models.ScopeToday, models.ScopeUpcoming} {
			snap, err := rm.snapshots.Load(scope)
			if err != nil {
				rm.log.Warn().Err(err).Str("scope", string(scope)).Msg("Failed to load snapshot")
				continue
			}
			if snap != nil {
				restored[scope] = snap.Appointments
				rm.lastSync = snap.LastSync
			}
		}
		if len(restored) > 0 {
			rm.sets = restored
		}
	}
	rm.mu.Unlock()

	rm.collector.SetReadModelOffline(true)
	rm.broadcast()
}

// Subscribe registers a dashboard feed for one scope. The current set is
// delivered immediately; later updates arrive as the store changes. The
// caller must Close the subscription.
func (rm *ReadModel) Subscribe(scope models.AppointmentScope) *Subscription {
	sub := &Subscription{
		C:     make(chan Update, 1),
		scope: scope,
		rm:    rm,
	}

	rm.mu.Lock()
	if rm.subs[scope] == nil {
		rm.subs[scope] = make(map[*Subscription]struct{})
	}
	rm.subs[scope][sub] = struct{}{}
	// The initial delivery happens under the lock: the channel is fresh and
	// broadcast also holds rm.mu, so the one-slot buffer cannot be filled by
	// anyone else and this send never blocks.
	sub.C <- rm.updateLocked(scope)
	rm.mu.Unlock()

	return sub
}

func (rm *ReadModel) unsubscribe(sub *Subscription) {
	rm.mu.Lock()
	delete(rm.subs[sub.scope], sub)
	rm.mu.Unlock()
	close(sub.C)
}

// Current returns the working set for a scope plus the online flag.
func (rm *ReadModel) Current(scope models.AppointmentScope) ([]*models.Appointment, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.sets[scope], rm.online
}

// CurrentCounts derives the summary statistics from the unfiltered set for
// a scope. They stay stable while a user is searching because secondary
// filters never touch the synchronized data.
func (rm *ReadModel) CurrentCounts(scope models.AppointmentScope) Counts {
	rm.mu.RLock()
	appointments := rm.sets[scope]
	rm.mu.RUnlock()

	return CountAppointments(appointments, rm.now().Format(dateLayout))
}

// CountAppointments computes today/upcoming/total for a set.
func CountAppointments(appointments []*models.Appointment, today string) Counts {
	c := Counts{Total: len(appointments)}
	for _, a := range appointments {
		if a.Date == today {
			c.Today++
		}
		if a.Date >= today {
			c.Upcoming++
		}
	}
	return c
}

// updateLocked builds the Update for a scope. Callers hold rm.mu.
func (rm *ReadModel) updateLocked(scope models.AppointmentScope) Update {
	return Update{
		Appointments: rm.sets[scope],
		Online:       rm.online,
		LastSync:     rm.lastSync,
	}
}

// broadcast pushes the current set of every scope to its subscribers.
// Latest-wins: a slow consumer's stale pending update is replaced rather
// than blocking the synchronizer.
func (rm *ReadModel) broadcast() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for scope, subs := range rm.subs {
		update := rm.updateLocked(scope)
		for sub := range subs {
			select {
			case sub.C <- update:
			default:
				select {
				case <-sub.C:
				default:
				}
				select {
				case sub.C <- update:
				default:
				}
			}
		}
	}
}

func sortByDueTime(appointments []*models.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].SortKey() < appointments[j].SortKey()
	})
}
