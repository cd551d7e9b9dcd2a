package attendance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/geo"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// ErrNotTracking is returned when a sample is pushed for a pair with no subscription.
var ErrNotTracking = errors.New("no active attendance subscription")

// sampleBuffer is the number of pending samples kept per subscription.
const sampleBuffer = 8

// TaskStore is the task access the tracker needs.
type TaskStore interface {
	FindByID(ctx context.Context, teamID, taskID string) (*models.Task, error)
	UpdateLiveStatus(ctx context.Context, teamID, taskID string, status models.LiveStatus, autoLeftAt *time.Time) error
}

// PropertyStore is the property access the tracker needs.
type PropertyStore interface {
	FindByID(ctx context.Context, teamID, propertyID string) (*models.Property, error)
}

// Key identifies a subscription: one staff member working one task.
type Key struct {
	TeamID  string
	TaskID  string
	StaffID string
}

type subscription struct {
	samples chan *models.Position
	cancel  context.CancelFunc
	done    chan struct{}
}

// Tracker runs one cancellable subscription per (task, staff) pair. Each
// subscription consumes pushed samples on its own goroutine and ends itself
// as soon as the task is no longer in progress or no longer assigned to the
// staff member. Store failures are logged and suppressed.
type Tracker struct {
	tasks  TaskStore
	props  PropertyStore
	log    *logger.Logger
	now    func() time.Time
	radius float64

	mu     sync.Mutex
	subs   map[Key]*subscription
	closed bool
	wg     sync.WaitGroup
}

// NewTracker creates a tracker. A non-positive radius uses geo.DefaultRadiusMeters.
func NewTracker(tasks TaskStore, props PropertyStore, radiusMeters float64, log *logger.Logger) *Tracker {
	if radiusMeters <= 0 {
		radiusMeters = geo.DefaultRadiusMeters
	}
	return &Tracker{
		tasks:  tasks,
		props:  props,
		log:    log.WithComponent("attendance"),
		now:    time.Now,
		radius: radiusMeters,
		subs:   make(map[Key]*subscription),
	}
}

// Start subscribes the pair. It returns false when the pair is already
// tracked or the tracker is closed.
func (t *Tracker) Start(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	if _, ok := t.subs[key]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		samples: make(chan *models.Position, sampleBuffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	t.subs[key] = sub

	t.wg.Add(1)
	go t.run(ctx, key, sub)

	t.log.Debug("Attendance subscription started", logger.Fields{
		"team_id":  key.TeamID,
		"task_id":  key.TaskID,
		"staff_id": key.StaffID,
	})
	return true
}

// Push hands a sample to the pair's subscription. A nil sample reports that
// geolocation is unavailable. Push never blocks; when the buffer is full the
// sample is dropped.
func (t *Tracker) Push(key Key, sample *models.Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.subs[key]
	if !ok {
		return ErrNotTracking
	}

	select {
	case sub.samples <- sample:
	default:
		t.log.Warn("Attendance sample dropped, subscription busy", logger.Fields{
			"task_id":  key.TaskID,
			"staff_id": key.StaffID,
		})
	}
	return nil
}

// Active reports whether the pair is tracked.
func (t *Tracker) Active(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.subs[key]
	return ok
}

// Count returns the number of live subscriptions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Stop cancels the pair's subscription and waits for it to finish. No
// samples are evaluated for the pair once Stop returns.
func (t *Tracker) Stop(key Key) {
	t.stopWhere(func(k Key) bool { return k == key })
}

// StopTask cancels every subscription of a task.
func (t *Tracker) StopTask(teamID, taskID string) {
	t.stopWhere(func(k Key) bool { return k.TeamID == teamID && k.TaskID == taskID })
}

// StopStaff cancels the subscriptions of the given staff members on a task.
func (t *Tracker) StopStaff(teamID, taskID string, staff models.StaffIDs) {
	if staff.Len() == 0 {
		return
	}
	t.stopWhere(func(k Key) bool {
		return k.TeamID == teamID && k.TaskID == taskID && staff.Contains(k.StaffID)
	})
}

// StopTeam cancels every subscription of a team.
func (t *Tracker) StopTeam(teamID string) {
	t.stopWhere(func(k Key) bool { return k.TeamID == teamID })
}

// Close cancels all subscriptions and rejects new ones.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.stopWhere(func(Key) bool { return true })
	t.wg.Wait()
}

func (t *Tracker) stopWhere(match func(Key) bool) {
	t.mu.Lock()
	var stopped []*subscription
	for key, sub := range t.subs {
		if match(key) {
			delete(t.subs, key)
			stopped = append(stopped, sub)
		}
	}
	t.mu.Unlock()

	for _, sub := range stopped {
		sub.cancel()
		<-sub.done
	}
}

// release removes sub when it is still the registered subscription for key.
func (t *Tracker) release(key Key, sub *subscription) {
	t.mu.Lock()
	if t.subs[key] == sub {
		delete(t.subs, key)
	}
	t.mu.Unlock()
	sub.cancel()
}

// run checks the task once before consuming samples, so a subscription
// started after the task was completed or reassigned ends without waiting
// for a sample that may never arrive.
func (t *Tracker) run(ctx context.Context, key Key, sub *subscription) {
	defer t.wg.Done()
	defer close(sub.done)

	end := func() {
		t.release(key, sub)
		t.log.Debug("Attendance subscription ended", logger.Fields{
			"task_id":  key.TaskID,
			"staff_id": key.StaffID,
		})
	}

	if _, keep := t.current(ctx, key); !keep {
		end()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-sub.samples:
			if ctx.Err() != nil {
				return
			}
			if !t.handle(ctx, key, sample) {
				end()
				return
			}
		}
	}
}

func keyFields(key Key) logger.Fields {
	return logger.Fields{
		"team_id":  key.TeamID,
		"task_id":  key.TaskID,
		"staff_id": key.StaffID,
	}
}

// current loads the task and reports whether the subscription stays alive.
// The task is nil when it could not be read; a failed read keeps the
// subscription.
func (t *Tracker) current(ctx context.Context, key Key) (*models.Task, bool) {
	task, err := t.tasks.FindByID(ctx, key.TeamID, key.TaskID)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Error("Failed to load task for attendance", err, keyFields(key))
		}
		return nil, true
	}
	if task == nil || task.Status != models.StatusInProgress || !task.AssignedTo.Contains(key.StaffID) {
		return nil, false
	}
	return task, true
}

// handle evaluates one sample and reports whether the subscription stays alive.
func (t *Tracker) handle(ctx context.Context, key Key, sample *models.Position) bool {
	task, keep := t.current(ctx, key)
	if task == nil || task.PropertyID == "" {
		return keep
	}
	fields := keyFields(key)

	site, err := t.props.FindByID(ctx, key.TeamID, task.PropertyID)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Error("Failed to load property for attendance", err, fields)
		}
		return true
	}

	decision := Evaluate(task, site, sample, t.now(), t.radius)
	if !decision.NeedsWrite() || ctx.Err() != nil {
		return true
	}

	if err := t.tasks.UpdateLiveStatus(ctx, key.TeamID, key.TaskID, decision.Status, decision.AutoLeftAt); err != nil {
		if ctx.Err() == nil {
			t.log.Error("Failed to update live status", err, fields)
		}
		return true
	}

	fields["live_status"] = decision.Status
	fields["auto_left"] = decision.AutoLeftAt != nil
	t.log.Info("Live status updated", fields)
	return true
}
