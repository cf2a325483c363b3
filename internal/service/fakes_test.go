package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"petfeeder/internal/device"
	"petfeeder/internal/models"
	"petfeeder/internal/repository"
)

// memScheduleRepo is an in-memory repository.ScheduleRepo.
type memScheduleRepo struct {
	mu      sync.Mutex
	seq     int
	items   map[string]models.Schedule
	getErr  error
	listErr error
}

func newMemScheduleRepo(seed ...models.Schedule) *memScheduleRepo {
	r := &memScheduleRepo{items: map[string]models.Schedule{}}
	for _, s := range seed {
		r.items[s.ID] = s
	}
	return r
}

func (r *memScheduleRepo) ListActive(_ context.Context, at string) ([]models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Schedule
	for _, s := range r.items {
		if s.IsActive && s.FeedingTime == at {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memScheduleRepo) MarkTriggered(_ context.Context, id string, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.LastTriggered = &when
	r.items[id] = s
	return nil
}

func (r *memScheduleRepo) Create(_ context.Context, s models.Schedule) (models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("sched-%d", r.seq)
	}
	r.items[s.ID] = s
	return s, nil
}

func (r *memScheduleRepo) Get(_ context.Context, id string) (*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memScheduleRepo) ListByUser(_ context.Context, userID int) ([]models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Schedule
	for _, s := range r.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeedingTime < out[j].FeedingTime })
	return out, nil
}

func (r *memScheduleRepo) Update(_ context.Context, s models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[s.ID] = s
	return nil
}

func (r *memScheduleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// memLogRepo is an in-memory repository.FeedingLogRepo.
type memLogRepo struct {
	mu        sync.Mutex
	seq       int
	entries   []models.FeedingLog
	appendErr error
	markErr   error
	lastLimit int
}

func (r *memLogRepo) Append(_ context.Context, l models.FeedingLog) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return "", r.appendErr
	}
	r.seq++
	if l.ID == "" {
		l.ID = fmt.Sprintf("log-%d", r.seq)
	}
	r.entries = append(r.entries, l)
	return l.ID, nil
}

func (r *memLogRepo) MarkFailed(_ context.Context, id, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Status = models.StatusFailed
			r.entries[i].ErrorMessage = msg
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memLogRepo) ListByUser(_ context.Context, userID, limit int) ([]models.FeedingLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	var out []models.FeedingLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

// stubDevice is a DeviceChannel with a fixed outcome.
type stubDevice struct {
	connected bool
	deliver   bool
	sent      []models.Command
}

func (d *stubDevice) Publish(_ context.Context, cmd models.Command) bool {
	d.sent = append(d.sent, cmd)
	return d.connected && d.deliver
}

func (d *stubDevice) Status() device.Snapshot {
	state := device.StateDisconnected
	if d.connected {
		state = device.StateConnected
	}
	return device.Snapshot{Connected: d.connected, State: state, CommandTopic: "petfeeder/servo"}
}
