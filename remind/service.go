package remind

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
	"github.com/teranos/smolassistant/remind/interval"
	"github.com/teranos/smolassistant/remind/schedule"
)

// DeliveryFunc receives the text of a fired reminder.
// It runs on the scheduler goroutine for scheduled jobs and on the caller's
// goroutine for reminders that are already due when created.
type DeliveryFunc func(text string)

// State of the service lifecycle
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Config controls the scheduler loop
type Config struct {
	TickInterval time.Duration  // How often due jobs are checked (default: 1 second)
	StopTimeout  time.Duration  // Upper bound on Stop waiting for the loop
	Location     *time.Location // Zone for the system clock and naive due times
	Clock        Clock          // Overrides the system clock, for tests
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		TickInterval: 1 * time.Second,
		StopTimeout:  5 * time.Second,
		Location:     time.Local,
	}
}

// Created describes a newly accepted reminder
type Created struct {
	ID         string
	NextFireAt time.Time
	Immediate  bool // already due, delivered at once and never stored
}

// Cancelled describes the outcome of Cancel
type Cancelled struct {
	Found    bool
	Kind     schedule.Kind
	Message  string
	Interval string
	TimeSpec string
}

// Pattern renders a cancelled recurring reminder's recurrence
func (c Cancelled) Pattern() string {
	return schedule.Job{Kind: c.Kind, Interval: c.Interval, TimeSpec: c.TimeSpec}.Pattern()
}

// Pending is a snapshot of scheduled reminders, each list ordered by next fire time
type Pending struct {
	OneTime   []schedule.Job
	Recurring []schedule.Job
}

// Len returns the total number of pending reminders
func (p Pending) Len() int {
	return len(p.OneTime) + len(p.Recurring)
}

// Service keeps the in-memory schedule and the durable store in step and
// runs the goroutine that fires due reminders.
//
// The store is written before a job is registered, and a job is removed from
// the schedule before its row is deleted.
type Service struct {
	store     *Store
	deliver   DeliveryFunc
	cfg       Config
	clock     Clock
	log       *zap.SugaredLogger
	remindLog *zap.SugaredLogger // Logger with reminder symbol pre-attached

	lifecycle sync.Mutex // serialises Start and Stop

	mu      sync.Mutex // guards the fields below
	state   State
	sched   *schedule.Schedule
	cancel  context.CancelFunc
	done    chan struct{}
	lastJob string // id of the soonest job last logged by the loop

	// ids cancelled while Start is reloading, dropped from the schedule once
	// the reload is done; nil outside Start
	cancelledDuringStart map[string]struct{}

	heartbeat rate.Sometimes // repeats the next-reminder line while nothing changes
}

// NewService creates a stopped reminder service
func NewService(store *Store, deliver DeliveryFunc, cfg Config, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = logger.Logger
	}
	defaults := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaults.StopTimeout
	}
	if cfg.Location == nil {
		cfg.Location = defaults.Location
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{Location: cfg.Location}
	}
	if deliver == nil {
		deliver = func(string) {}
	}

	return &Service{
		store:     store,
		deliver:   deliver,
		cfg:       cfg,
		clock:     clock,
		log:       log,
		remindLog: logger.AddRemindSymbol(log),
		heartbeat: rate.Sometimes{Interval: time.Minute},
	}
}

// Location returns the zone used for naive due times
func (s *Service) Location() *time.Location {
	return s.cfg.Location
}

// Now returns the service clock's current time
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// State reports whether the scheduler loop is running
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start initialises the store, reloads persisted reminders into a fresh
// schedule and starts the scheduler goroutine. ctx bounds the startup work
// only; the loop runs until Stop. Starting a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.State() == Running {
		return nil
	}

	if err := s.store.Init(ctx); err != nil {
		return errors.Wrap(err, "start reminder service")
	}

	// The schedule is visible before the reload so a reminder created
	// concurrently is registered in it rather than only stored.
	sched := schedule.New(s.fire, s.log)
	s.mu.Lock()
	s.sched = sched
	s.cancelledDuringStart = map[string]struct{}{}
	s.mu.Unlock()

	loaded, err := s.reload(ctx, sched)
	if err != nil {
		s.mu.Lock()
		s.sched = nil
		s.cancelledDuringStart = nil
		s.mu.Unlock()
		return errors.Wrap(err, "start reminder service")
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	// a row read by the reload may have been cancelled after it was listed
	for id := range s.cancelledDuringStart {
		if sched.Cancel(id) {
			loaded--
		}
	}
	s.cancelledDuringStart = nil
	s.cancel = cancel
	s.done = done
	s.lastJob = ""
	s.state = Running
	s.mu.Unlock()

	go s.run(loopCtx, sched, done)

	s.remindLog.Infow("Reminder service started",
		logger.FieldCount, loaded,
		"tick_interval", s.cfg.TickInterval,
	)
	return nil
}

// reload registers every persisted reminder under its original id.
// One-time reminders keep their due time, so any that came due while the
// service was down fire on the first tick.
func (s *Service) reload(ctx context.Context, sched *schedule.Schedule) (int, error) {
	now := s.clock.Now()

	oneTime, err := s.store.ListOneTime(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range oneTime {
		sched.AddJob(oneTimeJob(r, s.cfg.Location))
	}

	recurring, err := s.store.ListRecurring(ctx)
	if err != nil {
		return 0, err
	}
	skipped := 0
	for _, r := range recurring {
		rule, err := interval.Parse(r.Interval, r.TimeSpec)
		if err != nil {
			skipped++
			s.remindLog.Warnw("Skipping recurring reminder with invalid interval",
				logger.FieldReminderID, r.ID,
				logger.FieldInterval, r.Interval,
				logger.FieldTimeSpec, r.TimeSpec,
				logger.FieldError, err,
			)
			continue
		}
		sched.AddJob(recurringJob(r, rule, now))
	}

	return len(oneTime) + len(recurring) - skipped, nil
}

// Stop cancels the scheduler loop, waits at most StopTimeout for it to
// finish and clears the in-memory schedule. Stopping a stopped service is a no-op.
func (s *Service) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(s.cfg.StopTimeout):
		s.remindLog.Warnw("Scheduler loop did not stop in time",
			"timeout", s.cfg.StopTimeout,
		)
	}

	s.mu.Lock()
	s.sched.Clear()
	s.sched = nil
	s.cancel = nil
	s.done = nil
	s.state = Stopped
	s.mu.Unlock()

	s.remindLog.Infow("Reminder service stopped")
}

// run is the scheduler loop
func (s *Service) run(ctx context.Context, sched *schedule.Schedule, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.clock.Now()
			if fired := sched.RunPending(now); fired > 0 {
				s.remindLog.Debugw("Fired due reminders", logger.FieldCount, fired)
			}
			s.logNextJob(sched, now)
		}
	}
}

// logNextJob logs the soonest pending reminder whenever it changes,
// and otherwise about once a minute
func (s *Service) logNextJob(sched *schedule.Schedule, now time.Time) {
	next, ok := sched.Next()
	id := ""
	if ok {
		id = next.ID
	}

	s.mu.Lock()
	changed := id != s.lastJob
	s.lastJob = id
	s.mu.Unlock()

	if !changed {
		s.heartbeat.Do(func() { s.logNext(next, ok, now) })
		return
	}
	s.logNext(next, ok, now)
}

func (s *Service) logNext(next schedule.Job, ok bool, now time.Time) {
	if !ok {
		s.remindLog.Debugw("No pending reminders")
		return
	}

	until := next.NextFireAt.Sub(now)
	if until < 0 {
		until = 0
	}
	s.remindLog.Debugw("Next reminder",
		logger.FieldReminderID, next.ID,
		logger.FieldKind, next.Kind.String(),
		"in", until.Round(time.Second),
	)
}

// fire delivers a due job. One-time reminders are deleted from the store
// afterwards, even when delivery panics.
func (s *Service) fire(job schedule.Job) (err error) {
	if job.Kind == schedule.OneTime {
		defer func() {
			if delErr := s.forget(job.ID); delErr != nil && err == nil {
				err = delErr
			}
		}()
	}

	s.remindLog.Infow("Reminder fired",
		logger.FieldReminderID, job.ID,
		logger.FieldKind, job.Kind.String(),
	)
	s.deliver(FormatJob(job))
	return nil
}

func (s *Service) forget(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StopTimeout)
	defer cancel()

	_, err := s.store.DeleteOneTime(ctx, id)
	return err
}

// CreateOneTime schedules message for dueAt. A due time at or before now is
// delivered immediately and not stored. Otherwise the reminder is persisted
// and then registered; a store failure leaves nothing scheduled.
func (s *Service) CreateOneTime(ctx context.Context, message string, dueAt time.Time) (Created, error) {
	now := s.clock.Now()
	id := uuid.NewString()

	if !dueAt.After(now) {
		s.remindLog.Infow("Reminder already due, delivering now",
			logger.FieldReminderID, id,
			logger.FieldDueAt, dueAt,
		)
		s.deliver(FormatOneTime(message))
		return Created{ID: id, NextFireAt: dueAt, Immediate: true}, nil
	}

	r := OneTimeReminder{ID: id, Message: message, DueAt: dueAt, CreatedAt: now}
	if err := s.store.UpsertOneTime(ctx, r); err != nil {
		s.remindLog.Errorw("Failed to save one-time reminder",
			logger.FieldReminderID, id,
			logger.FieldError, err,
		)
		return Created{}, err
	}

	s.register(oneTimeJob(r, s.cfg.Location))
	s.remindLog.Infow("One-time reminder set",
		logger.FieldReminderID, id,
		logger.FieldDueAt, dueAt,
	)
	return Created{ID: id, NextFireAt: dueAt}, nil
}

// CreateRecurring schedules message to repeat per interval and timeSpec.
// An unparseable interval returns an error matching interval.ErrInvalidInterval
// and nothing is stored.
func (s *Service) CreateRecurring(ctx context.Context, message, iv, timeSpec string) (Created, error) {
	iv = strings.TrimSpace(iv)
	timeSpec = strings.TrimSpace(timeSpec)

	rule, err := interval.Parse(iv, timeSpec)
	if err != nil {
		return Created{}, err
	}

	now := s.clock.Now()
	r := RecurringReminder{
		ID:        uuid.NewString(),
		Message:   message,
		Interval:  iv,
		TimeSpec:  timeSpec,
		CreatedAt: now,
	}
	if err := s.store.UpsertRecurring(ctx, r); err != nil {
		s.remindLog.Errorw("Failed to save recurring reminder",
			logger.FieldReminderID, r.ID,
			logger.FieldError, err,
		)
		return Created{}, err
	}

	job := recurringJob(r, rule, now)
	s.register(job)
	s.remindLog.Infow("Recurring reminder set",
		logger.FieldReminderID, r.ID,
		logger.FieldInterval, iv,
		logger.FieldTimeSpec, timeSpec,
		logger.FieldNextFireAt, job.NextFireAt,
	)
	return Created{ID: r.ID, NextFireAt: job.NextFireAt}, nil
}

// register adds job to the live schedule. While stopped the persisted row is
// picked up by the next Start instead.
func (s *Service) register(job schedule.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched != nil {
		s.sched.AddJob(job)
	}
}

// Cancel removes the reminder with id from the schedule and the store.
// An unknown id returns Found=false and changes nothing. If the store lookup
// or delete fails the job is still unscheduled and the error is returned with
// the result.
func (s *Service) Cancel(ctx context.Context, id string) (Cancelled, error) {
	recurring, err := s.store.GetRecurring(ctx, id)
	switch {
	case err == nil:
		s.unschedule(id)
		result := Cancelled{
			Found:    true,
			Kind:     schedule.Recurring,
			Message:  recurring.Message,
			Interval: recurring.Interval,
			TimeSpec: recurring.TimeSpec,
		}
		_, err := s.store.DeleteRecurring(ctx, id)
		return result, s.cancelled(id, result, err)
	case !errors.IsNotFoundError(err):
		return s.cancelWithoutLookup(ctx, id, err)
	}

	oneTime, err := s.store.GetOneTime(ctx, id)
	switch {
	case err == nil:
		s.unschedule(id)
		result := Cancelled{Found: true, Kind: schedule.OneTime, Message: oneTime.Message}
		_, err := s.store.DeleteOneTime(ctx, id)
		return result, s.cancelled(id, result, err)
	case !errors.IsNotFoundError(err):
		return s.cancelWithoutLookup(ctx, id, err)
	}

	// Registered but without a row: only possible if the row was removed behind our back
	if job, ok := s.unschedule(id); ok {
		result := cancelledJob(job)
		return result, s.cancelled(id, result, nil)
	}

	return Cancelled{}, nil
}

// cancelWithoutLookup handles a store that failed to read the row. A
// scheduled job is still removed and its row deleted on a best-effort basis;
// the lookup error is returned unless that delete succeeds.
func (s *Service) cancelWithoutLookup(ctx context.Context, id string, lookupErr error) (Cancelled, error) {
	job, ok := s.unschedule(id)
	if !ok {
		return Cancelled{}, lookupErr
	}

	result := cancelledJob(job)
	var err error
	if job.Kind == schedule.Recurring {
		_, err = s.store.DeleteRecurring(ctx, id)
	} else {
		_, err = s.store.DeleteOneTime(ctx, id)
	}
	if err != nil {
		err = lookupErr
	}
	return result, s.cancelled(id, result, err)
}

func cancelledJob(job schedule.Job) Cancelled {
	return Cancelled{
		Found:    true,
		Kind:     job.Kind,
		Message:  job.Message,
		Interval: job.Interval,
		TimeSpec: job.TimeSpec,
	}
}

func (s *Service) unschedule(id string) (schedule.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return schedule.Job{}, false
	}
	if s.cancelledDuringStart != nil {
		s.cancelledDuringStart[id] = struct{}{}
	}
	job, ok := s.sched.Get(id)
	if ok {
		s.sched.Cancel(id)
	}
	return job, ok
}

func (s *Service) cancelled(id string, result Cancelled, err error) error {
	if err != nil {
		s.remindLog.Errorw("Reminder unscheduled but store delete failed",
			logger.FieldReminderID, id,
			logger.FieldKind, result.Kind.String(),
			logger.FieldError, err,
		)
		return err
	}
	s.remindLog.Infow("Reminder cancelled",
		logger.FieldReminderID, id,
		logger.FieldKind, result.Kind.String(),
	)
	return nil
}

// ListPending returns the scheduled reminders. A stopped service has none.
func (s *Service) ListPending() Pending {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()

	if sched == nil {
		return Pending{}
	}
	return Pending{
		OneTime:   sched.ListJobs(schedule.OneTime),
		Recurring: sched.ListJobs(schedule.Recurring),
	}
}

func oneTimeJob(r OneTimeReminder, loc *time.Location) schedule.Job {
	return schedule.Job{
		ID:         r.ID,
		Kind:       schedule.OneTime,
		Message:    r.Message,
		NextFireAt: r.DueAt.In(loc),
	}
}

func recurringJob(r RecurringReminder, rule interval.Rule, now time.Time) schedule.Job {
	rule = interval.Anchor(rule, r.TimeSpec, r.CreatedAt.In(now.Location()))
	return schedule.Job{
		ID:         r.ID,
		Kind:       schedule.Recurring,
		Message:    r.Message,
		Interval:   r.Interval,
		TimeSpec:   r.TimeSpec,
		NextFireAt: rule.Next(now),
		Rule:       rule,
	}
}
