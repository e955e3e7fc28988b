package schedule

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/remind/interval"
)

var base = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	fired []Job
}

func (r *recorder) fire(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, job)
	return nil
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.fired))
	for i, job := range r.fired {
		ids[i] = job.ID
	}
	return ids
}

func oneTime(id string, at time.Time) Job {
	return Job{ID: id, Kind: OneTime, Message: "msg " + id, NextFireAt: at}
}

func recurring(id string, rule interval.Rule, at time.Time) Job {
	return Job{ID: id, Kind: Recurring, Message: "msg " + id, Interval: "hour", NextFireAt: at, Rule: rule}
}

func TestRunPending_OneTimeFiresOnceAndIsRemoved(t *testing.T) {
	rec := &recorder{}
	s := New(rec.fire, zaptest.NewLogger(t).Sugar())

	s.AddJob(oneTime("a", base.Add(2*time.Second)))

	assert.Equal(t, 0, s.RunPending(base.Add(time.Second)), "not due yet")
	assert.Equal(t, 1, s.RunPending(base.Add(2*time.Second)), "due exactly at fire time")
	assert.Equal(t, 0, s.RunPending(base.Add(3*time.Second)), "never fires twice")

	assert.Equal(t, []string{"a"}, rec.ids())
	assert.Equal(t, 0, s.Len())
}

func TestRunPending_RecurringAdvancesFromNow(t *testing.T) {
	rec := &recorder{}
	s := New(rec.fire, zaptest.NewLogger(t).Sugar())

	rule := interval.Every{N: 1, Unit: interval.Hour}
	s.AddJob(recurring("r", rule, base))

	// Three hours late: fires once and the missed occurrences coalesce
	late := base.Add(3 * time.Hour)
	assert.Equal(t, 1, s.RunPending(late))

	job, ok := s.Get("r")
	require.True(t, ok)
	assert.Equal(t, late.Add(time.Hour), job.NextFireAt)
	assert.Equal(t, 0, s.RunPending(late.Add(time.Minute)))
}

func TestRunPending_FiresInNextFireAtOrder(t *testing.T) {
	rec := &recorder{}
	s := New(rec.fire, zaptest.NewLogger(t).Sugar())

	s.AddJob(oneTime("c", base.Add(3*time.Second)))
	s.AddJob(oneTime("a", base.Add(1*time.Second)))
	s.AddJob(oneTime("b2", base.Add(2*time.Second)))
	s.AddJob(oneTime("b1", base.Add(2*time.Second)))
	s.AddJob(oneTime("later", base.Add(time.Hour)))

	assert.Equal(t, 4, s.RunPending(base.Add(5*time.Second)))
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, rec.ids())
	assert.Equal(t, 1, s.Len())
}

func TestRunPending_FailingJobDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var fired []string
	s := New(func(job Job) error {
		switch job.ID {
		case "panics":
			panic("delivery exploded")
		case "errors":
			return errors.New("delivery failed")
		}
		fired = append(fired, job.ID)
		return nil
	}, zap.New(core).Sugar())

	s.AddJob(oneTime("errors", base))
	s.AddJob(oneTime("panics", base.Add(time.Millisecond)))
	s.AddJob(oneTime("ok", base.Add(2*time.Millisecond)))

	assert.Equal(t, 3, s.RunPending(base.Add(time.Second)))
	assert.Equal(t, []string{"ok"}, fired)
	assert.Equal(t, 2, logs.FilterMessage("Reminder job failed").Len())
	assert.Equal(t, 0, s.Len(), "failed one-time jobs are still consumed")
}

func TestRunPending_FireMayCallBackIntoSchedule(t *testing.T) {
	var s *Schedule
	s = New(func(job Job) error {
		s.Cancel("other")
		s.AddJob(oneTime("followup", base.Add(time.Hour)))
		return nil
	}, zaptest.NewLogger(t).Sugar())

	s.AddJob(oneTime("first", base))
	s.AddJob(oneTime("other", base.Add(time.Minute)))

	done := make(chan int)
	go func() { done <- s.RunPending(base) }()

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("RunPending deadlocked calling back into the schedule")
	}

	_, ok := s.Get("followup")
	assert.True(t, ok)
	_, ok = s.Get("other")
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	rec := &recorder{}
	s := New(rec.fire, zaptest.NewLogger(t).Sugar())
	s.AddJob(recurring("r", interval.Daily{Hour: 9}, base.Add(time.Hour)))

	assert.True(t, s.Cancel("r"))
	assert.False(t, s.Cancel("r"), "second cancel is a no-op")
	assert.False(t, s.Cancel("missing"))

	assert.Equal(t, 0, s.RunPending(base.Add(48*time.Hour)))
	assert.Empty(t, rec.ids())
}

func TestListJobs(t *testing.T) {
	s := New(nil, zaptest.NewLogger(t).Sugar())
	s.AddJob(oneTime("late", base.Add(2*time.Hour)))
	s.AddJob(oneTime("soon", base.Add(time.Minute)))
	s.AddJob(recurring("r2", interval.Daily{Hour: 12}, base.Add(2*time.Hour)))
	s.AddJob(recurring("r1", interval.Daily{Hour: 11}, base.Add(time.Hour)))

	one := s.ListJobs(OneTime)
	require.Len(t, one, 2)
	assert.Equal(t, "soon", one[0].ID)
	assert.Equal(t, "late", one[1].ID)

	rec := s.ListJobs(Recurring)
	require.Len(t, rec, 2)
	assert.Equal(t, "r1", rec[0].ID)

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "soon", next.ID)

	s.Clear()
	assert.Empty(t, s.ListJobs(OneTime))
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestAddJob_ReplacesSameID(t *testing.T) {
	s := New(nil, zaptest.NewLogger(t).Sugar())
	s.AddJob(oneTime("a", base))
	s.AddJob(oneTime("a", base.Add(time.Hour)))

	assert.Equal(t, 1, s.Len())
	job, _ := s.Get("a")
	assert.Equal(t, base.Add(time.Hour), job.NextFireAt)
}

func TestConcurrentAccess(t *testing.T) {
	rec := &recorder{}
	s := New(rec.fire, zaptest.NewLogger(t).Sugar())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			s.AddJob(oneTime(id, base))
			if i%5 == 0 {
				s.Cancel(id)
			}
			s.ListJobs(OneTime)
		}(i)
	}

	stop := make(chan struct{})
	fired := make(chan int)
	go func() {
		total := 0
		for {
			select {
			case <-stop:
				fired <- total + s.RunPending(base)
				return
			default:
				total += s.RunPending(base)
			}
		}
	}()

	wg.Wait()
	close(stop)
	total := <-fired

	assert.Equal(t, len(rec.ids()), total)
	assert.LessOrEqual(t, total, 50)
	assert.GreaterOrEqual(t, total, 40, "only the ten cancelled jobs can be missing")
	assert.Equal(t, 0, s.Len())
}

func TestJobPattern(t *testing.T) {
	assert.Equal(t, "", oneTime("a", base).Pattern())
	assert.Equal(t, "hour", recurring("r", interval.Every{N: 1, Unit: interval.Hour}, base).Pattern())

	daily := Job{Kind: Recurring, Interval: "day", TimeSpec: "09:00"}
	assert.Equal(t, "day at 09:00", daily.Pattern())
	assert.Equal(t, "recurring", Recurring.String())
	assert.Equal(t, "one-time", OneTime.String())
}
