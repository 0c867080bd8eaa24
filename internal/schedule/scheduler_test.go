package schedule

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPeriodicCadence(t *testing.T) {
	s := New(epoch)
	runs := 0
	s.RunPeriodic(time.Second, func() { runs++ })

	s.Update(epoch.Add(500 * time.Millisecond))
	if runs != 0 {
		t.Fatalf("expected no run before first interval, got %d", runs)
	}
	for i := 1; i <= 5; i++ {
		s.Update(epoch.Add(time.Duration(i) * time.Second))
	}
	if runs != 5 {
		t.Fatalf("expected 5 runs, got %d", runs)
	}
}

func TestPeriodicFallsBehindOncePerUpdate(t *testing.T) {
	s := New(epoch)
	runs := 0
	task := s.RunPeriodic(time.Second, func() { runs++ })
	s.Update(epoch.Add(10 * time.Second))
	if runs != 1 {
		t.Fatalf("expected a single catch-up run, got %d", runs)
	}
	if want := epoch.Add(11 * time.Second); !task.Due().Equal(want) {
		t.Fatalf("expected rearm at %v, got %v", want, task.Due())
	}
}

func TestAfterDelayRunsOnce(t *testing.T) {
	s := New(epoch)
	runs := 0
	task := s.RunAfterDelay(2*time.Second, func() { runs++ })
	s.Update(epoch.Add(time.Second))
	s.Update(epoch.Add(2 * time.Second))
	s.Update(epoch.Add(5 * time.Second))
	if runs != 1 {
		t.Fatalf("expected one run, got %d", runs)
	}
	if !task.Cancelled() || s.Len() != 0 {
		t.Fatalf("one-shot task should be retired")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New(epoch)
	runs := 0
	var task *Task
	task = s.RunPeriodic(time.Second, func() {
		runs++
		if runs == 2 {
			task.Cancel()
			task.Cancel()
		}
	})
	other := s.RunPeriodic(time.Second, func() {})
	for i := 1; i <= 5; i++ {
		s.Update(epoch.Add(time.Duration(i) * time.Second))
	}
	if runs != 2 {
		t.Fatalf("expected task to stop after 2 runs, got %d", runs)
	}
	task.Cancel()
	other.Cancel()
	other.Cancel()
	if s.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Len())
	}
}

func TestSameInstantRunsInRegistrationOrder(t *testing.T) {
	s := New(epoch)
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		s.RunAfterDelay(time.Second, func() { order = append(order, i) })
	}
	s.Update(epoch.Add(time.Second))
	for i, v := range order {
		if v != i {
			t.Fatalf("unexpected order %v", order)
		}
	}
}
