// Package motion interpolates spatial handles toward target poses over time.
// It only moves visuals; it never touches container occupancy.
package motion

import (
	"time"

	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// Handle is the spatial capability an animated object exposes.
type Handle interface {
	LocalPosition() cargo.Vec3
	SetLocalPosition(cargo.Vec3)
	LocalRotation() cargo.Quat
	SetLocalRotation(cargo.Quat)
}

// JobID identifies an animation job. Zero is never issued.
type JobID uint64

type job struct {
	id       JobID
	handle   Handle
	from     cargo.Pose
	to       cargo.Pose
	duration time.Duration
	elapsed  time.Duration
	onDone   func()
}

// Animator runs interpolation jobs in start order. It is driven by Update
// from the simulation loop and is not safe for concurrent use.
type Animator struct {
	nextID JobID
	jobs   map[JobID]*job
	order  []JobID
}

// NewAnimator returns an idle animator.
func NewAnimator() *Animator {
	return &Animator{jobs: make(map[JobID]*job)}
}

// Animate starts moving h from its current local pose to target. A
// non-positive duration snaps on the next Update. onDone runs once when the
// job completes and never for cancelled jobs.
func (a *Animator) Animate(h Handle, target cargo.Pose, d time.Duration, onDone func()) JobID {
	a.nextID++
	if target.Rotation.IsZero() {
		target.Rotation = cargo.IdentityQuat
	}
	j := &job{
		id:       a.nextID,
		handle:   h,
		from:     cargo.Pose{Position: h.LocalPosition(), Rotation: h.LocalRotation()},
		to:       target,
		duration: d,
		onDone:   onDone,
	}
	a.jobs[j.id] = j
	a.order = append(a.order, j.id)
	return j.id
}

// Cancel stops a job where it is. Unknown or finished ids return false.
func (a *Animator) Cancel(id JobID) bool {
	if _, ok := a.jobs[id]; !ok {
		return false
	}
	delete(a.jobs, id)
	return true
}

// Active reports whether the job is still running.
func (a *Animator) Active(id JobID) bool {
	_, ok := a.jobs[id]
	return ok
}

// Len returns the number of running jobs.
func (a *Animator) Len() int { return len(a.jobs) }

// Update advances every job by dt.
func (a *Animator) Update(dt time.Duration) {
	if len(a.order) == 0 {
		return
	}
	current := a.order
	a.order = make([]JobID, 0, len(current))
	var done []*job
	for _, id := range current {
		j, ok := a.jobs[id]
		if !ok {
			continue
		}
		j.elapsed += dt
		t := 1.0
		if j.duration > 0 && j.elapsed < j.duration {
			t = float64(j.elapsed) / float64(j.duration)
		}
		j.handle.SetLocalPosition(j.from.Position.Lerp(j.to.Position, t))
		j.handle.SetLocalRotation(j.from.Rotation.Nlerp(j.to.Rotation, t))
		if t >= 1 {
			delete(a.jobs, id)
			done = append(done, j)
			continue
		}
		a.order = append(a.order, id)
	}
	// Callbacks may start new jobs; they land after the survivors.
	for _, j := range done {
		if j.onDone != nil {
			j.onDone()
		}
	}
}
