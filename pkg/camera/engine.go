package camera

import (
	"sync"
	"time"

	"github.com/viewnav/go-camview/pkg/geom"
)

const (
	// minimalDuration replaces zero-length transitions so progress
	// computation never divides by zero. The result is a near-instant jump.
	minimalDuration = time.Millisecond

	// minFocusDistance is the smallest eye-to-focus separation the engine
	// will emit. Below it the view direction is undefined.
	minFocusDistance = 0.01

	// initialQueueCapacity sizes the movement queue up front. The queue
	// grows when full; it never rejects a movement.
	initialQueueCapacity = 100

	// DefaultTransitionTime is used by the convenience motions (LookAt,
	// OrbitTo, MoveEyeWithFocusTo) unless overridden.
	DefaultTransitionTime = 500 * time.Millisecond

	// DefaultFrameRate is the target rate assumed for frame-by-frame
	// rendering when a request does not specify one.
	DefaultFrameRate = 60
)

// Engine drives smooth camera transitions. Movements are enqueued from any
// goroutine; the host calls Tick once per render frame from a single loop.
// A mutex guards the queue and clock state, which are the only shared
// mutable resources.
//
// While animating, the queue always holds at least two elements: a synthetic
// front element recording where the camera is, and one or more targets.
// Interpolation happens between queue position 0 and queue position 1; the
// front element is never itself animated toward.
type Engine struct {
	mu sync.Mutex

	queue     []Movement
	animating bool
	current   geom.Pose

	// Clock state for the active segment. startTime is zero until the
	// first Tick after leaving idle; segment advances shift it forward by
	// the finished segment's duration.
	startTime    time.Time
	pendingPause time.Duration

	// Frame-by-frame mode: progress is renderedFrames/(fps*duration)
	// instead of wall-clock time, for deterministic offline capture.
	frameByFrame   bool
	targetFPS      int
	renderedFrames int

	defaultTransition time.Duration

	onPose     func(geom.Pose)
	onFinished func()
	onCapture  func()
}

// NewEngine creates an idle engine at the given starting pose.
func NewEngine(initial geom.Pose) *Engine {
	return &Engine{
		queue:             make([]Movement, 0, initialQueueCapacity),
		current:           initial,
		defaultTransition: DefaultTransitionTime,
	}
}

// SetPoseSink installs the callback that receives every emitted pose.
// Sinks run with the engine lock held and must not call back into the
// engine.
func (e *Engine) SetPoseSink(fn func(geom.Pose)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPose = fn
}

// SetFinishedSink installs the callback fired once when a frame-by-frame
// animation finishes or is cancelled.
func (e *Engine) SetFinishedSink(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFinished = fn
}

// SetCaptureSink installs the callback fired after each animated tick while
// frame-by-frame rendering is active. It signals when to capture a view
// image, not how.
func (e *Engine) SetCaptureSink(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCapture = fn
}

// SetDefaultTransition overrides the duration used by the convenience
// motions. Non-positive values are ignored.
func (e *Engine) SetDefaultTransition(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultTransition = d
}

// Enqueue appends a movement to the queue and starts animating if idle.
// Movements with negative duration are rejected (no-op). Zero durations are
// replaced with a minimal positive duration so the jump is near-instant but
// progress computation stays defined. Enqueue never fails due to capacity.
func (e *Engine) Enqueue(m Movement) {
	if m.Duration < 0 {
		return
	}
	if m.Duration == 0 {
		m.Duration = minimalDuration
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// An empty queue means we are starting from idle: push a synthetic
	// element for the current pose so interpolation has a starting point.
	if len(e.queue) == 0 {
		e.startTime = time.Time{}
		e.renderedFrames = 0
		e.queue = append(e.queue, Movement{
			Eye:      e.current.Eye,
			Focus:    e.current.Focus,
			Up:       e.current.Up,
			Duration: minimalDuration,
			Style:    m.Style,
		})
	}

	e.queue = append(e.queue, m)
	e.animating = true
}

// Tick advances the active transition. The host calls it once per render
// frame with the current time; it is a no-op while idle. The emitted pose
// is delivered to the pose sink before Tick returns.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.animating || len(e.queue) < 2 {
		return
	}

	// The segment clock starts on the first tick after leaving idle.
	if e.startTime.IsZero() {
		e.startTime = now
	}

	// A requested pause shifts the time origin forward, freezing visible
	// progress for that span without blocking the host loop.
	if e.pendingPause > 0 {
		e.startTime = e.startTime.Add(e.pendingPause)
		e.pendingPause = 0
	}

	start := e.queue[0]
	goal := e.queue[1]

	timeFraction := e.progressInTime(now, goal.Duration)

	// A pause longer than the elapsed segment time pushes the start
	// reference past now; progress holds at zero instead of extrapolating
	// backwards out of the segment.
	if timeFraction < 0 {
		timeFraction = 0
	}

	// Make sure we get all the way there before turning off.
	finished := false
	if timeFraction >= 1 {
		timeFraction = 1
		finished = true
	}

	if finished {
		// Reproduce the goal exactly rather than trusting the last lerp.
		// Degenerate goals still get the view guard.
		e.current = e.guardView(goal.Target())
	} else {
		spaceFraction := goal.Style.Fraction(timeFraction)
		e.current = e.guardView(geom.Pose{
			Eye:   geom.Lerp(start.Eye, goal.Eye, spaceFraction),
			Focus: geom.Lerp(start.Focus, goal.Focus, spaceFraction),
			Up:    geom.Lerp(start.Up, goal.Up, spaceFraction),
		})
	}

	e.emitLocked()

	if finished {
		// The front element has served as interpolation start; drop it
		// and either line up the next segment or go idle.
		e.queue = e.queue[1:]
		if len(e.queue) >= 2 {
			e.startTime = e.startTime.Add(goal.Duration)
			e.renderedFrames = 0
		} else {
			e.cancelLocked()
		}
	}
}

// progressInTime returns the elapsed fraction of the active segment.
// Callers hold e.mu.
func (e *Engine) progressInTime(now time.Time, duration time.Duration) float64 {
	if e.frameByFrame {
		progress := float64(e.renderedFrames) / (float64(e.targetFPS) * duration.Seconds())
		e.renderedFrames++
		return progress
	}
	return float64(now.Sub(e.startTime)) / float64(duration)
}

// guardView keeps the eye-to-focus separation above the minimum so the view
// direction stays defined when a transition passes the eye through the
// focus point.
func (e *Engine) guardView(p geom.Pose) geom.Pose {
	if p.Distance() >= minFocusDistance {
		return p
	}
	dir := e.current.Direction().Normalize()
	if dir.Length() == 0 {
		dir = geom.Vec3{Z: -1}
	}
	p.Focus = p.Eye.Add(dir.Scale(minFocusDistance))
	return p
}

// Cancel discards all pending movements and idles the engine. If
// frame-by-frame rendering was active, the finished sink fires once and the
// mode is cleared. Cancel is idempotent and safe to call mid-transition.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

// cancelLocked implements Cancel. Callers hold e.mu.
func (e *Engine) cancelLocked() {
	e.animating = false
	e.queue = e.queue[:0]
	e.renderedFrames = 0
	e.startTime = time.Time{}
	e.pendingPause = 0

	if e.frameByFrame {
		e.frameByFrame = false
		if e.onFinished != nil {
			e.onFinished()
		}
	}
}

// PauseFor freezes visible progress for d of real time, applied at the next
// Tick as a shift of the segment's time origin. Non-positive durations are
// no-ops. PauseFor never blocks.
func (e *Engine) PauseFor(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingPause += d
}

// SetFrameByFrame switches progress computation to counted rendered frames
// at the given target rate. The mode is cleared by Cancel (including the
// implicit cancel when the queue drains).
func (e *Engine) SetFrameByFrame(fps int) {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameByFrame = true
	e.targetFPS = fps
	e.renderedFrames = 0
}

// FrameByFrame reports whether frame-by-frame rendering is active.
func (e *Engine) FrameByFrame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameByFrame
}

// Animating reports whether a transition is in progress.
func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animating
}

// QueueLen returns the number of queued elements, including the synthetic
// front element while animating.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Pose returns the current camera pose.
func (e *Engine) Pose() geom.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// SetPose overwrites the current pose directly, e.g. from user interaction.
// Any active transition is cancelled first so the animation does not fight
// the caller. The new pose is emitted to the pose sink.
func (e *Engine) SetPose(p geom.Pose) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.current = p
	e.emitLocked()
}

// emitLocked delivers the current pose to the sinks. Callers hold e.mu.
func (e *Engine) emitLocked() {
	if e.onPose != nil {
		e.onPose(e.current)
	}
	if e.frameByFrame && e.onCapture != nil {
		e.onCapture()
	}
}

// LookAt keeps the camera in place and swings the focus to point over the
// default transition time.
func (e *Engine) LookAt(point geom.Vec3) {
	p, d := e.poseAndDefault()
	e.Enqueue(Movement{Eye: p.Eye, Focus: point, Up: p.Up, Duration: d, Style: StyleWave})
}

// OrbitTo moves the camera to eye while holding the focus point fixed.
func (e *Engine) OrbitTo(eye geom.Vec3) {
	p, d := e.poseAndDefault()
	e.Enqueue(Movement{Eye: eye, Focus: p.Focus, Up: p.Up, Duration: d, Style: StyleWave})
}

// MoveEyeWithFocusTo translates eye and focus together, preserving the view
// direction.
func (e *Engine) MoveEyeWithFocusTo(eye geom.Vec3) {
	p, d := e.poseAndDefault()
	focus := p.Focus.Add(eye.Sub(p.Eye))
	e.Enqueue(Movement{Eye: eye, Focus: focus, Up: p.Up, Duration: d, Style: StyleWave})
}

func (e *Engine) poseAndDefault() (geom.Pose, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.defaultTransition
}
