package camera

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/viewnav/go-camview/pkg/geom"
)

const poseTolerance = 1e-9

func vecEquals(a, b geom.Vec3) bool {
	return math.Abs(a.X-b.X) < poseTolerance &&
		math.Abs(a.Y-b.Y) < poseTolerance &&
		math.Abs(a.Z-b.Z) < poseTolerance
}

func startPose() geom.Pose {
	return geom.Pose{
		Eye:   geom.Vec3{},
		Focus: geom.Vec3{Z: -1},
		Up:    geom.Vec3{Y: 1},
	}
}

// poseRecorder collects every pose the engine emits.
type poseRecorder struct {
	mu    sync.Mutex
	poses []geom.Pose
}

func (r *poseRecorder) record(p geom.Pose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poses = append(r.poses, p)
}

func (r *poseRecorder) last() geom.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.poses) == 0 {
		return geom.Pose{}
	}
	return r.poses[len(r.poses)-1]
}

func (r *poseRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.poses)
}

func TestEngine_NegativeDurationRejected(t *testing.T) {
	e := NewEngine(startPose())

	e.Enqueue(Movement{Eye: geom.Vec3{X: 1}, Duration: -time.Second})

	if e.Animating() {
		t.Error("engine should stay idle after rejected enqueue")
	}
	if e.QueueLen() != 0 {
		t.Errorf("queue length = %d, want 0", e.QueueLen())
	}
}

func TestEngine_ZeroDurationCompletesQuickly(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	target := geom.Vec3{X: 3, Y: 4, Z: 5}
	e.Enqueue(Movement{Eye: target, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}, Style: StyleFull})

	t0 := time.Now()
	e.Tick(t0)
	e.Tick(t0.Add(2 * time.Millisecond))

	if e.Animating() {
		t.Error("zero-duration movement should complete within two ticks")
	}
	last := rec.last()
	if !vecEquals(last.Eye, target) {
		t.Errorf("final eye = %+v, want %+v", last.Eye, target)
	}
	if math.IsNaN(last.Eye.X) || math.IsNaN(last.Focus.X) {
		t.Error("zero duration produced NaN")
	}
}

func TestEngine_SyntheticFrontElement(t *testing.T) {
	e := NewEngine(startPose())

	const n = 3
	for i := 0; i < n; i++ {
		e.Enqueue(Movement{Eye: geom.Vec3{X: float64(i + 1)}, Duration: time.Second})
	}

	// The first enqueue from idle pushes the current pose in front.
	if got := e.QueueLen(); got != n+1 {
		t.Errorf("queue length = %d, want %d", got, n+1)
	}
	if !e.Animating() {
		t.Error("engine should be animating")
	}
}

func TestEngine_LinearMidpointScenario(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	goal := Movement{
		Eye:      geom.Vec3{Z: 10},
		Focus:    geom.Vec3{},
		Up:       geom.Vec3{Y: 1},
		Duration: time.Second,
		Style:    StyleFull,
	}
	e.Enqueue(goal)

	t0 := time.Now()
	e.Tick(t0) // starts the segment clock

	e.Tick(t0.Add(500 * time.Millisecond))
	mid := rec.last()
	if math.Abs(mid.Eye.Z-5) > 1e-6 {
		t.Errorf("midpoint eye.Z = %v, want 5", mid.Eye.Z)
	}

	e.Tick(t0.Add(time.Second))
	final := rec.last()
	if !vecEquals(final.Eye, goal.Eye) || !vecEquals(final.Focus, goal.Focus) || !vecEquals(final.Up, goal.Up) {
		t.Errorf("final pose = %+v, want exact goal %+v", final, goal.Target())
	}
	if e.Animating() {
		t.Error("engine should be idle after the segment drains")
	}
}

func TestEngine_TwoMovementsChain(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	first := geom.Vec3{X: 10}
	second := geom.Vec3{X: 10, Y: 10}
	e.Enqueue(Movement{Eye: first, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}, Duration: time.Second, Style: StyleFull})
	e.Enqueue(Movement{Eye: second, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}, Duration: time.Second, Style: StyleFull})

	if got := e.QueueLen(); got != 3 {
		t.Fatalf("queue length = %d, want 3", got)
	}

	t0 := time.Now()
	e.Tick(t0)

	// First segment finishes; engine must stay animating for the second.
	e.Tick(t0.Add(time.Second))
	if !vecEquals(rec.last().Eye, first) {
		t.Errorf("eye after first segment = %+v, want %+v", rec.last().Eye, first)
	}
	if !e.Animating() {
		t.Fatal("engine went idle with a segment still queued")
	}

	// Halfway through the second segment. The clock reference advanced by
	// the first segment's duration, so t0+1.5s is its midpoint.
	e.Tick(t0.Add(1500 * time.Millisecond))
	if math.Abs(rec.last().Eye.Y-5) > 1e-6 {
		t.Errorf("second segment midpoint eye.Y = %v, want 5", rec.last().Eye.Y)
	}

	e.Tick(t0.Add(2 * time.Second))
	if !vecEquals(rec.last().Eye, second) {
		t.Errorf("final eye = %+v, want %+v", rec.last().Eye, second)
	}
	if e.Animating() {
		t.Error("engine should be idle after both segments")
	}
	if e.QueueLen() != 0 {
		t.Errorf("queue length = %d, want 0 after draining", e.QueueLen())
	}
}

func TestEngine_CancelIdlesAndTickBecomesNoop(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	e.Enqueue(Movement{Eye: geom.Vec3{X: 1}, Duration: time.Second})
	e.Cancel()
	e.Cancel() // idempotent

	if e.Animating() {
		t.Error("engine should be idle after cancel")
	}

	before := rec.count()
	e.Tick(time.Now())
	if rec.count() != before {
		t.Error("tick after cancel emitted a pose")
	}
}

func TestEngine_CancelFiresFinishedOnceInFrameMode(t *testing.T) {
	e := NewEngine(startPose())

	finished := 0
	e.SetFinishedSink(func() { finished++ })

	e.SetFrameByFrame(30)
	e.Enqueue(Movement{Eye: geom.Vec3{X: 1}, Duration: time.Second})

	e.Cancel()
	if finished != 1 {
		t.Fatalf("finished signals = %d, want 1", finished)
	}
	if e.FrameByFrame() {
		t.Error("frame-by-frame mode should be cleared by cancel")
	}

	e.Cancel()
	if finished != 1 {
		t.Errorf("finished signals after second cancel = %d, want still 1", finished)
	}
}

func TestEngine_PauseShiftsTimeOrigin(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	e.Enqueue(Movement{Eye: geom.Vec3{Z: 10}, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}, Duration: time.Second, Style: StyleFull})

	t0 := time.Now()
	e.Tick(t0)

	e.PauseFor(200 * time.Millisecond)

	// 700ms of wall time minus the 200ms pause puts the segment at 50%.
	e.Tick(t0.Add(700 * time.Millisecond))
	if math.Abs(rec.last().Eye.Z-5) > 1e-6 {
		t.Errorf("eye.Z after pause = %v, want 5", rec.last().Eye.Z)
	}

	// Completion shifts out by the pause as well.
	e.Tick(t0.Add(1200 * time.Millisecond))
	if e.Animating() {
		t.Error("segment should have finished 1s plus pause after start")
	}
}

func TestEngine_PauseLongerThanElapsedHoldsAtStart(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	e.Enqueue(Movement{Eye: geom.Vec3{X: 10}, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}, Duration: time.Second, Style: StyleFull})

	t0 := time.Now()
	e.Tick(t0)
	e.Tick(t0.Add(100 * time.Millisecond))
	if math.Abs(rec.last().Eye.X-1) > 1e-6 {
		t.Fatalf("eye.X at 10%% = %v, want 1", rec.last().Eye.X)
	}

	// The pause exceeds the elapsed time, shifting the start reference past
	// now; progress must hold at the segment start, never extrapolate
	// backwards out of it.
	e.PauseFor(500 * time.Millisecond)
	e.Tick(t0.Add(200 * time.Millisecond))
	if got := rec.last().Eye.X; got < 0 || got > 1 {
		t.Errorf("eye.X during over-long pause = %v, want held within [0, 1]", got)
	}

	// Motion resumes against the shifted clock: 1s in at t0+500ms+500ms.
	e.Tick(t0.Add(time.Second))
	if math.Abs(rec.last().Eye.X-5) > 1e-6 {
		t.Errorf("eye.X after resume = %v, want 5", rec.last().Eye.X)
	}
	e.Tick(t0.Add(1500 * time.Millisecond))
	if e.Animating() {
		t.Error("segment should finish 1s plus pause after start")
	}
	if !vecEquals(rec.last().Eye, geom.Vec3{X: 10}) {
		t.Errorf("final eye = %+v, want (10,0,0)", rec.last().Eye)
	}
}

func TestEngine_PauseForNonPositiveIsNoop(t *testing.T) {
	e := NewEngine(startPose())
	e.Enqueue(Movement{Eye: geom.Vec3{Z: 10}, Duration: time.Second, Style: StyleFull})

	e.PauseFor(0)
	e.PauseFor(-time.Second)

	t0 := time.Now()
	e.Tick(t0)
	e.Tick(t0.Add(time.Second))
	if e.Animating() {
		t.Error("no-op pauses must not delay completion")
	}
}

func TestEngine_FrameByFrameIsDeterministic(t *testing.T) {
	run := func() []geom.Pose {
		e := NewEngine(startPose())
		rec := &poseRecorder{}
		e.SetPoseSink(rec.record)
		e.SetFrameByFrame(10)
		e.Enqueue(Movement{Eye: geom.Vec3{Z: 10}, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}, Duration: time.Second, Style: StyleFull})

		// Wall-clock times are deliberately erratic; frame mode must
		// ignore them.
		now := time.Now()
		for i := 0; e.Animating() && i < 100; i++ {
			e.Tick(now.Add(time.Duration(i*i) * time.Millisecond))
		}
		return rec.poses
	}

	a := run()
	b := run()

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	// 1s at 10fps: fractions 0/10 .. 10/10, so eleven animated ticks.
	if len(a) != 11 {
		t.Errorf("animated ticks = %d, want 11", len(a))
	}
	for i := range a {
		if !vecEquals(a[i].Eye, b[i].Eye) {
			t.Fatalf("tick %d eye differs between runs: %+v vs %+v", i, a[i].Eye, b[i].Eye)
		}
	}
	final := a[len(a)-1]
	if !vecEquals(final.Eye, geom.Vec3{Z: 10}) {
		t.Errorf("final frame-mode eye = %+v, want (0,0,10)", final.Eye)
	}
}

func TestEngine_FrameModeDrainFiresFinished(t *testing.T) {
	e := NewEngine(startPose())
	finished := 0
	e.SetFinishedSink(func() { finished++ })
	e.SetFrameByFrame(10)
	e.Enqueue(Movement{Eye: geom.Vec3{Z: 10}, Duration: time.Second, Style: StyleFull})

	now := time.Now()
	for i := 0; e.Animating() && i < 100; i++ {
		e.Tick(now)
	}

	if finished != 1 {
		t.Errorf("finished signals = %d, want 1 when frame-mode animation drains", finished)
	}
	if e.FrameByFrame() {
		t.Error("frame-by-frame mode should be cleared when the queue drains")
	}
}

func TestEngine_CaptureTriggerOnlyInFrameMode(t *testing.T) {
	e := NewEngine(startPose())
	captures := 0
	e.SetCaptureSink(func() { captures++ })

	e.Enqueue(Movement{Eye: geom.Vec3{Z: 10}, Duration: time.Second, Style: StyleFull})
	t0 := time.Now()
	e.Tick(t0)
	e.Tick(t0.Add(time.Second))
	if captures != 0 {
		t.Errorf("captures in wall-clock mode = %d, want 0", captures)
	}

	e.SetFrameByFrame(10)
	e.Enqueue(Movement{Eye: geom.Vec3{}, Duration: time.Second, Style: StyleFull})
	for i := 0; e.Animating() && i < 100; i++ {
		e.Tick(t0)
	}
	if captures == 0 {
		t.Error("frame-by-frame ticks should trigger capture")
	}
}

func TestEngine_DegenerateViewGuard(t *testing.T) {
	// Start looking at (2,0,0); the eye sweeps through the focus point.
	e := NewEngine(geom.Pose{
		Eye:   geom.Vec3{},
		Focus: geom.Vec3{X: 2},
		Up:    geom.Vec3{Y: 1},
	})
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	e.Enqueue(Movement{
		Eye:      geom.Vec3{X: 4},
		Focus:    geom.Vec3{X: 2},
		Up:       geom.Vec3{Y: 1},
		Duration: time.Second,
		Style:    StyleFull,
	})

	t0 := time.Now()
	e.Tick(t0)
	e.Tick(t0.Add(500 * time.Millisecond)) // eye == focus without the guard

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, p := range rec.poses {
		if p.Distance() < minFocusDistance-poseTolerance {
			t.Errorf("tick %d: eye-focus distance %v below minimum", i, p.Distance())
		}
	}
}

func TestEngine_DegenerateGoalGuardedAtCompletion(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	// The goal itself is degenerate: eye and focus coincide.
	e.Enqueue(Movement{
		Eye:      geom.Vec3{X: 5},
		Focus:    geom.Vec3{X: 5},
		Up:       geom.Vec3{Y: 1},
		Duration: time.Second,
		Style:    StyleFull,
	})

	t0 := time.Now()
	e.Tick(t0)
	e.Tick(t0.Add(time.Second))

	if e.Animating() {
		t.Fatal("segment should have finished")
	}
	final := e.Pose()
	if final.Distance() < minFocusDistance-poseTolerance {
		t.Errorf("final eye-focus distance %v below minimum", final.Distance())
	}
	if !vecEquals(final.Eye, geom.Vec3{X: 5}) {
		t.Errorf("final eye = %+v, want (5,0,0)", final.Eye)
	}
}

func TestEngine_SetPoseCancelsTransition(t *testing.T) {
	e := NewEngine(startPose())
	rec := &poseRecorder{}
	e.SetPoseSink(rec.record)

	e.Enqueue(Movement{Eye: geom.Vec3{X: 1}, Duration: time.Second})

	p := geom.Pose{Eye: geom.Vec3{X: 7}, Focus: geom.Vec3{}, Up: geom.Vec3{Y: 1}}
	e.SetPose(p)

	if e.Animating() {
		t.Error("SetPose should cancel the active transition")
	}
	if !vecEquals(e.Pose().Eye, p.Eye) {
		t.Errorf("pose after SetPose = %+v, want %+v", e.Pose().Eye, p.Eye)
	}
	if !vecEquals(rec.last().Eye, p.Eye) {
		t.Error("SetPose should emit the new pose")
	}
}

func TestEngine_ConcurrentEnqueueAndTick(t *testing.T) {
	e := NewEngine(startPose())
	e.SetPoseSink(func(geom.Pose) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Enqueue(Movement{Eye: geom.Vec3{X: float64(n)}, Duration: time.Millisecond})
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		now := time.Now()
		for j := 0; j < 500; j++ {
			e.Tick(now.Add(time.Duration(j) * time.Millisecond))
		}
	}()

	wg.Wait()
	// Passing means no race or deadlock; drain whatever is left.
	e.Cancel()
	if e.Animating() {
		t.Error("engine should be idle after final cancel")
	}
}

func TestEngine_ConvenienceMotions(t *testing.T) {
	settle := func(e *Engine) {
		now := time.Now()
		for i := 0; e.Animating() && i < 10; i++ {
			e.Tick(now.Add(time.Duration(i) * time.Hour))
		}
	}

	t.Run("LookAt keeps the eye fixed", func(t *testing.T) {
		e := NewEngine(startPose())
		point := geom.Vec3{X: 3, Y: 1}
		e.LookAt(point)
		settle(e)
		if !vecEquals(e.Pose().Eye, startPose().Eye) {
			t.Errorf("eye moved to %+v", e.Pose().Eye)
		}
		if !vecEquals(e.Pose().Focus, point) {
			t.Errorf("focus = %+v, want %+v", e.Pose().Focus, point)
		}
	})

	t.Run("OrbitTo keeps the focus fixed", func(t *testing.T) {
		e := NewEngine(startPose())
		eye := geom.Vec3{X: 5, Z: 5}
		e.OrbitTo(eye)
		settle(e)
		if !vecEquals(e.Pose().Focus, startPose().Focus) {
			t.Errorf("focus moved to %+v", e.Pose().Focus)
		}
		if !vecEquals(e.Pose().Eye, eye) {
			t.Errorf("eye = %+v, want %+v", e.Pose().Eye, eye)
		}
	})

	t.Run("MoveEyeWithFocusTo preserves the view direction", func(t *testing.T) {
		e := NewEngine(startPose())
		before := e.Pose().Direction()
		e.MoveEyeWithFocusTo(geom.Vec3{X: 2, Y: 2, Z: 2})
		settle(e)
		if !vecEquals(e.Pose().Direction(), before) {
			t.Errorf("view direction changed: %+v -> %+v", before, e.Pose().Direction())
		}
	})
}
