package widget

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/config"
	"github.com/1broseidon/taskbarwidget/internal/dispatch"
	"github.com/1broseidon/taskbarwidget/internal/dispatch/dispatchtest"
	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/platform/platformtest"
)

type byteMeasurer struct{}

func (byteMeasurer) Width(text string) float64 { return float64(7 * len(text)) }
func (byteMeasurer) Close() error              { return nil }

type recordingView struct {
	snaps []Snapshot
}

func (v *recordingView) Render(s Snapshot) { v.snaps = append(v.snaps, s) }

func (v *recordingView) last(t *testing.T) Snapshot {
	t.Helper()
	if len(v.snaps) == 0 {
		t.Fatalf("expected at least one render")
	}
	return v.snaps[len(v.snaps)-1]
}

type fixture struct {
	shell   *platformtest.Shell
	sched   *dispatchtest.Scheduler
	view    *recordingView
	taskbar platform.Handle
	now     time.Time
	w       *Widget
}

func newFixture(t *testing.T, cfg *config.Config, recreate func() error) *fixture {
	t.Helper()
	shell := platformtest.New()
	shell.Auto = platformtest.NewAutomation()
	shell.Monitor = []platform.Monitor{{DeviceID: "m0", Bounds: platform.Rect{Width: 1920, Height: 1080}, Primary: true}}
	taskbar := shell.AddWindow(platformtest.Window{Class: "Shell_TrayWnd", Rect: platform.Rect{X: 0, Y: 1032, Width: 1920, Height: 48}})

	f := &fixture{
		shell:   shell,
		sched:   dispatchtest.New(),
		view:    &recordingView{},
		taskbar: taskbar,
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.w = New(cfg, Deps{
		Shell:     shell,
		Scheduler: f.sched,
		Measurer:  byteMeasurer{},
		View:      f.view,
		Recreate:  recreate,
		Now:       func() time.Time { return f.now },
	})
	return f
}

// attach creates a surface, attaches it and drains the first geometry pass.
func (f *fixture) attach(t *testing.T) platform.Handle {
	t.Helper()
	h, err := f.shell.CreateSurface()
	if err != nil {
		t.Fatalf("create surface: %v", err)
	}
	if err := f.w.AttachSurface(h); err != nil {
		t.Fatalf("attach: %v", err)
	}
	f.sched.RunPending()
	return h
}

func (f *fixture) geometry() *dispatchtest.Timer {
	return f.w.geometryTimer.(*dispatchtest.Timer)
}

func (f *fixture) visibility() *dispatchtest.Timer {
	return f.w.visibilityTimer.(*dispatchtest.Timer)
}

func (f *fixture) clock() *dispatchtest.Timer {
	return f.w.clockTimer.(*dispatchtest.Timer)
}

func playing(title, artist string) Content {
	return Content{Title: title, Artist: artist, Status: StatusPlaying, Icon: []byte{1}}
}

func TestAttachSurface_EmbedsPlacesAndShows(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	h := f.attach(t)

	if got := f.shell.Parent(h); got != f.taskbar {
		t.Fatalf("expected surface parented to taskbar %v, got %v", f.taskbar, got)
	}
	want := platform.Rect{X: 20, Y: 4, Width: 103, Height: 40}
	if got := f.shell.Placed[h]; got != want {
		t.Fatalf("expected placement %+v, got %+v", want, got)
	}
	if len(f.shell.ShowCalls) != 1 || !f.shell.ShowCalls[0] {
		t.Fatalf("expected a single show, got %v", f.shell.ShowCalls)
	}
	if !f.geometry().Enabled() || !f.visibility().Enabled() {
		t.Fatalf("expected geometry and visibility timers running")
	}
	if f.clock().Enabled() {
		t.Fatalf("expected clock timer stopped")
	}
	st := f.w.Status()
	if !st.Embedded || !st.Visible || !st.IsMainTaskbar {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestAttachSurface_InactiveDoesNotStartTimers(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.PremiumUnlocked = false
	f := newFixture(t, cfg, nil)
	f.attach(t)

	if f.geometry().Enabled() || f.visibility().Enabled() {
		t.Fatalf("expected timers stopped for inactive widget")
	}
	if f.shell.PlaceCalls != 0 || len(f.shell.ShowCalls) != 0 {
		t.Fatalf("expected no placement or show, got %d places and %v", f.shell.PlaceCalls, f.shell.ShowCalls)
	}
}

func TestUpdateContent_RequestsGeometryAtBackground(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	h := f.attach(t)
	places := f.shell.PlaceCalls

	var order []string
	f.w.UpdateContent(playing("A much longer song title", "Artist"))
	f.sched.Post(dispatch.Normal, func() { order = append(order, "normal") })
	f.sched.RunPending()
	order = append(order, "done")

	if len(order) != 2 || order[0] != "normal" {
		t.Fatalf("expected normal work to run first, got %v", order)
	}
	if f.shell.PlaceCalls == places {
		t.Fatalf("expected a geometry pass after content update")
	}
	// 24 bytes * 7px = 168 logical text + 55 chrome, scaled by 0.9.
	if got := f.shell.Placed[h].Width; got != 200 {
		t.Fatalf("expected width 200, got %d", got)
	}
	snap := f.view.last(t)
	if snap.Title != "A much longer song title" || snap.Artist != "Artist" || !snap.ArtistVisible {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Placeholder || snap.Paused {
		t.Fatalf("expected playing snapshot with icon, got %+v", snap)
	}
}

func TestUpdateContent_SubstitutesMissingFields(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	f.attach(t)

	f.w.UpdateContent(Content{Title: "Song", Status: StatusPaused})
	snap := f.view.last(t)
	if snap.Title != "Song" || snap.Artist != NoMedia {
		t.Fatalf("expected dash artist, got %+v", snap)
	}
	if snap.ArtistVisible {
		t.Fatalf("expected artist line hidden")
	}
	if !snap.Paused || !snap.Placeholder {
		t.Fatalf("expected paused placeholder, got %+v", snap)
	}
}

func TestUpdateContent_AnimatesOnlyWhenBothLinesChange(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	f.attach(t)

	f.w.UpdateContent(playing("One", "Band"))
	if !f.view.last(t).Animate {
		t.Fatalf("expected first track to animate")
	}
	f.w.UpdateContent(playing("Two", "Band"))
	if f.view.last(t).Animate {
		t.Fatalf("expected title-only change not to animate")
	}
	f.sched.RunPending()
	if f.view.last(t).Animate {
		t.Fatalf("expected animation flag to reset after render")
	}
}

func TestUpdateContent_NoMedia(t *testing.T) {
	t.Run("placeholder", func(t *testing.T) {
		f := newFixture(t, config.DefaultConfig(), nil)
		f.attach(t)
		f.w.UpdateContent(playing("Song", "Band"))
		f.sched.RunPending()

		f.w.UpdateContent(Content{Title: NoMedia, Artist: NoMedia, Status: StatusClosed})
		snap := f.view.last(t)
		if snap.Title != "" || snap.Artist != "" || !snap.Placeholder {
			t.Fatalf("expected cleared placeholder, got %+v", snap)
		}
		if !f.w.Status().Visible {
			t.Fatalf("expected widget to stay visible")
		}
	})

	t.Run("hide completely", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Widget.HideCompletely = true
		f := newFixture(t, cfg, nil)
		f.attach(t)
		if len(f.shell.ShowCalls) != 0 {
			t.Fatalf("expected widget hidden before any media, got %v", f.shell.ShowCalls)
		}

		f.w.UpdateContent(playing("Song", "Band"))
		f.w.UpdateContent(Content{Title: NoMedia, Artist: NoMedia, Status: StatusStopped})
		want := []bool{true, false}
		if len(f.shell.ShowCalls) != 2 || f.shell.ShowCalls[0] != want[0] || f.shell.ShowCalls[1] != want[1] {
			t.Fatalf("expected show calls %v, got %v", want, f.shell.ShowCalls)
		}
	})
}

func TestReconfigure_ShowingNoMediaAfterHideCompletelyIsCleared(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.HideCompletely = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	c := playing("Song", "Band")
	c.Icon = []byte{1, 2, 3}
	f.w.UpdateContent(c)
	f.w.UpdateContent(Content{Title: NoMedia, Artist: NoMedia, Status: StatusStopped})

	next := config.DefaultConfig()
	next.Widget.HideCompletely = false
	f.w.Reconfigure(next)

	snap := f.view.last(t)
	if !snap.Visible {
		t.Fatalf("expected placeholder to show once hide_completely is off")
	}
	if snap.Title != "" || snap.Artist != "" || !snap.Placeholder {
		t.Fatalf("expected cleared placeholder, got %+v", snap)
	}
}

func TestUpdateContent_InactiveHidesAndStops(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	f.attach(t)

	cfg := *f.w.cfg
	cfg.Widget.Enabled = false
	f.w.Reconfigure(&cfg)
	f.w.UpdateContent(playing("Song", "Band"))

	if f.geometry().Enabled() || f.visibility().Enabled() {
		t.Fatalf("expected timers stopped")
	}
	if last := f.shell.ShowCalls[len(f.shell.ShowCalls)-1]; last {
		t.Fatalf("expected widget hidden, got %v", f.shell.ShowCalls)
	}
}

func TestTimeline_ClockRunsOnlyWhilePlaying(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.ShowTime = true
	f := newFixture(t, cfg, nil)
	h := f.attach(t)

	c := playing("Song", "Band")
	c.Timeline = &Timeline{Position: 30 * time.Second, LastUpdated: f.now.Add(-10 * time.Second), Duration: 3 * time.Minute}
	f.w.UpdateContent(c)
	if got := f.view.last(t).TimeText; got != "0:40 / 3:00" {
		t.Fatalf("expected 0:40 / 3:00, got %q", got)
	}
	if !f.clock().Enabled() {
		t.Fatalf("expected clock running while playing")
	}
	f.sched.RunPending()
	if got := f.shell.Placed[h].Width; got != 162 {
		t.Fatalf("expected width to include the time readout, got %d", got)
	}

	f.now = f.now.Add(5 * time.Second)
	f.clock().Fire()
	if got := f.view.last(t).TimeText; got != "0:45 / 3:00" {
		t.Fatalf("expected 0:45 / 3:00 after tick, got %q", got)
	}

	// Same track without a timeline reuses the last snapshot.
	f.w.UpdateContent(Content{Title: "Song", Artist: "Band", Status: StatusPaused})
	if got := f.view.last(t).TimeText; got != "0:30 / 3:00" {
		t.Fatalf("expected frozen 0:30 / 3:00, got %q", got)
	}
	if f.clock().Enabled() {
		t.Fatalf("expected clock stopped while paused")
	}
}

func TestTimeline_NewTrackWithoutTimelineHidesReadout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.ShowTime = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	c := playing("Song", "Band")
	c.Timeline = &Timeline{Position: time.Second, LastUpdated: f.now, Duration: time.Minute}
	f.w.UpdateContent(c)
	f.w.UpdateContent(playing("Other", "Group"))

	snap := f.view.last(t)
	if snap.TimeVisible || snap.TimeText != "" {
		t.Fatalf("expected readout hidden for a new track, got %+v", snap)
	}
	if f.clock().Enabled() {
		t.Fatalf("expected clock stopped")
	}
}

func TestTimeline_NewTrackNeverReusesPreviousTimeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.ShowTime = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	c := playing("Song", "Band")
	c.Timeline = &Timeline{Position: 30 * time.Second, LastUpdated: f.now, Duration: 3 * time.Minute}
	f.w.UpdateContent(c)
	f.w.UpdateContent(playing("Other", "Group"))
	f.w.UpdateContent(Content{Title: "Other", Artist: "Group", Status: StatusPaused})

	snap := f.view.last(t)
	if snap.TimeVisible || snap.TimeText != "" {
		t.Fatalf("expected no readout for the new track, got visible=%v text=%q", snap.TimeVisible, snap.TimeText)
	}
}

func TestTimeline_NoMediaDropsTimeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.ShowTime = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	c := playing("Song", "Band")
	c.Timeline = &Timeline{Position: 30 * time.Second, LastUpdated: f.now, Duration: 3 * time.Minute}
	f.w.UpdateContent(c)
	f.w.UpdateContent(Content{Title: NoMedia, Artist: NoMedia, Status: StatusClosed})
	f.w.UpdateContent(playing("Song", "Band"))

	if snap := f.view.last(t); snap.TimeVisible {
		t.Fatalf("expected readout hidden after no media, got %q", snap.TimeText)
	}
}

func TestUpdateTimeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.ShowTime = true
	f := newFixture(t, cfg, nil)
	f.attach(t)
	f.w.UpdateContent(playing("Song", "Band"))

	f.w.UpdateTimeline(Timeline{Position: 500 * time.Millisecond, LastUpdated: f.now, Duration: 500 * time.Millisecond})
	if f.view.last(t).TimeVisible {
		t.Fatalf("expected sub-second duration to stay hidden")
	}

	f.w.UpdateTimeline(Timeline{Position: 65 * time.Second, LastUpdated: f.now, Duration: 90 * time.Minute})
	snap := f.view.last(t)
	if !snap.TimeVisible || snap.TimeText != "0:01:05 / 1:30:00" {
		t.Fatalf("expected hour readout, got %+v", snap)
	}
	if !f.clock().Enabled() {
		t.Fatalf("expected clock started while playing")
	}
}

func TestVisibility_HidesForMaximizedForeground(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.HideOnMaximized = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	app := f.shell.AddWindow(platformtest.Window{Class: "Editor", Rect: platform.Rect{Width: 1920, Height: 1032}, ShowState: platform.ShowMaximized})
	f.shell.Foreground = app

	f.visibility().Fire()
	f.visibility().Fire()
	if want := []bool{true, false}; len(f.shell.ShowCalls) != 2 || f.shell.ShowCalls[1] {
		t.Fatalf("expected show calls %v, got %v", want, f.shell.ShowCalls)
	}
	if !f.w.Status().HiddenForMaximized {
		t.Fatalf("expected status to report maximized hide")
	}

	f.shell.Windows[app].ShowState = platform.ShowNormal
	f.visibility().Fire()
	f.visibility().Fire()
	if len(f.shell.ShowCalls) != 3 || !f.shell.ShowCalls[2] {
		t.Fatalf("expected a single show after restore, got %v", f.shell.ShowCalls)
	}
}

func TestVisibility_TaskbarForegroundNeverHides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.HideOnMaximized = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	f.shell.Windows[f.taskbar].ShowState = platform.ShowMaximized
	f.shell.Foreground = f.taskbar
	for i := 0; i < 3; i++ {
		f.visibility().Fire()
	}
	if len(f.shell.ShowCalls) != 1 {
		t.Fatalf("expected no hide for taskbar foreground, got %v", f.shell.ShowCalls)
	}
}

func TestVisibility_ExclusiveFullscreen(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	f.attach(t)

	f.shell.Notification = platform.NotificationRunningD3DFullscreen
	f.visibility().Fire()
	if f.w.Status().Visible {
		t.Fatalf("expected widget hidden during exclusive fullscreen")
	}
	f.shell.Notification = platform.NotificationAcceptsNotifications
	f.visibility().Fire()
	if !f.w.Status().Visible {
		t.Fatalf("expected widget shown after fullscreen ends")
	}
}

func TestVisibility_DisablingPolicyReleasesHide(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.HideOnMaximized = true
	f := newFixture(t, cfg, nil)
	f.attach(t)

	app := f.shell.AddWindow(platformtest.Window{Class: "Editor", Rect: platform.Rect{Width: 1920, Height: 1032}, ShowState: platform.ShowMaximized})
	f.shell.Foreground = app
	f.visibility().Fire()
	if f.w.Status().Visible {
		t.Fatalf("expected widget hidden")
	}

	next := *f.w.cfg
	next.Widget.HideOnMaximized = false
	next.Widget.DisableIfFullscreen = false
	f.w.Reconfigure(&next)
	f.visibility().Fire()
	if !f.w.Status().Visible {
		t.Fatalf("expected widget shown once the policy is off")
	}
}

func TestRecovery_LossSchedulesOnce(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	h := f.attach(t)

	f.shell.Remove(h)
	f.geometry().Fire()
	f.geometry().Fire()

	if f.geometry().Enabled() || f.visibility().Enabled() {
		t.Fatalf("expected timers stopped after loss")
	}
	if got := f.sched.Delays(); len(got) != 1 || got[0] != time.Second {
		t.Fatalf("expected one recovery after 1s, got %v", got)
	}

	f.sched.ElapseDelays()
	next := f.w.Surface()
	if next == 0 || next == h {
		t.Fatalf("expected a new surface, got %v", next)
	}
	if f.shell.Created != 2 {
		t.Fatalf("expected two surfaces created, got %d", f.shell.Created)
	}
	if got := f.shell.Parent(next); got != f.taskbar {
		t.Fatalf("expected new surface embedded, parent %v", got)
	}
	if !f.geometry().Enabled() || !f.w.Status().Visible {
		t.Fatalf("expected widget running again, status %+v", f.w.Status())
	}
	if f.w.Status().RecoveryAttempts != 0 {
		t.Fatalf("expected attempts reset after success")
	}
}

func TestRecovery_StopsAfterCap(t *testing.T) {
	calls := 0
	fail := func() error {
		calls++
		return errors.New("no surface")
	}
	f := newFixture(t, config.DefaultConfig(), fail)
	h := f.attach(t)
	f.shell.Remove(h)

	f.geometry().Fire()
	for i := 0; i < 5; i++ {
		if f.sched.PendingDelayed() != 1 {
			t.Fatalf("attempt %d: expected one scheduled recovery, got %d", i, f.sched.PendingDelayed())
		}
		f.sched.ElapseDelays()
		f.w.UpdateContent(playing("Song", "Band"))
		f.geometry().Fire()
	}

	if calls != 5 {
		t.Fatalf("expected 5 recreate attempts, got %d", calls)
	}
	st := f.w.Status()
	if !st.RecoveryExhausted || st.RecoveryAttempts != 5 {
		t.Fatalf("expected exhausted recovery, got %+v", st)
	}
	if st.GeometryTimer || st.VisibilityTimer {
		t.Fatalf("expected timers to stay stopped, got %+v", st)
	}
	f.sched.RunPending()
	if f.sched.PendingDelayed() != 0 {
		t.Fatalf("expected no further recovery, got %d", f.sched.PendingDelayed())
	}
}

func TestReconfigure_MonitorChangeInvalidatesProbe(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	f.shell.Auto.ByID["WidgetsButton"] = &platformtest.Element{Rect: platform.Rect{X: 0, Y: 1032, Width: 160, Height: 48}}
	f.attach(t)
	if f.shell.Auto.Lookups != 1 {
		t.Fatalf("expected one lookup, got %d", f.shell.Auto.Lookups)
	}

	f.geometry().Fire()
	f.sched.RunPending()
	if f.shell.Auto.Lookups != 1 {
		t.Fatalf("expected cached element reuse, got %d lookups", f.shell.Auto.Lookups)
	}

	next := *f.w.cfg
	next.Widget.Monitor = 1
	f.w.Reconfigure(&next)
	f.sched.RunPending()
	if f.shell.Auto.Lookups != 2 {
		t.Fatalf("expected a fresh lookup after monitor change, got %d", f.shell.Auto.Lookups)
	}
}

func TestReconfigure_IntervalChangeRecreatesTimers(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	f.attach(t)
	old := f.geometry()

	next := *f.w.cfg
	next.Timing.GeometryInterval = 3 * time.Second
	f.w.Reconfigure(&next)

	if old.Enabled() {
		t.Fatalf("expected old geometry timer stopped")
	}
	if got := f.geometry(); got == old || got.Interval != 3*time.Second || !got.Enabled() {
		t.Fatalf("expected running 3s geometry timer, got %+v", got)
	}
}

func TestShutdown_DestroysSurface(t *testing.T) {
	f := newFixture(t, config.DefaultConfig(), nil)
	h := f.attach(t)

	f.w.Shutdown()
	if f.shell.IsWindow(h) || f.shell.Destroyed != 1 {
		t.Fatalf("expected surface destroyed")
	}
	if f.geometry().Enabled() || f.visibility().Enabled() || f.clock().Enabled() {
		t.Fatalf("expected all timers stopped")
	}
}
