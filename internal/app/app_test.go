package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemmist/lazy-layout/internal/config"
	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/engine"
	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/host/hosttest"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
	"github.com/alchemmist/lazy-layout/internal/store"
)

type fakeHost struct {
	*hosttest.Host
	session  string
	window   host.SurfaceID
	socket   string
	switched []string

	callerSession string
	callerWindow  host.SurfaceID
}

func (f *fakeHost) CurrentSession() (string, error) { return f.session, nil }

func (f *fakeHost) CurrentWindow() (host.SurfaceID, string, error) {
	return f.window, "editor", nil
}

func (f *fakeHost) CallerPane() (string, host.SurfaceID, error) {
	return f.callerSession, f.callerWindow, nil
}

func (f *fakeHost) SocketPath() string { return f.socket }

func (f *fakeHost) SwitchClient(target string) error {
	f.switched = append(f.switched, target)
	return nil
}

func rect(l, t, r, b int) snapshot.Bounds {
	return snapshot.Bounds{Left: l, Top: t, Right: r, Bottom: b}
}

func fileUnit(path string) content.Unit {
	return content.Unit{Kind: snapshot.KindFile, Path: path}
}

// newFakeHost returns a host whose only window is an empty 80x24 pane,
// with /a, /b and /c openable.
func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()
	h := hosttest.New()
	for _, p := range []string{"/a", "/b", "/c"} {
		h.AddFile(p, 10)
	}
	w := h.AddSurface(snapshot.Size{Width: 80, Height: 24}, snapshot.Position{}, hosttest.Pane(rect(0, 0, 80, 24), content.Unit{}))
	return &fakeHost{Host: h, session: "demo", window: w, socket: filepath.Join(t.TempDir(), "sock")}
}

func newTestApp(t *testing.T, dataDir string, h *fakeHost) *App {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	return newApp(config.Config{DataDir: dataDir, MinPaneWidth: 2, MinPaneHeight: 2}, h, zaptest.NewLogger(t))
}

func TestSelectWithFZFNoRecords(t *testing.T) {
	a := &App{store: store.New(t.TempDir())}
	_, err := a.SelectWithFZF()
	assert.ErrorContains(t, err, "no saved layouts found")
}

func TestBootstrapLastWithoutRecordsReturnsNil(t *testing.T) {
	a := &App{store: store.New(t.TempDir())}
	assert.NoError(t, a.Bootstrap("last"))
}

func TestBootstrapEmptyAliasWithoutRecordsReturnsNil(t *testing.T) {
	a := &App{store: store.New(t.TempDir())}
	assert.NoError(t, a.Bootstrap("  "))
}

func TestBootstrapUnknownNameReturnsNil(t *testing.T) {
	a := &App{store: store.New(t.TempDir())}
	assert.NoError(t, a.Bootstrap("missing"))
}

func TestAcquireLockIsExclusive(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	unlock1, err := acquireLock("/tmp/tmux.sock")
	require.NoError(t, err)
	defer unlock1()

	_, err = acquireLock("/tmp/tmux.sock")
	assert.ErrorIs(t, err, ErrBusy)

	other, err := acquireLock("/tmp/other.sock")
	require.NoError(t, err)
	other()

	unlock1()

	unlock2, err := acquireLock("/tmp/tmux.sock")
	require.NoError(t, err)
	require.NotNil(t, unlock2)
	unlock2()
}

func TestSaveSurfaceThenRestoreElsewhere(t *testing.T) {
	dataDir := t.TempDir()
	src := newFakeHost(t)
	src.window = src.AddSurface(snapshot.Size{Width: 100, Height: 30}, snapshot.Position{}, hosttest.Split(snapshot.SideBySide, rect(0, 0, 100, 30),
		hosttest.Pane(rect(0, 0, 50, 30), fileUnit("/a")),
		hosttest.Pane(rect(50, 0, 100, 30), fileUnit("/b")),
	))

	name, err := newTestApp(t, dataDir, src).SaveSurface("")
	require.NoError(t, err)
	assert.Equal(t, "demo:editor", name)

	dst := newFakeHost(t)
	a := newTestApp(t, dataDir, dst)
	rep, err := a.Restore(name, true)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Count(engine.Restored))
	assert.Equal(t, []string{string(dst.window)}, dst.switched)

	panes := dst.Panes(dst.window)
	require.Len(t, panes, 2)
	assert.Equal(t, "/a", dst.UnitIn(panes[0]).Path)
	assert.Equal(t, "/b", dst.UnitIn(panes[1]).Path)
}

func TestRestoreReportsMissingContent(t *testing.T) {
	dataDir := t.TempDir()
	src := newFakeHost(t)
	src.window = src.AddSurface(snapshot.Size{Width: 100, Height: 30}, snapshot.Position{}, hosttest.Split(snapshot.Stacked, rect(0, 0, 100, 30),
		hosttest.Pane(rect(0, 0, 100, 15), fileUnit("/a")),
		hosttest.Pane(rect(0, 15, 100, 30), fileUnit("/gone")),
	))
	_, err := newTestApp(t, dataDir, src).SaveSurface("logs")
	require.NoError(t, err)

	restored, missed, err := newTestApp(t, dataDir, newFakeHost(t)).RestoreRecord(snapshot.Record{Name: "logs", Kind: snapshot.KindSession}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, missed)
}

func TestSaveWorkspaceThenRestoreRecord(t *testing.T) {
	dataDir := t.TempDir()
	src := newFakeHost(t)
	second := src.AddSurface(snapshot.Size{Width: 60, Height: 20}, snapshot.Position{}, hosttest.Pane(rect(0, 0, 60, 20), fileUnit("/c")))
	src.SetFocused(second)
	src.AddSurface(snapshot.Size{Width: 60, Height: 20}, snapshot.Position{}, hosttest.Pane(rect(0, 0, 60, 20), fileUnit("/b")))

	name, err := newTestApp(t, dataDir, src).SaveWorkspace("")
	require.NoError(t, err)
	assert.Equal(t, "demo", name)

	dst := newFakeHost(t)
	a := newTestApp(t, dataDir, dst)
	restored, missed, err := a.RestoreRecord(snapshot.Record{Name: "demo", Kind: snapshot.KindWorkspace}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.Zero(t, missed)

	ids := dst.SurfaceIDs()
	require.Len(t, ids, 2)
	assert.Equal(t, "/c", dst.UnitIn(dst.Panes(ids[0])[0]).Path)
	assert.Equal(t, []string{string(ids[0])}, dst.switched)
}

func TestRestoreMissingRecordIsNotExist(t *testing.T) {
	a := newTestApp(t, t.TempDir(), newFakeHost(t))
	_, err := a.Restore("nope", false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = a.RestoreWorkspace("nope", false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = a.Restore(" ", false)
	assert.Error(t, err)
}

func TestSaveWhileLockedIsBusy(t *testing.T) {
	h := newFakeHost(t)
	a := newTestApp(t, t.TempDir(), h)
	unlock, err := acquireLock(h.socket)
	require.NoError(t, err)
	defer unlock()

	_, err = a.SaveSurface("x")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSaveNothingCapturable(t *testing.T) {
	a := newTestApp(t, t.TempDir(), newFakeHost(t))
	_, err := a.SaveSurface("empty")
	assert.ErrorIs(t, err, engine.ErrNothingCaptured)
}

func TestFindRecordAndDelete(t *testing.T) {
	dataDir := t.TempDir()
	a := newTestApp(t, dataDir, newFakeHost(t))
	layout := snapshot.LeafNode(snapshot.Leaf{Content: snapshot.File("/a", 0), Bounds: rect(0, 0, 10, 10)})
	now := time.Now().UTC()
	require.NoError(t, a.store.SaveSession(snapshot.SessionRecord{Name: "dev", CapturedAt: now, Layout: layout}))
	require.NoError(t, a.store.SaveWorkspace(snapshot.WorkspaceRecord{Name: "dev", CapturedAt: now.Add(time.Minute), Surfaces: []snapshot.SurfaceSnapshot{{Layout: layout}}}))

	rec, err := a.FindRecord("dev", "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.KindSession, rec.Kind)

	rec, err = a.FindRecord("dev", snapshot.KindWorkspace)
	require.NoError(t, err)
	assert.Equal(t, snapshot.KindWorkspace, rec.Kind)

	require.NoError(t, a.Delete("dev", ""))
	recs, err := a.ListRecords()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, snapshot.KindWorkspace, recs[0].Kind)

	assert.ErrorIs(t, a.Delete("dev", snapshot.KindSession), os.ErrNotExist)
}

func TestBootstrapRestoresLatest(t *testing.T) {
	dataDir := t.TempDir()
	h := newFakeHost(t)
	a := newTestApp(t, dataDir, h)
	require.NoError(t, a.store.SaveSession(snapshot.SessionRecord{
		Name:       "old",
		CapturedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Size:       snapshot.Size{Width: 80, Height: 24},
		Layout:     snapshot.LeafNode(snapshot.Leaf{Content: snapshot.File("/a", 0), Bounds: rect(0, 0, 80, 24)}),
	}))
	require.NoError(t, a.store.SaveSession(snapshot.SessionRecord{
		Name:       "new",
		CapturedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Size:       snapshot.Size{Width: 80, Height: 24},
		Layout:     snapshot.LeafNode(snapshot.Leaf{Content: snapshot.File("/b", 0), Bounds: rect(0, 0, 80, 24)}),
	}))

	require.NoError(t, a.Bootstrap("last"))
	assert.Equal(t, "/b", h.UnitIn(h.Panes(h.window)[0]).Path)
	assert.Equal(t, []string{string(h.window)}, h.switched)
}

func TestNewWithoutLoggerFallsBack(t *testing.T) {
	a := New(config.Config{DataDir: t.TempDir(), TmuxBin: "tmux", LogLevel: "bogus", MinPaneWidth: 2, MinPaneHeight: 2}, nil)
	require.NotNil(t, a.log)

	recs, err := a.ListRecords()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRestoreRefusesCallerWindow(t *testing.T) {
	dataDir := t.TempDir()
	src := newFakeHost(t)
	src.window = src.AddSurface(snapshot.Size{Width: 80, Height: 24}, snapshot.Position{}, hosttest.Pane(rect(0, 0, 80, 24), fileUnit("/a")))
	_, err := newTestApp(t, dataDir, src).SaveSurface("solo")
	require.NoError(t, err)

	dst := newFakeHost(t)
	dst.callerSession, dst.callerWindow = "demo", dst.window
	_, err = newTestApp(t, dataDir, dst).Restore("solo", false)
	assert.ErrorIs(t, err, ErrCallerInTarget)
	assert.Empty(t, dst.Calls)

	dst.callerWindow = "@other"
	rep, err := newTestApp(t, dataDir, dst).Restore("solo", false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Count(engine.Restored))
}

func TestRestoreWorkspaceRefusesCallerSession(t *testing.T) {
	dataDir := t.TempDir()
	src := newFakeHost(t)
	src.AddSurface(snapshot.Size{Width: 60, Height: 20}, snapshot.Position{}, hosttest.Pane(rect(0, 0, 60, 20), fileUnit("/c")))
	_, err := newTestApp(t, dataDir, src).SaveWorkspace("desk")
	require.NoError(t, err)

	dst := newFakeHost(t)
	dst.callerSession, dst.callerWindow = "demo", "@other"
	_, err = newTestApp(t, dataDir, dst).RestoreWorkspace("desk", false)
	assert.ErrorIs(t, err, ErrCallerInTarget)
	assert.Empty(t, dst.Calls)

	dst.callerSession = "elsewhere"
	rep, err := newTestApp(t, dataDir, dst).RestoreWorkspace("desk", false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Count(engine.Restored))
}
