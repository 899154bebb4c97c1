package app

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemmist/lazy-layout/internal/config"
	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/engine"
	"github.com/alchemmist/lazy-layout/internal/geometry"
	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/logging"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
	"github.com/alchemmist/lazy-layout/internal/store"
	"github.com/alchemmist/lazy-layout/internal/tmux"
)

// Host is the live multiplexer the app captures from and restores into.
type Host interface {
	host.Windowing
	content.Host
	CurrentSession() (string, error)
	CurrentWindow() (host.SurfaceID, string, error)
	CallerPane() (string, host.SurfaceID, error)
	SocketPath() string
	SwitchClient(target string) error
}

// ErrCallerInTarget means a restore would kill the pane running this
// command before it finished.
var ErrCallerInTarget = errors.New("restore would replace the pane running this command; run it from a popup or a run-shell binding")

type App struct {
	cfg    config.Config
	store  *store.Store
	host   Host
	engine *engine.Engine
	log    *zap.Logger
}

// New wires the app to tmux. A nil log is built from cfg.LogLevel.
func New(cfg config.Config, log *zap.Logger) *App {
	if log == nil {
		log = logging.Must(cfg.LogLevel, false)
	}
	client := tmux.NewClient(cfg.TmuxBin,
		tmux.WithSession(cfg.Session),
		tmux.WithEditor(cfg.Editor),
		tmux.WithPager(cfg.Pager),
		tmux.WithLogger(log.Named("tmux")),
	)
	return newApp(cfg, client, log)
}

func newApp(cfg config.Config, h Host, log *zap.Logger) *App {
	reg := content.NewRegistry(content.WithSettleDelay(cfg.SettleDelay))
	for kind, cmd := range cfg.Producers {
		reg.RegisterProducer(kind, tmux.CommandProducer(kind, cmd))
	}
	eng := engine.New(h, h, reg,
		engine.WithMinSize(geometry.MinSize{Width: cfg.MinPaneWidth, Height: cfg.MinPaneHeight}),
		engine.WithLogger(log.Named("engine")),
	)
	return &App{
		cfg:    cfg,
		store:  store.New(cfg.DataDir),
		host:   h,
		engine: eng,
		log:    log,
	}
}

// SaveSurface captures the current window as a session record. An empty
// name becomes "<session>:<window>".
func (a *App) SaveSurface(name string) (string, error) {
	s, window, err := a.host.CurrentWindow()
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		session, err := a.host.CurrentSession()
		if err != nil {
			return "", err
		}
		name = session + ":" + window
	}

	unlock, err := acquireLock(a.host.SocketPath())
	if err != nil {
		return "", err
	}
	defer unlock()

	rec, err := a.engine.CaptureSession(name, s)
	if err != nil {
		return "", err
	}
	if err := a.store.SaveSession(rec); err != nil {
		return "", err
	}
	a.log.Info("saved session", zap.String("name", name), zap.Int("panes", len(rec.Layout.Leaves())))
	return name, nil
}

// SaveWorkspace captures every window of the session. An empty name
// becomes the session name.
func (a *App) SaveWorkspace(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		session, err := a.host.CurrentSession()
		if err != nil {
			return "", err
		}
		name = session
	}

	unlock, err := acquireLock(a.host.SocketPath())
	if err != nil {
		return "", err
	}
	defer unlock()

	rec, err := a.engine.CaptureWorkspace(name)
	if err != nil {
		return "", err
	}
	if err := a.store.SaveWorkspace(rec); err != nil {
		return "", err
	}
	a.log.Info("saved workspace", zap.String("name", name), zap.Int("surfaces", len(rec.Surfaces)))
	return name, nil
}

// Restore rebuilds a saved session in the current window.
func (a *App) Restore(name string, switchClient bool) (engine.Report, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return engine.Report{}, fmt.Errorf("empty session name")
	}
	rec, err := a.store.LoadSession(name)
	if err != nil {
		return engine.Report{}, err
	}
	s, _, err := a.host.CurrentWindow()
	if err != nil {
		return engine.Report{}, err
	}
	_, callerWindow, err := a.host.CallerPane()
	if err != nil {
		return engine.Report{}, err
	}
	if callerWindow == s {
		return engine.Report{}, fmt.Errorf("window %s: %w", s, ErrCallerInTarget)
	}

	unlock, err := acquireLock(a.host.SocketPath())
	if err != nil {
		return engine.Report{}, err
	}
	defer unlock()

	rep, err := a.engine.RestoreSession(rec, s)
	if err != nil {
		return rep, err
	}
	a.logReport(name, rep)
	if switchClient {
		return rep, a.host.SwitchClient(string(s))
	}
	return rep, nil
}

// RestoreWorkspace replaces the session's windows with a saved workspace.
func (a *App) RestoreWorkspace(name string, switchClient bool) (engine.WorkspaceReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return engine.WorkspaceReport{}, fmt.Errorf("empty workspace name")
	}
	rec, err := a.store.LoadWorkspace(name)
	if err != nil {
		return engine.WorkspaceReport{}, err
	}
	callerSession, _, err := a.host.CallerPane()
	if err != nil {
		return engine.WorkspaceReport{}, err
	}
	if callerSession != "" {
		session, err := a.host.CurrentSession()
		if err != nil {
			return engine.WorkspaceReport{}, err
		}
		if callerSession == session {
			return engine.WorkspaceReport{}, fmt.Errorf("session %s: %w", session, ErrCallerInTarget)
		}
	}

	unlock, err := acquireLock(a.host.SocketPath())
	if err != nil {
		return engine.WorkspaceReport{}, err
	}
	defer unlock()

	rep, err := a.engine.RestoreWorkspace(rec)
	for _, s := range rep.Surfaces {
		a.logReport(name, s.Report)
	}
	if err != nil {
		return rep, err
	}
	if switchClient && len(rep.Surfaces) > 0 {
		return rep, a.host.SwitchClient(string(rep.Surfaces[0].Surface))
	}
	return rep, nil
}

// RestoreRecord restores rec according to its kind and returns how many
// leaves came back and how many did not.
func (a *App) RestoreRecord(rec snapshot.Record, switchClient bool) (restored, missed int, err error) {
	switch rec.Kind {
	case snapshot.KindWorkspace:
		rep, err := a.RestoreWorkspace(rec.Name, switchClient)
		return rep.Count(engine.Restored), rep.Count(engine.Unavailable) + rep.Count(engine.Failed), err
	case snapshot.KindSession, "":
		rep, err := a.Restore(rec.Name, switchClient)
		return rep.Count(engine.Restored), rep.Count(engine.Unavailable) + rep.Count(engine.Failed), err
	}
	return 0, 0, fmt.Errorf("unknown record kind %q", rec.Kind)
}

func (a *App) logReport(name string, rep engine.Report) {
	for _, l := range rep.Leaves {
		if l.Outcome == engine.Restored {
			continue
		}
		a.log.Warn("pane not restored",
			zap.String("record", name),
			zap.String("pane", string(l.Pane)),
			zap.Stringer("outcome", l.Outcome),
			zap.Stringer("content", l.Content),
			zap.Error(l.Err))
	}
}

// Bootstrap restores name, or the newest record for "last" or an empty
// name. Having nothing saved is not an error.
func (a *App) Bootstrap(name string) error {
	target := strings.TrimSpace(name)
	var rec snapshot.Record
	var err error
	if target == "" || target == "last" {
		rec, err = a.store.LatestRecord()
	} else {
		rec, err = a.FindRecord(target, "")
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	_, _, err = a.RestoreRecord(rec, true)
	return err
}

// FindRecord looks a record up by name. An empty kind matches either
// kind, preferring a session.
func (a *App) FindRecord(name string, kind snapshot.RecordKind) (snapshot.Record, error) {
	records, err := a.store.ListRecords()
	if err != nil {
		return snapshot.Record{}, err
	}
	var found *snapshot.Record
	for i, r := range records {
		if r.Name != name || (kind != "" && r.Kind != kind) {
			continue
		}
		if found == nil || r.Kind == snapshot.KindSession {
			found = &records[i]
		}
	}
	if found == nil {
		return snapshot.Record{}, fmt.Errorf("%q: %w", name, store.ErrNotFound)
	}
	return *found, nil
}

func (a *App) Delete(name string, kind snapshot.RecordKind) error {
	rec, err := a.FindRecord(strings.TrimSpace(name), kind)
	if err != nil {
		return err
	}
	return a.store.Delete(rec.Kind, rec.Name)
}

func (a *App) ListRecords() ([]snapshot.Record, error) {
	return a.store.ListRecords()
}

func (a *App) pickerRecords() ([]snapshot.Record, error) {
	records, err := a.store.ListRecords()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no saved layouts found")
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].CapturedAt.After(records[j].CapturedAt) })
	return records, nil
}

func (a *App) SelectWithTUI() (snapshot.Record, error) {
	records, err := a.pickerRecords()
	if err != nil {
		return snapshot.Record{}, err
	}
	return chooseRecord(records)
}

func (a *App) SelectWithFZF() (snapshot.Record, error) {
	records, err := a.pickerRecords()
	if err != nil {
		return snapshot.Record{}, err
	}
	return chooseRecordFZF(records)
}
