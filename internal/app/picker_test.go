package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemmist/lazy-layout/internal/snapshot"
	"github.com/alchemmist/lazy-layout/internal/store"
)

func leafLayout() snapshot.Node {
	return snapshot.LeafNode(snapshot.Leaf{Content: snapshot.File("/a", 0), Bounds: rect(0, 0, 10, 10)})
}

func TestPickerRecordsEmpty(t *testing.T) {
	a := &App{store: store.New(t.TempDir())}

	_, err := a.pickerRecords()
	assert.ErrorContains(t, err, "no saved layouts found")
}

func TestPickerRecordsSortedByCapturedAt(t *testing.T) {
	a := &App{store: store.New(t.TempDir())}
	base := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.store.SaveSession(snapshot.SessionRecord{Name: "old", CapturedAt: base.Add(-2 * time.Hour), Layout: leafLayout()}))
	require.NoError(t, a.store.SaveWorkspace(snapshot.WorkspaceRecord{
		Name:       "new",
		CapturedAt: base.Add(-time.Hour),
		Surfaces:   []snapshot.SurfaceSnapshot{{Layout: leafLayout()}},
	}))
	require.NoError(t, a.store.SaveSession(snapshot.SessionRecord{Name: "latest", CapturedAt: base, Layout: leafLayout()}))

	recs, err := a.pickerRecords()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"latest", "new", "old"}, []string{recs[0].Name, recs[1].Name, recs[2].Name})
	assert.Equal(t, snapshot.KindWorkspace, recs[1].Kind)
}

func pickerFixtures() []snapshot.Record {
	now := time.Now().UTC()
	return []snapshot.Record{
		{Name: "alpha", Kind: snapshot.KindSession, CapturedAt: now, Surfaces: 1, Panes: 1},
		{Name: "beta", Kind: snapshot.KindWorkspace, CapturedAt: now.Add(-time.Minute), Surfaces: 2, Panes: 3},
	}
}

func TestChooseRecordFZFSuccess(t *testing.T) {
	t.Setenv("PATH", withFakeFZF(t, "#!/bin/sh\nprintf 'beta\\tworkspace\\t2026-02-28 10:00:00\\t2s/3p\\n'\n")+":"+os.Getenv("PATH"))

	selected, err := chooseRecordFZF(pickerFixtures())
	require.NoError(t, err)
	assert.Equal(t, "beta", selected.Name)
	assert.Equal(t, snapshot.KindWorkspace, selected.Kind)
}

func TestChooseRecordFZFUnknownKind(t *testing.T) {
	t.Setenv("PATH", withFakeFZF(t, "#!/bin/sh\nprintf 'beta\\tsession\\t-\\t1s/1p\\n'\n")+":"+os.Getenv("PATH"))

	_, err := chooseRecordFZF(pickerFixtures())
	assert.ErrorContains(t, err, "unknown layout")
}

func TestChooseRecordFZFEmptySelection(t *testing.T) {
	t.Setenv("PATH", withFakeFZF(t, "#!/bin/sh\nexit 0\n")+":"+os.Getenv("PATH"))

	_, err := chooseRecordFZF(pickerFixtures())
	assert.ErrorContains(t, err, "no layout selected")
}

func TestChooseRecordFZFCommandFailure(t *testing.T) {
	t.Setenv("PATH", withFakeFZF(t, "#!/bin/sh\nexit 130\n")+":"+os.Getenv("PATH"))

	_, err := chooseRecordFZF(pickerFixtures())
	assert.ErrorContains(t, err, "fzf selection canceled or failed")
}

func withFakeFZF(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fzf"), []byte(script), 0o755))
	return dir
}

func TestFuzzyScore(t *testing.T) {
	score, ok := fuzzyScore("", "anything")
	assert.True(t, ok)
	assert.Equal(t, 1, score)

	_, ok = fuzzyScore("xyz", "alpha session")
	assert.False(t, ok)

	contiguous, ok := fuzzyScore("alp", "alpha")
	require.True(t, ok)
	scattered, ok := fuzzyScore("aph", "alpha")
	require.True(t, ok)
	assert.Greater(t, contiguous, scattered)
}

func TestPickerModelFiltersAndSelects(t *testing.T) {
	m := newPickerModel(pickerFixtures())
	require.Len(t, m.visible, 2)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("beta")})
	m = next.(pickerModel)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "beta", m.visible[0].record.Name)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(pickerModel)
	require.NotNil(t, m.selected)
	assert.Equal(t, "beta", m.selected.Name)
	assert.False(t, m.cancelled)
}

func TestPickerModelFilterByKind(t *testing.T) {
	m := newPickerModel(pickerFixtures())
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("workspace")})
	m = next.(pickerModel)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "beta", m.visible[0].record.Name)
}

func TestPickerModelEnterWithNoMatchDoesNothing(t *testing.T) {
	m := newPickerModel(pickerFixtures())
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	m = next.(pickerModel)
	assert.Empty(t, m.visible)
	assert.Contains(t, m.View(), "No layouts match query")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(pickerModel)
	assert.Nil(t, m.selected)
}

func TestPickerModelEscCancels(t *testing.T) {
	m := newPickerModel(pickerFixtures())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(pickerModel)
	assert.True(t, m.cancelled)
	assert.NotNil(t, cmd)
}
