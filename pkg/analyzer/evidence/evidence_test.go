package evidence

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

func TestScoreEvidence(t *testing.T) {
	tests := []struct {
		name string
		ev   Evidence
		want float64
	}{
		{"no history", Evidence{}, 0},
		{"single author once", Evidence{AuthorCount: 1}, 0},
		{"two authors", Evidence{AuthorCount: 2}, 30},
		{"touched after creation", Evidence{AuthorCount: 1, TouchedAfterCreation: true}, 20},
		{"recent activity", Evidence{TouchCount90d: 2}, 20},
		{"one recent touch is not activity", Evidence{TouchCount90d: 1}, 0},
		{"refactor signal", Evidence{RefactorSignals: []string{"refactor"}}, 10},
		{
			"everything",
			Evidence{
				AuthorCount:          3,
				TouchedAfterCreation: true,
				TouchCount30d:        1,
				TouchCount90d:        5,
				RefactorSignals:      []string{"cleanup"},
			},
			80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreEvidence(&tt.ev))
		})
	}
}

func TestRefactorSignalPattern(t *testing.T) {
	assert.True(t, refactorSignals.MatchString("Refactor the cart module"))
	assert.True(t, refactorSignals.MatchString("add types for checkout"))
	assert.True(t, refactorSignals.MatchString("EXTRACT shared helper"))
	assert.False(t, refactorSignals.MatchString("add checkout flow"))
	assert.False(t, refactorSignals.MatchString("bump version"))
}

func TestParseLineLog(t *testing.T) {
	raw := strings.Join([]string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa|Ada|1700000000|refactor: tidy",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb|Grace|1700100000|initial import",
		"not a log line",
		"",
	}, "\n")

	commits := parseLineLog(bytes.NewBufferString(raw))
	require.Len(t, commits, 2)
	assert.Equal(t, "Ada", commits[0].author)
	assert.Equal(t, "refactor: tidy", commits[0].subject)
	assert.Equal(t, time.Unix(1700000000, 0), commits[0].when)
}

func TestZero(t *testing.T) {
	ev := Zero("deadbeef")
	assert.Equal(t, "deadbeef", ev.UnitID)
	assert.Zero(t, ev.Score)
	assert.False(t, ev.TouchedAfterCreation)
}

func TestNewMinerRejectsNonRepo(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	_, err := NewMiner(t.TempDir())
	assert.Error(t, err)
}

// gitFixture builds a small repository with two commits touching the
// same function by two authors.
func gitFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_DATE=2026-01-10T10:00:00",
			"GIT_COMMITTER_DATE=2026-01-10T10:00:00",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	run("init", "-b", "main")
	run("config", "user.email", "ada@example.com")
	run("config", "user.name", "Ada")

	path := filepath.Join(dir, "cart.ts")
	require.NoError(t, os.WriteFile(path, []byte("function total(items) {\n  return items.length;\n}\n"), 0o644))
	run("add", "cart.ts")
	run("commit", "-m", "add cart total")

	require.NoError(t, os.WriteFile(path, []byte("function total(items) {\n  return items.length + 1;\n}\n"), 0o644))
	run("config", "user.email", "grace@example.com")
	run("config", "user.name", "Grace")
	run("add", "cart.ts")
	run("commit", "-m", "refactor: adjust total")

	return dir
}

func TestCollectUnitFromRepo(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	dir := gitFixture(t)

	m, err := NewMiner(dir, withClock(func() time.Time {
		return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)

	u := unit.Unit{
		ID:       "u1",
		FilePath: "cart.ts",
		Name:     "total",
		Span:     unit.Span{Start: 1, End: 3},
	}

	ev := m.CollectUnit(context.Background(), &u)
	assert.Equal(t, "u1", ev.UnitID)
	assert.Equal(t, 2, ev.AuthorCount)
	assert.True(t, ev.TouchedAfterCreation)
	assert.Equal(t, 2, ev.TouchCount30d)
	assert.Equal(t, 2, ev.TouchCount90d)
	assert.Equal(t, []string{"refactor"}, ev.RefactorSignals)
	assert.Equal(t, 80.0, ev.Score)
}

func TestTouchWindowsDiverge(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	dir := gitFixture(t)

	// 41 days after the commits: outside the 30-day window, inside 90.
	m, err := NewMiner(dir, withClock(func() time.Time {
		return time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)

	u := unit.Unit{ID: "u1", FilePath: "cart.ts", Span: unit.Span{Start: 1, End: 3}}
	ev := m.CollectUnit(context.Background(), &u)
	assert.Equal(t, 0, ev.TouchCount30d)
	assert.Equal(t, 2, ev.TouchCount90d)
}

func TestRefactorSignalWordsDeduplicated(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	dir := gitFixture(t)

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	path := filepath.Join(dir, "cart.ts")
	require.NoError(t, os.WriteFile(path, []byte("function total(items) {\n  return items.length + 2;\n}\n"), 0o644))
	run("add", "cart.ts")
	run("commit", "-m", "Extract helper, refactor and Refactor again")

	m, err := NewMiner(dir)
	require.NoError(t, err)

	u := unit.Unit{ID: "u1", FilePath: "cart.ts", Span: unit.Span{Start: 1, End: 3}}
	ev := m.CollectUnit(context.Background(), &u)
	assert.Equal(t, []string{"extract", "refactor"}, ev.RefactorSignals)
}

func TestCollectUnitUntrackedFile(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	dir := gitFixture(t)

	u := unit.Unit{ID: "u2", FilePath: "ghost.ts", Span: unit.Span{Start: 1, End: 5}}
	m, err := NewMiner(dir)
	require.NoError(t, err)

	ev := m.CollectUnit(context.Background(), &u)
	assert.Zero(t, ev.Score)
}

func TestCollectAll(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	dir := gitFixture(t)

	m, err := NewMiner(dir, WithWorkers(2))
	require.NoError(t, err)

	units := []unit.Unit{
		{ID: "u1", FilePath: "cart.ts", Span: unit.Span{Start: 1, End: 3}},
		{ID: "u2", FilePath: "ghost.ts", Span: unit.Span{Start: 1, End: 2}},
	}

	ticks := 0
	var mu sync.Mutex
	byID := m.CollectAll(context.Background(), units, func() {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	require.Len(t, byID, 2)
	assert.Equal(t, 2, ticks)
	assert.Greater(t, byID["u1"].Score, byID["u2"].Score)
}

func TestHeadInfo(t *testing.T) {
	if checkGitAvailable() != nil {
		t.Skip("git not installed")
	}
	m, err := NewMiner(gitFixture(t))
	require.NoError(t, err)

	commit, branch, err := m.HeadInfo()
	require.NoError(t, err)
	assert.Len(t, commit, 40)
	assert.Equal(t, "main", branch)
}
