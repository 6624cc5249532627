// Package evidence mines git history for signs that a unit's logic has
// actually been reviewed: distinct authors, post-creation touches, and
// refactoring commits.
package evidence

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/sourcegraph/conc/pool"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

// ErrGitNotFound is returned when git is not available in PATH.
var ErrGitNotFound = errors.New("git executable not found in PATH (required for evidence mining)")

// DefaultGitTimeout bounds a single blame or log invocation.
const DefaultGitTimeout = 30 * time.Second

// defaultWorkers caps concurrent git subprocesses. Blame is I/O bound
// and git serializes on the object store past a point.
const defaultWorkers = 8

// Touch windows: 90 days feeds the score, 30 days is reported for
// trend context.
const (
	recent90Window = 90 * 24 * time.Hour
	recent30Window = 30 * 24 * time.Hour
)

// refactorSignals matches commit subjects that indicate the logic was
// deliberately revisited rather than merely written once.
var refactorSignals = regexp.MustCompile(`(?i)(refactor|test|type|cleanup|lint|format|rename|extract|simplify)`)

var (
	gitCheckOnce sync.Once
	gitCheckErr  error
)

func checkGitAvailable() error {
	gitCheckOnce.Do(func() {
		if _, err := exec.LookPath("git"); err != nil {
			gitCheckErr = ErrGitNotFound
		}
	})
	return gitCheckErr
}

// Evidence is the mined review history for one unit. RefactorSignals
// holds the distinct lowercased signal words matched in commit
// subjects, not the subjects themselves.
type Evidence struct {
	UnitID               string   `json:"unit_id"`
	AuthorCount          int      `json:"author_count"`
	TouchedAfterCreation bool     `json:"touched_after_creation"`
	TouchCount30d        int      `json:"touch_count_30d"`
	TouchCount90d        int      `json:"touch_count_90d"`
	RefactorSignals      []string `json:"refactor_signals,omitempty"`
	Score                float64  `json:"score"`
}

// Zero returns the evidence record for a unit with no usable history.
func Zero(unitID string) *Evidence {
	return &Evidence{UnitID: unitID}
}

// Miner collects evidence by shelling out to git for line-ranged blame
// and log, which go-git does not support natively. go-git still serves
// repository discovery and head metadata.
type Miner struct {
	repoPath string
	timeout  time.Duration
	workers  int
	now      func() time.Time
}

// Option configures a Miner.
type Option func(*Miner)

// WithTimeout overrides the per-invocation git timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Miner) { m.timeout = d }
}

// WithWorkers overrides the git subprocess concurrency.
func WithWorkers(n int) Option {
	return func(m *Miner) {
		if n > 0 {
			m.workers = n
		}
	}
}

// withClock fixes the reference time, for tests.
func withClock(now func() time.Time) Option {
	return func(m *Miner) { m.now = now }
}

// NewMiner validates that repoPath is inside a git work tree and
// returns a miner rooted there.
func NewMiner(repoPath string, opts ...Option) (*Miner, error) {
	if err := checkGitAvailable(); err != nil {
		return nil, err
	}
	if _, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true}); err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	m := &Miner{
		repoPath: repoPath,
		timeout:  DefaultGitTimeout,
		workers:  defaultWorkers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// HeadInfo returns the current commit hash and branch name.
func (m *Miner) HeadInfo() (commit, branch string, err error) {
	repo, err := git.PlainOpenWithOptions(m.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", "", err
	}
	return head.Hash().String(), head.Name().Short(), nil
}

// CollectUnit mines evidence for one unit. Authors come from a blame
// pass over the span; touch counts and refactor signals from the line
// log. Any git failure degrades to zero evidence; an untracked or
// freshly moved file is not an error.
func (m *Miner) CollectUnit(ctx context.Context, u *unit.Unit) *Evidence {
	authors := m.blameAuthors(ctx, u.FilePath, u.Span)
	commits, err := m.lineLog(ctx, u.FilePath, u.Span)
	if err != nil || (len(commits) == 0 && len(authors) == 0) {
		return Zero(u.ID)
	}

	shas := make(map[string]bool)
	signalSet := make(map[string]bool)
	touch30, touch90 := 0, 0
	cutoff90 := m.now().Add(-recent90Window)
	cutoff30 := m.now().Add(-recent30Window)

	for _, c := range commits {
		shas[c.sha] = true
		if c.when.After(cutoff90) {
			touch90++
		}
		if c.when.After(cutoff30) {
			touch30++
		}
		for _, word := range refactorSignals.FindAllString(c.subject, -1) {
			signalSet[strings.ToLower(word)] = true
		}
	}

	var signals []string
	if len(signalSet) > 0 {
		signals = make([]string, 0, len(signalSet))
		for word := range signalSet {
			signals = append(signals, word)
		}
		sort.Strings(signals)
	}

	ev := &Evidence{
		UnitID:               u.ID,
		AuthorCount:          len(authors),
		TouchedAfterCreation: len(shas) > 1,
		TouchCount30d:        touch30,
		TouchCount90d:        touch90,
		RefactorSignals:      signals,
	}
	ev.Score = scoreEvidence(ev)
	return ev
}

// blameAuthors runs a line-ranged porcelain blame and returns the set
// of distinct line authors. Failures (untracked file, span past EOF)
// yield an empty set.
func (m *Miner) blameAuthors(ctx context.Context, relPath string, span unit.Span) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rangeArg := fmt.Sprintf("-L%d,%d", span.Start, span.End)
	cmd := exec.CommandContext(ctx, "git", "blame", "--porcelain", rangeArg, "--", relPath)
	cmd.Dir = m.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil
	}

	authors := make(map[string]bool)
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		// Porcelain headers spell the author line "author <name>";
		// author-mail and author-time do not match the prefix.
		if name, ok := strings.CutPrefix(scanner.Text(), "author "); ok {
			authors[name] = true
		}
	}
	return authors
}

// CollectAll mines evidence for every unit in parallel. onProgress, if
// non-nil, is called once per completed unit.
func (m *Miner) CollectAll(ctx context.Context, units []unit.Unit, onProgress func()) map[string]*Evidence {
	results := make([]*Evidence, len(units))

	p := pool.New().WithMaxGoroutines(m.workers)
	for i := range units {
		p.Go(func() {
			results[i] = m.CollectUnit(ctx, &units[i])
			if onProgress != nil {
				onProgress()
			}
		})
	}
	p.Wait()

	byID := make(map[string]*Evidence, len(units))
	for _, ev := range results {
		byID[ev.UnitID] = ev
	}
	return byID
}

// scoreEvidence converts mined facts into the 0-100 review score.
func scoreEvidence(ev *Evidence) float64 {
	score := 0.0
	if ev.AuthorCount >= 2 {
		score += 30
	}
	if ev.TouchedAfterCreation {
		score += 20
	}
	if ev.TouchCount90d >= 2 {
		score += 20
	}
	if len(ev.RefactorSignals) > 0 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// lineCommit is one commit touching a line range.
type lineCommit struct {
	sha     string
	author  string
	when    time.Time
	subject string
}

// lineLog runs git log -L over the unit's span. The -L form follows
// the range through edits, which is exactly the history a unit needs.
func (m *Miner) lineLog(ctx context.Context, relPath string, span unit.Span) ([]lineCommit, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rangeArg := fmt.Sprintf("-L%d,%d:%s", span.Start, span.End, relPath)
	cmd := exec.CommandContext(ctx, "git", "log", "--format=%H|%an|%at|%s", "-s", rangeArg)
	cmd.Dir = m.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Untracked files, ranges past EOF after an unstaged edit, and
		// similar conditions all mean "no history", not failure.
		return nil, nil
	}
	return parseLineLog(&stdout), nil
}

// parseLineLog parses --format=%H|%an|%at|%s output lines.
func parseLineLog(r *bytes.Buffer) []lineCommit {
	var commits []lineCommit
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 || len(parts[0]) != 40 {
			continue
		}
		epoch, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		commits = append(commits, lineCommit{
			sha:     parts[0],
			author:  parts[1],
			when:    time.Unix(epoch, 0),
			subject: parts[3],
		})
	}
	return commits
}
