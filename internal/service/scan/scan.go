// Package scan orchestrates the analysis pipeline: repository ingestion,
// parallel unit extraction, cached evidence mining, scoring, clustering,
// rule matching, and report assembly.
package scan

import (
	"context"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dooosp/ghostcode-auditor/internal/cache"
	"github.com/dooosp/ghostcode-auditor/internal/fileproc"
	"github.com/dooosp/ghostcode-auditor/internal/scanner"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/evidence"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/rules"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/score"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/similarity"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
	"github.com/dooosp/ghostcode-auditor/pkg/config"
	"github.com/dooosp/ghostcode-auditor/pkg/parser"
	"github.com/dooosp/ghostcode-auditor/pkg/report"
)

// Service runs scans against local repositories.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scan service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Options configures one scan.
type Options struct {
	// RepoName overrides the repo name; empty means the directory name.
	RepoName string
	// ScanType labels the resulting report ("full", "pr#42", ...).
	ScanType string
	// Files restricts the scan to the given repo-relative paths.
	// Nil means walk the whole repository.
	Files []string
	// HotspotLimit caps the ranked hotspot list; <= 0 uses the config value.
	HotspotLimit int
	// OnExtract ticks once per parsed file.
	OnExtract func()
	// OnEvidence ticks once per unit mined from git history.
	OnEvidence func()
}

// Result bundles the report with the raw per-unit data behind it, so
// callers can render tables without re-deriving anything.
type Result struct {
	Report      *report.Report
	Units       []unit.Unit
	Evidence    map[string]*evidence.Evidence
	Scores      map[string]score.UnitScores
	RuleMatches map[string][]rules.Match
	Clusters    []similarity.Cluster
	CacheHits   int
	CacheMisses int
}

// Scan runs the full pipeline on a local repository.
func (s *Service) Scan(ctx context.Context, repoPath string, opts Options) (*Result, error) {
	registry := parser.NewRegistry()

	files := opts.Files
	if files == nil {
		var err error
		files, err = scanner.New(s.config).ScanRepo(repoPath)
		if err != nil {
			return nil, err
		}
	} else {
		kept := files[:0:0]
		for _, f := range files {
			if registry.Supported(f) {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	units := s.extract(ctx, registry, repoPath, files, opts.OnExtract)

	resultCache, err := s.openCache(repoPath)
	if err != nil {
		return nil, err
	}

	evMap, scores, missUnits, hits := s.cachedScan(repoPath, resultCache, units)
	if len(missUnits) > 0 {
		newEv := s.mineEvidence(ctx, repoPath, missUnits, opts.OnEvidence)
		for i := range missUnits {
			u := &missUnits[i]
			ev := newEv[u.ID]
			if ev == nil {
				ev = evidence.Zero(u.ID)
			}
			evMap[u.ID] = ev
			scores[u.ID] = score.Compute(u, ev.Score)
		}
		s.storeCache(repoPath, resultCache, missUnits, evMap, scores)
	}

	engine := similarity.New(similarity.WithThresholds(
		s.config.Thresholds.SimilarityUtility,
		s.config.Thresholds.SimilarityComponent,
	))
	clusters := engine.Clusters(units)

	ruleSet, err := s.loadRules()
	if err != nil {
		return nil, err
	}
	checkers := rules.NewRegistry()
	matches := make(map[string][]rules.Match, len(units))
	for i := range units {
		matches[units[i].ID] = checkers.Match(&units[i], ruleSet)
	}

	limit := opts.HotspotLimit
	if limit <= 0 {
		limit = s.config.Thresholds.HotspotLimit
	}

	rep := report.Build(report.Input{
		Repo:         s.repoInfo(repoPath, opts.RepoName),
		ScanType:     scanType(opts.ScanType),
		Units:        units,
		Evidence:     evMap,
		Scores:       scores,
		Clusters:     clusters,
		RuleMatches:  matches,
		HotspotLimit: limit,
	})

	return &Result{
		Report:      rep,
		Units:       units,
		Evidence:    evMap,
		Scores:      scores,
		RuleMatches: matches,
		Clusters:    clusters,
		CacheHits:   hits,
		CacheMisses: len(missUnits),
	}, nil
}

// extract parses the given files in parallel and flattens their units
// into a deterministic order.
func (s *Service) extract(ctx context.Context, registry *parser.Registry, repoPath string, files []string, onProgress func()) []unit.Unit {
	perFile, _ := fileproc.MapFilesCtx(ctx, registry, files,
		func(p *parser.Parser, relPath string) ([]unit.Unit, error) {
			ex := unit.NewWithParser(p)
			return ex.ExtractFile(repoPath, relPath), nil
		}, onProgress)

	var units []unit.Unit
	for _, batch := range perFile {
		units = append(units, batch...)
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].FilePath != units[j].FilePath {
			return units[i].FilePath < units[j].FilePath
		}
		return units[i].Span.Start < units[j].Span.Start
	})
	return units
}

// cachedScan splits units into cache hits and misses. Hits come back
// with their evidence and scores restored; misses still need mining.
func (s *Service) cachedScan(repoPath string, c *cache.Cache, units []unit.Unit) (map[string]*evidence.Evidence, map[string]score.UnitScores, []unit.Unit, int) {
	evMap := make(map[string]*evidence.Evidence, len(units))
	scores := make(map[string]score.UnitScores, len(units))

	if !c.Enabled() {
		return evMap, scores, units, 0
	}

	fileHashes := s.hashFiles(repoPath, units)

	var misses []unit.Unit
	hits := 0
	for i := range units {
		u := &units[i]
		fh, ok := fileHashes[u.FilePath]
		if !ok {
			misses = append(misses, *u)
			continue
		}
		entry, ok := c.Get(cache.Key(fh, u.Span, rules.RulesetVersion))
		if !ok {
			misses = append(misses, *u)
			continue
		}
		evMap[u.ID] = entry.Evidence
		scores[u.ID] = entry.Scores
		hits++
	}
	return evMap, scores, misses, hits
}

// storeCache persists evidence and scores for freshly computed units.
func (s *Service) storeCache(repoPath string, c *cache.Cache, units []unit.Unit, evMap map[string]*evidence.Evidence, scores map[string]score.UnitScores) {
	if !c.Enabled() {
		return
	}
	fileHashes := s.hashFiles(repoPath, units)
	for i := range units {
		u := &units[i]
		fh, ok := fileHashes[u.FilePath]
		if !ok {
			continue
		}
		_ = c.Set(cache.Key(fh, u.Span, rules.RulesetVersion), &cache.Entry{
			Evidence: evMap[u.ID],
			Scores:   scores[u.ID],
		})
	}
}

// hashFiles hashes each distinct file once.
func (s *Service) hashFiles(repoPath string, units []unit.Unit) map[string]string {
	hashes := make(map[string]string)
	for i := range units {
		rel := units[i].FilePath
		if _, seen := hashes[rel]; seen {
			continue
		}
		h, err := cache.HashFile(filepath.Join(repoPath, rel))
		if err != nil {
			continue
		}
		hashes[rel] = h
	}
	return hashes
}

// mineEvidence collects git history for the given units. Any failure
// to reach git degrades to zero evidence rather than aborting the scan.
func (s *Service) mineEvidence(ctx context.Context, repoPath string, units []unit.Unit, onProgress func()) map[string]*evidence.Evidence {
	if !s.config.Analysis.Evidence {
		return nil
	}
	miner, err := evidence.NewMiner(repoPath, s.minerOptions()...)
	if err != nil {
		return nil
	}
	return miner.CollectAll(ctx, units, onProgress)
}

func (s *Service) minerOptions() []evidence.Option {
	var opts []evidence.Option
	if secs := s.config.Analysis.GitTimeoutSeconds; secs > 0 {
		opts = append(opts, evidence.WithTimeout(time.Duration(secs)*time.Second))
	}
	if n := s.config.Analysis.GitWorkers; n > 0 {
		opts = append(opts, evidence.WithWorkers(n))
	}
	return opts
}

func (s *Service) openCache(repoPath string) (*cache.Cache, error) {
	dir := s.config.Cache.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(repoPath, dir)
	}
	return cache.New(dir, s.config.Cache.TTLDays, s.config.Cache.Enabled)
}

func (s *Service) loadRules() ([]rules.Rule, error) {
	if path := s.config.Rules.Path; path != "" {
		return rules.LoadRules(path)
	}
	return rules.DefaultRules(), nil
}

// repoInfo resolves the repo identifier. A repo without usable git
// history still gets a name.
func (s *Service) repoInfo(repoPath, name string) report.Repo {
	if name == "" {
		abs, err := filepath.Abs(repoPath)
		if err == nil {
			name = filepath.Base(abs)
		} else {
			name = filepath.Base(repoPath)
		}
	}
	info := report.Repo{Name: name}
	if miner, err := evidence.NewMiner(repoPath); err == nil {
		if commit, branch, err := miner.HeadInfo(); err == nil {
			info.Commit = commit
			info.Branch = branch
		}
	}
	return info
}

func scanType(t string) string {
	if t == "" {
		return "full"
	}
	return t
}

// ChangedFiles lists repo-relative paths changed between baseRef and
// the working tree, for incremental PR-style scans.
func ChangedFiles(ctx context.Context, repoPath, baseRef string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", baseRef)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
