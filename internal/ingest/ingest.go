package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"phoenix/internal/config"
	"phoenix/internal/logger"
	"phoenix/internal/scenario"
	"phoenix/internal/store"
	"phoenix/internal/validate"
)

var (
	codePattern  = regexp.MustCompile(`^[A-Z0-9_]+$`)
	codeReplacer = regexp.MustCompile(`[^A-Z0-9]+`)
)

type job struct {
	code string
	name string
	path string
	url  string
}

// Run loads every configured scenario into db. Per-file problems are
// collected in the result; only failures that stop the whole run are
// returned as errors.
func Run(ctx context.Context, cfg *config.ProjectConfig, rules *config.Rules, db Store, options Options) (*Result, error) {
	log := logger.OrNop(options.Logger).Named("ingest")

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetScenarioHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get scenario hashes: %w", err)
		}
	}

	jobs, err := collectJobs(cfg, options)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	current := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j.url != "" {
			current = append(current, j.url)
			ingestURL(ctx, db, options, j, result, log)
			continue
		}
		current = append(current, j.path)

		data, err := os.ReadFile(j.path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", j.path, err))
			continue
		}
		hash := computeHash(data)
		if !options.Full {
			if existing, ok := existingHashes[j.path]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}

		report := validate.Data(data, rules)
		result.Warnings += len(report.Warnings())
		if errs := report.Errors(); len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Errorf("validating %s: %d errors, first: %s", j.path, len(errs), errs[0].Message))
			continue
		}

		scenes, err := scenario.Decode(data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("decoding %s: %w", j.path, err))
			continue
		}
		if j.code == "" {
			j.code = codeFor(j.path, scenes)
		}

		input := store.ScenarioInput{
			Code:       j.code,
			Name:       j.name,
			SourceFile: j.path,
			SourceHash: hash,
			Scenes:     scenes,
		}
		if err := upsert(ctx, db, options, input, result); err != nil {
			continue
		}
		log.Debug("scenario ingested", zap.String("code", j.code), zap.String("path", j.path), zap.Int("scenes", len(scenes)))
	}

	deleted, err := db.RemoveStaleScenarios(ctx, current)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale scenarios: %w", err))
	} else {
		result.ScenariosRemoved = int(deleted)
	}

	return result, nil
}

// ingestURL fetches a remote scenario set. Remote sets have no file to hash
// cheaply, so they are fetched and compared on every run.
func ingestURL(ctx context.Context, db Store, options Options, j job, result *Result, log *zap.Logger) {
	set, err := scenario.HTTPSource{URL: j.url}.Load(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("fetching %s: %w", j.url, err))
		return
	}
	scenes := set.Scenes()

	report := validate.Scenes(scenes)
	result.Warnings += len(report.Warnings())
	if errs := report.Errors(); len(errs) > 0 {
		result.Errors = append(result.Errors, fmt.Errorf("validating %s: %d errors, first: %s", j.url, len(errs), errs[0].Message))
		return
	}

	data, err := scenario.Encode(scenes)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("encoding %s: %w", j.url, err))
		return
	}
	input := store.ScenarioInput{
		Code:       j.code,
		Name:       j.name,
		SourceFile: j.url,
		SourceHash: computeHash(data),
		Scenes:     scenes,
	}
	if err := upsert(ctx, db, options, input, result); err != nil {
		return
	}
	log.Debug("remote scenario ingested", zap.String("code", j.code), zap.String("url", j.url))
}

func upsert(ctx context.Context, db Store, options Options, input store.ScenarioInput, result *Result) error {
	if err := db.UpsertScenario(ctx, input); err != nil {
		err = fmt.Errorf("upserting %s: %w", input.Code, err)
		result.Errors = append(result.Errors, err)
		return err
	}
	result.ScenariosUpserted++

	if options.Mirror == nil {
		return nil
	}
	if err := options.Mirror.SyncScenario(ctx, input.Code, input.Scenes); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("mirroring %s: %w", input.Code, err))
		return nil
	}
	result.ScenariosMirrored++
	return nil
}

func collectJobs(cfg *config.ProjectConfig, options Options) ([]job, error) {
	jobs := make([]job, 0, len(cfg.Scenarios))
	seen := make(map[string]struct{})
	for _, sc := range cfg.Scenarios {
		j := job{code: sc.Code, name: sc.Name, url: sc.URL}
		if sc.Path != "" {
			j.path = filepath.Clean(cfg.ResolvePath(sc.Path))
			seen[j.path] = struct{}{}
		}
		jobs = append(jobs, j)
	}

	roots := make([]string, 0, len(options.Dirs))
	for _, dir := range options.Dirs {
		roots = append(roots, cfg.ResolvePath(dir))
	}
	files, err := walkJSONFiles(roots, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking scenario files: %w", err)
	}
	for _, path := range files {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		jobs = append(jobs, job{name: base, path: path})
	}
	return jobs, nil
}

// codeFor picks the scenario code of a file found by walking: the code the
// first scene declares, else one derived from the file name.
func codeFor(path string, scenes []scenario.Scene) string {
	if len(scenes) > 0 && codePattern.MatchString(scenes[0].ScenarioCode) {
		return scenes[0].ScenarioCode
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Trim(codeReplacer.ReplaceAllString(strings.ToUpper(base), "_"), "_")
}

func walkJSONFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
