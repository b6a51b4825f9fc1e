package convert

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"phoenix/internal/config"
	"phoenix/internal/logger"
	"phoenix/internal/scenario"
	"phoenix/internal/store"
	"phoenix/internal/validate"
)

const IntegratedFile = "all_scenarios_integrated.sql"

type FileResult struct {
	InputFile   string
	OutputFile  string
	BackupFile  string
	EventCount  int
	OptionCount int
	Report      *validate.Report
	Err         error
}

func (r FileResult) Success() bool {
	return r.Err == nil
}

type Summary struct {
	TotalFiles     int
	SuccessCount   int
	FailureCount   int
	TotalEvents    int
	TotalOptions   int
	AverageOptions float64
	Integrated     string
}

type Converter struct {
	opts      Options
	rules     *config.Rules
	backupDir string
	logger    *zap.Logger
}

type ConverterOption func(*Converter)

// WithBackup copies every input file into dir before converting it.
func WithBackup(dir string) ConverterOption {
	return func(c *Converter) { c.backupDir = dir }
}

func WithRules(rules *config.Rules) ConverterOption {
	return func(c *Converter) { c.rules = rules }
}

func WithLogger(log *zap.Logger) ConverterOption {
	return func(c *Converter) { c.logger = log }
}

func New(opts Options, options ...ConverterOption) *Converter {
	c := &Converter{opts: opts.withDefaults()}
	for _, option := range options {
		option(c)
	}
	c.logger = logger.OrNop(c.logger).Named("convert")
	return c
}

// File validates and converts one data file. When output is empty the SQL
// goes next to the input as <name>_converted.sql.
func (c *Converter) File(input, output string) FileResult {
	result := FileResult{InputFile: input}
	c.logger.Info("converting", zap.String("file", input))

	if !ValidFilePath(input) {
		result.Err = fmt.Errorf("converting %s: not a .json file", input)
		return result
	}
	data, err := os.ReadFile(input)
	if err != nil {
		result.Err = fmt.Errorf("reading %s: %w", input, err)
		return result
	}

	result.Report = validate.Data(data, c.rules)
	for _, issue := range result.Report.Warnings() {
		c.logger.Warn(issue.Message, zap.String("file", input), zap.String("code", issue.Code))
	}
	if errs := result.Report.Errors(); len(errs) > 0 {
		for _, issue := range errs {
			c.logger.Error(issue.Message, zap.String("file", input), zap.String("code", issue.Code))
		}
		result.Err = fmt.Errorf("validating %s: %d errors", input, len(errs))
		return result
	}

	if c.backupDir != "" {
		backup, err := Backup(input, c.backupDir, c.opts.Now())
		if err != nil {
			result.Err = err
			return result
		}
		result.BackupFile = backup
		c.logger.Debug("backup written", zap.String("file", backup))
	}

	scenes, err := scenario.Decode(data)
	if err != nil {
		result.Err = fmt.Errorf("decoding %s: %w", input, err)
		return result
	}
	sql, err := ToMySQL(scenes, c.opts)
	if err != nil {
		result.Err = fmt.Errorf("converting %s: %w", input, err)
		return result
	}

	if output == "" {
		output = OutputPath(input, filepath.Dir(input))
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		return result
	}
	if err := os.WriteFile(output, []byte(sql), 0o644); err != nil {
		result.Err = fmt.Errorf("writing %s: %w", output, err)
		return result
	}

	result.OutputFile = output
	result.EventCount = len(scenes)
	result.OptionCount = store.CountOptions(scenes)
	c.logger.Info("converted",
		zap.String("file", input),
		zap.String("output", output),
		zap.Int("events", result.EventCount),
		zap.Int("options", result.OptionCount),
	)
	return result
}

// All converts every *.json file directly under dir into outputDir and, when
// at least one succeeds, writes the integrated script there too.
func (c *Converter) All(dir, outputDir string) ([]FileResult, Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("reading %s: %w", dir, err)
	}
	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() || !ValidFilePath(entry.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(inputs)
	c.logger.Info("scenario files found", zap.Int("count", len(inputs)))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	results := make([]FileResult, 0, len(inputs))
	for _, input := range inputs {
		results = append(results, c.File(input, OutputPath(input, outputDir)))
	}

	summary := Summarize(results)
	if summary.SuccessCount == 0 {
		return results, summary, nil
	}

	integrated, err := Integrate(results, c.opts.Now())
	if err != nil {
		return results, summary, err
	}
	summary.Integrated = filepath.Join(outputDir, IntegratedFile)
	if err := os.WriteFile(summary.Integrated, []byte(integrated), 0o644); err != nil {
		return results, summary, fmt.Errorf("writing %s: %w", summary.Integrated, err)
	}
	return results, summary, nil
}

func OutputPath(input, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outputDir, base+"_converted.sql")
}

func Summarize(results []FileResult) Summary {
	summary := Summary{TotalFiles: len(results)}
	for _, result := range results {
		if !result.Success() {
			summary.FailureCount++
			continue
		}
		summary.SuccessCount++
		summary.TotalEvents += result.EventCount
		summary.TotalOptions += result.OptionCount
	}
	if summary.TotalEvents > 0 {
		avg := float64(summary.TotalOptions) / float64(summary.TotalEvents)
		summary.AverageOptions = math.Round(avg*10) / 10
	}
	return summary
}

// Integrate concatenates the SQL of every successful result under a banner
// per input file.
func Integrate(results []FileResult, now time.Time) (string, error) {
	var b strings.Builder
	count := 0
	for _, result := range results {
		if result.Success() {
			count++
		}
	}
	fmt.Fprintf(&b, "-- Phoenix integrated scenario SQL\n-- Generated: %s\n-- %d scenarios\n\n", now.UTC().Format(time.RFC3339), count)

	for _, result := range results {
		if !result.Success() || result.OutputFile == "" {
			continue
		}
		data, err := os.ReadFile(result.OutputFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", result.OutputFile, err)
		}
		b.WriteString("\n-- ========================================\n")
		fmt.Fprintf(&b, "-- Scenario: %s\n", filepath.Base(result.InputFile))
		b.WriteString("-- ========================================\n\n")
		b.Write(data)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// Backup copies input into dir as <name>_<timestamp>.json.
func Backup(input, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	target := filepath.Join(dir, fmt.Sprintf("%s_%s.json", base, now.UTC().Format("20060102T150405")))

	src, err := os.Open(input)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", input, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating backup %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("copying backup %s: %w", target, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing backup %s: %w", target, err)
	}
	return target, nil
}
