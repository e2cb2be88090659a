package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/histshrink/internal/backup"
	"github.com/dshills/histshrink/internal/config"
	"github.com/dshills/histshrink/internal/filter"
	"github.com/dshills/histshrink/internal/histfile"
	"github.com/dshills/histshrink/internal/history"
	"github.com/dshills/histshrink/internal/logging"
	"github.com/dshills/histshrink/internal/output"
	"github.com/dshills/histshrink/internal/redact"
	"github.com/dshills/histshrink/internal/shrink"
)

// Shared pipeline flags
var (
	flagInput          string
	flagOutput         string
	flagDryRun         bool
	flagHistoryFormat  string
	flagSecrets        string
	flagKeep           string
	flagMinLength      int
	flagExclude        string
	flagCommonExcludes bool
	flagGitleaks       bool
	flagRules          string
	flagNoBackup       bool
	flagReport         string
	flagReportOut      string
	flagFailOn         string
)

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagInput, "input", "i", "", "History file (default: history.file, $HISTFILE, ~/.bash_history)")
	cmd.Flags().StringVar(&flagHistoryFormat, "history-format", "", "History layout (auto, plain, bash, zsh)")
	cmd.Flags().StringVar(&flagKeep, "keep", "", "Duplicate to keep (first, last)")
	cmd.Flags().IntVar(&flagMinLength, "min-length", 0, "Drop commands shorter than this")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Extra exclude regexes (comma-separated)")
	cmd.Flags().BoolVar(&flagCommonExcludes, "common-excludes", false, "Also drop common commands (cd, ls, git status, ...)")
	cmd.Flags().BoolVar(&flagGitleaks, "gitleaks", false, "Also run the gitleaks rule set")
	cmd.Flags().StringVar(&flagRules, "rules", "", "TOML file with extra secret rules and allowlist")
	cmd.Flags().StringVar(&flagReport, "report", "", "Report format (text, json, markdown)")
	cmd.Flags().StringVar(&flagReportOut, "report-out", "", "Report file path (default: stdout)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagHistoryFormat != "" {
		m["history.format"] = flagHistoryFormat
	}
	if flagSecrets != "" {
		m["secrets.mode"] = flagSecrets
	}
	if flagKeep != "" {
		m["filter.keep"] = flagKeep
	}
	if flagMinLength > 0 {
		m["filter.min_length"] = strconv.Itoa(flagMinLength)
	}
	if flagCommonExcludes {
		m["filter.common_excludes"] = "true"
	}
	if flagGitleaks {
		m["secrets.gitleaks"] = "true"
	}
	if flagRules != "" {
		m["secrets.rules_file"] = flagRules
	}
	if flagNoBackup {
		m["backup.enabled"] = "false"
	}
	if flagReport != "" {
		m["report.format"] = flagReport
	}
	if flagFailOn != "" {
		m["report.fail_on"] = flagFailOn
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// buildEngineOptions translates config into pipeline options.
func buildEngineOptions(cfg config.Config, mode shrink.SecretsMode) (shrink.Options, error) {
	ropts := redact.Options{
		Gitleaks:     cfg.Secrets.Gitleaks,
		FlagPatterns: cfg.Secrets.FlagPatterns,
	}
	rf, err := redact.LoadRulesFile(cfg.Secrets.RulesFile)
	if err != nil {
		return shrink.Options{}, err
	}
	rf.Apply(&ropts)
	det, err := redact.New(ropts)
	if err != nil {
		return shrink.Options{}, err
	}

	exclude := cfg.Filter.Exclude
	if flagExclude != "" {
		exclude = append(append([]string{}, exclude...), splitComma(flagExclude)...)
	}

	return shrink.Options{
		Filter: filter.Options{
			NoDedup:             !cfg.Filter.Dedup,
			Keep:                filter.Keep(cfg.Filter.Keep),
			NormalizeWhitespace: cfg.Filter.NormalizeWhitespace,
			Exclude:             exclude,
			CommonExcludes:      cfg.Filter.CommonExcludes,
			MinLength:           cfg.Filter.MinLength,
		},
		SecretsMode: mode,
		Detector:    det,
	}, nil
}

// pipelineRun carries one invocation of shrink or scan.
type pipelineRun struct {
	mode string
	cfg  config.Config
	log  *zap.Logger
	path string
}

func newPipelineRun(mode string, args []string) (*pipelineRun, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	input := flagInput
	if len(args) > 0 {
		if input != "" && input != args[0] {
			return nil, fmt.Errorf("history file given twice: %s and %s", input, args[0])
		}
		input = args[0]
	}
	path, err := histfile.ResolvePath(input, cfg.History.File)
	if err != nil {
		return nil, err
	}
	return &pipelineRun{mode: mode, cfg: cfg, log: log, path: path}, nil
}

// process reads the history file and runs the pipeline. Failures set exitCode.
func (p *pipelineRun) process(secrets shrink.SecretsMode) (*shrink.Result, string, bool) {
	data, err := histfile.Read(p.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil, "", false
	}

	opts, err := buildEngineOptions(p.cfg, secrets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, "", false
	}
	opts.Logger = p.log
	engine, err := shrink.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, "", false
	}

	format, _, err := history.ParseFormat(p.cfg.History.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, "", false
	}

	res := engine.Process(data, format)
	res.Report.Version = version
	res.Report.Inputs.Mode = p.mode
	res.Report.Inputs.Path = p.path
	return res, data, true
}

func (p *pipelineRun) writeReport(report *shrink.Report) bool {
	if err := output.WriteReport(report, p.cfg.Report.Format, flagReportOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		exitCode = ExitRuntimeError
		return false
	}
	return true
}

func runShrink(ctx context.Context, p *pipelineRun) {
	defer logging.Sync(p.log)

	res, original, ok := p.process(shrink.SecretsMode(p.cfg.Secrets.Mode))
	if !ok {
		return
	}
	report := res.Report
	report.Inputs.DryRun = flagDryRun

	dest := p.path
	if flagOutput != "" {
		dest = flagOutput
	}
	report.Inputs.Output = dest

	if !flagDryRun {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		out := res.Encode()
		if dest == p.path && out == original {
			p.log.Info("history already minimal", zap.String("path", p.path))
		} else {
			if dest == p.path {
				id, err := p.backupOriginal(original)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					exitCode = ExitRuntimeError
					return
				}
				report.Inputs.BackupID = id
			}
			if err := histfile.WriteAtomic(dest, out); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return
			}
			p.log.Info("history written", zap.String("path", dest), zap.Int("records", len(res.Records)))
		}
	}

	p.writeReport(report)
}

// backupOriginal stores the original content before an in-place rewrite and
// prunes expired backups. Returns an empty ID when backups are disabled.
func (p *pipelineRun) backupOriginal(content string) (string, error) {
	store, err := backup.New(p.cfg.Backup.Enabled, p.cfg.Backup.Dir, p.cfg.Backup.RetentionDays)
	if err != nil {
		return "", fmt.Errorf("opening backup store: %w", err)
	}
	if !store.Enabled() {
		return "", nil
	}
	entry, err := store.Save(p.path, content)
	if err != nil {
		return "", err
	}
	if n, err := store.Prune(); err != nil {
		p.log.Warn("pruning backups failed", zap.Error(err))
	} else if n > 0 {
		p.log.Debug("pruned backups", zap.Int("removed", n))
	}
	return entry.ID, nil
}

func runScan(p *pipelineRun) {
	defer logging.Sync(p.log)

	res, _, ok := p.process(shrink.SecretsReport)
	if !ok {
		return
	}
	if !p.writeReport(res.Report) {
		return
	}
	if res.Report.HasFindingsAtOrAbove(p.cfg.Report.FailOn) {
		exitCode = ExitFindings
	}
}

var shrinkCmd = &cobra.Command{
	Use:   "shrink [file]",
	Short: "Deduplicate, filter and scrub a history file",
	Long: "Shrink rewrites a history file without duplicates, excluded commands or likely secrets. " +
		"The file is replaced atomically and the original is kept as a backup unless --output or --dry-run is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipelineRun("shrink", args)
		if err != nil {
			return err
		}
		runShrink(cmd.Context(), p)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Report secrets in a history file without changing it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipelineRun("scan", args)
		if err != nil {
			return err
		}
		runScan(p)
		return nil
	},
}

func init() {
	addPipelineFlags(shrinkCmd)
	shrinkCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the result here instead of in place")
	shrinkCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Report without writing anything")
	shrinkCmd.Flags().StringVar(&flagSecrets, "secrets", "", "What to do with secrets (drop, redact)")
	shrinkCmd.Flags().BoolVar(&flagNoBackup, "no-backup", false, "Do not back up the original before rewriting")

	addPipelineFlags(scanCmd)
	scanCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when findings reach this severity (none, low, medium, high)")
}
