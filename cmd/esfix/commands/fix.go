package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/esfix/esfix/internal/config"
	"github.com/esfix/esfix/internal/log"
	"github.com/esfix/esfix/internal/runner"
	"github.com/esfix/esfix/internal/scanner"
	"github.com/esfix/esfix/pkg/cache"
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Rewrite JavaScript files under the given paths",
	Long: `Scans the given paths (default: current directory) for JavaScript
files and rewrites dated constructs in place. Use --dry-run to see what
would change without touching any file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		jobs, _ := cmd.Flags().GetInt("jobs")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		configPath, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")
		return runFix(args, level, configPath, jobs, dryRun, noCache, verbose)
	},
}

func runFix(paths []string, levelFlag, configPath string, jobs int, dryRun, noCache, verbose bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if levelFlag != "" {
		cfg.Level = levelFlag
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.Default()
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}

	opts := scanner.DefaultOptions()
	opts.ExtraExcludes = append(opts.ExtraExcludes, cfg.Excludes...)
	sc := scanner.New(opts)

	var files []scanner.FileInfo
	for _, path := range paths {
		found, err := sc.Scan(path)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Println("No JavaScript files found.")
		return nil
	}

	var resultCache *cache.Cache
	if cfg.Cache && !noCache {
		resultCache = cache.New(cache.Options{})
		if err := cache.LoadFromFile(resultCache, cache.DefaultPath); err != nil {
			logger.Warn("ignoring unreadable cache", "path", cache.DefaultPath, "error", err)
			resultCache = cache.New(cache.Options{})
		}
	}

	r := runner.New(runner.Options{
		Level:  cfg.CapabilityLevel(),
		Jobs:   cfg.Jobs,
		DryRun: dryRun,
		Cache:  resultCache,
		Logger: logger,
	})
	report, err := r.Run(context.Background(), files)
	if err != nil {
		return err
	}

	if resultCache != nil && !dryRun {
		if err := cache.PersistToFile(resultCache, cache.DefaultPath); err != nil {
			logger.Warn("failed to persist cache", "path", cache.DefaultPath, "error", err)
		}
	}

	printReport(report, dryRun)
	return nil
}

func printReport(report *runner.Report, dryRun bool) {
	verb := "Modified"
	if dryRun {
		verb = "Would modify"
	}
	fmt.Printf("%s %d of %d files (%d changes)\n",
		verb, report.FilesModified, report.FilesSeen, report.TotalChanges())

	if len(report.ChangesByRule) > 0 {
		ruleIDs := make([]string, 0, len(report.ChangesByRule))
		for id := range report.ChangesByRule {
			ruleIDs = append(ruleIDs, id)
		}
		sort.Strings(ruleIDs)
		for _, id := range ruleIDs {
			fmt.Printf("  %-28s %d\n", id, report.ChangesByRule[id])
		}
	}

	if len(report.ParseFailures) > 0 {
		fmt.Printf("Skipped %d files with syntax errors:\n", len(report.ParseFailures))
		for _, path := range report.ParseFailures {
			fmt.Printf("  %s\n", path)
		}
	}
}

func init() {
	fixCmd.Flags().String("level", "", "Capability level (Level1 or Level2)")
	fixCmd.Flags().Bool("dry-run", false, "Report changes without writing files")
	fixCmd.Flags().IntP("jobs", "j", 0, "Number of files processed concurrently (0 = CPU count)")
	fixCmd.Flags().Bool("no-cache", false, "Skip the result cache")
	fixCmd.Flags().String("config", "", "Config file path")
	fixCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
	RootCmd.AddCommand(fixCmd)
}
