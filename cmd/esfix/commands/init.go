package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/esfix/esfix/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize esfix configuration interactively",
	Long: `Guides you through setting up esfix configuration step by step.
Creates a config file with the capability level, worker count, and scan
excludes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	level := "Level1"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Capability level").
				Description("Level1 covers syntax modernization; Level2 adds async restructuring").
				Options(
					huh.NewOption("Level1 - const/let, operators, method upgrades", "Level1"),
					huh.NewOption("Level2 - Level1 plus promise chains to await", "Level2"),
				).
				Value(&level),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	excludes := ""
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Extra excluded directories or globs (comma separated, press Enter to skip)").
				Placeholder("generated, *.min.js").
				Value(&excludes),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	useCache := true
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Result cache").
				Description("Cache transform results at .esfix/cache.msgpack so repeat runs skip unchanged files?").
				Affirmative("Enable").
				Negative("Disable").
				Value(&useCache),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.esfix/config.yaml)", "project"),
					huh.NewOption("Global (~/.esfix/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".esfix", "config.yaml")
	} else {
		configPath = ".esfix/config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.Level = level
	cfg.Cache = useCache
	for _, part := range strings.Split(excludes, ",") {
		if p := strings.TrimSpace(part); p != "" {
			cfg.Excludes = append(cfg.Excludes, p)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Level: %s\n", cfg.Level)
	fmt.Printf("Cache: %t\n", cfg.Cache)
	if len(cfg.Excludes) > 0 {
		fmt.Printf("Excludes: %s\n", strings.Join(cfg.Excludes, ", "))
	}
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
