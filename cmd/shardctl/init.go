package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sorry-currents/shardctl/internal/cienv"
	"github.com/sorry-currents/shardctl/internal/config"
)

var (
	initCI            string
	initShards        int
	initPackageManager string
	initPlaywrightConfig string
	initSkipPrompts   bool
	initDryRun        bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a starter .shardctl/config.yaml",
	Long: `init detects the CI provider from the environment (or honors --ci) and
writes a starter .shardctl/config.yaml. Per §1's explicit non-goal, it does
not generate full CI workflow YAML — that scaffolding is an external
collaborator; this command only seeds shardctl's own configuration.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initCI, "ci", "", "CI provider (github, gitlab, jenkins, circleci, buildkite, travis, azure); autodetected when omitted")
	initCmd.Flags().IntVar(&initShards, "shards", 4, "Default shard count to seed into the config")
	initCmd.Flags().StringVar(&initPackageManager, "package-manager", "npm", "Package manager the suggested run command assumes")
	initCmd.Flags().StringVar(&initPlaywrightConfig, "playwright-config", "playwright.config.ts", "Path to the Playwright config, for the printed next-steps hint")
	initCmd.Flags().BoolVar(&initSkipPrompts, "skip-prompts", false, "Accept defaults without prompting (always true in this non-interactive implementation)")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Print what would be written instead of writing it")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	provider := initCI
	if provider == "" {
		provider = detectedProviderName()
	}

	cfg := config.Default()
	cfg.Balancer.MaxShards = initShards

	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal starter config: %w", err)
	}

	path := filepath.Join(".shardctl", "config.yaml")

	if initDryRun {
		fmt.Printf("would write %s (CI provider: %s):\n\n%s", path, provider, buf)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create .shardctl: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; remove it first or edit it directly", path)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("wrote %s (CI provider: %s)\n\n", path, provider)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Run `shardctl plan --shards %d` to produce a shard-plan.json\n", initShards)
	fmt.Printf("  2. Point your CI matrix at `shardctl run --shard-plan shard-plan.json --shard-index $N`\n")
	fmt.Printf("  3. After all shards finish, run `shardctl merge` then `shardctl report`\n")
	fmt.Printf("  (using %s with %s — adjust %s if your config lives elsewhere)\n", initPackageManager, provider, initPlaywrightConfig)
	return nil
}

// detectedProviderName maps internal/cienv's provider identifiers to the
// human-facing names this command's --ci flag accepts, defaulting to "local"
// when no CI environment is detected.
func detectedProviderName() string {
	switch cienv.Provider(os.Getenv) {
	case cienv.ProviderGitHub:
		return "github"
	case cienv.ProviderGitLab:
		return "gitlab"
	case cienv.ProviderJenkins:
		return "jenkins"
	case cienv.ProviderCircleCI:
		return "circleci"
	case cienv.ProviderBuildkite:
		return "buildkite"
	case cienv.ProviderTravis:
		return "travis"
	case cienv.ProviderAzure:
		return "azure"
	case cienv.ProviderGenericCI:
		return "ci"
	default:
		return "local"
	}
}
