// Command modctl is a small demonstration CLI over the install manager:
// enough to install an archive, run its dependency/recommendation
// passes, and inspect the resulting catalogue from a terminal.
//
// Grounded on DonovanMods/linux-mod-manager's cmd/lmm (a cobra root
// command with install/profile/import subcommands, package-level flag
// vars wired in each subcommand's init, a lazily-constructed service)
// adapted to this install manager's archive-based entrypoint rather
// than lmm's direct-download-from-source one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itchio/modinstall/internal/config"
)

var (
	storePath  string
	installDir string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "modctl",
	Short: "Drive the install manager from a terminal",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "modctl-store.toml", "path to the mod catalogue snapshot")
	rootCmd.PersistentFlags().StringVar(&installDir, "install-dir", "mods", "root directory mods are installed under")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config overriding install-dir/concurrency")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pipeline step")
}

// loadConfig applies --config over the --install-dir flag, falling
// back to spec defaults when no file is given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(installDir), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.InstallDir == "" {
		cfg.InstallDir = installDir
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
