package main

import (
	"context"
	"fmt"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/itchio/modinstall/internal/manager"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/store"
)

var (
	installProfile    string
	installGameIDs    []string
	installForceGame  string
	installEnable     bool
	installUnattended bool
	installDeps       bool
)

var installCmd = &cobra.Command{
	Use:   "install <archive-path>",
	Short: "Install an archive through the pipeline",
	Long: `Runs one archive through the full install pipeline: game resolution,
hashing, metadata lookup, name/version collision handling, extraction,
installer selection, instruction processing, and catalogue persistence.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installProfile, "profile", "p", "default", "profile to install into")
	installCmd.Flags().StringSliceVarP(&installGameIDs, "game", "g", nil, "candidate game id(s) this archive was downloaded for")
	installCmd.Flags().StringVar(&installForceGame, "force-game", "", "skip game resolution, install for this game id")
	installCmd.Flags().BoolVarP(&installEnable, "enable", "e", true, "enable the mod for the profile immediately")
	installCmd.Flags().BoolVarP(&installUnattended, "yes", "y", false, "answer every prompt with its default")
	installCmd.Flags().BoolVar(&installDeps, "with-deps", false, "also install required dependencies once the mod lands")
	rootCmd.AddCommand(installCmd)
}

func newManager() (*manager.Manager, *store.Store, error) {
	st, err := store.New(storePath)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	m := manager.New(manager.Config{
		InstallDir:            cfg.InstallDir,
		Store:                 st,
		Dialogs:               newStdinDialogs(installUnattended || cfg.Unattended),
		MetadataLookup:        noMetadataLookup{},
		EventBus:              logEventBus{},
		Downloader:            noDownloader{},
		Gather:                emptyGather,
		DependencyConcurrency: cfg.DependencyConcurrency,
	})
	m.SetExtractor(zipExtractor{})
	m.RegisterInstaller(100, genericCopyInstaller{})

	return m, st, nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	archivePath := args[0]
	stat, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	if verbose {
		fmt.Printf("archive: %s (%s)\n", archivePath, humanize.IBytes(uint64(stat.Size())))
	}

	m, _, err := newManager()
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := m.Install(context.Background(), manager.InstallParams{
		Archive: model.Archive{
			Path:    archivePath,
			GameIDs: installGameIDs,
		},
		ForceGameID: installForceGame,
		Unattended:  installUnattended,
		Profile:     installProfile,
		Enable:      installEnable,
	})
	if err != nil {
		return fmt.Errorf("install failed: %s", manager.RewriteKnownError(err.Error()))
	}

	fmt.Printf("✓ installed %s for %s in %s\n", res.ModID, res.GameID, time.Since(started).Round(time.Millisecond))

	if installDeps {
		if err := m.InstallDependencies(context.Background(), installProfile, res.GameID, res.ModID, installUnattended); err != nil {
			return fmt.Errorf("dependency install failed: %w", err)
		}
	}

	return nil
}
