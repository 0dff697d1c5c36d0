package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "install-deps <game-id> <mod-id>",
	Short: "Install a catalogued mod's required dependencies",
	Args:  cobra.ExactArgs(2),
	RunE:  runInstallDeps,
}

var recommendsCmd = &cobra.Command{
	Use:   "install-recommends <game-id> <mod-id>",
	Short: "Offer a catalogued mod's recommended dependencies for install",
	Args:  cobra.ExactArgs(2),
	RunE:  runInstallRecommends,
}

var depsSilent bool

func init() {
	depsCmd.Flags().StringVarP(&installProfile, "profile", "p", "default", "profile to install into")
	depsCmd.Flags().BoolVar(&depsSilent, "silent", false, "skip the about-to-install confirmation")
	recommendsCmd.Flags().StringVarP(&installProfile, "profile", "p", "default", "profile to install into")

	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(recommendsCmd)
}

func runInstallDeps(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}
	if err := m.InstallDependencies(context.Background(), installProfile, args[0], args[1], depsSilent); err != nil {
		return fmt.Errorf("install-deps failed: %w", err)
	}
	return nil
}

func runInstallRecommends(cmd *cobra.Command, args []string) error {
	m, _, err := newManager()
	if err != nil {
		return err
	}
	if err := m.InstallRecommendations(context.Background(), installProfile, args[0], args[1]); err != nil {
		return fmt.Errorf("install-recommends failed: %w", err)
	}
	return nil
}
