// Package cmd wires the cobra command tree for the traktrelay binary.
package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/traktrelay/traktrelay/internal/appid"
	"github.com/traktrelay/traktrelay/internal/observability"
)

const serviceName = "traktrelay"

var (
	cfgFile string
	verbose bool

	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by the main package to set version information.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Secured edge gateway for the Trakt API",
	Long: `traktrelay sits between a client application and the Trakt REST API,
keeping the OAuth client credentials server-side, restricting which upstream
endpoints are reachable, and rate limiting abusive callers.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Load app identity early for help text (before cobra processes --help).
	// The embedded identity makes this work for the standalone binary; a
	// failure falls back to the compiled-in defaults above.
	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		appIdentity = identity
		if identity.BinaryName != "" {
			rootCmd.Use = identity.BinaryName
		}
		if identity.Description != "" {
			rootCmd.Short = identity.Description
			rootCmd.Long = fmt.Sprintf("%s - %s\n\nUse the subcommands to perform specific operations.", identity.BinaryName, identity.Description)
		}
	}

	cobra.OnInitialize(initCLI)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./traktrelay.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initCLI() {
	observability.InitCLILogger(serviceName, verbose)
}
