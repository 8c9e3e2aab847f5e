package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var rootCmd = &cobra.Command{
	Use:     "galerie",
	Short:   "Galerie - portfolio gallery server with an admin panel",
	Long:    `A single-binary portfolio gallery: public works API, admin catalog management, and an optional embedded backend for remote-style authentication.`,
	Version: Version,
}

func init() {
	versionTmpl := "galerie version {{.Version}}"
	if BuildTime != "" {
		versionTmpl += " (built " + BuildTime
		if GitCommit != "" {
			versionTmpl += ", commit " + GitCommit
		}
		versionTmpl += ")"
	}
	versionTmpl += "\n"
	rootCmd.SetVersionTemplate(versionTmpl)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
