package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagetls/pkg/pagetls"
)

// Set at link time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// VersionInfo describes the tlsctl binary and the host it runs on.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	Engine    string `json:"engine"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	PageSize  int    `json:"page_size"`
}

func buildVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		Built:     date,
		Engine:    "(devel)",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		PageSize:  pagetls.Default().PageSize(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			if dep.Path == "github.com/joshuapare/pagetls" && dep.Version != "" {
				info.Engine = dep.Version
			}
		}
	}
	return info
}

func runVersion() error {
	info := buildVersionInfo()
	if jsonOut {
		return printJSON(info)
	}
	printInfo("tlsctl %s\n", info.Version)
	printInfo("  commit:    %s\n", info.Commit)
	printInfo("  built:     %s\n", info.Built)
	printInfo("  engine:    %s\n", info.Engine)
	printInfo("  go:        %s\n", info.GoVersion)
	printInfo("  platform:  %s\n", info.Platform)
	printInfo("  page size: %d bytes\n", info.PageSize)
	return nil
}
