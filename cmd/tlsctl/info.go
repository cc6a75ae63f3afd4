package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagetls/pkg/pagetls"
)

var infoProbe bool

func init() {
	cmd := newInfoCmd()
	cmd.Flags().BoolVar(&infoProbe, "probe", false, "Create a one-byte region and check its page is protected")
	rootCmd.AddCommand(cmd)
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report page size, engine settings and statistics",
		Long: `The info command reports the host page size, the engine options in
effect, and the engine statistics. With --probe it also creates a region and
checks that its page faults when touched outside an API call.

Example:
  tlsctl info
  tlsctl info --probe --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

// Info is the report printed by the info command.
type Info struct {
	Platform           string        `json:"platform"`
	PageSize           int           `json:"page_size"`
	StrictBounds       bool          `json:"strict_bounds"`
	ReleaseOnTerminate bool          `json:"release_on_terminate"`
	Probed             bool          `json:"probed"`
	Protected          bool          `json:"protected,omitempty"`
	Stats              pagetls.Stats `json:"stats"`
}

func runInfo() error {
	e, done := newEngine()
	defer done()

	info, err := gatherInfo(e, infoProbe)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nEngine Information:\n")
	printInfo("  Platform:      %s\n", info.Platform)
	printInfo("  Page size:     %d bytes\n", info.PageSize)
	printInfo("  Strict bounds: %v\n", info.StrictBounds)
	printInfo("  Release on terminate: %v\n", info.ReleaseOnTerminate)
	if info.Probed {
		printInfo("\nProbe:\n")
		if info.Protected {
			printInfo("  ✓ region page is protected outside API calls\n")
		} else {
			printInfo("  ✗ region page is readable outside API calls\n")
		}
	}
	printStats(info.Stats)
	if info.Probed && !info.Protected {
		return fmt.Errorf("protection probe failed")
	}
	return nil
}

func gatherInfo(e *pagetls.Engine, probe bool) (Info, error) {
	info := Info{
		Platform:           runtime.GOOS + "/" + runtime.GOARCH,
		PageSize:           e.PageSize(),
		StrictBounds:       strict,
		ReleaseOnTerminate: pagetls.DefaultOptions().ReleaseOnTerminate,
	}
	if probe {
		if err := e.Create(1); err != nil {
			return info, fmt.Errorf("probe create: %w", err)
		}
		printVerbose("Probing region of thread %d\n", pagetls.Self())
		info.Probed = true
		info.Protected = e.Verify() == nil
		info.Stats = e.Stats()
		if err := e.Destroy(); err != nil {
			return info, fmt.Errorf("probe destroy: %w", err)
		}
		return info, nil
	}
	info.Stats = e.Stats()
	return info, nil
}
