package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata injected through -ldflags on release builds. Empty
// values are filled in from the toolchain's stamped build info.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildDetails is everything the version command reports.
type buildDetails struct {
	version   string
	commit    string
	buildDate string
	goVersion string
}

// resolveBuildDetails merges the ldflags values with the VCS stamps from
// debug.ReadBuildInfo. Explicit ldflags win; builds made outside a
// checkout fall back to placeholders.
func resolveBuildDetails() buildDetails {
	d := buildDetails{
		version:   version,
		commit:    commit,
		buildDate: date,
		goVersion: runtime.Version(),
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if d.version == "" {
			d.version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if d.commit == "" {
					d.commit = shortHash(s.Value)
				}
			case "vcs.time":
				if d.buildDate == "" {
					d.buildDate = s.Value
				}
			}
		}
	}

	if d.version == "" {
		d.version = "(devel)"
	}
	if d.commit == "" {
		d.commit = "unknown"
	}
	if d.buildDate == "" {
		d.buildDate = "unknown"
	}
	return d
}

// shortHash abbreviates a VCS revision to the usual seven characters.
func shortHash(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getVersion returns the version string shown by the root command.
func getVersion() string {
	return resolveBuildDetails().version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date, and Go version of competitorscan.`,
		Run: func(cmd *cobra.Command, _ []string) {
			d := resolveBuildDetails()
			out := cmd.OutOrStdout()

			if short, _ := cmd.Flags().GetBool("short"); short {
				fmt.Fprintln(out, d.version)
				return
			}

			fmt.Fprintf(out, "competitorscan version %s\n", d.version)
			fmt.Fprintf(out, "  commit: %s\n", d.commit)
			fmt.Fprintf(out, "  built:  %s\n", d.buildDate)
			fmt.Fprintf(out, "  go:     %s\n", d.goVersion)
		},
	}

	cmd.Flags().Bool("short", false, "Print only the version number")

	return cmd
}
