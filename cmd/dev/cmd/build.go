package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

type target struct {
	os   string
	arch string
}

// boards maps the supported single board computers to their Go platform.
var boards = map[string]target{
	"nanopi": {os: "linux", arch: "arm"},
	"rpi":    {os: "linux", arch: "arm64"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the hdc1080 cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, _ := cmd.Flags().GetString("version")
			board, _ := cmd.Flags().GetString("board")
			noCache, _ := cmd.Flags().GetBool("no-cache")

			if board == "" {
				goos, _ := cmd.Flags().GetString("os")
				goarch, _ := cmd.Flags().GetString("arch")
				slog.Info("go build", "os", goos, "arch", goarch, "version", version)
				return build.GoBuild("dist/hdc1080", "./cmd/hdc1080", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          goarch,
					OS:            goos,
				})
			}
			t, ok := boards[board]
			if !ok {
				return fmt.Errorf("unknown board %q", board)
			}
			// hid and host drivers need cgo, cross builds run in a container
			slog.Info("cross build", "board", board, "os", t.os, "arch", t.arch, "version", version)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch), []string{"build", "--version", version, "--os", t.os, "--arch", t.arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("board", "", "target board (nanopi, rpi); empty for a native build")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	return cmd
}
