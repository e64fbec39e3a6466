package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foliodev/folio/internal/store"
)

// buildInfo describes the running binary, including the store backends
// compiled into it.
type buildInfo struct {
	Version      string   `json:"version"`
	Commit       string   `json:"commit"`
	Built        string   `json:"built"`
	GoVersion    string   `json:"go_version"`
	Platform     string   `json:"platform"`
	StoreDrivers []string `json:"store_drivers"`
}

func currentBuild(commit, date string) buildInfo {
	return buildInfo{
		Version:      versionString(),
		Commit:       commit,
		Built:        date,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		StoreDrivers: store.Drivers(),
	}
}

func (b buildInfo) write(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	_, err := fmt.Fprintf(w, "folio %s (%s, built %s)\n  %s %s\n  stores: %s\n",
		b.Version, b.Commit, b.Built, b.GoVersion, b.Platform, strings.Join(b.StoreDrivers, ", "))
	return err
}

func newVersionCmd(commit, date string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the folio build and the store backends it supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentBuild(commit, date).write(cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}
