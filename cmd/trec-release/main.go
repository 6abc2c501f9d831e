// Command trec-release builds and optionally publishes a release
// manifest for a build's catalog (spec.md §3's debuginfo<slot>.db files)
// and the binary they describe. It is adapted from the teacher's
// release/release.go, releaser/main.go and cmd/release/main.go — three
// near-identical ELF/DWARF symbol extractors that POST a release to a
// managed backend — with the symbolication dropped (this catalog's
// relations already carry file and function names textually, see
// catalog/release.go) and the upload target generalized to any HTTP
// endpoint via TREC_RELEASE_URL.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maoif/trec/catalog"
	"github.com/maoif/trec/config"
)

func main() {
	var out string

	root := &cobra.Command{
		Use:   "trec-release <binary>",
		Short: "build and publish a catalog release manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := config.GetCompileConfig()
			if err != nil {
				return err
			}

			binPath, err := catalog.AbsBinaryPath(args[0])
			if err != nil {
				return err
			}

			slots, err := catalog.AllSlots(cc.DatabaseDir)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				return fmt.Errorf("no catalog slots found under %s", cc.DatabaseDir)
			}

			rel, err := catalog.BuildRelease(cc.DatabaseDir, binPath, slots, time.Now())
			if err != nil {
				return err
			}

			if url := os.Getenv(config.EnvReleaseURL); url != "" {
				return rel.Publish(url)
			}
			if out == "" {
				out = binPath + ".release.json"
			}
			return rel.WriteFile(out)
		},
	}
	root.Flags().StringVar(&out, "out", "", "path to write the release manifest when TREC_RELEASE_URL is unset")

	if err := root.Execute(); err != nil {
		config.FatalDiagnostic("%v", err)
		os.Exit(1)
	}
}
