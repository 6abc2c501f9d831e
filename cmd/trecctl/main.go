// Command trecctl is the catalog administration CLI: it claims and
// releases job slots and lists what a catalog directory currently holds,
// for use in build scripts that need to manage slots outside of the
// instrumentation engine's own compile-time acquisition. It also bundles
// this build's third-party license notices, via gobuffalo/packr, the way
// the rest of the example pack embeds static assets into a CLI binary.
package main

import (
	"fmt"
	"os"

	"github.com/gobuffalo/packr"
	"github.com/spf13/cobra"

	"github.com/maoif/trec/catalog"
	"github.com/maoif/trec/config"
)

func main() {
	root := &cobra.Command{Use: "trecctl", Short: "administer a trec identifier catalog"}
	root.AddCommand(catalogCmd(), licensesCmd())

	if err := root.Execute(); err != nil {
		config.FatalDiagnostic("%v", err)
		os.Exit(1)
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "manage catalog job slots"}
	cmd.AddCommand(catalogSlotsCmd(), catalogAcquireCmd(), catalogReleaseCmd())
	return cmd
}

func catalogSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots <dir>",
		Short: "list every slot ever allocated under dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := catalog.AllSlots(args[0])
			if err != nil {
				return err
			}
			for _, s := range slots {
				fmt.Println(s)
			}
			return nil
		},
	}
}

func catalogAcquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "acquire <dir>",
		Short: "claim a job slot under dir and print its number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := catalog.AcquireSlot(args[0])
			if err != nil {
				return err
			}
			fmt.Println(slot)
			return nil
		},
	}
}

func catalogReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <dir> <slot>",
		Short: "release a previously acquired job slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var slot int64
			if _, err := fmt.Sscanf(args[1], "%d", &slot); err != nil {
				return fmt.Errorf("invalid slot %q: %w", args[1], err)
			}
			return catalog.ReleaseSlot(args[0], slot)
		},
	}
}

func licensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "licenses",
		Short: "print third-party license notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			box := packr.NewBox("./licenses")
			fmt.Print(box.String("NOTICE.txt"))
			return nil
		},
	}
}
