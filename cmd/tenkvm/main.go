// Command tenkvm is the rpcchainvm plugin serving a TenK collection chain.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/ulimit"
	"github.com/ava-labs/avalanchego/vms/rpcchainvm"
	"github.com/spf13/cobra"

	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/examples/tenkvm/cmd/tenkvm/version"
	"github.com/ava-labs/hypersdk/examples/tenkvm/consts"
	"github.com/ava-labs/hypersdk/snow"

	tvm "github.com/ava-labs/hypersdk/examples/tenkvm/vm"
)

var fdLimit uint64

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          consts.Name,
		Short:        "TenK collection VM plugin",
		SilenceUsage: true,
		RunE:         serveFunc,
	}
	cmd.Flags().Uint64Var(&fdLimit, "fd-limit", ulimit.DefaultFDLimit, "file descriptor limit raised before serving")
	cmd.AddCommand(
		version.NewCommand(),
		newAPIConfigCommand(),
	)
	return cmd
}

// newAPIConfigCommand prints the API config the plugin would start with once
// environment overrides are applied.
func newAPIConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api-config",
		Short: "Prints the effective " + tvm.JSONRPCEndpoint + " config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tvm.ResolveConfig(tvm.NewDefaultConfig()))
		},
	}
}

func main() {
	cobra.EnablePrefixMatching = true
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed %v\n", consts.Name, err)
		os.Exit(1)
	}
}

func serveFunc(*cobra.Command, []string) error {
	if err := ulimit.Set(fdLimit, logging.NoLog{}); err != nil {
		return fmt.Errorf("%w: failed to set fd limit to %d", err, fdLimit)
	}
	v, err := tvm.New()
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", consts.Name, err)
	}
	return rpcchainvm.Serve(
		context.Background(),
		snow.NewSnowVM[*chain.ExecutionBlock, *chain.OutputBlock, *chain.OutputBlock](consts.Version.String(), v),
	)
}
