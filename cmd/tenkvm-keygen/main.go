package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/x/merkledb"
	"github.com/spf13/cobra"

	"github.com/ava-labs/hypersdk/auth"
	"github.com/ava-labs/hypersdk/crypto/ed25519"
	"github.com/ava-labs/hypersdk/examples/tenkvm/consts"
	"github.com/ava-labs/hypersdk/fees"
	hgenesis "github.com/ava-labs/hypersdk/genesis"

	tgenesis "github.com/ava-labs/hypersdk/examples/tenkvm/genesis"
)

var (
	name         string
	symbol       string
	size         uint64
	maxMintPerTx uint8
	randomness   string
	balance      uint64
)

var rootCmd = &cobra.Command{
	Use:   "tenkvm-keygen",
	Short: "Generates a collection owner key and a matching genesis",
	RunE:  runFunc,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "vm-id",
		Short: "Prints the VM id",
		RunE: func(*cobra.Command, []string) error {
			fmt.Println(consts.ID.String())
			return nil
		},
	})
	rootCmd.Flags().StringVar(&name, "name", "TenK", "collection name")
	rootCmd.Flags().StringVar(&symbol, "symbol", consts.Symbol, "collection symbol")
	rootCmd.Flags().Uint64Var(&size, "size", 10_000, "number of tokens in the collection")
	rootCmd.Flags().Uint8Var(&maxMintPerTx, "max-mint-per-tx", tgenesis.DefaultMaxMintPerTx, "tokens a single mint may draw")
	rootCmd.Flags().StringVar(&randomness, "randomness", tgenesis.RandomnessIndependent, "draw randomness: independent or rotating")
	rootCmd.Flags().Uint64Var(&balance, "balance", 10_000_000_000, "native balance allocated to the owner")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tenkvm-keygen failed %v\n", err)
		os.Exit(1)
	}
}

func runFunc(*cobra.Command, []string) error {
	priv, err := ed25519.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	pub := priv.PublicKey()
	addr := auth.NewED25519Address(pub)

	fmt.Fprintf(os.Stderr, "=== TenK Collection Owner Key ===\n")
	fmt.Fprintf(os.Stderr, "Private Key (hex): %s\n", hex.EncodeToString(priv[:]))
	fmt.Fprintf(os.Stderr, "Public Key (hex):  %s\n", hex.EncodeToString(pub[:]))
	fmt.Fprintf(os.Stderr, "Address:           %s\n", addr)

	g := &tgenesis.Genesis{
		StateBranchFactor: merkledb.BranchFactor16,
		CustomAllocation: []*hgenesis.CustomAllocation{
			{
				Address: addr,
				Balance: balance,
			},
		},
		Rules: hgenesis.NewDefaultRules(),
		Collection: &tgenesis.Collection{
			Owner:        addr,
			Name:         name,
			Symbol:       symbol,
			Size:         size,
			MaxMintPerTx: maxMintPerTx,
			Randomness:   randomness,
		},
	}

	g.Rules.MinBlockGap = 100
	g.Rules.MinEmptyBlockGap = 500
	g.Rules.ValidityWindow = 120_000
	g.Rules.MaxActionsPerTx = 16
	g.Rules.MaxOutputsPerAction = 1

	// Keep limits JS-safe so the JSON genesis survives browser tooling.
	const jsMax = 9_007_199_254_740_991
	g.Rules.WindowTargetUnits = fees.Dimensions{jsMax, jsMax, jsMax, jsMax, jsMax}
	g.Rules.MaxBlockUnits = fees.Dimensions{1_800_000, jsMax, jsMax, jsMax, jsMax}

	g.Rules.NetworkID = 0
	g.Rules.ChainID = ids.Empty

	out, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal genesis: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
