package genesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/x/merkledb"

	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	hgenesis "github.com/ava-labs/hypersdk/genesis"
	"github.com/ava-labs/hypersdk/state"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

const (
	RandomnessIndependent = "independent"
	RandomnessRotating    = "rotating"

	DefaultMaxMintPerTx uint8 = 3
)

var (
	_ hgenesis.Genesis               = (*Genesis)(nil)
	_ hgenesis.GenesisAndRuleFactory = (*Factory)(nil)
)

type Collection struct {
	Owner        codec.Address `json:"owner"`
	Name         string        `json:"name"`
	Symbol       string        `json:"symbol"`
	Size         uint64        `json:"size"`
	MaxMintPerTx uint8         `json:"maxMintPerTx"`
	Randomness   string        `json:"randomness"`
}

type Genesis struct {
	StateBranchFactor merkledb.BranchFactor        `json:"stateBranchFactor"`
	CustomAllocation  []*hgenesis.CustomAllocation `json:"customAllocation"`
	Rules             *hgenesis.Rules              `json:"initialRules"`
	Collection        *Collection                  `json:"collection,omitempty"`
}

func (g *Genesis) InitializeState(
	ctx context.Context,
	tracer trace.Tracer,
	mu state.Mutable,
	balanceHandler chain.BalanceHandler,
) error {
	if err := validateAllocations(g.CustomAllocation); err != nil {
		return err
	}
	base := &hgenesis.DefaultGenesis{
		StateBranchFactor: g.StateBranchFactor,
		CustomAllocation:  g.CustomAllocation,
		Rules:             g.Rules,
	}
	if err := base.InitializeState(ctx, tracer, mu, balanceHandler); err != nil {
		return err
	}
	if g.Collection == nil {
		return nil
	}

	collection, err := g.Collection.config()
	if err != nil {
		return err
	}
	if err := storage.PutCollection(ctx, mu, collection); err != nil {
		return err
	}
	// Slots are written lazily by draws; only the header is stored here.
	return storage.PutTokenRaffle(ctx, mu, storage.NewTokenRaffle(collection.Size))
}

func (g *Genesis) GetStateBranchFactor() merkledb.BranchFactor {
	return g.StateBranchFactor
}

func (c *Collection) config() (storage.Collection, error) {
	var mode uint8
	switch strings.ToLower(strings.TrimSpace(c.Randomness)) {
	case "", RandomnessIndependent:
		mode = storage.RandomnessIndependent
	case RandomnessRotating:
		mode = storage.RandomnessRotating
	default:
		return storage.Collection{}, fmt.Errorf("%w: randomness must be %q or %q", storage.ErrInvalidCollection, RandomnessIndependent, RandomnessRotating)
	}
	collection := storage.Collection{
		Owner:        c.Owner,
		Name:         c.Name,
		Symbol:       c.Symbol,
		Size:         c.Size,
		MaxMintPerTx: c.MaxMintPerTx,
		Randomness:   mode,
	}
	return collection, storage.ValidateCollection(collection)
}

type Factory struct{}

func (Factory) Load(
	genesisBytes []byte,
	_ []byte,
	networkID uint32,
	chainID ids.ID,
) (hgenesis.Genesis, chain.RuleFactory, error) {
	g := &Genesis{}
	if err := json.Unmarshal(genesisBytes, g); err != nil {
		return nil, nil, err
	}
	if g.StateBranchFactor == 0 {
		g.StateBranchFactor = merkledb.BranchFactor16
	}
	if g.Rules == nil {
		g.Rules = hgenesis.NewDefaultRules()
	}
	g.Rules.NetworkID = networkID
	g.Rules.ChainID = chainID
	applyCollectionDefaults(g)
	return g, &hgenesis.ImmutableRuleFactory{Rules: g.Rules}, nil
}

func applyCollectionDefaults(g *Genesis) {
	if g.Collection == nil {
		return
	}
	var zero codec.Address
	if g.Collection.Owner == zero && len(g.CustomAllocation) > 0 {
		g.Collection.Owner = g.CustomAllocation[0].Address
	}
	if g.Collection.MaxMintPerTx == 0 {
		g.Collection.MaxMintPerTx = DefaultMaxMintPerTx
	}
	if g.Collection.Randomness == "" {
		g.Collection.Randomness = RandomnessIndependent
	}
}

func validateAllocations(allocs []*hgenesis.CustomAllocation) error {
	var sum uint64
	for _, alloc := range allocs {
		next, err := smath.Add(sum, alloc.Balance)
		if err != nil {
			return fmt.Errorf("%w: allocations overflow", storage.ErrInvalidBalance)
		}
		sum = next
	}
	return nil
}
