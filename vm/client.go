package vm

import (
	"context"
	"strings"
	"time"

	"github.com/ava-labs/hypersdk/api/jsonrpc"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/consts"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	"github.com/ava-labs/hypersdk/genesis"
	"github.com/ava-labs/hypersdk/requester"
	"github.com/ava-labs/hypersdk/utils"

	tgenesis "github.com/ava-labs/hypersdk/examples/tenkvm/genesis"
)

const (
	balanceCheckInterval = 500 * time.Millisecond
	mintCheckInterval    = 500 * time.Millisecond
)

type JSONRPCClient struct {
	requester *requester.EndpointRequester

	g           *tgenesis.Genesis
	ruleFactory chain.RuleFactory
}

func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += JSONRPCEndpoint
	req := requester.New(uri, consts.Name)
	return &JSONRPCClient{
		requester: req,
	}
}

func (cli *JSONRPCClient) Genesis(ctx context.Context) (*tgenesis.Genesis, error) {
	if cli.g != nil {
		return cli.g, nil
	}

	resp := new(GenesisReply)
	err := cli.requester.SendRequest(
		ctx,
		"genesis",
		nil,
		resp,
	)
	if err != nil {
		return nil, err
	}
	cli.g = resp.Genesis
	return resp.Genesis, nil
}

func (cli *JSONRPCClient) Balance(ctx context.Context, addr codec.Address) (uint64, error) {
	resp := new(BalanceReply)
	err := cli.requester.SendRequest(
		ctx,
		"balance",
		&BalanceArgs{
			Address: addr,
		},
		resp,
	)
	return resp.Amount, err
}

func (cli *JSONRPCClient) Collection(ctx context.Context) (*CollectionReply, error) {
	resp := new(CollectionReply)
	err := cli.requester.SendRequest(
		ctx,
		"collection",
		nil,
		resp,
	)
	return resp, err
}

func (cli *JSONRPCClient) MintRecord(ctx context.Context, serial uint64) (storage.MintedToken, error) {
	resp := new(MintRecordReply)
	err := cli.requester.SendRequest(
		ctx,
		"mintRecord",
		&MintRecordArgs{
			Serial: serial,
		},
		resp,
	)
	return resp.Token, err
}

func (cli *JSONRPCClient) Minted(ctx context.Context, offset uint32, limit uint32) ([]storage.MintedToken, error) {
	resp := new(MintedReply)
	err := cli.requester.SendRequest(
		ctx,
		"minted",
		&PageArgs{
			Offset: offset,
			Limit:  limit,
		},
		resp,
	)
	return resp.Tokens, err
}

func (cli *JSONRPCClient) OwnerCount(ctx context.Context, addr codec.Address) (uint64, error) {
	resp := new(OwnerCountReply)
	err := cli.requester.SendRequest(
		ctx,
		"ownerCount",
		&BalanceArgs{
			Address: addr,
		},
		resp,
	)
	return resp.Count, err
}

func (cli *JSONRPCClient) Airdrop(ctx context.Context) (*AirdropReply, error) {
	resp := new(AirdropReply)
	err := cli.requester.SendRequest(
		ctx,
		"airdrop",
		nil,
		resp,
	)
	return resp, err
}

func (cli *JSONRPCClient) AirdropWinners(ctx context.Context, offset uint32, limit uint32) ([]uint32, error) {
	resp := new(AirdropWinnersReply)
	err := cli.requester.SendRequest(
		ctx,
		"airdropWinners",
		&PageArgs{
			Offset: offset,
			Limit:  limit,
		},
		resp,
	)
	return resp.Winners, err
}

func (cli *JSONRPCClient) AirdropAward(ctx context.Context, tokenID uint32) (codec.Address, error) {
	resp := new(AirdropAwardReply)
	err := cli.requester.SendRequest(
		ctx,
		"airdropAward",
		&AirdropAwardArgs{
			TokenID: tokenID,
		},
		resp,
	)
	return resp.Owner, err
}

func (cli *JSONRPCClient) WaitForBalance(
	ctx context.Context,
	addr codec.Address,
	min uint64,
) error {
	return jsonrpc.Wait(ctx, balanceCheckInterval, func(ctx context.Context) (bool, error) {
		balance, err := cli.Balance(ctx, addr)
		if err != nil {
			return false, err
		}
		shouldExit := balance >= min
		if !shouldExit {
			utils.Outf(
				"{{yellow}}waiting for %s balance: %s{{/}}\n",
				utils.FormatBalance(min),
				addr,
			)
		}
		return shouldExit, nil
	})
}

// WaitForMinted blocks until at least min tokens of the collection are minted.
func (cli *JSONRPCClient) WaitForMinted(ctx context.Context, min uint64) error {
	return jsonrpc.Wait(ctx, mintCheckInterval, func(ctx context.Context) (bool, error) {
		collection, err := cli.Collection(ctx)
		if err != nil {
			return false, err
		}
		shouldExit := collection.Minted >= min
		if !shouldExit {
			utils.Outf("{{yellow}}waiting for %d minted (have %d){{/}}\n", min, collection.Minted)
		}
		return shouldExit, nil
	})
}

func (*JSONRPCClient) GetParser() chain.Parser {
	return chain.NewTxTypeParser(ActionParser, AuthParser)
}

func (cli *JSONRPCClient) GetRuleFactory(ctx context.Context) (chain.RuleFactory, error) {
	if cli.ruleFactory != nil {
		return cli.ruleFactory, nil
	}
	networkGenesis, err := cli.Genesis(ctx)
	if err != nil {
		return nil, err
	}
	cli.ruleFactory = &genesis.ImmutableRuleFactory{Rules: networkGenesis.Rules}
	return cli.ruleFactory, nil
}
