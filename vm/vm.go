package vm

import (
	"errors"

	"github.com/ava-labs/hypersdk/auth"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/actions"
	tgenesis "github.com/ava-labs/hypersdk/examples/tenkvm/genesis"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	"github.com/ava-labs/hypersdk/state/metadata"
	"github.com/ava-labs/hypersdk/vm"
	"github.com/ava-labs/hypersdk/vm/defaultvm"
)

var (
	ActionParser *codec.TypeParser[chain.Action]
	AuthParser   *codec.TypeParser[chain.Auth]
	OutputParser *codec.TypeParser[codec.Typed]

	AuthProvider *auth.AuthProvider

	Parser *chain.TxTypeParser
)

func init() {
	ActionParser = codec.NewTypeParser[chain.Action]()
	AuthParser = codec.NewTypeParser[chain.Auth]()
	OutputParser = codec.NewTypeParser[codec.Typed]()
	AuthProvider = auth.NewAuthProvider()

	if err := auth.WithDefaultPrivateKeyFactories(AuthProvider); err != nil {
		panic(err)
	}

	if err := errors.Join(
		ActionParser.Register(&actions.MintTokens{}, actions.UnmarshalMintTokens),
		ActionParser.Register(&actions.InitAirdrop{}, actions.UnmarshalInitAirdrop),
		ActionParser.Register(&actions.DrawAirdropWinner{}, actions.UnmarshalDrawAirdropWinner),
		ActionParser.Register(&actions.MintAirdropToken{}, actions.UnmarshalMintAirdropToken),

		AuthParser.Register(&auth.ED25519{}, auth.UnmarshalED25519),
		AuthParser.Register(&auth.SECP256R1{}, auth.UnmarshalSECP256R1),
		AuthParser.Register(&auth.BLS{}, auth.UnmarshalBLS),

		OutputParser.Register(&actions.MintTokensResult{}, actions.UnmarshalMintTokensResult),
		OutputParser.Register(&actions.InitAirdropResult{}, actions.UnmarshalInitAirdropResult),
		OutputParser.Register(&actions.DrawAirdropWinnerResult{}, actions.UnmarshalDrawAirdropWinnerResult),
		OutputParser.Register(&actions.MintAirdropTokenResult{}, actions.UnmarshalMintAirdropTokenResult),
	); err != nil {
		panic(err)
	}

	Parser = chain.NewTxTypeParser(ActionParser, AuthParser)
}

func New(options ...vm.Option) (*vm.VM, error) {
	factory := NewFactory()
	return factory.New(options...)
}

func NewFactory() *vm.Factory {
	options := append(defaultvm.NewDefaultOptions(), With())
	return vm.NewFactory(
		&tgenesis.Factory{},
		&storage.BalanceHandler{},
		metadata.NewDefaultManager(),
		ActionParser,
		AuthParser,
		OutputParser,
		auth.DefaultEngines(),
		options...,
	)
}
