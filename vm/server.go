package vm

import (
	"net/http"

	"github.com/ava-labs/hypersdk/api"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/consts"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"

	tgenesis "github.com/ava-labs/hypersdk/examples/tenkvm/genesis"
)

const JSONRPCEndpoint = "/tenkapi"

var _ api.HandlerFactory[api.VM] = (*jsonRPCServerFactory)(nil)

type jsonRPCServerFactory struct {
	maxPageSize uint32
}

func (f jsonRPCServerFactory) New(vm api.VM) (api.Handler, error) {
	handler, err := api.NewJSONRPCHandler(consts.Name, NewJSONRPCServer(vm, f.maxPageSize))
	return api.Handler{
		Path:    JSONRPCEndpoint,
		Handler: handler,
	}, err
}

type JSONRPCServer struct {
	vm          api.VM
	maxPageSize uint32
}

func NewJSONRPCServer(vm api.VM, maxPageSize uint32) *JSONRPCServer {
	if maxPageSize == 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &JSONRPCServer{vm: vm, maxPageSize: maxPageSize}
}

func (j *JSONRPCServer) pageLimit(limit uint32) uint32 {
	if limit == 0 || limit > j.maxPageSize {
		return j.maxPageSize
	}
	return limit
}

type GenesisReply struct {
	Genesis *tgenesis.Genesis `json:"genesis"`
}

func (j *JSONRPCServer) Genesis(_ *http.Request, _ *struct{}, reply *GenesisReply) (err error) {
	reply.Genesis = j.vm.Genesis().(*tgenesis.Genesis)
	return nil
}

type BalanceArgs struct {
	Address codec.Address `json:"address"`
}

type BalanceReply struct {
	Amount uint64 `json:"amount"`
}

func (j *JSONRPCServer) Balance(req *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.Balance")
	defer span.End()

	balance, err := storage.GetBalanceFromState(ctx, j.vm.ReadState, args.Address)
	if err != nil {
		return err
	}
	reply.Amount = balance
	return err
}

type CollectionReply struct {
	Owner        codec.Address `json:"owner"`
	Name         string        `json:"name"`
	Symbol       string        `json:"symbol"`
	Size         uint64        `json:"size"`
	MaxMintPerTx uint8         `json:"maxMintPerTx"`
	Randomness   string        `json:"randomness"`
	Remaining    uint64        `json:"remaining"`
	Minted       uint64        `json:"minted"`
}

func (j *JSONRPCServer) Collection(req *http.Request, _ *struct{}, reply *CollectionReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.Collection")
	defer span.End()

	collection, minted, err := storage.GetMintedCountFromState(ctx, j.vm.ReadState)
	if err != nil {
		return err
	}
	reply.Owner = collection.Owner
	reply.Name = collection.Name
	reply.Symbol = collection.Symbol
	reply.Size = collection.Size
	reply.MaxMintPerTx = collection.MaxMintPerTx
	reply.Randomness = tgenesis.RandomnessIndependent
	if collection.Randomness == storage.RandomnessRotating {
		reply.Randomness = tgenesis.RandomnessRotating
	}
	reply.Minted = minted
	reply.Remaining = collection.Size - minted
	return nil
}

type MintRecordArgs struct {
	Serial uint64 `json:"serial"`
}

type MintRecordReply struct {
	Token storage.MintedToken `json:"token"`
}

func (j *JSONRPCServer) MintRecord(req *http.Request, args *MintRecordArgs, reply *MintRecordReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.MintRecord")
	defer span.End()

	token, err := storage.GetMintedTokenFromState(ctx, j.vm.ReadState, args.Serial)
	if err != nil {
		return err
	}
	reply.Token = token
	return nil
}

type PageArgs struct {
	Offset uint32 `json:"offset"`
	Limit  uint32 `json:"limit"`
}

type MintedReply struct {
	Tokens []storage.MintedToken `json:"tokens"`
}

func (j *JSONRPCServer) Minted(req *http.Request, args *PageArgs, reply *MintedReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.Minted")
	defer span.End()

	tokens, err := storage.GetMintedFromState(ctx, j.vm.ReadState, uint64(args.Offset), uint64(j.pageLimit(args.Limit)))
	if err != nil {
		return err
	}
	reply.Tokens = tokens
	return nil
}

type OwnerCountReply struct {
	Count uint64 `json:"count"`
}

func (j *JSONRPCServer) OwnerCount(req *http.Request, args *BalanceArgs, reply *OwnerCountReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.OwnerCount")
	defer span.End()

	count, err := storage.GetOwnerCountFromState(ctx, j.vm.ReadState, args.Address)
	if err != nil {
		return err
	}
	reply.Count = count
	return nil
}

type AirdropReply struct {
	Remaining  uint32 `json:"remaining"`
	NumWinners uint32 `json:"numWinners"`
	MaxWinners uint32 `json:"maxWinners"`
}

func (j *JSONRPCServer) Airdrop(req *http.Request, _ *struct{}, reply *AirdropReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.Airdrop")
	defer span.End()

	airdrop, err := storage.GetAirdropFromState(ctx, j.vm.ReadState)
	if err != nil {
		return err
	}
	reply.Remaining = airdrop.Len()
	reply.NumWinners = airdrop.NumWinners()
	reply.MaxWinners = airdrop.MaxDraws()
	return nil
}

type AirdropWinnersReply struct {
	Winners []uint32 `json:"winners"`
}

func (j *JSONRPCServer) AirdropWinners(req *http.Request, args *PageArgs, reply *AirdropWinnersReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.AirdropWinners")
	defer span.End()

	winners, err := storage.GetAirdropWinnersFromState(ctx, j.vm.ReadState, args.Offset, j.pageLimit(args.Limit))
	if err != nil {
		return err
	}
	reply.Winners = winners
	return nil
}

type AirdropAwardArgs struct {
	TokenID uint32 `json:"tokenID"`
}

type AirdropAwardReply struct {
	Owner codec.Address `json:"owner"`
}

func (j *JSONRPCServer) AirdropAward(req *http.Request, args *AirdropAwardArgs, reply *AirdropAwardReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "Server.AirdropAward")
	defer span.End()

	owner, err := storage.GetAirdropAwardFromState(ctx, j.vm.ReadState, args.TokenID)
	if err != nil {
		return err
	}
	reply.Owner = owner
	return nil
}
