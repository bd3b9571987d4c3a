// tenkvm-smoke mints from a live collection over JSON-RPC and checks the
// ledger and airdrop endpoints agree with the submitted actions.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ava-labs/hypersdk/api/jsonrpc"
	"github.com/ava-labs/hypersdk/auth"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/crypto/ed25519"
	"github.com/ava-labs/hypersdk/examples/tenkvm/actions"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"

	vmclient "github.com/ava-labs/hypersdk/examples/tenkvm/vm"
)

type Report struct {
	Pass    bool   `json:"pass"`
	Error   string `json:"error,omitempty"`
	Steps   []Step `json:"steps"`
	Summary struct {
		MintedBefore uint64   `json:"minted_before"`
		MintedAfter  uint64   `json:"minted_after"`
		TokenIDs     []uint64 `json:"token_ids,omitempty"`
		Winners      []uint32 `json:"winners,omitempty"`
	} `json:"summary"`
}

type Step struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	TxID   string `json:"tx_id,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	nodeURL := os.Getenv("NODE_URL")
	if nodeURL == "" {
		nodeURL = "http://127.0.0.1:9660"
	}
	chainID := os.Getenv("CHAIN_ID")
	if chainID == "" {
		fmt.Fprintf(os.Stderr, "CHAIN_ID env required\n")
		os.Exit(1)
	}
	pkHex := os.Getenv("PRIVATE_KEY")
	if pkHex == "" {
		fmt.Fprintf(os.Stderr, "PRIVATE_KEY env required (see tenkvm-keygen)\n")
		os.Exit(1)
	}
	count := uint8(1)
	if v := os.Getenv("MINT_COUNT"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid MINT_COUNT: %v\n", err)
			os.Exit(1)
		}
		count = uint8(n)
	}

	report := &Report{}
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	if err := run(ctx, nodeURL, chainID, pkHex, count, report); err != nil {
		report.Pass = false
		report.Error = err.Error()
	} else {
		report.Pass = true
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if !report.Pass {
		os.Exit(1)
	}
}

func run(ctx context.Context, nodeURL, chainID, pkHex string, count uint8, report *Report) error {
	baseURL := fmt.Sprintf("%s/ext/bc/%s", nodeURL, chainID)

	pkBytes, err := hex.DecodeString(pkHex)
	if err != nil {
		return fmt.Errorf("invalid PRIVATE_KEY hex: %w", err)
	}
	priv := ed25519.PrivateKey(pkBytes)
	factory := auth.NewED25519Factory(priv)
	addr := auth.NewED25519Address(priv.PublicKey())

	coreClient := jsonrpc.NewJSONRPCClient(baseURL)
	tenkClient := vmclient.NewJSONRPCClient(baseURL)

	submitAction := func(action chain.Action) (string, error) {
		_, _, chainIDParsed, err := coreClient.Network(ctx)
		if err != nil {
			return "", fmt.Errorf("network: %w", err)
		}
		_, h0, ts, err := coreClient.Accepted(ctx)
		if err != nil {
			return "", fmt.Errorf("accepted: %w", err)
		}
		unitPrices, err := coreClient.UnitPrices(ctx, true)
		if err != nil {
			return "", fmt.Errorf("unitPrices: %w", err)
		}
		maxFee := uint64(0)
		for i := 0; i < len(unitPrices); i++ {
			maxFee += unitPrices[i] * 10_000
		}
		if maxFee < 100_000 {
			maxFee = 100_000
		}

		// Expiry must sit on a whole second.
		expiry := ((ts + 60_000) / 1000) * 1000
		if expiry <= ts {
			expiry = ((ts / 1000) + 61) * 1000
		}
		txBytes, err := chain.SignRawActionBytesTx(
			chain.Base{
				Timestamp: expiry,
				ChainID:   chainIDParsed,
				MaxFee:    maxFee,
			},
			[][]byte{action.Bytes()},
			factory,
		)
		if err != nil {
			return "", fmt.Errorf("sign: %w", err)
		}
		txID, err := coreClient.SubmitTx(ctx, txBytes)
		if err != nil {
			return "", fmt.Errorf("submit: %w", err)
		}
		for i := 0; i < 30; i++ {
			time.Sleep(time.Second)
			_, h1, _, _ := coreClient.Accepted(ctx)
			if h1 > h0 {
				break
			}
		}
		return txID.String(), nil
	}

	record := func(name string, txID string, detail string, err error) error {
		step := Step{Name: name, TxID: txID, Detail: detail, Pass: err == nil}
		if err != nil {
			step.Error = err.Error()
		}
		report.Steps = append(report.Steps, step)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	before, err := tenkClient.Collection(ctx)
	if err := record("query_collection", "", fmt.Sprintf("%+v", before), err); err != nil {
		return err
	}
	report.Summary.MintedBefore = before.Minted
	if uint64(count) > before.Remaining {
		return record("check_supply", "", "", fmt.Errorf("only %d tokens remaining", before.Remaining))
	}
	ownedBefore, err := tenkClient.OwnerCount(ctx, addr)
	if err := record("query_owner_count", "", fmt.Sprintf("owned=%d", ownedBefore), err); err != nil {
		return err
	}

	txID, err := submitAction(&actions.MintTokens{Count: count, Remaining: before.Remaining})
	if err := record("mint_tokens", txID, fmt.Sprintf("count=%d remaining=%d", count, before.Remaining), err); err != nil {
		return err
	}
	err = tenkClient.WaitForMinted(ctx, before.Minted+uint64(count))
	if err := record("wait_for_mint", "", "", err); err != nil {
		return err
	}

	after, err := tenkClient.Collection(ctx)
	if err := record("query_collection_after", "", fmt.Sprintf("%+v", after), err); err != nil {
		return err
	}
	report.Summary.MintedAfter = after.Minted

	tokens, err := tenkClient.Minted(ctx, uint32(before.Minted), uint32(count))
	if err == nil && len(tokens) != int(count) {
		err = fmt.Errorf("expected %d records, got %d", count, len(tokens))
	}
	if err == nil {
		err = checkRecords(tokens, addr, after.Size)
	}
	for _, token := range tokens {
		report.Summary.TokenIDs = append(report.Summary.TokenIDs, token.TokenID)
	}
	if err := record("check_mint_records", "", fmt.Sprintf("token_ids=%v", report.Summary.TokenIDs), err); err != nil {
		return err
	}

	ownedAfter, err := tenkClient.OwnerCount(ctx, addr)
	if err == nil && ownedAfter != ownedBefore+uint64(count) {
		err = fmt.Errorf("owner count %d, want %d", ownedAfter, ownedBefore+uint64(count))
	}
	if err := record("check_owner_count", "", fmt.Sprintf("owned=%d", ownedAfter), err); err != nil {
		return err
	}

	if after.Owner != addr {
		report.Steps = append(report.Steps, Step{Name: "airdrop", Pass: true, Detail: "skipped, key is not the collection owner"})
		return nil
	}
	return runAirdrop(ctx, tenkClient, addr, submitAction, record, report)
}

func runAirdrop(
	ctx context.Context,
	tenkClient *vmclient.JSONRPCClient,
	owner codec.Address,
	submitAction func(chain.Action) (string, error),
	record func(string, string, string, error) error,
	report *Report,
) error {
	airdrop, err := tenkClient.Airdrop(ctx)
	if err != nil {
		txID, err := submitAction(&actions.InitAirdrop{Size: 100, MaxWinners: 10})
		if err := record("init_airdrop", txID, "size=100 max_winners=10", err); err != nil {
			return err
		}
		airdrop, err = tenkClient.Airdrop(ctx)
		if err := record("query_airdrop", "", "", err); err != nil {
			return err
		}
	}
	if airdrop.NumWinners >= airdrop.MaxWinners || airdrop.Remaining == 0 {
		report.Steps = append(report.Steps, Step{Name: "draw_airdrop_winner", Pass: true, Detail: "skipped, airdrop finished"})
		return nil
	}

	txID, err := submitAction(&actions.DrawAirdropWinner{Remaining: airdrop.Remaining, NumWinners: airdrop.NumWinners})
	if err := record("draw_airdrop_winner", txID, "", err); err != nil {
		return err
	}
	winners, err := tenkClient.AirdropWinners(ctx, 0, airdrop.NumWinners+1)
	if err == nil && len(winners) != int(airdrop.NumWinners)+1 {
		err = fmt.Errorf("expected %d winners, got %d", airdrop.NumWinners+1, len(winners))
	}
	report.Summary.Winners = winners
	if err := record("check_airdrop_winners", "", fmt.Sprintf("winners=%v", winners), err); err != nil {
		return err
	}

	position := airdrop.NumWinners
	tokenID := winners[position]
	txID, err = submitAction(&actions.MintAirdropToken{Owner: owner, TokenID: tokenID, Position: position})
	if err := record("mint_airdrop_token", txID, fmt.Sprintf("token_id=%d position=%d", tokenID, position), err); err != nil {
		return err
	}
	awarded, err := tenkClient.AirdropAward(ctx, tokenID)
	if err == nil && awarded != owner {
		err = fmt.Errorf("airdrop token %d awarded to %s, want %s", tokenID, awarded, owner)
	}
	return record("check_airdrop_award", "", fmt.Sprintf("owner=%s", awarded), err)
}

func checkRecords(tokens []storage.MintedToken, owner codec.Address, size uint64) error {
	seen := make(map[uint64]struct{}, len(tokens))
	for _, token := range tokens {
		if token.Owner != owner {
			return fmt.Errorf("serial %d owned by %s", token.Serial, token.Owner)
		}
		if token.TokenID >= size {
			return fmt.Errorf("serial %d has token id %d outside collection", token.Serial, token.TokenID)
		}
		if _, ok := seen[token.TokenID]; ok {
			return errors.New("duplicate token id in mint records")
		}
		seen[token.TokenID] = struct{}{}
	}
	return nil
}
