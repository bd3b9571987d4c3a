package storage

import "errors"

var (
	ErrInvalidBalance     = errors.New("invalid balance")
	ErrUnauthorized       = errors.New("actor is not the collection owner")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidCollection  = errors.New("invalid collection config")
	ErrRaffleNotFound     = errors.New("token raffle not found")
	ErrAirdropNotFound    = errors.New("airdrop raffle not initialized")
	ErrAirdropExists      = errors.New("airdrop raffle is already initialized")
	ErrInvalidAirdrop     = errors.New("invalid airdrop raffle")
	ErrMintRecordNotFound = errors.New("mint record not found")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrStaleRemaining     = errors.New("remaining count does not match raffle state")
	ErrStaleWinners       = errors.New("winner count does not match airdrop state")
	ErrInvalidMintCount   = errors.New("invalid mint count")

	ErrAirdropWinnerNotFound = errors.New("airdrop winner not drawn")
	ErrAirdropWinnerMismatch = errors.New("token id does not match drawn winner")
	ErrAirdropAwardNotFound  = errors.New("airdrop token not awarded")
	ErrAirdropAwarded        = errors.New("airdrop token already awarded")
)
