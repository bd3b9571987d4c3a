package storage

import (
	"context"
	"fmt"

	"github.com/ava-labs/hypersdk/codec"
)

// MintedToken is a mint record addressed by its serial, the zero-based order
// in which the token was minted.
type MintedToken struct {
	Serial  uint64        `json:"serial"`
	TokenID uint64        `json:"tokenID"`
	Owner   codec.Address `json:"owner"`
}

// GetMintedCountFromState returns the collection config and the number of
// tokens minted so far.
func GetMintedCountFromState(ctx context.Context, f ReadState) (Collection, uint64, error) {
	collection, err := GetCollectionFromState(ctx, f)
	if err != nil {
		return Collection{}, 0, err
	}
	pool, err := GetTokenRaffleFromState(ctx, f)
	if err != nil {
		return Collection{}, 0, err
	}
	if pool.Len() > collection.Size {
		return Collection{}, 0, fmt.Errorf("%w: raffle length %d exceeds size %d", ErrInvalidRecord, pool.Len(), collection.Size)
	}
	return collection, collection.Size - pool.Len(), nil
}

func GetMintedTokenFromState(ctx context.Context, f ReadState, serial uint64) (MintedToken, error) {
	collection, minted, err := GetMintedCountFromState(ctx, f)
	if err != nil {
		return MintedToken{}, err
	}
	if serial >= minted {
		return MintedToken{}, fmt.Errorf("%w: serial %d of %d minted", ErrMintRecordNotFound, serial, minted)
	}
	return getMintedToken(ctx, f, collection.Size, serial)
}

// GetMintedFromState returns up to limit mint records in mint order, skipping
// the first offset.
func GetMintedFromState(ctx context.Context, f ReadState, offset uint64, limit uint64) ([]MintedToken, error) {
	collection, minted, err := GetMintedCountFromState(ctx, f)
	if err != nil {
		return nil, err
	}
	if offset >= minted {
		return []MintedToken{}, nil
	}
	end := minted
	if limit < end-offset {
		end = offset + limit
	}
	out := make([]MintedToken, 0, end-offset)
	for serial := offset; serial < end; serial++ {
		token, err := getMintedToken(ctx, f, collection.Size, serial)
		if err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

func getMintedToken(ctx context.Context, f ReadState, size uint64, serial uint64) (MintedToken, error) {
	record, err := GetMintRecordFromState(ctx, f, size-1-serial)
	if err != nil {
		return MintedToken{}, err
	}
	return MintedToken{
		Serial:  serial,
		TokenID: record.TokenID,
		Owner:   record.Owner,
	}, nil
}
