package consts

const (
	// Action TypeIDs
	MintTokensID        uint8 = 0
	InitAirdropID       uint8 = 1
	DrawAirdropWinnerID uint8 = 2
	MintAirdropTokenID  uint8 = 3
)
