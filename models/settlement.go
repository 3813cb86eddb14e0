package models

// SettlementRequest is one inbound play request. An empty Bet means the caller
// only wants a quote of current balances, cards, and bet limits.
type SettlementRequest struct {
	Owner      string `json:"owner"`
	Nonce      string `json:"nonce"`
	NonceKind  string `json:"nonce_kind"`
	Bet        string `json:"bet,omitempty"`
	ReferredBy string `json:"referred_by,omitempty"`
}

// CardView is the per-template display state returned to the caller.
type CardView struct {
	Name            string `json:"name"`
	IPFS            string `json:"ipfs"`
	Frozen          bool   `json:"frozen"`
	Grayscale       bool   `json:"grayscale"`
	TotalCardCount  int    `json:"totalCardCount"`
	FrozenCardCount int    `json:"frozenCardCount"`
}

// SettlementResponse is the outcome of one play request. Ready is false when
// the request was rejected before any draw; Reason carries the reject reason.
type SettlementResponse struct {
	Ready               bool              `json:"ready"`
	Reason              string            `json:"reason,omitempty"`
	Account             string            `json:"account"`
	HouseAccount        string            `json:"houseAccount"`
	Cards               []CardView        `json:"cards"`
	Score               []string          `json:"score"`
	ScoreError          string            `json:"scoreError,omitempty"`
	CardCount           int               `json:"cardCount"`
	TemplateCount       int               `json:"templateCount"`
	Drawn               []string          `json:"drawn,omitempty"`
	Won                 bool              `json:"won"`
	PayoutAmount        string            `json:"payoutAmount"`
	PayoutMultiplier    string            `json:"payoutMultiplier"`
	BalanceDecimal      string            `json:"balanceDecimal"`
	CacheBalanceDecimal string            `json:"cacheBalanceDecimal"`
	HouseBalanceDecimal string            `json:"houseBalanceDecimal"`
	Bets                map[string]string `json:"bets"`
	MaxBet              string            `json:"maxBet"`
}

// WithdrawRequest asks to move cached balance back out to an external wallet.
type WithdrawRequest struct {
	Owner   string `json:"owner"`
	Nonce   string `json:"nonce"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// WithdrawResult reports the outcome of a withdraw request.
type WithdrawResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
