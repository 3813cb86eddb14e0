package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"cardbet/models"

	"github.com/shopspring/decimal"
)

// ChainClient talks to the distributed-ledger network gateway. It implements
// service.ChainClient.
type ChainClient struct {
	api httpAPI
}

// NewChainClient creates a client against the gateway base URL.
func NewChainClient(baseURL string, timeout time.Duration, maxBody int64) *ChainClient {
	return &ChainClient{api: newHTTPAPI(baseURL, timeout, maxBody)}
}

// AccountBalance returns the on-network balance of an account.
func (c *ChainClient) AccountBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	path := "/accounts/" + url.PathEscape(account) + "/balance"
	if err := c.api.getJSON(ctx, path, &out); err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(out.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed balance for account %s: %w", account, err)
	}
	return balance, nil
}

// CollectDeposits pulls the uncollected inbound transfers for a pool account.
func (c *ChainClient) CollectDeposits(ctx context.Context, pool string) ([]models.Deposit, error) {
	var out struct {
		Deposits []struct {
			TxID    string `json:"tx_id"`
			Account string `json:"account"`
			Amount  string `json:"amount"`
		} `json:"deposits"`
	}
	path := "/pools/" + url.PathEscape(pool) + "/collect"
	if err := c.api.postJSON(ctx, path, struct{}{}, &out); err != nil {
		return nil, err
	}

	deposits := make([]models.Deposit, 0, len(out.Deposits))
	for _, d := range out.Deposits {
		amount, err := decimal.NewFromString(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("malformed deposit amount in tx %s: %w", d.TxID, err)
		}
		deposits = append(deposits, models.Deposit{
			TxID:    d.TxID,
			Pool:    pool,
			Account: d.Account,
			Amount:  amount,
		})
	}
	return deposits, nil
}

// SubmitTransfer moves currency out on the network and returns the tx id.
func (c *ChainClient) SubmitTransfer(ctx context.Context, to string, amount decimal.Decimal, memo string) (string, error) {
	in := struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
		Memo   string `json:"memo"`
	}{To: to, Amount: amount.String(), Memo: memo}

	var out struct {
		TxID string `json:"tx_id"`
	}
	if err := c.api.postJSON(ctx, "/transfers", in, &out); err != nil {
		return "", err
	}
	return out.TxID, nil
}

// VerifyNonce checks a replay-resistant login nonce for an owner.
func (c *ChainClient) VerifyNonce(ctx context.Context, owner, nonce, kind string) error {
	in := struct {
		Owner string `json:"owner"`
		Nonce string `json:"nonce"`
		Kind  string `json:"kind"`
	}{Owner: owner, Nonce: nonce, Kind: kind}
	return c.api.postJSON(ctx, "/nonces/verify", in, nil)
}
