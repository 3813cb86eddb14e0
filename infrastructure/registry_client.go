package infrastructure

import (
	"context"
	"net/url"
	"time"

	"cardbet/models"
)

// RegistryClient talks to the NFT registry service. It implements
// service.CardRegistry.
type RegistryClient struct {
	api httpAPI
}

// NewRegistryClient creates a client against the registry base URL.
func NewRegistryClient(baseURL string, timeout time.Duration, maxBody int64) *RegistryClient {
	return &RegistryClient{api: newHTTPAPI(baseURL, timeout, maxBody)}
}

// FetchTemplates returns the full card template catalog.
func (c *RegistryClient) FetchTemplates(ctx context.Context) ([]models.Template, error) {
	var out []struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Rarity    string `json:"rarity"`
		IPFS      string `json:"ipfs"`
		Issued    int64  `json:"issued"`
		MaxSupply int64  `json:"max_supply"`
		Excluded  bool   `json:"excluded"`
	}
	if err := c.api.getJSON(ctx, "/templates", &out); err != nil {
		return nil, err
	}

	templates := make([]models.Template, 0, len(out))
	for _, t := range out {
		templates = append(templates, models.Template{
			ID:        t.ID,
			Name:      t.Name,
			Rarity:    t.Rarity,
			IPFS:      t.IPFS,
			Issued:    t.Issued,
			MaxSupply: t.MaxSupply,
			Excluded:  t.Excluded,
		})
	}
	return templates, nil
}

// FetchOwnedAssets returns the card assets currently held by a wallet.
func (c *RegistryClient) FetchOwnedAssets(ctx context.Context, wallet string) ([]models.Asset, error) {
	var out []struct {
		ID         string `json:"id"`
		TemplateID int64  `json:"template_id"`
		Rarity     string `json:"rarity"`
	}
	path := "/wallets/" + url.PathEscape(wallet) + "/assets"
	if err := c.api.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	assets := make([]models.Asset, 0, len(out))
	for _, a := range out {
		assets = append(assets, models.Asset{
			ID:         a.ID,
			TemplateID: a.TemplateID,
			Rarity:     a.Rarity,
			Wallet:     wallet,
		})
	}
	return assets, nil
}
