package models

import "time"

// Template is a card design definition shared by many minted asset instances.
type Template struct {
	ID        int64
	Name      string
	Rarity    string
	IPFS      string
	Issued    int64
	MaxSupply int64
	Excluded  bool // excluded templates never appear in draws
}

// Catalog is an immutable-per-refresh ordered list of templates. A refresh
// replaces the whole catalog; individual entries are never mutated.
type Catalog struct {
	Templates []Template
	FetchedAt time.Time
}

// Playable returns the templates eligible for draws, preserving catalog order.
func (c *Catalog) Playable() []Template {
	playable := make([]Template, 0, len(c.Templates))
	for _, t := range c.Templates {
		if !t.Excluded {
			playable = append(playable, t)
		}
	}
	return playable
}

// Lookup returns the template with the given id, or nil.
func (c *Catalog) Lookup(id int64) *Template {
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i]
		}
	}
	return nil
}

// Asset is one minted card instance held by a wallet.
type Asset struct {
	ID         string
	TemplateID int64
	Rarity     string
	Wallet     string
}

// OwnershipSnapshot is a cached view of every card asset an owner currently
// holds, aggregated across the owner's wallet set.
type OwnershipSnapshot struct {
	Owner     string
	Assets    []Asset
	FetchedAt time.Time
}

// TemplateHolding partitions one template's owned asset ids by freeze state.
type TemplateHolding struct {
	TemplateID int64
	Rarity     string
	Unfrozen   []string
	Frozen     []string
}
