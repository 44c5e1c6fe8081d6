package normalizer

// Account is one entry of the externally supplied account catalog.
type Account struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Reconcilable bool   `json:"reconcilable"`
}

// Catalog resolves free-text account names to catalog accounts. Lookup is
// case-, accent- and whitespace-insensitive, since ledger exports carry
// whatever spelling the operator typed.
type Catalog struct {
	byName map[string]Account
}

// NewCatalog builds a catalog from the supplied accounts. When two
// accounts fold to the same name the last one wins.
func NewCatalog(accounts []Account) *Catalog {
	c := &Catalog{byName: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		c.byName[fold(a.Name)] = a
	}
	return c
}

// Resolve looks up an account by display name.
func (c *Catalog) Resolve(name string) (Account, bool) {
	a, ok := c.byName[fold(name)]
	return a, ok
}
