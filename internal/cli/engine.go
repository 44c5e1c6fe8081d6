package cli

import (
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/matcher"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/normalizer"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/config"
)

// BuildCatalog converts the configured accounts into a normalizer catalog.
func BuildCatalog(cfg config.ReconcileConfig) *normalizer.Catalog {
	accounts := make([]normalizer.Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, normalizer.Account{
			ID:           a.ID,
			Name:         a.Name,
			Reconcilable: a.Reconcilable,
		})
	}
	return normalizer.NewCatalog(accounts)
}

// BuildMatcherConfig converts the configured matching policy into a
// matcher config.
func BuildMatcherConfig(cfg config.ReconcileConfig) matcher.Config {
	floor, rate := cfg.Tolerance.Values()
	return matcher.Config{
		MinLagDays:     cfg.DateWindow.MinDays,
		MaxLagDays:     cfg.DateWindow.MaxDays,
		ToleranceFloor: floor,
		ToleranceRate:  rate,
		GreedyPoolSize: cfg.GreedyPoolSize,
	}
}
