package allocation

import (
	"fmt"
	"os"

	"github.com/driftline/ballast/internal/domain"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape used to bootstrap an empty model portfolio.
//
//	targets:
//	  stocks: 60
//	  bonds: 30
//	  cash: 10
//	items:
//	  stocks:
//	    - ticker: VWCE
//	      name: FTSE All-World
//	      weight_percent: 70
type seedFile struct {
	Targets map[string]float64    `yaml:"targets"`
	Items   map[string][]seedItem `yaml:"items"`
}

type seedItem struct {
	Ticker        string  `yaml:"ticker"`
	Name          string  `yaml:"name"`
	WeightPercent float64 `yaml:"weight_percent"`
}

// LoadSeedFile reads a YAML model portfolio seed file
func LoadSeedFile(path string) (*ModelPortfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	model := &ModelPortfolio{
		Targets: make(domain.AllocationSet),
		Items:   make(map[domain.AssetClass][]domain.SubAllocationItem),
	}

	for rawClass, pct := range seed.Targets {
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			return nil, fmt.Errorf("seed file: unknown asset class %q in targets", rawClass)
		}
		model.Targets[class] = SanitizePercent(pct)
	}

	for rawClass, rawItems := range seed.Items {
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			return nil, fmt.Errorf("seed file: unknown asset class %q in items", rawClass)
		}
		items := make([]domain.SubAllocationItem, 0, len(rawItems))
		for _, item := range rawItems {
			items = append(items, domain.SubAllocationItem{
				Ticker:        item.Ticker,
				Name:          item.Name,
				WeightPercent: SanitizePercent(item.WeightPercent),
			})
		}
		model.Items[class] = SanitizeItems(items)
	}

	return model, nil
}
