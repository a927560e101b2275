package probe

import (
	"encoding/json"
	"fmt"
	"os"
)

// Export writes every recorded result to a JSON file.
func (p *Prober) Export(path string) error {
	results := p.Results()

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("probe: marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("probe: export %s: %w", path, err)
	}

	p.logger.Info("résultats exportés", "path", path, "results", len(results))
	return nil
}
