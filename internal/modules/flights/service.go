package flights

import (
	"go.uber.org/zap"

	"tripgenie/internal/config"
)

// New selects the search strategy once: Amadeus when both credentials are present,
// otherwise the offline mock.
func New(cfg config.FlightsConfig, log *zap.Logger) Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.UseMock() {
		log.Info("flight search using mock data (amadeus credentials not set)")
		return NewMockSearcher()
	}
	log.Info("flight search using amadeus", zap.String("base_url", cfg.BaseURL))
	return NewAmadeusSearcher(cfg.AmadeusKey, cfg.AmadeusSecret, cfg.BaseURL, cfg.Timeout, log)
}
