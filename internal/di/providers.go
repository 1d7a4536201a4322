package di

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/cache"
	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/logging"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
)

func NewLogger(conf *config.Config) (zerolog.Logger, error) {
	return logging.New(conf.Logger.Level, conf.Logger.Format, os.Stderr)
}

func NewCache(conf *config.Config, logger zerolog.Logger) cache.Cache {
	return cache.New(conf.Cache, logger)
}

func NewMetrics(conf *config.Config) metrics.Recorder {
	return metrics.New(conf.Metrics)
}
