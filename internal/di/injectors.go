//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/edge"
)

func InitServer(conf *config.Config) (*edge.Server, error) {

	wire.Build(
		NewLogger,
		NewCache,
		NewMetrics,

		edge.NewAnalyzeFoodHandler,
		edge.NewRouter,
		edge.NewHealthHandler,
		edge.NewServer,
	)

	return nil, nil
}
