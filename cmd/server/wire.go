//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"messenger/config"
	"messenger/internal/database"
	"messenger/internal/delivery"
	"messenger/internal/dialog"
	"messenger/internal/gateway"
	"messenger/internal/message"
	"messenger/internal/presence"
	"messenger/internal/registry"
)

var appSet = wire.NewSet(
	provideGormDB,
	provideEventPublisher,
	providePushQueue,
	provideJWT,
	registry.NewRegistry,
	dialog.Set,
	message.Set,
	presence.Set,
	delivery.Set,
	gateway.NewHandler,
	newApp,
)

func initializeApp(cfg *config.Config, db *database.Database, rdb *redis.Client, log zerolog.Logger) (*App, error) {
	wire.Build(appSet)
	return &App{}, nil
}
