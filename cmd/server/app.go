package main

import (
	"gorm.io/gorm"

	"messenger/config"
	"messenger/internal/database"
	"messenger/internal/delivery"
	"messenger/internal/events"
	"messenger/internal/gateway"
	"messenger/internal/presence"
	"messenger/pkg/jwt"
)

// App bundles the wired components main needs to run and shut down.
type App struct {
	handler  *gateway.Handler
	presence *presence.Manager

	publisher events.Publisher
	pushQueue *delivery.KafkaPushQueue
}

func newApp(
	handler *gateway.Handler,
	presenceMgr *presence.Manager,
	publisher events.Publisher,
	pushQueue *delivery.KafkaPushQueue,
) *App {
	return &App{
		handler:   handler,
		presence:  presenceMgr,
		publisher: publisher,
		pushQueue: pushQueue,
	}
}

func (a *App) Close() {
	_ = a.publisher.Close()
	_ = a.pushQueue.Close()
}

func provideGormDB(db *database.Database) *gorm.DB {
	return db.DB
}

func provideEventPublisher(cfg *config.Config) events.Publisher {
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func providePushQueue(cfg *config.Config) *delivery.KafkaPushQueue {
	return delivery.NewKafkaPushQueue(cfg.KafkaBrokers, cfg.KafkaTopic+"-push")
}

func provideJWT(cfg *config.Config) *jwt.JWT {
	return jwt.NewJWT(cfg.JWTSecret, cfg.JWTExpireSeconds)
}
