package global

import (
	"context"

	"SProject/data/database/mgo/mongoutil"
	"SProject/logger"
	mgoSrv "SProject/service/mgo"
	redis "SProject/service/storage/redis"
	ids "SProject/tools/ids"
	"go.uber.org/zap"
)

func ConfigAll(cfg AppConfig) {
	ConfigIds()
	ConfigRedis(cfg)
	ConfigMgo(cfg)
}

func ConfigIds() {
	ids.SetNodeID(100)
}

func GetJwtSecret() []byte {
	return []byte(jwtSecret)
}

func ConfigRedis(cfg AppConfig) {
	err := redis.InitRedis(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis init failed, presence mirror disabled", zap.Error(err))
	}
}

func ConfigMgo(cfg AppConfig) {
	mc := &mongoutil.Config{
		Uri:         cfg.MongoURI,
		Database:    cfg.MongoDB,
		MaxPoolSize: 20,
		MaxRetry:    3,
	}
	// 异步启动，重连循环随进程存活；调用方用 WaitReady 等首次连上
	mgoSrv.StartAsync(context.Background(), mc)
}
