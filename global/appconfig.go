package global

import (
	"time"

	tools "SProject/tools"
)

type AppConfig struct {
	GatewayNodeId string // 节点的Id（参与 presence 镜像 / NATS subject 命名）
	Port          int    // http 启动端口

	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	NatsServers  []string
	KafkaBrokers []string

	RingTimeout time.Duration // 呼叫振铃超时
	PresenceTTL time.Duration // redis presence 镜像 TTL
}

// LoadAppConfig 全部走环境变量：in-code 默认值，env 覆盖。
func LoadAppConfig() AppConfig {
	return AppConfig{
		GatewayNodeId: tools.GetEnv("GATEWAY_ID", "social_gw-1"),
		Port:          tools.GetEnvInt("PORT", 8080),

		MongoURI:     tools.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      tools.GetEnv("MONGO_DB", "socialChat"),
		RedisAddr:    tools.GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:    tools.GetEnv("REDIS_PASSWORD", ""),
		RedisDB:      tools.GetEnvInt("REDIS_DB", 0),
		NatsServers:  tools.GetEnvList("NATS_SERVERS", nil),
		KafkaBrokers: tools.GetEnvList("KAFKA_BROKERS", nil),

		RingTimeout: time.Duration(tools.GetEnvInt("CALL_RING_TIMEOUT_SEC", 30)) * time.Second,
		PresenceTTL: time.Duration(tools.GetEnvInt("PRESENCE_TTL_SEC", 300)) * time.Second,
	}
}
