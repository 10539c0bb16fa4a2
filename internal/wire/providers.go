// Package wire 提供依赖注入配置
package wire

import (
	"github.com/google/wire"

	"ai-runner-api/internal/application/contact"
	"ai-runner-api/internal/application/playground"
	"ai-runner-api/internal/application/translation"
	"ai-runner-api/internal/config"
	"ai-runner-api/internal/domain/repository"
	"ai-runner-api/internal/infrastructure/chat"
	"ai-runner-api/internal/infrastructure/deepl"
	"ai-runner-api/internal/infrastructure/imagegen"
	"ai-runner-api/internal/infrastructure/messaging"
	"ai-runner-api/internal/infrastructure/optimizer"
	"ai-runner-api/internal/infrastructure/persistence/postgres"
	"ai-runner-api/internal/infrastructure/persistence/redis"
	"ai-runner-api/internal/interfaces/http/handler"
	"ai-runner-api/internal/interfaces/http/middleware"
	"ai-runner-api/internal/interfaces/http/router"
	"ai-runner-api/pkg/utils"
)

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewContactRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ContactRepository), new(*postgres.ContactRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideTranslationCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(translation.RemoteCache), new(*redis.TranslationCache)),
)

// MessagingSet 消息流提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(contact.Publisher), new(*messaging.Producer)),
)

// ClientSet 外部服务客户端集合
var ClientSet = wire.NewSet(
	ProvideImageGenClient,
	ProvideOptimizerClient,
	ProvideDeepLClient,
	ProvideChatClient,
	wire.Bind(new(playground.ImageGenerator), new(*imagegen.Client)),
	wire.Bind(new(handler.Optimizer), new(*optimizer.Client)),
	wire.Bind(new(translation.Provider), new(*deepl.Client)),
	wire.Bind(new(handler.ChatClient), new(*chat.Client)),
)

// ServiceSet 应用服务集合
var ServiceSet = wire.NewSet(
	ProvidePlaygroundService,
	ProvideTranslator,
	contact.NewService,
	wire.Bind(new(handler.ContactService), new(*contact.Service)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewPromptHandler,
	handler.NewOptimizerHandler,
	handler.NewTranslationHandler,
	handler.NewChatHandler,
	handler.NewContactHandler,
	wire.Struct(new(router.Handlers), "*"),
	ProvideTokenVerifier,
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideTranslationCache 提供翻译共享缓存
func ProvideTranslationCache(client *redis.Client, cfg *config.Config) *redis.TranslationCache {
	return redis.NewTranslationCache(client, cfg.Translation.RedisKeyPrefix, cfg.Translation.CacheTTL)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(
		redisClient.Redis(),
		int64(cfg.Messaging.RedisStream.MaxLen),
		cfg.Messaging.RedisStream.ContactStream,
	)
}

// ProvideImageGenClient 提供图像生成客户端
func ProvideImageGenClient(cfg *config.Config) *imagegen.Client {
	return imagegen.NewClient(&cfg.Clients.ImageGen)
}

// ProvideOptimizerClient 提供提示词优化客户端
func ProvideOptimizerClient(cfg *config.Config) *optimizer.Client {
	return optimizer.NewClient(&cfg.Clients.Optimizer)
}

// ProvideDeepLClient 提供 DeepL 客户端
func ProvideDeepLClient(cfg *config.Config) *deepl.Client {
	return deepl.NewClient(&cfg.Clients.DeepL)
}

// ProvideChatClient 提供聊天模型客户端
func ProvideChatClient(cfg *config.Config) *chat.Client {
	return chat.NewClient(&cfg.Clients.Chat)
}

// ProvidePlaygroundService 提供测试场服务
func ProvidePlaygroundService(gen playground.ImageGenerator, cfg *config.Config) *playground.Service {
	return playground.NewService(gen, cfg.Playground.GenerationTimeout)
}

// ProvideTranslator 提供翻译器
func ProvideTranslator(provider translation.Provider, remote translation.RemoteCache, cfg *config.Config) *translation.Translator {
	memory := translation.NewMemoryCache(cfg.Translation.MemoryMaxEntries)
	return translation.NewTranslator(provider, memory, remote, cfg.Translation.SourceLang, cfg.Translation.TargetLang)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, rdb)
}

// ProvideTokenVerifier 提供令牌校验器，未配置密钥时返回 nil 以关闭认证
func ProvideTokenVerifier(cfg *config.Config) middleware.TokenVerifier {
	jwtCfg := cfg.Security.JWT
	if jwtCfg.Secret == "" {
		return nil
	}
	return utils.NewJWTVerifier(jwtCfg.Secret, jwtCfg.Issuer, jwtCfg.Audience)
}
