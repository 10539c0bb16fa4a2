//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"ai-runner-api/internal/config"
	"ai-runner-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MessagingSet,
		ClientSet,
		ServiceSet,
		RouterSet,
	)
	return nil, nil, nil
}
