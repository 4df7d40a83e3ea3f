package service

import "github.com/google/wire"

// ProviderSet 提供服务层依赖
var ProviderSet = wire.NewSet(
	NewRegistryService,
	NewAuthService,
	NewUpdateService,
	NewImageService,
)
