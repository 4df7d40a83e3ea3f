package router

import "github.com/google/wire"

// ProviderSet 提供路由层依赖
var ProviderSet = wire.NewSet(NewRouter)
