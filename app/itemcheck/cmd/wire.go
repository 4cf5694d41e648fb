//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/xdooria-inventory/pkg/config"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory/service"
)

func initService(mgr config.Manager) (*service.Service, error) {
	panic(wire.Build(service.ProviderSet))
}
