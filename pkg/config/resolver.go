package config

import (
	"github.com/tauraamui/edgevector/internal/config"
	"github.com/tauraamui/edgevector/pkg/configdef"
)

type CreateResolver interface {
	configdef.CreateResolver
}

func DefaultCreateResolver(path string) CreateResolver {
	return config.DefaultCreateResolver(path)
}
