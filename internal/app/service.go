package app

import (
	"time"

	"github.com/rs/zerolog"

	"registry-pruner/internal/ports"
	"registry-pruner/internal/types"
)

type Service struct {
	Registry ports.RegistryPort
	Branches ports.BranchSourcePort
	Policy   types.RetentionPolicy
	Clock    func() time.Time
	Logger   zerolog.Logger
}

func NewService(registry ports.RegistryPort, branches ports.BranchSourcePort, policy types.RetentionPolicy, logger zerolog.Logger) Service {
	return Service{
		Registry: registry,
		Branches: branches,
		Policy:   policy,
		Clock:    time.Now,
		Logger:   logger,
	}
}
