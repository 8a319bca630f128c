package profile

import (
	"github.com/grannhjalp/grannhjalp/internal/profile/repository"
	"github.com/grannhjalp/grannhjalp/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
