package helpoffer

import (
	"github.com/grannhjalp/grannhjalp/internal/helpoffer/repository"
	"github.com/grannhjalp/grannhjalp/internal/helpoffer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("helpoffer.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
