package need

import (
	"github.com/grannhjalp/grannhjalp/internal/need/repository"
	"github.com/grannhjalp/grannhjalp/internal/need/service"
	"go.uber.org/fx"
)

var Module = fx.Module("need.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
