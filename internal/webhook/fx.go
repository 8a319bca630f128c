package webhook

import (
	"github.com/grannhjalp/grannhjalp/internal/webhook/repository"
	"github.com/grannhjalp/grannhjalp/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
