package notification

import (
	"github.com/grannhjalp/grannhjalp/internal/notification/domain"
	"github.com/grannhjalp/grannhjalp/internal/notification/repository"
	"github.com/grannhjalp/grannhjalp/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) domain.Notifier { return svc }),
)
