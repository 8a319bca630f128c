package service

import (
	"context"
	"strings"
	"time"

	"github.com/grannhjalp/grannhjalp/internal/config"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	"github.com/grannhjalp/grannhjalp/internal/processor"
	"github.com/grannhjalp/grannhjalp/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	Repo      domain.Repository
	Processor processor.Client
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       config.Config
	repo      domain.Repository
	processor processor.Client
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("profile.service"),
		cfg:       p.Cfg,
		repo:      p.Repo,
		processor: p.Processor,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertProfileRequest) (domain.Profile, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.Profile{}, domain.ErrInvalidCaller
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return domain.Profile{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Profile{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	item := domain.Profile{
		ID:          callerID,
		DisplayName: name,
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Upsert(ctx, s.db, &item); err != nil {
		return domain.Profile{}, err
	}

	stored, err := s.repo.FindByID(ctx, s.db, callerID)
	if err != nil {
		return domain.Profile{}, err
	}
	if stored == nil {
		return item, nil
	}
	return *stored, nil
}

func (s *Service) Get(ctx context.Context) (domain.Profile, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.Profile{}, domain.ErrInvalidCaller
	}

	item, err := s.repo.FindByID(ctx, s.db, callerID)
	if err != nil {
		return domain.Profile{}, err
	}
	if item == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) StartOnboarding(ctx context.Context) (string, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return "", domain.ErrInvalidCaller
	}

	item, err := s.repo.FindByID(ctx, s.db, callerID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", domain.ErrNotFound
	}

	accountID := strings.TrimSpace(item.ProcessorAccountID)
	if accountID == "" {
		account, err := s.processor.CreateConnectedAccount(ctx, processor.AccountParams{
			Email: item.Email,
			Metadata: map[string]string{
				"user_id": callerID.String(),
			},
		})
		if err != nil {
			return "", err
		}
		accountID = account.ID

		// Account creation succeeded upstream; record the reference
		// before handing out the link so a later webhook can resolve it.
		if err := s.repo.SetProcessorAccount(ctx, s.db, callerID, accountID); err != nil {
			return "", err
		}
	}

	link, err := s.processor.CreateAccountOnboardingLink(ctx, accountID, s.cfg.OnboardingRefreshURL, s.cfg.OnboardingReturnURL)
	if err != nil {
		return "", err
	}
	return link, nil
}
