package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	"github.com/grannhjalp/grannhjalp/internal/need/domain"
	"github.com/grannhjalp/grannhjalp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("need.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateNeedRequest) (domain.Need, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.Need{}, domain.ErrInvalidCaller
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Need{}, domain.ErrInvalidTitle
	}
	category := domain.Category(strings.TrimSpace(strings.ToLower(req.Category)))
	if !domain.ValidCategory(category) {
		return domain.Need{}, domain.ErrInvalidCategory
	}
	budgetAmount, budgetCurrency, err := normalizeBudget(req.BudgetAmount, req.BudgetCurrency)
	if err != nil {
		return domain.Need{}, err
	}

	now := time.Now().UTC()
	item := domain.Need{
		ID:             s.genID.Generate(),
		OwnerID:        callerID,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		Category:       category,
		BudgetAmount:   budgetAmount,
		BudgetCurrency: budgetCurrency,
		Location:       strings.TrimSpace(req.Location),
		NeededBy:       req.NeededBy,
		Status:         domain.NeedStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		return domain.Need{}, err
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateNeedRequest) (domain.Need, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.Need{}, domain.ErrInvalidCaller
	}

	item, err := s.ownedNeed(ctx, req.ID, callerID)
	if err != nil {
		return domain.Need{}, err
	}
	if item.Status != domain.NeedStatusOpen {
		return domain.Need{}, domain.ErrNotOpen
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Need{}, domain.ErrInvalidTitle
	}
	category := domain.Category(strings.TrimSpace(strings.ToLower(req.Category)))
	if !domain.ValidCategory(category) {
		return domain.Need{}, domain.ErrInvalidCategory
	}
	budgetAmount, budgetCurrency, err := normalizeBudget(req.BudgetAmount, req.BudgetCurrency)
	if err != nil {
		return domain.Need{}, err
	}

	item.Title = title
	item.Description = strings.TrimSpace(req.Description)
	item.Category = category
	item.BudgetAmount = budgetAmount
	item.BudgetCurrency = budgetCurrency
	item.Location = strings.TrimSpace(req.Location)
	item.NeededBy = req.NeededBy
	item.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Need{}, err
	}
	return *item, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Need, error) {
	needID, err := parseID(id)
	if err != nil {
		return domain.Need{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, needID)
	if err != nil {
		return domain.Need{}, err
	}
	if item == nil {
		return domain.Need{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListNeedRequest) (domain.ListNeedResponse, error) {
	filter := domain.ListNeedFilter{}
	if category := strings.TrimSpace(req.Category); category != "" {
		filter.Category = domain.Category(strings.ToLower(category))
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.NeedStatus(strings.ToLower(status))
	}
	if owner := strings.TrimSpace(req.OwnerID); owner != "" {
		ownerID, err := snowflake.ParseString(owner)
		if err != nil {
			return domain.ListNeedResponse{}, domain.ErrInvalidID
		}
		filter.OwnerID = ownerID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListNeedResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(need *domain.Need) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        need.ID.String(),
			CreatedAt: need.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	needs := make([]domain.Need, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		needs = append(needs, *item)
	}

	resp := domain.ListNeedResponse{Needs: needs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Need, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.Need{}, domain.ErrInvalidCaller
	}

	item, err := s.ownedNeed(ctx, id, callerID)
	if err != nil {
		return domain.Need{}, err
	}
	if item.Status != domain.NeedStatusOpen {
		return domain.Need{}, domain.ErrNotOpen
	}

	moved, err := s.repo.UpdateStatus(ctx, s.db, item.ID, item.Status, domain.NeedStatusCancelled)
	if err != nil {
		return domain.Need{}, err
	}
	if !moved {
		// The row changed underneath us; surface the stored state.
		return domain.Need{}, domain.ErrNotOpen
	}

	item.Status = domain.NeedStatusCancelled
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidCaller
	}

	item, err := s.ownedNeed(ctx, id, callerID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, item.ID)
}

func (s *Service) ownedNeed(ctx context.Context, id string, callerID snowflake.ID) (*domain.Need, error) {
	needID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, needID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.OwnerID != callerID {
		return nil, domain.ErrNotOwner
	}
	return item, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeBudget(amount int64, currency string) (int64, string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if amount < 0 {
		return 0, "", domain.ErrInvalidBudget
	}
	if amount > 0 && currency == "" {
		return 0, "", domain.ErrInvalidBudget
	}
	if amount == 0 {
		return 0, "", nil
	}
	return amount, currency, nil
}
