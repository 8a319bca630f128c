package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
	notificationdomain "github.com/grannhjalp/grannhjalp/internal/notification/domain"
	profiledomain "github.com/grannhjalp/grannhjalp/internal/profile/domain"
	"github.com/grannhjalp/grannhjalp/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// approveAttempts bounds the compare-and-set retry loop when two
// approvals race on the same offer row.
const approveAttempts = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Needs    needdomain.Repository
	Profiles profiledomain.Repository
	Notifier notificationdomain.Notifier
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	needs    needdomain.Repository
	profiles profiledomain.Repository
	notifier notificationdomain.Notifier
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("helpoffer.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		needs:    p.Needs,
		profiles: p.Profiles,
		notifier: p.Notifier,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOfferRequest) (*domain.HelpOffer, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	needID, err := snowflake.ParseString(strings.TrimSpace(req.NeedID))
	if err != nil || needID == 0 {
		return nil, domain.ErrInvalidNeed
	}

	need, err := s.needs.FindByID(ctx, s.db, needID)
	if err != nil {
		return nil, err
	}
	if need == nil {
		return nil, domain.ErrInvalidNeed
	}
	if need.OwnerID == callerID {
		return nil, domain.ErrOwnNeed
	}
	if need.Status != needdomain.NeedStatusOpen {
		return nil, domain.ErrNeedNotOpen
	}

	selfApproved := true
	if req.SelfApproved != nil {
		selfApproved = *req.SelfApproved
	}

	now := time.Now().UTC()
	offer := domain.HelpOffer{
		ID:        s.genID.Generate(),
		NeedID:    needID,
		HelperID:  callerID,
		Message:   strings.TrimSpace(req.Message),
		State:     domain.InitialState(selfApproved),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &offer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateOffer
		}
		return nil, err
	}

	s.notifier.Notify(ctx, need.OwnerID,
		"New help offer",
		"Someone offered to help with \""+need.Title+"\".",
		&need.ID, &offer.ID)

	return &offer, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.HelpOffer, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	offer, need, err := s.loadOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != offer.HelperID && callerID != need.OwnerID {
		return nil, domain.ErrNotParty
	}
	return offer, nil
}

func (s *Service) ListByNeed(ctx context.Context, needID string) ([]domain.HelpOffer, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	id, err := snowflake.ParseString(strings.TrimSpace(needID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidNeed
	}

	need, err := s.needs.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if need == nil {
		return nil, domain.ErrInvalidNeed
	}

	offers, err := s.repo.ListByNeed(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if need.OwnerID == callerID {
		return offers, nil
	}

	// Non-owners only see their own offer on the need.
	own := offers[:0]
	for _, offer := range offers {
		if offer.HelperID == callerID {
			own = append(own, offer)
		}
	}
	return own, nil
}

func (s *Service) Approve(ctx context.Context, id string) (*domain.ApproveResult, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	offer, need, err := s.loadOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	var role domain.ApprovalRole
	switch callerID {
	case need.OwnerID:
		role = domain.RoleRequester
	case offer.HelperID:
		role = domain.RoleHelper
	default:
		return nil, domain.ErrNotParty
	}

	for attempt := 0; attempt < approveAttempts; attempt++ {
		next, changed, err := domain.NextState(offer.State, role)
		if err != nil {
			return nil, err
		}
		if !changed {
			return s.approveResult(ctx, offer, need, callerID, false)
		}

		moved, err := s.repo.UpdateState(ctx, s.db, offer.ID, offer.State, next)
		if err != nil {
			return nil, err
		}
		if moved {
			offer.State = next
			if next == domain.StateMutuallyApproved {
				s.onMutualApproval(ctx, offer, need)
			}
			return s.approveResult(ctx, offer, need, callerID, true)
		}

		// Lost the race; reload and replay the transition.
		offer, err = s.repo.FindByID(ctx, s.db, offer.ID)
		if err != nil {
			return nil, err
		}
		if offer == nil {
			return nil, domain.ErrNotFound
		}
	}
	return nil, domain.ErrInvalidState
}

func (s *Service) Withdraw(ctx context.Context, id string) error {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidCaller
	}

	offer, need, err := s.loadOffer(ctx, id)
	if err != nil {
		return err
	}
	if callerID != offer.HelperID {
		return domain.ErrNotParty
	}
	if offer.State.MutuallyApproved() {
		return domain.ErrAlreadyMutual
	}

	if err := s.repo.Delete(ctx, s.db, offer.ID); err != nil {
		return err
	}

	s.notifier.Notify(ctx, need.OwnerID,
		"Offer withdrawn",
		"A helper withdrew their offer on \""+need.Title+"\".",
		&need.ID, nil)
	return nil
}

func (s *Service) CounterpartContact(ctx context.Context, id string) (*profiledomain.Contact, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	offer, need, err := s.loadOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.State.MutuallyApproved() {
		return nil, domain.ErrNotMutual
	}

	var counterpartID snowflake.ID
	switch callerID {
	case need.OwnerID:
		counterpartID = offer.HelperID
	case offer.HelperID:
		counterpartID = need.OwnerID
	default:
		return nil, domain.ErrNotParty
	}

	profile, err := s.profiles.FindByID(ctx, s.db, counterpartID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, profiledomain.ErrNotFound
	}
	contact := profile.Contact()
	return &contact, nil
}

func (s *Service) approveResult(ctx context.Context, offer *domain.HelpOffer, need *needdomain.Need, callerID snowflake.ID, changed bool) (*domain.ApproveResult, error) {
	result := &domain.ApproveResult{
		Offer:   offer,
		Mutual:  offer.State.MutuallyApproved(),
		Changed: changed,
	}
	if !result.Mutual {
		return result, nil
	}

	counterpartID := offer.HelperID
	if callerID == offer.HelperID {
		counterpartID = need.OwnerID
	}
	profile, err := s.profiles.FindByID(ctx, s.db, counterpartID)
	if err != nil {
		s.log.Warn("contact lookup failed after mutual approval",
			zap.String("offer_id", offer.ID.String()),
			zap.Error(err))
		return result, nil
	}
	if profile != nil {
		contact := profile.Contact()
		result.Contact = &contact
	}
	return result, nil
}

func (s *Service) onMutualApproval(ctx context.Context, offer *domain.HelpOffer, need *needdomain.Need) {
	s.log.Info("offer mutually approved",
		zap.String("offer_id", offer.ID.String()),
		zap.String("need_id", need.ID.String()))

	s.notifier.Notify(ctx, need.OwnerID,
		"Contact details unlocked",
		"You and your helper both approved \""+need.Title+"\". Contact details are now shared.",
		&need.ID, &offer.ID)
	s.notifier.Notify(ctx, offer.HelperID,
		"Contact details unlocked",
		"You and the requester both approved \""+need.Title+"\". Contact details are now shared.",
		&need.ID, &offer.ID)
}

func (s *Service) loadOffer(ctx context.Context, id string) (*domain.HelpOffer, *needdomain.Need, error) {
	offerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || offerID == 0 {
		return nil, nil, domain.ErrInvalidID
	}

	offer, err := s.repo.FindByID(ctx, s.db, offerID)
	if err != nil {
		return nil, nil, err
	}
	if offer == nil {
		return nil, nil, domain.ErrNotFound
	}

	need, err := s.needs.FindByID(ctx, s.db, offer.NeedID)
	if err != nil {
		return nil, nil, err
	}
	if need == nil {
		return nil, nil, domain.ErrNotFound
	}
	return offer, need, nil
}
