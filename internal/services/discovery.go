package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
	"github.com/platewire/tvchefs-backend/internal/utils"
)

const (
	DiscoveryActionApprove = "approve"
	DiscoveryActionReject  = "reject"
)

// DiscoveryService reviews staged discoveries. Approval validates the payload
// against the per-type schema before any write; a failure parks the discovery
// in needs_review with the error attached instead of dropping it.
type DiscoveryService interface {
	ListPending(ctx context.Context) ([]*types.StagedDiscovery, error)
	Review(ctx context.Context, discoveryID uuid.UUID, action string) (*types.StagedDiscovery, error)
}

type discoveryService struct {
	db             *gorm.DB
	log            *logger.Logger
	discoveryRepo  repos.StagedDiscoveryRepo
	chefRepo       repos.ChefRepo
	restaurantRepo repos.RestaurantRepo
	showRepo       repos.ShowRepo
	chefShowRepo   repos.ChefShowRepo
	auditLogRepo   repos.AuditLogRepo
}

func NewDiscoveryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	discoveryRepo repos.StagedDiscoveryRepo,
	chefRepo repos.ChefRepo,
	restaurantRepo repos.RestaurantRepo,
	showRepo repos.ShowRepo,
	chefShowRepo repos.ChefShowRepo,
	auditLogRepo repos.AuditLogRepo,
) DiscoveryService {
	serviceLog := baseLog.With("service", "DiscoveryService")
	return &discoveryService{
		db:             db,
		log:            serviceLog,
		discoveryRepo:  discoveryRepo,
		chefRepo:       chefRepo,
		restaurantRepo: restaurantRepo,
		showRepo:       showRepo,
		chefShowRepo:   chefShowRepo,
		auditLogRepo:   auditLogRepo,
	}
}

func (s *discoveryService) ListPending(ctx context.Context) ([]*types.StagedDiscovery, error) {
	return s.discoveryRepo.ListByStatus(ctx, nil, types.DiscoveryStatusPending)
}

func (s *discoveryService) Review(ctx context.Context, discoveryID uuid.UUID, action string) (*types.StagedDiscovery, error) {
	discoveries, err := s.discoveryRepo.GetByIDs(ctx, nil, []uuid.UUID{discoveryID})
	if err != nil {
		return nil, fmt.Errorf("load discovery: %w", err)
	}
	if len(discoveries) == 0 {
		return nil, fmt.Errorf("discovery %s not found", discoveryID)
	}
	discovery := discoveries[0]
	if discovery.Status != types.DiscoveryStatusPending && discovery.Status != types.DiscoveryStatusNeedsReview {
		return nil, fmt.Errorf("discovery %s already reviewed (%s)", discoveryID, discovery.Status)
	}

	switch action {
	case DiscoveryActionReject:
		if err := s.discoveryRepo.SetStatus(ctx, nil, discovery.ID, types.DiscoveryStatusRejected, ""); err != nil {
			return nil, fmt.Errorf("mark discovery rejected: %w", err)
		}
		discovery.Status = types.DiscoveryStatusRejected
		return discovery, nil

	case DiscoveryActionApprove:
		if err := s.approve(ctx, discovery); err != nil {
			s.log.Warn("Discovery approval failed, parking as needs_review",
				"discovery", discovery.ID,
				"type", discovery.DiscoveryType,
				"error", err,
			)
			if setErr := s.discoveryRepo.SetStatus(ctx, nil, discovery.ID, types.DiscoveryStatusNeedsReview, err.Error()); setErr != nil {
				return nil, fmt.Errorf("park discovery as needs_review: %w", setErr)
			}
			discovery.Status = types.DiscoveryStatusNeedsReview
			discovery.ReviewError = err.Error()
			return discovery, nil
		}
		if err := s.discoveryRepo.SetStatus(ctx, nil, discovery.ID, types.DiscoveryStatusApproved, ""); err != nil {
			return nil, fmt.Errorf("mark discovery approved: %w", err)
		}
		discovery.Status = types.DiscoveryStatusApproved
		return discovery, nil
	}
	return nil, fmt.Errorf("unknown action %q", action)
}

// approve dispatches to the type-specific handler. Validation happens fully
// before any write, so a bad payload never leaves a partial record behind.
func (s *discoveryService) approve(ctx context.Context, discovery *types.StagedDiscovery) error {
	switch discovery.DiscoveryType {
	case types.DiscoveryTypeChef:
		return s.approveChef(ctx, discovery)
	case types.DiscoveryTypeRestaurant:
		return s.approveRestaurant(ctx, discovery)
	case types.DiscoveryTypeShow:
		return s.approveShow(ctx, discovery)
	}
	return fmt.Errorf("unknown discovery type %q", discovery.DiscoveryType)
}

type chefPayload struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
	Hometown string `json:"hometown"`
}

func (s *discoveryService) approveChef(ctx context.Context, discovery *types.StagedDiscovery) error {
	var payload chefPayload
	if err := json.Unmarshal(discovery.Payload, &payload); err != nil {
		return fmt.Errorf("chef payload is not valid JSON: %w", err)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fmt.Errorf("chef payload missing required field: name")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := utils.UniqueSlug(utils.Slugify(payload.Name), func(candidate string) (bool, error) {
			return s.chefRepo.SlugExists(ctx, tx, candidate)
		})
		if err != nil {
			return err
		}
		chefs, err := s.chefRepo.Create(ctx, tx, []*types.Chef{{
			ID:       uuid.New(),
			Name:     strings.TrimSpace(payload.Name),
			Slug:     slug,
			Bio:      payload.Bio,
			PhotoURL: payload.PhotoURL,
			Hometown: payload.Hometown,
			IsPublic: true,
		}})
		if err != nil {
			return fmt.Errorf("create chef: %w", err)
		}
		return s.audit(ctx, tx, "chef", chefs[0].ID, "discovery_approved", discovery)
	})
}

type restaurantPayload struct {
	Name          string     `json:"name"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	Address       string     `json:"address"`
	Website       string     `json:"website"`
	GooglePlaceID string     `json:"google_place_id"`
	ChefID        *uuid.UUID `json:"chef_id"`
}

func (s *discoveryService) approveRestaurant(ctx context.Context, discovery *types.StagedDiscovery) error {
	var payload restaurantPayload
	if err := json.Unmarshal(discovery.Payload, &payload); err != nil {
		return fmt.Errorf("restaurant payload is not valid JSON: %w", err)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fmt.Errorf("restaurant payload missing required field: name")
	}
	if strings.TrimSpace(payload.City) == "" {
		return fmt.Errorf("restaurant payload missing required field: city")
	}
	if payload.ChefID != nil {
		chefs, err := s.chefRepo.GetByIDs(ctx, nil, []uuid.UUID{*payload.ChefID})
		if err != nil {
			return fmt.Errorf("check chef reference: %w", err)
		}
		if len(chefs) == 0 {
			return fmt.Errorf("restaurant payload references unknown chef %s", *payload.ChefID)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := utils.UniqueSlug(utils.Slugify(payload.Name, payload.City), func(candidate string) (bool, error) {
			return s.restaurantRepo.SlugExists(ctx, tx, candidate)
		})
		if err != nil {
			return err
		}
		restaurants, err := s.restaurantRepo.Create(ctx, tx, []*types.Restaurant{{
			ID:            uuid.New(),
			ChefID:        payload.ChefID,
			Name:          strings.TrimSpace(payload.Name),
			Slug:          slug,
			City:          payload.City,
			State:         payload.State,
			Address:       payload.Address,
			Website:       payload.Website,
			GooglePlaceID: payload.GooglePlaceID,
			Status:        types.RestaurantStatusOpen,
			IsPublic:      true,
		}})
		if err != nil {
			return fmt.Errorf("create restaurant: %w", err)
		}
		return s.audit(ctx, tx, "restaurant", restaurants[0].ID, "discovery_approved", discovery)
	})
}

type showPayload struct {
	ChefID   uuid.UUID `json:"chef_id"`
	ShowName string    `json:"show_name"`
	Network  string    `json:"network"`
	Season   string    `json:"season"`
	Result   string    `json:"result"`
}

func (s *discoveryService) approveShow(ctx context.Context, discovery *types.StagedDiscovery) error {
	var payload showPayload
	if err := json.Unmarshal(discovery.Payload, &payload); err != nil {
		return fmt.Errorf("show payload is not valid JSON: %w", err)
	}
	if payload.ChefID == uuid.Nil {
		return fmt.Errorf("show payload missing required field: chef_id")
	}
	if strings.TrimSpace(payload.ShowName) == "" {
		return fmt.Errorf("show payload missing required field: show_name")
	}
	if payload.Result != "" && !types.IsValidShowResult(payload.Result) {
		return fmt.Errorf("show payload has invalid result %q", payload.Result)
	}
	chefs, err := s.chefRepo.GetByIDs(ctx, nil, []uuid.UUID{payload.ChefID})
	if err != nil {
		return fmt.Errorf("check chef reference: %w", err)
	}
	if len(chefs) == 0 {
		return fmt.Errorf("show payload references unknown chef %s", payload.ChefID)
	}

	result := payload.Result
	if result == "" {
		result = types.ShowResultContestant
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		show, err := s.showRepo.GetOrCreateByName(ctx, tx, strings.TrimSpace(payload.ShowName), payload.Network)
		if err != nil {
			return fmt.Errorf("resolve show: %w", err)
		}
		if err := s.chefShowRepo.Upsert(ctx, tx, []*types.ChefShow{{
			ID:     uuid.New(),
			ChefID: payload.ChefID,
			ShowID: show.ID,
			Season: payload.Season,
			Result: result,
		}}); err != nil {
			return fmt.Errorf("link chef to show: %w", err)
		}
		return s.audit(ctx, tx, "chef_show", payload.ChefID, "discovery_approved", discovery)
	})
}

func (s *discoveryService) audit(ctx context.Context, tx *gorm.DB, table string, recordID uuid.UUID, action string, discovery *types.StagedDiscovery) error {
	if s.auditLogRepo == nil {
		return nil
	}
	_, err := s.auditLogRepo.Create(ctx, tx, []*types.AuditLog{{
		TableName_: table,
		RecordID:   recordID,
		Action:     action,
		Source:     types.AuditSourceReview,
		Confidence: discovery.Confidence,
		Detail:     discovery.Payload,
	}})
	return err
}
