package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
	"crm-pipeline/pkg/utils"
)

// OpportunityService 机会的生命周期引擎。更新路径是一条同步流水线：
// 快照 → 落库 → 审计 → 状态推导，顺序不可调换（审计只反映调用方的
// 显式修改，推导产生的纠正写不再记审计）。
type OpportunityService struct {
	opps      domain.OpportunityRepository
	stages    domain.StageRepository
	customers domain.CustomerRepository
	acts      domain.ActivityRepository
}

func NewOpportunityService(opps domain.OpportunityRepository, stages domain.StageRepository, customers domain.CustomerRepository, acts domain.ActivityRepository) *OpportunityService {
	return &OpportunityService{opps: opps, stages: stages, customers: customers, acts: acts}
}

type CreateOpportunityInput struct {
	Title             string
	Value             decimal.Decimal
	ExpectedCloseDate time.Time
	StageID           string
	CustomerID        string
	LostReason        string
}

type OpportunityPatch struct {
	Title             *string
	Value             *decimal.Decimal
	ExpectedCloseDate *time.Time
	Status            *string
	StageID           *string
	CustomerID        *string
	LostReason        *string
}

func (s *OpportunityService) Create(actor domain.Principal, in CreateOpportunityInput) (*domain.Opportunity, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Invalid("title", "required")
	}
	if in.Value.IsNegative() {
		return nil, domain.Invalid("value", "must not be negative")
	}
	if in.ExpectedCloseDate.IsZero() {
		return nil, domain.Invalid("expectedCloseDate", "required")
	}
	stage, err := s.stages.FindByID(in.StageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, domain.Referential("stage %s does not exist", in.StageID)
	}
	if err := s.checkCustomer(in.CustomerID); err != nil {
		return nil, err
	}

	o := &domain.Opportunity{
		ID:                utils.NewID(),
		Title:             in.Title,
		Value:             in.Value,
		ExpectedCloseDate: in.ExpectedCloseDate,
		Status:            domain.StatusOpen,
		StageID:           stage.ID,
		OwnerID:           actor.ID, // owner 在创建时固定，之后不可改
		CustomerID:        in.CustomerID,
		LostReason:        in.LostReason,
	}
	if err := s.opps.Create(o); err != nil {
		return nil, err
	}
	o.Stage = stage
	return o, nil
}

func (s *OpportunityService) Get(actor domain.Principal, id string) (*domain.Opportunity, error) {
	return s.findScoped(actor, id)
}

func (s *OpportunityService) List(actor domain.Principal, f domain.OpportunityFilter) ([]domain.Opportunity, int64, error) {
	return s.opps.List(domain.ScopeForUser(actor), f)
}

func (s *OpportunityService) Delete(actor domain.Principal, id string) error {
	if _, err := s.findScoped(actor, id); err != nil {
		return err
	}
	return s.opps.DeleteCascade(id)
}

// Update 生命周期流水线。阶段引用失效时整条流水线中止（无半截审计、
// 无半截状态变更），上层用事务包住保证 all-or-nothing。
func (s *OpportunityService) Update(actor domain.Principal, id string, p OpportunityPatch) (*domain.Opportunity, error) {
	o, err := s.findScoped(actor, id)
	if err != nil {
		return nil, err
	}

	// 1. 快照
	prevStatus := o.Status
	prevStageID := o.StageID
	prevValue := o.Value
	prevStageName := ""
	if o.Stage != nil {
		prevStageName = o.Stage.Name
	}

	// 应用调用方修改（owner 永远不可被调用方改写）
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, domain.Invalid("title", "required")
		}
		o.Title = *p.Title
	}
	if p.Value != nil {
		if p.Value.IsNegative() {
			return nil, domain.Invalid("value", "must not be negative")
		}
		o.Value = *p.Value
	}
	if p.ExpectedCloseDate != nil {
		o.ExpectedCloseDate = *p.ExpectedCloseDate
	}
	if p.Status != nil {
		if !domain.ValidStatus(*p.Status) {
			return nil, domain.Invalid("status", "must be OPEN, WON or LOST")
		}
		o.Status = *p.Status
	}
	if p.CustomerID != nil && *p.CustomerID != o.CustomerID {
		if err := s.checkCustomer(*p.CustomerID); err != nil {
			return nil, err
		}
		o.CustomerID = *p.CustomerID
		o.Customer = nil
	}
	if p.LostReason != nil {
		o.LostReason = *p.LostReason
	}

	stage := o.Stage
	if p.StageID != nil && *p.StageID != prevStageID {
		stage, err = s.stages.FindByID(*p.StageID)
		if err != nil {
			return nil, err
		}
		if stage == nil {
			return nil, domain.Referential("stage %s does not exist", *p.StageID)
		}
		o.StageID = stage.ID
		o.Stage = stage
	} else if stage == nil {
		stage, err = s.stages.FindByID(o.StageID)
		if err != nil {
			return nil, err
		}
		if stage == nil {
			return nil, domain.Referential("stage %s does not exist", o.StageID)
		}
		o.Stage = stage
	}

	// 2. 持久化调用方的修改
	if err := s.opps.Save(o); err != nil {
		return nil, err
	}

	// 3. 审计：一条 NOTE 汇总全部变化；三项都没变就不发
	var changes []string
	if prevStatus != o.Status {
		changes = append(changes, fmt.Sprintf("status: %s -> %s", prevStatus, o.Status))
	}
	if prevStageID != o.StageID {
		changes = append(changes, fmt.Sprintf("stage: %s -> %s", prevStageName, stage.Name))
	}
	if !prevValue.Equal(o.Value) {
		changes = append(changes, fmt.Sprintf("value: %s -> %s", prevValue, o.Value))
	}
	if len(changes) > 0 {
		act := &domain.Activity{
			ID:            utils.NewID(),
			OpportunityID: o.ID,
			UserID:        actor.ID,
			Type:          domain.ActivityNote,
			Summary:       "System update: " + strings.Join(changes, "; "),
		}
		if err := s.acts.Create(act); err != nil {
			return nil, err
		}
	}

	// 4. 状态推导，晚于审计；纠正写本身不再记审计
	if forced := deriveStatus(stage.Category, o.Status); forced != "" {
		o.Status = forced
		if err := s.opps.Save(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// deriveStatus 阶段分类 → 目标状态，无需纠正时返回空串
func deriveStatus(category, status string) string {
	switch category {
	case domain.StageCategoryWon:
		if status != domain.StatusWon {
			return domain.StatusWon
		}
	case domain.StageCategoryLost:
		if status != domain.StatusLost {
			return domain.StatusLost
		}
	case domain.StageCategoryOpen:
		if status == domain.StatusWon || status == domain.StatusLost {
			return domain.StatusOpen
		}
	}
	return ""
}

// checkCustomer 客户引用和阶段一样做存在性校验
func (s *OpportunityService) checkCustomer(id string) error {
	c, err := s.customers.FindByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.Referential("customer %s does not exist", id)
	}
	return nil
}

// findScoped scope 之外的记录按不存在处理
func (s *OpportunityService) findScoped(actor domain.Principal, id string) (*domain.Opportunity, error) {
	o, err := s.opps.FindByID(id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NotFound("opportunity", id)
	}
	if scope := domain.ScopeForUser(actor); !scope.All() && o.OwnerID != scope.OwnerID {
		return nil, domain.NotFound("opportunity", id)
	}
	return o, nil
}
