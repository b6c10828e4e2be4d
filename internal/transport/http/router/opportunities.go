package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/repo"
	"crm-pipeline/internal/service"
	httpez "crm-pipeline/internal/transport/http/ez"
)

func oppService(tx *gorm.DB) *service.OpportunityService {
	return service.NewOpportunityService(
		repo.NewOpportunityRepo(tx),
		repo.NewStageRepo(tx),
		repo.NewCustomerRepo(tx),
		repo.NewActivityRepo(tx),
	)
}

// mountOpportunities 机会（deal）主资源。更新走生命周期管线：审计 + 状态推导。
func mountOpportunities(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	type listOut struct {
		Total int64                `json:"total"`
		Items []domain.Opportunity `json:"items"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, d.DB, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/opportunities",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (listOut, error) {
			offset, limit, _, _ := pageParams(c)
			f := domain.OpportunityFilter{
				Search:     strings.TrimSpace(c.Query("search")),
				Status:     c.Query("status"),
				StageID:    c.Query("stage"),
				CustomerID: c.Query("customer"),
				OwnerID:    c.Query("owner"),
				Offset:     offset,
				Limit:      limit,
			}
			os, total, err := oppService(tx).List(httpez.Principal(c), f)
			if err != nil {
				return listOut{}, err
			}
			if os == nil {
				os = []domain.Opportunity{}
			}
			return listOut{Total: total, Items: os}, nil
		},
	})

	httpez.RegisterAction[struct{}, *domain.Opportunity](ez, d.DB, httpez.Action[struct{}, *domain.Opportunity]{
		Method: http.MethodGet,
		Path:   "/opportunities/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.Opportunity, error) {
			return oppService(tx).Get(httpez.Principal(c), c.Param("id"))
		},
	})

	type oppIn struct {
		Title             string          `json:"title"             binding:"required,max=255"`
		Value             decimal.Decimal `json:"value"`
		ExpectedCloseDate string          `json:"expectedCloseDate" binding:"required"`
		StageID           string          `json:"stageId"           binding:"required"`
		CustomerID        string          `json:"customerId"        binding:"required"`
		LostReason        string          `json:"lostReason"`
	}
	httpez.RegisterAction[oppIn, *domain.Opportunity](ez, d.DB, httpez.Action[oppIn, *domain.Opportunity]{
		Method: http.MethodPost,
		Path:   "/opportunities",
		Binder: httpez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *oppIn) (*domain.Opportunity, error) {
			closeDate, err := parseDate("expectedCloseDate", in.ExpectedCloseDate)
			if err != nil {
				return nil, err
			}
			return oppService(tx).Create(httpez.Principal(c), service.CreateOpportunityInput{
				Title:             in.Title,
				Value:             in.Value,
				ExpectedCloseDate: closeDate,
				StageID:           in.StageID,
				CustomerID:        in.CustomerID,
				LostReason:        in.LostReason,
			})
		},
	})

	type oppPatch struct {
		Title             *string          `json:"title"`
		Value             *decimal.Decimal `json:"value"`
		ExpectedCloseDate *string          `json:"expectedCloseDate"`
		Status            *string          `json:"status"`
		StageID           *string          `json:"stageId"`
		CustomerID        *string          `json:"customerId"`
		LostReason        *string          `json:"lostReason"`
	}
	httpez.RegisterAction[oppPatch, *domain.Opportunity](ez, d.DB, httpez.Action[oppPatch, *domain.Opportunity]{
		Method: http.MethodPatch,
		Path:   "/opportunities/:id",
		Binder: httpez.BindJSON,
		UseTx:  true, // 业务写 + 审计流水同事务落库
		Handler: func(c *gin.Context, tx *gorm.DB, in *oppPatch) (*domain.Opportunity, error) {
			p := service.OpportunityPatch{
				Title:      in.Title,
				Value:      in.Value,
				Status:     in.Status,
				StageID:    in.StageID,
				CustomerID: in.CustomerID,
				LostReason: in.LostReason,
			}
			if in.ExpectedCloseDate != nil {
				t, err := parseDate("expectedCloseDate", *in.ExpectedCloseDate)
				if err != nil {
					return nil, err
				}
				p.ExpectedCloseDate = &t
			}
			return oppService(tx).Update(httpez.Principal(c), c.Param("id"), p)
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/opportunities/:id",
		Binder: httpez.BindNone,
		UseTx:  true, // 子表级联删除
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := oppService(tx).Delete(httpez.Principal(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// 到期提醒之外，前端也会拉"今天到期"视图
	httpez.RegisterAction[struct{}, []domain.Opportunity](ez, d.DB, httpez.Action[struct{}, []domain.Opportunity]{
		Method: http.MethodGet,
		Path:   "/opportunities/due-today",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]domain.Opportunity, error) {
			os, err := repo.NewOpportunityRepo(tx).DueOn(time.Now())
			if err != nil {
				return nil, err
			}
			p := httpez.Principal(c)
			out := make([]domain.Opportunity, 0, len(os))
			for _, o := range os {
				if sc := domain.ScopeForUser(p); sc.OwnerID != "" && o.OwnerID != sc.OwnerID {
					continue
				}
				out = append(out, o)
			}
			return out, nil
		},
	})
}
