package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/repo"
	httpez "crm-pipeline/internal/transport/http/ez"
	"crm-pipeline/pkg/utils"
)

// mountActivities 机会流水。只增不改不删，作者取当前登录人。
func mountActivities(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	type listOut struct {
		Total int64             `json:"total"`
		Items []domain.Activity `json:"items"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, d.DB, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/activities",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (listOut, error) {
			offset, limit, _, _ := pageParams(c)
			f := domain.ActivityFilter{
				OpportunityID: c.Query("opportunity"),
				CustomerID:    c.Query("customer"),
				Offset:        offset,
				Limit:         limit,
			}
			as, total, err := repo.NewActivityRepo(tx).List(domain.ScopeForUser(httpez.Principal(c)), f)
			if err != nil {
				return listOut{}, err
			}
			if as == nil {
				as = []domain.Activity{}
			}
			return listOut{Total: total, Items: as}, nil
		},
	})

	type activityIn struct {
		OpportunityID string `json:"opportunityId" binding:"required"`
		Type          string `json:"type"          binding:"required"`
		Summary       string `json:"summary"       binding:"required"`
	}
	httpez.RegisterAction[activityIn, *domain.Activity](ez, d.DB, httpez.Action[activityIn, *domain.Activity]{
		Method: http.MethodPost,
		Path:   "/activities",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *activityIn) (*domain.Activity, error) {
			t := strings.ToUpper(strings.TrimSpace(in.Type))
			if !domain.ValidActivityType(t) {
				return nil, domain.Invalid("type", "must be CALL, EMAIL, MEETING or NOTE")
			}
			p := httpez.Principal(c)
			// 越权（REP 看不到的机会）按不存在处理
			if _, err := oppService(tx).Get(p, in.OpportunityID); err != nil {
				return nil, err
			}
			a := &domain.Activity{
				ID:            utils.NewID(),
				OpportunityID: in.OpportunityID,
				UserID:        p.ID,
				Type:          t,
				Summary:       in.Summary,
			}
			if err := repo.NewActivityRepo(tx).Create(a); err != nil {
				return nil, err
			}
			return a, nil
		},
	})
}
