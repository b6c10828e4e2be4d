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

// mountStages 阶段目录。读开放给所有登录用户，写仅 MANAGER/ADMIN。
func mountStages(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	httpez.RegisterAction[struct{}, []domain.PipelineStage](ez, d.DB, httpez.Action[struct{}, []domain.PipelineStage]{
		Method: http.MethodGet,
		Path:   "/stages",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]domain.PipelineStage, error) {
			ss, err := repo.NewStageRepo(tx).List()
			if err != nil {
				return nil, err
			}
			if ss == nil {
				ss = []domain.PipelineStage{}
			}
			return ss, nil
		},
	})

	type stageIn struct {
		Name      string `json:"name"      binding:"required,max=100"`
		SortOrder int    `json:"sortOrder" binding:"omitempty"`
		Category  string `json:"category"  binding:"omitempty"`
	}
	httpez.RegisterAction[stageIn, *domain.PipelineStage](ez, d.DB, httpez.Action[stageIn, *domain.PipelineStage]{
		Method: http.MethodPost,
		Path:   "/stages",
		Binder: httpez.BindJSON,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, in *stageIn) (*domain.PipelineStage, error) {
			category := in.Category
			if category == "" {
				category = domain.StageCategoryOpen
			}
			if !domain.ValidStageCategory(category) {
				return nil, domain.Invalid("category", "must be OPEN, WON or LOST")
			}
			s := &domain.PipelineStage{
				ID:        utils.NewID(),
				Name:      in.Name,
				SortOrder: in.SortOrder,
				Category:  category,
			}
			if err := repo.NewStageRepo(tx).Create(s); err != nil {
				return nil, err
			}
			return s, nil
		},
	})

	type stagePatch struct {
		Name      *string `json:"name"`
		SortOrder *int    `json:"sortOrder"`
		Category  *string `json:"category"`
	}
	httpez.RegisterAction[stagePatch, *domain.PipelineStage](ez, d.DB, httpez.Action[stagePatch, *domain.PipelineStage]{
		Method: http.MethodPatch,
		Path:   "/stages/:id",
		Binder: httpez.BindJSON,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, in *stagePatch) (*domain.PipelineStage, error) {
			r := repo.NewStageRepo(tx)
			s, err := r.FindByID(c.Param("id"))
			if err != nil {
				return nil, err
			}
			if s == nil {
				return nil, domain.NotFound("stage", c.Param("id"))
			}
			if in.Name != nil {
				if strings.TrimSpace(*in.Name) == "" {
					return nil, domain.Invalid("name", "required")
				}
				s.Name = *in.Name
			}
			if in.SortOrder != nil {
				s.SortOrder = *in.SortOrder
			}
			if in.Category != nil {
				if !domain.ValidStageCategory(*in.Category) {
					return nil, domain.Invalid("category", "must be OPEN, WON or LOST")
				}
				s.Category = *in.Category
			}
			if err := r.Update(s); err != nil {
				return nil, err
			}
			return s, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/stages/:id",
		Binder: httpez.BindNone,
		Roles:  manageRoles,
		UseTx:  true, // 引用计数和删除要同事务
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := repo.NewStageRepo(tx).Delete(id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
