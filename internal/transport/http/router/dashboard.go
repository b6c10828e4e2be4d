package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/repo"
	"crm-pipeline/internal/service"
	httpez "crm-pipeline/internal/transport/http/ez"
)

// mountDashboard 看板聚合。REP 看自己，MANAGER/ADMIN 看全量。
func mountDashboard(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	httpez.RegisterAction[struct{}, *domain.DashboardStats](ez, d.DB, httpez.Action[struct{}, *domain.DashboardStats]{
		Method: http.MethodGet,
		Path:   "/dashboard/stats",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.DashboardStats, error) {
			svc := service.NewStatsService(
				repo.NewStatsRepo(tx),
				repo.NewCustomerRepo(tx),
				repo.NewTaskRepo(tx),
				d.Cfg.Dashboard.DefaultMonths,
			)
			months := atoiDefault(c.Query("months"), 0)
			return svc.Dashboard(httpez.Principal(c), months)
		},
	})
}
