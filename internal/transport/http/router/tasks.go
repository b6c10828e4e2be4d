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

func taskService(d Deps, tx *gorm.DB) *service.TaskService {
	return service.NewTaskService(
		repo.NewTaskRepo(tx),
		repo.NewOpportunityRepo(tx),
		repo.NewUserRepo(tx),
		d.Mailer,
	)
}

// mountTasks 个人待办。始终按登录人过滤，没有跨人视图。
func mountTasks(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	type listOut struct {
		Total int64         `json:"total"`
		Items []domain.Task `json:"items"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, d.DB, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (listOut, error) {
			offset, limit, _, _ := pageParams(c)
			ts, total, err := taskService(d, tx).List(httpez.Principal(c), c.Query("opportunity"), offset, limit)
			if err != nil {
				return listOut{}, err
			}
			if ts == nil {
				ts = []domain.Task{}
			}
			return listOut{Total: total, Items: ts}, nil
		},
	})

	type taskIn struct {
		OpportunityID string `json:"opportunityId"`
		Title         string `json:"title"   binding:"required,max=255"`
		DueDate       string `json:"dueDate" binding:"required"`
		Priority      string `json:"priority"`
	}
	httpez.RegisterAction[taskIn, *domain.Task](ez, d.DB, httpez.Action[taskIn, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *taskIn) (*domain.Task, error) {
			due, err := parseDate("dueDate", in.DueDate)
			if err != nil {
				return nil, err
			}
			return taskService(d, tx).Create(httpez.Principal(c), service.CreateTaskInput{
				OpportunityID: in.OpportunityID,
				Title:         in.Title,
				DueDate:       due,
				Priority:      in.Priority,
			})
		},
	})

	type taskPatch struct {
		Title     *string `json:"title"`
		DueDate   *string `json:"dueDate"`
		Completed *bool   `json:"completed"`
		Priority  *string `json:"priority"`
	}
	httpez.RegisterAction[taskPatch, *domain.Task](ez, d.DB, httpez.Action[taskPatch, *domain.Task]{
		Method: http.MethodPatch,
		Path:   "/tasks/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *taskPatch) (*domain.Task, error) {
			p := service.TaskPatch{
				Title:     in.Title,
				Completed: in.Completed,
				Priority:  in.Priority,
			}
			if in.DueDate != nil {
				t, err := parseDate("dueDate", *in.DueDate)
				if err != nil {
					return nil, err
				}
				p.DueDate = &t
			}
			return taskService(d, tx).Update(httpez.Principal(c), c.Param("id"), p)
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/tasks/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := taskService(d, tx).Delete(httpez.Principal(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
