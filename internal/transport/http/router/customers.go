package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/repo"
	"crm-pipeline/internal/service"
	httpez "crm-pipeline/internal/transport/http/ez"
	"crm-pipeline/pkg/utils"
)

func mountCustomers(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	type listOut struct {
		Total int64             `json:"total"`
		Items []domain.Customer `json:"items"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, d.DB, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/customers",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (listOut, error) {
			offset, limit, _, _ := pageParams(c)
			cs, total, err := repo.NewCustomerRepo(tx).List(strings.TrimSpace(c.Query("search")), offset, limit)
			if err != nil {
				return listOut{}, httpez.Internal("list customers failed", err)
			}
			if cs == nil {
				cs = []domain.Customer{}
			}
			return listOut{Total: total, Items: cs}, nil
		},
	})

	httpez.RegisterAction[struct{}, *domain.Customer](ez, d.DB, httpez.Action[struct{}, *domain.Customer]{
		Method: http.MethodGet,
		Path:   "/customers/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.Customer, error) {
			cust, err := repo.NewCustomerRepo(tx).FindByID(c.Param("id"))
			if err != nil {
				return nil, err
			}
			if cust == nil {
				return nil, domain.NotFound("customer", c.Param("id"))
			}
			return cust, nil
		},
	})

	type customerIn struct {
		Name  string `json:"name"  binding:"required,max=255"`
		Email string `json:"email" binding:"omitempty,email"`
		Phone string `json:"phone" binding:"omitempty,max=20"`
	}
	httpez.RegisterAction[customerIn, *domain.Customer](ez, d.DB, httpez.Action[customerIn, *domain.Customer]{
		Method: http.MethodPost,
		Path:   "/customers",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *customerIn) (*domain.Customer, error) {
			cust := &domain.Customer{
				ID:    utils.NewID(),
				Name:  in.Name,
				Email: in.Email,
				Phone: in.Phone,
			}
			if err := repo.NewCustomerRepo(tx).Create(cust); err != nil {
				return nil, err
			}
			return cust, nil
		},
	})

	type customerPatch struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	httpez.RegisterAction[customerPatch, *domain.Customer](ez, d.DB, httpez.Action[customerPatch, *domain.Customer]{
		Method: http.MethodPatch,
		Path:   "/customers/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *customerPatch) (*domain.Customer, error) {
			r := repo.NewCustomerRepo(tx)
			cust, err := r.FindByID(c.Param("id"))
			if err != nil {
				return nil, err
			}
			if cust == nil {
				return nil, domain.NotFound("customer", c.Param("id"))
			}
			if in.Name != nil {
				if strings.TrimSpace(*in.Name) == "" {
					return nil, domain.Invalid("name", "required")
				}
				cust.Name = *in.Name
			}
			if in.Email != nil {
				cust.Email = *in.Email
			}
			if in.Phone != nil {
				cust.Phone = *in.Phone
			}
			if err := r.Update(cust); err != nil {
				return nil, err
			}
			return cust, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/customers/:id",
		Binder: httpez.BindNone,
		UseTx:  true, // 名下机会级联删除要同事务
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			svc := service.NewCustomerService(repo.NewCustomerRepo(tx), repo.NewOpportunityRepo(tx))
			if err := svc.Delete(id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
