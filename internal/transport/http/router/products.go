package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm-pipeline/internal/core/cache"
	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/repo"
	"crm-pipeline/internal/service"
	httpez "crm-pipeline/internal/transport/http/ez"
	"crm-pipeline/pkg/utils"
)

const productListKey = "products:list"

// mountProducts 产品目录。列表走 Redis 缓存，写路径失效。
func mountProducts(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	httpez.RegisterAction[struct{}, []domain.Product](ez, d.DB, httpez.Action[struct{}, []domain.Product]{
		Method: http.MethodGet,
		Path:   "/products",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]domain.Product, error) {
			ps, err := cache.GetOrLoadJSON[[]domain.Product](d.Cache, c, productListKey, 60*time.Second,
				func(ctx context.Context) (*[]domain.Product, error) {
					list, e := repo.NewProductRepo(tx).List()
					if e != nil {
						return nil, e
					}
					return &list, nil
				})
			if err != nil {
				return nil, err
			}
			if ps == nil || *ps == nil {
				return []domain.Product{}, nil
			}
			return *ps, nil
		},
	})

	httpez.RegisterAction[struct{}, *domain.Product](ez, d.DB, httpez.Action[struct{}, *domain.Product]{
		Method: http.MethodGet,
		Path:   "/products/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.Product, error) {
			p, err := repo.NewProductRepo(tx).FindByID(c.Param("id"))
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, domain.NotFound("product", c.Param("id"))
			}
			return p, nil
		},
	})

	type productIn struct {
		Name   string          `json:"name"   binding:"required,max=255"`
		Code   string          `json:"code"   binding:"required,max=50"`
		Price  decimal.Decimal `json:"price"`
		Active *bool           `json:"active"`
	}
	httpez.RegisterAction[productIn, *domain.Product](ez, d.DB, httpez.Action[productIn, *domain.Product]{
		Method: http.MethodPost,
		Path:   "/products",
		Binder: httpez.BindJSON,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, in *productIn) (*domain.Product, error) {
			if in.Price.IsNegative() {
				return nil, domain.Invalid("price", "must not be negative")
			}
			p := &domain.Product{
				ID:     utils.NewID(),
				Name:   in.Name,
				Code:   strings.TrimSpace(in.Code),
				Price:  in.Price,
				Active: true,
			}
			if in.Active != nil {
				p.Active = *in.Active
			}
			if err := repo.NewProductRepo(tx).Create(p); err != nil {
				return nil, err
			}
			d.Cache.Invalidate(c, productListKey)
			return p, nil
		},
	})

	type productPatch struct {
		Name   *string          `json:"name"`
		Code   *string          `json:"code"`
		Price  *decimal.Decimal `json:"price"`
		Active *bool            `json:"active"`
	}
	httpez.RegisterAction[productPatch, *domain.Product](ez, d.DB, httpez.Action[productPatch, *domain.Product]{
		Method: http.MethodPatch,
		Path:   "/products/:id",
		Binder: httpez.BindJSON,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, in *productPatch) (*domain.Product, error) {
			r := repo.NewProductRepo(tx)
			p, err := r.FindByID(c.Param("id"))
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, domain.NotFound("product", c.Param("id"))
			}
			if in.Name != nil {
				if strings.TrimSpace(*in.Name) == "" {
					return nil, domain.Invalid("name", "required")
				}
				p.Name = *in.Name
			}
			if in.Code != nil {
				if strings.TrimSpace(*in.Code) == "" {
					return nil, domain.Invalid("code", "required")
				}
				p.Code = strings.TrimSpace(*in.Code)
			}
			if in.Price != nil {
				if in.Price.IsNegative() {
					return nil, domain.Invalid("price", "must not be negative")
				}
				p.Price = *in.Price
			}
			if in.Active != nil {
				p.Active = *in.Active
			}
			if err := r.Update(p); err != nil {
				return nil, err
			}
			d.Cache.Invalidate(c, productListKey)
			return p, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/products/:id",
		Binder: httpez.BindNone,
		Roles:  manageRoles,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			svc := service.NewProductService(repo.NewProductRepo(tx), repo.NewItemRepo(tx))
			if err := svc.Delete(id); err != nil {
				return nil, err
			}
			d.Cache.Invalidate(c, productListKey)
			return gin.H{"id": id}, nil
		},
	})
}
