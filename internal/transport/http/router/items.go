package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/repo"
	"crm-pipeline/internal/service"
	httpez "crm-pipeline/internal/transport/http/ez"
)

func itemService(tx *gorm.DB) *service.ItemService {
	return service.NewItemService(
		repo.NewItemRepo(tx),
		repo.NewOpportunityRepo(tx),
		repo.NewProductRepo(tx),
	)
}

// mountItems 机会下的产品明细。每次写完都在同事务里重算机会金额。
func mountItems(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	httpez.RegisterAction[struct{}, []domain.OpportunityItem](ez, d.DB, httpez.Action[struct{}, []domain.OpportunityItem]{
		Method: http.MethodGet,
		Path:   "/opportunities/:id/items",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]domain.OpportunityItem, error) {
			// 先做归属校验，REP 不可见他人机会
			if _, err := oppService(tx).Get(httpez.Principal(c), c.Param("id")); err != nil {
				return nil, err
			}
			its, err := itemService(tx).ListByOpportunity(c.Param("id"))
			if err != nil {
				return nil, err
			}
			if its == nil {
				its = []domain.OpportunityItem{}
			}
			return its, nil
		},
	})

	type itemIn struct {
		ProductID string           `json:"productId" binding:"required"`
		Quantity  int              `json:"quantity"  binding:"required"`
		UnitPrice *decimal.Decimal `json:"unitPrice"`
	}
	httpez.RegisterAction[itemIn, *domain.OpportunityItem](ez, d.DB, httpez.Action[itemIn, *domain.OpportunityItem]{
		Method: http.MethodPost,
		Path:   "/opportunities/:id/items",
		Binder: httpez.BindJSON,
		UseTx:  true, // 明细写入 + 金额重算
		Handler: func(c *gin.Context, tx *gorm.DB, in *itemIn) (*domain.OpportunityItem, error) {
			if _, err := oppService(tx).Get(httpez.Principal(c), c.Param("id")); err != nil {
				return nil, err
			}
			return itemService(tx).Add(c.Param("id"), in.ProductID, in.Quantity, in.UnitPrice)
		},
	})

	type itemPatch struct {
		Quantity  *int             `json:"quantity"`
		UnitPrice *decimal.Decimal `json:"unitPrice"`
	}
	httpez.RegisterAction[itemPatch, *domain.OpportunityItem](ez, d.DB, httpez.Action[itemPatch, *domain.OpportunityItem]{
		Method: http.MethodPatch,
		Path:   "/items/:id",
		Binder: httpez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *itemPatch) (*domain.OpportunityItem, error) {
			it, err := findScopedItem(tx, httpez.Principal(c), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return itemService(tx).Update(it.ID, service.ItemPatch{Quantity: in.Quantity, UnitPrice: in.UnitPrice})
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/items/:id",
		Binder: httpez.BindNone,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			it, err := findScopedItem(tx, httpez.Principal(c), c.Param("id"))
			if err != nil {
				return nil, err
			}
			if err := itemService(tx).Remove(it.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": it.ID}, nil
		},
	})
}

// findScopedItem 经所属机会做可见性校验，越权按不存在处理
func findScopedItem(tx *gorm.DB, p domain.Principal, id string) (*domain.OpportunityItem, error) {
	it, err := repo.NewItemRepo(tx).FindByID(id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, domain.NotFound("item", id)
	}
	if _, err := oppService(tx).Get(p, it.OpportunityID); err != nil {
		return nil, err
	}
	return it, nil
}
