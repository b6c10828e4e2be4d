package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-pipeline/internal/core/auth"
	"crm-pipeline/internal/core/cache"
	"crm-pipeline/internal/core/config"
	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/notify"
	mdw "crm-pipeline/internal/transport/http/middleware"
)

// Deps 路由装配用到的共享依赖
type Deps struct {
	Log    *zap.Logger
	DB     *gorm.DB
	Cfg    *config.Config
	JWTer  *auth.JWTer
	Cache  *cache.Cache
	Mailer notify.Sender
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(
		mdw.RequestID(),
		cors.Default(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 公共：注册 / 登录 / 密码重置
	mountAuthPublic(api, d)

	// 鉴权分组
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWTer))

	mountAuthPrivate(authed, d)
	mountUsers(authed, d)
	mountCustomers(authed, d)
	mountStages(authed, d)
	mountProducts(authed, d)
	mountOpportunities(authed, d)
	mountItems(authed, d)
	mountActivities(authed, d)
	mountTasks(authed, d)
	mountDashboard(authed, d)
	mountCSV(authed, d)

	return r
}

// manageRoles 阶段/产品/用户管理要求的角色
var manageRoles = []string{domain.RoleManager, domain.RoleAdmin}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// pageParams page/size → offset/limit
func pageParams(c *gin.Context) (offset, limit, page, size int) {
	page = atoiDefault(c.Query("page"), 1)
	size = atoiDefault(c.Query("size"), 20)
	if size > 100 {
		size = 20
	}
	return (page - 1) * size, size, page, size
}

// parseDate 机会关单日等前端传的是 YYYY-MM-DD，也兼容 RFC3339
func parseDate(field, s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Invalid(field, "expected YYYY-MM-DD or RFC3339")
}
