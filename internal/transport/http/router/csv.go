package router

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-pipeline/internal/repo"
	"crm-pipeline/internal/service"
	httpez "crm-pipeline/internal/transport/http/ez"
)

func csvService(tx *gorm.DB) *service.CSVService {
	return service.NewCSVService(repo.NewOpportunityRepo(tx), repo.NewCustomerRepo(tx))
}

// mountCSV 导入导出。导出不走统一响应包装，直接写 text/csv 附件。
func mountCSV(g *gin.RouterGroup, d Deps) {
	g.GET("/opportunities/export", func(c *gin.Context) {
		filename := fmt.Sprintf("opportunities_%s.csv", time.Now().Format("20060102"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := csvService(d.DB.WithContext(c)).ExportOpportunities(c.Writer, httpez.Principal(c)); err != nil {
			// 可能已经写了部分响应，只能记日志
			d.Log.Error("export opportunities failed", zap.Error(err))
			c.Status(http.StatusInternalServerError)
		}
	})

	ez := httpez.New(g)
	httpez.POSTFILES(ez, "/customers/import", "file", func(c *gin.Context, files []*multipart.FileHeader) (any, error) {
		f, err := files[0].Open()
		if err != nil {
			return nil, httpez.BadRequest("cannot open uploaded file: " + err.Error())
		}
		defer f.Close()
		return csvService(d.DB.WithContext(c)).ImportCustomers(f)
	})
}
