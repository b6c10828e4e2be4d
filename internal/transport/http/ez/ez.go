package ez

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	resp "crm-pipeline/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// Principal 从鉴权中间件写入的上下文键还原当前用户
func Principal(c *gin.Context) domain.Principal {
	return domain.Principal{
		ID:       c.GetString("userId"),
		Username: c.GetString("username"),
		Role:     c.GetString("role"),
	}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// AErr handler 层的临时错误（领域错误走 domain 包的类型）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func NotFoundErr(msg string) error  { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// WriteError 统一错误映射：Validation→400 Referential→409 Authorization→403
// NotFound→404，HTTP 状态码和业务码保持一致
func WriteError(c *gin.Context, err error) {
	var (
		ve *domain.ValidationError
		re *domain.ReferentialError
		fe *domain.AuthorizationError
		ne *domain.NotFoundError
		ae *AErr
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, ve.Error()))
	case errors.As(err, &re):
		c.JSON(http.StatusConflict, resp.Error(resp.CodeConflict, re.Error()))
	case errors.As(err, &fe):
		c.JSON(http.StatusForbidden, resp.Error(resp.CodeForbidden, fe.Error()))
	case errors.As(err, &ne):
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ne.Error()))
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "invalid credentials"))
	case errors.As(err, &ae):
		status := ae.Code
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, resp.Error(ae.Code, ae.Error()))
	default:
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, err.Error()))
	}
}

// Action 非 CRUD 一行注册：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string   // 例："/auth/login"、"/opportunities/:id"
	Binder  Binder   // 绑定方式
	Roles   []string // 限定角色（可选，缺省只要求登录态由分组中间件保证）
	UseTx   bool     // 是否包事务（gorm.Transaction）
	Handler func(c *gin.Context, db *gorm.DB, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 角色
		if len(a.Roles) > 0 {
			role := c.GetString("role")
			ok := false
			for _, r := range a.Roles {
				if role == r {
					ok = true
					break
				}
			}
			if !ok {
				WriteError(c, domain.Forbidden("requires role "+strings.Join(a.Roles, " or ")))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		// 3) 执行（可选事务）
		var out O
		var err error
		if a.UseTx {
			err = db.WithContext(c).Transaction(func(tx *gorm.DB) error {
				o, e := a.Handler(c, tx, &in)
				out = o
				return e
			})
		} else {
			out, err = a.Handler(c, db.WithContext(c), &in)
		}

		// 4) 统一错误映射
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// POSTFILES 处理 multipart/form-data 文件上传
func POSTFILES(e EZ, path string, fieldName string, h func(c *gin.Context, files []*multipart.FileHeader) (any, error)) {
	e.g.POST(path, func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "invalid multipart form: "+err.Error()))
			return
		}
		files := form.File[fieldName]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "no files uploaded"))
			return
		}

		data, err := h(c, files)
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	})
}
