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

func authService(d Deps, tx *gorm.DB) *service.AuthService {
	return service.NewAuthService(repo.NewUserRepo(tx), d.JWTer, d.Cache, d.Mailer, d.Cfg.Dashboard.FrontendBaseURL)
}

type userOut struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserOut(u *domain.User) userOut {
	return userOut{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func mountAuthPublic(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	// POST /auth/register
	type registerIn struct {
		Username string `json:"username" binding:"required,max=64"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email"    binding:"omitempty,email"`
		Role     string `json:"role"     binding:"omitempty"`
	}
	httpez.RegisterAction[registerIn, userOut](ez, d.DB, httpez.Action[registerIn, userOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *registerIn) (userOut, error) {
			u, err := authService(d, tx).Register(service.RegisterInput{
				Username: in.Username,
				Password: in.Password,
				Email:    in.Email,
				Role:     in.Role,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	// POST /auth/login
	type loginIn struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string  `json:"token"`
		User  userOut `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ez, d.DB, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (loginOut, error) {
			tok, u, err := authService(d, tx).Login(in.Username, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{Token: tok, User: toUserOut(u)}, nil
		},
	})

	// POST /auth/password-reset
	type resetReqIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	httpez.RegisterAction[resetReqIn, gin.H](ez, d.DB, httpez.Action[resetReqIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/password-reset",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *resetReqIn) (gin.H, error) {
			if err := authService(d, tx).RequestPasswordReset(c, in.Email); err != nil {
				return nil, err
			}
			return gin.H{"message": "reset mail sent if the address exists"}, nil
		},
	})

	// POST /auth/password-reset-confirm
	type resetConfirmIn struct {
		Token       string `json:"token"       binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	httpez.RegisterAction[resetConfirmIn, gin.H](ez, d.DB, httpez.Action[resetConfirmIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/password-reset-confirm",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *resetConfirmIn) (gin.H, error) {
			if err := authService(d, tx).ConfirmPasswordReset(c, in.Token, in.NewPassword); err != nil {
				return nil, err
			}
			return gin.H{"message": "password updated"}, nil
		},
	})
}

func mountAuthPrivate(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	// GET /auth/me
	httpez.RegisterAction[struct{}, userOut](ez, d.DB, httpez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/auth/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (userOut, error) {
			p := httpez.Principal(c)
			u, err := repo.NewUserRepo(tx).FindByID(p.ID)
			if err != nil {
				return userOut{}, err
			}
			if u == nil {
				return userOut{}, domain.NotFound("user", p.ID)
			}
			return toUserOut(u), nil
		},
	})

	// PUT /auth/me 部分更新
	type meIn struct {
		Username *string `json:"username"`
		Email    *string `json:"email" binding:"omitempty"`
	}
	httpez.RegisterAction[meIn, userOut](ez, d.DB, httpez.Action[meIn, userOut]{
		Method: http.MethodPut,
		Path:   "/auth/me",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *meIn) (userOut, error) {
			p := httpez.Principal(c)
			u, err := authService(d, tx).UpdateProfile(p.ID, service.ProfilePatch{
				Username: in.Username,
				Email:    in.Email,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	// POST /auth/change-password
	type changeIn struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	httpez.RegisterAction[changeIn, gin.H](ez, d.DB, httpez.Action[changeIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/change-password",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *changeIn) (gin.H, error) {
			p := httpez.Principal(c)
			if err := authService(d, tx).ChangePassword(p.ID, in.OldPassword, in.NewPassword); err != nil {
				return nil, err
			}
			return gin.H{"message": "password changed"}, nil
		},
	})
}

// mountUsers 员工管理，MANAGER/ADMIN 专用
func mountUsers(g *gin.RouterGroup, d Deps) {
	ez := httpez.New(g)

	type listOut struct {
		Total int64     `json:"total"`
		Items []userOut `json:"items"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, d.DB, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindNone,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (listOut, error) {
			offset, limit, _, _ := pageParams(c)
			us, total, err := repo.NewUserRepo(tx).List(offset, limit)
			if err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}
			out := listOut{Total: total, Items: make([]userOut, 0, len(us))}
			for i := range us {
				out.Items = append(out.Items, toUserOut(&us[i]))
			}
			return out, nil
		},
	})

	type createIn struct {
		Username string `json:"username" binding:"required,max=64"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email"    binding:"omitempty,email"`
		Role     string `json:"role"     binding:"omitempty"`
	}
	httpez.RegisterAction[createIn, userOut](ez, d.DB, httpez.Action[createIn, userOut]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, in *createIn) (userOut, error) {
			u, err := authService(d, tx).Register(service.RegisterInput{
				Username: in.Username,
				Password: in.Password,
				Email:    in.Email,
				Role:     in.Role,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	httpez.RegisterAction[struct{}, userOut](ez, d.DB, httpez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (userOut, error) {
			u, err := repo.NewUserRepo(tx).FindByID(c.Param("id"))
			if err != nil {
				return userOut{}, err
			}
			if u == nil {
				return userOut{}, domain.NotFound("user", c.Param("id"))
			}
			return toUserOut(u), nil
		},
	})

	type userPatch struct {
		Email *string `json:"email" binding:"omitempty"`
		Role  *string `json:"role"`
	}
	httpez.RegisterAction[userPatch, userOut](ez, d.DB, httpez.Action[userPatch, userOut]{
		Method: http.MethodPatch,
		Path:   "/users/:id",
		Binder: httpez.BindJSON,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, in *userPatch) (userOut, error) {
			u, err := authService(d, tx).AdminUpdateUser(c.Param("id"), service.AdminUserPatch{
				Email: in.Email,
				Role:  in.Role,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Roles:  manageRoles,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			users := repo.NewUserRepo(tx)
			u, err := users.FindByID(id)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, domain.NotFound("user", id)
			}
			if err := users.Delete(id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
