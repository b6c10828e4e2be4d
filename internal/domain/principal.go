package domain

// Principal 鉴权中间件解析出来的当前用户
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (p Principal) IsManagerOrAdmin() bool {
	return p.Role == RoleManager || p.Role == RoleAdmin
}

// Scope 按角色解析出来的数据可见范围。OwnerID 为空表示全量。
type Scope struct {
	OwnerID string
}

func (s Scope) All() bool { return s.OwnerID == "" }

// ScopeForUser 显式的 scope 解析函数：REP 只看自己名下的机会/任务，
// MANAGER/ADMIN 看全部。不依赖请求上下文，便于单测。
func ScopeForUser(p Principal) Scope {
	if p.Role == RoleRep {
		return Scope{OwnerID: p.ID}
	}
	return Scope{}
}
