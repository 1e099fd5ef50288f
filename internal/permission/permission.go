// Package permission 实现按角色的访问控制，所有判断都是纯函数。
package permission

import (
	"errors"

	"github.com/user/yamdb/internal/model"
)

var (
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
)

// Action 请求对资源的操作
type Action int

const (
	List Action = iota
	Retrieve
	Create
	Update
	Delete
)

// IsSafe 只读操作
func (a Action) IsSafe() bool {
	return a == List || a == Retrieve
}

// Caller 当前请求的调用者，匿名调用者为零值
type Caller struct {
	ID            int
	Username      string
	Role          model.Role
	IsSuperuser   bool
	Authenticated bool
}

// Anonymous 匿名调用者
var Anonymous = Caller{}

// CallerFromUser 由用户记录构造调用者
func CallerFromUser(u *model.User) Caller {
	if u == nil {
		return Anonymous
	}
	return Caller{
		ID:            u.ID,
		Username:      u.Username,
		Role:          u.Role,
		IsSuperuser:   u.IsSuperuser,
		Authenticated: true,
	}
}

func (c Caller) IsAdmin() bool {
	return c.Authenticated && (c.Role == model.RoleAdmin || c.IsSuperuser)
}

func (c Caller) IsModerator() bool {
	return c.Authenticated && c.Role == model.RoleModerator
}

// Owned 有作者的对象
type Owned interface {
	OwnerID() int
}

// Policy 访问策略，obj 为 nil 时只做列表级判断
type Policy interface {
	HasPermission(c Caller, a Action) bool
	HasObjectPermission(c Caller, a Action, obj any) bool
}

// Authorize 先做列表级判断，再在 obj 非空时做对象级判断
func Authorize(p Policy, c Caller, a Action, obj any) error {
	if !p.HasPermission(c, a) || (obj != nil && !p.HasObjectPermission(c, a, obj)) {
		if !c.Authenticated {
			return ErrNotAuthenticated
		}
		return ErrPermissionDenied
	}
	return nil
}

// IsAdminOrReadOnly 读操作放行，写操作仅管理员
type IsAdminOrReadOnly struct{}

func (IsAdminOrReadOnly) HasPermission(c Caller, a Action) bool {
	return a.IsSafe() || c.IsAdmin()
}

func (p IsAdminOrReadOnly) HasObjectPermission(c Caller, a Action, _ any) bool {
	return p.HasPermission(c, a)
}

// IsOwnerOrModeratorOrReadOnly 读操作放行，创建需登录，修改删除需作者、版主或管理员
type IsOwnerOrModeratorOrReadOnly struct{}

func (IsOwnerOrModeratorOrReadOnly) HasPermission(c Caller, a Action) bool {
	return a.IsSafe() || c.Authenticated
}

func (IsOwnerOrModeratorOrReadOnly) HasObjectPermission(c Caller, a Action, obj any) bool {
	if a.IsSafe() {
		return true
	}
	if !c.Authenticated {
		return false
	}
	if c.IsModerator() || c.IsAdmin() {
		return true
	}
	owned, ok := obj.(Owned)
	return ok && owned.OwnerID() == c.ID
}

// AuthorOrAdmin 用户目录：列表级仅管理员，对象级额外允许操作自己
type AuthorOrAdmin struct{}

func (AuthorOrAdmin) HasPermission(c Caller, _ Action) bool {
	return c.IsAdmin()
}

func (AuthorOrAdmin) HasObjectPermission(c Caller, _ Action, obj any) bool {
	if c.IsAdmin() {
		return true
	}
	u, ok := obj.(*model.User)
	return ok && c.Authenticated && u.ID == c.ID
}

// IsAuthenticated 仅要求登录
type IsAuthenticated struct{}

func (IsAuthenticated) HasPermission(c Caller, _ Action) bool {
	return c.Authenticated
}

func (IsAuthenticated) HasObjectPermission(c Caller, _ Action, _ any) bool {
	return c.Authenticated
}
