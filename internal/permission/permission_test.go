package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/yamdb/internal/model"
)

var (
	anon      = Anonymous
	user      = Caller{ID: 1, Username: "u", Role: model.RoleUser, Authenticated: true}
	other     = Caller{ID: 2, Username: "o", Role: model.RoleUser, Authenticated: true}
	moderator = Caller{ID: 3, Username: "m", Role: model.RoleModerator, Authenticated: true}
	admin     = Caller{ID: 4, Username: "a", Role: model.RoleAdmin, Authenticated: true}
	superuser = Caller{ID: 5, Username: "s", Role: model.RoleUser, IsSuperuser: true, Authenticated: true}
)

func TestIsAdminOrReadOnly(t *testing.T) {
	p := IsAdminOrReadOnly{}
	tests := []struct {
		name   string
		caller Caller
		action Action
		want   error
	}{
		{"anon list", anon, List, nil},
		{"anon retrieve", anon, Retrieve, nil},
		{"anon create", anon, Create, ErrNotAuthenticated},
		{"user create", user, Create, ErrPermissionDenied},
		{"moderator delete", moderator, Delete, ErrPermissionDenied},
		{"admin update", admin, Update, nil},
		{"superuser delete", superuser, Delete, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(p, tt.caller, tt.action, nil))
		})
	}
}

func TestIsOwnerOrModeratorOrReadOnly(t *testing.T) {
	p := IsOwnerOrModeratorOrReadOnly{}
	review := &model.Review{ID: 1, AuthorID: user.ID}

	tests := []struct {
		name   string
		caller Caller
		action Action
		obj    any
		want   error
	}{
		{"anon read object", anon, Retrieve, review, nil},
		{"anon create", anon, Create, nil, ErrNotAuthenticated},
		{"user create", other, Create, nil, nil},
		{"author update", user, Update, review, nil},
		{"author delete", user, Delete, review, nil},
		{"stranger update", other, Update, review, ErrPermissionDenied},
		{"moderator delete", moderator, Delete, review, nil},
		{"admin update", admin, Update, review, nil},
		{"anon delete", anon, Delete, review, ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(p, tt.caller, tt.action, tt.obj))
		})
	}
}

func TestAuthorOrAdmin(t *testing.T) {
	p := AuthorOrAdmin{}
	self := &model.User{ID: user.ID}

	assert.ErrorIs(t, Authorize(p, anon, List, nil), ErrNotAuthenticated)
	assert.ErrorIs(t, Authorize(p, user, List, nil), ErrPermissionDenied)
	assert.ErrorIs(t, Authorize(p, user, Retrieve, self), ErrPermissionDenied)
	assert.NoError(t, Authorize(p, admin, Create, nil))
	assert.NoError(t, Authorize(p, superuser, Delete, self))

	assert.True(t, p.HasObjectPermission(user, Update, self))
	assert.False(t, p.HasObjectPermission(other, Update, self))
}

func TestIsAuthenticated(t *testing.T) {
	p := IsAuthenticated{}
	assert.ErrorIs(t, Authorize(p, anon, Retrieve, nil), ErrNotAuthenticated)
	assert.NoError(t, Authorize(p, user, Update, &model.User{ID: user.ID}))
}

func TestCallerFromUser(t *testing.T) {
	assert.Equal(t, Anonymous, CallerFromUser(nil))

	c := CallerFromUser(&model.User{ID: 9, Username: "x", Role: model.RoleAdmin})
	assert.True(t, c.Authenticated)
	assert.True(t, c.IsAdmin())
	assert.False(t, c.IsModerator())
}
