package ez

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"crm-pipeline/internal/domain"
)

func record(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	WriteError(c, err)
	return w
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.Invalid("title", "required"), http.StatusBadRequest},
		{"referential", domain.Referential("stage %s does not exist", "x"), http.StatusConflict},
		{"forbidden", domain.Forbidden("requires role MANAGER"), http.StatusForbidden},
		{"not found", domain.NotFound("opportunity", "x"), http.StatusNotFound},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"action error", BadRequest("malformed"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := record(c.err).Code; got != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestPrincipalFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("userId", "u1")
	c.Set("username", "alice")
	c.Set("role", domain.RoleRep)

	p := Principal(c)
	if p.ID != "u1" || p.Username != "alice" || p.Role != domain.RoleRep {
		t.Errorf("principal = %+v", p)
	}
}
