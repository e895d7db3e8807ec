package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habittrack/internal/db"
	"go.uber.org/zap"
)

func setupTestRouter(t *testing.T) (*gin.Engine, db.KV) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := db.NewMemoryKV()
	api := NewAPI(kv, zap.NewNop())

	r := gin.New()
	r.Use(sessions.Sessions("habittrack_session", cookie.NewStore([]byte("test-secret"))))

	r.GET("/api/users", api.ListUsers)
	r.GET("/api/users/:id/habits", api.GetUserHabits)
	r.GET("/api/users/:id/score", api.GetUserScore)
	r.POST("/api/users/:id/habits/:habitId/complete", api.CompleteHabit)

	r.POST("/admin/login", api.Login)
	r.GET("/admin/logout", api.Logout)

	auth := r.Group("/admin", AuthRequired())
	auth.POST("/password", api.ChangePassword)
	auth.GET("/api/scores", api.GetScores)
	auth.POST("/api/users/:id/habits", api.CreateHabit)
	auth.PUT("/api/users/:id/habits/:habitId", api.UpdateHabit)
	auth.DELETE("/api/users/:id/habits/:habitId", api.DeleteHabit)
	auth.POST("/api/users/:id/reset", api.ResetScore)
	auth.GET("/api/export/csv", api.ExportCSV)
	auth.POST("/api/import/csv", api.ImportCSV)
	auth.GET("/api/export/json", api.ExportJSON)
	auth.POST("/api/import/json", api.ImportJSON)

	return r, kv
}

func doJSON(r *gin.Engine, method, path, body, sessionCookie string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if sessionCookie != "" {
		request.Header.Set("Cookie", sessionCookie)
	}

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, request)
	return recorder
}

// login 以默认口令登录并返回会话 Cookie。
func login(t *testing.T, r *gin.Engine, password string) string {
	t.Helper()

	recorder := doJSON(r, http.MethodPost, "/admin/login", `{"password":"`+password+`"}`, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", recorder.Code, recorder.Body.String())
	}

	setCookie := recorder.Header().Get("Set-Cookie")
	if setCookie == "" {
		t.Fatal("expected session cookie after login")
	}
	return setCookie
}
