package handler

import (
	"net/http"
	"testing"
)

func TestLoginRejectsWrongPassword(t *testing.T) {
	r, _ := setupTestRouter(t)

	recorder := doJSON(r, http.MethodPost, "/admin/login", `{"password":"0000"}`, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
}

func TestLoginGrantsAdminAccess(t *testing.T) {
	r, _ := setupTestRouter(t)
	cookie := login(t, r, "1234")

	recorder := doJSON(r, http.MethodGet, "/admin/api/scores", "", cookie)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 with session, got %d", recorder.Code)
	}
}

func TestChangePasswordValidation(t *testing.T) {
	r, _ := setupTestRouter(t)
	cookie := login(t, r, "1234")

	// 长度为 3 的新口令被拒绝
	recorder := doJSON(r, http.MethodPost, "/admin/password",
		`{"current_password":"1234","new_password":"123","confirm_password":"123"}`, cookie)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for short password, got %d", recorder.Code)
	}

	recorder = doJSON(r, http.MethodPost, "/admin/password",
		`{"current_password":"0000","new_password":"5678","confirm_password":"5678"}`, cookie)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for wrong current password, got %d", recorder.Code)
	}

	recorder = doJSON(r, http.MethodPost, "/admin/password",
		`{"current_password":"1234","new_password":"5678","confirm_password":"8765"}`, cookie)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for confirm mismatch, got %d", recorder.Code)
	}

	// 凭据未被改动，原口令仍可登录
	login(t, r, "1234")
}

func TestChangePasswordForcesReauth(t *testing.T) {
	r, _ := setupTestRouter(t)
	cookie := login(t, r, "1234")

	recorder := doJSON(r, http.MethodPost, "/admin/password",
		`{"current_password":"1234","new_password":"5678","confirm_password":"5678"}`, cookie)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	// 修改成功后旧会话的认证标记被清除
	updatedCookie := recorder.Header().Get("Set-Cookie")
	if updatedCookie == "" {
		updatedCookie = cookie
	}
	recorder = doJSON(r, http.MethodGet, "/admin/api/scores", "", updatedCookie)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 after password change, got %d", recorder.Code)
	}

	// 旧口令失效，新口令生效
	recorder = doJSON(r, http.MethodPost, "/admin/login", `{"password":"1234"}`, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected old password rejected, got %d", recorder.Code)
	}
	login(t, r, "5678")
}

func TestLogoutClearsSession(t *testing.T) {
	r, _ := setupTestRouter(t)
	cookie := login(t, r, "1234")

	recorder := doJSON(r, http.MethodGet, "/admin/logout", "", cookie)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	clearedCookie := recorder.Header().Get("Set-Cookie")
	if clearedCookie == "" {
		clearedCookie = cookie
	}
	recorder = doJSON(r, http.MethodGet, "/admin/api/scores", "", clearedCookie)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 after logout, got %d", recorder.Code)
	}
}
