package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/habittrack/internal/service"
	"go.uber.org/zap"
)

// sessionAuthKey 是会话中的家长认证标记，口令修改后被清除。
const sessionAuthKey = "parent_auth"

// Login 校验家长口令，成功后在会话中设置认证标记。
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Password string `json:"password"`
	}

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "요청이 올바르지 않습니다.") {
			return
		}
	} else {
		payload.Password = c.PostForm("password")
	}

	ok, err := a.gate.Verify(payload.Password)
	if err != nil {
		a.logger.Error("verify password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "비밀번호 확인에 실패했습니다.")
		return
	}
	if !ok {
		respondError(c, http.StatusUnauthorized, "비밀번호가 틀렸습니다!")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionAuthKey, true)
	if err := session.Save(); err != nil {
		a.logger.Error("save session", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "세션 저장에 실패했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// Logout 清除会话中的认证标记。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.logger.Error("save session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// ChangePassword 修改家长口令，成功后强制重新认证。
func (a *API) ChangePassword(c *gin.Context) {
	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "요청이 올바르지 않습니다.") {
			return
		}
	} else {
		payload.CurrentPassword = c.PostForm("current_password")
		payload.NewPassword = c.PostForm("new_password")
		payload.ConfirmPassword = c.PostForm("confirm_password")
	}

	if err := a.gate.Change(payload.CurrentPassword, payload.NewPassword, payload.ConfirmPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrCurrentPasswordMismatch):
			respondError(c, http.StatusBadRequest, "현재 비밀번호가 일치하지 않습니다.")
		case errors.Is(err, service.ErrPasswordTooShort):
			respondError(c, http.StatusBadRequest, "비밀번호는 4자리 이상이어야 합니다.")
		case errors.Is(err, service.ErrPasswordConfirmMismatch):
			respondError(c, http.StatusBadRequest, "새 비밀번호가 일치하지 않습니다.")
		default:
			a.logger.Error("change password", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "비밀번호 변경에 실패했습니다.")
		}
		return
	}

	// 口令变更后清除认证标记，强制重新登录
	session := sessions.Default(c)
	session.Delete(sessionAuthKey)
	if err := session.Save(); err != nil {
		a.logger.Error("save session", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "비밀번호가 변경되었습니다. 다시 로그인해주세요."})
}

// AuthRequired 是家长管理接口的认证中间件。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		authenticated, _ := session.Get(sessionAuthKey).(bool)
		if !authenticated {
			respondError(c, http.StatusUnauthorized, "비밀번호 확인이 필요합니다.")
			c.Abort()
			return
		}
		c.Next()
	}
}
