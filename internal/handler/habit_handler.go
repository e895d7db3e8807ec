package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/habittrack/internal/service"
	"go.uber.org/zap"
)

type habitPayload struct {
	Title  string `json:"title"`
	Points int    `json:"points"`
	Icon   string `json:"icon"`
}

// ListUsers 返回固定的用户集合。
func (a *API) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": service.Users})
}

// GetUserHabits 返回用户的习惯列表与当前总分。
func (a *API) GetUserHabits(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	habits, err := a.habits.GetHabits(user.ID)
	if err != nil {
		a.logger.Error("load habits", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "습관 목록을 불러오지 못했습니다.")
		return
	}

	score := 0
	for _, habit := range habits {
		score += habit.Points * habit.Count
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "habits": items, "score": score})
}

// GetUserScore 返回用户总分。
func (a *API) GetUserScore(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	score, err := a.habits.GetTotalScore(user.ID)
	if err != nil {
		a.logger.Error("compute score", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "점수를 불러오지 못했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "score": score})
}

// CompleteHabit 记录一次习惯完成并返回最新总分。
func (a *API) CompleteHabit(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	if err := a.habits.CompleteHabit(user.ID, c.Param("habitId")); err != nil {
		a.logger.Error("complete habit", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "완료 기록에 실패했습니다.")
		return
	}

	score, err := a.habits.GetTotalScore(user.ID)
	if err != nil {
		a.logger.Error("compute score", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "점수를 불러오지 못했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"score": score})
}

// GetScores 返回所有用户的总分，用于家长面板。
func (a *API) GetScores(c *gin.Context) {
	scores := make([]gin.H, 0, len(service.Users))
	for _, user := range service.Users {
		score, err := a.habits.GetTotalScore(user.ID)
		if err != nil {
			a.logger.Error("compute score", zap.String("user", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "점수를 불러오지 못했습니다.")
			return
		}
		scores = append(scores, gin.H{"id": user.ID, "name": user.Name, "score": score})
	}

	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

// CreateHabit 为用户新增习惯。
func (a *API) CreateHabit(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	input, ok := a.parseHabitPayload(c)
	if !ok {
		return
	}

	habit, err := a.habits.SaveHabit(user.ID, input)
	if err != nil {
		a.logger.Error("save habit", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "습관 저장에 실패했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "습관이 추가되었습니다!", "habit": habitToPayload(habit)})
}

// UpdateHabit 修改用户的既有习惯，完成次数保持不变。
func (a *API) UpdateHabit(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	input, ok := a.parseHabitPayload(c)
	if !ok {
		return
	}
	input.ID = c.Param("habitId")

	habit, err := a.habits.SaveHabit(user.ID, input)
	if err != nil {
		a.logger.Error("save habit", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "습관 저장에 실패했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "습관이 수정되었습니다!", "habit": habitToPayload(habit)})
}

// DeleteHabit 删除用户的指定习惯。
func (a *API) DeleteHabit(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	if err := a.habits.DeleteHabit(user.ID, c.Param("habitId")); err != nil {
		a.logger.Error("delete habit", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "습관 삭제에 실패했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ResetScore 将用户的所有完成次数归零。
func (a *API) ResetScore(c *gin.Context) {
	user, ok := a.resolveUser(c)
	if !ok {
		return
	}

	if err := a.habits.ResetUserScore(user.ID); err != nil {
		a.logger.Error("reset score", zap.String("user", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "점수 초기화에 실패했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": true, "score": 0})
}

// resolveUser 将路径参数解析为已知用户，未知用户返回 404。
func (a *API) resolveUser(c *gin.Context) (service.User, bool) {
	user, ok := service.FindUser(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "잘못된 접근입니다.")
		return service.User{}, false
	}
	return user, true
}

// parseHabitPayload 解析习惯表单，习惯名为必填项。
func (a *API) parseHabitPayload(c *gin.Context) (service.HabitInput, bool) {
	var payload habitPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "요청이 올바르지 않습니다.") {
			return service.HabitInput{}, false
		}
	} else {
		payload.Title = c.PostForm("title")
		payload.Icon = c.PostForm("icon")

		if pointsStr := c.PostForm("points"); pointsStr != "" {
			if val, err := strconv.Atoi(pointsStr); err == nil {
				payload.Points = val
			} else {
				respondError(c, http.StatusBadRequest, "포인트는 숫자여야 합니다.")
				return service.HabitInput{}, false
			}
		}
	}

	if strings.TrimSpace(payload.Title) == "" {
		respondError(c, http.StatusBadRequest, "습관 이름을 입력해주세요!")
		return service.HabitInput{}, false
	}

	if payload.Icon == "" {
		payload.Icon = service.DefaultIcon
	}

	return service.HabitInput{
		Title:  payload.Title,
		Points: payload.Points,
		Icon:   payload.Icon,
	}, true
}

func habitToPayload(habit service.Habit) gin.H {
	return gin.H{
		"id":     habit.ID,
		"title":  habit.Title,
		"desc":   habit.Desc,
		"points": habit.Points,
		"icon":   habit.Icon,
		"count":  habit.Count,
	}
}
