package handler

import (
	"errors"
	"net/http"

	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionUserKey = "user_id"

type selectUserRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// currentUser 返回会话中选中的用户，未选择或用户已被清除时回退到默认用户
func (a *API) currentUser(c *gin.Context) (*db.User, error) {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionUserKey).(uint); ok {
		user, err := a.store.GetUser(id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, service.ErrUserNotFound) {
			return nil, err
		}
		session.Delete(sessionUserKey)
		if err := session.Save(); err != nil {
			a.logger.Warn("failed to reset session user", zap.Error(err))
		}
	}
	return a.store.DefaultUser()
}

// requireUser 解析当前用户，失败时直接写入错误响应
func (a *API) requireUser(c *gin.Context) (*db.User, bool) {
	user, err := a.currentUser(c)
	if err != nil {
		a.logger.Error("resolve current user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to resolve user")
		return nil, false
	}
	return user, true
}

// SelectUser 按邮箱选择（必要时创建）当前用户并写入会话
func (a *API) SelectUser(c *gin.Context) {
	var req selectUserRequest
	if !bindJSON(c, &req, "a valid email is required") {
		return
	}

	user, err := a.store.FindOrCreateUser(req.Email)
	if err != nil {
		if errors.Is(err, db.ErrEmailRequired) {
			respondError(c, http.StatusBadRequest, "a valid email is required")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to select user")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

// GetSessionUser 返回当前用户
func (a *API) GetSessionUser(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

func userView(user *db.User) gin.H {
	return gin.H{"id": user.ID, "email": user.Email}
}
