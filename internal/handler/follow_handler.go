package handler

import (
	"net/http"
	"strconv"

	"subgreddiit/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc *service.FollowService
}

type FollowReq struct {
	FolloweeID uint64 `json:"followee_id"`
	Action     string `json:"action"` // follow / unfollow
}

func NewFollowHandler(svc *service.FollowService) *FollowHandler {
	return &FollowHandler{svc: svc}
}

// Follow 关注/取关接口
func (h *FollowHandler) Follow(c *gin.Context) {
	userID := currentUserID(c)

	var req FollowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	var changed bool
	var err error
	switch req.Action {
	case "follow":
		changed, err = h.svc.Follow(c.Request.Context(), userID, req.FolloweeID)
	case "unfollow":
		changed, err = h.svc.Unfollow(c.Request.Context(), userID, req.FolloweeID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid action"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *FollowHandler) ListFollowings(c *gin.Context) {
	userID := currentUserID(c)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, next, err := h.svc.ListFollowings(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "next_cursor": next})
}

func (h *FollowHandler) ListFollowers(c *gin.Context) {
	userID := currentUserID(c)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, next, err := h.svc.ListFollowers(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "next_cursor": next})
}

// Relation 查询是否已关注
func (h *FollowHandler) Relation(c *gin.Context) {
	userID := currentUserID(c)
	followeeID, _ := strconv.ParseUint(c.Query("followee_id"), 10, 64)

	following, err := h.svc.IsFollowing(c.Request.Context(), userID, followeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}
