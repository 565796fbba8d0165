package handler

import (
	"net/http"
	"strconv"
	"time"

	"subgreddiit/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.PostService
}

type CreatePostReq struct {
	CommunityID uint64 `json:"community_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// Create 创建帖子接口
func (h *PostHandler) Create(c *gin.Context) {
	userID := currentUserID(c)

	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	post, err := h.svc.Create(c.Request.Context(), userID, req.CommunityID, req.Title, req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": post.ID})
}

// ListByCommunity 获取帖子列表接口（优先游标分页，兼容页码）
func (h *PostHandler) ListByCommunity(c *gin.Context) {
	communityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || communityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	lastIDStr := c.Query("last_id")
	lastTSStr := c.Query("last_created_at")

	// 带了游标就走游标分页
	if lastIDStr != "" || lastTSStr != "" {
		var lastID uint64
		var lastTS int64
		if lastIDStr != "" {
			if v, e := strconv.ParseUint(lastIDStr, 10, 64); e == nil {
				lastID = v
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid last_id"})
				return
			}
		}
		if lastTSStr != "" {
			if v, e := strconv.ParseInt(lastTSStr, 10, 64); e == nil {
				lastTS = v
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid last_created_at"})
				return
			}
		}

		size, _ := strconv.Atoi(c.Query("size"))

		list, nextID, nextTS, err := h.svc.ListByCommunityCursor(c.Request.Context(), communityID, lastID, lastTS, size)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"list":              list,
			"next_last_id":      nextID,
			"next_created_at":   nextTS,
			"next_created_at_s": time.Unix(nextTS, 0).UTC().Format(time.RFC3339),
		})
		return
	}

	// 兼容页码查询（深页不推荐）
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.ListByCommunity(c.Request.Context(), communityID, page, size)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list": list,
		"page": page,
		"size": size,
	})
}

// Delete 删除帖子接口
func (h *PostHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)

	postID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.svc.Delete(c.Request.Context(), userID, postID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}
