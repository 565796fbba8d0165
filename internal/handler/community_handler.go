package handler

import (
	"net/http"
	"strconv"

	"subgreddiit/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc      *service.CommunityService
	statsSvc *service.StatsService
}

type CommunityCreateReq struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Image          string `json:"image"`
	BannedKeywords string `json:"banned_keywords"`
	Tags           string `json:"tags"`
	IsPublic       *bool  `json:"is_public"`
}

func NewCommunityHandler(svc *service.CommunityService, statsSvc *service.StatsService) *CommunityHandler {
	return &CommunityHandler{svc: svc, statsSvc: statsSvc}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	userID := currentUserID(c)

	var req CommunityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	community, err := h.svc.Create(c.Request.Context(), userID, service.CreateCommunityInput{
		Name:           req.Name,
		Description:    req.Description,
		Image:          req.Image,
		BannedKeywords: req.BannedKeywords,
		Tags:           req.Tags,
		IsPublic:       isPublic,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          community.ID,
		"name":        community.Name,
		"description": community.Description,
		"is_public":   community.IsPublic,
	})
}

// Get 社区详情，带访问记录
func (h *CommunityHandler) Get(c *gin.Context) {
	userID := currentUserID(c)

	communityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || communityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	community, err := h.svc.Get(c.Request.Context(), communityID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// List 公开社区检索：?q=名称前缀 ?tag=标签
func (h *CommunityHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.Search(c.Request.Context(), c.Query("q"), c.Query("tag"), page, size)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// ListMine 我创建的社区
func (h *CommunityHandler) ListMine(c *gin.Context) {
	userID := currentUserID(c)

	list, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	userID := currentUserID(c)

	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.svc.Leave(c.Request.Context(), communityID, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Users 成员/拉黑分栏列表
func (h *CommunityHandler) Users(c *gin.Context) {
	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	users, err := h.svc.Users(c.Request.Context(), communityID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Stats 四条时间序列统计
func (h *CommunityHandler) Stats(c *gin.Context) {
	userID := currentUserID(c)

	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	stats, err := h.statsSvc.GetCommunityStats(c.Request.Context(), communityID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
