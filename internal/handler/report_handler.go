package handler

import (
	"context"
	"net/http"
	"strconv"

	"subgreddiit/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc *service.ReportService
}

type CreateReportReq struct {
	PostID uint64 `json:"post_id"`
	Reason string `json:"reason"`
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Create 举报帖子
func (h *ReportHandler) Create(c *gin.Context) {
	userID := currentUserID(c)

	communityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || communityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	var req CreateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	report, err := h.svc.Create(c.Request.Context(), communityID, req.PostID, userID, req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": report.ID})
}

// List 举报列表，带遮蔽和超期标记
func (h *ReportHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	list, err := h.svc.List(c.Request.Context(), communityID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *ReportHandler) Ignore(c *gin.Context) {
	h.act(c, h.svc.Ignore)
}

func (h *ReportHandler) BlockUser(c *gin.Context) {
	h.act(c, h.svc.BlockUser)
}

func (h *ReportHandler) DeletePost(c *gin.Context) {
	h.act(c, h.svc.DeletePost)
}

func (h *ReportHandler) act(c *gin.Context, fn func(ctx context.Context, communityID, reportID, moderatorID uint64) error) {
	userID := currentUserID(c)

	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	reportID, _ := strconv.ParseUint(c.Param("reportID"), 10, 64)

	if err := fn(c.Request.Context(), communityID, reportID, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}
