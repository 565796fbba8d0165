package handler

import (
	"context"
	"net/http"
	"strconv"

	"subgreddiit/internal/service"

	"github.com/gin-gonic/gin"
)

type JoinRequestHandler struct {
	svc *service.JoinRequestService
}

func NewJoinRequestHandler(svc *service.JoinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{svc: svc}
}

// Submit 提交入社申请
func (h *JoinRequestHandler) Submit(c *gin.Context) {
	userID := currentUserID(c)

	communityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || communityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	req, err := h.svc.Submit(c.Request.Context(), communityID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         req.ID,
		"expires_at": req.ExpiresAt,
	})
}

// ListPending 待处理申请，过期的带 expired 标记
func (h *JoinRequestHandler) ListPending(c *gin.Context) {
	userID := currentUserID(c)

	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	list, err := h.svc.ListPending(c.Request.Context(), communityID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *JoinRequestHandler) Accept(c *gin.Context) {
	h.resolve(c, h.svc.Accept)
}

func (h *JoinRequestHandler) Reject(c *gin.Context) {
	h.resolve(c, h.svc.Reject)
}

func (h *JoinRequestHandler) resolve(c *gin.Context, fn func(ctx context.Context, communityID, requestID, moderatorID uint64) error) {
	userID := currentUserID(c)

	communityID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	requestID, _ := strconv.ParseUint(c.Param("reqID"), 10, 64)

	if err := fn(c.Request.Context(), communityID, requestID, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}
