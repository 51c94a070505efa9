package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/packlane/packlane/internal/pkg/response"
	"github.com/packlane/packlane/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
	clones *service.CloneService
}

func NewShareHandler(shares *service.ShareService, clones *service.CloneService) *ShareHandler {
	return &ShareHandler{shares: shares, clones: clones}
}

// Create ensures an active share token for the caller's list, minting one
// when the list is not currently shared.
func (h *ShareHandler) Create(c *gin.Context) {
	token, err := h.shares.EnsureActiveShare(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token.Token})
}

func (h *ShareHandler) GetActive(c *gin.Context) {
	token, err := h.shares.GetActiveShare(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if token == nil {
		response.Success(c, gin.H{"share": nil})
		return
	}
	response.Success(c, gin.H{"share": token})
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	if err := h.shares.RevokeShare(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.NoContent(c)
}

// PublicGet serves the read-only snapshot for an active token.
func (h *ShareHandler) PublicGet(c *gin.Context) {
	snapshot, err := h.shares.GetPublicSnapshot(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snapshot)
}

func (h *ShareHandler) PublicCSV(c *gin.Context) {
	data, filename, err := h.shares.BuildPublicCSV(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "text/csv; charset=utf-8", data)
}

// PublicCopy clones the shared list into the acting user's account.
// Returns 201 with the new list id, or 200 with the existing id when the
// request was a duplicate caught by the dedupe window.
func (h *ShareHandler) PublicCopy(c *gin.Context) {
	result, err := h.clones.CopyListForUser(c.Request.Context(), c.Param("token"), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}
