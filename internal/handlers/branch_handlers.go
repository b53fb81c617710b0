package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// branchLister is implemented by the ERP client for remote branch lookup.
type branchLister interface {
	ListBranches(ctx context.Context) ([]string, error)
}

type BranchHandler struct {
	// static branch labels from configuration; the fallback when no
	// remote source is wired or the remote lookup fails
	branches []string
	remote   branchLister
	logger   *logrus.Entry
}

func NewBranchHandler(branches []string, remote branchLister, logger *logrus.Logger) *BranchHandler {
	return &BranchHandler{
		branches: branches,
		remote:   remote,
		logger:   logger.WithField("component", "handlers.branch"),
	}
}

// GetBranches returns the branch labels offered in the issuance form
// @Summary List branches
// @Tags branches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /branches [get]
// @Security BearerAuth
func (h *BranchHandler) GetBranches(c *gin.Context) {
	if h.remote != nil {
		branches, err := h.remote.ListBranches(c.Request.Context())
		if err == nil && len(branches) > 0 {
			c.JSON(http.StatusOK, gin.H{"branches": branches})
			return
		}
		if err != nil {
			h.logger.WithError(err).Warn("Remote branch lookup failed, using configured list")
		}
	}
	c.JSON(http.StatusOK, gin.H{"branches": h.branches})
}
