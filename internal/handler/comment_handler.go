package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/service"
)

type commentPayload struct {
	Content  string `json:"content" binding:"required,max=1000"`
	ParentID *uint  `json:"parentId"`
}

type commentEditPayload struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type commentReportPayload struct {
	Reason string `json:"reason"`
}

type commentStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

func (a *API) respondCommentError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		respondError(c, http.StatusNotFound, "Comment not found")
	case errors.Is(err, service.ErrArticleNotFound):
		respondError(c, http.StatusNotFound, "Article not found")
	case errors.Is(err, service.ErrCommentsClosed):
		respondError(c, http.StatusBadRequest, "Comments are disabled for this article")
	case errors.Is(err, service.ErrEmptyComment):
		respondError(c, http.StatusBadRequest, "Comment content is required")
	default:
		a.log.Error().Err(err).Msg(action)
		respondError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}

// CreateComment 发表评论或回复
func (a *API) CreateComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	articleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload commentPayload
	if !bindJSON(c, &payload) {
		return
	}

	comment, err := a.comments.Create(articleID, user.ID, payload.ParentID, payload.Content)
	if err != nil {
		a.respondCommentError(c, err, "create comment")
		return
	}
	respondData(c, http.StatusCreated, comment)
}

// EditComment 编辑自己的评论；管理员走删除而不是代改。
func (a *API) EditComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload commentEditPayload
	if !bindJSON(c, &payload) {
		return
	}

	comment, err := a.comments.Edit(id, user.ID, payload.Content)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCommentEdit) {
			respondError(c, http.StatusForbidden, "Access denied. You can only access your own resources.")
			return
		}
		a.respondCommentError(c, err, "edit comment")
		return
	}
	respondData(c, http.StatusOK, comment)
}

// DeleteOwnComment allows the comment owner or an admin to remove a comment.
func (a *API) DeleteOwnComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := a.comments.Get(id)
	if err != nil {
		a.respondCommentError(c, err, "delete comment")
		return
	}
	if !requireOwnershipOrAdmin(c, comment.UserID) {
		return
	}

	if err := a.comments.Delete(id); err != nil {
		a.respondCommentError(c, err, "delete comment")
		return
	}
	respondMessage(c, http.StatusOK, "Comment deleted")
}

// LikeComment 点赞，重复点赞为幂等。
func (a *API) LikeComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.comments.Like(id, user.ID); err != nil {
		a.respondCommentError(c, err, "like comment")
		return
	}
	count, err := a.comments.LikeCount(id)
	if err != nil {
		a.respondCommentError(c, err, "like comment")
		return
	}
	respondData(c, http.StatusOK, gin.H{"likeCount": count})
}

// UnlikeComment 取消点赞
func (a *API) UnlikeComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.comments.Unlike(id, user.ID); err != nil {
		a.respondCommentError(c, err, "unlike comment")
		return
	}
	count, err := a.comments.LikeCount(id)
	if err != nil {
		a.respondCommentError(c, err, "unlike comment")
		return
	}
	respondData(c, http.StatusOK, gin.H{"likeCount": count})
}

// ReportComment 举报评论，每人一次。
func (a *API) ReportComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload commentReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		payload.Reason = ""
	}

	if err := a.comments.Report(id, user.ID, payload.Reason); err != nil {
		a.respondCommentError(c, err, "report comment")
		return
	}
	respondMessage(c, http.StatusOK, "Comment reported")
}

// AdminListComments 后台评论列表，可按状态过滤。
func (a *API) AdminListComments(c *gin.Context) {
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)
	limit := parsePositiveInt(c.DefaultQuery("limit", "20"), 20)

	result, err := a.comments.ListAdmin(service.CommentFilter{
		Status:  strings.TrimSpace(c.Query("status")),
		Page:    page,
		PerPage: limit,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("admin list comments")
		respondError(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"comments":   result.Comments,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}

// AdminUpdateComment 调整评论的审核状态。
func (a *API) AdminUpdateComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload commentStatusPayload
	if !bindJSON(c, &payload) {
		return
	}

	comment, err := a.comments.SetStatus(id, payload.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			respondError(c, http.StatusBadRequest, "Invalid comment status")
			return
		}
		a.respondCommentError(c, err, "update comment")
		return
	}
	respondData(c, http.StatusOK, comment)
}

// AdminDeleteComment 删除评论及其回复。
func (a *API) AdminDeleteComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.comments.Delete(id); err != nil {
		a.respondCommentError(c, err, "delete comment")
		return
	}
	respondMessage(c, http.StatusOK, "Comment deleted")
}
