package admin

import (
	"strings"

	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 获取审计日志列表
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := shared.QueryPagination(c)

	actorID, err := shared.ParseUintQuery(c, "actor_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	subjectID, err := shared.ParseUintQuery(c, "subject_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	createdFrom, err := shared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := shared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}

	items, total, err := h.AuditService.List(shared.RequestContext(c), repository.AuditLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		ActorID:     actorID,
		SubjectID:   subjectID,
		Action:      strings.TrimSpace(c.Query("action")),
		MetricName:  strings.ToLower(strings.TrimSpace(c.Query("metric_name"))),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}
