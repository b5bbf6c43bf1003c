package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	noticeDto "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/dto"
	notice "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/service"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/Dnl30T/Avisos-FOA/pkg/response"
	"github.com/Dnl30T/Avisos-FOA/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Sweeper runs one expiry pass on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (*notice.SweepResult, error)
}

type NoticeHandler struct {
	service notice.Service
	sweeper Sweeper
	now     func() time.Time
}

func NewNoticeHandler(service notice.Service, sweeper Sweeper) *NoticeHandler {
	return &NoticeHandler{
		service: service,
		sweeper: sweeper,
		now:     time.Now,
	}
}

// GetFeed serves the student feed: active notices, filtered, in priority order.
func (h *NoticeHandler) GetFeed(c *gin.Context) {
	var query noticeDto.NoticeFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.ToAppError(err))
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	notices, err := h.service.FetchActive(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	feed := notice.SortByPriority(notices)
	c.JSON(http.StatusOK, noticeDto.NoticeListResponse{
		Data: noticeDto.NewNoticeResponses(feed, h.now()),
		Meta: noticeDto.ListMeta{TotalItems: len(feed)},
	})
}

func (h *NoticeHandler) GetHistory(c *gin.Context) {
	notices, err := h.service.History(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, noticeDto.NoticeListResponse{
		Data: noticeDto.NewNoticeResponses(notices, h.now()),
		Meta: noticeDto.ListMeta{TotalItems: len(notices)},
	})
}

func (h *NoticeHandler) GetSubjects(c *gin.Context) {
	subjects, err := h.service.DistinctSubjects(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, noticeDto.SubjectsResponse{Data: subjects})
}

func (h *NoticeHandler) Search(c *gin.Context) {
	var query noticeDto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.ToAppError(err))
		return
	}

	notices, err := h.service.Search(c.Request.Context(), query.Q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, noticeDto.NoticeListResponse{
		Data: noticeDto.NewNoticeResponses(notices, h.now()),
		Meta: noticeDto.ListMeta{TotalItems: len(notices)},
	})
}

func (h *NoticeHandler) GetNotice(c *gin.Context) {
	id, ok := parseNoticeID(c)
	if !ok {
		return
	}

	n, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": noticeDto.NewNoticeResponse(n, h.now())})
}

// GetAllGrouped serves the admin console tabs.
func (h *NoticeHandler) GetAllGrouped(c *gin.Context) {
	grouped, err := h.service.FetchAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	now := h.now()
	c.JSON(http.StatusOK, noticeDto.GroupedNoticesResponse{
		Active:  noticeDto.NewNoticeResponses(notice.SortByPriority(grouped.Active), now),
		Hidden:  noticeDto.NewNoticeResponses(grouped.Hidden, now),
		Expired: noticeDto.NewNoticeResponses(grouped.Expired, now),
		Counts: noticeDto.StatusCounts{
			Active:  len(grouped.Active),
			Hidden:  len(grouped.Hidden),
			Expired: len(grouped.Expired),
		},
	})
}

func (h *NoticeHandler) CreateNotice(c *gin.Context) {
	var req noticeDto.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.ToAppError(err))
		return
	}

	id, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, noticeDto.CreateNoticeResponse{
		ID:      id,
		Message: "notice created successfully",
	})
}

func (h *NoticeHandler) UpdateNotice(c *gin.Context) {
	id, ok := parseNoticeID(c)
	if !ok {
		return
	}

	var req noticeDto.UpdateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.ToAppError(err))
		return
	}

	if err := h.service.Update(c.Request.Context(), id, req); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notice updated successfully"})
}

func (h *NoticeHandler) HideNotice(c *gin.Context) {
	h.transition(c, entity.StatusHidden, "notice hidden successfully")
}

func (h *NoticeHandler) RestoreNotice(c *gin.Context) {
	h.transition(c, entity.StatusActive, "notice restored successfully")
}

func (h *NoticeHandler) Sweep(c *gin.Context) {
	if h.sweeper == nil {
		response.ResponseError(c, fmt.Errorf("sweeper not configured: %w", apperror.ErrInternal))
		return
	}

	res, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, noticeDto.SweepResponse{
		Checked: res.Checked,
		Expired: res.Expired,
		Failed:  res.Failed,
	})
}

func (h *NoticeHandler) transition(c *gin.Context, status entity.NoticeStatus, message string) {
	id, ok := parseNoticeID(c)
	if !ok {
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), id, status); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func parseNoticeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notice id"})
		return uuid.Nil, false
	}
	return id, true
}
