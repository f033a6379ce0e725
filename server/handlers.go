package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"call-insights/apperror"
	"call-insights/dto"
	"call-insights/service"
)

// Handlers groups the HTTP handlers for dependency injection. Keep these
// thin: parse input, call the service, translate errors.
type Handlers struct {
	Calls   service.Service
	Reports service.ReportService
}

func (h Handlers) CreateCall(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	meta, err := parseCallCreate(c)
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, fmt.Errorf("%w: file part is required", apperror.ErrValidation))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("%w: could not open upload", apperror.ErrInternal))
		return
	}
	defer file.Close()

	result, err := h.Calls.CreateCall(c.Request.Context(), tenant, meta, fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.QueueErr != nil {
		zerolog.Ctx(c.Request.Context()).Warn().
			Err(result.QueueErr).
			Uint("call_record_id", result.Record.ID).
			Msg("failed to enqueue processing job, record stays pending until sweep")
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           result.Record.ID,
		"call_id":      result.Record.CallID,
		"is_processed": result.Record.IsProcessed,
	})
}

func (h Handlers) ListCalls(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	calls, err := h.Calls.ListCalls(c.Request.Context(), tenant, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, calls)
}

func (h Handlers) GetInsight(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	insight, err := h.Calls.GetInsight(c.Request.Context(), tenant, c.Param("call_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insight)
}

func (h Handlers) GetReport(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	report, err := h.Reports.ComputeReport(c.Request.Context(), tenant.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h Handlers) RegenReport(c *gin.Context) {
	tenant, ok := tenantFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	queueErr, err := h.Reports.RequestRegeneration(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, err)
		return
	}
	if queueErr != nil {
		zerolog.Ctx(c.Request.Context()).Error().
			Err(queueErr).
			Uint("tenant_id", tenant.ID).
			Msg("failed to enqueue report generation")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "report regeneration started"})
}

func parseCallCreate(c *gin.Context) (dto.CallCreate, error) {
	meta := dto.CallCreate{CallID: c.PostForm("call_id")}
	if meta.CallID == "" {
		return meta, fmt.Errorf("%w: call_id is required", apperror.ErrValidation)
	}

	if v := c.PostForm("caller"); v != "" {
		meta.Caller = &v
	}
	if v := c.PostForm("callee"); v != "" {
		meta.Callee = &v
	}
	if v := c.PostForm("start_time"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return meta, fmt.Errorf("%w: start_time must be ISO format", apperror.ErrValidation)
		}
		meta.StartTime = &t
	}
	if v := c.PostForm("end_time"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return meta, fmt.Errorf("%w: end_time must be ISO format", apperror.ErrValidation)
		}
		meta.EndTime = &t
	}
	if v := c.PostForm("duration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return meta, fmt.Errorf("%w: duration must be an integer", apperror.ErrValidation)
		}
		meta.Duration = &d
	}
	return meta, nil
}

func parseListFilter(c *gin.Context) (dto.ListFilter, error) {
	var filter dto.ListFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return filter, fmt.Errorf("%w: from_date must be ISO format", apperror.ErrValidation)
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return filter, fmt.Errorf("%w: to_date must be ISO format", apperror.ErrValidation)
		}
		filter.ToDate = &t
	}
	if v := c.Query("duration_gt"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("%w: duration_gt must be an integer", apperror.ErrValidation)
		}
		filter.DurationGT = &d
	}
	if v := c.Query("duration_lt"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("%w: duration_lt must be an integer", apperror.ErrValidation)
		}
		filter.DurationLT = &d
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("%w: limit must be an integer", apperror.ErrValidation)
		}
		filter.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("%w: offset must be an integer", apperror.ErrValidation)
		}
		filter.Offset = n
	}
	return filter, nil
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 timestamp: %q", value)
}

// respondError translates service errors to status codes once, at the
// boundary. Client messages stay generic; detail goes to the log. Not-ready
// and integrity failures both surface as 404 but are logged at different
// severities so they stay distinguishable.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, apperror.ErrValidation):
		zerolog.Ctx(ctx).Debug().Err(err).Msg("validation failure")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperror.ErrAuth):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, apperror.ErrForbidden):
		zerolog.Ctx(ctx).Warn().Err(err).Msg("forbidden")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, apperror.ErrNotReady):
		zerolog.Ctx(ctx).Info().Err(err).Msg("insight not ready")
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperror.ErrIntegrity):
		zerolog.Ctx(ctx).Error().Err(err).Msg("integrity violation")
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperror.ErrNotFound):
		zerolog.Ctx(ctx).Warn().Err(err).Msg("not found")
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("internal error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
