package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcare/backend/internal/domain/billing"
)

// RevenueReporter computes revenue reports.
type RevenueReporter interface {
	Compute(ctx context.Context, filter billing.RevenueFilter) (*billing.RevenueReport, error)
}

// RevenueHandler serves revenue reports to platform admins.
type RevenueHandler struct {
	BaseHandler
	reports RevenueReporter
}

// NewRevenueHandler creates a new RevenueHandler
func NewRevenueHandler(reports RevenueReporter) *RevenueHandler {
	return &RevenueHandler{reports: reports}
}

// RevenueReportRequest selects an inclusive day range and optional
// narrowing. Empty or ALL means no narrowing.
type RevenueReportRequest struct {
	DateFrom       string `json:"dateFrom" binding:"required,datetime=2006-01-02" example:"2026-01-01"`
	DateTo         string `json:"dateTo" binding:"required,datetime=2006-01-02" example:"2026-01-31"`
	Plan           string `json:"plan" binding:"omitempty,plancode|all" example:"ALL"`
	Status         string `json:"status" binding:"omitempty,substatus|all" example:"ACTIVE"`
	SubscriberType string `json:"type" binding:"omitempty,subscribertype|all" example:"HOSPITAL"`
}

func narrowed(v string) bool {
	return v != "" && !strings.EqualFold(strings.TrimSpace(v), "ALL")
}

// filter converts a validated request.
func (r RevenueReportRequest) filter() (billing.RevenueFilter, error) {
	from, _ := time.Parse(time.DateOnly, r.DateFrom)
	to, _ := time.Parse(time.DateOnly, r.DateTo)
	f, err := billing.NewRevenueFilter(from, to)
	if err != nil {
		return f, err
	}
	if narrowed(r.Plan) {
		code, err := billing.ParsePlanCode(r.Plan)
		if err != nil {
			return f, err
		}
		f.Plan = &code
	}
	if narrowed(r.Status) {
		st, err := billing.ParseSubscriptionStatus(r.Status)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if narrowed(r.SubscriberType) {
		typ, err := billing.ParseSubscriberType(r.SubscriberType)
		if err != nil {
			return f, err
		}
		f.SubscriberType = &typ
	}
	return f, nil
}

// ComputeRevenue godoc
// @ID           computeRevenue
// @Summary      Compute a revenue report
// @Description  Payment totals and daily series per currency, subscription counts, MRR and ARR
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        request body RevenueReportRequest true "Filter"
// @Success      200 {object} APIResponse[billing.RevenueReport]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/revenue [post]
func (h *RevenueHandler) ComputeRevenue(c *gin.Context) {
	var req RevenueReportRequest
	if !h.bindJSON(c, &req) {
		return
	}
	filter, err := req.filter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	report, err := h.reports.Compute(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
