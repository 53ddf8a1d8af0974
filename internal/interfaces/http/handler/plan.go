package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/medcare/backend/internal/application/billing"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// PlanCatalog is the admin side of the plan catalog.
type PlanCatalog interface {
	ListWithUsage(ctx context.Context) ([]appbilling.PlanWithUsage, error)
	Save(ctx context.Context, input appbilling.SavePlanInput) (*billing.PlanConfig, error)
	Bootstrap(ctx context.Context) (*appbilling.BootstrapResult, error)
}

// PlanHandler serves the platform-admin plan catalog.
type PlanHandler struct {
	BaseHandler
	catalog PlanCatalog
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(catalog PlanCatalog) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

// PlanPriceResponse is one price of a plan.
type PlanPriceResponse struct {
	SubscriberType string          `json:"subscriberType" example:"DOCTOR"`
	Interval       string          `json:"interval" example:"MONTH"`
	Currency       string          `json:"currency" example:"USD"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"49.00"`
	IsActive       bool            `json:"isActive"`
}

// PlanResponse is a plan configuration.
// @name HandlerPlanResponse
type PlanResponse struct {
	ID          string              `json:"id"`
	Code        string              `json:"code" example:"STANDARD"`
	Name        string              `json:"name" example:"Standard"`
	Description string              `json:"description"`
	IsActive    bool                `json:"isActive"`
	Limits      billing.PlanLimits  `json:"limits"`
	Prices      []PlanPriceResponse `json:"prices"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// PlanUsageResponse is a plan with its live subscribers and their monthly revenue.
// @name HandlerPlanUsageResponse
type PlanUsageResponse struct {
	PlanResponse
	Subscribers appbilling.SubscriberTotals `json:"subscribers"`
	MRR         []billing.CurrencyAmount    `json:"mrr"`
}

// SavePlanRequest replaces a plan's attributes, limits and monthly prices.
// Omitted limits are unlimited.
type SavePlanRequest struct {
	Name                 string             `json:"name" binding:"required,min=1,max=100"`
	Description          string             `json:"description" binding:"max=500"`
	IsActive             *bool              `json:"isActive"`
	Limits               billing.PlanLimits `json:"limits"`
	Currency             string             `json:"currency" binding:"omitempty,currency"`
	DoctorMonthlyPrice   decimal.Decimal    `json:"doctorMonthlyPrice" swaggertype:"string"`
	HospitalMonthlyPrice decimal.Decimal    `json:"hospitalMonthlyPrice" swaggertype:"string"`
}

func toPlanResponse(p *billing.PlanConfig) PlanResponse {
	resp := PlanResponse{
		ID:          p.ID.String(),
		Code:        p.Code.String(),
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		Limits:      p.Limits,
		Prices:      make([]PlanPriceResponse, 0, len(p.Prices)),
		UpdatedAt:   p.UpdatedAt,
	}
	for _, pr := range p.Prices {
		resp.Prices = append(resp.Prices, PlanPriceResponse{
			SubscriberType: string(pr.SubscriberType),
			Interval:       string(pr.Interval),
			Currency:       pr.Currency.String(),
			Amount:         pr.Amount,
			IsActive:       pr.IsActive,
		})
	}
	return resp
}

// ListPlans godoc
// @ID           listPlans
// @Summary      List plans with subscriber counts
// @Tags         plans
// @Produce      json
// @Success      200 {object} APIResponse[[]PlanUsageResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	rows, err := h.catalog.ListWithUsage(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]PlanUsageResponse, 0, len(rows))
	for _, r := range rows {
		mrr := r.MRR
		if mrr == nil {
			mrr = []billing.CurrencyAmount{}
		}
		out = append(out, PlanUsageResponse{
			PlanResponse: toPlanResponse(r.Plan),
			Subscribers:  r.Subscribers,
			MRR:          mrr,
		})
	}
	h.SuccessList(c, out, len(out))
}

// SavePlan godoc
// @ID           savePlan
// @Summary      Create or update a plan
// @Description  Updates a plan and its monthly doctor and hospital prices in one transaction
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        code    path string          true "Plan code"
// @Param        request body SavePlanRequest true "Plan"
// @Success      200 {object} APIResponse[PlanResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /plans/{code} [put]
func (h *PlanHandler) SavePlan(c *gin.Context) {
	code, err := billing.ParsePlanCode(c.Param("code"))
	if err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidPlanCode, "Plan code must be one of FREE, STANDARD, PREMIUM")
		return
	}

	var req SavePlanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := appbilling.SavePlanInput{
		Code:                 code,
		Name:                 req.Name,
		Description:          req.Description,
		IsActive:             req.IsActive == nil || *req.IsActive,
		Limits:               req.Limits,
		DoctorMonthlyPrice:   req.DoctorMonthlyPrice,
		HospitalMonthlyPrice: req.HospitalMonthlyPrice,
	}
	if req.Currency != "" {
		// Validated by the currency binding tag.
		input.Currency, _ = valueobject.ParseCurrency(req.Currency)
	}

	plan, err := h.catalog.Save(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPlanResponse(plan))
}

// Bootstrap godoc
// @ID           bootstrapPlans
// @Summary      Create missing plans and prices
// @Description  Idempotent. Existing rows are never modified.
// @Tags         plans
// @Produce      json
// @Success      200 {object} APIResponse[appbilling.BootstrapResult]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /plans/bootstrap [post]
func (h *PlanHandler) Bootstrap(c *gin.Context) {
	result, err := h.catalog.Bootstrap(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
