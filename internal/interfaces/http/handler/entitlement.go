package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appbilling "github.com/medcare/backend/internal/application/billing"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/interfaces/http/dto"
)

// SummaryReader returns the caller's limit summary.
type SummaryReader interface {
	GetSummary(ctx context.Context, p *billing.Principal) (*appbilling.SummaryResult, error)
}

// GateChecker evaluates gate rules for the caller.
type GateChecker interface {
	Check(ctx context.Context, p *billing.Principal, rule billing.GateRule) (*appbilling.GateCheckResult, error)
	CheckAction(ctx context.Context, p *billing.Principal, action billing.Action) (*appbilling.GateCheckResult, error)
}

// EntitlementHandler serves limit summaries and gate decisions to the UI.
type EntitlementHandler struct {
	BaseHandler
	summaries SummaryReader
	gates     GateChecker
}

// NewEntitlementHandler creates a new EntitlementHandler
func NewEntitlementHandler(summaries SummaryReader, gates GateChecker) *EntitlementHandler {
	return &EntitlementHandler{summaries: summaries, gates: gates}
}

// SummaryResponse is a limit summary, or applicable=false with a reason for
// callers without a billing model.
// @name HandlerSummaryResponse
type SummaryResponse struct {
	Applicable bool   `json:"applicable"`
	Reason     string `json:"reason,omitempty"`
	*billing.LimitSummary
}

// GateResponse is a gate decision and the summary it was evaluated against.
// @name HandlerGateResponse
type GateResponse struct {
	Applicable bool `json:"applicable"`
	billing.GateDecision
	Summary *billing.LimitSummary `json:"summary,omitempty"`
}

// GateCheckRequest is an explicit rule to evaluate.
type GateCheckRequest struct {
	Type            string   `json:"type" binding:"required,oneof=STATUS LIMIT ALWAYS"`
	AllowedStatuses []string `json:"allowedStatuses" binding:"omitempty,dive,substatus"`
	Key             string   `json:"key"`
	Delta           int64    `json:"delta" binding:"gte=0"`
}

// GateActionQuery names the action to check.
type GateActionQuery struct {
	Action string `form:"action" binding:"required"`
}

func (r GateCheckRequest) rule() billing.GateRule {
	rule := billing.GateRule{
		Type:  billing.RuleType(r.Type),
		Key:   billing.LimitKey(r.Key),
		Delta: r.Delta,
	}
	for _, s := range r.AllowedStatuses {
		st, _ := billing.ParseSubscriptionStatus(s)
		rule.AllowedStatuses = append(rule.AllowedStatuses, st)
	}
	if rule.Type == billing.RuleLimit && rule.Delta == 0 {
		rule.Delta = 1
	}
	return rule
}

// GetSummary godoc
// @ID           getEntitlementSummary
// @Summary      Get the caller's limit summary
// @Description  Plan, status, limits, usage and exceeded keys of the caller's billing scope
// @Tags         entitlements
// @Produce      json
// @Success      200 {object} APIResponse[SummaryResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /entitlements/summary [get]
func (h *EntitlementHandler) GetSummary(c *gin.Context) {
	result, err := h.summaries.GetSummary(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SummaryResponse{
		Applicable:   result.Applicable,
		Reason:       result.Reason,
		LimitSummary: result.Summary,
	})
}

// CheckAction godoc
// @ID           checkEntitlementAction
// @Summary      Check a named action
// @Description  Gate decision for an action such as appointment.create. A denial is a 200 with allowed=false.
// @Tags         entitlements
// @Produce      json
// @Param        action query string true "Action name"
// @Success      200 {object} APIResponse[GateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /entitlements/gate [get]
func (h *EntitlementHandler) CheckAction(c *gin.Context) {
	var q GateActionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, dto.ErrCodeUnknownAction, "Query parameter action is required")
		return
	}
	result, err := h.gates.CheckAction(c.Request.Context(), principal(c), billing.Action(q.Action))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gateResponse(result))
}

// CheckRule godoc
// @ID           checkEntitlementRule
// @Summary      Check an explicit gate rule
// @Tags         entitlements
// @Accept       json
// @Produce      json
// @Param        request body GateCheckRequest true "Rule"
// @Success      200 {object} APIResponse[GateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /entitlements/gate [post]
func (h *EntitlementHandler) CheckRule(c *gin.Context) {
	var req GateCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.gates.Check(c.Request.Context(), principal(c), req.rule())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gateResponse(result))
}

func gateResponse(r *appbilling.GateCheckResult) GateResponse {
	return GateResponse{Applicable: r.Applicable, GateDecision: r.Decision, Summary: r.Summary}
}
