package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/importrow"
	"github.com/jask/cuentas/internal/recurrence"
	"github.com/jask/cuentas/internal/service"
)

// fail writes err as a {success:false} body with a status picked from its
// kind.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoTenant):
		c.JSON(http.StatusForbidden, service.FailureResult(err))
		return
	case errors.Is(err, service.ErrValidation), errors.Is(err, recurrence.ErrInvalidSpec):
		status = http.StatusBadRequest
	}
	c.JSON(status, service.Result{Success: false, Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, service.Result{Success: false, Message: err.Error()})
}

type importRequest struct {
	Rows []importrow.Row `json:"rows" binding:"required"`
}

type rowErrorJSON struct {
	Row         int    `json:"row"`
	Description string `json:"description"`
	Stage       string `json:"stage"`
	Reason      string `json:"reason"`
	Error       string `json:"error"`
}

type importResponse struct {
	service.Result
	Created         int            `json:"created"`
	ParentsCreated  int            `json:"parents_created,omitempty"`
	ChildrenCreated int            `json:"children_created,omitempty"`
	Skipped         int            `json:"skipped,omitempty"`
	Interrupted     bool           `json:"interrupted,omitempty"`
	Errors          []rowErrorJSON `json:"errors"`
}

func newImportResponse(rep service.Report) importResponse {
	out := importResponse{
		Result:          rep.Result(),
		Created:         rep.Created,
		ParentsCreated:  rep.ParentsCreated,
		ChildrenCreated: rep.ChildrenCreated,
		Skipped:         rep.Skipped,
		Interrupted:     rep.Interrupted,
		Errors:          make([]rowErrorJSON, 0, len(rep.Errors)),
	}
	if rep.Kind == service.ReportCategories {
		out.Created = rep.ParentsCreated + rep.ChildrenCreated
	}
	for _, e := range rep.Errors {
		out.Errors = append(out.Errors, rowErrorJSON{
			Row:         e.Index,
			Description: e.Description,
			Stage:       string(e.Stage),
			Reason:      e.Reason,
			Error:       e.Error(),
		})
	}
	return out
}

func (h *Handler) importTransactions(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := h.importer.ImportTransactions(c.Request.Context(), actorFrom(c), req.Rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newImportResponse(rep))
}

func (h *Handler) importCategories(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := h.importer.ImportCategories(c.Request.Context(), actorFrom(c), req.Rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newImportResponse(rep))
}

func (h *Handler) seedCategories(c *gin.Context) {
	res, err := h.seeder.Seed(c.Request.Context(), actorFrom(c).TenantID, h.catalog)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) createPartner(c *gin.Context) {
	var req service.NewPartner
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.partners.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Partner and associated account created successfully",
		"partner": partnerDTO(out.Partner),
		"account": accountDTO(out.Account),
	})
}

func (h *Handler) createProject(c *gin.Context) {
	var req service.NewProject
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.projects.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectDTO(*p))
}

func (h *Handler) addProjectPartner(c *gin.Context) {
	var req service.PartnerShare
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.projects.AddPartner(c.Request.Context(), actorFrom(c), c.Param("id"), req); err != nil {
		fail(c, err)
		return
	}
	h.projectTeam(c)
}

func (h *Handler) projectTeam(c *gin.Context) {
	team, err := h.projects.Team(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project":     projectDTO(team.Project),
		"members":     team.Members,
		"owner_share": team.OwnerShare,
	})
}

type specRequest struct {
	Frequency string   `json:"frequency" binding:"required"`
	Interval  int      `json:"interval"`
	Start     string   `json:"start"`
	Weekdays  []string `json:"weekdays"`
	End       string   `json:"end"`
}

func (r specRequest) spec() (recurrence.Spec, error) {
	freq, err := recurrence.ParseFrequency(r.Frequency)
	if err != nil {
		return recurrence.Spec{}, err
	}
	s := recurrence.Spec{Frequency: freq, Interval: r.Interval}
	if s.Interval == 0 {
		s.Interval = 1
	}
	if r.Start != "" {
		if s.Start, err = parseDay(r.Start); err != nil {
			return recurrence.Spec{}, fmt.Errorf("start: %w", err)
		}
	}
	if r.End != "" {
		end, err := parseDay(r.End)
		if err != nil {
			return recurrence.Spec{}, fmt.Errorf("end: %w", err)
		}
		s.End = &end
	}
	for _, code := range r.Weekdays {
		d, err := recurrence.ParseWeekday(code)
		if err != nil {
			return recurrence.Spec{}, err
		}
		s.Weekdays = append(s.Weekdays, d)
	}
	return s, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

type quickAddRequest struct {
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	AccountID       string          `json:"account_id"`
	CategoryID      string          `json:"category_id"`
	ProjectID       string          `json:"project_id"`
	PaidByPartnerID string          `json:"paid_by_partner_id"`
	Recurrence      *specRequest    `json:"recurrence"`
}

func (h *Handler) quickAdd(c *gin.Context) {
	var req quickAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in := service.QuickAdd{
		Description:     req.Description,
		Amount:          req.Amount,
		Type:            req.Type,
		AccountID:       req.AccountID,
		CategoryID:      req.CategoryID,
		ProjectID:       req.ProjectID,
		PaidByPartnerID: req.PaidByPartnerID,
	}
	if req.Date != "" {
		d, err := parseDay(req.Date)
		if err != nil {
			badRequest(c, fmt.Errorf("date: %w", err))
			return
		}
		in.Date = d
	}
	if req.Recurrence != nil {
		spec, err := req.Recurrence.spec()
		if err != nil {
			badRequest(c, err)
			return
		}
		in.Recurrence = &spec
	}
	out, err := h.quick.Add(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"transaction": transactionDTO(out.Transaction)}
	if out.Template != nil {
		resp["recurring"] = recurringDTO(*out.Template)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) refreshRecurring(c *gin.Context) {
	res, err := h.cron.Refresh(c.Request.Context(), actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type previewRequest struct {
	Spec  specRequest `json:"spec" binding:"required"`
	From  string      `json:"from"`
	Count int         `json:"count"`
}

func (h *Handler) previewRecurrence(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	spec, err := req.Spec.spec()
	if err != nil {
		badRequest(c, err)
		return
	}
	from := h.now()
	if req.From != "" {
		if from, err = parseDay(req.From); err != nil {
			badRequest(c, fmt.Errorf("from: %w", err))
			return
		}
	}
	if spec.Start.IsZero() {
		spec.Start = from
	}
	count := req.Count
	if count <= 0 || count > 100 {
		count = 5
	}
	next, ok, err := recurrence.NextDue(spec, from)
	if err != nil {
		fail(c, err)
		return
	}
	occ, err := recurrence.Occurrences(spec, from, count)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"rule": spec.String(), "occurrences": occ, "next_due": nil}
	if ok {
		resp["next_due"] = next
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) auditDuplicates(c *gin.Context) {
	pairs, err := h.auditor.Audit(c.Request.Context(), actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	if pairs == nil {
		pairs = []service.DuplicatePair{}
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": pairs})
}
