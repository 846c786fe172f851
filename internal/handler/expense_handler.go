package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"expensetracker/internal/errors"
	"expensetracker/internal/model"
	"expensetracker/internal/service"
)

const (
	// CSRFContextKey is where the CSRF middleware stores the request's token.
	CSRFContextKey = "csrf"
	// CSRFHeaderName is the header clients echo the token back in.
	CSRFHeaderName = echo.HeaderXCSRFToken
	// CSRFParameterName is the form field alternative to the header.
	CSRFParameterName = "_csrf"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	expenseService service.ExpenseService
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest is the body of create and update requests.
// Amount accepts a JSON number or a decimal string; date is YYYY-MM-DD and may be omitted.
type ExpenseRequest struct {
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"249.99"`
	Date     model.Date      `json:"date" swaggertype:"string" example:"2025-10-15"`
}

func (r ExpenseRequest) toModel() model.Expense {
	return model.Expense{
		Title:    r.Title,
		Category: r.Category,
		Amount:   r.Amount,
		Date:     r.Date,
	}
}

// CreateExpenseResponse reports the stored expense and the month's running total.
type CreateExpenseResponse struct {
	Message       string         `json:"message"`
	Expense       *model.Expense `json:"expense"`
	MonthlyTotal  string         `json:"monthly_total"`
	LimitExceeded bool           `json:"limit_exceeded"`
}

// MonthlyTotalResponse is the spending of one month against the limit.
type MonthlyTotalResponse struct {
	Month         int    `json:"month"`
	Year          int    `json:"year"`
	Total         string `json:"total"`
	Limit         string `json:"limit"`
	LimitExceeded bool   `json:"limit_exceeded"`
}

// CSRFTokenResponse describes the anti-forgery token for the current client.
type CSRFTokenResponse struct {
	Token         string `json:"token"`
	HeaderName    string `json:"header_name"`
	ParameterName string `json:"parameter_name"`
}

// ListExpenses godoc
// @Summary List all expenses
// @Tags expenses
// @Produce json
// @Success 200 {array} model.Expense
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses [get]
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	expenses, err := h.expenseService.List(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, expenses)
}

// CreateExpense godoc
// @Summary Add an expense
// @Description Stores the expense, then reports this month's total. Exceeding the monthly limit only changes the message.
// @Tags expenses
// @Accept json
// @Produce json
// @Param request body ExpenseRequest true "Expense data"
// @Success 200 {object} CreateExpenseResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	expense := req.toModel()
	result, err := h.expenseService.Create(c.Request().Context(), &expense)
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusOK, CreateExpenseResponse{
		Message:       result.Message,
		Expense:       result.Expense,
		MonthlyTotal:  result.MonthlyTotal.StringFixed(2),
		LimitExceeded: result.LimitExceeded,
	})
}

// GetExpense godoc
// @Summary Get expense by id
// @Tags expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} model.Expense
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	expense, err := h.expenseService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, expense)
}

// UpdateExpense godoc
// @Summary Replace an expense's fields
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path int true "Expense ID"
// @Param request body ExpenseRequest true "Expense data"
// @Success 200 {object} model.Expense
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	updated, err := h.expenseService.Update(c.Request().Context(), id, req.toModel())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Description Succeeds whether or not the expense exists.
// @Tags expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.expenseService.Delete(c.Request().Context(), id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Expense with id %d deleted successfully.", id),
	})
}

// MonthlyTotal godoc
// @Summary Spending for a month
// @Tags expenses
// @Produce json
// @Param month query int false "Month 1-12, defaults to the current month"
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} MonthlyTotalResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/monthly-total [get]
func (h *ExpenseHandler) MonthlyTotal(c echo.Context) error {
	month, year := h.expenseService.CurrentPeriod()

	if raw := c.QueryParam("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			return invalidQuery("month")
		}
		month = time.Month(m)
	}
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return invalidQuery("year")
		}
		year = y
	}

	summary, err := h.expenseService.MonthlyTotal(c.Request().Context(), month, year)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MonthlyTotalResponse{
		Month:         int(summary.Month),
		Year:          summary.Year,
		Total:         summary.Total.StringFixed(2),
		Limit:         summary.Limit.StringFixed(2),
		LimitExceeded: summary.LimitExceeded,
	})
}

// CSRFToken godoc
// @Summary Current anti-forgery token
// @Description Also sets the _csrf cookie. Send the token back in the X-CSRF-Token header.
// @Tags expenses
// @Produce json
// @Success 200 {object} CSRFTokenResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/csrf-token [get]
func (h *ExpenseHandler) CSRFToken(c echo.Context) error {
	token, ok := c.Get(CSRFContextKey).(string)
	if !ok || token == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "csrf token unavailable",
			Code:  "CSRF_UNAVAILABLE",
		})
	}
	return c.JSON(http.StatusOK, CSRFTokenResponse{
		Token:         token,
		HeaderName:    CSRFHeaderName,
		ParameterName: CSRFParameterName,
	})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid expense id",
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

func invalidQuery(name string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid " + name,
		Code:  "INVALID_QUERY",
	})
}
