package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/balance"
	"github.com/cleared-dev/balancete/internal/model"
	"github.com/cleared-dev/balancete/internal/reclass"
)

// Handler serves the balance, ledger and reclassification API.
type Handler struct {
	balances *balance.Aggregator
	reclass  *reclass.Service
	log      zerolog.Logger
	now      func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(balances *balance.Aggregator, reclassifier *reclass.Service, log zerolog.Logger) *Handler {
	return &Handler{
		balances: balances,
		reclass:  reclassifier,
		log:      log.With().Str("handler", "ledger").Logger(),
		now:      time.Now,
	}
}

// RegisterRoutes registers the API routes under r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/balances", h.HandleGetBalances)
	r.Get("/trial-balance", h.HandleGetTrialBalance)
	r.Get("/dre", h.HandleGetIncomeStatement)

	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/ledger", h.HandleGetLedger)
		r.Get("/ledger.csv", h.HandleGetLedgerCSV)
	})

	r.Post("/lines/{id}/reclassify", h.HandleReclassify)
}

type periodView struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type balanceView struct {
	AccountID      string `json:"account_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Nature         string `json:"nature"`
	IsSynthetic    bool   `json:"is_synthetic"`
	OpeningBalance string `json:"opening_balance"`
	TotalDebits    string `json:"total_debits"`
	TotalCredits   string `json:"total_credits"`
	ClosingBalance string `json:"closing_balance"`
}

type trialBalanceView struct {
	Debtor     string `json:"debtor"`
	Creditor   string `json:"creditor"`
	Difference string `json:"difference"`
	Balanced   bool   `json:"balanced"`
}

type balancesResponse struct {
	Period       periodView       `json:"period"`
	Balances     []balanceView    `json:"balances"`
	TrialBalance trialBalanceView `json:"trial_balance"`
	Unmatched    int              `json:"unmatched_opening_lines"`
	Orphaned     int              `json:"orphaned_lines"`
}

type statementRowView struct {
	AccountID   string `json:"account_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	IsSynthetic bool   `json:"is_synthetic"`
	Depth       int    `json:"depth"`
	Amount      string `json:"amount"`
}

type incomeResponse struct {
	Period        periodView         `json:"period"`
	Revenue       []statementRowView `json:"revenue"`
	Costs         []statementRowView `json:"costs"`
	Expenses      []statementRowView `json:"expenses"`
	TotalRevenue  string             `json:"total_revenue"`
	TotalCosts    string             `json:"total_costs"`
	TotalExpenses string             `json:"total_expenses"`
	NetResult     string             `json:"net_result"`
}

type ledgerEntryView struct {
	LineID         string `json:"line_id"`
	AccountID      string `json:"account_id"`
	Date           string `json:"date,omitempty"`
	EntryNumber    string `json:"entry_number,omitempty"`
	Description    string `json:"description"`
	Document       string `json:"document,omitempty"`
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	RunningBalance string `json:"running_balance"`
}

type ledgerResponse struct {
	AccountID      string            `json:"account_id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Period         periodView        `json:"period"`
	OpeningBalance string            `json:"opening_balance"`
	TotalDebits    string            `json:"total_debits"`
	TotalCredits   string            `json:"total_credits"`
	ClosingBalance string            `json:"closing_balance"`
	Entries        []ledgerEntryView `json:"entries"`
}

type reclassifyRequest struct {
	AccountID string `json:"account_id"`
}

type balanceChangeView struct {
	Before balanceView `json:"before"`
	After  balanceView `json:"after"`
}

type reclassifyResponse struct {
	LineID string             `json:"line_id"`
	From   *balanceChangeView `json:"from,omitempty"`
	To     balanceChangeView  `json:"to"`
}

// HandleGetBalances handles GET /api/balances
func (h *Handler) HandleGetBalances(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	report, err := h.balances.Compute(r.Context(), period)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	rows := report.Rows()
	resp := balancesResponse{
		Period:       toPeriodView(period),
		Balances:     make([]balanceView, 0, len(rows)),
		TrialBalance: toTrialBalanceView(report.TrialBalance()),
		Unmatched:    report.Unmatched,
		Orphaned:     report.Orphaned,
	}
	for _, b := range rows {
		resp.Balances = append(resp.Balances, toBalanceView(b))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetTrialBalance handles GET /api/trial-balance
func (h *Handler) HandleGetTrialBalance(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	report, err := h.balances.Compute(r.Context(), period)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTrialBalanceView(report.TrialBalance()))
}

// HandleGetIncomeStatement handles GET /api/dre
func (h *Handler) HandleGetIncomeStatement(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	dre, err := h.balances.IncomeStatement(r.Context(), period)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, incomeResponse{
		Period:        toPeriodView(period),
		Revenue:       toStatementRows(dre.Revenue),
		Costs:         toStatementRows(dre.Costs),
		Expenses:      toStatementRows(dre.Expenses),
		TotalRevenue:  amount(dre.TotalRevenue),
		TotalCosts:    amount(dre.TotalCosts),
		TotalExpenses: amount(dre.TotalExpenses),
		NetResult:     amount(dre.NetResult),
	})
}

// HandleGetLedger handles GET /api/accounts/{id}/ledger
func (h *Handler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	stmt, err := h.balances.AccountLedger(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp := ledgerResponse{
		AccountID:      stmt.Account.ID,
		Code:           stmt.Account.Code,
		Name:           stmt.Account.Name,
		Period:         toPeriodView(period),
		OpeningBalance: amount(stmt.OpeningBalance),
		TotalDebits:    amount(stmt.TotalDebits),
		TotalCredits:   amount(stmt.TotalCredits),
		ClosingBalance: amount(stmt.ClosingBalance),
		Entries:        make([]ledgerEntryView, 0, len(stmt.Entries)),
	}
	for _, e := range stmt.Entries {
		view := ledgerEntryView{
			LineID:         e.LineID,
			AccountID:      e.AccountID,
			EntryNumber:    e.EntryNumber,
			Description:    e.Description,
			Document:       e.Document,
			Debit:          amount(e.Debit),
			Credit:         amount(e.Credit),
			RunningBalance: amount(e.RunningBalance),
		}
		if !e.Date.IsZero() {
			view.Date = e.Date.Format(model.DateFormat)
		}
		resp.Entries = append(resp.Entries, view)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetLedgerCSV handles GET /api/accounts/{id}/ledger.csv
func (h *Handler) HandleGetLedgerCSV(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	stmt, err := h.balances.AccountLedger(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	// Render fully before writing headers so a failure can still become a 500.
	var buf bytes.Buffer
	if err := balance.WriteLedgerCSV(&buf, stmt); err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="razao-%s.csv"`, stmt.Account.Code))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV response")
	}
}

// HandleReclassify handles POST /api/lines/{id}/reclassify
func (h *Handler) HandleReclassify(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	var req reclassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.reclass.Reclassify(r.Context(), chi.URLParam(r, "id"), req.AccountID, period)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp := reclassifyResponse{
		LineID: res.LineID,
		To:     toChangeView(res.To),
	}
	if res.From.Before.AccountID != "" {
		from := toChangeView(res.From)
		resp.From = &from
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// period reads year/month or start/end query parameters. It writes a 400
// and returns false when they do not describe a valid window.
func (h *Handler) period(w http.ResponseWriter, r *http.Request) (model.Period, bool) {
	q := r.URL.Query()
	year, err := intParam(q, "year")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return model.Period{}, false
	}
	month, err := intParam(q, "month")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return model.Period{}, false
	}
	period, err := model.ResolvePeriod(year, month, q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return model.Period{}, false
	}
	return period, true
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

// Helper methods

type metadata struct {
	Timestamp string `json:"timestamp"`
}

type envelope struct {
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Metadata metadata `json:"metadata"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	h.writeEnvelope(w, status, envelope{Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeEnvelope(w, status, envelope{Error: message})
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	env.Metadata.Timestamp = h.now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeFailure maps service errors to status codes.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var verr *reclass.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Request failed")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toPeriodView(p model.Period) periodView {
	var v periodView
	if !p.Start.IsZero() {
		v.Start = p.Start.Format(model.DateFormat)
	}
	if !p.End.IsZero() {
		v.End = p.End.Format(model.DateFormat)
	}
	return v
}

func toBalanceView(b model.AccountBalance) balanceView {
	return balanceView{
		AccountID:      b.AccountID,
		Code:           b.Code,
		Name:           b.Name,
		Nature:         string(b.Nature),
		IsSynthetic:    b.IsSynthetic,
		OpeningBalance: amount(b.OpeningBalance),
		TotalDebits:    amount(b.TotalDebits),
		TotalCredits:   amount(b.TotalCredits),
		ClosingBalance: amount(b.ClosingBalance),
	}
}

func toChangeView(c reclass.BalanceChange) balanceChangeView {
	return balanceChangeView{Before: toBalanceView(c.Before), After: toBalanceView(c.After)}
}

func toTrialBalanceView(tb balance.TrialBalance) trialBalanceView {
	return trialBalanceView{
		Debtor:     amount(tb.Debtor),
		Creditor:   amount(tb.Creditor),
		Difference: amount(tb.Difference),
		Balanced:   tb.Balanced,
	}
}

func toStatementRows(rows []balance.StatementRow) []statementRowView {
	out := make([]statementRowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, statementRowView{
			AccountID:   row.AccountID,
			Code:        row.Code,
			Name:        row.Name,
			IsSynthetic: row.IsSynthetic,
			Depth:       row.Depth,
			Amount:      amount(row.Amount),
		})
	}
	return out
}
