package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"books-ledger/internal/app"
	"books-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService the routes dispatch to.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	// 1 MB body limit to prevent unbounded request abuse.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))

		// ── Documents ─────────────────────────────────────────────────────────
		r.Post("/api/companies/{code}/invoices", h.apiPostInvoice)
		r.Post("/api/companies/{code}/bills", h.apiPostBill)
		r.Post("/api/companies/{code}/credit-notes", h.apiPostCreditNote)

		// ── Raw journal postings ──────────────────────────────────────────────
		r.Post("/api/companies/{code}/journal-entries", h.apiPostJournal)
		r.Post("/api/companies/{code}/journal-entries/validate", h.apiValidateJournal)
		r.Post("/api/entries/{id}/reverse", h.apiReverseEntry)

		// ── Banking ───────────────────────────────────────────────────────────
		r.Post("/api/companies/{code}/transfers", h.apiTransfer)

		// ── Manufacturing ─────────────────────────────────────────────────────
		r.Post("/api/companies/{code}/builds", h.apiBuildAssembly)

		// ── Reports ───────────────────────────────────────────────────────────
		r.Get("/api/companies/{code}/trial-balance", h.apiTrialBalance)
		r.Get("/api/companies/{code}/accounts/{accountCode}/statement", h.apiAccountStatement)
		r.Get("/api/companies/{code}/stock", h.apiStockLevels)
	})

	return r
}

// health returns service status and the loaded company code.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.LoadDefaultCompany(r.Context())
	companyCode := ""
	if err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company"`
	}

	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the RequestBodyLimit; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// ── Document handlers ─────────────────────────────────────────────────────────

// apiPostInvoice handles POST /api/companies/{code}/invoices.
func (h *Handler) apiPostInvoice(w http.ResponseWriter, r *http.Request) {
	var doc core.DocumentInput
	if !decodeJSON(w, r, &doc) {
		return
	}
	doc.CompanyCode = companyCode(r)

	result, err := h.svc.PostInvoice(r.Context(), doc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiPostBill handles POST /api/companies/{code}/bills.
func (h *Handler) apiPostBill(w http.ResponseWriter, r *http.Request) {
	var doc core.DocumentInput
	if !decodeJSON(w, r, &doc) {
		return
	}
	doc.CompanyCode = companyCode(r)

	result, err := h.svc.PostBill(r.Context(), doc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiPostCreditNote handles POST /api/companies/{code}/credit-notes.
func (h *Handler) apiPostCreditNote(w http.ResponseWriter, r *http.Request) {
	var doc core.DocumentInput
	if !decodeJSON(w, r, &doc) {
		return
	}
	doc.CompanyCode = companyCode(r)

	result, err := h.svc.PostCreditNote(r.Context(), doc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Journal handlers ──────────────────────────────────────────────────────────

// apiPostJournal handles POST /api/companies/{code}/journal-entries.
func (h *Handler) apiPostJournal(w http.ResponseWriter, r *http.Request) {
	var posting core.Posting
	if !decodeJSON(w, r, &posting) {
		return
	}
	posting.CompanyCode = companyCode(r)

	if err := h.svc.PostJournal(r.Context(), posting); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "posted"})
}

// apiValidateJournal handles POST /api/companies/{code}/journal-entries/validate.
// Runs the full posting path without committing anything.
func (h *Handler) apiValidateJournal(w http.ResponseWriter, r *http.Request) {
	var posting core.Posting
	if !decodeJSON(w, r, &posting) {
		return
	}
	posting.CompanyCode = companyCode(r)

	if err := h.svc.ValidatePosting(r.Context(), posting); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "valid"})
}

// apiReverseEntry handles POST /api/entries/{id}/reverse.
func (h *Handler) apiReverseEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid entry id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.svc.ReverseEntry(r.Context(), entryID, body.Reason); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "reversed"})
}

// ── Banking and manufacturing handlers ────────────────────────────────────────

// apiTransfer handles POST /api/companies/{code}/transfers.
func (h *Handler) apiTransfer(w http.ResponseWriter, r *http.Request) {
	var req core.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.TransferFunds(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiBuildAssembly handles POST /api/companies/{code}/builds.
func (h *Handler) apiBuildAssembly(w http.ResponseWriter, r *http.Request) {
	var req core.BuildRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.BuildAssembly(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Report handlers ───────────────────────────────────────────────────────────

// apiTrialBalance handles GET /api/companies/{code}/trial-balance.
func (h *Handler) apiTrialBalance(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetTrialBalance(r.Context(), companyCode(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiAccountStatement handles GET /api/companies/{code}/accounts/{accountCode}/statement.
// from and to query parameters bound the date range; both are optional.
func (h *Handler) apiAccountStatement(w http.ResponseWriter, r *http.Request) {
	accountCode := chi.URLParam(r, "accountCode")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	result, err := h.svc.GetAccountStatement(r.Context(), companyCode(r), accountCode, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiStockLevels handles GET /api/companies/{code}/stock.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockLevels(r.Context(), companyCode(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
