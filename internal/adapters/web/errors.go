package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"books-ledger/internal/core"
	"books-ledger/internal/money"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps a core error to its HTTP status and error code.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := classify(err)
	writeError(w, r, err.Error(), code, status)
}

// classify maps the posting-engine error taxonomy onto HTTP semantics:
// malformed input is 400, business-rule rejections are 422, state conflicts
// (duplicate posting, overdraft, stock shortfall) are 409, and unknown
// references are 404.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		return "INVALID_AMOUNT", http.StatusBadRequest
	case errors.Is(err, money.ErrDivisionByZero):
		return "DIVISION_BY_ZERO", http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidTaxRate):
		return "INVALID_TAX_RATE", http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidOutputQuantity):
		return "INVALID_OUTPUT_QUANTITY", http.StatusBadRequest
	case errors.Is(err, core.ErrSameAccountTransfer):
		return "SAME_ACCOUNT_TRANSFER", http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnbalancedTransaction):
		return "UNBALANCED_TRANSACTION", http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS", http.StatusConflict
	case errors.Is(err, core.ErrInsufficientMaterial):
		return "INSUFFICIENT_MATERIAL", http.StatusConflict
	case errors.Is(err, core.ErrAlreadyPosted):
		return "ALREADY_POSTED", http.StatusConflict
	case errors.Is(err, core.ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND", http.StatusNotFound
	default:
		return "INTERNAL", http.StatusInternalServerError
	}
}
