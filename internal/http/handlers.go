package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
	"finsight/internal/services"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"requests": s.trace.total.Load(),
		"inFlight": s.trace.inFlight.Load(),
		"limited":  s.rateLimiter.hits.Load(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	for _, check := range s.ready {
		if err := check(ctx); err != nil {
			s.logger.Logger().WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// compute resolves the user and evaluation instant and runs the analyzers.
// It writes the error response itself and returns nil on failure.
func (s *Server) compute(w http.ResponseWriter, r *http.Request) *services.Insights {
	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "user id is required")
		return nil
	}
	now, err := evalTime(r, s.clock)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil
	}

	in, err := s.insights.Compute(r.Context(), userID, now)
	if err != nil {
		s.logger.LogError(r.Context(), "Failed to compute insights", err, log.OpCompute, log.NewFields().WithUser(userID))
		writeError(w, r, http.StatusInternalServerError, "failed to compute insights")
		return nil
	}
	return in
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if in := s.compute(w, r); in != nil {
		writeJSON(w, r, http.StatusOK, in)
	}
}

// section serves one analyzer's result out of the full bundle.
func (s *Server) section(name string, pick func(*services.Insights) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := s.compute(w, r)
		if in == nil {
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{
			"userId":      in.UserID,
			"generatedAt": in.GeneratedAt,
			name:          pick(in),
		})
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, r, http.StatusMethodNotAllowed, ledger.ErrReadOnly.Error())
		return
	}
	userID := r.PathValue("userID")

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.ledger.RecordTransaction(r.Context(), userID, t)
	if err != nil {
		s.writeLedgerError(w, r, userID, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, stored)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, r, http.StatusMethodNotAllowed, ledger.ErrReadOnly.Error())
		return
	}
	userID := r.PathValue("userID")

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b := core.Budget{Amount: req.Amount}
	if err := s.ledger.SetBudget(r.Context(), userID, b); err != nil {
		s.writeLedgerError(w, r, userID, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

func (s *Server) handleUpsertAccount(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, r, http.StatusMethodNotAllowed, ledger.ErrReadOnly.Error())
		return
	}
	userID := r.PathValue("userID")

	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a := core.Account{
		ID:      strings.TrimSpace(r.PathValue("accountID")),
		Name:    sanitizeInput(req.Name),
		Balance: req.Balance,
	}
	if err := s.ledger.UpsertAccount(r.Context(), userID, a); err != nil {
		s.writeLedgerError(w, r, userID, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrInvalidDate,
	core.ErrMissingID,
	core.ErrInvalidRecord,
}

// writeLedgerError maps store failures to status codes.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, userID string, err error) {
	switch {
	case errors.Is(err, ledger.ErrDuplicate):
		writeError(w, r, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ledger.ErrReadOnly):
		writeError(w, r, http.StatusMethodNotAllowed, err.Error())
		return
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.logger.LogError(r.Context(), "Failed to update ledger", err, log.OpAppend, log.NewFields().WithUser(userID))
	writeError(w, r, http.StatusInternalServerError, "failed to update ledger")
}
