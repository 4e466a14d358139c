package http

import (
	"errors"
	"net/http"

	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/middleware/trace"
)

type balanceResponse struct {
	Person  string `json:"person,omitempty"`
	Balance int64  `json:"balance"`
}

type rollupResponse struct {
	Person string           `json:"person,omitempty"`
	Start  core.Date        `json:"start"`
	End    core.Date        `json:"end"`
	Days   []core.DayPoints `json:"days"`
}

// fail maps err to a JSON error response and logs anything that is not
// the caller's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, payload := mapDomainError(err)
	if errors.Is(err, ErrMalformedBody) {
		status, payload = http.StatusBadRequest, errorPayload{Code: "MALFORMED_BODY", Message: "request body could not be decoded"}
	}
	payload.RequestID = trace.GetRequestID(r.Context())
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	}
	writeError(w, status, payload)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Catalog(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	writeSuccess(w, http.StatusOK, cats)
}

func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.ReloadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpReload, err)
		return
	}
	writeSuccess(w, http.StatusOK, cats)
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Activities(r.Context(), r.URL.Query().Get("person"))
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	if recs == nil {
		recs = []core.ActivityRecord{}
	}
	writeSuccess(w, http.StatusOK, recs)
}

func (s *Server) handleListRedemptions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Redemptions(r.Context(), r.URL.Query().Get("person"))
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	if recs == nil {
		recs = []core.RedemptionRecord{}
	}
	writeSuccess(w, http.StatusOK, recs)
}

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, applog.OpAppend, err)
		return
	}
	e, err := parseLedgerEntry(p, "activity")
	if err != nil {
		s.fail(w, r, applog.OpAppend, err)
		return
	}
	rec, err := s.svc.LogActivity(r.Context(), e.Person, e.Name, e.Date)
	if err != nil {
		s.fail(w, r, applog.OpAppend, err)
		return
	}
	writeSuccess(w, http.StatusCreated, rec)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, applog.OpAppend, err)
		return
	}
	e, err := parseLedgerEntry(p, "reward")
	if err != nil {
		s.fail(w, r, applog.OpAppend, err)
		return
	}
	rec, err := s.svc.Redeem(r.Context(), e.Person, e.Name, e.Date)
	if err != nil {
		s.fail(w, r, applog.OpAppend, err)
		return
	}
	writeSuccess(w, http.StatusCreated, rec)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	person := r.URL.Query().Get("person")
	bal, err := s.svc.Balance(r.Context(), person)
	if err != nil {
		s.fail(w, r, applog.OpBalance, err)
		return
	}
	p, _ := s.svc.Roster().ResolveFilter(person)
	writeSuccess(w, http.StatusOK, balanceResponse{Person: string(p), Balance: bal})
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := parseDays(q)
	if err != nil {
		s.fail(w, r, applog.OpRollup, err)
		return
	}
	end, err := parseOptionalDate(q, "end")
	if err != nil {
		s.fail(w, r, applog.OpRollup, err)
		return
	}
	rollup, err := s.svc.Rollup(r.Context(), q.Get("person"), days, end)
	if err != nil {
		s.fail(w, r, applog.OpRollup, err)
		return
	}
	p, _ := s.svc.Roster().ResolveFilter(q.Get("person"))
	resp := rollupResponse{Person: string(p), Days: rollup}
	if len(rollup) > 0 {
		resp.Start = rollup[0].Date
		resp.End = rollup[len(rollup)-1].Date
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context(), r.URL.Query().Get("person"))
	if err != nil {
		s.fail(w, r, applog.OpSummary, err)
		return
	}
	writeSuccess(w, http.StatusOK, sum)
}
