package http

import (
	"bytes"
	"fmt"
	"net/http"

	"puntos/internal/core"
	applog "puntos/internal/log"
)

type catalogItem struct {
	Name   string
	Points int64
}

type summaryView struct {
	core.Summary
	Label string
	Max   int64
}

type dashboardData struct {
	People     []string
	Today      string
	Activities []catalogItem
	Rewards    []catalogItem
	Summary    summaryView
	CatalogErr string
}

func catalogItems(c core.Catalog) []catalogItem {
	names := c.Names()
	items := make([]catalogItem, 0, len(names))
	for _, n := range names {
		items = append(items, catalogItem{Name: n, Points: c[n]})
	}
	return items
}

func newSummaryView(sum core.Summary) summaryView {
	v := summaryView{Summary: sum, Label: string(sum.Person)}
	if v.Label == "" {
		v.Label = "Both"
	}
	for _, d := range sum.Rollup {
		if d.Points > v.Max {
			v.Max = d.Points
		}
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := dashboardData{
		People: s.svc.Roster().Names(),
		Today:  s.svc.Today().String(),
	}

	cats, err := s.svc.Catalog(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Catalog unavailable for dashboard", applog.FieldError, err)
		data.CatalogErr = "The catalog could not be loaded."
	} else {
		data.Activities = catalogItems(cats.Activities)
		data.Rewards = catalogItems(cats.Rewards)
	}

	sum, err := s.svc.Summary(ctx, "")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	data.Summary = newSummaryView(sum)

	s.render(w, r, http.StatusOK, "index.html", data)
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context(), r.URL.Query().Get("person"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "summary", newSummaryView(sum))
}

func (s *Server) handleLogActivityPartial(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("The form could not be read.").Write(w)
		return
	}
	e, err := parseLedgerEntry(p, "activity")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	rec, err := s.svc.LogActivity(r.Context(), e.Person, e.Name, e.Date)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	msg := fmt.Sprintf("%s earned %s for %s", rec.Person, formatPoints(rec.Points), rec.Activity)
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerActivityLogged(string(rec.Person), rec.Points).
		TriggerSummaryRefresh().
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + escape(msg) + `</div>`).
		Write(w)
}

func (s *Server) handleRedeemPartial(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("The form could not be read.").Write(w)
		return
	}
	e, err := parseLedgerEntry(p, "reward")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	rec, err := s.svc.Redeem(r.Context(), e.Person, e.Name, e.Date)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	msg := fmt.Sprintf("%s redeemed %s for %s", rec.Person, rec.Reward, formatPoints(rec.Cost))
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerRewardRedeemed(string(rec.Person), rec.Cost).
		TriggerSummaryRefresh().
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + escape(msg) + `</div>`).
		Write(w)
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.NewFields().WithOperation(applog.OpRender).WithError(err).ToSlice()...)
		InternalServerError("The page could not be rendered.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError writes an HTML error fragment with the same status mapping
// as the JSON API.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard request failed", applog.FieldError, err)
	}
	msg := payload.Message
	if payload.Field != "" {
		msg = payload.Field + ": " + msg
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}
