package web

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/hazyhaar/sinapp/apperr"
	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/interop"
	"github.com/hazyhaar/sinapp/kit"
	"github.com/hazyhaar/sinapp/observability"
	"github.com/hazyhaar/sinapp/routes"
	"github.com/hazyhaar/sinapp/session"
	"github.com/hazyhaar/sinapp/shield"
	"github.com/hazyhaar/sinapp/steps"
	"github.com/hazyhaar/sinapp/wizard"
)

// Form post actions.
const (
	actionNext    = "next"
	actionBack    = "back"
	actionCancel  = "cancel"
	actionSubmit  = "submit"
	actionRestart = "restart"
	actionFinish  = "finish"
)

var actions = []string{actionNext, actionBack, actionCancel, actionSubmit, actionRestart, actionFinish}

// run is the per-request wizard context.
type run struct {
	route routes.ID
	lang  routes.Lang
	tid   string
	sess  *session.Session
	actor *wizard.Actor
}

// handleWizard serves both the loader (GET) and the action (POST) of one
// wizard route. The actor's state decides which route may be shown; any
// other route redirects to it.
func (s *Server) handleWizard(id routes.ID, lang routes.Lang) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := r.URL.Query().Get("tid")
		if !wizard.ValidTabID(tid) {
			if r.Method == http.MethodPost {
				http.Redirect(w, r, routes.Path(id, lang), http.StatusFound)
				return
			}
			s.render(w, r, http.StatusOK, "loading", s.newPage(r, lang, "loading.title"))
			return
		}

		ctx := kit.WithTabID(r.Context(), tid)
		r = r.WithContext(ctx)
		sess := session.FromContext(ctx)
		if sess == nil {
			s.renderError(w, r, lang, apperr.New(apperr.CodeInternal, "no session"))
			return
		}

		rn := &run{route: id, lang: lang, tid: tid, sess: sess}
		rn.actor = s.wizard.LoadOrCreate(ctx, sess, tid)

		if want := wizard.StateRoute(rn.actor); want != id {
			shield.GetLogger(ctx).Debug("wizard route mismatch", "tab_id", tid, "requested", id, "state", rn.actor.State())
			http.Redirect(w, r, routes.WithTab(want, lang, tid), http.StatusFound)
			return
		}

		if r.Method == http.MethodPost {
			s.act(w, r, rn)
			return
		}

		if !rn.actor.Restored() {
			if err := s.wizard.Persist(ctx, sess, tid, rn.actor); err != nil {
				s.renderError(w, r, lang, err)
				return
			}
		}
		s.show(w, r, rn, nil, nil, http.StatusOK)
	}
}

func (s *Server) act(w http.ResponseWriter, r *http.Request, rn *run) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, rn.lang, apperr.Wrap(apperr.CodeBadForm, "could not read form", err))
		return
	}
	action := r.PostForm.Get("action")
	state := rn.actor.State()

	switch {
	case isStep(state):
		switch action {
		case actionNext:
			s.next(w, r, rn)
			return
		case actionBack:
			s.apply(w, r, rn, wizard.Back())
			return
		case actionCancel:
			s.apply(w, r, rn, wizard.Cancel())
			return
		}
	case state == wizard.Review:
		switch action {
		case actionSubmit:
			s.submit(w, r, rn)
			return
		case actionBack:
			s.apply(w, r, rn, wizard.Back())
			return
		case actionCancel:
			s.apply(w, r, rn, wizard.Cancel())
			return
		}
	case state == wizard.Abandoned && action == actionRestart,
		state == wizard.Submitted && action == actionFinish:
		s.wizard.Remove(r.Context(), rn.sess, rn.tid)
		http.Redirect(w, r, routes.WithTab(routes.PrivacyStatement, rn.lang, rn.tid), http.StatusFound)
		return
	case state == wizard.Abandoned || state == wizard.Submitted:
		// A final snapshot accepts no events; stale forms land back on its page.
		if slices.Contains(actions, action) {
			shield.GetLogger(r.Context()).Info("action ignored in final state", "tab_id", rn.tid, "action", action, "state", state)
			http.Redirect(w, r, routes.WithTab(wizard.StateRoute(rn.actor), rn.lang, rn.tid), http.StatusFound)
			return
		}
	}

	s.renderError(w, r, rn.lang, apperr.New(apperr.CodeUnrecognizedAction,
		"action "+strconv.Quote(action)+" is not valid in state "+string(state)))
}

func isStep(s wizard.State) bool {
	_, ok := s.StepID()
	return ok
}

// next validates the posted step. Invalid data stays on the page with the
// errors recorded in the snapshot and the submitted values echoed back.
func (s *Server) next(w http.ResponseWriter, r *http.Request, rn *run) {
	id, _ := rn.actor.State().StepID()
	data, bag, err := steps.Parse(id, steps.NewForm(r.PostForm).WithClock(s.now))
	if err != nil {
		s.renderError(w, r, rn.lang, apperr.Wrap(apperr.CodeInternal, "no schema for step", err))
		return
	}
	if !bag.Empty() {
		if err := s.send(r, rn, wizard.Invalid(bag)); err != nil {
			s.renderError(w, r, rn.lang, err)
			return
		}
		s.show(w, r, rn, r.PostForm, bag, http.StatusOK)
		return
	}
	s.apply(w, r, rn, wizard.Next(data))
}

// submit files the application and records the returned case id.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, rn *run) {
	ctx := r.Context()
	var submittedBy string
	if c := auth.GetClaims(ctx); c != nil {
		submittedBy = c.UserID
	}

	app, err := interop.NewApplication(rn.actor.Context(), submittedBy)
	if err == nil {
		var caseID string
		caseID, err = s.cases.CreateCase(ctx, app)
		if err == nil {
			s.events.Record(ctx, observability.Event{
				Type:    observability.TypeWizardSubmitted,
				Action:  actionSubmit,
				Details: map[string]string{"caseId": caseID},
				Success: true,
			})
			if err := s.send(r, rn, wizard.Filed(caseID)); err != nil {
				// The case exists upstream but the tab still shows review.
				shield.GetLogger(ctx).Error("case filed but not recorded",
					"tab_id", rn.tid, "case_id", caseID, "user_id", submittedBy, "error", err)
				s.renderError(w, r, rn.lang, err)
				return
			}
			http.Redirect(w, r, routes.WithTab(wizard.StateRoute(rn.actor), rn.lang, rn.tid), http.StatusFound)
			return
		}
	}

	s.events.Record(ctx, observability.Event{
		Type:    observability.TypeWizardSubmitted,
		Action:  actionSubmit,
		Details: map[string]string{"code": string(apperr.CodeOf(err))},
	})
	s.renderError(w, r, rn.lang, err)
}

// apply sends e, persists and redirects to the route of the new state.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, rn *run, e wizard.Event) {
	if err := s.send(r, rn, e); err != nil {
		s.renderError(w, r, rn.lang, err)
		return
	}
	http.Redirect(w, r, routes.WithTab(wizard.StateRoute(rn.actor), rn.lang, rn.tid), http.StatusFound)
}

func (s *Server) send(r *http.Request, rn *run, e wizard.Event) error {
	ctx := r.Context()
	from := rn.actor.State()
	if err := rn.actor.Send(e); err != nil {
		var invalid *wizard.ErrInvalidTransition
		if errors.As(err, &invalid) {
			return apperr.Wrap(apperr.CodeUnrecognizedAction, "event not accepted in this state", err)
		}
		return apperr.Wrap(apperr.CodeInternal, "wizard transition failed", err)
	}
	if err := s.wizard.Persist(ctx, rn.sess, rn.tid, rn.actor); err != nil {
		return err
	}

	to := rn.actor.State()
	ev := observability.Event{
		Type:    observability.TypeWizardTransition,
		Action:  string(e.Type),
		Details: map[string]string{"from": string(from), "to": string(to)},
		Success: e.Errors.Empty(),
	}
	if !e.Errors.Empty() {
		ev.Details["errors"] = strconv.Itoa(len(e.Errors))
	}
	if to == wizard.Abandoned {
		ev.Type = observability.TypeWizardAbandoned
	}
	s.events.Record(ctx, ev)
	shield.GetLogger(ctx).Info("wizard transition", "tab_id", rn.tid, "event", e.Type, "from", from, "to", to)
	return nil
}

// show renders the page for the actor's current state. values and bag are
// set when re-rendering a rejected post.
func (s *Server) show(w http.ResponseWriter, r *http.Request, rn *run, values url.Values, bag steps.ErrorBag, status int) {
	state := rn.actor.State()
	c := rn.actor.Context()

	var (
		p    *page
		name string
	)
	switch {
	case isStep(state):
		id, _ := state.StepID()
		if values == nil {
			values = url.Values{}
			if d := c.Get(id); d != nil {
				values = d.FormValues()
			}
		}
		if bag == nil {
			bag = c.ErrorsFor(state)
		}
		p = s.newPage(r, rn.lang, "title."+string(id))
		p.Fields = buildFields(p.translator, id, values, bag)
		p.HasErrors = !bag.Empty()
		p.CanGoBack = slices.Contains(s.wizard.Machine().Events(state), wizard.EventBack)
		name = "step"
	case state == wizard.Review:
		p = s.newPage(r, rn.lang, "title.review")
		p.Review = buildReview(p.translator, collected(c))
		name = "review"
	case state == wizard.Abandoned:
		p = s.newPage(r, rn.lang, "title.abandoned")
		name = "abandoned"
	case state == wizard.Submitted:
		p = s.newPage(r, rn.lang, "title.submitted")
		p.CaseID = c.CaseID
		name = "confirmation"
	default:
		s.renderError(w, r, rn.lang, apperr.New(apperr.CodeInternal, "no page for state "+string(state)))
		return
	}

	p.TabID = rn.tid
	p.FormAction = routes.WithTab(rn.route, rn.lang, rn.tid)
	p.AltLang = routes.WithTab(rn.route, rn.lang.Other(), rn.tid)
	s.render(w, r, status, name, p)
}

// collected returns the step data that will be submitted, in wizard order.
// A secondary document left over from an earlier primary document choice is
// skipped.
func collected(c wizard.Context) []steps.Data {
	var out []steps.Data
	for _, st := range wizard.Steps {
		id, ok := st.StepID()
		if !ok {
			continue
		}
		if st == wizard.SecondaryDocument && (c.PrimaryDocuments == nil || !c.PrimaryDocuments.RequiresSecondaryDocument()) {
			continue
		}
		if d := c.Get(id); d != nil {
			out = append(out, d)
		}
	}
	return out
}
