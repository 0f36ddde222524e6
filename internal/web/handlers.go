package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/logging"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
	"github.com/JonMunkholm/dashboard/internal/web/templates"
)

// MountResponse is returned when a table instance is mounted.
type MountResponse struct {
	ID    string        `json:"id"`
	View  core.ViewInfo `json:"view"`
	Mode  pipeline.Mode `json:"mode"`
	Table pipeline.View `json:"table"`
}

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var groups []templates.ViewGroup
	for _, name := range core.Groups() {
		defs := core.ByGroup(name)
		cards := make([]templates.ViewCard, len(defs))
		for i, def := range defs {
			cards[i] = templates.ViewCard{Info: def.Info, Mode: def.Mode}
		}
		groups = append(groups, templates.ViewGroup{Name: name, Views: cards})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(groups).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// handleListViews returns all views organized by group.
func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	byGroup := make(map[string][]core.ViewInfo)
	for _, def := range core.All() {
		byGroup[def.Info.Group] = append(byGroup[def.Info.Group], def.Info)
	}
	writeJSON(r.Context(), w, http.StatusOK, byGroup)
}

// handleViewPage mounts a fresh instance and renders it as a page, or as the
// bare table partial for HTMX navigation.
func (s *Server) handleViewPage(w http.ResponseWriter, r *http.Request) {
	inst, err := s.mount(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	data := s.tableData(inst, inst.view())
	component := templates.TablePage(data)
	if isHTMX(r) {
		component = templates.Table(data)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		logging.ForInstance(r.Context(), inst.def.Info.Key, inst.id).Error("render table", "error", err)
	}
}

// handleMount creates a table instance for a view.
func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	inst, err := s.mount(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, MountResponse{
		ID:    inst.id,
		View:  inst.def.Info,
		Mode:  inst.def.Mode,
		Table: inst.view(),
	})
}

// handleInstance returns the current view of a mounted table.
func (s *Server) handleInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondView(w, r, inst, inst.view())
}

// handleUnmount drops a mounted table and its state.
func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.remove(id) {
		s.respondError(w, r, errInstanceNotFound, http.StatusNotFound)
		return
	}
	logging.FromContext(r.Context()).Debug("table unmounted", "instance_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent dispatches one table event and returns the resulting view.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	e, err := decodeEvent(w, r, inst.def)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	events := []pipeline.Event{e}
	// Enter and blur carry the box's text in case the last keystrokes were
	// never sent as a draft.
	if (e.Type == pipeline.EventSearchKey || e.Type == pipeline.EventSearchBlur) && hasText(r, e) {
		events = []pipeline.Event{pipeline.SearchInput(e.Text), e}
	}

	logger := logging.ForInstance(r.Context(), inst.def.Info.Key, inst.id)
	view, err := inst.dispatch(r.Context(), s.source, events...)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logger.Debug("table event", "type", e.Type, "page", view.Page.Page, "total", view.Page.TotalCount)

	s.respondView(w, r, inst, view)
}

func hasText(r *http.Request, e pipeline.Event) bool {
	if r.Form != nil {
		_, ok := r.Form["text"]
		return ok
	}
	return e.Text != ""
}

func (s *Server) mount(r *http.Request) (*instance, error) {
	def, err := core.Lookup(chi.URLParam(r, "viewKey"))
	if err != nil {
		return nil, err
	}

	inst, err := mount(r.Context(), s.source, def, s.table)
	if err != nil {
		return nil, err
	}
	if err := s.store.add(inst); err != nil {
		return nil, err
	}

	logging.ForInstance(r.Context(), def.Info.Key, inst.id).Info("table mounted", "mode", def.Mode.String())
	return inst, nil
}

// respondView writes the table partial for HTMX requests and JSON otherwise.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, inst *instance, view pipeline.View) {
	if !isHTMX(r) {
		writeJSON(r.Context(), w, http.StatusOK, view)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Table(s.tableData(inst, view)).Render(r.Context(), w); err != nil {
		logging.ForInstance(r.Context(), inst.def.Info.Key, inst.id).Error("render table", "error", err)
	}
}

func (s *Server) tableData(inst *instance, view pipeline.View) templates.TableData {
	return templates.TableData{
		InstanceID:    inst.id,
		Info:          inst.def.Info,
		SearchEnabled: inst.def.SearchEnabled,
		Filters:       inst.def.Filters,
		View:          view,
		Display:       inst.display,
	}
}
