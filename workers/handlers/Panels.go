package handlers

import (
	"net/http"

	"ibtbridge/panel"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

func (d *Dashboard) GetPanels(w http.ResponseWriter, r *http.Request) {
	views := make([]panel.View, 0, len(d.Panels))
	for _, name := range d.names() {
		views = append(views, d.Panels[name].View())
	}
	responseJSON(w, &APIPanelsResponse{
		Status: "ok",
		Panels: views,
	}, http.StatusOK)
}

func (d *Dashboard) GetPanel(w http.ResponseWriter, r *http.Request) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}
	responseJSON(w, p.View(), http.StatusOK)
}

func (d *Dashboard) Connect(w http.ResponseWriter, r *http.Request) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}
	if _, err := p.Connect(r.Context()); err != nil {
		log.Printf("Error connecting %s panel: %s", p.Name(), err.Error())
		responseError(w, err)
		return
	}
	responseJSON(w, p.View(), http.StatusOK)
}

func (d *Dashboard) Disconnect(w http.ResponseWriter, r *http.Request) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}
	if err := p.Disconnect(r.Context()); err != nil {
		responseError(w, err)
		return
	}
	responseJSON(w, p.View(), http.StatusOK)
}

func (d *Dashboard) Refresh(w http.ResponseWriter, r *http.Request) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}
	// a failed read is shown in the view as "fetching failed"
	if err := p.Refresh(r.Context()); err != nil {
		log.Printf("Error refreshing %s panel: %s", p.Name(), err.Error())
		if p.Connection().Connected {
			responseJSON(w, p.View(), http.StatusOK)
			return
		}
		responseError(w, err)
		return
	}
	responseJSON(w, p.View(), http.StatusOK)
}

func (d *Dashboard) GetForm(w http.ResponseWriter, r *http.Request) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}
	form, ok := p.Form(chi.URLParam(r, "form"))
	if !ok {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "form",
			Message: "No operation on this form",
		}, http.StatusNotFound)
		return
	}
	responseJSON(w, form, http.StatusOK)
}

// GetBalance answers the balance line as plain text, e.g. "5 IBT".
func (d *Dashboard) GetBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}
	responsePlain(w, []byte(p.View().Balance), http.StatusOK)
}
