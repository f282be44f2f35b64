package handlers

import (
	"net/http"

	"ibtbridge/types"

	log "github.com/sirupsen/logrus"
)

func (d *Dashboard) Mint(w http.ResponseWriter, r *http.Request) {
	d.submit(w, r, types.Mint)
}

func (d *Dashboard) Burn(w http.ResponseWriter, r *http.Request) {
	d.submit(w, r, types.Burn)
}

// submit answers once the call is handed to the wallet, or once it is
// confirmed or failed when ?wait=true.
func (d *Dashboard) submit(w http.ResponseWriter, r *http.Request, kind types.OperationKind) {
	p, ok := d.panel(w, r)
	if !ok {
		return
	}

	params := map[string]string{}
	if !decodeBody(w, r, &params) {
		return
	}
	form := string(kind)

	_, sub, err := p.Submit(r.Context(), form, kind, params)
	if err != nil {
		log.Printf("Error submitting %s on %s panel: %s", kind, p.Name(), err.Error())
		responseError(w, err)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		if _, err := sub.Wait(r.Context()); err != nil {
			responseError(w, err)
			return
		}
	}

	view, _ := p.Form(form)
	responseJSON(w, &APISubmitResponse{
		Status: "ok",
		Form:   view,
	}, http.StatusAccepted)
}
