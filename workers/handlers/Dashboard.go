package handlers

import (
	"net/http"
	"sort"

	"ibtbridge/panel"

	"github.com/go-chi/chi"
)

// NetworkSelector switches the Sui wallet to another configured network.
type NetworkSelector interface {
	SelectNetwork(name string) error
}

// AccountSetter pushes an accountsChanged event through the EVM wallet.
type AccountSetter interface {
	SetAccounts(accounts []string)
}

// Dashboard serves the panels. Panels are keyed by route name, "eth"
// and "sui".
type Dashboard struct {
	Panels   map[string]*panel.Panel
	Networks NetworkSelector
	Accounts AccountSetter
	// journal is only queried when enabled
	JournalEnabled bool
}

func (d *Dashboard) panel(w http.ResponseWriter, r *http.Request) (*panel.Panel, bool) {
	name := chi.URLParam(r, "chain")
	p, ok := d.Panels[name]
	if !ok {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "chain",
			Message: "Unknown panel " + name,
		}, http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (d *Dashboard) names() []string {
	names := make([]string, 0, len(d.Panels))
	for name := range d.Panels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
