package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/httpx"
)

// Registrar ties the users service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	svc := NewUsersService(r.appCtx)

	router.HandleFunc("/api/users/sync", func(w http.ResponseWriter, req *http.Request) {
		u, err := svc.Sync(req.Context())
		if err != nil {
			httpx.Error(w, req, err)
			return
		}
		httpx.JSON(w, req, http.StatusOK, api.SyncResponse{User: u})
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/users/{userId}", func(w http.ResponseWriter, req *http.Request) {
		p, err := svc.Profile(req.Context(), mux.Vars(req)["userId"])
		if err != nil {
			httpx.Error(w, req, err)
			return
		}
		httpx.JSON(w, req, http.StatusOK, api.ProfileResponse{User: p})
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/search", func(w http.ResponseWriter, req *http.Request) {
		found, err := svc.Search(req.Context(), req.URL.Query().Get("q"))
		if err != nil {
			httpx.Error(w, req, err)
			return
		}
		httpx.JSON(w, req, http.StatusOK, api.SearchResponse{Users: found})
	}).Methods(http.MethodGet)
}
