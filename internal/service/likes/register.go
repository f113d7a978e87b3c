package likes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/httpx"
)

// Registrar ties the likes service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	svc := NewLikesService(r.appCtx)
	router.HandleFunc("/api/likes", func(w http.ResponseWriter, req *http.Request) {
		var body api.LikeRequest
		if err := httpx.Decode(w, req, &body); err != nil {
			httpx.Error(w, req, err)
			return
		}
		if err := svc.Like(req.Context(), body.PostID); err != nil {
			httpx.Error(w, req, err)
			return
		}
		httpx.JSON(w, req, http.StatusOK, api.Success{Success: true})
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/likes", func(w http.ResponseWriter, req *http.Request) {
		var body api.LikeRequest
		if err := httpx.Decode(w, req, &body); err != nil {
			httpx.Error(w, req, err)
			return
		}
		if err := svc.Unlike(req.Context(), body.PostID); err != nil {
			httpx.Error(w, req, err)
			return
		}
		httpx.JSON(w, req, http.StatusOK, api.Success{Success: true})
	}).Methods(http.MethodDelete)
}
