package follows

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/httpx"
)

// Registrar ties the follows service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches POST and DELETE /api/follows. A new edge answers 201,
// an existing one 200.
func (r *Registrar) Register(router *mux.Router) {
	svc := NewFollowsService(r.appCtx)

	router.HandleFunc("/api/follows", func(w http.ResponseWriter, req *http.Request) {
		var body api.FollowRequest
		if err := httpx.Decode(w, req, &body); err != nil {
			httpx.Error(w, req, err)
			return
		}
		created, err := svc.Follow(req.Context(), body.FollowingID)
		if err != nil {
			httpx.Error(w, req, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		httpx.JSON(w, req, status, api.FollowResponse{Success: true, IsFollowing: true})
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/follows", func(w http.ResponseWriter, req *http.Request) {
		var body api.FollowRequest
		if err := httpx.Decode(w, req, &body); err != nil {
			httpx.Error(w, req, err)
			return
		}
		if err := svc.Unfollow(req.Context(), body.FollowingID); err != nil {
			httpx.Error(w, req, err)
			return
		}
		httpx.JSON(w, req, http.StatusOK, api.FollowResponse{Success: true, IsFollowing: false})
	}).Methods(http.MethodDelete)
}
