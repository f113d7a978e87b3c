package comments

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/httpx"
	"github.com/oggyb/picfeed/internal/utils/pagination"
)

// Registrar ties the comments service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	h := &handler{svc: NewCommentsService(r.appCtx)}
	router.HandleFunc("/api/posts/{postId}/comments", h.list).Methods(http.MethodGet)
	router.HandleFunc("/api/comments", h.create).Methods(http.MethodPost)
	router.HandleFunc("/api/comments/{commentId}", h.delete).Methods(http.MethodDelete)
}

type handler struct {
	svc *Service
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := pagination.Parse(q.Get("page"), q.Get("limit"), DefaultLimit)
	if err != nil {
		httpx.Error(w, r, svcErr.InvalidArgument(err.Error()))
		return
	}
	page, err := h.svc.ListComments(r.Context(), mux.Vars(r)["postId"], req, q.Get("order") == "asc")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, page)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCommentRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	c, err := h.svc.CreateComment(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, api.CommentResponse{Comment: c})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteComment(r.Context(), mux.Vars(r)["commentId"]); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, api.Success{Success: true})
}
