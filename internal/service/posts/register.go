package posts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/httpx"
	"github.com/oggyb/picfeed/internal/utils/pagination"
)

// Registrar ties the posts service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the feed and post routes.
func (r *Registrar) Register(router *mux.Router) {
	h := &handler{svc: NewPostsService(r.appCtx)}
	router.HandleFunc("/api/posts", h.list).Methods(http.MethodGet)
	router.HandleFunc("/api/posts", h.create).Methods(http.MethodPost)
	router.HandleFunc("/api/posts/upload", h.upload).Methods(http.MethodPost)
	router.HandleFunc("/api/posts/{postId}", h.get).Methods(http.MethodGet)
	router.HandleFunc("/api/posts/{postId}", h.delete).Methods(http.MethodDelete)
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
	page, err := h.svc.ListPosts(r.Context(), req, q.Get("userId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, page)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPost(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, api.PostResponse{Post: p})
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req api.CreatePostRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.CreatePost(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, api.PostResponse{Post: p})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), mux.Vars(r)["postId"]); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, api.Success{Success: true})
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.UploadImage(r.Context(), r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, api.UploadResponse{ImageURL: url})
}
