package news

import (
	"context"
	"net/http"
	"strconv"

	"beegate/internal/httputils"
	"beegate/internal/observability/logging"

	"github.com/gorilla/mux"
)

const (
	listCacheControl = "public, s-maxage=1800, stale-while-revalidate=3600"
	itemCacheControl = "public, s-maxage=3600, stale-while-revalidate=7200"
)

// Store is what the handlers need from the aggregator
type Store interface {
	Search(ctx context.Context, f Filter) ([]Item, error)
	ByID(ctx context.Context, id string) (*Item, error)
}

type errorBody struct {
	Error string `json:"error"`
}

type listErrorBody struct {
	Error string `json:"error"`
	Items []Item `json:"items"`
	Count int    `json:"count"`
}

// Handler serves /api/news and /api/news/{id}
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates the news handlers
func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger.WithModule("news")}
}

// Register mounts the news routes on r. Item ids are base64 and may contain "/".
func (h *Handler) Register(r *mux.Router) {
	r.Path("/api/news").Methods(http.MethodGet).Name("news-list").HandlerFunc(h.List)
	r.Path("/api/news/{id:.+}").Methods(http.MethodGet).Name("news-item").HandlerFunc(h.Get)
}

// FilterFromQuery reads q, topic, type and limit. A non-numeric or non-positive limit is ignored.
func FilterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{
		Query: q.Get("q"),
		Topic: Topic(q.Get("topic")),
		Type:  Type(q.Get("type")),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		f.Limit = limit
	}
	return f
}

// List answers the filtered item list
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Search(r.Context(), FilterFromQuery(r))
	if err != nil {
		logging.FromContextOr(r.Context(), h.logger).Error("News fetch failed", logging.Err(err))
		httputils.WriteJSON(w, http.StatusInternalServerError, listErrorBody{
			Error: "Failed to fetch news",
			Items: []Item{},
		})
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	httputils.WriteJSON(w, http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

// Get answers a single item
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.ByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logging.FromContextOr(r.Context(), h.logger).Error("News item fetch failed", logging.Err(err))
		httputils.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch news item"})
		return
	}
	if item == nil {
		httputils.WriteJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
		return
	}

	w.Header().Set("Cache-Control", itemCacheControl)
	httputils.WriteJSON(w, http.StatusOK, item)
}
