package router

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/dictionary"
	"github.com/conduit-lang/descriptor/internal/util/convert"
	"github.com/conduit-lang/descriptor/internal/web/middleware"
	"github.com/conduit-lang/descriptor/internal/web/response"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errMethodNotAllowed = errors.New("method not allowed")

type handlers struct {
	model  *model.Model
	dict   dictionary.PaginatedDictionary
	logger *zap.Logger
}

// entityList is the body of GET /entities
type entityList struct {
	Entities []model.EntitySummary `json:"entities"`
}

// entityCount is the body of GET /entities/{name}/count
type entityCount struct {
	Entity string `json:"entity"`
	Total  int    `json:"total"`
}

func (h *handlers) listEntities(w http.ResponseWriter, r *http.Request) {
	entities := h.model.Entities()
	body := entityList{Entities: make([]model.EntitySummary, 0, len(entities))}
	for _, d := range entities {
		body.Entities = append(body.Entities, d.Summary())
	}
	response.RenderJSON(w, http.StatusOK, body)
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	d, ok := h.entity(w, r)
	if !ok {
		return
	}

	row, err := intParam(r, "row", 0)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	count, err := intParam(r, "count", DefaultPageSize)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	if count > MaxPageSize {
		count = MaxPageSize
	}

	total, err := h.dict.LookupTotals(r.Context(), d)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	entities, err := h.dict.LookupPaginated(r.Context(), d, row, count)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	items := make([]any, 0, len(entities))
	for _, entity := range entities {
		item, err := h.model.Map(d, entity)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		items = append(items, item)
	}

	response.RenderJSON(w, http.StatusOK, response.Page{
		Entity: d.Name(),
		Row:    row,
		Count:  len(items),
		Total:  total,
		Items:  items,
	})
}

func (h *handlers) count(w http.ResponseWriter, r *http.Request) {
	d, ok := h.entity(w, r)
	if !ok {
		return
	}

	total, err := h.dict.LookupTotals(r.Context(), d)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	response.RenderJSON(w, http.StatusOK, entityCount{Entity: d.Name(), Total: total})
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.entity(w, r)
	if !ok {
		return
	}
	keyed, ok := d.Keyed()
	if !ok {
		response.RenderBadRequest(w, fmt.Sprintf("entity %s has no key", d.Name()))
		return
	}

	raw, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	key, err := convert.FromString(raw, keyed.KeyType())
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	entity, found, err := h.dict.LookupKey(r.Context(), keyed, key)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		response.RenderNotFound(w, fmt.Sprintf("no %s with key %s", d.Name(), raw))
		return
	}

	item, err := h.model.Map(d, entity)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	response.RenderJSON(w, http.StatusOK, item)
}

// entity resolves the {name} parameter, answering 404 when it is unknown
func (h *handlers) entity(w http.ResponseWriter, r *http.Request) (*model.EntityDescriptor, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return nil, false
	}
	d, ok := h.model.EntityNamed(name)
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown entity %s", name))
		return nil, false
	}
	return d, true
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	response.RenderInternalError(w)
}

// intParam reads a non-negative integer query parameter
func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, s)
	}
	return n, nil
}
