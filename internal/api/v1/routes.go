// Package v1 provides the content sync API: content-change events, manual
// sync control and job status.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stacklok/content-sync-server/internal/api/common"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/status"
	"github.com/stacklok/content-sync-server/internal/sync/scheduler"
	"github.com/stacklok/content-sync-server/internal/validators"
)

// ItemRequest is the body of content-change events
type ItemRequest struct {
	Title            string             `json:"title"`
	Slug             string             `json:"slug,omitempty"`
	Status           content.ItemStatus `json:"status"`
	Body             string             `json:"body"`
	Excerpt          string             `json:"excerpt,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
	Categories       []string           `json:"categories,omitempty"`
	FeaturedImage    string             `json:"featuredImage,omitempty"`
	Images           []string           `json:"images,omitempty"`
	SyndicationOptIn bool               `json:"syndicationOptIn,omitempty"`
	PublishedAt      *time.Time         `json:"publishedAt,omitempty"`
}

// ItemResponse answers content-change events
type ItemResponse struct {
	Item *content.Item `json:"item"`
	// Queued reports whether a sync or a deletion was scheduled
	Queued bool `json:"queued"`
}

// QueueResponse answers manual sync requests
type QueueResponse struct {
	ItemID string `json:"itemId"`
	Queued bool   `json:"queued"`
}

// StatusResponse lists every known job
type StatusResponse struct {
	Jobs   map[string]status.JobStatus `json:"jobs"`
	Counts map[status.JobStatus]int    `json:"counts"`
	Total  int                         `json:"total"`
}

// BulkRequest selects the items of a bulk sync. An empty body selects every
// published item.
type BulkRequest struct {
	Status content.ItemStatus `json:"status,omitempty"`
	IDs    []string           `json:"ids,omitempty"`
}

// Routes handles HTTP requests for the v1 endpoints.
type Routes struct {
	scheduler scheduler.Scheduler
	contents  content.Store
	now       func() time.Time
}

// NewRoutes creates a new Routes instance.
func NewRoutes(sched scheduler.Scheduler, contents content.Store) *Routes {
	return &Routes{
		scheduler: sched,
		contents:  contents,
		now:       time.Now,
	}
}

// Router creates and configures the HTTP router for the v1 endpoints.
func Router(sched scheduler.Scheduler, contents content.Store) http.Handler {
	return NewRoutes(sched, contents).Handler()
}

// Handler returns the router serving these routes.
func (routes *Routes) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/items", routes.createItem)
	r.Route("/items/{id}", func(r chi.Router) {
		r.Put("/", routes.putItem)
		r.Delete("/", routes.deleteItem)
		r.Post("/sync", routes.syncItem)
		r.Post("/cancel", routes.cancelItem)
		r.Get("/status", routes.itemStatus)
	})
	r.Get("/status", routes.listStatus)
	r.Post("/sync/bulk", routes.bulkSync)
	r.Post("/sync/retry-failed", routes.retryFailed)

	return r
}

// createItem handles POST /v1/items
func (routes *Routes) createItem(w http.ResponseWriter, r *http.Request) {
	routes.storeItem(w, r, uuid.NewString(), http.StatusCreated)
}

// putItem handles PUT /v1/items/{id}, the content-change event of an item
func (routes *Routes) putItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := common.ItemIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	routes.storeItem(w, r, itemID, http.StatusOK)
}

func (routes *Routes) storeItem(w http.ResponseWriter, r *http.Request, itemID string, code int) {
	var req ItemRequest
	if err := common.DecodeJSONBody(w, r, &req, false); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = content.StatusDraft
	}
	if !req.Status.IsValid() {
		common.WriteErrorResponse(w, "Invalid status: "+string(req.Status), http.StatusBadRequest)
		return
	}

	if err := normalizeItemRequest(&req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	item := &content.Item{
		ID:               itemID,
		Title:            req.Title,
		Slug:             req.Slug,
		Status:           req.Status,
		Body:             req.Body,
		Excerpt:          req.Excerpt,
		Tags:             req.Tags,
		Categories:       req.Categories,
		FeaturedImage:    req.FeaturedImage,
		Images:           req.Images,
		SyndicationOptIn: req.SyndicationOptIn,
		PublishedAt:      req.PublishedAt,
		UpdatedAt:        routes.now().UTC(),
	}
	if item.Status == content.StatusPublished && item.PublishedAt == nil {
		published := item.UpdatedAt
		item.PublishedAt = &published
	}

	ctx := r.Context()
	if err := routes.contents.Upsert(ctx, item); err != nil {
		routes.writeStoreError(w, "Failed to store item", err)
		return
	}

	var (
		queued bool
		err    error
	)
	switch item.Status {
	case content.StatusPublished:
		queued, err = routes.scheduler.Enqueue(ctx, itemID, scheduler.DefaultPriority)
	case content.StatusTrash:
		queued, err = routes.scheduler.EnqueueDeletion(ctx, itemID)
	case content.StatusDraft:
	}
	if err != nil {
		slog.Error("Failed to schedule item", "item_id", itemID, "status", item.Status, "error", err)
		common.WriteErrorResponse(w, "Item stored but could not be scheduled", http.StatusInternalServerError)
		return
	}

	stored, err := routes.contents.Get(ctx, itemID)
	if err != nil {
		stored = item
	}
	common.WriteJSONResponse(w, ItemResponse{Item: stored, Queued: queued}, code)
}

// normalizeItemRequest trims and validates the editable fields in place
func normalizeItemRequest(req *ItemRequest) error {
	var err error
	if req.Title, err = validators.ValidateTitle(req.Title); err != nil {
		return err
	}
	if req.Slug, err = validators.ValidateSlug(req.Slug); err != nil {
		return err
	}
	if req.Tags, err = validators.ValidateTerms("tags", req.Tags); err != nil {
		return err
	}
	if req.Categories, err = validators.ValidateTerms("categories", req.Categories); err != nil {
		return err
	}
	if req.FeaturedImage != "" {
		if err := validators.ValidateImageRef(req.FeaturedImage); err != nil {
			return err
		}
	}
	for _, ref := range req.Images {
		if err := validators.ValidateImageRef(ref); err != nil {
			return err
		}
	}
	return nil
}

// deleteItem handles DELETE /v1/items/{id}. Published copies stay on the
// remote targets; trash the item first to remove them.
func (routes *Routes) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := common.ItemIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := routes.scheduler.Purge(r.Context(), itemID); err != nil {
		routes.writeStoreError(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncItem handles POST /v1/items/{id}/sync
func (routes *Routes) syncItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := common.ItemIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	exists, err := routes.contents.Exists(ctx, itemID)
	if err != nil {
		routes.writeStoreError(w, "Failed to look up item", err)
		return
	}
	if !exists {
		common.WriteErrorResponse(w, "Item not found", http.StatusNotFound)
		return
	}

	queued, err := routes.scheduler.Enqueue(ctx, itemID, scheduler.DefaultPriority)
	if err != nil {
		routes.writeStoreError(w, "Failed to schedule sync", err)
		return
	}
	common.WriteJSONResponse(w, QueueResponse{ItemID: itemID, Queued: queued}, http.StatusAccepted)
}

// cancelItem handles POST /v1/items/{id}/cancel
func (routes *Routes) cancelItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := common.ItemIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := routes.scheduler.Cancel(r.Context(), itemID); err != nil {
		routes.writeStoreError(w, "Failed to cancel sync", err)
		return
	}
	routes.writeJob(w, r, itemID)
}

// itemStatus handles GET /v1/items/{id}/status
func (routes *Routes) itemStatus(w http.ResponseWriter, r *http.Request) {
	itemID, err := common.ItemIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	routes.writeJob(w, r, itemID)
}

func (routes *Routes) writeJob(w http.ResponseWriter, r *http.Request, itemID string) {
	job, err := routes.scheduler.GetStatus(r.Context(), itemID)
	if err != nil {
		routes.writeStoreError(w, "Failed to read job", err)
		return
	}
	// never scheduled
	if job.ItemID == "" {
		job.ItemID = itemID
	}
	common.WriteJSONResponse(w, job, http.StatusOK)
}

// listStatus handles GET /v1/status
func (routes *Routes) listStatus(w http.ResponseWriter, r *http.Request) {
	jobs, err := routes.scheduler.ListStatuses(r.Context())
	if err != nil {
		routes.writeStoreError(w, "Failed to list jobs", err)
		return
	}

	counts := make(map[status.JobStatus]int)
	for _, s := range jobs {
		counts[s]++
	}
	common.WriteJSONResponse(w, StatusResponse{Jobs: jobs, Counts: counts, Total: len(jobs)}, http.StatusOK)
}

// bulkSync handles POST /v1/sync/bulk
func (routes *Routes) bulkSync(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := common.DecodeJSONBody(w, r, &req, true); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status != "" && !req.Status.IsValid() {
		common.WriteErrorResponse(w, "Invalid status: "+string(req.Status), http.StatusBadRequest)
		return
	}

	result, err := routes.scheduler.BulkEnqueue(r.Context(), content.Filter{Status: req.Status, IDs: req.IDs})
	if err != nil {
		routes.writeStoreError(w, "Failed to schedule bulk sync", err)
		return
	}
	common.WriteJSONResponse(w, result, http.StatusAccepted)
}

// retryFailed handles POST /v1/sync/retry-failed
func (routes *Routes) retryFailed(w http.ResponseWriter, r *http.Request) {
	result, err := routes.scheduler.RetryFailed(r.Context())
	if err != nil {
		routes.writeStoreError(w, "Failed to retry failed jobs", err)
		return
	}
	common.WriteJSONResponse(w, result, http.StatusAccepted)
}

func (*Routes) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, status.ErrInvalidItemID):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, content.ErrNotFound):
		common.WriteErrorResponse(w, "Item not found", http.StatusNotFound)
	default:
		slog.Error(message, "error", err)
		common.WriteErrorResponse(w, message, http.StatusInternalServerError)
	}
}
