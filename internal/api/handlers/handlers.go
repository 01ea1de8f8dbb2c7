package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/account-mirror/internal/api/middleware"
	"github.com/dvloznov/account-mirror/internal/jobs"
	"github.com/dvloznov/account-mirror/internal/store"
	"github.com/dvloznov/account-mirror/internal/syncer"
)

// SyncHandler enqueues sync cycles as jobs.
type SyncHandler struct {
	publisher jobs.Publisher
	itemID    string
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(publisher jobs.Publisher, itemID string, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		publisher: publisher,
		itemID:    itemID,
		log:       log,
	}
}

// TriggerSync handles POST /api/sync
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	full := r.URL.Query().Get("full") == "true"

	job := &jobs.SyncJob{
		ItemID:     h.itemID,
		FullResync: full,
	}

	if err := h.publisher.PublishSync(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Bool("full_resync", full).Msg("Enqueued sync job")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// RecordsHandler serves the mirrored record set.
type RecordsHandler struct {
	store store.RecordStore
	log   zerolog.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(recordStore store.RecordStore, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{
		store: recordStore,
		log:   log,
	}
}

// ListRecords handles GET /api/records. Records come back in persisted
// display order (date descending).
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.store.LoadAll(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load records")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// AccountsHandler serves derived account totals.
type AccountsHandler struct {
	svc *syncer.Service
	log zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(svc *syncer.Service, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		svc: svc,
		log: log,
	}
}

// ListTotals handles GET /api/accounts. Totals derive from the most
// recent cycle's account snapshot and are empty before the first sync.
func (h *AccountsHandler) ListTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := h.svc.AccountTotals(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to derive account totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to derive account totals")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": totals,
		"count":    len(totals),
	})
}

// JobsHandler serves job status.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobStore jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: jobStore,
		log:   log,
	}
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := jobs.JobFilter{
		ItemID: r.URL.Query().Get("item_id"),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}
