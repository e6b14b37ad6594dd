package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arman-radmanesh/clinicore/config"
	"github.com/arman-radmanesh/clinicore/internal/retrieval"
	"github.com/arman-radmanesh/clinicore/internal/store"
)

// HistoryHandler answers symptom-based queries over a patient's past
// consultations using the retrieval engine.
type HistoryHandler struct {
	Store     *store.Store
	Retriever *retrieval.HistoryRetriever
	Defaults  config.RetrievalConfig
}

func (h *HistoryHandler) Register(api *echo.Group) {
	api.POST("/patients/:id/history", h.retrieve)
}

func (h *HistoryHandler) retrieve(c echo.Context) error {
	patientID := c.Param("id")
	var req HistoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	symptoms := make([]string, 0, len(req.Symptoms))
	for _, s := range req.Symptoms {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}
	if len(symptoms) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "symptoms required")
	}
	if (req.RecencyWeight != nil && *req.RecencyWeight < 0) ||
		(req.RelevanceWeight != nil && *req.RelevanceWeight < 0) {
		return echo.NewHTTPError(http.StatusBadRequest, "retrieval weights must be non-negative")
	}
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	snaps, err := h.Store.ListConversationSnapshots(ctx, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	entities, err := h.Store.ListEntitiesByPatient(ctx, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	convs := make([]retrieval.ConversationRecord, 0, len(snaps))
	for _, snap := range snaps {
		date := snap.Date
		convs = append(convs, retrieval.ConversationRecord{
			ID:             snap.ID,
			Transcription:  snap.Transcription,
			Summary:        snap.Summary,
			ChiefComplaint: snap.ChiefComplaint,
			Date:           &date,
		})
	}
	ents := make([]retrieval.EntityRecord, 0, len(entities))
	for _, ent := range entities {
		created := ent.CreatedAt
		ents = append(ents, retrieval.EntityRecord{
			ID:        ent.ID,
			Type:      ent.EntityType,
			Value:     ent.EntityValue,
			Context:   ent.Context,
			CreatedAt: &created,
		})
	}

	opts := retrieval.Options{
		TopKConversations: req.TopK,
		BlendRecency:      req.UseRecency,
		RecencyWeight:     h.Defaults.RecencyWeight,
		RelevanceWeight:   h.Defaults.RelevanceWeight,
	}
	if opts.TopKConversations <= 0 {
		opts.TopKConversations = h.Defaults.TopKConversations
	}
	if req.RecencyWeight != nil {
		opts.RecencyWeight = *req.RecencyWeight
	}
	if req.RelevanceWeight != nil {
		opts.RelevanceWeight = *req.RelevanceWeight
	}

	result, err := h.Retriever.Retrieve(ctx, symptoms, convs, ents, opts)
	if err != nil {
		if errors.Is(err, retrieval.ErrModelUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "embedding model unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
