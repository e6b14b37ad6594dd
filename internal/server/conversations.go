package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/arman-radmanesh/clinicore/internal/pipeline"
	"github.com/arman-radmanesh/clinicore/internal/search"
	"github.com/arman-radmanesh/clinicore/internal/store"
	"github.com/arman-radmanesh/clinicore/models"
)

// ConversationsHandler owns the consultation lifecycle: creation, audio
// upload, transcription, entity extraction and summarization.
type ConversationsHandler struct {
	Store       *store.Store
	Transcriber *pipeline.Transcriber
	Extractor   *pipeline.Extractor
	Summarizer  *pipeline.Summarizer
	Search      *search.Service
	UploadDir   string
	Logger      *log.Logger
}

func (h *ConversationsHandler) Register(api *echo.Group) {
	api.POST("/conversations", h.create)
	api.GET("/conversations/:id", h.get)
	api.GET("/patients/:id/conversations", h.listByPatient)
	api.POST("/conversations/:id/audio", h.uploadAudio)
	api.POST("/conversations/:id/transcribe", h.transcribe)
	api.GET("/conversations/:id/entities", h.listEntities)
	api.POST("/conversations/:id/entities", h.extractEntities)
	api.GET("/conversations/:id/summary", h.getSummary)
	api.POST("/conversations/:id/summarize", h.summarize)
	api.POST("/conversations/:id/process", h.process)
}

func (h *ConversationsHandler) create(c echo.Context) error {
	role, _ := c.Get("role").(string)
	if role != store.RoleDoctor {
		return echo.NewHTTPError(http.StatusForbidden, "only doctors create conversations")
	}
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id required")
	}

	ctx := c.Request().Context()
	userID, _ := c.Get("user_id").(string)
	doc, ok, err := h.Store.GetDoctorByUserID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "doctor profile not found")
	}
	if _, ok, err := h.Store.GetPatientByID(ctx, req.PatientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	rec, err := h.Store.CreateConversation(ctx, req.PatientID, doc.ID, req.ChiefComplaint)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, conversationResponse(rec))
}

func (h *ConversationsHandler) get(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conversationResponse(rec))
}

func (h *ConversationsHandler) listByPatient(c echo.Context) error {
	patientID := c.Param("id")
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}
	snaps, err := h.Store.ListConversationSnapshots(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]ConversationResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, conversationResponse(snap.ConversationRecord))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ConversationsHandler) uploadAudio(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	dstPath := filepath.Join(h.UploadDir, fmt.Sprintf("%s%s", rec.ID, filepath.Ext(file.Filename)))
	dst, err := os.Create(dstPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Store.SetConversationAudioPath(c.Request().Context(), rec.ID, dstPath); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Logger.Printf("audio stored for conversation %s at %s", rec.ID, dstPath)
	return c.JSON(http.StatusOK, map[string]string{"audio_file_path": dstPath})
}

func (h *ConversationsHandler) transcribe(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}
	text, err := h.runTranscription(c, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"transcription": text})
}

func (h *ConversationsHandler) runTranscription(c echo.Context, rec store.ConversationRecord) (string, error) {
	if rec.AudioFilePath == "" {
		return "", echo.NewHTTPError(http.StatusConflict, "no audio uploaded")
	}
	f, err := os.Open(rec.AudioFilePath)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer f.Close()

	ctx := c.Request().Context()
	res, err := h.Transcriber.Transcribe(ctx, filepath.Base(rec.AudioFilePath), f)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if err := h.Store.SetConversationTranscription(ctx, rec.ID, res.Text); err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// transcript changed; the patient's search index is stale
	h.Search.Invalidate(rec.PatientID)
	return res.Text, nil
}

func (h *ConversationsHandler) listEntities(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}
	items, err := h.Store.ListEntitiesByConversation(c.Request().Context(), rec.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entityResponses(items))
}

func (h *ConversationsHandler) extractEntities(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}
	items, err := h.runExtraction(c, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entityResponses(items))
}

func (h *ConversationsHandler) runExtraction(c echo.Context, rec store.ConversationRecord) ([]store.EntityRecord, error) {
	if rec.Transcription == "" {
		return nil, echo.NewHTTPError(http.StatusConflict, "conversation not transcribed")
	}
	ctx := c.Request().Context()
	entities, err := h.Extractor.Extract(ctx, rec.Transcription)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	records := make([]store.EntityRecord, 0, len(entities))
	for _, ent := range entities {
		records = append(records, store.EntityRecord{
			EntityType:    ent.Label,
			EntityValue:   ent.Text,
			Context:       ent.Context,
			Confidence:    ent.Confidence,
			StartPosition: ent.Start,
			EndPosition:   ent.End,
		})
	}
	if err := h.Store.ReplaceEntities(ctx, rec.ID, records); err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	stored, err := h.Store.ListEntitiesByConversation(ctx, rec.ID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return stored, nil
}

func (h *ConversationsHandler) getSummary(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}
	sum, ok, err := h.Store.GetSummaryByConversation(c.Request().Context(), rec.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "summary not found")
	}
	return c.JSON(http.StatusOK, summaryResponse(sum))
}

func (h *ConversationsHandler) summarize(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}
	sum, err := h.runSummarization(c, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaryResponse(sum))
}

func (h *ConversationsHandler) runSummarization(c echo.Context, rec store.ConversationRecord) (store.SummaryRecord, error) {
	if rec.Transcription == "" {
		return store.SummaryRecord{}, echo.NewHTTPError(http.StatusConflict, "conversation not transcribed")
	}
	ctx := c.Request().Context()
	sum, err := h.Summarizer.Summarize(ctx, rec.Transcription)
	if err != nil {
		return store.SummaryRecord{}, echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	stored, err := h.Store.UpsertSummary(ctx, store.SummaryRecord{
		ConversationID: rec.ID,
		Subjective:     sum.SOAP.Subjective,
		Objective:      sum.SOAP.Objective,
		Assessment:     sum.SOAP.Assessment,
		Plan:           sum.SOAP.Plan,
		FullSummary:    sum.FullSummary,
		Keywords:       sum.Keywords,
	})
	if err != nil {
		return store.SummaryRecord{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Search.Invalidate(rec.PatientID)
	return stored, nil
}

// process runs the whole pipeline for a recorded conversation: transcription,
// entity extraction, summarization, then marks it completed.
func (h *ConversationsHandler) process(c echo.Context) error {
	rec, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	if rec.Transcription == "" {
		text, err := h.runTranscription(c, rec)
		if err != nil {
			return err
		}
		rec.Transcription = text
	}

	entities, err := h.runExtraction(c, rec)
	if err != nil {
		return err
	}
	sum, err := h.runSummarization(c, rec)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.Store.SetConversationStatus(ctx, rec.ID, store.ConversationStatusCompleted); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Logger.Printf("processed conversation %s: %d entities", rec.ID, len(entities))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"transcription": rec.Transcription,
		"entities":      entityResponses(entities),
		"summary":       summaryResponse(sum),
		"status":        store.ConversationStatusCompleted,
	})
}

func (h *ConversationsHandler) loadConversation(c echo.Context) (store.ConversationRecord, error) {
	rec, ok, err := h.Store.GetConversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return store.ConversationRecord{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return store.ConversationRecord{}, echo.NewHTTPError(http.StatusNotFound, models.ErrConversationNotFound.Error())
	}
	if err := requirePatientAccess(c, h.Store, rec.PatientID); err != nil {
		return store.ConversationRecord{}, err
	}
	return rec, nil
}

func conversationResponse(rec store.ConversationRecord) ConversationResponse {
	return ConversationResponse{
		ID:             rec.ID,
		PatientID:      rec.PatientID,
		DoctorID:       rec.DoctorID,
		Date:           rec.Date,
		Transcription:  rec.Transcription,
		ChiefComplaint: rec.ChiefComplaint,
		Status:         rec.Status,
	}
}

func entityResponses(items []store.EntityRecord) []EntityResponse {
	out := make([]EntityResponse, 0, len(items))
	for _, it := range items {
		out = append(out, EntityResponse{
			ID:         it.ID,
			Type:       it.EntityType,
			Value:      it.EntityValue,
			Context:    it.Context,
			Confidence: it.Confidence,
		})
	}
	return out
}

func summaryResponse(rec store.SummaryRecord) SummaryResponse {
	return SummaryResponse{
		ID:          rec.ID,
		Subjective:  rec.Subjective,
		Objective:   rec.Objective,
		Assessment:  rec.Assessment,
		Plan:        rec.Plan,
		FullSummary: rec.FullSummary,
		Keywords:    rec.Keywords,
	}
}
