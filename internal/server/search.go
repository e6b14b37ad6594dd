package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arman-radmanesh/clinicore/internal/search"
	"github.com/arman-radmanesh/clinicore/internal/store"
)

const defaultSearchTopK = 10

// SearchHandler exposes hybrid keyword and vector search over a patient's
// transcripts.
type SearchHandler struct {
	Store   *store.Store
	Service *search.Service
}

func (h *SearchHandler) Register(api *echo.Group) {
	api.POST("/patients/:id/search", h.search)
}

func (h *SearchHandler) search(c echo.Context) error {
	patientID := c.Param("id")
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	if req.TopK <= 0 {
		req.TopK = defaultSearchTopK
	}
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	hits, ok, err := h.Service.Search(ctx, patientID, req.Query, req.TopK)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		// lazily build the index from the patient's stored conversations
		snaps, serr := h.Store.ListConversationSnapshots(ctx, patientID)
		if serr != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, serr.Error())
		}
		docs := make([]search.Document, 0, len(snaps))
		for _, snap := range snaps {
			if snap.Transcription == "" && snap.Summary == "" {
				continue
			}
			docs = append(docs, search.Document{
				ConversationID: snap.ID,
				Transcript:     snap.Transcription,
				Summary:        snap.Summary,
				ChiefComplaint: snap.ChiefComplaint,
				Date:           snap.Date,
			})
		}
		if err := h.Service.Rebuild(ctx, patientID, docs); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		hits, _, err = h.Service.Search(ctx, patientID, req.Query, req.TopK)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return c.JSON(http.StatusOK, hits)
}
