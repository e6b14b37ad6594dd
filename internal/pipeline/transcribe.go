package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/arman-radmanesh/clinicore/models"
	"github.com/arman-radmanesh/clinicore/provider"
)

// Transcriber converts consultation audio into a speaker-labeled transcript.
type Transcriber struct {
	provider provider.Provider
	logger   *log.Logger
}

func NewTranscriber(p provider.Provider, logger *log.Logger) *Transcriber {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Transcriber{provider: p, logger: logger}
}

// TranscriptResult is the transcript plus detected language.
type TranscriptResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe sends the audio to the speech model and labels speaker turns.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (TranscriptResult, error) {
	raw, err := t.provider.Transcribe(ctx, filename, audio)
	if err != nil {
		return TranscriptResult{}, fmt.Errorf("transcribe audio: %w", err)
	}
	t.logger.Printf("transcribed %s: %d segments, language %s", filename, len(raw.Segments), raw.Language)

	lang := raw.Language
	if lang == "" {
		lang = "en"
	}
	return TranscriptResult{
		Text:     LabelSpeakers(raw.Segments, raw.Text),
		Language: lang,
	}, nil
}

// LabelSpeakers assigns Doctor/Patient labels to transcript segments. The
// first speaker is assumed to be the doctor; a question from the doctor hands
// the turn to the patient, and a finished patient statement hands it back.
func LabelSpeakers(segments []models.Segment, fallback string) string {
	if len(segments) == 0 {
		text := strings.TrimSpace(fallback)
		if text == "" {
			return ""
		}
		return "Doctor: " + text
	}

	var lines []string
	speaker := "Doctor"
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, speaker+": "+text)

		switch {
		case speaker == "Doctor" && strings.Contains(text, "?"):
			speaker = "Patient"
		case speaker == "Patient" && (strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!")):
			speaker = "Doctor"
		}
	}
	return strings.Join(lines, "\n")
}
