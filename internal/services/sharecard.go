package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/lumo-engine/internal/clients/content"
	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

// ShareCardService renders a PNG results card for a completed session. The
// embedded Go fonts keep it free of file dependencies.
type ShareCardService interface {
	Render(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

type shareCardService struct {
	log       *logger.Logger
	sessions  SessionService
	summaries repos.OutcomeSummaryRepo
	content   content.Client

	titleFace font.Face
	bodyFace  font.Face
	gradeFace font.Face
}

func NewShareCardService(baseLog *logger.Logger, sessionSvc SessionService, summaries repos.OutcomeSummaryRepo, contentClient content.Client) (ShareCardService, error) {
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	}
	return &shareCardService{
		log:       baseLog.With("service", "ShareCardService"),
		sessions:  sessionSvc,
		summaries: summaries,
		content:   contentClient,
		titleFace: face(bold, 44),
		bodyFace:  face(regular, 28),
		gradeFace: face(bold, 140),
	}, nil
}

const (
	cardWidth  = 1200
	cardHeight = 630
)

func (s *shareCardService) Render(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionCompleted {
		return nil, apperr.Validation("session %s is not completed", sessionID)
	}
	results, err := s.sessions.Complete(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	title := "Lesson complete"
	if pkg, err := s.content.LessonPackage(ctx, session.LessonID); err == nil && pkg.Title != "" {
		title = pkg.Title
	}

	completedObjectives := 0
	totalObjectives := 0
	summary, err := s.summaries.GetBySessionID(ctx, nil, sessionID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Storage("load summary", err)
	}
	if summary != nil {
		if stats, err := summary.Stats(); err == nil {
			for _, tally := range stats {
				totalObjectives++
				if tally.Correct >= tally.Attempted && tally.Attempted > 0 {
					completedObjectives++
				}
			}
		}
	}

	dc := gg.NewContext(cardWidth, cardHeight)

	dc.SetColor(color.RGBA{R: 24, G: 28, B: 48, A: 255})
	dc.DrawRectangle(0, 0, cardWidth, cardHeight)
	dc.Fill()

	dc.SetColor(color.RGBA{R: 64, G: 112, B: 244, A: 255})
	dc.DrawRectangle(0, 0, cardWidth, 12)
	dc.Fill()

	dc.SetColor(color.White)
	dc.SetFontFace(s.titleFace)
	dc.DrawStringWrapped(title, 80, 90, 0, 0, 700, 1.3, gg.AlignLeft)

	dc.SetFontFace(s.gradeFace)
	gw, gh := dc.MeasureString(results.Grade)
	dc.SetColor(gradeColor(results.Grade))
	dc.DrawString(results.Grade, cardWidth-160-gw/2, 260+gh/2)

	dc.SetColor(color.White)
	dc.SetFontFace(s.bodyFace)
	lines := []string{
		fmt.Sprintf("Score: %.0f%%", results.ScorePercentage),
		fmt.Sprintf("Exercises: %d of %d correct", results.CorrectExercises, results.TotalExercises),
	}
	if totalObjectives > 0 {
		lines = append(lines, fmt.Sprintf("Objectives completed: %d of %d", completedObjectives, totalObjectives))
	}
	y := 300.0
	for _, line := range lines {
		dc.DrawString(line, 80, y)
		y += 56
	}

	dc.SetColor(color.RGBA{R: 148, G: 156, B: 178, A: 255})
	dc.DrawString(results.CompletedAt.Format("January 2, 2006"), 80, cardHeight-60)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode share card: %w", err)
	}
	return buf.Bytes(), nil
}

func gradeColor(grade string) color.Color {
	switch grade {
	case "A":
		return color.RGBA{R: 72, G: 199, B: 116, A: 255}
	case "B":
		return color.RGBA{R: 120, G: 199, B: 96, A: 255}
	case "C":
		return color.RGBA{R: 240, G: 180, B: 60, A: 255}
	case "D":
		return color.RGBA{R: 240, G: 130, B: 60, A: 255}
	default:
		return color.RGBA{R: 232, G: 76, B: 84, A: 255}
	}
}
