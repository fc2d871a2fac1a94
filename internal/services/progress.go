package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/clients/content"
	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

// ProgressService answers "what has this learner mastered" purely from
// local evidence. Results are derived fresh on every call; nothing is
// cached between queries.
type ProgressService interface {
	LessonObjectives(ctx context.Context, userID, lessonID uuid.UUID) ([]domain.ObjectiveProgress, error)
	UnitProgress(ctx context.Context, userID, unitID uuid.UUID) (*domain.UnitProgress, error)
}

type progressService struct {
	db        *gorm.DB
	log       *logger.Logger
	sessions  repos.SessionRepo
	attempts  repos.ExerciseAttemptRepo
	summaries repos.OutcomeSummaryRepo
	content   content.Client
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions repos.SessionRepo,
	attempts repos.ExerciseAttemptRepo,
	summaries repos.OutcomeSummaryRepo,
	contentClient content.Client,
) ProgressService {
	return &progressService{
		db:        db,
		log:       baseLog.With("service", "ProgressService"),
		sessions:  sessions,
		attempts:  attempts,
		summaries: summaries,
		content:   contentClient,
	}
}

// objectiveUniverse is the set of objectives under consideration: ids in
// deterministic order, tagged-exercise totals, and declared metadata.
// Objectives with zero tagged exercises are excluded entirely; exercise
// tags missing from the declared objective list still count, with empty
// metadata (authoring data may lag).
type objectiveUniverse struct {
	order  []uuid.UUID
	totals map[uuid.UUID]int
	meta   map[uuid.UUID]domain.LearningObjective
}

func buildUniverse(pkgs ...*domain.LessonPackage) *objectiveUniverse {
	u := &objectiveUniverse{
		totals: make(map[uuid.UUID]int),
		meta:   make(map[uuid.UUID]domain.LearningObjective),
	}
	for _, pkg := range pkgs {
		for _, lo := range pkg.Objectives {
			if _, seen := u.meta[lo.ID]; !seen {
				u.meta[lo.ID] = lo
			}
		}
		for _, ex := range pkg.Exercises {
			if ex.ObjectiveID == uuid.Nil {
				continue
			}
			if _, seen := u.totals[ex.ObjectiveID]; !seen {
				u.order = append(u.order, ex.ObjectiveID)
			}
			u.totals[ex.ObjectiveID]++
		}
	}
	return u
}

// exerciseOutcome is one cell of the replay fold: the exercise was
// attempted, and its most recent pass ended correct or not.
type exerciseOutcome struct {
	correct bool
}

func (p *progressService) LessonObjectives(ctx context.Context, userID, lessonID uuid.UUID) ([]domain.ObjectiveProgress, error) {
	if userID == uuid.Nil || lessonID == uuid.Nil {
		return nil, apperr.Validation("user and lesson ids required")
	}

	pkg, err := p.content.LessonPackage(ctx, lessonID)
	if err != nil {
		return nil, apperr.Validation("lesson package unavailable: %v", err)
	}
	universe := buildUniverse(pkg)

	sessions, err := p.sessions.ListByUserAndLesson(ctx, nil, userID, lessonID)
	if err != nil {
		return nil, apperr.Storage("list lesson sessions", err)
	}
	sessionIDs := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
	}
	attemptRows, err := p.attempts.ListBySessions(ctx, nil, sessionIDs)
	if err != nil {
		return nil, apperr.Storage("list lesson attempts", err)
	}

	if len(attemptRows) > 0 {
		return p.lessonFromAttempts(pkg, universe, sessions, attemptRows), nil
	}

	summaries, err := p.summaries.ListByLesson(ctx, nil, userID, lessonID)
	if err != nil {
		return nil, apperr.Storage("list lesson summaries", err)
	}
	return p.lessonFromSummaries(universe, summaries), nil
}

// lessonFromAttempts replays surviving attempt rows in session-start order.
// Each session's row for an exercise overwrites the running state, so the
// most recent pass through an exercise governs. Newly-completed is the diff
// between the fold with and without the latest contributing session.
func (p *progressService) lessonFromAttempts(
	pkg *domain.LessonPackage,
	universe *objectiveUniverse,
	sessions []*domain.Session,
	rows []*domain.ExerciseAttempt,
) []domain.ObjectiveProgress {
	bySession := make(map[uuid.UUID][]*domain.ExerciseAttempt)
	for _, row := range rows {
		bySession[row.SessionID] = append(bySession[row.SessionID], row)
	}

	replay := func(upto int) map[uuid.UUID]exerciseOutcome {
		state := make(map[uuid.UUID]exerciseOutcome)
		for i := 0; i < upto; i++ {
			for _, row := range bySession[sessions[i].ID] {
				state[row.ExerciseID] = exerciseOutcome{correct: row.IsCorrect}
			}
		}
		return state
	}

	// The latest session actually carrying attempt rows is "the most
	// recent session considered" for the newly-completed flag.
	lastWithRows := 0
	for i, s := range sessions {
		if len(bySession[s.ID]) > 0 {
			lastWithRows = i + 1
		}
	}

	including := replay(len(sessions))
	excluding := replay(lastWithRows - 1)

	return p.bucketByObjective(pkg, universe, including, excluding)
}

func (p *progressService) bucketByObjective(
	pkg *domain.LessonPackage,
	universe *objectiveUniverse,
	including, excluding map[uuid.UUID]exerciseOutcome,
) []domain.ObjectiveProgress {
	tally := func(state map[uuid.UUID]exerciseOutcome) map[uuid.UUID]domain.ObjectiveTally {
		out := make(map[uuid.UUID]domain.ObjectiveTally)
		for _, ex := range pkg.Exercises {
			if ex.ObjectiveID == uuid.Nil {
				continue
			}
			outcome, attempted := state[ex.ID]
			if !attempted {
				continue
			}
			t := out[ex.ObjectiveID]
			t.Attempted++
			if outcome.correct {
				t.Correct++
			}
			out[ex.ObjectiveID] = t
		}
		return out
	}
	return p.assemble(universe, tally(including), tally(excluding))
}

// lessonFromSummaries is the post-reclamation path: per objective, the last
// summary carrying it wins (a later pass through the lesson replaces the
// earlier evidence).
func (p *progressService) lessonFromSummaries(universe *objectiveUniverse, summaries []*domain.SessionOutcomeSummary) []domain.ObjectiveProgress {
	fold := func(upto int) map[uuid.UUID]domain.ObjectiveTally {
		out := make(map[uuid.UUID]domain.ObjectiveTally)
		for i := 0; i < upto; i++ {
			stats, err := summaries[i].Stats()
			if err != nil {
				p.log.Warn("skipping unreadable summary", "session_id", summaries[i].SessionID, "error", err)
				continue
			}
			for loID, t := range stats {
				out[loID] = t
			}
		}
		return out
	}
	return p.assemble(universe, fold(len(summaries)), fold(len(summaries)-1))
}

func (p *progressService) assemble(
	universe *objectiveUniverse,
	including, excluding map[uuid.UUID]domain.ObjectiveTally,
) []domain.ObjectiveProgress {
	items := make([]domain.ObjectiveProgress, 0, len(universe.order))
	for _, loID := range universe.order {
		total := universe.totals[loID]
		if total == 0 {
			continue
		}
		in := including[loID]
		ex := excluding[loID]

		status := domain.StatusFor(total, in.Attempted, in.Correct)
		prior := domain.StatusFor(total, ex.Attempted, ex.Correct)

		item := domain.ObjectiveProgress{
			ObjectiveID:             loID,
			ExercisesTotal:          total,
			ExercisesAttempted:      in.Attempted,
			ExercisesCorrect:        in.Correct,
			Status:                  status,
			NewlyCompletedInSession: status == domain.ObjectiveCompleted && prior != domain.ObjectiveCompleted,
		}
		if meta, ok := universe.meta[loID]; ok {
			item.Title = meta.Title
			item.Description = meta.Description
		}
		items = append(items, item)
	}
	return items
}

func (p *progressService) UnitProgress(ctx context.Context, userID, unitID uuid.UUID) (*domain.UnitProgress, error) {
	if userID == uuid.Nil || unitID == uuid.Nil {
		return nil, apperr.Validation("user and unit ids required")
	}

	manifest, err := p.content.UnitManifest(ctx, unitID)
	if err != nil {
		return nil, apperr.Validation("unit manifest unavailable: %v", err)
	}

	pkgs := make([]*domain.LessonPackage, 0, len(manifest.LessonIDs))
	for _, lessonID := range manifest.LessonIDs {
		pkg, err := p.content.LessonPackage(ctx, lessonID)
		if err != nil {
			p.log.Warn("lesson package unavailable for unit fold", "lesson_id", lessonID, "error", err)
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	universe := buildUniverse(pkgs...)

	summaries, err := p.summaries.ListByUnit(ctx, nil, userID, unitID)
	if err != nil {
		return nil, apperr.Storage("list unit summaries", err)
	}

	// Within a lesson, a later summary carrying an objective replaces the
	// lesson's earlier tally for it; tallies from different lessons add.
	fold := func(upto int) map[uuid.UUID]domain.ObjectiveTally {
		perLesson := make(map[uuid.UUID]map[uuid.UUID]domain.ObjectiveTally)
		for i := 0; i < upto; i++ {
			stats, err := summaries[i].Stats()
			if err != nil {
				p.log.Warn("skipping unreadable summary", "session_id", summaries[i].SessionID, "error", err)
				continue
			}
			lesson := perLesson[summaries[i].LessonID]
			if lesson == nil {
				lesson = make(map[uuid.UUID]domain.ObjectiveTally)
				perLesson[summaries[i].LessonID] = lesson
			}
			for loID, t := range stats {
				lesson[loID] = t
			}
		}
		out := make(map[uuid.UUID]domain.ObjectiveTally)
		for _, lesson := range perLesson {
			for loID, t := range lesson {
				sum := out[loID]
				sum.Attempted += t.Attempted
				sum.Correct += t.Correct
				out[loID] = sum
			}
		}
		return out
	}

	objectives := p.assemble(universe, fold(len(summaries)), fold(len(summaries)-1))

	completed := 0
	for _, o := range objectives {
		if o.Status == domain.ObjectiveCompleted {
			completed++
		}
	}
	return &domain.UnitProgress{
		UnitID:              unitID,
		UserID:              userID,
		Title:               manifest.Title,
		Objectives:          objectives,
		ObjectivesCompleted: completed,
		ObjectivesTotal:     len(objectives),
		ComputedAt:          time.Now().UTC(),
	}, nil
}
