package domain

import "github.com/google/uuid"

// LessonPackage is the immutable, versioned content bundle for one lesson:
// its exercises with their learning-objective tags, plus the declared
// objective list. Authored upstream; consumed read-only here.
type LessonPackage struct {
	LessonID   uuid.UUID           `json:"lesson_id" yaml:"lesson_id"`
	UnitID     uuid.UUID           `json:"unit_id" yaml:"unit_id"`
	Title      string              `json:"title" yaml:"title"`
	Version    int                 `json:"version" yaml:"version"`
	Exercises  []PackagedExercise  `json:"exercises" yaml:"exercises"`
	Objectives []LearningObjective `json:"learning_objectives" yaml:"learning_objectives"`
}

type PackagedExercise struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	ObjectiveID uuid.UUID `json:"lo_id" yaml:"lo_id"`
	Type        string    `json:"type" yaml:"type"`
}

type LearningObjective struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
}

// ExerciseObjectives returns the exercise -> objective tag map. Exercises
// with a nil objective id are omitted.
func (p *LessonPackage) ExerciseObjectives() map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(p.Exercises))
	for _, ex := range p.Exercises {
		if ex.ObjectiveID != uuid.Nil {
			out[ex.ID] = ex.ObjectiveID
		}
	}
	return out
}

// DeclaredObjective looks up an objective from the declared list; ok is
// false for tags the authoring data has not caught up with yet.
func (p *LessonPackage) DeclaredObjective(id uuid.UUID) (LearningObjective, bool) {
	for _, lo := range p.Objectives {
		if lo.ID == id {
			return lo, true
		}
	}
	return LearningObjective{}, false
}

// UnitManifest lists the lessons making up one unit.
type UnitManifest struct {
	UnitID    uuid.UUID   `json:"unit_id" yaml:"unit_id"`
	Title     string      `json:"title" yaml:"title"`
	LessonIDs []uuid.UUID `json:"lesson_ids" yaml:"lesson_ids"`
}
