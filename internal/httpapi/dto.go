package httpapi

import (
	"time"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	"github.com/Ciriera/examboard-scheduler/internal/pipeline"
	"github.com/Ciriera/examboard-scheduler/internal/slotindex"
)

// ProjectDTO is the wire shape of domain.Project.
type ProjectDTO struct {
	ID           string `json:"id" validate:"required"`
	Kind         string `json:"kind" validate:"required,oneof=FINAL INTERIM"`
	SupervisorID string `json:"supervisor_id" validate:"required"`
	IsMakeup     bool   `json:"is_makeup"`
}

// InstructorDTO is the wire shape of domain.Instructor.
type InstructorDTO struct {
	ID   string `json:"id" validate:"required"`
	Kind string `json:"kind" validate:"required"`
}

// ClassroomDTO is the wire shape of domain.Classroom.
type ClassroomDTO struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// TimeslotDTO is the wire shape of domain.Timeslot.
type TimeslotDTO struct {
	ID            string `json:"id" validate:"required"`
	StartHour     int    `json:"start_hour" validate:"gte=0,lte=23"`
	StartMinute   int    `json:"start_minute" validate:"gte=0,lte=59"`
	EndHour       int    `json:"end_hour" validate:"gte=0,lte=23"`
	EndMinute     int    `json:"end_minute" validate:"gte=0,lte=59"`
	Capacity      int    `json:"capacity"`
}

// WeightsDTO mirrors fitness.Weights for JSON transport; zero fields fall
// back to fitness.DefaultWeights via fitness.WithDefaults.
type WeightsDTO struct {
	Coverage            float64 `json:"coverage"`
	Consecutive         float64 `json:"consecutive"`
	LoadBalance         float64 `json:"load_balance"`
	ClassroomEfficiency float64 `json:"classroom_efficiency"`
	TimeEfficiency      float64 `json:"time_efficiency"`
	Conflicts           float64 `json:"conflicts"`
	Gaps                float64 `json:"gaps"`
	EarlySlots          float64 `json:"early_slots"`
}

func (w WeightsDTO) toFitness() fitness.Weights {
	return fitness.Weights{
		Coverage:            w.Coverage,
		Consecutive:         w.Consecutive,
		LoadBalance:         w.LoadBalance,
		ClassroomEfficiency: w.ClassroomEfficiency,
		TimeEfficiency:      w.TimeEfficiency,
		Conflicts:           w.Conflicts,
		Gaps:                w.Gaps,
		EarlySlots:          w.EarlySlots,
	}
}

// InputsRequest is the common shape both /v1/runs and /v1/score accept: the
// four input collections a caller supplies inline (spec.md's Non-goals
// exclude persistence of these collections as a feature, so every request
// carries them explicitly rather than referencing stored IDs).
type InputsRequest struct {
	Projects    []ProjectDTO    `json:"projects" validate:"required,min=1,dive"`
	Instructors []InstructorDTO `json:"instructors" validate:"required,min=1,dive"`
	Classrooms  []ClassroomDTO  `json:"classrooms" validate:"required,min=1,dive"`
	Timeslots   []TimeslotDTO   `json:"timeslots" validate:"required,min=1,dive"`
}

func (r InputsRequest) toDomain() domain.Inputs {
	projects := make([]domain.Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		kind := domain.ProjectKindInterim
		if p.Kind == "FINAL" {
			kind = domain.ProjectKindFinal
		}
		projects = append(projects, domain.Project{
			ID:           domain.ID(p.ID),
			Kind:         kind,
			SupervisorID: domain.ID(p.SupervisorID),
			IsMakeup:     p.IsMakeup,
		})
	}

	instructors := make([]domain.Instructor, 0, len(r.Instructors))
	for _, i := range r.Instructors {
		instructors = append(instructors, domain.Instructor{
			ID:      domain.ID(i.ID),
			Kind:    domain.ParseInstructorKind(i.Kind),
			RawKind: i.Kind,
		})
	}

	classrooms := make([]domain.Classroom, 0, len(r.Classrooms))
	for _, c := range r.Classrooms {
		classrooms = append(classrooms, domain.Classroom{ID: domain.ID(c.ID), Name: c.Name, Capacity: c.Capacity})
	}

	timeslots := make([]domain.Timeslot, 0, len(r.Timeslots))
	for _, t := range r.Timeslots {
		timeslots = append(timeslots, domain.Timeslot{
			ID:       domain.ID(t.ID),
			Start:    domain.NewClock(t.StartHour, t.StartMinute),
			End:      domain.NewClock(t.EndHour, t.EndMinute),
			Capacity: t.Capacity,
		})
	}

	return domain.NewInputs(projects, instructors, classrooms, timeslots)
}

// RunRequest is the POST /v1/runs body.
type RunRequest struct {
	InputsRequest
	Engine         string      `json:"engine" validate:"required"`
	Seed           int64       `json:"seed"`
	MaxTimeSeconds int         `json:"max_time_seconds"`
	Weights        *WeightsDTO `json:"weights"`
}

func (r RunRequest) toPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Engine = pipeline.EngineName(r.Engine)
	cfg.Seed = r.Seed
	if r.MaxTimeSeconds > 0 {
		cfg.MaxTime = time.Duration(r.MaxTimeSeconds) * time.Second
	}
	if r.Weights != nil {
		cfg.Weights = r.Weights.toFitness()
	}
	return cfg
}

// ScoreRequest is the POST /v1/score body: a caller-supplied assignment set
// scored against the Standard Fitness function, no engine involved.
type ScoreRequest struct {
	InputsRequest
	Assignments []AssignmentDTO `json:"assignments" validate:"dive"`
	Weights     *WeightsDTO     `json:"weights"`
}

// AssignmentDTO is the wire shape of domain.Assignment.
type AssignmentDTO struct {
	ProjectID    string   `json:"project_id" validate:"required"`
	ClassroomID  string   `json:"classroom_id" validate:"required"`
	TimeslotID   string   `json:"timeslot_id" validate:"required"`
	SupervisorID string   `json:"supervisor_id" validate:"required"`
	JuryIDs      []string `json:"jury_ids"`
}

func assignmentsToDomain(dtos []AssignmentDTO, in domain.Inputs) []domain.Assignment {
	idx := slotindex.Build(in.Timeslots, in.Classrooms)

	out := make([]domain.Assignment, 0, len(dtos))
	for _, a := range dtos {
		jury := make([]domain.ID, 0, len(a.JuryIDs))
		for _, j := range a.JuryIDs {
			jury = append(jury, domain.ID(j))
		}
		kind := domain.ProjectKindUnknown
		chrono := 0
		if p, ok := in.Project(domain.ID(a.ProjectID)); ok {
			kind = p.Kind
		}
		if c, ok := idx.ChronoIndex(domain.ID(a.TimeslotID)); ok {
			chrono = c
		}
		out = append(out, domain.Assignment{
			ProjectID:    domain.ID(a.ProjectID),
			ClassroomID:  domain.ID(a.ClassroomID),
			TimeslotID:   domain.ID(a.TimeslotID),
			ChronoIndex:  chrono,
			SupervisorID: domain.ID(a.SupervisorID),
			JuryIDs:      jury,
			ProjectKind:  kind,
		})
	}
	return out
}

// RunResponse is what GET /v1/runs/:id and a synchronous run return.
type RunResponse struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Assignments []AssignmentDTO       `json:"assignments,omitempty"`
	Fitness     *fitness.Report       `json:"fitness,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func assignmentsFromDomain(assignments []domain.Assignment) []AssignmentDTO {
	out := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		jury := make([]string, 0, len(a.JuryIDs))
		for _, j := range a.JuryIDs {
			jury = append(jury, string(j))
		}
		out = append(out, AssignmentDTO{
			ProjectID:    string(a.ProjectID),
			ClassroomID:  string(a.ClassroomID),
			TimeslotID:   string(a.TimeslotID),
			SupervisorID: string(a.SupervisorID),
			JuryIDs:      jury,
		})
	}
	return out
}
