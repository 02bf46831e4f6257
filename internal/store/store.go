// Package store provides Postgres-backed implementations of the four
// read-only input ports spec.md §1 calls out as an external collaborator:
// projects, instructors, classrooms, and timeslots. The scheduling core
// never imports this package; it accepts plain domain.Inputs built from
// whatever a caller assembles, here or otherwise.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Ciriera/examboard-scheduler/internal/domain"
)

// ProjectSource loads the exams a run must schedule.
type ProjectSource interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
}

// InstructorSource loads faculty and research assistants.
type InstructorSource interface {
	ListInstructors(ctx context.Context) ([]domain.Instructor, error)
}

// ClassroomSource loads the rooms exams may be held in.
type ClassroomSource interface {
	ListClassrooms(ctx context.Context) ([]domain.Classroom, error)
}

// TimeslotSource loads the wall-clock intervals exams may be held in.
type TimeslotSource interface {
	ListTimeslots(ctx context.Context) ([]domain.Timeslot, error)
}

// InputSource is the union every one of the four sources satisfies at once,
// the shape a single Postgres-backed store naturally provides.
type InputSource interface {
	ProjectSource
	InstructorSource
	ClassroomSource
	TimeslotSource
}

// projectRow mirrors the examboard_projects table.
type projectRow struct {
	ID           string `db:"id"`
	Kind         string `db:"kind"`
	SupervisorID string `db:"supervisor_id"`
	IsMakeup     bool   `db:"is_makeup"`
}

// instructorRow mirrors the examboard_instructors table.
type instructorRow struct {
	ID      string `db:"id"`
	Kind    string `db:"kind"`
	RawKind string `db:"raw_kind"`
	Label   string `db:"label"`
}

// classroomRow mirrors the examboard_classrooms table.
type classroomRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Capacity int    `db:"capacity"`
}

// timeslotRow mirrors the examboard_timeslots table.
type timeslotRow struct {
	ID            string `db:"id"`
	StartMinute   int    `db:"start_minute"`
	EndMinute     int    `db:"end_minute"`
	Capacity      int    `db:"capacity"`
}

// Store is the Postgres-backed InputSource, adapted from the teacher's
// ScheduleRepository (plain sqlx.DB, SelectContext, fmt-wrapped errors) but
// read-only: none of the four collections is ever written back by this
// service, so no Create/Update/Delete surface is carried.
type Store struct {
	db *sqlx.DB
}

// New wraps an already-connected database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	const query = `SELECT id, kind, supervisor_id, is_makeup FROM examboard_projects ORDER BY id ASC`
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]domain.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Project{
			ID:           domain.ID(r.ID),
			Kind:         parseProjectKind(r.Kind),
			SupervisorID: domain.ID(r.SupervisorID),
			IsMakeup:     r.IsMakeup,
		})
	}
	return out, nil
}

func (s *Store) ListInstructors(ctx context.Context) ([]domain.Instructor, error) {
	const query = `SELECT id, kind, raw_kind, label FROM examboard_instructors ORDER BY id ASC`
	var rows []instructorRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}

	out := make([]domain.Instructor, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Instructor{
			ID:      domain.ID(r.ID),
			Kind:    domain.ParseInstructorKind(r.RawKind),
			RawKind: r.RawKind,
			Label:   r.Label,
		})
	}
	return out, nil
}

func (s *Store) ListClassrooms(ctx context.Context) ([]domain.Classroom, error) {
	const query = `SELECT id, name, capacity FROM examboard_classrooms ORDER BY id ASC`
	var rows []classroomRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}

	out := make([]domain.Classroom, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Classroom{ID: domain.ID(r.ID), Name: r.Name, Capacity: r.Capacity})
	}
	return out, nil
}

func (s *Store) ListTimeslots(ctx context.Context) ([]domain.Timeslot, error) {
	const query = `SELECT id, start_minute, end_minute, capacity FROM examboard_timeslots ORDER BY start_minute ASC`
	var rows []timeslotRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}

	out := make([]domain.Timeslot, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Timeslot{
			ID:       domain.ID(r.ID),
			Start:    domain.Clock(r.StartMinute),
			End:      domain.Clock(r.EndMinute),
			Capacity: r.Capacity,
		})
	}
	return out, nil
}

// LoadInputs fetches all four collections and assembles domain.Inputs,
// the one call site the pipeline layer actually needs.
func LoadInputs(ctx context.Context, src InputSource) (domain.Inputs, error) {
	projects, err := src.ListProjects(ctx)
	if err != nil {
		return domain.Inputs{}, err
	}
	instructors, err := src.ListInstructors(ctx)
	if err != nil {
		return domain.Inputs{}, err
	}
	classrooms, err := src.ListClassrooms(ctx)
	if err != nil {
		return domain.Inputs{}, err
	}
	timeslots, err := src.ListTimeslots(ctx)
	if err != nil {
		return domain.Inputs{}, err
	}
	return domain.NewInputs(projects, instructors, classrooms, timeslots), nil
}

func parseProjectKind(raw string) domain.ProjectKind {
	switch raw {
	case "FINAL", "final", "bitirme":
		return domain.ProjectKindFinal
	case "INTERIM", "interim", "ara":
		return domain.ProjectKindInterim
	default:
		return domain.ProjectKindUnknown
	}
}
