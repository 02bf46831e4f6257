// Package domain holds the immutable input model and the mutable Assignment
// record shared by every scheduling engine, the fitness scorer, and the
// post-processing passes.
package domain

import "strings"

// JuryPlaceholder is the fixed second-jury role. It is never a decision
// variable and must appear verbatim in every Assignment's output.
type JuryPlaceholder struct{}

// Literal is the compatibility string the downstream UI expects.
const Literal = "[Araştırma Görevlisi]"

// String implements fmt.Stringer so the placeholder can't drift from Literal.
func (JuryPlaceholder) String() string { return Literal }

// ProjectKind distinguishes graduation ("bitirme") from mid-term ("ara") exams.
type ProjectKind int

const (
	ProjectKindUnknown ProjectKind = iota
	ProjectKindFinal               // bitirme
	ProjectKindInterim             // ara
)

func (k ProjectKind) String() string {
	switch k {
	case ProjectKindFinal:
		return "FINAL"
	case ProjectKindInterim:
		return "INTERIM"
	default:
		return "UNKNOWN"
	}
}

// RequiredJuryCount is the number of jury1-style decision slots a project of
// this kind needs (FINAL needs 2 faculty jurors, INTERIM needs 1).
func (k ProjectKind) RequiredJuryCount() int {
	if k == ProjectKindFinal {
		return 2
	}
	return 1
}

// InstructorKind is the normalized two-variant sum type every raw alias
// collapses into on ingestion.
type InstructorKind int

const (
	InstructorKindUnknown InstructorKind = iota
	InstructorKindFaculty
	InstructorKindResearchAssistant
)

func (k InstructorKind) String() string {
	switch k {
	case InstructorKindFaculty:
		return "FACULTY"
	case InstructorKindResearchAssistant:
		return "RESEARCH_ASSISTANT"
	default:
		return "UNKNOWN"
	}
}

// ParseInstructorKind normalizes the external aliases listed in spec §6:
// faculty aliases ("instructor", "professor", "hoca") and assistant aliases
// ("assistant", "research_assistant", "aras_gor"). The raw string is kept by
// the caller for diagnostic display; this function only returns the variant.
func ParseInstructorKind(raw string) InstructorKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "instructor", "professor", "hoca", "faculty":
		return InstructorKindFaculty
	case "assistant", "research_assistant", "aras_gor", "research_assistant_role":
		return InstructorKindResearchAssistant
	default:
		return InstructorKindUnknown
	}
}

// ID is a lightweight identity type used across the four collections.
type ID string

// Project is an immutable description of one exam to be scheduled.
type Project struct {
	ID           ID
	Kind         ProjectKind
	SupervisorID ID
	IsMakeup     bool
}

// Instructor is an immutable description of a faculty member or research
// assistant. Research assistants are never decision variables — they never
// appear as SupervisorID or Jury1ID anywhere in the pipeline.
type Instructor struct {
	ID       ID
	Kind     InstructorKind
	RawKind  string // preserved only for diagnostic display
	Label    string
}

// IsFaculty reports whether this instructor may be a supervisor or jury1.
func (i Instructor) IsFaculty() bool { return i.Kind == InstructorKindFaculty }

// Classroom is an immutable description of a room exams can be held in.
type Classroom struct {
	ID       ID
	Name     string
	Capacity int // 0 means unspecified
}

// Timeslot is an immutable wall-clock interval. ChronoIndex and IsLate are
// derived by the slot index at construction time and cached here for
// convenience once an index has been built.
type Timeslot struct {
	ID       ID
	Start    Clock
	End      Clock
	Capacity int // 0 means unspecified; the overflow check is skipped

	ChronoIndex int
	IsLate      bool
}

// Clock is a minute-of-day wall-clock value (0..1439), avoiding any timezone
// or calendar-date entanglement the scheduling core has no business with.
type Clock int

// NewClock builds a Clock from hour:minute.
func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Before reports whether c occurs strictly earlier than other.
func (c Clock) Before(other Clock) bool { return c < other }

var (
	lunchStart = NewClock(12, 0)
	lunchEnd   = NewClock(13, 0)
	lateCutoff = NewClock(16, 30)
)

// InLunchGap reports whether the interval [start,end) falls entirely inside
// the fixed lunch boundary, which is never counted as a scheduling gap.
func InLunchGap(start, end Clock) bool {
	return !start.Before(lunchStart) && end <= lunchEnd
}

// Assignment is the schedule's unit record.
type Assignment struct {
	ProjectID   ID
	ClassroomID ID
	TimeslotID  ID
	ChronoIndex int

	SupervisorID ID // mirrored from Project, never mutated by an engine

	// JuryIDs holds the real (non-placeholder) faculty jury decision slots:
	// one for INTERIM projects, two for FINAL. Entries are filled in order as
	// refinement resolves them; a short slice means some slots are still
	// open. The fixed placeholder (J2 in the glossary) is never stored here —
	// it is always present and always the literal Jury2Literal() string.
	JuryIDs     []ID
	ProjectKind ProjectKind
}

// Jury2Literal returns the constant second-jury string every Assignment must
// carry. It exists so call sites never spell the magic string themselves.
func (a Assignment) Jury2Literal() string { return JuryPlaceholder{}.String() }

// MissingJuryCount returns how many more jury slots this assignment needs to
// reach its project kind's RequiredJuryCount.
func (a Assignment) MissingJuryCount() int {
	need := a.ProjectKind.RequiredJuryCount() - len(a.JuryIDs)
	if need < 0 {
		return 0
	}
	return need
}

// HasJury reports whether id already occupies one of this assignment's jury
// slots, so candidate selection never double-books the same instructor.
func (a Assignment) HasJury(id ID) bool {
	for _, existing := range a.JuryIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Inputs bundles the four immutable collections a scheduling run operates
// over, plus a lookup by ID for convenience. Engines receive Inputs by
// shared read-only reference; nothing in this package mutates the slices.
type Inputs struct {
	Projects    []Project
	Instructors []Instructor
	Classrooms  []Classroom
	Timeslots   []Timeslot

	projectByID    map[ID]Project
	instructorByID map[ID]Instructor
	classroomByID  map[ID]Classroom
	timeslotByID   map[ID]Timeslot
}

// NewInputs builds an Inputs value with ID lookups pre-indexed.
func NewInputs(projects []Project, instructors []Instructor, classrooms []Classroom, timeslots []Timeslot) Inputs {
	in := Inputs{
		Projects:       projects,
		Instructors:    instructors,
		Classrooms:     classrooms,
		Timeslots:      timeslots,
		projectByID:    make(map[ID]Project, len(projects)),
		instructorByID: make(map[ID]Instructor, len(instructors)),
		classroomByID:  make(map[ID]Classroom, len(classrooms)),
		timeslotByID:   make(map[ID]Timeslot, len(timeslots)),
	}
	for _, p := range projects {
		in.projectByID[p.ID] = p
	}
	for _, i := range instructors {
		in.instructorByID[i.ID] = i
	}
	for _, c := range classrooms {
		in.classroomByID[c.ID] = c
	}
	for _, t := range timeslots {
		in.timeslotByID[t.ID] = t
	}
	return in
}

func (in Inputs) Project(id ID) (Project, bool)       { p, ok := in.projectByID[id]; return p, ok }
func (in Inputs) Instructor(id ID) (Instructor, bool) { i, ok := in.instructorByID[id]; return i, ok }
func (in Inputs) Classroom(id ID) (Classroom, bool)   { c, ok := in.classroomByID[id]; return c, ok }
func (in Inputs) Timeslot(id ID) (Timeslot, bool)     { t, ok := in.timeslotByID[id]; return t, ok }

// Faculty returns only the faculty-kind instructors, in input order.
func (in Inputs) Faculty() []Instructor {
	out := make([]Instructor, 0, len(in.Instructors))
	for _, i := range in.Instructors {
		if i.IsFaculty() {
			out = append(out, i)
		}
	}
	return out
}

// Validate enforces the ingestion-time checks spec.md assigns to Initialize:
// none of the four collections may be empty, and no project's supervisor may
// resolve to a research assistant.
func (in Inputs) Validate() error {
	if len(in.Projects) == 0 || len(in.Instructors) == 0 || len(in.Classrooms) == 0 || len(in.Timeslots) == 0 {
		return ErrInsufficientData
	}
	for _, p := range in.Projects {
		supervisor, ok := in.Instructor(p.SupervisorID)
		if !ok {
			return ErrInsufficientData
		}
		if supervisor.Kind == InstructorKindResearchAssistant {
			return ErrInsufficientData
		}
	}
	return nil
}
