package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstructorKindAliases(t *testing.T) {
	faculty := []string{"instructor", "professor", "hoca", "Instructor", " HOCA "}
	for _, raw := range faculty {
		assert.Equal(t, InstructorKindFaculty, ParseInstructorKind(raw), raw)
	}

	assistants := []string{"assistant", "research_assistant", "aras_gor"}
	for _, raw := range assistants {
		assert.Equal(t, InstructorKindResearchAssistant, ParseInstructorKind(raw), raw)
	}

	assert.Equal(t, InstructorKindUnknown, ParseInstructorKind("nonsense"))
}

func TestJuryPlaceholderLiteral(t *testing.T) {
	assert.Equal(t, "[Araştırma Görevlisi]", JuryPlaceholder{}.String())

	a := Assignment{}
	assert.Equal(t, Literal, a.Jury2Literal())
}

func TestInLunchGap(t *testing.T) {
	assert.True(t, InLunchGap(NewClock(12, 0), NewClock(13, 0)))
	assert.False(t, InLunchGap(NewClock(11, 30), NewClock(12, 30)))
	assert.False(t, InLunchGap(NewClock(13, 0), NewClock(14, 0)))
}

func TestInputsValidateRequiresNonEmptyCollections(t *testing.T) {
	_, err := validateEmptyInputs()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func validateEmptyInputs() (Inputs, error) {
	in := NewInputs(nil, nil, nil, nil)
	return in, in.Validate()
}

func TestInputsValidateRejectsResearchAssistantSupervisor(t *testing.T) {
	ra := Instructor{ID: "ra-1", Kind: InstructorKindResearchAssistant}
	in := NewInputs(
		[]Project{{ID: "p1", Kind: ProjectKindFinal, SupervisorID: ra.ID}},
		[]Instructor{ra},
		[]Classroom{{ID: "c1"}},
		[]Timeslot{{ID: "t1"}},
	)

	err := in.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestInputsValidateAcceptsWellFormedData(t *testing.T) {
	supervisor := Instructor{ID: "f-1", Kind: InstructorKindFaculty}
	in := NewInputs(
		[]Project{{ID: "p1", Kind: ProjectKindFinal, SupervisorID: supervisor.ID}},
		[]Instructor{supervisor},
		[]Classroom{{ID: "c1"}},
		[]Timeslot{{ID: "t1"}},
	)

	assert.NoError(t, in.Validate())
}

func TestFacultyFiltersResearchAssistants(t *testing.T) {
	f1 := Instructor{ID: "f1", Kind: InstructorKindFaculty}
	ra := Instructor{ID: "ra1", Kind: InstructorKindResearchAssistant}
	in := NewInputs(nil, []Instructor{f1, ra}, nil, nil)

	faculty := in.Faculty()
	require.Len(t, faculty, 1)
	assert.Equal(t, f1.ID, faculty[0].ID)
}
