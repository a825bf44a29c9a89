package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/campeconomy/camp_bank_app/internal/core/services"
	"github.com/campeconomy/camp_bank_app/internal/platform/config"
)

func testFineRules() config.FineRules {
	return config.FineRules{
		SemNotReadPenalty:     50,
		LabPenalty:            30,
		FacPenalty:            30,
		InitialStepOblStudy:   5,
		StepOblStudy:          5,
		OblStudyNeeded:        4,
		OblStudyNeededEquator: 2,
		LabPassNeeded:         map[int]int{5: 2, 6: 2, 7: 3, 8: 3},
		LabPassNeededDefault:  2,
		LabPassNeededEquator:  1,
		FacPassNeeded:         map[int]int{5: 1, 6: 1, 7: 1, 8: 1},
		FacPassNeededDefault:  1,
		LecturePenaltyInitial: 10,
		LecturePenaltyStep:    10,
	}
}

func TestObligatoryStudyFine_ProgressionGrowsWithDeficit(t *testing.T) {
	svc := services.NewFineService(testFineRules(), nil)

	tests := []struct {
		name     string
		seminars int
		faculty  int
		equator  bool
		want     int64
	}{
		// Full deficit of 4: 5 + 10 + 15 + 20.
		{"nothing attended, final", 0, 0, false, 50},
		{"one seminar, final", 1, 0, false, 30},
		{"seminar and faculty both count", 1, 1, false, 15},
		{"requirement met", 3, 1, false, 0},
		{"over-attended", 5, 2, false, 0},
		{"nothing attended, equator", 0, 0, true, 15},
		{"equator requirement met", 1, 1, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acc := &domain.Account{
				Role:         domain.RoleStudent,
				SeminarCount: tc.seminars,
				FacultyCount: tc.faculty,
			}
			got := svc.ObligatoryStudyFine(acc, tc.equator)
			assert.True(t, got.Equal(decimal.NewFromInt(tc.want)), "got %s, want %d", got, tc.want)
		})
	}
}

func TestLabFine_PerGradeRequirement(t *testing.T) {
	svc := services.NewFineService(testFineRules(), nil)

	tests := []struct {
		name    string
		grade   int
		labs    int
		equator bool
		want    int64
	}{
		{"grade 7 missing all three", 7, 0, false, 90},
		{"grade 7 missing one", 7, 2, false, 30},
		{"grade 5 needs only two", 5, 0, false, 60},
		{"unknown grade uses default", 11, 0, false, 60},
		{"requirement met", 7, 3, false, 0},
		{"equator needs one lab", 7, 0, true, 30},
		{"equator met", 7, 1, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acc := &domain.Account{Role: domain.RoleStudent, Grade: tc.grade, LabCount: tc.labs}
			got := svc.LabFine(acc, tc.equator)
			assert.True(t, got.Equal(decimal.NewFromInt(tc.want)), "got %s, want %d", got, tc.want)
		})
	}
}

func TestFacultyAndSeminarFines(t *testing.T) {
	svc := services.NewFineService(testFineRules(), nil)

	slacker := &domain.Account{Role: domain.RoleStudent, Grade: 6}
	assert.True(t, svc.FacultyFine(slacker).Equal(decimal.NewFromInt(30)))
	assert.True(t, svc.SeminarFine(slacker).Equal(decimal.NewFromInt(50)))

	diligent := &domain.Account{Role: domain.RoleStudent, Grade: 6, FacultyCount: 1, SeminarCount: 1}
	assert.True(t, svc.FacultyFine(diligent).IsZero())
	assert.True(t, svc.SeminarFine(diligent).IsZero())
}

func TestNextMissedLecturePenalty_Escalates(t *testing.T) {
	svc := services.NewFineService(testFineRules(), nil)

	fresh := &domain.Account{Role: domain.RoleStudent}
	assert.True(t, svc.NextMissedLecturePenalty(fresh).Equal(decimal.NewFromInt(10)))

	repeat := &domain.Account{Role: domain.RoleStudent, LectureCount: 3}
	assert.True(t, svc.NextMissedLecturePenalty(repeat).Equal(decimal.NewFromInt(40)))
}

func TestTotalFine_EquatorChargesReducedSet(t *testing.T) {
	svc := services.NewFineService(testFineRules(), nil)

	// Grade 7, nothing attended at all.
	acc := &domain.Account{Role: domain.RoleStudent, Grade: 7}

	// Equator: obligatory study (5+10) plus one lab (30).
	equator := svc.TotalFine(acc, true)
	assert.True(t, equator.Equal(decimal.NewFromInt(45)), "got %s", equator)

	// Final: obligatory study (50) + labs (90) + faculty (30) + seminar (50).
	final := svc.TotalFine(acc, false)
	assert.True(t, final.Equal(decimal.NewFromInt(220)), "got %s", final)
}

func TestFines_PrivilegedRolesExempt(t *testing.T) {
	svc := services.NewFineService(testFineRules(), nil)

	for _, role := range []domain.Role{domain.RoleStaff, domain.RoleAdmin} {
		acc := &domain.Account{Role: role, Grade: 7}
		assert.True(t, svc.TotalFine(acc, false).IsZero(), "role %s should owe nothing", role)
		assert.True(t, svc.ObligatoryStudyFine(acc, false).IsZero())
		assert.True(t, svc.LabFine(acc, false).IsZero())
		assert.True(t, svc.NextMissedLecturePenalty(acc).IsZero())
	}
}

func TestGetFineBreakdown_EquatorOmitsFinalOnlyFines(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	svc := services.NewFineService(testFineRules(), accountRepo)

	acc := &domain.Account{
		AccountID: "student-1",
		Role:      domain.RoleStudent,
		Grade:     7,
	}
	accountRepo.On("FindAccountByID", mock.Anything, "student-1").Return(acc, nil)

	breakdown, err := svc.GetFineBreakdown(context.Background(), "student-1", true)

	require.NoError(t, err)
	assert.Equal(t, "student-1", breakdown.AccountID)
	assert.True(t, breakdown.Equator)
	assert.True(t, breakdown.ObligatoryStudy.Equal(decimal.NewFromInt(15)))
	assert.True(t, breakdown.Lab.Equal(decimal.NewFromInt(30)))
	assert.True(t, breakdown.Faculty.IsZero())
	assert.True(t, breakdown.Seminar.IsZero())
	assert.True(t, breakdown.NextLectureMiss.Equal(decimal.NewFromInt(10)))
	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(45)))
}
