package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/cafe_backend/models"
)

func TestShiftRoleOf(t *testing.T) {
	shift := &models.Shift{
		Assignments: []models.ShiftAssignment{
			{UserId: "u-sup", Role: models.ShiftRoleSupervisor},
			{UserId: "u-bar", Role: models.ShiftRoleBarista},
		},
	}

	if role, ok := shift.ShiftRoleOf("u-bar"); !ok || role != models.ShiftRoleBarista {
		t.Fatalf("expected barista assignment, got role=%s ok=%v", role, ok)
	}
	if _, ok := shift.ShiftRoleOf("u-stranger"); ok {
		t.Fatalf("unassigned user must not resolve a role")
	}
}

func TestShiftRoleOf_NilShift(t *testing.T) {
	// The state endpoint calls this on the poll result even when no shift
	// is open.
	var shift *models.Shift
	if _, ok := shift.ShiftRoleOf("u-any"); ok {
		t.Fatalf("nil shift must not resolve a role")
	}
}
