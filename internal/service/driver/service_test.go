package driver_test

import (
	"context"
	"errors"
	"testing"

	driversvc "f1-penca/internal/service/driver"
	"f1-penca/internal/testutil"
	appErr "f1-penca/pkg/errors"
)

func TestListActiveHidesRetiredDrivers(t *testing.T) {
	db := testutil.NewDB(t)
	svc := driversvc.NewService(db)

	verstappen := testutil.CreateDriver(t, db, "Max Verstappen", "Red Bull", 1, true)
	testutil.CreateDriver(t, db, "Retired Driver", "Nobody", 99, false)

	drivers, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(drivers) != 1 || drivers[0].ID != verstappen.ID {
		t.Fatalf("expected only the active driver, got %+v", drivers)
	}
}

func TestCreateAndUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := driversvc.NewService(db)
	ctx := context.Background()

	num := 44
	d, err := svc.Create(ctx, driversvc.MutationParams{Name: " Lewis Hamilton ", Team: "Mercedes", Number: &num, Active: false})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Name != "Lewis Hamilton" || d.Active {
		t.Fatalf("unexpected driver %+v", d)
	}

	updated, err := svc.Update(ctx, d.ID, driversvc.MutationParams{Name: "Lewis Hamilton", Team: "Ferrari", Number: &num, Active: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Team != "Ferrari" || !updated.Active {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := svc.Update(ctx, 999, driversvc.MutationParams{Name: "X", Team: "Y"}); !errors.Is(err, appErr.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
	if _, err := svc.Create(ctx, driversvc.MutationParams{Name: "No Team"}); !errors.Is(err, appErr.ErrInvalidDriver) {
		t.Fatalf("expected ErrInvalidDriver, got %v", err)
	}
	bad := 0
	if _, err := svc.Create(ctx, driversvc.MutationParams{Name: "A", Team: "B", Number: &bad}); !errors.Is(err, appErr.ErrInvalidDriver) {
		t.Fatalf("expected ErrInvalidDriver for number 0, got %v", err)
	}
}

func TestMapIsIdempotentAndRejectsConflicts(t *testing.T) {
	db := testutil.NewDB(t)
	svc := driversvc.NewService(db)
	ctx := context.Background()

	verstappen := testutil.CreateDriver(t, db, "Max Verstappen", "Red Bull", 1, true)
	lando := testutil.CreateDriver(t, db, "Lando Norris", "McLaren", 4, true)

	first, err := svc.Map(ctx, verstappen.ID, " max_verstappen ")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	again, err := svc.Map(ctx, verstappen.ID, "max_verstappen")
	if err != nil {
		t.Fatalf("re-map: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("re-mapping created a second row: %d vs %d", again.ID, first.ID)
	}

	if _, err := svc.Map(ctx, lando.ID, "max_verstappen"); !errors.Is(err, appErr.ErrMappingConflict) {
		t.Fatalf("expected ErrMappingConflict, got %v", err)
	}
	if _, err := svc.Map(ctx, 999, "norris"); !errors.Is(err, appErr.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
	if _, err := svc.Map(ctx, lando.ID, "  "); !errors.Is(err, appErr.ErrInvalidDriver) {
		t.Fatalf("expected ErrInvalidDriver, got %v", err)
	}
}
