package repository

import (
	"context"
	"testing"

	"railbite/models"
)

func TestStaffRepository_CreateDefaultsAndCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Staff.Create(ctx, &models.DeliveryStaff{Name: "Karim", Phone: "019"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.Status != models.StaffStatusAvailable || st.Rating != models.DefaultStaffRating || st.OnTimeRate != 100 {
		t.Fatalf("unexpected defaults: %+v", st)
	}
	if st.UserID != nil {
		t.Fatalf("expected no linked account, got %v", *st.UserID)
	}

	c := models.StaffCounters{Active: 2, CompletedToday: 1, TotalDeliveries: 7, OnTimeRate: 85.7}
	if err := s.Staff.SaveCounters(ctx, st.ID, models.StaffStatusBusy, c); err != nil {
		t.Fatalf("save counters: %v", err)
	}
	if err := s.Staff.UpdateRating(ctx, st.ID, 4.5); err != nil {
		t.Fatalf("update rating: %v", err)
	}
	got, err := s.Staff.GetByID(ctx, st.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StaffStatusBusy || got.AssignedOrders != 2 || got.TotalDeliveries != 7 || got.OnTimeRate != 85.7 || got.Rating != 4.5 {
		t.Fatalf("counters not stored: %+v", got)
	}

	if err := s.Staff.SaveCounters(ctx, 999, models.StaffStatusBusy, c); err == nil {
		t.Fatalf("expected error saving counters for missing staff")
	}
	if err := s.Staff.UpdateStatus(ctx, 999, models.StaffStatusOffline); err == nil {
		t.Fatalf("expected error updating status for missing staff")
	}
}

func TestStaffRepository_LinkedAccountAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "rider@example.com", models.RoleDelivery)
	linked, err := s.Staff.Create(ctx, &models.DeliveryStaff{UserID: &u.ID, Name: "Rider", Phone: "018"})
	if err != nil {
		t.Fatalf("create linked: %v", err)
	}
	if _, err := s.Staff.Create(ctx, &models.DeliveryStaff{UserID: &u.ID, Name: "Again"}); !IsUniqueViolation(err) {
		t.Fatalf("second profile for the same account should violate uniqueness, got %v", err)
	}
	if _, err := s.Staff.Create(ctx, &models.DeliveryStaff{Name: "Walk-in"}); err != nil {
		t.Fatalf("create unlinked: %v", err)
	}

	byUser, err := s.Staff.GetByUserID(ctx, u.ID)
	if err != nil || byUser == nil || byUser.ID != linked.ID {
		t.Fatalf("get by user: %v %+v", err, byUser)
	}
	all, err := s.Staff.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("list: %v len=%d", err, len(all))
	}
	if err := s.Staff.Delete(ctx, linked.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gone, _ := s.Staff.GetByID(ctx, linked.ID); gone != nil {
		t.Fatalf("staff still present after delete")
	}
}
