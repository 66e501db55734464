package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"railbite/models"
)

func TestStaffSyncOnReadHealsDrift(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	customer := env.principal(t, "c@example.com", models.RoleCustomer)
	_, s1 := env.courier(t, "s1")
	o := env.placeOrder(t, customer, models.OrderStatusConfirmed)
	_, err := env.svc.Orders.AssignStaff(ctx, env.admin, o.ID, s1.ID)
	require.NoError(t, err)

	// Simulate a crash that left stale counters behind.
	require.NoError(t, env.store.Staff.SaveCounters(ctx, s1.ID, models.StaffStatusAvailable, models.StaffCounters{Active: 7, TotalDeliveries: 3, OnTimeRate: 12}))

	all, err := env.svc.Staff.ListAll(ctx, env.admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].AssignedOrders)
	assert.Equal(t, models.StaffStatusBusy, all[0].Status)
	assert.Equal(t, 0, all[0].TotalDeliveries)
	assert.Equal(t, 100.0, all[0].OnTimeRate)

	persisted := env.staff(t, s1.ID)
	assert.Equal(t, 1, persisted.AssignedOrders)

	// Busy with nothing active flips back to available.
	_, err = env.svc.Orders.UpdateStatus(ctx, env.admin, o.ID, UpdateStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	require.NoError(t, env.store.Staff.SaveCounters(ctx, s1.ID, models.StaffStatusBusy, models.StaffCounters{Active: 1, OnTimeRate: 100}))
	all, err = env.svc.Staff.ListAll(ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, 0, all[0].AssignedOrders)
	assert.Equal(t, models.StaffStatusAvailable, all[0].Status)
}

func TestStaffSyncLeavesOfflineAlone(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	_, s1 := env.courier(t, "s1")
	require.NoError(t, env.store.Staff.UpdateStatus(ctx, s1.ID, models.StaffStatusOffline))

	all, err := env.svc.Staff.ListAll(ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusOffline, all[0].Status)
}

func TestListAvailable_ExcludesOfflineAndSortsByLoad(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	customer := env.principal(t, "c@example.com", models.RoleCustomer)

	mk := func(name string) *models.DeliveryStaff {
		st, err := env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: name, Phone: "0190000000"})
		require.NoError(t, err)
		return st
	}
	zed, amy, off := mk("Zed"), mk("Amy"), mk("Off")
	bob := mk("Bob")
	require.NoError(t, env.store.Staff.UpdateStatus(ctx, off.ID, models.StaffStatusOffline))

	for i := 0; i < 2; i++ {
		o := env.placeOrder(t, customer, models.OrderStatusConfirmed)
		_, err := env.svc.Orders.AssignStaff(ctx, env.admin, o.ID, amy.ID)
		require.NoError(t, err)
	}
	o := env.placeOrder(t, customer, models.OrderStatusConfirmed)
	_, err := env.svc.Orders.AssignStaff(ctx, env.admin, o.ID, zed.ID)
	require.NoError(t, err)

	avail, err := env.svc.Staff.ListAvailable(ctx, env.admin)
	require.NoError(t, err)
	var names []string
	for _, st := range avail {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"Bob", "Zed", "Amy"}, names)
	assert.Equal(t, bob.ID, avail[0].ID)
	assert.Equal(t, 2, avail[2].AssignedOrders)

	_, err = env.svc.Staff.ListAvailable(ctx, customer)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestStaffCreate_WithAccount(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	st, err := env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: "Rafiq", Phone: "01912345678", Email: "Rafiq@RailBite.test", Password: "secret123"})
	require.NoError(t, err)
	require.NotNil(t, st.UserID)
	assert.Equal(t, models.StaffStatusAvailable, st.Status)
	assert.Equal(t, models.DefaultStaffRating, st.Rating)

	u, err := env.store.Users.GetByID(ctx, *st.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDelivery, u.Role)
	assert.Equal(t, "rafiq@railbite.test", u.Email)

	sess, err := env.svc.Accounts.Login(ctx, LoginInput{Email: "rafiq@railbite.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDelivery, sess.User.Role)

	_, err = env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: "Dup", Phone: "1", Email: "rafiq@railbite.test", Password: "secret123"})
	require.ErrorIs(t, err, ErrEmailTaken)
	require.ErrorIs(t, err, ErrConflict)
	all, err := env.store.Staff.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "the conflicting profile must be rolled back")

	_, err = env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: "Short", Phone: "1", Email: "s@railbite.test", Password: "123"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: " ", Phone: "1"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestStaffDelete(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	customer := env.principal(t, "c@example.com", models.RoleCustomer)

	st, err := env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: "Rafiq", Phone: "1", Email: "rafiq@railbite.test", Password: "secret123"})
	require.NoError(t, err)
	o := env.placeOrder(t, customer, models.OrderStatusConfirmed)
	_, err = env.svc.Orders.AssignStaff(ctx, env.admin, o.ID, st.ID)
	require.NoError(t, err)

	err = env.svc.Staff.Delete(ctx, env.admin, st.ID)
	require.ErrorIs(t, err, ErrStaffHasActiveOrders)

	_, err = env.svc.Orders.Cancel(ctx, customer, o.ID, "")
	require.NoError(t, err)
	require.NoError(t, env.svc.Staff.Delete(ctx, env.admin, st.ID))

	gone, err := env.store.Staff.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	u, err := env.store.Users.GetByID(ctx, *st.UserID)
	require.NoError(t, err)
	assert.Nil(t, u, "linked account is removed with the profile")

	plain, err := env.svc.Staff.Create(ctx, env.admin, CreateStaffInput{Name: "Walk-in", Phone: "2"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Staff.Delete(ctx, env.admin, plain.ID))
	require.ErrorIs(t, env.svc.Staff.Delete(ctx, env.admin, plain.ID), ErrStaffNotFound)
	require.ErrorIs(t, env.svc.Staff.Delete(ctx, customer, plain.ID), ErrForbidden)
}

func TestStaffProfileAndAvailability(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	customer := env.principal(t, "c@example.com", models.RoleCustomer)
	courier := env.principal(t, "courier@railbite.test", models.RoleDelivery)

	p1, err := env.svc.Staff.Profile(ctx, courier)
	require.NoError(t, err)
	p2, err := env.svc.Staff.Profile(ctx, courier)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID, "profile is created once")
	assert.Equal(t, "courier@railbite.test", p1.Name)

	_, err = env.svc.Staff.Profile(ctx, customer)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Staff.SetAvailability(ctx, courier, "busy")
	require.ErrorIs(t, err, ErrValidation)

	st, err := env.svc.Staff.SetAvailability(ctx, courier, "offline")
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusOffline, st.Status)
	st, err = env.svc.Staff.SetAvailability(ctx, courier, "available")
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusAvailable, st.Status)

	o := env.placeOrder(t, customer, models.OrderStatusConfirmed)
	_, err = env.svc.Orders.AssignStaff(ctx, env.admin, o.ID, st.ID)
	require.NoError(t, err)

	_, err = env.svc.Staff.SetAvailability(ctx, courier, "offline")
	require.ErrorIs(t, err, ErrInvalidState)
	st, err = env.svc.Staff.SetAvailability(ctx, courier, "available")
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusBusy, st.Status)
}

func TestStaffCountersUseConfiguredDayAndWindow(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	customer := env.principal(t, "c@example.com", models.RoleCustomer)
	courier, s1 := env.courier(t, "s1")

	o := env.placeOrder(t, customer, models.OrderStatusConfirmed)
	_, err := env.svc.Orders.AssignStaff(ctx, env.admin, o.ID, s1.ID)
	require.NoError(t, err)
	// Assigned two hours ago: well outside the 45 minute window.
	_, err = env.store.DB().ExecContext(ctx, `UPDATE orders SET assigned_at = ? WHERE id = ?`, time.Now().UTC().Add(-2*time.Hour), o.ID)
	require.NoError(t, err)
	_, err = env.svc.Orders.ProgressDelivery(ctx, courier, o.ID, ProgressInput{Status: "on_the_way"})
	require.NoError(t, err)
	_, err = env.svc.Orders.ProgressDelivery(ctx, courier, o.ID, ProgressInput{Status: "delivered"})
	require.NoError(t, err)

	st := env.staff(t, s1.ID)
	assert.Equal(t, 1, st.TotalDeliveries)
	assert.Equal(t, 1, st.CompletedToday)
	assert.Equal(t, 0.0, st.OnTimeRate)

	later := NewStaffService(env.store, nil, zap.NewNop(), StaffOptions{
		Location: time.UTC,
		Now:      func() time.Time { return time.Now().Add(48 * time.Hour) },
	})
	all, err := later.ListAll(ctx, env.admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 0, all[0].CompletedToday)
	assert.Equal(t, 1, all[0].TotalDeliveries)
}
