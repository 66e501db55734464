package repository

import (
	"context"
	"errors"
	"testing"

	"railbite/models"
)

func TestStoreWithTx_CommitAndRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Store) error {
		_, err := tx.Users.Create(ctx, &models.User{Name: "a", Email: "a@example.com", PasswordHash: "x"})
		return err
	})
	if err != nil {
		t.Fatalf("commit tx: %v", err)
	}
	if u, _ := s.Users.GetByEmail(ctx, "a@example.com"); u == nil {
		t.Fatalf("committed user not visible")
	}

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.Users.Create(ctx, &models.User{Name: "b", Email: "b@example.com", PasswordHash: "x"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if u, _ := s.Users.GetByEmail(ctx, "b@example.com"); u != nil {
		t.Fatalf("rolled back user is visible: %+v", u)
	}
}

func TestStoreWithTx_NestedReusesTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	err := s.WithTx(ctx, func(tx *Store) error {
		return tx.WithTx(ctx, func(inner *Store) error {
			if inner != tx {
				t.Fatalf("nested WithTx opened a new store")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "dup@example.com", models.RoleCustomer)
	_, err := s.Users.Create(ctx, &models.User{Name: "dup", Email: "DUP@example.com", PasswordHash: "x"})
	if err == nil {
		t.Fatalf("expected duplicate email error")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false", err)
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Fatalf("plain error reported as unique violation")
	}
}
