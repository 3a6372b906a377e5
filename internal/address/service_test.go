package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

type stubAddressRepo struct {
	addresses map[uuid.UUID]*models.Address
}

func newStubAddressRepo() *stubAddressRepo {
	return &stubAddressRepo{addresses: make(map[uuid.UUID]*models.Address)}
}

func (s *stubAddressRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAddressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	out := []models.Address{}
	for _, addr := range s.addresses {
		if addr.UserID == userID {
			out = append(out, *addr)
		}
	}
	return out, nil
}

func (s *stubAddressRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	addr, ok := s.addresses[id]
	if !ok || addr.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *addr
	return &clone, nil
}

func (s *stubAddressRepo) Create(ctx context.Context, address *models.Address) (*models.Address, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	clone := *address
	s.addresses[address.ID] = &clone
	return address, nil
}

func (s *stubAddressRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	addr, ok := s.addresses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["label"]; ok {
		addr.Label = v.(string)
	}
	if v, ok := updates["line1"]; ok {
		addr.Line1 = v.(string)
	}
	if v, ok := updates["line2"]; ok {
		line2 := v.(string)
		addr.Line2 = &line2
	}
	if v, ok := updates["city"]; ok {
		addr.City = v.(string)
	}
	if v, ok := updates["state"]; ok {
		addr.State = v.(string)
	}
	if v, ok := updates["postal_code"]; ok {
		addr.PostalCode = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		addr.Phone = v.(string)
	}
	if v, ok := updates["is_default"]; ok {
		addr.IsDefault = v.(bool)
	}
	return nil
}

func (s *stubAddressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.addresses, id)
	return nil
}

func (s *stubAddressRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, addr := range s.addresses {
		if addr.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *stubAddressRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	for _, addr := range s.addresses {
		if addr.UserID == userID {
			addr.IsDefault = false
		}
	}
	return nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *stubAddressRepo) {
	t.Helper()
	repo := newStubAddressRepo()
	svc, err := NewService(repo, noopTx{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func validInput() CreateInput {
	return CreateInput{
		Line1:      "42 Crust Lane",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62704",
		Phone:      "555-0101",
	}
}

func TestCreate_FirstAddressBecomesDefault(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	resp, err := svc.Create(context.Background(), userID, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !resp.IsDefault {
		t.Fatal("expected first address to become default")
	}
	if resp.Label != "Home" {
		t.Fatalf("expected default label, got %q", resp.Label)
	}
}

func TestCreate_NewDefaultClearsPrevious(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	input := validInput()
	input.Label = "Work"
	input.IsDefault = true
	second, err := svc.Create(ctx, userID, input)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if !second.IsDefault {
		t.Fatal("expected new address to be default")
	}
	if repo.addresses[first.ID].IsDefault {
		t.Fatal("expected previous default to be cleared")
	}
}

func TestCreate_SecondAddressNotDefaultByDefault(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.IsDefault {
		t.Fatal("second address must not steal the default")
	}
	if !repo.addresses[first.ID].IsDefault {
		t.Fatal("first address should remain default")
	}
}

func TestUpdate_SetDefaultSwapsFlag(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	isDefault := true
	updated, err := svc.Update(ctx, userID, second.ID, UpdateInput{IsDefault: &isDefault})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.IsDefault {
		t.Fatal("expected updated address to be default")
	}
	if repo.addresses[first.ID].IsDefault {
		t.Fatal("expected old default to be cleared")
	}
}

func TestUpdate_ForeignAddressNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	intruder := uuid.New()
	ctx := context.Background()

	resp, err := svc.Create(ctx, owner, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	label := "Work"
	_, err = svc.Update(ctx, intruder, resp.ID, UpdateInput{Label: &label})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign address, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()
	ctx := context.Background()

	resp, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	city := "Shelbyville"
	updated, err := svc.Update(ctx, userID, resp.ID, UpdateInput{City: &city})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.City != "Shelbyville" {
		t.Fatalf("expected city updated, got %q", updated.City)
	}
	if updated.Line1 != resp.Line1 {
		t.Fatalf("untouched fields must survive, got %q", updated.Line1)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	ctx := context.Background()

	resp, err := svc.Create(ctx, userID, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(ctx, userID, resp.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := repo.addresses[resp.ID]; ok {
		t.Fatal("expected address removed")
	}
	if err := svc.Delete(ctx, userID, resp.ID); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
}

func TestDelete_ForeignAddressIsNoOp(t *testing.T) {
	svc, repo := newTestService(t)
	owner := uuid.New()
	intruder := uuid.New()
	ctx := context.Background()

	resp, err := svc.Create(ctx, owner, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(ctx, intruder, resp.ID); err != nil {
		t.Fatalf("foreign delete must not error, got %v", err)
	}
	if _, ok := repo.addresses[resp.ID]; !ok {
		t.Fatal("foreign delete must not remove the row")
	}
}

func TestList_ScopedToUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if _, err := svc.Create(ctx, alice, validInput()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ctx, bob, validInput()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	addresses, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(addresses) != 1 {
		t.Fatalf("expected 1 address, got %d", len(addresses))
	}
}
