package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/crm"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return New(db), mock
}

func userRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "full_name", "password_hash",
		"role", "active", "created_at", "updated_at",
	}).AddRow(
		"u-1", "aicha", "aicha@epic-events.example", "Aicha Diallo", "$argon2id$...",
		"commercial", 1, "2026-01-10T09:00:00Z", "2026-01-10T09:00:00Z",
	)
}

func TestUserStoreFindByUsername(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select id, username, email, full_name, password_hash, role, active, created_at, updated_at from users where username").
		WithArgs("aicha").
		WillReturnRows(userRow())

	user, err := store.Users().FindByUsername(context.Background(), "  AICHA ")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user.ID != "u-1" {
		t.Fatalf("id = %s", user.ID)
	}
	if user.Role != auth.RoleCommercial {
		t.Fatalf("role = %s", user.Role)
	}
	if !user.Active {
		t.Fatalf("active flag lost")
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("created_at not parsed")
	}
}

func TestUserStoreFindByUsernameMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from users where username").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.Users().FindByUsername(context.Background(), "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserStoreSaveUpserts(t *testing.T) {
	store, mock := newMock(t)

	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("insert into users").
		WithArgs("u-1", "aicha", "aicha@epic-events.example", "Aicha Diallo", "$argon2id$...",
			"commercial", 1, fmtTime(now), fmtTime(now)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Users().Save(context.Background(), &auth.User{
		ID:           "u-1",
		Username:     "aicha",
		Email:        "aicha@epic-events.example",
		FullName:     "Aicha Diallo",
		PasswordHash: "$argon2id$...",
		Role:         auth.RoleCommercial,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestUserStoreAllActiveUsers(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from users where active = 1 order by username").
		WillReturnRows(userRow())

	users, err := store.Users().AllActiveUsers(context.Background())
	if err != nil {
		t.Fatalf("AllActiveUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "aicha" {
		t.Fatalf("users = %+v", users)
	}
}

func TestCustomerStoreUpdateMissingRow(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("update customers set").
		WithArgs("Kevin Casey", "kevin@startup.io", "", "", sqlmock.AnyArg(), "c-ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Customers().Update(context.Background(), &crm.Customer{
		ID:       "c-ghost",
		FullName: "Kevin Casey",
		Email:    "kevin@startup.io",
	})
	if !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func contractRow(id string, signed int, due int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "sales_contact_id", "total_amount", "amount_due",
		"signed", "created_at", "updated_at",
	}).AddRow(id, "c-1", "u-1", int64(500_000), due, signed,
		"2026-01-10T09:00:00Z", "2026-01-10T09:00:00Z")
}

func TestContractStoreGet(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from contracts where id").
		WithArgs("k-1").
		WillReturnRows(contractRow("k-1", 1, 200_000))

	contract, err := store.Contracts().Get(context.Background(), "k-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !contract.Signed {
		t.Fatalf("signed flag lost")
	}
	if contract.AmountDue != 200_000 {
		t.Fatalf("due = %d", contract.AmountDue)
	}
}

func TestContractStoreListFilterClauses(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from contracts where signed = 0 and amount_due > 0 order by created_at").
		WillReturnRows(contractRow("k-1", 0, 500_000))

	contracts, err := store.Contracts().List(context.Background(), crm.ContractFilter{
		UnsignedOnly: true,
		UnpaidOnly:   true,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(contracts) != 1 || contracts[0].ID != "k-1" {
		t.Fatalf("contracts = %+v", contracts)
	}
}

func eventColumnsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "contract_id", "customer_id", "support_contact_id", "name",
		"start_at", "end_at", "location", "attendees", "notes",
		"created_at", "updated_at",
	})
}

func TestEventStoreGetNullSupportContact(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from events where id").
		WithArgs("e-1").
		WillReturnRows(eventColumnsRows().AddRow(
			"e-1", "k-1", "c-1", nil, "Launch Party",
			"2026-09-01T18:00:00Z", "2026-09-01T23:00:00Z", "Paris", 80, "",
			"2026-01-10T09:00:00Z", "2026-01-10T09:00:00Z",
		))

	event, err := store.Events().Get(context.Background(), "e-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if event.SupportContactID != "" {
		t.Fatalf("support contact = %q, want empty for null", event.SupportContactID)
	}
	if event.Start.IsZero() || event.End.IsZero() {
		t.Fatalf("timestamps not parsed")
	}
}

func TestEventStoreListUnassigned(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from events where support_contact_id is null order by start_at").
		WillReturnRows(eventColumnsRows())

	events, err := store.Events().List(context.Background(), crm.EventFilter{UnassignedOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %+v", events)
	}
}

func TestEventStoreListBySupportContact(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from events where support_contact_id = ").
		WithArgs("u-support").
		WillReturnRows(eventColumnsRows().AddRow(
			"e-1", "k-1", "c-1", "u-support", "Launch Party",
			"2026-09-01T18:00:00Z", "2026-09-01T23:00:00Z", "Paris", 80, "",
			"2026-01-10T09:00:00Z", "2026-01-10T09:00:00Z",
		))

	events, err := store.Events().List(context.Background(), crm.EventFilter{SupportContactID: "u-support"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].SupportContactID != "u-support" {
		t.Fatalf("events = %+v", events)
	}
}

func TestEventStoreDeleteMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("delete from events where id").
		WithArgs("e-ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Events().Delete(context.Background(), "e-ghost"); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStoreInitCreatesSchema(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("create table if not exists users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
}
