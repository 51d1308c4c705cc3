package service

import (
	"sync"
	"testing"

	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/testutil"
	"go-stock-tracker/internal/ws"

	"gorm.io/gorm"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *eventRecorder) Publish(e ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) actions(eventType string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e.Action)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	events   *eventRecorder
	requests StockRequestService
	txRepo   repository.TransactionRepository

	admin    *model.User
	admin2   *model.User
	employee *model.User
	other    *model.User
	category *model.Category
	product  *model.Product
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &eventRecorder{}

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	f := &fixture{
		db:     db,
		events: events,
		txRepo: txRepo,
		requests: NewStockRequestService(
			repository.NewStockRequestRepo(db),
			productRepo,
			repository.NewUserRepo(db),
			txRepo,
			db,
			events,
		),
		admin:    testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin, true),
		admin2:   testutil.CreateUser(t, db, "second.admin@example.com", model.RoleAdmin, false),
		employee: testutil.CreateUser(t, db, "employee@example.com", model.RoleEmployee, false),
		other:    testutil.CreateUser(t, db, "other@example.com", model.RoleEmployee, false),
	}
	f.category = testutil.CreateCategory(t, db, "Cables")
	f.product = testutil.CreateProduct(t, db, f.category.ID, "USB-C cable", stock)
	return f
}

func callerFor(u *model.User) Caller {
	return Caller{ID: u.ID, Name: u.FullName(), IsAdmin: u.IsAdmin(), IsPrimaryAdmin: u.IsPrimaryAdmin}
}

func (f *fixture) transactionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&model.StockTransaction{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
