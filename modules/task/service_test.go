package task

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/example/task-tracker/domain/errs"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Test configuration
const testRedisAddr = "localhost:6379"

// testSetup creates a test environment with database and cache.
type testSetup struct {
	db      *gorm.DB
	repo    *domain.Repository
	cache   *cache.Cache
	service *Service
	cleanup func()
}

func setupTest(t *testing.T) *testSetup {
	t.Helper()

	// Create a temporary SQLite database
	dbPath := "test_tasks_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	// Create repository and run migrations
	repo := domain.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	// Create Redis client
	client := redis.NewClient(&redis.Options{
		Addr: testRedisAddr,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	// Create cache with unique prefix for this test
	prefix := "test:" + t.Name() + ":"
	cleanupKeys(ctx, client, prefix+"*")
	c := cache.New(client, prefix, 5*time.Minute)

	// Create service
	service := NewService(repo, c)

	cleanup := func() {
		cleanupKeys(ctx, client, prefix+"*")
		client.Close()
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return &testSetup{
		db:      db,
		repo:    repo,
		cache:   c,
		service: service,
		cleanup: cleanup,
	}
}

func cleanupKeys(ctx context.Context, client *redis.Client, pattern string) {
	var cursor uint64
	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
}

func validCreateRequest() *CreateTaskRequest {
	return &CreateTaskRequest{
		Title:    "Write report",
		Priority: domain.PriorityMedium,
		DueDate:  time.Now().UTC().Add(48 * time.Hour),
	}
}

func TestService_Create(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	actorID := "admin-1"

	created, err := ts.service.Create(ctx, validCreateRequest(), actorID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID == "" {
		t.Error("Created task should have an ID")
	}
	if created.Status != domain.StatusNew {
		t.Errorf("Status = %v, want %v", created.Status, domain.StatusNew)
	}
	if created.CreatorID != actorID {
		t.Errorf("CreatorID = %q, want %q", created.CreatorID, actorID)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("CreatedAt (%v) should equal UpdatedAt (%v) on creation", created.CreatedAt, created.UpdatedAt)
	}

	// Exactly one history record brackets the creation.
	records, err := ts.repo.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(records))
	}
	rec := records[0]
	if rec.ChangedField != "Task" {
		t.Errorf("ChangedField = %q, want %q", rec.ChangedField, "Task")
	}
	if rec.OldValue != "" {
		t.Errorf("OldValue = %q, want empty", rec.OldValue)
	}
	want := "Created | Task created by user " + actorID
	if rec.NewValue != want {
		t.Errorf("NewValue = %q, want %q", rec.NewValue, want)
	}
	if rec.ChangedByID != actorID {
		t.Errorf("ChangedByID = %q, want %q", rec.ChangedByID, actorID)
	}
}

func TestService_Create_Validation(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*CreateTaskRequest)
		field  string
	}{
		{"missing title", func(r *CreateTaskRequest) { r.Title = "" }, "title"},
		{"title too long", func(r *CreateTaskRequest) { r.Title = strings.Repeat("x", 201) }, "title"},
		{"description too long", func(r *CreateTaskRequest) { r.Description = strings.Repeat("x", 1001) }, "description"},
		{"invalid priority", func(r *CreateTaskRequest) { r.Priority = domain.Priority(42) }, "priority"},
		{"missing due date", func(r *CreateTaskRequest) { r.DueDate = time.Time{} }, "due_date"},
		{"past due date", func(r *CreateTaskRequest) { r.DueDate = time.Now().Add(-time.Hour) }, "due_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.modify(req)

			_, err := ts.service.Create(ctx, req, "admin-1")
			var verr *errs.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields[tt.field]) == 0 {
				t.Errorf("expected a message for field %q, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestService_Update_HistoryPerChangedField(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	newTitle := "Write the full report"
	newPriority := domain.PriorityHigh
	updated, err := ts.service.Update(ctx, created.ID, &UpdateTaskRequest{
		Title:    &newTitle,
		Priority: &newPriority,
	}, "editor-1")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != newTitle {
		t.Errorf("Title = %q, want %q", updated.Title, newTitle)
	}
	if updated.Priority != newPriority {
		t.Errorf("Priority = %v, want %v", updated.Priority, newPriority)
	}
	// Untouched fields keep their prior values.
	if updated.Description != created.Description {
		t.Errorf("Description changed unexpectedly: %q", updated.Description)
	}
	if !updated.DueDate.Equal(created.DueDate) {
		t.Errorf("DueDate changed unexpectedly: %v", updated.DueDate)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("UpdatedAt should advance on update")
	}

	// One record per changed field, plus the creation record.
	records, err := ts.repo.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 history records, got %d", len(records))
	}

	byField := make(map[string]struct{ old, new string })
	for _, r := range records {
		byField[r.ChangedField] = struct{ old, new string }{r.OldValue, r.NewValue}
	}
	if got := byField["Title"]; got.old != "Write report" || got.new != newTitle {
		t.Errorf("Title record = %+v", got)
	}
	if got := byField["Priority"]; got.old != "Medium" || got.new != "High" {
		t.Errorf("Priority record = %+v", got)
	}
}

func TestService_Update_IdenticalValueYieldsNoRecord(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sameTitle := created.Title
	if _, err := ts.service.Update(ctx, created.ID, &UpdateTaskRequest{Title: &sameTitle}, "editor-1"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	records, err := ts.repo.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	// Only the creation record remains.
	if len(records) != 1 {
		t.Errorf("expected 1 history record, got %d", len(records))
	}
}

func TestService_Update_NotFound(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	title := "x"
	_, err := ts.service.Update(context.Background(), "non-existent-id", &UpdateTaskRequest{Title: &title}, "editor-1")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ChangeStatus(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := ts.service.ChangeStatus(ctx, created.ID, &ChangeStatusRequest{Status: domain.StatusDone}, "worker-1")
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if updated.Status != domain.StatusDone {
		t.Errorf("Status = %v, want %v", updated.Status, domain.StatusDone)
	}

	records, err := ts.repo.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(records))
	}

	var statusRec *domain.History
	for i := range records {
		if records[i].ChangedField == "Status" {
			statusRec = &records[i]
		}
	}
	if statusRec == nil {
		t.Fatal("no Status history record found")
	}
	if statusRec.OldValue != "New" {
		t.Errorf("OldValue = %q, want %q", statusRec.OldValue, "New")
	}
	want := "Done | Status changed from New to Done by user worker-1"
	if statusRec.NewValue != want {
		t.Errorf("NewValue = %q, want %q", statusRec.NewValue, want)
	}
}

func TestService_ChangeStatus_NoOpStillLogged(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Setting the status to its current value still appends a record.
	if _, err := ts.service.ChangeStatus(ctx, created.ID, &ChangeStatusRequest{Status: domain.StatusNew}, "worker-1"); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}

	records, err := ts.repo.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(records))
	}

	var statusRec *domain.History
	for i := range records {
		if records[i].ChangedField == "Status" {
			statusRec = &records[i]
		}
	}
	if statusRec == nil {
		t.Fatal("no Status history record found")
	}
	want := "New | Status changed from New to New by user worker-1"
	if statusRec.NewValue != want {
		t.Errorf("NewValue = %q, want %q", statusRec.NewValue, want)
	}
}

func TestService_ChangeStatus_InvalidStatus(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = ts.service.ChangeStatus(ctx, created.ID, &ChangeStatusRequest{Status: domain.Status(9)}, "worker-1")
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_Delete_HistorySurvives(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	actorID := "admin-1"
	created, err := ts.service.Create(ctx, validCreateRequest(), actorID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := ts.service.Delete(ctx, created.ID, actorID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := ts.service.Get(ctx, created.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// The audit trail is still there, closed by the deletion record.
	records, err := ts.service.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(records))
	}
	final := records[0]
	if final.ChangedField != "Task" || final.OldValue != "Exists" {
		t.Errorf("final record = %+v", final)
	}
	want := "Deleted | Task was deleted by user " + actorID
	if final.NewValue != want {
		t.Errorf("NewValue = %q, want %q", final.NewValue, want)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	err := ts.service.Delete(context.Background(), "non-existent-id", "admin-1")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_List_CacheAside(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := ts.service.Create(ctx, validCreateRequest(), "admin-1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	ts.cache.ResetStats()
	f := domain.Filter{Page: 1, PageSize: 10}

	// First list - cache miss
	tasks1, err := ts.service.List(ctx, f)
	if err != nil {
		t.Fatalf("List() first call error = %v", err)
	}
	if len(tasks1) != 3 {
		t.Errorf("tasks count = %d, want 3", len(tasks1))
	}

	// Second list - cache hit
	tasks2, err := ts.service.List(ctx, f)
	if err != nil {
		t.Fatalf("List() second call error = %v", err)
	}
	if len(tasks2) != 3 {
		t.Errorf("tasks count = %d, want 3", len(tasks2))
	}

	stats := ts.cache.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
}

func TestService_List_EquivalentFiltersShareCacheEntry(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	if _, err := ts.service.Create(ctx, validCreateRequest(), "admin-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ts.cache.ResetStats()

	if _, err := ts.service.List(ctx, domain.Filter{SortBy: "Priority", Page: 1, PageSize: 10}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if _, err := ts.service.List(ctx, domain.Filter{SortBy: "priority", Page: 1, PageSize: 10}); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	stats := ts.cache.GetStats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("Misses = %d, Hits = %d; want 1 miss then 1 hit", stats.Misses, stats.Hits)
	}
}

func TestService_Mutation_InvalidatesListCache(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	f := domain.Filter{Page: 1, PageSize: 10}
	if _, err := ts.service.List(ctx, f); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	// Mutate, then list again: the entry must be gone.
	if _, err := ts.service.ChangeStatus(ctx, created.ID, &ChangeStatusRequest{Status: domain.StatusInProgress}, "admin-1"); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}

	ts.cache.ResetStats()
	tasks, err := ts.service.List(ctx, f)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if ts.cache.GetStats().Misses != 1 {
		t.Error("List() after mutation should be a cache miss")
	}
	if tasks[0].Status != domain.StatusInProgress {
		t.Errorf("listed status = %v, want %v", tasks[0].Status, domain.StatusInProgress)
	}
}

func TestService_HistoryForTask_CacheAside(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ts.cache.ResetStats()

	records1, err := ts.service.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() first call error = %v", err)
	}
	records2, err := ts.service.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() second call error = %v", err)
	}
	if len(records1) != 1 || len(records2) != 1 {
		t.Errorf("record counts = %d, %d; want 1, 1", len(records1), len(records2))
	}

	stats := ts.cache.GetStats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("Misses = %d, Hits = %d; want 1 miss then 1 hit", stats.Misses, stats.Hits)
	}

	// A further mutation must evict the cached history.
	if _, err := ts.service.ChangeStatus(ctx, created.ID, &ChangeStatusRequest{Status: domain.StatusDone}, "admin-1"); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	records3, err := ts.service.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}
	if len(records3) != 2 {
		t.Errorf("expected 2 records after status change, got %d", len(records3))
	}
}

func TestService_AllHistory(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	a, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := ts.service.Create(ctx, validCreateRequest(), "admin-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := ts.service.ChangeStatus(ctx, a.ID, &ChangeStatusRequest{Status: domain.StatusDone}, "admin-1"); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}

	records, err := ts.service.AllHistory(ctx)
	if err != nil {
		t.Fatalf("AllHistory() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestService_GetHistory(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	created, err := ts.service.Create(ctx, validCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	records, err := ts.repo.HistoryForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("HistoryForTask() error = %v", err)
	}

	found, err := ts.service.GetHistory(ctx, records[0].ID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if found.TaskID != created.ID {
		t.Errorf("TaskID = %q, want %q", found.TaskID, created.ID)
	}

	if _, err := ts.service.GetHistory(ctx, "non-existent-id"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ExportCSV(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	req := validCreateRequest()
	req.Title = "Exported task"
	req.AssigneeID = "alice"
	created, err := ts.service.Create(ctx, req, "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	data, err := ts.service.ExportCSV(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if lines[0] != "Id,Title,Description,Status,Priority,DueDate,CreatedAt,UpdatedAt,CreatorId,AssigneeId" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	row := lines[1]
	for _, want := range []string{created.ID, "Exported task", "New", "Medium", "alice", "admin-1"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}
}

func TestService_ExportCSV_RespectsFilter(t *testing.T) {
	ts := setupTest(t)
	defer ts.cleanup()

	ctx := context.Background()
	high := validCreateRequest()
	high.Priority = domain.PriorityHigh
	if _, err := ts.service.Create(ctx, high, "admin-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := ts.service.Create(ctx, validCreateRequest(), "admin-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	p := domain.PriorityHigh
	data, err := ts.service.ExportCSV(ctx, domain.Filter{Priority: &p})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected header plus 1 row, got %d lines", len(lines))
	}
}
