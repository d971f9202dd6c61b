package scan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rivalradar/rivalradar/app/database"
)

type fakeCompetitorRepo struct {
	competitors []database.Competitor
	lastChecked map[int64]time.Time
}

func newFakeCompetitorRepo(competitors ...database.Competitor) *fakeCompetitorRepo {
	return &fakeCompetitorRepo{competitors: competitors, lastChecked: make(map[int64]time.Time)}
}

func (r *fakeCompetitorRepo) GetCompetitor(_ context.Context, id int64) (*database.Competitor, error) {
	for i := range r.competitors {
		if r.competitors[i].ID == id {
			return &r.competitors[i], nil
		}
	}
	return nil, nil
}

func (r *fakeCompetitorRepo) GetCompetitorByName(_ context.Context, name string) (*database.Competitor, error) {
	for i := range r.competitors {
		if r.competitors[i].Name == name {
			return &r.competitors[i], nil
		}
	}
	return nil, nil
}

func (r *fakeCompetitorRepo) ListCompetitors(_ context.Context) ([]database.Competitor, error) {
	return r.competitors, nil
}

func (r *fakeCompetitorRepo) ListActiveCompetitors(_ context.Context) ([]database.Competitor, error) {
	var active []database.Competitor
	for _, c := range r.competitors {
		if c.Status == database.CompetitorStatusActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func (r *fakeCompetitorRepo) GetCompetitorCount(_ context.Context) (int, error) {
	return len(r.competitors), nil
}

func (r *fakeCompetitorRepo) CreateCompetitor(_ context.Context, c *database.Competitor) error {
	c.ID = int64(len(r.competitors) + 1)
	r.competitors = append(r.competitors, *c)
	return nil
}

func (r *fakeCompetitorRepo) UpsertCompetitor(_ context.Context, name, website, changelogURL string, active bool) (int64, error) {
	return 0, nil
}

func (r *fakeCompetitorRepo) UpdateLastChecked(_ context.Context, id int64, checkedAt time.Time) error {
	r.lastChecked[id] = checkedAt
	return nil
}

func (r *fakeCompetitorRepo) DeleteCompetitor(_ context.Context, id int64) error {
	return nil
}

type fakeSnapshotRepo struct {
	snapshots map[int64][]database.Snapshot
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[int64][]database.Snapshot)}
}

func (r *fakeSnapshotRepo) GetLatestSnapshot(_ context.Context, competitorID int64) (*database.Snapshot, error) {
	snaps := r.snapshots[competitorID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[len(snaps)-1]
	return &latest, nil
}

func (r *fakeSnapshotRepo) AppendSnapshot(_ context.Context, s *database.Snapshot) error {
	r.snapshots[s.CompetitorID] = append(r.snapshots[s.CompetitorID], *s)
	return nil
}

type fakeChangeRepo struct {
	changes []database.Change
}

func (r *fakeChangeRepo) InsertChange(_ context.Context, c *database.Change) error {
	c.ID = int64(len(r.changes) + 1)
	r.changes = append(r.changes, *c)
	return nil
}

func (r *fakeChangeRepo) GetRecentChanges(_ context.Context, limit int) ([]database.Change, error) {
	return r.changes, nil
}

func (r *fakeChangeRepo) GetChangesSince(_ context.Context, since time.Time) ([]database.Change, error) {
	return r.changes, nil
}

func (r *fakeChangeRepo) GetChangeCount(_ context.Context) (int, error) {
	return len(r.changes), nil
}

func newTestOrchestrator(t *testing.T, compRepo *fakeCompetitorRepo, snapRepo *fakeSnapshotRepo, changeRepo *fakeChangeRepo) *Orchestrator {
	t.Helper()
	setTestConfig(t)
	client := &http.Client{}
	return NewOrchestrator(NewFetcher(client), NewChangelogFetcher(client), NewClassifier(nil),
		compRepo, snapRepo, changeRepo)
}

func TestOrchestrator_ScanOneFirstScan(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Acme</title></head><body><main>Acme launches new pricing tier for enterprise customers.</main></body></html>`)

	competitor := database.Competitor{ID: 1, Name: "Acme", Website: server.URL, Status: database.CompetitorStatusActive}
	compRepo := newFakeCompetitorRepo(competitor)
	snapRepo := newFakeSnapshotRepo()
	changeRepo := &fakeChangeRepo{}
	o := newTestOrchestrator(t, compRepo, snapRepo, changeRepo)

	change, err := o.ScanOne(context.Background(), competitor)
	if err != nil {
		t.Fatalf("ScanOne failed: %v", err)
	}

	if change.ChangeType != CategoryFirstScan {
		t.Errorf("First scan should yield first_scan, got %s", change.ChangeType)
	}
	if change.ImportanceScore != 3 {
		t.Errorf("Expected importance 3, got %d", change.ImportanceScore)
	}
	if len(snapRepo.snapshots[1]) != 1 {
		t.Errorf("Expected one snapshot, got %d", len(snapRepo.snapshots[1]))
	}
	if len(changeRepo.changes) != 1 {
		t.Errorf("Expected one change record, got %d", len(changeRepo.changes))
	}
	if _, ok := compRepo.lastChecked[1]; !ok {
		t.Error("Last checked should be updated after a successful scan")
	}
}

func TestOrchestrator_ScanOneDiffsAgainstPrevious(t *testing.T) {
	server := serveHTML(t, `<html><body><main>Acme announces acquisition of Globex plus a launch of the new enterprise pricing product line</main></body></html>`)

	competitor := database.Competitor{ID: 1, Name: "Acme", Website: server.URL, Status: database.CompetitorStatusActive}
	compRepo := newFakeCompetitorRepo(competitor)
	snapRepo := newFakeSnapshotRepo()
	changeRepo := &fakeChangeRepo{}
	o := newTestOrchestrator(t, compRepo, snapRepo, changeRepo)

	previous := &database.Snapshot{
		CompetitorID: 1,
		Content:      "completely unrelated baseline text about widgets",
		ContentHash:  Fingerprint("completely unrelated baseline text about widgets"),
		ScrapedAt:    time.Now().UTC().Add(-time.Hour),
	}
	if err := snapRepo.AppendSnapshot(context.Background(), previous); err != nil {
		t.Fatalf("AppendSnapshot failed: %v", err)
	}

	change, err := o.ScanOne(context.Background(), competitor)
	if err != nil {
		t.Fatalf("ScanOne failed: %v", err)
	}

	if change.ChangeType != CategoryMajorAnnouncement {
		t.Errorf("Added business keywords should yield major_announcement, got %s", change.ChangeType)
	}
	if change.ImportanceScore != 8 {
		t.Errorf("Expected importance 8, got %d", change.ImportanceScore)
	}
	if len(snapRepo.snapshots[1]) != 2 {
		t.Errorf("New snapshot should be appended, have %d", len(snapRepo.snapshots[1]))
	}
}

func TestOrchestrator_ScanOneFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	competitor := database.Competitor{ID: 1, Name: "Acme", Website: server.URL, Status: database.CompetitorStatusActive}
	compRepo := newFakeCompetitorRepo(competitor)
	snapRepo := newFakeSnapshotRepo()
	changeRepo := &fakeChangeRepo{}
	o := newTestOrchestrator(t, compRepo, snapRepo, changeRepo)

	change, err := o.ScanOne(context.Background(), competitor)
	if err == nil {
		t.Error("Fetch failure should surface an error")
	}
	if change == nil || change.ChangeType != CategoryError {
		t.Fatalf("Fetch failure should persist an error record, got %+v", change)
	}
	if change.ImportanceScore != 1 {
		t.Errorf("Expected importance 1, got %d", change.ImportanceScore)
	}
	if len(snapRepo.snapshots[1]) != 0 {
		t.Error("No snapshot should be appended when the fetch fails")
	}
	if len(changeRepo.changes) != 1 {
		t.Errorf("Error record should be persisted, got %d records", len(changeRepo.changes))
	}
}

func TestOrchestrator_ScanAllIsolatesFailures(t *testing.T) {
	good := serveHTML(t, `<html><body><main>Globex ships widgets for everyone</main></body></html>`)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	compRepo := newFakeCompetitorRepo(
		database.Competitor{ID: 1, Name: "Broken", Website: bad.URL, Status: database.CompetitorStatusActive},
		database.Competitor{ID: 2, Name: "Globex", Website: good.URL, Status: database.CompetitorStatusActive},
		database.Competitor{ID: 3, Name: "Dormant", Website: good.URL, Status: database.CompetitorStatusInactive},
	)
	snapRepo := newFakeSnapshotRepo()
	changeRepo := &fakeChangeRepo{}
	o := newTestOrchestrator(t, compRepo, snapRepo, changeRepo)

	outcomes, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes (inactive skipped), got %d", len(outcomes))
	}

	if outcomes[0].CompetitorName != "Broken" || outcomes[0].Err == nil {
		t.Errorf("First outcome should be the failed competitor, got %+v", outcomes[0])
	}
	if outcomes[1].CompetitorName != "Globex" || outcomes[1].Err != nil {
		t.Errorf("Failure of one competitor must not abort the rest, got %+v", outcomes[1])
	}
	if outcomes[1].Change == nil || outcomes[1].Change.ChangeType != CategoryFirstScan {
		t.Errorf("Healthy competitor should still be classified, got %+v", outcomes[1].Change)
	}
}

func TestOrchestrator_ScanAllHonorsCancellation(t *testing.T) {
	server := serveHTML(t, `<html><body><main>content</main></body></html>`)

	compRepo := newFakeCompetitorRepo(
		database.Competitor{ID: 1, Name: "One", Website: server.URL, Status: database.CompetitorStatusActive},
		database.Competitor{ID: 2, Name: "Two", Website: server.URL, Status: database.CompetitorStatusActive},
	)
	o := newTestOrchestrator(t, compRepo, newFakeSnapshotRepo(), &fakeChangeRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := o.ScanAll(ctx)
	if err == nil {
		t.Error("Cancelled context should be reported")
	}
	if len(outcomes) > 1 {
		t.Errorf("Cancellation should stop the batch early, got %d outcomes", len(outcomes))
	}
}
