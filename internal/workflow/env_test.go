package workflow_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/report"
	"github.com/rpggio/atlas/internal/sqlite"
	"github.com/rpggio/atlas/internal/workflow"
	"github.com/stretchr/testify/require"
)

const tenant = "tenant-1"

// scriptedGateway answers each request kind with a canned reply or error.
// A hook runs before the answer and may fail the call itself.
type scriptedGateway struct {
	mu      sync.Mutex
	replies map[ai.Kind]string
	errs    map[ai.Kind]error
	hooks   map[ai.Kind]func(context.Context) error
	prompts []ai.Prompt
}

func (g *scriptedGateway) Complete(ctx context.Context, p ai.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	if hook := g.hooks[p.Kind]; hook != nil {
		if err := hook(ctx); err != nil {
			return "", err
		}
	}
	if err := g.errs[p.Kind]; err != nil {
		return "", err
	}
	reply, ok := g.replies[p.Kind]
	if !ok {
		return "", fmt.Errorf("no scripted reply for %s", p.Kind)
	}
	return reply, nil
}

func (g *scriptedGateway) last() ai.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[len(g.prompts)-1]
}

type env struct {
	db         *sqlite.DB
	engine     *workflow.Engine
	sessions   *session.Service
	companies  *company.Service
	datasets   *dataset.Service
	findings   *finding.Service
	milestones *milestone.Service
	activities *activity.Service
	reports    *report.Service
	gateway    *scriptedGateway
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	activities := activity.NewService(sqlite.NewActivityRepository(db), nil)
	e := &env{
		db:         db,
		sessions:   session.NewService(sqlite.NewSessionRepository(db), activities, nil),
		companies:  company.NewService(sqlite.NewCompanyRepository(db), nil),
		datasets:   dataset.NewService(sqlite.NewDatasetRepository(db), activities, nil),
		findings:   finding.NewService(sqlite.NewFindingRepository(db), activities, nil),
		milestones: milestone.NewService(sqlite.NewMilestoneRepository(db), activities, nil),
		activities: activities,
		gateway: &scriptedGateway{
			replies: map[ai.Kind]string{},
			errs:    map[ai.Kind]error{},
			hooks:   map[ai.Kind]func(context.Context) error{},
		},
	}
	e.engine = workflow.NewEngine(workflow.Config{
		Sessions:   e.sessions,
		Companies:  e.companies,
		Datasets:   e.datasets,
		Findings:   e.findings,
		Milestones: e.milestones,
		Analyzer:   ai.NewAnalyzer(e.gateway, nil),
		Activities: activities,
	})
	e.reports = report.NewService(e.sessions, e.companies, e.findings, e.datasets, activities, nil)
	return e
}

func (e *env) activityTypes(t *testing.T, sessionID string) []activity.ActivityType {
	t.Helper()
	entries, err := e.activities.GetRecentActivity(context.Background(), tenant, activity.ListActivityOptions{SessionID: &sessionID})
	require.NoError(t, err)
	out := make([]activity.ActivityType, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.ActivityType)
	}
	return out
}

func ledgerCSV(rows int) string {
	var b strings.Builder
	b.WriteString("date,account,amount\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "2026-01-%02d,row%03d,%d.50\n", i%28+1, i, 100+i)
	}
	return b.String()
}

// blockStatus makes any write that moves a session to status fail, standing
// in for a database error at the end of a step.
func (e *env) blockStatus(t *testing.T, status session.Status) {
	t.Helper()
	_, err := e.db.Exec(fmt.Sprintf(`CREATE TRIGGER block_%[1]s BEFORE UPDATE ON sessions
		WHEN NEW.status = '%[1]s' BEGIN SELECT RAISE(ABORT, 'status %[1]s blocked'); END`, status))
	require.NoError(t, err)
}
