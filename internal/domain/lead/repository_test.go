package lead

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:lead_repo_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Lead{}))
	return NewRepository(db)
}

func seedLeads(t *testing.T, repo *Repository, leads ...Lead) {
	t.Helper()
	for i := range leads {
		require.NoError(t, repo.Create(context.Background(), &leads[i]))
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	l := newTestLead("1", StatusViewing, 750000)
	l.Tags = []string{"cash", "vip"}
	notes := "wants a garden"
	l.Notes = &notes

	require.NoError(t, repo.Create(ctx, &l))

	got, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, StatusViewing, got.Status)
	assert.Equal(t, []string{"cash", "vip"}, got.Tags)
	assert.True(t, got.Budget.Max.Equal(decimal.NewFromInt(750000)))
	assert.Equal(t, "USD", got.Budget.Currency)
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)
	assert.True(t, got.StageEnteredAt.Equal(l.StageEnteredAt))

	dup := newTestLead("1", StatusNew, 1)
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrLeadExists)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestRepository_CreateAssignsID(t *testing.T) {
	repo := setupTestRepository(t)
	l := newTestLead("", StatusNew, 1)

	require.NoError(t, repo.Create(context.Background(), &l))

	assert.Len(t, l.ID, 36)
}

func TestRepository_ListInCreationOrder(t *testing.T) {
	repo := setupTestRepository(t)
	a := newTestLead("b", StatusNew, 1)
	b := newTestLead("a", StatusNew, 1)
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	seedLeads(t, repo, a, b)

	leads, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(leads))
}

func TestRepository_UpdateWritesPatchedColumns(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	seedLeads(t, repo, newTestLead("1", StatusNew, 100))

	p := Patch{Status: ptr(StatusQualified), Tags: &[]string{"hot"}, LeadScore: ptr(0)}
	current, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	current.LeadScore = 40
	updated, err := p.ApplyTo(*current, testNow)
	require.NoError(t, err)
	updated.Name = "not persisted"

	require.NoError(t, repo.Update(ctx, updated, p))

	got, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, StatusQualified, got.Status)
	assert.Equal(t, []string{"hot"}, got.Tags)
	assert.Equal(t, 0, got.LeadScore)
	assert.Equal(t, "Lead 1", got.Name)
	assert.True(t, got.StageEnteredAt.Equal(testNow))

	assert.ErrorIs(t, repo.Update(ctx, newTestLead("ghost", StatusNew, 1), p), ErrLeadNotFound)
}

func TestRepository_UpdateManyAndCount(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	seedLeads(t, repo,
		newTestLead("1", StatusNew, 1),
		newTestLead("2", StatusNew, 1),
		newTestLead("3", StatusLost, 1),
	)
	store := NewStore(nil)
	leads, err := repo.List(ctx)
	require.NoError(t, err)
	store.Replace(leads)

	mutations, err := store.MoveMany([]string{"1", "2"}, StatusClosed, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateMany(ctx, mutations))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Status]int{StatusClosed: 2, StatusLost: 1}, counts)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	seedLeads(t, repo,
		newTestLead("1", StatusNew, 1),
		newTestLead("2", StatusNew, 1),
		newTestLead("3", StatusNew, 1),
	)

	require.NoError(t, repo.Delete(ctx, "1"))
	assert.ErrorIs(t, repo.Delete(ctx, "1"), ErrLeadNotFound)
	require.NoError(t, repo.DeleteMany(ctx, []string{"2", "3", "missing"}))
	require.NoError(t, repo.DeleteMany(ctx, nil))

	leads, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestRepository_PurgeLost(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	old := newTestLead("1", StatusLost, 1)
	old.StageEnteredAt = testNow.Add(-90 * 24 * time.Hour)
	recent := newTestLead("2", StatusLost, 1)
	recent.StageEnteredAt = testNow.Add(-5 * 24 * time.Hour)
	stale := newTestLead("3", StatusNew, 1)
	stale.StageEnteredAt = testNow.Add(-90 * 24 * time.Hour)
	seedLeads(t, repo, old, recent, stale)

	n, err := repo.PurgeLost(ctx, testNow.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	leads, err := repo.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2", "3"}, ids(leads))
}
