package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/jobs", http.StatusOK, 10*time.Millisecond)
	m.RecordCacheOperation(true)
	m.RecordReviewDecision("verification", string(models.VerificationStatusApproved))
	m.RecordJobTransition(string(models.JobStatusActive))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRecordsDomainCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true)
	m.RecordCacheOperation(false)
	m.RecordCacheOperation(false)
	m.RecordReviewDecision("skill", string(models.SkillStatusRejected))
	m.RecordJobTransition(string(models.JobStatusCompleted))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewDecisions.WithLabelValues("skill", string(models.SkillStatusRejected))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobTransitions.WithLabelValues(string(models.JobStatusCompleted))))
}

func TestSkillApproveRecordsReviewDecision(t *testing.T) {
	m := NewMetricsService()
	repo := &skillRepoStub{byID: map[string]*models.SkillItem{
		"skill-1": {ID: "skill-1", UserID: "tech-1", SkillName: "Plumbing", Status: models.SkillStatusPending},
	}}
	svc := NewSkillService(repo, skillDocRepoStub{}, &storageStub{}, testPolicy(), &notifierStub{},
		clock.NewFake(time.Unix(1_700_000_000, 0)), nil, m,
		SkillServiceConfig{PendingLimit: 3, Vocabulary: testVocabulary})

	require.NoError(t, svc.Approve(context.Background(), "skill-1", "admin-1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewDecisions.WithLabelValues("skill", string(models.SkillStatusApproved))))
}

func TestJobCreateRecordsTransition(t *testing.T) {
	m := NewMetricsService()
	repo := &jobRepoStub{}
	svc := NewJobService(repo, skillSourceStub{}, nil, &notifierStub{},
		clock.NewFake(time.Unix(1_700_000_000, 0)), nil, m, JobServiceConfig{})

	_, err := svc.Create(context.Background(), "biz-1", dto.CreateJobRequest{
		Title:           "Fix sink",
		Description:     "Kitchen sink leaks",
		ServiceCategory: "Plumbing",
		HourlyRateMin:   40,
		HourlyRateMax:   60,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobTransitions.WithLabelValues(string(models.JobStatusOutgoing))))
}
