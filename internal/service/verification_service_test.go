package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type verifyRecordStoreStub struct {
	byID       map[string]*models.VerificationRecord
	byAsset    map[string]*models.VerificationRecord
	created    []*models.VerificationRecord
	updated    []*models.VerificationRecord
	counts     models.StatusCounts
	countCalls int
}

func newVerifyRecordStoreStub() *verifyRecordStoreStub {
	return &verifyRecordStoreStub{
		byID:    map[string]*models.VerificationRecord{},
		byAsset: map[string]*models.VerificationRecord{},
	}
}

func (s *verifyRecordStoreStub) add(record *models.VerificationRecord) {
	s.byID[record.ID] = record
	s.byAsset[record.CampaignID+"/"+record.AssetID] = record
}

func (s *verifyRecordStoreStub) Create(ctx context.Context, record *models.VerificationRecord) error {
	record.ID = "r-new"
	s.created = append(s.created, record)
	s.add(record)
	return nil
}

func (s *verifyRecordStoreStub) FindByID(ctx context.Context, id string) (*models.VerificationRecord, error) {
	if record, ok := s.byID[id]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (s *verifyRecordStoreStub) FindByCampaignAndAsset(ctx context.Context, campaignID, assetID string) (*models.VerificationRecord, error) {
	if record, ok := s.byAsset[campaignID+"/"+assetID]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (s *verifyRecordStoreStub) List(ctx context.Context, filter dto.RecordListFilter) ([]models.VerificationRecord, int, error) {
	return nil, 0, nil
}

func (s *verifyRecordStoreStub) ListByCampaignAndEmployee(ctx context.Context, campaignID, employeeID string) ([]models.VerificationRecord, error) {
	return nil, nil
}

func (s *verifyRecordStoreStub) Update(ctx context.Context, record *models.VerificationRecord) error {
	s.updated = append(s.updated, record)
	return nil
}

func (s *verifyRecordStoreStub) CountByStatus(ctx context.Context, campaignID string) (models.StatusCounts, error) {
	s.countCalls++
	return s.counts, nil
}

type assetStoreStub struct {
	byID          map[string]*models.HardwareAsset
	mirrored      []models.AssetVerificationStatus
	mirroredAsset []string
}

func newAssetStoreStub() *assetStoreStub {
	return &assetStoreStub{byID: map[string]*models.HardwareAsset{}}
}

func (s *assetStoreStub) FindByID(ctx context.Context, id string) (*models.HardwareAsset, error) {
	if asset, ok := s.byID[id]; ok {
		return asset, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assetStoreStub) UpdateVerificationStatus(ctx context.Context, id string, status models.AssetVerificationStatus, verifiedAt *time.Time) error {
	s.mirroredAsset = append(s.mirroredAsset, id)
	s.mirrored = append(s.mirrored, status)
	return nil
}

type counterStub struct {
	recomputed []string
}

func (s *counterStub) RecomputeCounts(ctx context.Context, campaignID string) (models.StatusCounts, error) {
	s.recomputed = append(s.recomputed, campaignID)
	return models.StatusCounts{}, nil
}

type cacheStub struct {
	values  map[string][]byte
	sets    []string
	deletes []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: map[string][]byte{}}
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	s.sets = append(s.sets, key)
	return nil
}

func (s *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deletes = append(s.deletes, pattern)
	delete(s.values, pattern)
	return nil
}

type verifyFixture struct {
	svc     *VerificationService
	records *verifyRecordStoreStub
	assets  *assetStoreStub
	counter *counterStub
	cache   *cacheStub
	audit   *auditStub
}

func newVerifyFixture(statsCfg config.StatsConfig) *verifyFixture {
	records := newVerifyRecordStoreStub()
	assets := newAssetStoreStub()
	counter := &counterStub{}
	cache := newCacheStub()
	audit := &auditStub{}
	svc := NewVerificationService(records, assets, counter, cache, statsCfg, audit, nil, nil)
	return &verifyFixture{svc: svc, records: records, assets: assets, counter: counter, cache: cache, audit: audit}
}

func pendingRecord(id, campaignID, employeeID, assetID, expectedTag string) *models.VerificationRecord {
	return &models.VerificationRecord{
		ID:          id,
		CampaignID:  campaignID,
		EmployeeID:  employeeID,
		AssetID:     assetID,
		ExpectedTag: expectedTag,
		AssetType:   models.AssetLaptop,
		Status:      models.VerificationPending,
	}
}

func TestSubmitMatchingTagVerifies(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))

	record, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a1",
		EnteredTag: " abc1234 ",
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerificationVerified, record.Status)
	assert.Nil(t, record.ExceptionType)
	require.NotNil(t, record.SubmittedAt)
	require.Len(t, f.records.updated, 1)
	assert.Equal(t, []models.AssetVerificationStatus{models.AssetVerificationVerified}, f.assets.mirrored)
	assert.Equal(t, []string{"c1"}, f.counter.recomputed)
}

func TestSubmitMismatchFlagsException(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))

	record, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a1",
		EnteredTag: "ZZZ9999",
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerificationException, record.Status)
	require.NotNil(t, record.ExceptionType)
	assert.Equal(t, models.ExceptionMismatch, *record.ExceptionType)
	assert.Equal(t, []models.AssetVerificationStatus{models.AssetVerificationException}, f.assets.mirrored)
}

func TestSubmitWithoutAnyTagVerifies(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))

	record, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:     "a1",
		EvidenceRef: "c1/photo.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerificationVerified, record.Status)
	assert.Nil(t, record.ExceptionType)
	assert.Equal(t, "c1/photo.jpg", record.EvidenceRef)
}

func TestSubmitWithoutExpectedTagVerifies(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", ""))

	record, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a1",
		EnteredTag: "ABC1234",
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerificationVerified, record.Status)
	assert.Nil(t, record.ExceptionType)
}

func TestSubmitExtractedTagWinsOverTyped(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))

	record, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:      "a1",
		EnteredTag:   "ZZZ9999",
		ExtractedTag: "ABC1234",
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC1234", record.RecordedTag)
	assert.Equal(t, models.VerificationVerified, record.Status)
}

func TestSubmitCreatesRecordForLateAssignedAsset(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	owner := "e1"
	f.assets.byID["a9"] = &models.HardwareAsset{
		ID: "a9", ServiceTag: "NEW5678", AssetType: models.AssetLaptop,
		AssignedTo: &owner, Status: models.AssetAssigned,
	}

	record, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a9",
		EnteredTag: "NEW5678",
	})
	require.NoError(t, err)

	require.Len(t, f.records.created, 1)
	assert.Equal(t, "NEW5678", record.ExpectedTag)
	assert.Equal(t, models.VerificationVerified, record.Status)
}

func TestSubmitRejectsForeignAsset(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e2", "a1", "ABC1234"))

	_, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a1",
		EnteredTag: "ABC1234",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.records.updated)
}

func TestSubmitRejectsAssetAssignedElsewhere(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	owner := "e2"
	f.assets.byID["a9"] = &models.HardwareAsset{ID: "a9", ServiceTag: "NEW5678", AssignedTo: &owner}

	_, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a9",
		EnteredTag: "NEW5678",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.records.created)
}

func TestReviewOverridesAndClearsException(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	mismatch := models.ExceptionMismatch
	record := pendingRecord("r1", "c1", "e1", "a1", "ABC1234")
	record.Status = models.VerificationException
	record.ExceptionType = &mismatch
	f.records.add(record)

	reviewed, err := f.svc.Review(context.Background(), "r1", dto.ReviewRequest{
		Status:  models.VerificationVerified,
		Comment: "tag confirmed on site",
	}, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, models.VerificationVerified, reviewed.Status)
	assert.Nil(t, reviewed.ExceptionType)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin-1", *reviewed.ReviewedBy)
	assert.Equal(t, "tag confirmed on site", reviewed.Comment)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionRecordReview, f.audit.entries[0].Action)
}

func TestReviewRejectsUnknownStatus(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))

	_, err := f.svc.Review(context.Background(), "r1", dto.ReviewRequest{Status: "Bogus"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkExceptionWithoutSubmission(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))

	record, err := f.svc.MarkException(context.Background(), "r1", dto.MarkExceptionRequest{
		ExceptionType: models.ExceptionMissingDevice,
		Comment:       "reported stolen on 2026-08-20",
	}, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, models.VerificationException, record.Status)
	require.NotNil(t, record.ExceptionType)
	assert.Equal(t, models.ExceptionMissingDevice, *record.ExceptionType)
	assert.Nil(t, record.SubmittedAt)
}

func TestStatsForCampaignCachesPartition(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{CacheEnabled: true, CacheTTL: time.Minute})
	f.records.counts = models.StatusCounts{Verified: 4, Pending: 1}

	first, err := f.svc.StatsForCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 5, first.Total())
	assert.Equal(t, 1, f.records.countCalls)

	second, err := f.svc.StatsForCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.records.countCalls, "second read must come from the cache")
}

func TestSubmitInvalidatesStatsCache(t *testing.T) {
	f := newVerifyFixture(config.StatsConfig{CacheEnabled: true, CacheTTL: time.Minute})
	f.records.add(pendingRecord("r1", "c1", "e1", "a1", "ABC1234"))
	require.NoError(t, f.cache.Set(context.Background(), "stats:campaign:c1", models.StatusCounts{Pending: 1}, time.Minute))

	_, err := f.svc.Submit(context.Background(), "c1", "e1", "Dana", dto.SubmitVerificationRequest{
		AssetID:    "a1",
		EnteredTag: "ABC1234",
	})
	require.NoError(t, err)
	assert.Contains(t, f.cache.deletes, "stats:campaign:c1")
}
