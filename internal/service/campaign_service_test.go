package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type campaignStoreStub struct {
	campaigns map[string]*models.Campaign
	created   []*models.Campaign
	statuses  map[string]models.CampaignStatus
	counts    map[string]models.StatusCounts
	deleted   []string
}

func newCampaignStoreStub() *campaignStoreStub {
	return &campaignStoreStub{
		campaigns: map[string]*models.Campaign{},
		statuses:  map[string]models.CampaignStatus{},
		counts:    map[string]models.StatusCounts{},
	}
}

func (s *campaignStoreStub) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.ID = "c-new"
	s.created = append(s.created, campaign)
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *campaignStoreStub) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	if campaign, ok := s.campaigns[id]; ok {
		return campaign, nil
	}
	return nil, sql.ErrNoRows
}

func (s *campaignStoreStub) List(ctx context.Context, filter dto.CampaignListFilter) ([]models.Campaign, int, error) {
	return nil, 0, nil
}

func (s *campaignStoreStub) Stats(ctx context.Context) (models.CampaignStats, error) {
	return models.CampaignStats{}, nil
}

func (s *campaignStoreStub) Update(ctx context.Context, campaign *models.Campaign) error {
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *campaignStoreStub) UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error {
	s.statuses[id] = status
	if campaign, ok := s.campaigns[id]; ok {
		campaign.Status = status
	}
	return nil
}

func (s *campaignStoreStub) UpdateCounts(ctx context.Context, id string, counts models.StatusCounts) error {
	s.counts[id] = counts
	return nil
}

func (s *campaignStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.campaigns, id)
	return nil
}

type recordStoreStub struct {
	batches [][]models.VerificationRecord
	records []models.VerificationRecord
	counts  models.StatusCounts
	pending []string
}

func (s *recordStoreStub) CreateBatch(ctx context.Context, records []models.VerificationRecord) error {
	s.batches = append(s.batches, records)
	s.records = append(s.records, records...)
	return nil
}

func (s *recordStoreStub) ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationRecord, error) {
	return s.records, nil
}

func (s *recordStoreStub) CountByStatus(ctx context.Context, campaignID string) (models.StatusCounts, error) {
	return s.counts, nil
}

func (s *recordStoreStub) ListPendingEmployeeIDs(ctx context.Context, campaignID string) ([]string, error) {
	return s.pending, nil
}

type assetReaderStub struct {
	byEmployee map[string][]models.HardwareAsset
}

func (s assetReaderStub) ListByAssignee(ctx context.Context, employeeID string) ([]models.HardwareAsset, error) {
	return s.byEmployee[employeeID], nil
}

type peripheralReaderStub struct {
	byEmployee map[string][]models.Peripheral
}

func (s peripheralReaderStub) ListByAssignee(ctx context.Context, employeeID string) ([]models.Peripheral, error) {
	return s.byEmployee[employeeID], nil
}

type directoryStub struct {
	employees []models.User
}

func (s directoryStub) ListByTeams(ctx context.Context, teams []string) ([]models.User, error) {
	return s.employees, nil
}

func (s directoryStub) FindByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	for i := range s.employees {
		if s.employees[i].EmployeeID == employeeID {
			return &s.employees[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type tokenIssuerStub struct {
	issued []string
	valid  []models.VerificationToken
}

func (s *tokenIssuerStub) Issue(ctx context.Context, campaign *models.Campaign, employee *models.User, assetIDs []string) (*models.VerificationToken, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}
	s.issued = append(s.issued, employee.EmployeeID)
	return &models.VerificationToken{
		ID:            "tok-" + employee.EmployeeID,
		Secret:        "secret-" + employee.EmployeeID,
		EmployeeID:    employee.EmployeeID,
		EmployeeName:  employee.FullName,
		EmployeeEmail: employee.Email,
		CampaignID:    campaign.ID,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}, nil
}

func (s *tokenIssuerStub) FindValid(ctx context.Context, employeeID, campaignID string) (*models.VerificationToken, error) {
	for i := range s.valid {
		if s.valid[i].EmployeeID == employeeID {
			return &s.valid[i], nil
		}
	}
	return nil, nil
}

func (s *tokenIssuerStub) ListValidByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error) {
	return s.valid, nil
}

func (s *tokenIssuerStub) BuildLink(token *models.VerificationToken) string {
	return "https://verify.example/verify/" + token.Secret
}

type notifierStub struct {
	requests  []string
	reminders []string
	failFor   map[string]error
}

func (s *notifierStub) SendVerificationRequest(ctx context.Context, token *models.VerificationToken, campaign *models.Campaign) error {
	if err := s.failFor[token.EmployeeID]; err != nil {
		return err
	}
	s.requests = append(s.requests, token.EmployeeID)
	return nil
}

func (s *notifierStub) SendReminder(ctx context.Context, token *models.VerificationToken, campaign *models.Campaign) error {
	if err := s.failFor[token.EmployeeID]; err != nil {
		return err
	}
	s.reminders = append(s.reminders, token.EmployeeID)
	return nil
}

type auditStub struct {
	entries []*models.AuditLog
}

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

type campaignFixture struct {
	svc       *CampaignService
	campaigns *campaignStoreStub
	records   *recordStoreStub
	tokens    *tokenIssuerStub
	notifier  *notifierStub
	audit     *auditStub
}

func newCampaignFixture(directory directoryStub, assets assetReaderStub, peripherals peripheralReaderStub) *campaignFixture {
	campaigns := newCampaignStoreStub()
	records := &recordStoreStub{}
	tokens := &tokenIssuerStub{}
	notifier := &notifierStub{}
	audit := &auditStub{}
	svc := NewCampaignService(campaigns, records, assets, peripherals, directory, tokens, notifier, audit, nil, nil)
	return &campaignFixture{svc: svc, campaigns: campaigns, records: records, tokens: tokens, notifier: notifier, audit: audit}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func laptop(id, tag, owner string) models.HardwareAsset {
	return models.HardwareAsset{ID: id, ServiceTag: tag, AssetType: models.AssetLaptop, AssignedTo: &owner, Status: models.AssetAssigned}
}

func TestCreateCampaignMaterialisesRecords(t *testing.T) {
	directory := directoryStub{employees: []models.User{
		{EmployeeID: "e1", FullName: "Dana", Email: "dana@example.com", Team: "Platform"},
		{EmployeeID: "e2", FullName: "Sam", Email: "sam@example.com", Team: "Platform"},
	}}
	assets := assetReaderStub{byEmployee: map[string][]models.HardwareAsset{
		"e1": {laptop("a1", "TAG0001", "e1"), {ID: "a2", ServiceTag: "MON0001", AssetType: models.AssetMonitor}},
		"e2": {laptop("a3", "TAG0002", "e2")},
	}}
	peripherals := peripheralReaderStub{byEmployee: map[string][]models.Peripheral{
		"e1": {{ID: "p1"}, {ID: "p2"}},
	}}
	f := newCampaignFixture(directory, assets, peripherals)

	campaign, err := f.svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name:   "Q3 Laptop Audit",
		Filter: models.CampaignFilter{Teams: []string{"Platform"}, AssetTypes: []models.AssetType{models.AssetLaptop}},
	}, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, models.CampaignDraft, campaign.Status)
	assert.Equal(t, 2, campaign.TotalEmployees)
	assert.Equal(t, 2, campaign.TotalAssets)
	assert.Equal(t, 2, campaign.TotalPeripherals)
	assert.Equal(t, 2, campaign.PendingCount)

	require.Len(t, f.records.records, 2)
	for _, record := range f.records.records {
		assert.Equal(t, campaign.ID, record.CampaignID)
		assert.Equal(t, models.VerificationPending, record.Status)
		assert.Equal(t, models.AssetLaptop, record.AssetType)
	}
}

func TestCreateCampaignLeavesOutAssetlessEmployees(t *testing.T) {
	directory := directoryStub{employees: []models.User{
		{EmployeeID: "e1", FullName: "Dana", Email: "dana@example.com", Team: "Platform"},
		{EmployeeID: "e2", FullName: "Sam", Email: "sam@example.com", Team: "Platform"},
	}}
	assets := assetReaderStub{byEmployee: map[string][]models.HardwareAsset{
		"e1": {laptop("a1", "TAG0001", "e1")},
		"e2": {{ID: "a2", ServiceTag: "MON0001", AssetType: models.AssetMonitor}},
	}}
	peripherals := peripheralReaderStub{byEmployee: map[string][]models.Peripheral{
		"e1": {{ID: "p1"}},
		"e2": {{ID: "p2"}, {ID: "p3"}},
	}}
	f := newCampaignFixture(directory, assets, peripherals)

	campaign, err := f.svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name:   "Laptops Only",
		Filter: models.CampaignFilter{Teams: []string{"Platform"}, AssetTypes: []models.AssetType{models.AssetLaptop}},
	}, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, 1, campaign.TotalEmployees)
	assert.Equal(t, 1, campaign.TotalAssets)
	assert.Equal(t, 1, campaign.TotalPeripherals)
	require.Len(t, f.records.records, 1)
	assert.Equal(t, "e1", f.records.records[0].EmployeeID)
}

func TestCreateCampaignRejectsEmptyFilter(t *testing.T) {
	f := newCampaignFixture(directoryStub{}, assetReaderStub{}, peripheralReaderStub{})

	_, err := f.svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name:   "Nobody Home",
		Filter: models.CampaignFilter{Teams: []string{"Ghost Team"}},
	}, adminClaims())
	assert.ErrorIs(t, err, appErrors.ErrInvalidFilter)
	assert.Empty(t, f.campaigns.created)
}

func TestCreateCampaignStatusDerivation(t *testing.T) {
	now := time.Now().UTC()
	pastDeadline := now.AddDate(0, 0, -1)
	startedAlready := now.Add(-time.Hour)
	futureStart := now.AddDate(0, 0, 7)

	cases := []struct {
		name      string
		startDate *time.Time
		deadline  *time.Time
		want      models.CampaignStatus
	}{
		{"deadline in the past", nil, &pastDeadline, models.CampaignCompleted},
		{"already started", &startedAlready, nil, models.CampaignActive},
		{"starts later", &futureStart, nil, models.CampaignDraft},
		{"no dates", nil, nil, models.CampaignDraft},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveStatus(tc.startDate, tc.deadline, now))
		})
	}
}

func TestLaunchMintsTokensAndNotifies(t *testing.T) {
	directory := directoryStub{employees: []models.User{
		{EmployeeID: "e1", FullName: "Dana", Email: "dana@example.com"},
	}}
	f := newCampaignFixture(directory, assetReaderStub{}, peripheralReaderStub{})
	f.campaigns.campaigns["c1"] = &models.Campaign{ID: "c1", Name: "Q3", Status: models.CampaignDraft}
	f.records.records = []models.VerificationRecord{
		{CampaignID: "c1", EmployeeID: "e1", AssetID: "a1"},
		{CampaignID: "c1", EmployeeID: "e1", AssetID: "a2"},
	}

	result, err := f.svc.Launch(context.Background(), "c1", adminClaims())
	require.NoError(t, err)

	assert.False(t, result.AlreadyActive)
	assert.Equal(t, models.CampaignActive, result.Campaign.Status)
	assert.Equal(t, []string{"e1"}, f.tokens.issued)
	require.Len(t, result.Links, 1)
	assert.Contains(t, result.Links[0].URL, "secret-e1")
	assert.Equal(t, 1, result.NotifiedCount)
	assert.Equal(t, []string{"e1"}, f.notifier.requests)
}

func TestLaunchIsIdempotent(t *testing.T) {
	f := newCampaignFixture(directoryStub{}, assetReaderStub{}, peripheralReaderStub{})
	f.campaigns.campaigns["c1"] = &models.Campaign{ID: "c1", Status: models.CampaignActive}

	result, err := f.svc.Launch(context.Background(), "c1", adminClaims())
	require.NoError(t, err)

	assert.True(t, result.AlreadyActive)
	assert.Empty(t, f.tokens.issued)
	assert.Empty(t, f.notifier.requests)
}

func TestLaunchRejectsCompletedCampaign(t *testing.T) {
	f := newCampaignFixture(directoryStub{}, assetReaderStub{}, peripheralReaderStub{})
	f.campaigns.campaigns["c1"] = &models.Campaign{ID: "c1", Status: models.CampaignCompleted}

	_, err := f.svc.Launch(context.Background(), "c1", adminClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSendRemindersUsesValidTokensAndMintsFallback(t *testing.T) {
	directory := directoryStub{employees: []models.User{
		{EmployeeID: "e1", FullName: "Dana", Email: "dana@example.com"},
		{EmployeeID: "e2", FullName: "Sam", Email: "sam@example.com"},
	}}
	f := newCampaignFixture(directory, assetReaderStub{}, peripheralReaderStub{})
	f.campaigns.campaigns["c1"] = &models.Campaign{ID: "c1", Status: models.CampaignActive}
	f.records.records = []models.VerificationRecord{
		{CampaignID: "c1", EmployeeID: "e1", AssetID: "a1"},
		{CampaignID: "c1", EmployeeID: "e2", AssetID: "a2"},
	}
	f.records.pending = []string{"e1", "e2"}
	// Only e1 still holds a redeemable token; e2's lapsed.
	f.tokens.valid = []models.VerificationToken{
		{ID: "t1", EmployeeID: "e1", CampaignID: "c1"},
	}

	result, err := f.svc.SendReminders(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.RemindedCount)
	assert.Equal(t, 1, result.MintedCount)
	assert.Equal(t, []string{"e2"}, f.tokens.issued)
	assert.ElementsMatch(t, []string{"e1", "e2"}, f.notifier.reminders)
}

func TestSendRemindersRequiresActiveCampaign(t *testing.T) {
	f := newCampaignFixture(directoryStub{}, assetReaderStub{}, peripheralReaderStub{})
	f.campaigns.campaigns["c1"] = &models.Campaign{ID: "c1", Status: models.CampaignDraft}

	_, err := f.svc.SendReminders(context.Background(), "c1")
	require.Error(t, err)
}

func TestRecomputeCountsStoresPartition(t *testing.T) {
	f := newCampaignFixture(directoryStub{}, assetReaderStub{}, peripheralReaderStub{})
	f.records.counts = models.StatusCounts{Verified: 3, Pending: 2, Overdue: 1, Exception: 1}

	counts, err := f.svc.RecomputeCounts(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 7, counts.Total())
	assert.Equal(t, counts, f.campaigns.counts["c1"])
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newCampaignFixture(directoryStub{}, assetReaderStub{}, peripheralReaderStub{})
	f.campaigns.campaigns["c1"] = &models.Campaign{ID: "c1", Status: models.CampaignCompleted}

	campaign, err := f.svc.Complete(context.Background(), "c1", adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.CampaignCompleted, campaign.Status)
	assert.Empty(t, f.audit.entries)
}
