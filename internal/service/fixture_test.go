package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/events"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/store"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// tickClock advances one second per reading so creation order is strict.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store       *repository.Store
	auth        *AuthService
	teams       *TeamService
	records     *BeneficiaryService
	links       *FormLinkService
	submissions *SubmissionService
	pub         *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st := repository.NewMemoryStore()
	checker := authz.NewChecker(st.Members, logger)
	pub := &recordingPublisher{}
	bulk := BulkOptions{ChunkSize: 4, Concurrency: 2}
	f := &fixture{
		store:       st,
		auth:        NewAuthService(st.Users, store.NewSessionStore(store.NewMemoryKV(), time.Hour), logger),
		teams:       NewTeamService(st, checker, logger),
		records:     NewBeneficiaryService(st.Beneficiaries, checker, pub, bulk, 0, logger),
		links:       NewFormLinkService(st.FormLinks, checker, "https://aid.example.org/", logger),
		submissions: NewSubmissionService(st, checker, pub, bulk, logger),
		pub:         pub,
	}
	clock := &tickClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	f.records.now = clock.Now
	f.submissions.now = clock.Now
	return f
}

// signUp registers and logs in a user.
func (f *fixture) signUp(t *testing.T, email string) *domain.Session {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.Register(ctx, email, "correct horse", "")
	require.NoError(t, err)
	sess, err := f.auth.Login(ctx, email, "correct horse")
	require.NoError(t, err)
	return sess
}

// newTeam signs up an admin and creates a team for them.
func (f *fixture) newTeam(t *testing.T, email string) (*domain.Session, string) {
	t.Helper()
	sess := f.signUp(t, email)
	m, err := f.teams.CreateTeam(context.Background(), sess, "Barangay Uno")
	require.NoError(t, err)
	return sess, m.Team.TeamID
}

// addMember invites and accepts a plain member.
func (f *fixture) addMember(t *testing.T, admin *domain.Session, teamID, email string) *domain.Session {
	t.Helper()
	ctx := context.Background()
	sess := f.signUp(t, email)
	_, err := f.teams.InviteMember(ctx, admin, teamID, email, domain.RoleMember)
	require.NoError(t, err)
	_, err = f.teams.AcceptInvitation(ctx, sess, teamID)
	require.NoError(t, err)
	return sess
}

func applicant(last, first string) map[string]string {
	return map[string]string{
		domain.FieldLastName:   last,
		domain.FieldFirstName:  first,
		domain.FieldBirthMonth: "March",
		domain.FieldBirthDay:   "14",
		domain.FieldBirthYear:  "1980",
		domain.FieldSex:        "female",
	}
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func reader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
