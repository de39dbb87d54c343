package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/jobs"
	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/repo/memory"
)

type fakeTokens struct{}

func (fakeTokens) Issue(userID int64, role access.Role) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, role), nil
}

type spyCache struct {
	views       map[int64]user.PortfolioView
	gens        map[int64]int
	invalidated []int64
}

func newSpyCache() *spyCache {
	return &spyCache{views: make(map[int64]user.PortfolioView), gens: make(map[int64]int)}
}

func (c *spyCache) Get(_ context.Context, id int64) (user.PortfolioView, string, bool) {
	v, ok := c.views[id]
	return v, fmt.Sprint(c.gens[id]), ok
}

func (c *spyCache) Set(_ context.Context, gen string, v user.PortfolioView) {
	if gen != fmt.Sprint(c.gens[v.ID]) {
		return
	}
	c.views[v.ID] = v
}

func (c *spyCache) Invalidate(_ context.Context, ids ...int64) {
	for _, id := range ids {
		delete(c.views, id)
		c.gens[id]++
		c.invalidated = append(c.invalidated, id)
	}
}

type env struct {
	store    *memory.Store
	cache    *spyCache
	auth     *AuthService
	users    *UserService
	projects *ProjectService
	messages *MessageService
	admin    *AdminService
}

func newEnv() *env {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := memory.NewStore()
	c := newSpyCache()
	projects := NewProjectService(s.Projects(), c, log)

	return &env{
		store:    s,
		cache:    c,
		auth:     NewAuthService(s.Users(), fakeTokens{}, log),
		users:    NewUserService(s.Users(), s.Projects(), c, log),
		projects: projects,
		messages: NewMessageService(s.Messages(), s.Users(), s.Jobs(), log),
		admin:    NewAdminService(s.Users(), projects, c, log),
	}
}

func (e *env) register(t *testing.T, name, email, password, role string) access.Caller {
	t.Helper()
	v, err := e.users.Register(context.Background(), user.RegisterRequest{Name: name, Email: email, Password: password, Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return access.Caller{UserID: v.ID, Role: v.Role}
}

func (e *env) admin1(t *testing.T) access.Caller {
	t.Helper()
	c := e.register(t, "Root", "root@x.com", "rootpw", "")
	if _, err := e.store.Users().UpdateRole(context.Background(), c.UserID, access.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}
	return access.Caller{UserID: c.UserID, Role: access.RoleAdmin}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("kind=%q, want %q (err=%v)", got, kind, err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	v, err := e.users.Register(ctx, user.RegisterRequest{Name: "Alice", Email: "alice@x.com", Password: "pw1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if v.Role != access.RoleDev {
		t.Fatalf("default role should be dev, got %q", v.Role)
	}

	res, err := e.auth.Login(ctx, user.LoginRequest{Email: "ALICE@x.com", Password: "pw1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.User.Email != "alice@x.com" {
		t.Fatalf("unexpected login result %+v", res)
	}

	b, _ := json.Marshal(res)
	if strings.Contains(strings.ToLower(string(b)), "password") {
		t.Fatalf("login response leaks password: %s", b)
	}

	_, err = e.users.Register(ctx, user.RegisterRequest{Name: "Alice 2", Email: "alice@x.com", Password: "pw2"})
	wantKind(t, err, apperr.KindValidation)
	if ae, _ := apperr.As(err); ae.Message != "email already registered" {
		t.Fatalf("unexpected message %q", ae.Message)
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	e := newEnv()
	e.register(t, "Alice", "alice@x.com", "pw1", "")

	_, err := e.auth.Login(context.Background(), user.LoginRequest{Email: "alice@x.com", Password: "nope"})
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = e.auth.Login(context.Background(), user.LoginRequest{Email: "ghost@x.com", Password: "pw1"})
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestRegister_RoleSelection(t *testing.T) {
	e := newEnv()
	if c := e.register(t, "R", "r@x.com", "pw", "recruiter"); c.Role != access.RoleRecruiter {
		t.Fatalf("recruiter may be requested, got %q", c.Role)
	}
	if c := e.register(t, "A", "a@x.com", "pw", "admin"); c.Role != access.RoleDev {
		t.Fatalf("admin must not be self-assigned, got %q", c.Role)
	}
}

func TestProjects_OwnershipScenario(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	a := e.register(t, "A", "a@x.com", "pw", "")
	b := e.register(t, "B", "b@x.com", "pw", "")
	admin := e.admin1(t)

	p, err := e.projects.Create(ctx, a, project.CreateRequest{Title: "P"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wantKind(t, e.projects.Delete(ctx, b, p.ID), apperr.KindForbidden)

	title := "hijack"
	_, err = e.projects.Update(ctx, b, p.ID, project.UpdateRequest{Title: &title})
	wantKind(t, err, apperr.KindForbidden)

	if err := e.projects.Delete(ctx, admin, p.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	_, err = e.projects.Get(ctx, p.ID)
	wantKind(t, err, apperr.KindNotFound)

	wantKind(t, e.projects.Delete(ctx, a, p.ID), apperr.KindNotFound)
	wantKind(t, e.projects.Delete(ctx, access.Anonymous(), p.ID), apperr.KindUnauthorized)
}

func TestProjects_RoundTripAndPartialUpdate(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "pw", "")

	req := project.CreateRequest{
		Title:       "Compiler",
		Description: "a toy compiler",
		Images:      []string{"/uploads/1.png"},
		Tags:        []string{"go", "llvm"},
		LinkRepo:    "https://github.com/a/c",
		LinkDeploy:  "https://c.dev",
	}
	p, err := e.projects.Create(ctx, a, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := e.projects.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != req.Title || got.Description != req.Description || got.LinkRepo != req.LinkRepo ||
		got.LinkDeploy != req.LinkDeploy || len(got.Images) != 1 || len(got.Tags) != 2 || got.Tags[1] != "llvm" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	desc := "rewritten"
	up, err := e.projects.Update(ctx, a, p.ID, project.UpdateRequest{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Description != "rewritten" || up.Title != "Compiler" || len(up.Tags) != 2 {
		t.Fatalf("partial update should keep untouched fields: %+v", up)
	}

	empty := "  "
	_, err = e.projects.Update(ctx, a, p.ID, project.UpdateRequest{Title: &empty})
	wantKind(t, err, apperr.KindValidation)
}

func TestProjects_ListPagination(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "pw", "")
	b := e.register(t, "B", "b@x.com", "pw", "")

	for i := 1; i <= 12; i++ {
		if _, err := e.projects.Create(ctx, a, project.CreateRequest{Title: fmt.Sprintf("Project %d", i)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	_, _ = e.projects.Create(ctx, b, project.CreateRequest{Title: "Other 100%"})

	pg, err := e.projects.List(ctx, listing.Params{Page: 2, Limit: 5}.WithOwner(a.UserID))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pg.Data) != 5 || pg.Total != 12 || pg.TotalPages != 3 {
		t.Fatalf("unexpected page %+v", pg)
	}

	for page := 1; page <= 4; page++ {
		pg, _ := e.projects.List(ctx, listing.Params{Page: page, Limit: 5})
		if pg.Total != 13 {
			t.Fatalf("total must not depend on page, got %d on page %d", pg.Total, page)
		}
		if len(pg.Data) > pg.Limit {
			t.Fatalf("page larger than limit")
		}
	}

	pg, _ = e.projects.List(ctx, listing.Params{Filter: "100%"})
	if pg.Total != 1 || pg.Data[0].OwnerID != b.UserID {
		t.Fatalf("filter should match literally, got %+v", pg)
	}

	pg, _ = e.projects.List(ctx, listing.Params{Filter: "nothing here"})
	if pg.Data == nil || len(pg.Data) != 0 || pg.TotalPages != 0 {
		t.Fatalf("empty result should be an empty page, got %+v", pg)
	}
}

func TestMessages_SendRules(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "pw", "")
	b := e.register(t, "B", "b@x.com", "pw", "recruiter")

	_, err := e.messages.Send(ctx, a, message.SendRequest{ReceiverID: a.UserID, Subject: "hi", Content: "me"})
	wantKind(t, err, apperr.KindValidation)

	_, err = e.messages.Send(ctx, a, message.SendRequest{ReceiverID: 999, Subject: "hi", Content: "ghost"})
	wantKind(t, err, apperr.KindValidation)

	_, err = e.messages.Send(ctx, access.Anonymous(), message.SendRequest{ReceiverID: b.UserID, Subject: "hi", Content: "x"})
	wantKind(t, err, apperr.KindUnauthorized)

	m, err := e.messages.Send(ctx, b, message.SendRequest{ReceiverID: a.UserID, Subject: "Offer", Content: "Join us"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.SenderID != b.UserID || m.ReceiverID != a.UserID {
		t.Fatalf("unexpected message %+v", m)
	}

	queued := e.store.Jobs().All()
	if len(queued) != 1 || queued[0].Type != string(jobs.JobMessageNotify) {
		t.Fatalf("expected one notification job, got %+v", queued)
	}

	inboxA, _ := e.messages.Inbox(ctx, a, listing.Params{})
	inboxB, _ := e.messages.Inbox(ctx, b, listing.Params{})
	if inboxA.Total != 1 || inboxB.Total != 1 {
		t.Fatalf("both parties should see the message: a=%d b=%d", inboxA.Total, inboxB.Total)
	}
}

func TestDeleteAccount_CascadesAndChecksPassword(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "pw", "")
	b := e.register(t, "B", "b@x.com", "pw", "")

	p, _ := e.projects.Create(ctx, a, project.CreateRequest{Title: "P"})
	_, _ = e.messages.Send(ctx, b, message.SendRequest{ReceiverID: a.UserID, Subject: "s", Content: "c"})

	wantKind(t, e.users.DeleteAccount(ctx, a, user.DeleteAccountRequest{}), apperr.KindValidation)
	wantKind(t, e.users.DeleteAccount(ctx, a, user.DeleteAccountRequest{Password: "wrong"}), apperr.KindValidation)

	if err := e.users.DeleteAccount(ctx, a, user.DeleteAccountRequest{Password: "pw"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := e.projects.Get(ctx, p.ID)
	wantKind(t, err, apperr.KindNotFound)

	inbox, _ := e.messages.Inbox(ctx, b, listing.Params{})
	if inbox.Total != 0 {
		t.Fatalf("messages with the deleted user must be gone")
	}

	_, err = e.users.Portfolio(ctx, a.UserID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestChangePassword(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "old", "")

	err := e.users.ChangePassword(ctx, a, user.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "new"})
	wantKind(t, err, apperr.KindUnauthorized)

	if err := e.users.ChangePassword(ctx, a, user.ChangePasswordRequest{CurrentPassword: "old", NewPassword: "new"}); err != nil {
		t.Fatalf("change: %v", err)
	}

	if _, err := e.auth.Login(ctx, user.LoginRequest{Email: "a@x.com", Password: "new"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	_, err = e.auth.Login(ctx, user.LoginRequest{Email: "a@x.com", Password: "old"})
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestPortfolio_CachedAndInvalidated(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "pw", "")

	v, err := e.users.Portfolio(ctx, a.UserID)
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if len(v.Projects) != 0 {
		t.Fatalf("expected no projects yet")
	}
	if _, ok := e.cache.views[a.UserID]; !ok {
		t.Fatalf("portfolio should be cached")
	}

	if _, err := e.projects.Create(ctx, a, project.CreateRequest{Title: "New"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := e.cache.views[a.UserID]; ok {
		t.Fatalf("project creation must invalidate the owner's portfolio")
	}

	v, _ = e.users.Portfolio(ctx, a.UserID)
	if len(v.Projects) != 1 {
		t.Fatalf("expected fresh portfolio with 1 project, got %d", len(v.Projects))
	}

	b, _ := json.Marshal(v)
	if strings.Contains(string(b), "a@x.com") {
		t.Fatalf("portfolio must not expose email: %s", b)
	}

	_, err = e.users.Portfolio(ctx, 4242)
	wantKind(t, err, apperr.KindNotFound)
}

func TestUpdateProfile_Merge(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.register(t, "A", "a@x.com", "pw", "")

	loc := "Lisbon"
	skills := []string{"go"}
	v, err := e.users.UpdateProfile(ctx, a, user.UpdateProfileRequest{Location: &loc, Skills: &skills})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v.Location != "Lisbon" || v.Name != "A" || v.Email != "a@x.com" || len(v.Skills) != 1 {
		t.Fatalf("unexpected profile %+v", v)
	}

	blank := " "
	_, err = e.users.UpdateProfile(ctx, a, user.UpdateProfileRequest{Name: &blank})
	wantKind(t, err, apperr.KindValidation)
}

func TestSearchTalent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	rec := e.register(t, "Rita", "rita@x.com", "pw", "recruiter")

	for i := 0; i < 11; i++ {
		e.register(t, fmt.Sprintf("Dev %d", i), fmt.Sprintf("d%d@x.com", i), "pw", "")
	}

	pg, err := e.users.SearchTalent(ctx, rec, listing.Parse("", "", "", listing.TalentLimit))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if pg.Limit != 9 || len(pg.Data) != 9 || pg.Total != 11 || pg.TotalPages != 2 {
		t.Fatalf("unexpected talent page %+v", pg)
	}

	_, err = e.users.SearchTalent(ctx, access.Anonymous(), listing.Params{})
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestAdmin(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.admin1(t)
	dev := e.register(t, "Dev", "dev@x.com", "pw", "")
	other := e.register(t, "Other", "other@x.com", "pw", "")

	_, err := e.admin.ListUsers(ctx, dev, listing.Params{})
	wantKind(t, err, apperr.KindForbidden)

	pg, err := e.admin.ListUsers(ctx, admin, listing.Params{Filter: "OTHER@"})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if pg.Total != 1 {
		t.Fatalf("expected one match by email, got %d", pg.Total)
	}
	if _, ok := pg.Data[0].(user.PrivateView); !ok {
		t.Fatalf("admin should get private views, got %T", pg.Data[0])
	}

	_, err = e.admin.UpdateRole(ctx, admin, dev.UserID, user.UpdateRoleRequest{Role: "recruiter"})
	wantKind(t, err, apperr.KindValidation)

	v, err := e.admin.UpdateRole(ctx, admin, dev.UserID, user.UpdateRoleRequest{Role: "admin"})
	if err != nil || v.Role != access.RoleAdmin {
		t.Fatalf("update role: %+v %v", v, err)
	}

	_, err = e.admin.UpdateRole(ctx, admin, 999, user.UpdateRoleRequest{Role: "dev"})
	wantKind(t, err, apperr.KindNotFound)

	p, _ := e.projects.Create(ctx, other, project.CreateRequest{Title: "Theirs"})
	title := "Moderated"
	up, err := e.admin.UpdateProject(ctx, admin, p.ID, project.UpdateRequest{Title: &title})
	if err != nil || up.Title != "Moderated" {
		t.Fatalf("admin update: %+v %v", up, err)
	}

	wantKind(t, e.admin.DeleteProject(ctx, access.Caller{UserID: other.UserID, Role: access.RoleDev}, p.ID), apperr.KindForbidden)

	if err := e.admin.DeleteUser(ctx, admin, other.UserID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	wantKind(t, e.admin.DeleteUser(ctx, admin, other.UserID), apperr.KindNotFound)

	projects, _ := e.admin.ListProjects(ctx, admin, listing.Params{})
	if projects.Total != 0 {
		t.Fatalf("deleted user's projects must cascade")
	}
}

type memObjects struct {
	got map[string][]byte
}

func (m *memObjects) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.got[name] = b
	return "/uploads/" + name, nil
}

func TestUploadImage(t *testing.T) {
	objects := &memObjects{got: make(map[string][]byte)}
	svc := NewUploadService(objects, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	caller := access.Caller{UserID: 1, Role: access.RoleDev}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	res, err := svc.UploadImage(ctx, caller, "me.png", int64(len(png)), bytes.NewReader(png))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(res.Filename, ".png") || res.URL != "/uploads/"+res.Filename {
		t.Fatalf("unexpected result %+v", res)
	}
	if !bytes.Equal(objects.got[res.Filename], png) {
		t.Fatalf("stored bytes differ")
	}

	_, err = svc.UploadImage(ctx, caller, "x.html", 20, strings.NewReader("<html><body></body>"))
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.UploadImage(ctx, caller, "big.png", 4096, bytes.NewReader(png))
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.UploadImage(ctx, access.Anonymous(), "me.png", int64(len(png)), bytes.NewReader(png))
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestAdminJobs(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	admin := e.admin1(t)
	a := e.register(t, "A", "a@x.com", "pw", "")
	b := e.register(t, "B", "b@x.com", "pw", "")

	if _, err := e.messages.Send(ctx, b, message.SendRequest{ReceiverID: a.UserID, Subject: "s", Content: "c"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	svc := NewAdminJobsService(e.store.Jobs(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.List(ctx, a, "", listing.Params{})
	wantKind(t, err, apperr.KindForbidden)

	_, err = svc.List(ctx, admin, "bogus", listing.Params{})
	wantKind(t, err, apperr.KindValidation)

	pg, err := svc.List(ctx, admin, "pending", listing.Params{})
	if err != nil || pg.Total != 1 {
		t.Fatalf("list pending: %+v %v", pg, err)
	}
	id := pg.Data[0].ID

	_, err = svc.Retry(ctx, admin, id)
	wantKind(t, err, apperr.KindValidation)

	if err := e.store.Jobs().MarkFailed(ctx, id, "provider down"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	j, err := svc.Retry(ctx, admin, id)
	if err != nil || j.Status != "pending" || j.Attempts != 0 {
		t.Fatalf("retry: %+v %v", j, err)
	}

	_, err = svc.Get(ctx, admin, "00000000-0000-0000-0000-000000000000")
	wantKind(t, err, apperr.KindNotFound)
}
