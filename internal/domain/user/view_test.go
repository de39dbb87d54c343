package user

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/project"
)

func sampleUser() User {
	return User{
		ID:           42,
		Name:         "Alice",
		Email:        "alice@x.com",
		PasswordHash: "$2a$10$secretsecretsecret",
		Role:         access.RoleDev,
		Headline:     "Go developer",
		Skills:       []string{"go", "sql"},
		Social:       Social{GitHub: "https://github.com/alice"},
		CreatedAt:    time.Now(),
	}
}

func marshalKeys(t *testing.T, v any) map[string]json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secretsecret") {
		t.Fatalf("password hash leaked: %s", b)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestShapes_NeverContainPasswordHash(t *testing.T) {
	u := sampleUser()

	for _, v := range []any{u, Private(u), Public(u), Portfolio(u, nil), Shape(u, access.ViewPrivate), Shape(u, access.ViewPublic)} {
		m := marshalKeys(t, v)
		for _, k := range []string{"password", "passwordHash", "PasswordHash"} {
			if _, ok := m[k]; ok {
				t.Fatalf("key %q present in %T", k, v)
			}
		}
	}
}

func TestPublicView_HidesEmail(t *testing.T) {
	u := sampleUser()

	pub := marshalKeys(t, Public(u))
	if _, ok := pub["email"]; ok {
		t.Fatalf("public view must not expose email")
	}
	if _, ok := pub["createdAt"]; ok {
		t.Fatalf("public view must not expose account fields")
	}

	priv := marshalKeys(t, Private(u))
	if _, ok := priv["email"]; !ok {
		t.Fatalf("private view must expose email")
	}
}

func TestPortfolio_IncludesProjects(t *testing.T) {
	u := sampleUser()
	p := project.Project{ID: 1, Title: "Compiler", OwnerID: u.ID}

	m := marshalKeys(t, Portfolio(u, []project.Project{p}))
	if _, ok := m["projects"]; !ok {
		t.Fatalf("portfolio must include projects")
	}
	if _, ok := m["email"]; ok {
		t.Fatalf("portfolio must not include email")
	}

	empty := marshalKeys(t, Portfolio(u, nil))
	if string(empty["projects"]) != "[]" {
		t.Fatalf("expected empty projects array, got %s", empty["projects"])
	}
}

func TestUpdateProfileRequest_Apply(t *testing.T) {
	u := sampleUser()
	name := "Alice B."
	skills := []string{"rust"}

	got := UpdateProfileRequest{Name: &name, Skills: &skills}.Apply(u)

	if got.Name != "Alice B." || len(got.Skills) != 1 || got.Skills[0] != "rust" {
		t.Fatalf("fields not applied: %+v", got)
	}
	if got.Headline != u.Headline || got.Email != u.Email || got.Role != u.Role || got.PasswordHash != u.PasswordHash {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.Social.GitHub != u.Social.GitHub {
		t.Fatalf("social should be kept when absent")
	}
}

func TestQueryMatches_TalentSkillsPerElement(t *testing.T) {
	u := User{Role: access.RoleDev, Name: "Ada", Skills: []string{"Go", "Rust"}}
	q := Query{Scope: SearchTalent}

	for filter, want := range map[string]bool{
		"rust":    true,
		"GO":      true,
		"Go Rust": false,
		"o R":     false,
	} {
		q.Filter = filter
		if got := q.Matches(u); got != want {
			t.Fatalf("Matches(%q)=%v, want %v", filter, got, want)
		}
	}

	q.Filter = ""
	if q.Matches(User{Role: access.RoleAdmin}) {
		t.Fatalf("talent search must only return developers")
	}
}
