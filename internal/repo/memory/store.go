package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/domain/user"
)

// Store is an in-process implementation of every repository, sharing one
// lock so cascades and joins see a consistent snapshot. It backs tests and
// local runs without Postgres.
type Store struct {
	mu sync.RWMutex

	users    map[int64]user.User
	projects map[int64]project.Project
	messages map[int64]message.Message
	jobs     map[string]job.Job

	nextUserID    int64
	nextProjectID int64
	nextMessageID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]user.User),
		projects: make(map[int64]project.Project),
		messages: make(map[int64]message.Message),
		jobs:     make(map[string]job.Job),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Projects() *ProjectsRepo {
	return &ProjectsRepo{s: s}
}

func (s *Store) Messages() *MessagesRepo {
	return &MessagesRepo{s: s}
}

func (s *Store) Jobs() *JobsRepo {
	return &JobsRepo{s: s}
}

// stamp returns a creation time strictly after every earlier stamp, so
// creation order is also time order even on coarse clocks.
func (s *Store) stamp(last time.Time) time.Time {
	t := s.now()
	if !t.After(last) {
		t = last.Add(time.Microsecond)
	}
	return t
}

// newestFirst orders by created_at DESC, id DESC.
func newestFirst(aAt time.Time, aID int64, bAt time.Time, bID int64) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID > bID
}

func sortUsers(items []user.User) {
	sort.Slice(items, func(i, j int) bool {
		return newestFirst(items[i].CreatedAt, items[i].ID, items[j].CreatedAt, items[j].ID)
	})
}

func sortProjects(items []project.Project) {
	sort.Slice(items, func(i, j int) bool {
		return newestFirst(items[i].CreatedAt, items[i].ID, items[j].CreatedAt, items[j].ID)
	})
}

func sortMessages(items []message.Message) {
	sort.Slice(items, func(i, j int) bool {
		return newestFirst(items[i].CreatedAt, items[i].ID, items[j].CreatedAt, items[j].ID)
	})
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
