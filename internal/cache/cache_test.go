package cache

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type payload struct {
	ID   string            `json:"id"`
	Tags []string          `json:"tags"`
	Meta map[string]int    `json:"meta"`
	When time.Time         `json:"when"`
	Sub  *payload          `json:"sub,omitempty"`
	Any  map[string]string `json:"any,omitempty"`
}

func samplePayload() payload {
	return payload{
		ID:   "p1",
		Tags: []string{"a", "b"},
		Meta: map[string]int{"tasks": 3},
		When: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Sub:  &payload{ID: "child", Tags: []string{}, Meta: map[string]int{}},
	}
}

// providers returns every Cache implementation together with a function that
// moves its notion of time forward.
func providers(t *testing.T) map[string]struct {
	cache   Cache
	advance func(time.Duration)
} {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]struct {
		cache   Cache
		advance func(time.Duration)
	}{
		"memory": {cache: NewMemory(WithClock(clock.Now)), advance: clock.Advance},
		"redis":  {cache: NewRedis(client), advance: server.FastForward},
	}
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := samplePayload()

			if err := provider.cache.Set(ctx, "tm:project:p1", want, 10*time.Second); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			var got payload
			found, err := provider.cache.Get(ctx, "tm:project:p1", &got)
			if err != nil || !found {
				t.Fatalf("Get = %v, %v", found, err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Get value = %+v, want %+v", got, want)
			}

			provider.advance(11 * time.Second)

			found, err = provider.cache.Get(ctx, "tm:project:p1", &got)
			if err != nil || found {
				t.Errorf("Get after TTL = %v, %v; want miss", found, err)
			}

			exists, err := provider.cache.Exists(ctx, "tm:project:p1")
			if err != nil || exists {
				t.Errorf("Exists after TTL = %v, %v; want false", exists, err)
			}
		})
	}
}

func TestCache_DeleteByPatternIsAnchored(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			keys := []string{
				"tm:task:1",
				"tm:task:2",
				"tm:tasks:project:1",
				"tm:tasks:list:p1_l10_all",
				"tm:project:1",
				"other:tm:task:3",
			}
			for _, key := range keys {
				if err := provider.cache.Set(ctx, key, 1, time.Minute); err != nil {
					t.Fatalf("Set(%s) failed: %v", key, err)
				}
			}

			removed, err := provider.cache.DeleteByPattern(ctx, "tm:task:*")
			if err != nil {
				t.Fatalf("DeleteByPattern failed: %v", err)
			}
			if removed != 2 {
				t.Errorf("removed = %d, want 2", removed)
			}

			var survivors []string
			for _, key := range keys {
				ok, err := provider.cache.Exists(ctx, key)
				if err != nil {
					t.Fatalf("Exists(%s) failed: %v", key, err)
				}
				if ok {
					survivors = append(survivors, key)
				}
			}
			sort.Strings(survivors)

			want := []string{"other:tm:task:3", "tm:project:1", "tm:tasks:list:p1_l10_all", "tm:tasks:project:1"}
			if !reflect.DeepEqual(survivors, want) {
				t.Errorf("survivors = %v, want %v", survivors, want)
			}
		})
	}
}

func TestCache_Delete(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_ = provider.cache.Set(ctx, "k", "v", time.Minute)
			if err := provider.cache.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}

			var got string
			if found, _ := provider.cache.Get(ctx, "k", &got); found {
				t.Error("key survived Delete")
			}

			if err := provider.cache.Delete(ctx, "never-set"); err != nil {
				t.Errorf("Delete(missing) = %v", err)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	for _, testcase := range []struct {
		pattern, key string
		want         bool
	}{
		{"tm:task:*", "tm:task:1", true},
		{"tm:task:*", "tm:task:", true},
		{"tm:task:*", "tm:tasks:project:1", false},
		{"tm:task:*", "x:tm:task:1", false},
		{"tm:task:?", "tm:task:1", true},
		{"tm:task:?", "tm:task:12", false},
		{"tm:*:list:*", "tm:projects:list:p1_l10_all", true},
		{"*", "", true},
		{"", "", true},
		{"", "a", false},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{"literal", "literal", true},
		{"lit*", "lit*", true},
	} {
		if got := Match(testcase.pattern, testcase.key); got != testcase.want {
			t.Errorf("Match(%q, %q) = %v, want %v", testcase.pattern, testcase.key, got, testcase.want)
		}
	}
}

func TestMemory_Purge(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	_ = m.Set(ctx, "short", 1, time.Second)
	_ = m.Set(ctx, "long", 1, time.Hour)

	clock.Advance(time.Minute)

	if purged := m.Purge(); purged != 1 {
		t.Errorf("Purge() = %d, want 1", purged)
	}
	if ok, _ := m.Exists(ctx, "long"); !ok {
		t.Error("unexpired entry was purged")
	}
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "tm"}

	for _, testcase := range []struct{ got, want string }{
		{k.Project("1"), "tm:project:1"},
		{k.ProjectList(2, 20, "abc"), "tm:projects:list:p2_l20_abc"},
		{k.ProjectListPattern(), "tm:projects:list:*"},
		{k.Task("9"), "tm:task:9"},
		{k.TaskPattern(), "tm:task:*"},
		{k.TasksByProject("1"), "tm:tasks:project:1"},
		{k.TasksByProjectPattern(), "tm:tasks:project:*"},
		{k.TaskList(1, 10, NoFilter), "tm:tasks:list:p1_l10_all"},
		{k.TaskListPattern(), "tm:tasks:list:*"},
		{k.GitHubRepos("Octocat"), "tm:github:repos:octocat"},
	} {
		if testcase.got != testcase.want {
			t.Errorf("key = %q, want %q", testcase.got, testcase.want)
		}
	}
}

type filter struct {
	Tags   []string `json:"tags,omitempty"`
	Search string   `json:"search,omitempty"`
}

func (f filter) IsEmpty() bool { return len(f.Tags) == 0 && f.Search == "" }

func TestFilterHash(t *testing.T) {
	if got := FilterHash(nil); got != NoFilter {
		t.Errorf("FilterHash(nil) = %q", got)
	}
	if got := FilterHash(filter{}); got != NoFilter {
		t.Errorf("FilterHash(empty) = %q", got)
	}

	a := FilterHash(filter{Tags: []string{"x"}, Search: "demo"})
	b := FilterHash(filter{Tags: []string{"x"}, Search: "demo"})
	c := FilterHash(filter{Tags: []string{"y"}, Search: "demo"})

	if a != b {
		t.Errorf("identical filters hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different filters share a hash")
	}
	if len(a) != 32 {
		t.Errorf("hash %q is not hex md5", a)
	}
}

func TestCache_NonPositiveTTLStoresNothing(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := provider.cache.Set(ctx, "tm:project:p1", "old", time.Minute); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			for _, ttl := range []time.Duration{0, -time.Second} {
				if err := provider.cache.Set(ctx, "tm:project:p1", "new", ttl); err != nil {
					t.Fatalf("Set(ttl=%v) failed: %v", ttl, err)
				}

				exists, err := provider.cache.Exists(ctx, "tm:project:p1")
				if err != nil || exists {
					t.Errorf("Exists after Set(ttl=%v) = %v, %v; want false", ttl, exists, err)
				}
			}
		})
	}
}

func TestCache_DeleteByPatternRejectsClassesAndEscapes(t *testing.T) {
	for name, provider := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := provider.cache.Set(ctx, "tm:task:1", 1, time.Minute); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			for _, pattern := range []string{"tm:task:[12]", `tm:task:\*`} {
				removed, err := provider.cache.DeleteByPattern(ctx, pattern)
				if !errors.Is(err, ErrUnsupportedPattern) {
					t.Errorf("DeleteByPattern(%q) error = %v, want ErrUnsupportedPattern", pattern, err)
				}
				if removed != 0 {
					t.Errorf("DeleteByPattern(%q) removed %d keys", pattern, removed)
				}
			}

			if ok, _ := provider.cache.Exists(ctx, "tm:task:1"); !ok {
				t.Error("rejected pattern deleted a key")
			}
		})
	}
}
