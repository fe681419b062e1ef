package registry

import (
	"sync"
	"testing"

	"github.com/dirt-web/dirt/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(path, name, route string, services ...types.ServiceEndpoint) *types.ModuleRecord {
	if services == nil {
		services = []types.ServiceEndpoint{}
	}
	return &types.ModuleRecord{
		Path:     path,
		Name:     name,
		Route:    route,
		IsIndex:  name == "index",
		Services: services,
	}
}

func TestNewModuleRegistry(t *testing.T) {
	reg := NewModuleRegistry()

	assert.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.All())
}

func TestRegisterKeepsOrder(t *testing.T) {
	reg := NewModuleRegistry()
	reg.Register(record("site/b.rsr", "b", "/b"))
	reg.Register(record("site/a.rsr", "a", "/a"))
	reg.Register(record("site/c.rsr", "c", "/c"))

	names := make([]string, 0)
	for _, m := range reg.All() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)

	reg.Register(record("site/a.rsr", "a", "/a-new"))
	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "/a-new", all[1].Route, "replaced module keeps its position")
}

func TestGetAndRemove(t *testing.T) {
	reg := NewModuleRegistry()
	reg.Register(record("site/a.rsr", "a", "/a"))

	got, ok := reg.Get("site/a.rsr")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)

	reg.Remove("site/a.rsr")
	_, ok = reg.Get("site/a.rsr")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Count())

	reg.Remove("site/missing.rsr")
}

func TestReplace(t *testing.T) {
	reg := NewModuleRegistry()
	reg.Register(record("site/a.rsr", "a", "/a"))
	reg.Register(record("site/b.rsr", "b", "/b"))

	events := reg.Watch()
	defer reg.UnWatch(events)

	reg.Replace([]*types.ModuleRecord{
		record("site/c.rsr", "c", "/c"),
		record("site/a.rsr", "a", "/a"),
	})

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "c", all[0].Name)
	assert.Equal(t, "a", all[1].Name)

	got := map[string]EventType{}
	for i := 0; i < 3; i++ {
		ev := <-events
		got[ev.Module.Name] = ev.Type
	}
	assert.Equal(t, map[string]EventType{
		"b": EventTypeRemoved,
		"c": EventTypeAdded,
		"a": EventTypeUpdated,
	}, got)
}

func TestRouteCollisions(t *testing.T) {
	reg := NewModuleRegistry()
	reg.Register(record("site/index.rsr", "index", "/"))
	reg.Register(record("site/a/index.rsr", "index", "/"))
	reg.Register(record("site/about.rsr", "about", "/about"))

	collisions := reg.RouteCollisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, Collision{Key: "/", Paths: []string{"site/index.rsr", "site/a/index.rsr"}}, collisions[0])
}

func TestNameCollisions(t *testing.T) {
	reg := NewModuleRegistry()
	reg.Register(record("site/post.rsr", "post", "/post"))
	reg.Register(record("site/blog/post.rsr", "post", "/blog/post"))
	reg.Register(record("site/about.rsr", "about", "/about"))

	assert.Empty(t, reg.RouteCollisions())

	collisions := reg.NameCollisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "post", collisions[0].Key)
	assert.Len(t, collisions[0].Paths, 2)
}

func TestEndpointCollisions(t *testing.T) {
	get := types.ServiceEndpoint{Method: "GET", Route: "/api", Handler: "api"}
	post := types.ServiceEndpoint{Method: "POST", Route: "/api", Handler: "api"}

	reg := NewModuleRegistry()
	reg.Register(record("site/a.rsr", "a", "/a", get, get))
	reg.Register(record("site/b.rsr", "b", "/b", post))
	assert.Empty(t, reg.EndpointCollisions(), "duplicates inside one module are not a collision")

	reg.Register(record("site/c.rsr", "c", "/c", get))
	collisions := reg.EndpointCollisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "GET /api", collisions[0].Key)
	assert.Equal(t, []string{"site/a.rsr", "site/c.rsr"}, collisions[0].Paths)
}

func TestWatchEvents(t *testing.T) {
	reg := NewModuleRegistry()
	events := reg.Watch()

	reg.Register(record("site/a.rsr", "a", "/a"))
	reg.Register(record("site/a.rsr", "a", "/a"))
	reg.Remove("site/a.rsr")

	assert.Equal(t, EventTypeAdded, (<-events).Type)
	assert.Equal(t, EventTypeUpdated, (<-events).Type)
	assert.Equal(t, EventTypeRemoved, (<-events).Type)

	reg.UnWatch(events)
	_, open := <-events
	assert.False(t, open)
}

func TestConcurrentRegister(t *testing.T) {
	reg := NewModuleRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "site/" + string(rune('a'+i%26)) + ".rsr"
			reg.Register(record(path, "m", "/m"))
			_ = reg.All()
			_ = reg.RouteCollisions()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 26, reg.Count())
	assert.Len(t, reg.All(), 26)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "added", EventTypeAdded.String())
	assert.Equal(t, "updated", EventTypeUpdated.String())
	assert.Equal(t, "removed", EventTypeRemoved.String())
	assert.Equal(t, "unknown", EventType(42).String())
}
