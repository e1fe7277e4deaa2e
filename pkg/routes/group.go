package routes

import "net/http"

// Group organizes routes under a common prefix.
// Guard applies to every route in the group and its children, outside any route guard.
type Group struct {
	Prefix   string
	Guard    func(http.Handler) http.Handler
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, guards []func(http.Handler) http.Handler, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	if group.Guard != nil {
		guards = append(guards[:len(guards):len(guards)], group.Guard)
	}

	for _, route := range group.Routes {
		var h http.Handler = route.Handler
		if route.Guard != nil {
			h = route.Guard(h)
		}
		for i := len(guards) - 1; i >= 0; i-- {
			h = guards[i](h)
		}
		mux.Handle(route.Method+" "+fullPrefix+route.Pattern, h)
	}

	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, guards, child)
	}
}
