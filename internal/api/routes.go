package api

import (
	"net/http"

	"github.com/ylk14/SmartPlant-sub000/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	guards := routes.Guards{
		User:    runtime.Auth.RequireUser,
		Admin:   runtime.Auth.RequireAdmin,
		IsAdmin: runtime.Auth.IsAdminRequest,
	}

	obs := domain.Observations.Handler()

	routes.Register(
		mux,
		domain.Species.Handler().Routes(guards),
		obs.Routes(guards),
		obs.ReviewRoutes(guards),
		domain.Geomask.Handler().Routes(guards),
	)
}
