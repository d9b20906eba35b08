// internal/handler/router.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/controller"
	"github.com/unclebandit/crowdfund-backend/internal/metrics"
	"github.com/unclebandit/crowdfund-backend/internal/storage"
)

// Router bundles everything the HTTP surface is built from.
type Router struct {
	Campaigns *controller.CampaignController
	Rounds    *controller.RoundController
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	// ImageDir is served under /campaign-images when set.
	ImageDir string
}

// Handler builds the chi router.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if rt.Logger != nil {
		r.Use(RequestLogger(rt.Logger))
	}
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", rt.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Campaign routes
	r.Get("/campaigns", rt.Campaigns.ListCampaigns)
	r.Post("/campaigns", rt.Campaigns.CreateCampaign)
	r.Patch("/campaigns", rt.Campaigns.UpdateCampaign)
	r.Get("/campaigns/user", rt.Campaigns.ListUserCampaigns)
	r.Patch("/campaigns/user", rt.Campaigns.UpdateCampaign)
	r.Get("/campaigns/{id}", rt.Campaigns.GetCampaign)
	r.Post("/campaigns/{id}/approve", rt.Campaigns.ApproveCampaign)

	// Round routes
	r.Get("/rounds", rt.Rounds.ListRounds)
	r.Post("/campaigns/round", rt.Rounds.AssignRounds)
	r.Get("/campaigns/round/{id}", rt.Rounds.CampaignRounds)

	if rt.ImageDir != "" {
		prefix := "/" + storage.ImagesPrefix + "/"
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(rt.ImageDir)))
		r.Handle(prefix+"*", fs)
	}
	return r
}
