package api

import "time"

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, workspaces *workspaces, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		healthHandler:       newHealthHandler(startupTime, deps.Health, workspaces),
		sessionHandler:      newSessionHandler(deps.Sessions, workspaces),
		accountHandler:      newAccountHandler(deps.Client),
		subscriptionHandler: newSubscriptionHandler(),
		marketplaceHandler:  newMarketplaceHandler(),
		blogHandler:         newBlogHandler(),
		projectHandler:      newProjectHandler(),
		uploadHandler:       newUploadHandler(deps.Journal),
	}
}
