package api

import "github.com/rpupo63/unified-personal-site-frontend/models"

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	healthHandler       healthHandler
	sessionHandler      sessionHandler
	accountHandler      accountHandler
	subscriptionHandler subscriptionHandler
	marketplaceHandler  marketplaceHandler
	blogHandler         adminHandler[models.BlogPost, models.BlogPostForm]
	projectHandler      adminHandler[models.Project, models.ProjectForm]
	uploadHandler       uploadHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error    string   `json:"error" example:"Internal Server Error"`
	Status   string   `json:"status" example:"error"`
	Code     string   `json:"code,omitempty" example:"ACCOUNT_DELETED"`
	Field    string   `json:"field,omitempty" example:"title"`
	Fields   []string `json:"fields,omitempty" example:"title,category"`
	Details  string   `json:"details,omitempty" example:"Additional error details"`
	Cause    string   `json:"cause,omitempty" example:"Underlying error cause"`
	Redirect string   `json:"redirect,omitempty" example:"/login"`
}

// loginRequest is the body of POST /session
type loginRequest struct {
	Token string `json:"token"`
}

// sessionResponse describes the session that was started
type sessionResponse struct {
	SessionID     string `json:"sessionId"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// subscribeRequest is the body of POST /account/subscription
type subscribeRequest struct {
	PlanType     string `json:"planType"`
	BillingCycle string `json:"billingCycle"`
}

// invoiceRequest is the body of POST /account/payments/{paymentID}/invoice
type invoiceRequest struct {
	InvoiceID string `json:"invoiceId"`
}

// savedFileResponse tells where a downloaded file was saved
type savedFileResponse struct {
	Location string `json:"location"`
}

// uploadResponse is the answer of a resumed upload
type uploadResponse struct {
	URL string `json:"url"`
}
