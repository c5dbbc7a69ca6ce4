package remote

import (
	"context"
	"net/http"

	"github.com/rpupo63/unified-personal-site-frontend/models"
)

const (
	adminBlogRoute = "/api/admin/blog"
	projectsRoute  = "/api/projects"
)

// uploadResult is what the asset endpoints answer with.
type uploadResult struct {
	URL string `json:"url"`
}

func (c *Client) ListBlogPosts(ctx context.Context, creds Credentials) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := c.doJSON(ctx, creds, call{http.MethodGet, adminBlogRoute, adminBlogRoute}, nil, &posts)
	return posts, err
}

func (c *Client) CreateBlogPost(ctx context.Context, creds Credentials, payload models.BlogPostPayload) (models.BlogPost, error) {
	var post models.BlogPost
	err := c.doJSON(ctx, creds, call{http.MethodPost, adminBlogRoute, adminBlogRoute}, payload, &post)
	return post, err
}

func (c *Client) UpdateBlogPost(ctx context.Context, creds Credentials, id string, payload models.BlogPostPayload) (models.BlogPost, error) {
	var post models.BlogPost
	err := c.doJSON(ctx, creds, call{http.MethodPut, adminBlogRoute + "/{id}", pathf(adminBlogRoute+"/%s", id)}, payload, &post)
	return post, err
}

func (c *Client) DeleteBlogPost(ctx context.Context, creds Credentials, id string) error {
	return c.doJSON(ctx, creds, call{http.MethodDelete, adminBlogRoute + "/{id}", pathf(adminBlogRoute+"/%s", id)}, nil, nil)
}

// UploadBlogImage attaches the cover image of an existing post and returns its URL.
func (c *Client) UploadBlogImage(ctx context.Context, creds Credentials, postID, slug string, asset Asset) (string, error) {
	var result uploadResult
	fields := map[string]string{"blogId": postID, "slug": slug}
	err := c.upload(ctx, creds, call{http.MethodPost, "/api/blog/image", "/api/blog/image"}, fields, "image", asset, &result)
	return result.URL, err
}

func (c *Client) CreateProject(ctx context.Context, creds Credentials, payload models.ProjectPayload) (models.Project, error) {
	var project models.Project
	err := c.doJSON(ctx, creds, call{http.MethodPost, projectsRoute, projectsRoute}, payload, &project)
	return project, err
}

func (c *Client) UpdateProject(ctx context.Context, creds Credentials, id string, payload models.ProjectPayload) (models.Project, error) {
	var project models.Project
	err := c.doJSON(ctx, creds, call{http.MethodPut, projectsRoute + "/{id}", pathf(projectsRoute+"/%s", id)}, payload, &project)
	return project, err
}

func (c *Client) DeleteProject(ctx context.Context, creds Credentials, id string) error {
	return c.doJSON(ctx, creds, call{http.MethodDelete, projectsRoute + "/{id}", pathf(projectsRoute+"/%s", id)}, nil, nil)
}

func (c *Client) UploadProjectImage(ctx context.Context, creds Credentials, projectID, slug string, asset Asset) (string, error) {
	var result uploadResult
	fields := map[string]string{"projectId": projectID, "slug": slug}
	err := c.upload(ctx, creds, call{http.MethodPost, "/api/projects/image", "/api/projects/image"}, fields, "image", asset, &result)
	return result.URL, err
}

func (c *Client) UploadProjectZip(ctx context.Context, creds Credentials, projectID, slug string, asset Asset) (string, error) {
	var result uploadResult
	fields := map[string]string{"projectId": projectID, "slug": slug}
	err := c.upload(ctx, creds, call{http.MethodPost, "/api/projects/upload-zip", "/api/projects/upload-zip"}, fields, "zip", asset, &result)
	return result.URL, err
}
