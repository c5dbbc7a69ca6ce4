package editor

import (
	"context"
	"fmt"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
)

// Backend adapts one entity kind (its entity type E and form type F) to the API.
type Backend[E, F any] interface {
	Kind() string
	AssetKinds() []string
	List(ctx context.Context, creds remote.Credentials) ([]E, error)
	Create(ctx context.Context, creds remote.Credentials, form F, slug string) (E, error)
	Update(ctx context.Context, creds remote.Credentials, id string, form F, slug string) (E, error)
	Delete(ctx context.Context, creds remote.Credentials, id string) error
	Upload(ctx context.Context, creds remote.Credentials, assetKind, id, slug string, asset remote.Asset) (string, error)

	Identify(entity E) (id, slug string)
	Form(entity E) F
	Title(form F) string
}

// BlogAPI is the part of the remote client the blog editor calls.
type BlogAPI interface {
	ListBlogPosts(ctx context.Context, creds remote.Credentials) ([]models.BlogPost, error)
	CreateBlogPost(ctx context.Context, creds remote.Credentials, payload models.BlogPostPayload) (models.BlogPost, error)
	UpdateBlogPost(ctx context.Context, creds remote.Credentials, id string, payload models.BlogPostPayload) (models.BlogPost, error)
	DeleteBlogPost(ctx context.Context, creds remote.Credentials, id string) error
	UploadBlogImage(ctx context.Context, creds remote.Credentials, postID, slug string, asset remote.Asset) (string, error)
}

type BlogBackend struct {
	api BlogAPI
}

func NewBlogBackend(api BlogAPI) BlogBackend {
	return BlogBackend{api: api}
}

func (b BlogBackend) Kind() string { return models.EntityBlogPost }

func (b BlogBackend) AssetKinds() []string { return []string{models.AssetImage} }

func (b BlogBackend) List(ctx context.Context, creds remote.Credentials) ([]models.BlogPost, error) {
	return b.api.ListBlogPosts(ctx, creds)
}

func (b BlogBackend) Create(ctx context.Context, creds remote.Credentials, form models.BlogPostForm, slug string) (models.BlogPost, error) {
	return b.api.CreateBlogPost(ctx, creds, form.Payload(slug))
}

func (b BlogBackend) Update(ctx context.Context, creds remote.Credentials, id string, form models.BlogPostForm, slug string) (models.BlogPost, error) {
	return b.api.UpdateBlogPost(ctx, creds, id, form.Payload(slug))
}

func (b BlogBackend) Delete(ctx context.Context, creds remote.Credentials, id string) error {
	return b.api.DeleteBlogPost(ctx, creds, id)
}

func (b BlogBackend) Upload(ctx context.Context, creds remote.Credentials, assetKind, id, slug string, asset remote.Asset) (string, error) {
	if assetKind != models.AssetImage {
		return "", errs.NewInvalidFieldError("assetKind", fmt.Sprintf("blog posts do not take %q assets", assetKind))
	}
	return b.api.UploadBlogImage(ctx, creds, id, slug, asset)
}

func (b BlogBackend) Identify(post models.BlogPost) (string, string) { return post.ID, post.Slug }

func (b BlogBackend) Form(post models.BlogPost) models.BlogPostForm {
	return models.FormFromBlogPost(post)
}

func (b BlogBackend) Title(form models.BlogPostForm) string { return form.Title }

// ProjectAPI is the part of the remote client the project editor calls.
type ProjectAPI interface {
	Projects(ctx context.Context, creds remote.Credentials) ([]models.Project, error)
	CreateProject(ctx context.Context, creds remote.Credentials, payload models.ProjectPayload) (models.Project, error)
	UpdateProject(ctx context.Context, creds remote.Credentials, id string, payload models.ProjectPayload) (models.Project, error)
	DeleteProject(ctx context.Context, creds remote.Credentials, id string) error
	UploadProjectImage(ctx context.Context, creds remote.Credentials, projectID, slug string, asset remote.Asset) (string, error)
	UploadProjectZip(ctx context.Context, creds remote.Credentials, projectID, slug string, asset remote.Asset) (string, error)
}

type ProjectBackend struct {
	api ProjectAPI
}

func NewProjectBackend(api ProjectAPI) ProjectBackend {
	return ProjectBackend{api: api}
}

func (p ProjectBackend) Kind() string { return models.EntityProject }

func (p ProjectBackend) AssetKinds() []string {
	return []string{models.AssetImage, models.AssetZip}
}

func (p ProjectBackend) List(ctx context.Context, creds remote.Credentials) ([]models.Project, error) {
	return p.api.Projects(ctx, creds)
}

func (p ProjectBackend) Create(ctx context.Context, creds remote.Credentials, form models.ProjectForm, slug string) (models.Project, error) {
	return p.api.CreateProject(ctx, creds, form.Payload(slug))
}

func (p ProjectBackend) Update(ctx context.Context, creds remote.Credentials, id string, form models.ProjectForm, slug string) (models.Project, error) {
	return p.api.UpdateProject(ctx, creds, id, form.Payload(slug))
}

func (p ProjectBackend) Delete(ctx context.Context, creds remote.Credentials, id string) error {
	return p.api.DeleteProject(ctx, creds, id)
}

func (p ProjectBackend) Upload(ctx context.Context, creds remote.Credentials, assetKind, id, slug string, asset remote.Asset) (string, error) {
	switch assetKind {
	case models.AssetImage:
		return p.api.UploadProjectImage(ctx, creds, id, slug, asset)
	case models.AssetZip:
		return p.api.UploadProjectZip(ctx, creds, id, slug, asset)
	default:
		return "", errs.NewInvalidFieldError("assetKind", fmt.Sprintf("unknown asset kind %q", assetKind))
	}
}

func (p ProjectBackend) Identify(project models.Project) (string, string) {
	return project.ID, project.Slug
}

func (p ProjectBackend) Form(project models.Project) models.ProjectForm {
	return models.FormFromProject(project)
}

func (p ProjectBackend) Title(form models.ProjectForm) string { return form.Title }
