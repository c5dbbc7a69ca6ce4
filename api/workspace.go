package api

import (
	"context"
	"sync"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/editor"
	"github.com/rpupo63/unified-personal-site-frontend/inflight"
	"github.com/rpupo63/unified-personal-site-frontend/marketplace"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/session"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
	"github.com/rpupo63/unified-personal-site-frontend/subscription"
)

// workspace is the state kept for one signed-in visitor between requests.
type workspace struct {
	session       *session.Session
	subscriptions *subscription.Orchestrator
	blog          *editor.Editor[models.BlogPost, models.BlogPostForm]
	projects      *editor.Editor[models.Project, models.ProjectForm]
	marketplace   *marketplace.Marketplace

	mu       sync.Mutex
	user     *models.User
	lastSeen time.Time
}

// confirmFromRequest confirms when the request carried ?confirm=true.
var confirmFromRequest = subscription.ConfirmFunc(func(ctx context.Context, _ string) bool {
	return ctxConfirmed(ctx)
})

// currentUser returns the profile, fetching it once per workspace.
func (ws *workspace) currentUser(ctx context.Context, client *remote.Client) (models.User, error) {
	ws.mu.Lock()
	cached := ws.user
	ws.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	user, err := client.GetUser(ctx, ws.session)
	if err != nil {
		return models.User{}, err
	}

	ws.mu.Lock()
	ws.user = &user
	ws.mu.Unlock()
	return user, nil
}

func (ws *workspace) forgetUser() {
	ws.mu.Lock()
	ws.user = nil
	ws.mu.Unlock()
}

// workspaces holds a workspace per session id.
type workspaces struct {
	client  *remote.Client
	journal editor.Journal
	sink    storage.Sink
	guard   *inflight.Set
	idle    time.Duration

	mu        sync.Mutex
	byID      map[string]*workspace
	lastSweep time.Time
	now       func() time.Time
}

func newWorkspaces(client *remote.Client, journal editor.Journal, sink storage.Sink, idle time.Duration) *workspaces {
	return &workspaces{
		client:  client,
		journal: journal,
		sink:    sink,
		guard:   inflight.NewSet(),
		idle:    idle,
		byID:    make(map[string]*workspace),
		now:     time.Now,
	}
}

// open returns the workspace of sess, creating it on first use.
func (w *workspaces) open(sess *session.Session) *workspace {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.sweep(now)

	if ws, ok := w.byID[sess.ID()]; ok && ws.session.Authenticated() {
		ws.lastSeen = now
		return ws
	}

	ws := &workspace{
		session:       sess,
		subscriptions: subscription.NewOrchestrator(w.client, sess, w.sink, confirmFromRequest),
		blog:          editor.NewEditor[models.BlogPost, models.BlogPostForm](editor.NewBlogBackend(w.client), sess, w.journal, w.guard),
		projects:      editor.NewEditor[models.Project, models.ProjectForm](editor.NewProjectBackend(w.client), sess, w.journal, w.guard),
		marketplace:   marketplace.New(w.client, sess, w.sink),
		lastSeen:      now,
	}
	w.byID[sess.ID()] = ws
	return ws
}

// lookup returns the live workspace of id, if any, and marks it as used.
func (w *workspaces) lookup(id string) (*workspace, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ws, ok := w.byID[id]
	if !ok || !ws.session.Authenticated() {
		return nil, false
	}
	ws.lastSeen = w.now()
	return ws, true
}

func (w *workspaces) drop(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.byID, id)
}

func (w *workspaces) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byID)
}

// sweep drops signed-out and idle workspaces, at most once a minute. Callers hold mu.
func (w *workspaces) sweep(now time.Time) {
	if now.Sub(w.lastSweep) < time.Minute {
		return
	}
	w.lastSweep = now

	for id, ws := range w.byID {
		if !ws.session.Authenticated() || (w.idle > 0 && now.Sub(ws.lastSeen) > w.idle) {
			delete(w.byID, id)
		}
	}
}
