package api

import (
	"errors"
	"net"
	"net/http"
	"net/netip"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	sessionCookieName = "portfolio_session"
	sessionHeaderName = "X-Session-ID"
)

type sessionMiddleware struct {
	responder  Responder
	logger     zerolog.Logger
	manager    *session.Manager
	workspaces *workspaces
	client     *remote.Client
}

func newSessionMiddleware(manager *session.Manager, workspaces *workspaces, client *remote.Client) sessionMiddleware {
	logger := log.With().Str("handlerName", "sessionMiddleware").Logger()
	return sessionMiddleware{
		responder:  NewResponder(logger),
		logger:     logger,
		manager:    manager,
		workspaces: workspaces,
		client:     client,
	}
}

// sessionID reads the session id from the cookie, or from the header for non-browser callers.
func sessionID(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(sessionHeaderName)
}

// authenticate resolves the session and puts its workspace in the context.
func (m sessionMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if id == "" {
			m.responder.WriteError(w, errs.NewSessionEndedError("Please sign in"))
			return
		}

		// The store is checked even for cached workspaces: another instance may have
		// ended the session.
		sess, err := m.manager.Resume(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			if ws, ok := m.workspaces.lookup(id); ok {
				if logoutErr := ws.session.Logout(r.Context()); logoutErr != nil {
					m.logger.Warn().Err(logoutErr).Str("sessionID", id).Msg("Failed to end cached session")
				}
			}
			m.workspaces.drop(id)
			clearSessionCookie(w)
			m.responder.WriteError(w, errs.NewSessionEndedError("Your session has ended, please sign in again"))
			return
		}
		if err != nil {
			m.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to load session", err))
			return
		}

		ws, ok := m.workspaces.lookup(id)
		if !ok {
			ws = m.workspaces.open(sess)
		}

		next.ServeHTTP(w, r.WithContext(ctxWithWorkspace(r.Context(), ws)))
	})
}

// requireAdmin lets through only accounts whose profile has the admin role.
func (m sessionMiddleware) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		if ws == nil {
			m.responder.WriteError(w, errs.NewSessionEndedError("Please sign in"))
			return
		}

		user, err := ws.currentUser(r.Context(), m.client)
		if err != nil {
			failRequest(w, r, m.responder, err)
			return
		}
		if !user.IsAdmin() {
			m.responder.WriteError(w, errs.NewForbiddenError("admin access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	if expiresAt := sess.ExpiresAt(); !expiresAt.IsZero() {
		cookie.Expires = expiresAt
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// failRequest writes err. When the account behind the session no longer exists the
// session is ended first, so the browser is sent back to the login page.
func failRequest(w http.ResponseWriter, r *http.Request, responder Responder, err error) {
	if errs.IsAccountDeleted(err) {
		if ws := ctxGetWorkspace(r.Context()); ws != nil {
			if logoutErr := ws.session.Logout(r.Context()); logoutErr != nil {
				responder.logger.Error().Err(logoutErr).Msg("failed to end session of deleted account")
			}
		}
		clearSessionCookie(w)
	}
	responder.WriteError(w, err)
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				// Write 500 if nothing written yet
				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}

// CORSCheckMiddleware rejects preflight requests from unknown origins with a proper error
// instead of a bare response without CORS headers
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || originAllowed(allowedOrigins, origin) || r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			responder := NewResponder(log.Logger)
			responder.WriteError(w, errs.NewCORSError(origin))
		})
	}
}

// corsMiddleware sets the CORS headers for allowed origins. Credentials are allowed so the
// session cookie travels with cross-origin requests.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionHeaderName},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// rateLimiter is a per-client token bucket.
type rateLimiter struct {
	responder Responder
	rate      rate.Limit
	burst     int
	proxies   trustedProxies

	mu       sync.Mutex
	visitors map[string]*visitor
	lastScan time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(rps float64, burst int, proxies trustedProxies) *rateLimiter {
	return &rateLimiter{
		responder: NewResponder(log.With().Str("handlerName", "rateLimiter").Logger()),
		rate:      rate.Limit(rps),
		burst:     burst,
		proxies:   proxies,
		visitors:  make(map[string]*visitor),
	}
}

func (rl *rateLimiter) limiterFor(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastScan) > time.Minute {
		rl.lastScan = now
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, key)
			}
		}
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiterFor(rl.proxies.clientIP(r), time.Now()).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			rl.responder.WriteError(w, errs.NewRateLimitError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// trustedProxies holds the peers whose forwarding headers are believed.
type trustedProxies []netip.Prefix

// parseTrustedProxies accepts addresses and CIDR ranges. Unparseable entries are skipped.
func parseTrustedProxies(entries []string) trustedProxies {
	var proxies trustedProxies
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			log.Warn().Str("entry", entry).Msg("Ignoring invalid trusted proxy")
			continue
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies
}

func (p trustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the connection address, unless that address is a trusted proxy: then the
// nearest untrusted hop of X-Forwarded-For, or X-Real-IP, names the client.
func (p trustedProxies) clientIP(r *http.Request) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !p.contains(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !p.contains(hop) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		if _, err := netip.ParseAddr(ip); err == nil {
			return ip
		}
	}
	return remote
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}
