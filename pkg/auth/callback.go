package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "magpie/pkg/errors"
	"magpie/pkg/logger"
)

// CodeGrant is a successful authorization callback
type CodeGrant struct {
	Code  string
	State string
}

// ProviderError is a structured error the provider sent on the
// redirect instead of a code grant.
type ProviderError struct {
	Code        string
	Description string
	URI         string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Description != "" && e.URI != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Description, e.URI)
	case e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.URI != "":
		return fmt.Sprintf("%s (%s)", e.Code, e.URI)
	default:
		return e.Code
	}
}

// Outcome is the result of exactly one callback request. Exactly one
// of the three shapes holds: Grant on success, Provider when the
// provider reported an error, neither when the query matched no known
// shape.
type Outcome struct {
	Grant    *CodeGrant
	Provider *ProviderError
}

// Malformed reports whether the callback query matched neither the
// success nor the error shape.
func (o Outcome) Malformed() bool {
	return o.Grant == nil && o.Provider == nil
}

// ParseCallback decodes a callback query string. Decode precedence is
// load-bearing: the success shape (code + state) is tried first, then
// the provider error shape (an `error` parameter), and anything else
// is malformed. Swapping the order would change behavior on queries
// carrying overlapping fields.
func ParseCallback(query url.Values) Outcome {
	code := query.Get("code")
	state := query.Get("state")
	if code != "" && state != "" {
		return Outcome{Grant: &CodeGrant{Code: code, State: state}}
	}

	if errCode := query.Get("error"); errCode != "" {
		return Outcome{Provider: &ProviderError{
			Code:        errCode,
			Description: query.Get("error_description"),
			URI:         query.Get("error_uri"),
		}}
	}

	return Outcome{}
}

// Receiver is a one-shot local HTTP server that captures a single
// OAuth2 redirect and hands it to the waiting caller. One instance
// serves exactly one login attempt; after the first callback request
// it shuts itself down.
type Receiver struct {
	ln      net.Listener
	srv     *http.Server
	outcome chan Outcome
	once    sync.Once
	logger  logger.Logger
}

// Listen binds the callback server to 127.0.0.1 on the given port and
// starts serving. Port 0 picks a free port; Addr reports the actual
// address. A bind failure is a setup error and is not retried.
func Listen(port int, log logger.Logger) (*Receiver, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindSetup, err, "binding callback listener on port %d", port)
	}

	rcv := &Receiver{
		ln:      ln,
		outcome: make(chan Outcome, 1),
		logger:  log,
	}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "waiting for callback")
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	})
	r.Get("/oauth2/callback", rcv.handleCallback)

	rcv.srv = &http.Server{Handler: r}
	go func() {
		if err := rcv.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("callback server stopped unexpectedly")
		}
	}()

	log.WithField("addr", rcv.Addr()).Debug("listening for OAuth2 callback")
	return rcv, nil
}

// Addr returns the address the receiver is listening on
func (r *Receiver) Addr() string {
	return r.ln.Addr().String()
}

// Wait blocks until the first callback request has been parsed and
// acknowledged, then shuts the server down and returns the outcome.
// Cancelling the context abandons the wait and closes the server; the
// browser redirect has no inherent deadline, so callers wanting a
// bounded wait pass a context with a timeout.
func (r *Receiver) Wait(ctx context.Context) (Outcome, error) {
	select {
	case outcome := <-r.outcome:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.srv.Shutdown(shutdownCtx); err != nil {
			r.logger.WithError(err).Warn("callback server shutdown incomplete")
		}
		return outcome, nil
	case <-ctx.Done():
		_ = r.srv.Close()
		return Outcome{}, apperrors.Wrap(apperrors.KindSetup, "waiting for OAuth2 callback", ctx.Err())
	}
}

// Close tears the server down without waiting for a callback
func (r *Receiver) Close() error {
	return r.srv.Close()
}

func (r *Receiver) handleCallback(w http.ResponseWriter, req *http.Request) {
	outcome := ParseCallback(req.URL.Query())

	title, subheader := outcome.headings()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, ackPage, title, subheader)

	// First callback wins; anything after the server starts shutting
	// down is dropped.
	r.once.Do(func() {
		r.logger.Debug("callback received, shutting down")
		r.outcome <- outcome
	})
}

func (o Outcome) headings() (title, subheader string) {
	switch {
	case o.Grant != nil:
		return "You are now logged in.", "Please close the window."
	case o.Provider != nil:
		return "Login failed.", o.Provider.Error()
	default:
		return "Login failed.", "Received invalid OAuth2 response."
	}
}

const ackPage = `<html>
    <body>
        <div style="
            width: 100%%;
            top: 50%%;
            margin-top: 100px;
            text-align: center;
            font-family: sans-serif;
        ">
            <h1>%s</h1>
            <h2>%s</h2>
        </div>
    </body>
</html>`

// CatchCallback is the one-call form: bind, wait for a single
// callback, shut down, return the outcome.
func CatchCallback(ctx context.Context, port int, log logger.Logger) (Outcome, error) {
	rcv, err := Listen(port, log)
	if err != nil {
		return Outcome{}, err
	}
	return rcv.Wait(ctx)
}
