package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/arvarik/withings-go/withings"
)

var (
	consumerKey    = kingpin.Flag("consumer-key", "Withings application consumer key.").Envar("WITHINGS_CONSUMER_KEY").Required().String()
	consumerSecret = kingpin.Flag("consumer-secret", "Withings application consumer secret.").Envar("WITHINGS_CONSUMER_SECRET").Required().String()
	callbackURL    = kingpin.Flag("callback-url", "Callback URL registered for the application; served locally.").Envar("WITHINGS_CALLBACK_URL").Default("http://localhost:8081/callback").String()
	timeout        = kingpin.Flag("timeout", "How long to wait for the user to authorize.").Default("5m").Duration()
)

// authResult is what the callback handler hands back to main.
type authResult struct {
	token *withings.AccessToken
	err   error
}

func main() {
	kingpin.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	u, err := url.Parse(*callbackURL)
	if err != nil || u.Host == "" {
		logger.Fatal("invalid callback URL", zap.String("url", *callbackURL), zap.Error(err))
	}

	client, err := withings.NewClient(withings.Credentials{
		ConsumerKey:    *consumerKey,
		ConsumerSecret: *consumerSecret,
		CallbackURL:    *callbackURL,
	}, withings.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := client.RequestToken(ctx)
	if err != nil {
		logger.Fatal("failed to obtain request token", zap.Error(err))
	}

	fmt.Println("=== Withings OAuth 1.0a Token Generator ===")
	fmt.Println("\n1. Make sure this callback URL is registered for your Withings application:")
	fmt.Printf("   %s\n", *callbackURL)
	fmt.Println("\n2. Open this URL in your browser to authorize:")
	fmt.Printf("\n   %s\n\n", client.AuthorizeURL(rt))

	results := make(chan authResult, 1)
	server := &http.Server{
		Addr:              ":" + callbackPort(u),
		Handler:           newRouter(callbackPath(u), client, rt, results),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- authResult{err: err}
		}
	}()
	logger.Info("waiting for authorization callback", zap.String("addr", server.Addr))

	var res authResult
	select {
	case res = <-results:
	case <-ctx.Done():
		res = authResult{err: ctx.Err()}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	if res.err != nil {
		logger.Fatal("authorization failed", zap.Error(res.err))
	}

	printToken(res.token)
}

// callbackPort returns the port the callback URL points at.
func callbackPort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

// callbackPath returns the route the callback URL points at, "/" when it
// has no path.
func callbackPath(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// newRouter serves the OAuth callback at path. The first completed exchange,
// successful or not, is delivered on results.
func newRouter(path string, client *withings.Client, rt *withings.RequestToken, results chan<- authResult) http.Handler {
	r := chi.NewRouter()
	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if tok := q.Get("oauth_token"); tok != rt.Token {
			http.Error(w, "unexpected oauth_token", http.StatusBadRequest)
			return
		}

		verifier := q.Get("oauth_verifier")
		if verifier == "" {
			http.Error(w, "missing oauth_verifier", http.StatusBadRequest)
			return
		}

		at, err := client.AccessToken(r.Context(), rt, verifier)
		if err != nil {
			http.Error(w, fmt.Sprintf("token exchange error: %v", err), http.StatusBadGateway)
			deliver(results, authResult{err: err})
			return
		}

		// Withings also passes the user on the redirect.
		if at.UserID == "" {
			at.UserID = q.Get("userid")
		}

		fmt.Fprintf(w, "Success! You can close this window and check your terminal.")
		deliver(results, authResult{token: at})
	})
	return r
}

// deliver sends res unless a result is already pending.
func deliver(results chan<- authResult, res authResult) {
	select {
	case results <- res:
	default:
	}
}

func printToken(tok *withings.AccessToken) {
	fmt.Println("\n=== SUCCESS ===")
	fmt.Println("\nExport your session:")
	fmt.Printf("\nexport WITHINGS_ACCESS_TOKEN=%q\n", tok.Token)
	fmt.Printf("export WITHINGS_ACCESS_TOKEN_SECRET=%q\n", tok.Secret)
	fmt.Printf("export WITHINGS_USER_ID=%q\n", tok.UserID)
}
