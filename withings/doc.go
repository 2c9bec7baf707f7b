// Package withings provides a Go client for the Withings health-data API
// authenticated with OAuth 1.0a.
//
// The client signs every request with HMAC-SHA1, runs the three-legged
// token exchange, and unwraps the {status, body} envelope Withings returns
// for activity, body measurement, sleep and notification resources.
//
// # Authorization
//
//	client, _ := withings.NewClient(withings.Credentials{
//	    ConsumerKey:    "key",
//	    ConsumerSecret: "secret",
//	    CallbackURL:    "https://example.com/callback",
//	})
//
//	rt, err := client.RequestToken(ctx)
//	fmt.Println("visit", client.AuthorizeURL(rt))
//	// ... the user is redirected back with oauth_verifier and userid
//	at, err := client.AccessToken(ctx, rt, verifier)
//
// # Resuming a session
//
//	client, _ := withings.NewClient(creds,
//	    withings.WithAccessToken(token, secret),
//	    withings.WithUserID(userID),
//	)
//	steps, err := client.Measure.GetDailySteps(ctx, time.Now(), nil)
//
// Every resource method takes a trailing url.Values of extra parameters;
// nil and an empty url.Values produce the same request.
//
// # Notifications
//
// Use ParseNotification inside the handler registered as a subscription
// callback:
//
//	event, err := withings.ParseNotification(r)
package withings
