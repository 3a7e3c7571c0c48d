// Package sessionauth performs the network exchanges that turn credentials or
// a refresh token into an access token for the Artisan Hosting API.
//
// The API is not OAuth2: both exchanges are JSON POSTs with their own field
// names, and failures are signalled by a non-2xx status with a free-form body.
//
// # Exchanges
//
//	a, _ := sessionauth.New("https://api.artisanhosting.net/v1/")
//	pair, err := a.Login(ctx, credstore.Credentials{Identifier: email, Secret: password})
//	access, err := a.Refresh(ctx, pair.Access, pair.Refresh)
//
// # Custom Base Transport
//
// Configure a custom base transport (e.g., for proxies) or timeout:
//
//	a, _ := sessionauth.New(
//		baseURL,
//		sessionauth.WithTransport(customTransport),
//		sessionauth.WithTimeout(10*time.Second),
//	)
package sessionauth
