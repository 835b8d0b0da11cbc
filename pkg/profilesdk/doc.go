/*
Package profilesdk provides a client SDK for the account API: login, signup,
and reading or updating the authenticated user's profile.

# SDKClient vs Session

The package is organized around two types:

  - SDKClient: unauthenticated operations (Login, Signup) and Session construction
  - Session: bearer-authenticated profile operations

	client := profilesdk.NewSDKClient("http://192.168.1.20:8000")

	tok, err := client.Login(ctx, profilesdk.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse",
	})

A Session does not hold the token itself. It asks a TokenSource before every
request, so a token rotated in secure storage is picked up immediately:

	session := client.NewSession(profilesdk.StaticToken(tok.Token))

	profile, err := session.GetProfile(ctx)

	updated, err := session.UpdateProfile(ctx, profilesdk.ProfileUpdate{
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Picture: &profilesdk.FilePart{
			Filename:    "me.png",
			ContentType: "image/png",
			Open:        func() (io.ReadCloser, error) { return os.Open("me.png") },
		},
	})

UpdateProfile sends multipart/form-data when a Picture is attached and JSON
otherwise. Email is never sent; the server treats it as read-only.

# Validation

LoginRequest and SignupRequest have a Validate method that applies the same
rules the server does for required fields and password length, so obvious
mistakes are reported without a round trip:

	if errs := req.Validate(); errs != nil {
		for field, msg := range errs {
			fmt.Printf("%s: %s\n", field, msg)
		}
	}

# Error Handling

Non-2xx responses are returned as *APIError, carrying the status code and any
field errors the server reported:

	var apiErr *profilesdk.APIError
	if errors.As(err, &apiErr) {
		for _, msg := range apiErr.Messages() {
			fmt.Println(msg)
		}
	}

Sessions fail fast with ErrNoToken when the TokenSource has nothing, and with
ErrTokenExpired when the token is a JWT whose exp claim has already passed.

# Thread Safety

SDKClient and Session are safe for concurrent use provided the TokenSource is.
*/
package profilesdk
