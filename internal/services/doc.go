// Package services implements quota-aware search against the YouTube Data API.
//
// # Credential Pool
//
// [CredentialPool] holds the ordered API keys and a rotation cursor shared by every search in the process.
// [CredentialPool.Advance] rotates only when the caller's key is still current, so concurrent failures on the same key move the cursor once.
//
// # Search Client
//
// [SearchClient] wraps a [Provider] and retries quota and timeout failures on the next key until the attempt ceiling is hit.
// Every other failure is returned immediately.
//
// # YouTube Implementation
//
// [YouTubeService] calls GET /search on the Data API and maps items to [models.Track].
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrValidation] : empty query, no upstream call
//   - [shared.ErrQuotaExceeded] : HTTP 403 or 429 from the provider
//   - [shared.ErrTimeout] : the per-request deadline expired
//   - [shared.ErrUpstream] : any other provider or transport failure
//   - [shared.ErrExhaustedCredentials] : the attempt ceiling was reached
package services
