// Package auth protects the HTTP action routes with static API keys.
//
// Clients send a key as a bearer token or in the X-API-Key header:
//
//	curl -X POST -H "Authorization: Bearer $RETAINER_API_KEY" \
//	    http://localhost:8001/actions/clear-indices
//
// Keys are configured under server.api_keys or server.api_keys_file. Logs
// identify a caller by the key's fingerprint, never by the key.
package auth
