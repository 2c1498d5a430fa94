// Package security groups the credential handling of retainer:
//
//   - auth: API keys on the HTTP action routes
//   - secrets: passwords and keys read from mounted secret files
//   - tls: certificate authorities and client certificates for Elasticsearch
package security
