// Package secrets loads credentials from files mounted next to the process,
// so the Elasticsearch password does not have to appear in the
// configuration file or the environment:
//
//	elasticsearch:
//	  username: retainer
//	  password_file: /var/run/secrets/retainer/es-password
//
// File permissions are checked before the file is read.
package secrets
