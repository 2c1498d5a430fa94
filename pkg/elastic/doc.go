// Package elastic is the gateway between retainer and the search backend.
//
// It issues authenticated REST calls against an Elasticsearch-compatible
// cluster and returns the raw JSON body of successful responses. Failures are
// classified so callers can tell an unreachable backend from one that
// rejected the request:
//
//   - *TransportError: the request never produced an HTTP response
//   - *StatusError: the backend answered with a status other than 200
//   - *DecodeError: the backend answered 200 with a body that is not JSON
//
// # Basic Usage
//
//	client, err := elastic.NewClient(elastic.Config{
//	    URL:      "https://es.internal:9200",
//	    Username: "retainer",
//	    Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
//	    Timeout:  30 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	body, err := client.Request(ctx, elastic.MethodGet, "/_aliases", nil)
//
// HTTP verbs are a closed set of Method values; there is no way to build a
// request with an arbitrary verb string.
//
// Retries are disabled on the underlying transport. A failed call is
// reported to the caller exactly once.
package elastic
