package elastic

// Method is an HTTP verb supported by the gateway.
//
// The set of methods is closed: values can only be obtained from the exported
// variables below. The zero Method behaves as MethodGet.
type Method struct {
	verb string
}

var (
	// MethodGet reads a resource.
	MethodGet = Method{verb: "GET"}
	// MethodPut replaces a resource, e.g. index settings.
	MethodPut = Method{verb: "PUT"}
	// MethodPost submits a request body, e.g. alias actions.
	MethodPost = Method{verb: "POST"}
	// MethodDelete removes a resource, e.g. one or more indices.
	MethodDelete = Method{verb: "DELETE"}
	// MethodPatch partially updates a resource.
	MethodPatch = Method{verb: "PATCH"}
	// MethodHead checks for existence without a body.
	MethodHead = Method{verb: "HEAD"}
)

// String returns the verb as sent on the wire.
func (m Method) String() string {
	if m.verb == "" {
		return MethodGet.verb
	}
	return m.verb
}
