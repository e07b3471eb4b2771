package annotations

import "google.golang.org/protobuf/reflect/protoreflect"

// Route is the HTTP binding declared on an RPC method.
type Route struct {
	Get    string
	Put    string
	Post   string
	Delete string
	Patch  string

	// Body selects the request field mapped to the HTTP body. "*" maps
	// the whole input message.
	Body    string
	HasBody bool

	AdditionalBindings []*Route
	Deprecated         bool

	// Extension is the full name of the option the route was read from.
	Extension string
}

// WebSocketTopic is the WebSocket binding declared on an RPC method.
type WebSocketTopic struct {
	Topic            string
	AdditionalTopics []*WebSocketTopic
	Deprecated       bool
}

func routeFromMessage(m protoreflect.Message) *Route {
	r := &Route{}
	r.Get, _ = stringField(m, "get")
	r.Put, _ = stringField(m, "put")
	r.Post, _ = stringField(m, "post")
	r.Delete, _ = stringField(m, "delete")
	r.Patch, _ = stringField(m, "patch")
	r.Body, r.HasBody = stringField(m, "body")
	r.Deprecated = boolField(m, "deprecated")
	for _, nested := range messageList(m, "additional_bindings") {
		r.AdditionalBindings = append(r.AdditionalBindings, routeFromMessage(nested))
	}
	return r
}

func topicFromMessage(m protoreflect.Message) *WebSocketTopic {
	t := &WebSocketTopic{}
	t.Topic, _ = stringField(m, "topic")
	t.Deprecated = boolField(m, "deprecated")
	for _, nested := range messageList(m, "additional_topics") {
		t.AdditionalTopics = append(t.AdditionalTopics, topicFromMessage(nested))
	}
	return t
}

func stringField(m protoreflect.Message, name protoreflect.Name) (string, bool) {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil || fd.Kind() != protoreflect.StringKind || !m.Has(fd) {
		return "", false
	}
	return m.Get(fd).String(), true
}

func boolField(m protoreflect.Message, name protoreflect.Name) bool {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil || fd.Kind() != protoreflect.BoolKind {
		return false
	}
	return m.Get(fd).Bool()
}

func messageList(m protoreflect.Message, name protoreflect.Name) []protoreflect.Message {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil || !fd.IsList() || fd.Kind() != protoreflect.MessageKind {
		return nil
	}
	list := m.Get(fd).List()
	out := make([]protoreflect.Message, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		out = append(out, list.Get(i).Message())
	}
	return out
}
