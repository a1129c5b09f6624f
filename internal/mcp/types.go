package mcp

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Transport protocol identifiers for MCP server communication.
const (
	// TransportStdio indicates local process communication via stdin/stdout.
	// This is the default when a Command is specified.
	TransportStdio = "stdio"

	// TransportHTTP indicates remote server communication over HTTP.
	// This is the default when a URL is specified without an explicit transport.
	TransportHTTP = "http"

	// TransportSSE indicates remote server communication via Server-Sent Events.
	TransportSSE = "sse"

	// TransportUnknown indicates the transport could not be determined from
	// the server's fields.
	TransportUnknown = "unknown"
)

// Tier identifies the configuration tier a server was read from.
// Higher values take precedence during merging.
type Tier int

const (
	// TierGlobal is the user-wide config (~/.claude.json top-level mcpServers).
	TierGlobal Tier = iota
	// TierProject is the per-project block inside the global config.
	TierProject
	// TierLocal is the project-local .mcp.json file.
	TierLocal
)

// String returns the tier name used in logs and error messages.
func (t Tier) String() string {
	switch t {
	case TierGlobal:
		return "global"
	case TierProject:
		return "project"
	case TierLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Server is the canonical representation of one MCP server entry.
//
// Name and Tier travel out of band: the JSON form of a Server is the bare
// payload object used as a map value under the server's name, exactly as
// the source files store it.
type Server struct {
	// Name is the server's display name. Identity comparisons fold case;
	// the display casing is preserved for output.
	Name string `json:"-"`

	// Tier records which configuration tier supplied this record.
	// Used only for merge precedence, never serialized.
	Tier Tier `json:"-"`

	// Command is the executable for local (stdio) servers.
	Command string `json:"command,omitempty"`

	// Args are command-line arguments passed to Command.
	Args []string `json:"args,omitempty"`

	// Env contains environment variables for the server process.
	Env map[string]string `json:"env,omitempty"`

	// URL is the endpoint for remote (http/sse) servers.
	URL string `json:"url,omitempty"`

	// Transport is the declared protocol: "stdio", "http" or "sse".
	// When empty the protocol is inferred from Command/URL.
	Transport string `json:"transport,omitempty"`

	// Headers contains HTTP headers for remote transports.
	Headers map[string]string `json:"headers,omitempty"`

	// unknownFields stores payload fields agentsync does not model.
	// They pass through marshal/unmarshal untouched.
	unknownFields map[string]json.RawMessage
}

// Fold returns the case-folded form of a server name used for identity.
func Fold(name string) string {
	return strings.ToLower(name)
}

// Protocol returns the effective transport for this server.
// An explicit Transport value wins; otherwise a Command implies stdio and
// a URL implies http. Servers with neither are TransportUnknown.
func (s *Server) Protocol() string {
	switch s.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
		return s.Transport
	}
	if s.Command != "" {
		return TransportStdio
	}
	if s.URL != "" {
		return TransportHTTP
	}
	return TransportUnknown
}

// knownPayloadKeys are the payload fields Server models explicitly.
var knownPayloadKeys = []string{"command", "args", "env", "url", "transport", "headers"}

// MarshalJSON implements json.Marshaler, emitting the payload object with
// unknown fields included.
func (s *Server) MarshalJSON() ([]byte, error) {
	result := make(map[string]any)

	// Copy unknown fields first so known fields take precedence.
	for k, v := range s.unknownFields {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, err
		}
		result[k] = val
	}

	if s.Command != "" {
		result["command"] = s.Command
	}
	if len(s.Args) > 0 {
		result["args"] = s.Args
	}
	if len(s.Env) > 0 {
		result["env"] = s.Env
	}
	if s.URL != "" {
		result["url"] = s.URL
	}
	if s.Transport != "" {
		result["transport"] = s.Transport
	}
	if len(s.Headers) > 0 {
		result["headers"] = s.Headers
	}

	return json.Marshal(result)
}

// UnmarshalJSON implements json.Unmarshaler, capturing unknown payload fields.
func (s *Server) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["command"]; ok {
		if err := json.Unmarshal(v, &s.Command); err != nil {
			return err
		}
	}
	if v, ok := raw["args"]; ok {
		if err := json.Unmarshal(v, &s.Args); err != nil {
			return err
		}
	}
	if v, ok := raw["env"]; ok {
		if err := json.Unmarshal(v, &s.Env); err != nil {
			return err
		}
	}
	if v, ok := raw["url"]; ok {
		if err := json.Unmarshal(v, &s.URL); err != nil {
			return err
		}
	}
	if v, ok := raw["transport"]; ok {
		if err := json.Unmarshal(v, &s.Transport); err != nil {
			return err
		}
	}
	if v, ok := raw["headers"]; ok {
		if err := json.Unmarshal(v, &s.Headers); err != nil {
			return err
		}
	}

	for _, k := range knownPayloadKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		s.unknownFields = raw
	}

	return nil
}

// Payload returns the server's full payload as a generic map, including
// unknown fields. Numbers that fit are returned as int64 so non-JSON
// encoders don't render integers as floats.
func (s *Server) Payload() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeNumbers(m).(map[string]any), nil
}

// normalizeNumbers converts json.Number values to int64 when exact,
// falling back to float64.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}

// PayloadKeys returns the payload field names in deterministic order:
// the modeled fields first, then unknown fields sorted alphabetically.
func (s *Server) PayloadKeys() []string {
	var keys []string
	if s.Command != "" {
		keys = append(keys, "command")
	}
	if len(s.Args) > 0 {
		keys = append(keys, "args")
	}
	if len(s.Env) > 0 {
		keys = append(keys, "env")
	}
	if s.URL != "" {
		keys = append(keys, "url")
	}
	if s.Transport != "" {
		keys = append(keys, "transport")
	}
	if len(s.Headers) > 0 {
		keys = append(keys, "headers")
	}

	var unknown []string
	for k := range s.unknownFields {
		unknown = append(unknown, k)
	}
	sort.Strings(unknown)
	return append(keys, unknown...)
}

// EncodeObject renders servers as a compact JSON object keyed by display
// name, preserving the slice order of the keys. encoding/json sorts map
// keys, which would destroy the end-to-end ordering guarantee, so the
// object is assembled by hand from individually marshaled values.
func EncodeObject(servers []*Server) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range servers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
