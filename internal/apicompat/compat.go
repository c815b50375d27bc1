// Package apicompat reports breaking changes between two revisions of the
// API description: removed paths, operations and response codes, and newly
// required parameters.
package apicompat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "network/docs" // registers the served API description

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// Operation is what a client depends on for one method of one path.
type Operation struct {
	Responses map[string]struct{}
	// Required holds "in:name" for every required parameter.
	Required map[string]struct{}
}

// Spec maps path -> lower-case method -> operation.
type Spec struct {
	Paths map[string]map[string]Operation
}

// Has reports whether the spec documents method on path.
func (s Spec) Has(method, path string) bool {
	_, ok := s.Paths[path][strings.ToLower(method)]
	return ok
}

// Load parses a swagger document in YAML or JSON.
func Load(raw []byte) (Spec, error) {
	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Spec{}, err
	}
	return fromDocument(doc)
}

func LoadFile(path string) (Spec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}
	return Load(raw)
}

// Registered returns the description the server publishes at /swagger.
func Registered() (Spec, error) {
	raw, err := swag.ReadDoc()
	if err != nil {
		return Spec{}, fmt.Errorf("read registered doc: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Spec{}, fmt.Errorf("decode registered doc: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc map[string]any) (Spec, error) {
	pathsRaw, ok := doc["paths"]
	if !ok {
		return Spec{}, errors.New("missing top-level paths field")
	}
	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return Spec{}, errors.New("paths is not an object")
	}

	spec := Spec{Paths: make(map[string]map[string]Operation)}
	for pathKey, pathEntry := range pathsMap {
		methods, ok := toMap(pathEntry)
		if !ok {
			continue
		}
		ops := make(map[string]Operation)
		for methodKey, methodEntry := range methods {
			method := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			body, ok := toMap(methodEntry)
			if !ok {
				continue
			}
			ops[method] = parseOperation(body)
		}
		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}
	return spec, nil
}

func parseOperation(body map[string]any) Operation {
	op := Operation{Responses: map[string]struct{}{}, Required: map[string]struct{}{}}
	if responses, ok := toMap(body["responses"]); ok {
		for code := range responses {
			if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
				op.Responses[code] = struct{}{}
			}
		}
	}
	params, _ := body["parameters"].([]any)
	for _, p := range params {
		param, ok := toMap(p)
		if !ok {
			continue
		}
		if required, _ := param["required"].(bool); required {
			op.Required[fmt.Sprintf("%v:%v", param["in"], param["name"])] = struct{}{}
		}
	}
	return op
}

func toMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			// Unquoted response codes decode as integers.
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// Compare lists every change in revision that can break a client of base,
// sorted.
func Compare(base, revision Spec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, "removed path: "+path)
			continue
		}

		for method, baseOp := range baseOps {
			verb := strings.ToUpper(method)
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", verb, path))
				continue
			}
			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s", verb, path, strings.ToUpper(code)))
				}
			}
			for param := range revOp.Required {
				if _, ok := baseOp.Required[param]; !ok {
					issues = append(issues, fmt.Sprintf("new required parameter: %s %s -> %s", verb, path, param))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
