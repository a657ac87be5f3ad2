package tokens

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// DTCG document conversion. A document is a tree of groups; a node
// carrying "$value" is a token, "$type" may sit on the token or be
// inherited from an enclosing group.

var ErrBadDocument = errors.New("not a DTCG document")

func FromDTCG(raw []byte) ([]Token, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var toks []Token
	if err := walkGroup(doc, nil, "", &toks); err != nil {
		return nil, err
	}
	return toks, nil
}

func walkGroup(node map[string]any, path []string, inherited string, out *[]Token) error {
	groupType := inherited
	if t, ok := node["$type"].(string); ok {
		groupType = t
	}

	// deterministic order, documents are small
	keys := make([]string, 0, len(node))
	for k := range node {
		if !strings.HasPrefix(k, "$") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		child, ok := node[k].(map[string]any)
		if !ok {
			return ErrBadDocument
		}
		childPath := append(append([]string{}, path...), k)
		if _, isToken := child["$value"]; isToken {
			name := strings.Join(childPath, "/")
			typ := groupType
			if t, ok := child["$type"].(string); ok {
				typ = t
			}
			tok := Token{
				ID:     name,
				Name:   name,
				Type:   Type(typ),
				Value:  child["$value"],
				Origin: OriginManual,
			}
			if d, ok := child["$description"].(string); ok {
				tok.Description = d
			}
			*out = append(*out, tok)
			continue
		}
		if err := walkGroup(child, childPath, groupType, out); err != nil {
			return err
		}
	}
	return nil
}

func ToDTCG(toks []Token) ([]byte, error) {
	root := map[string]any{}
	for _, t := range toks {
		segs := strings.FieldsFunc(t.Name, func(r rune) bool {
			return r == '/' || r == '.'
		})
		if len(segs) == 0 {
			segs = []string{t.ID}
		}
		node := root
		for _, s := range segs[:len(segs)-1] {
			next, ok := node[s].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[s] = next
			}
			node = next
		}
		leaf := map[string]any{
			"$type":  string(t.Type),
			"$value": t.Value,
		}
		if t.Description != "" {
			leaf["$description"] = t.Description
		}
		node[segs[len(segs)-1]] = leaf
	}
	return json.MarshalIndent(root, "", "  ")
}
