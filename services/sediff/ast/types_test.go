// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeKind_String(t *testing.T) {
	assert.Equal(t, "function", KindFunction.String())
	assert.Equal(t, "interface", KindInterface.String())
	assert.Equal(t, "other", KindOther.String())
	assert.Equal(t, "other", NodeKind(999).String())
}

func TestParseNodeKind_RoundTrip(t *testing.T) {
	for kind, name := range nodeKindNames {
		assert.Equal(t, kind, ParseNodeKind(name))
	}
	assert.Equal(t, KindOther, ParseNodeKind("spaceship"))
}

func TestNodeKind_JSON(t *testing.T) {
	data, err := json.Marshal(KindMethod)
	require.NoError(t, err)
	assert.Equal(t, `"method"`, string(data))

	var fromString NodeKind
	require.NoError(t, json.Unmarshal([]byte(`"class"`), &fromString))
	assert.Equal(t, KindClass, fromString)

	// Numeric form is accepted for older payloads.
	var fromNumber NodeKind
	require.NoError(t, json.Unmarshal([]byte(`5`), &fromNumber))
	assert.Equal(t, KindInterface, fromNumber)

	var invalid NodeKind
	assert.Error(t, json.Unmarshal([]byte(`{"kind": 1}`), &invalid))
}

func TestRange_Contains(t *testing.T) {
	outer := Range{StartByte: 10, EndByte: 100}

	assert.True(t, outer.Contains(Range{StartByte: 10, EndByte: 100}))
	assert.True(t, outer.Contains(Range{StartByte: 20, EndByte: 50}))
	assert.False(t, outer.Contains(Range{StartByte: 5, EndByte: 50}))
	assert.False(t, outer.Contains(Range{StartByte: 20, EndByte: 101}))
}

func TestRange_String(t *testing.T) {
	r := Range{StartLine: 3, StartCol: 0, EndLine: 7, EndCol: 1}
	assert.Equal(t, "3:0-7:1", r.String())
}

func TestSemanticNode_Identity(t *testing.T) {
	node := &SemanticNode{Name: "Start", Kind: KindMethod, Qualifier: "Server"}
	assert.Equal(t, "method:Server:Start", node.Identity())
	assert.Equal(t, "Server.Start", node.QualifiedName())

	top := &SemanticNode{Name: "main", Kind: KindFunction}
	assert.Equal(t, "function::main", top.Identity())
	assert.Equal(t, "main", top.QualifiedName())
}

func validNode() *SemanticNode {
	return &SemanticNode{
		Name:     "Server",
		Kind:     KindClass,
		FilePath: "svc/server.go",
		Range:    Range{StartLine: 1, EndLine: 20, StartByte: 0, EndByte: 400},
		Children: []*SemanticNode{
			{
				Name:     "Start",
				Kind:     KindMethod,
				FilePath: "svc/server.go",
				Range:    Range{StartLine: 3, EndLine: 8, StartByte: 40, EndByte: 160},
			},
			{
				Name:     "Stop",
				Kind:     KindMethod,
				FilePath: "svc/server.go",
				Range:    Range{StartLine: 10, EndLine: 15, StartByte: 200, EndByte: 360},
			},
		},
	}
}

func TestSemanticNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SemanticNode)
		wantErr string
	}{
		{
			name:   "valid tree",
			mutate: func(*SemanticNode) {},
		},
		{
			name:    "empty name",
			mutate:  func(n *SemanticNode) { n.Name = "" },
			wantErr: "Name",
		},
		{
			name:    "path traversal",
			mutate:  func(n *SemanticNode) { n.FilePath = "../etc/passwd" },
			wantErr: "FilePath",
		},
		{
			name:    "inverted byte range",
			mutate:  func(n *SemanticNode) { n.Range.EndByte = -1 },
			wantErr: "Range",
		},
		{
			name:    "inverted line range",
			mutate:  func(n *SemanticNode) { n.Range.EndLine = 0 },
			wantErr: "Range",
		},
		{
			name:    "child escapes parent",
			mutate:  func(n *SemanticNode) { n.Children[1].Range.EndByte = 999 },
			wantErr: "Children[1]",
		},
		{
			name: "children out of source order",
			mutate: func(n *SemanticNode) {
				n.Children[0], n.Children[1] = n.Children[1], n.Children[0]
			},
			wantErr: "Children[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := validNode()
			tt.mutate(node)

			err := node.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestSemanticNode_ValidateDepthLimit(t *testing.T) {
	root := &SemanticNode{Name: "n0", FilePath: "deep.go", Range: Range{EndByte: 1 << 20, EndLine: 1}}
	current := root
	for i := 0; i < MaxNodeDepth+1; i++ {
		child := &SemanticNode{Name: "n", FilePath: "deep.go", Range: current.Range}
		current.Children = []*SemanticNode{child}
		current = child
	}

	var ve ValidationError
	require.ErrorAs(t, root.Validate(), &ve)
	assert.Equal(t, "Children", ve.Field)
}

func TestSemanticNode_WalkPreOrder(t *testing.T) {
	node := validNode()

	var names []string
	var depths []int
	node.Walk(func(n *SemanticNode, depth int) bool {
		names = append(names, n.Name)
		depths = append(depths, depth)
		return true
	})

	assert.Equal(t, []string{"Server", "Start", "Stop"}, names)
	assert.Equal(t, []int{0, 1, 1}, depths)
}

func TestSemanticNode_WalkEarlyStop(t *testing.T) {
	node := validNode()

	visits := 0
	node.Walk(func(*SemanticNode, int) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
}

func TestForestCount(t *testing.T) {
	forest := []*SemanticNode{validNode(), {Name: "main", Kind: KindFunction}}
	assert.Equal(t, 3, forest[0].Count())
	assert.Equal(t, 4, ForestCount(forest))
	assert.Equal(t, 0, ForestCount(nil))
}
