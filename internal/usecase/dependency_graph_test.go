package usecase_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

func script(id string, tags []string, deps ...string) *usecase.Script {
	return &usecase.Script{ScriptUnit: domain.ScriptUnit{ID: id, Tags: tags, Dependencies: deps}}
}

func ids(scripts []*usecase.Script) []string {
	return lo.Map(scripts, func(s *usecase.Script, _ int) string { return s.ID })
}

func TestDependencyGraph(t *testing.T) {
	tests := []struct {
		name     string
		scripts  []*usecase.Script
		tags     []string
		expected []string
		wantErr  error
	}{
		{
			name: "independent scripts sort by id",
			scripts: []*usecase.Script{
				script("c", nil), script("a", nil), script("b", nil),
			},
			expected: []string{"a", "b", "c"},
		},
		{
			name: "dependencies come first",
			scripts: []*usecase.Script{
				script("a", []string{"A"}, "z"),
				script("z", []string{"Z"}),
			},
			expected: []string{"z", "a"},
		},
		{
			name: "tag dependency pulls every tagged script",
			scripts: []*usecase.Script{
				script("app", []string{"App"}, "Core"),
				script("core1", []string{"Core"}),
				script("core2", []string{"Core"}),
				script("other", []string{"Other"}),
			},
			tags:     []string{"App"},
			expected: []string{"core1", "core2", "app"},
		},
		{
			name: "transitive dependencies of selected scripts",
			scripts: []*usecase.Script{
				script("a", nil),
				script("b", nil, "a"),
				script("c", []string{"C"}, "b"),
				script("d", []string{"D"}),
			},
			tags:     []string{"C"},
			expected: []string{"a", "b", "c"},
		},
		{
			name: "diamond",
			scripts: []*usecase.Script{
				script("top", []string{"Top"}, "left", "right"),
				script("left", nil, "base"),
				script("right", nil, "base"),
				script("base", nil),
			},
			tags:     []string{"Top"},
			expected: []string{"base", "left", "right", "top"},
		},
		{
			name: "script may depend on its own tag",
			scripts: []*usecase.Script{
				script("a", []string{"Shared"}, "Shared"),
				script("b", []string{"Shared"}),
			},
			expected: []string{"b", "a"},
		},
		{
			name: "unknown tag selects nothing",
			scripts: []*usecase.Script{
				script("a", []string{"A"}),
			},
			tags:     []string{"Missing"},
			expected: []string{},
		},
		{
			name: "unknown dependency",
			scripts: []*usecase.Script{
				script("a", nil, "ghost"),
			},
			wantErr: domain.ErrUnknownDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := usecase.NewDependencyGraph(tt.scripts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ordered, err := graph.TopologicalSort(graph.Select(tt.tags))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(ordered))
		})
	}
}

func TestDependencyGraph_Cycles(t *testing.T) {
	graph, err := usecase.NewDependencyGraph([]*usecase.Script{
		script("a", nil, "c"),
		script("b", nil, "a"),
		script("c", nil, "b"),
		script("free", nil),
	})
	assert.Nil(t, graph)
	var cyclic *domain.CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"a", "b", "c"}, cyclic.Scripts)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestDependencyGraph_InvalidScripts(t *testing.T) {
	_, err := usecase.NewDependencyGraph([]*usecase.Script{script("a", nil), script("a", nil)})
	assert.ErrorContains(t, err, "duplicate script id")

	_, err = usecase.NewDependencyGraph([]*usecase.Script{script("", []string{"X"})})
	assert.ErrorContains(t, err, "without id")
}
