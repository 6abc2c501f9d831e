package instrument

import (
	"testing"

	"github.com/maoif/trec/ir"
	"github.com/maoif/trec/probe"
	"github.com/stretchr/testify/require"
)

func TestEnsureModuleCtorCreatesOnce(t *testing.T) {
	m := ir.NewModule()

	first := ensureModuleCtor(m)
	second := ensureModuleCtor(m)

	require.Same(t, first, second)
	require.Len(t, m.GlobalCtors(), 1)
	require.Equal(t, 1, countCalls(first, probe.InitSymbol))

	n := 0
	for _, fn := range m.Functions {
		if fn.Name == probe.ModuleCtorName {
			n++
		}
	}
	require.Equal(t, 1, n)
}
