package module

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/maekoos/dex-ir/ir"
)

var irDumper = &spew.ConfigState{Indent: " ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// DumpIR renders the whole module in a readable form: statics first, then
// every function body. Debugging aid; the output format is not stable.
func (m *Module) DumpIR() string {
	var out []string
	out = append(out, fmt.Sprintf("ModuleId = %q;", m.name), "")

	m.mu.Lock()
	staticNames := make([]string, 0, len(m.statics))
	for name := range m.statics {
		staticNames = append(staticNames, name)
	}
	m.mu.Unlock()
	sort.Strings(staticNames)
	for _, name := range staticNames {
		out = append(out, fmt.Sprintf("static %q;", name))
	}
	out = append(out, "")

	fnNames := make([]string, 0, len(m.functions))
	for name := range m.functions {
		fnNames = append(fnNames, name)
	}
	sort.Strings(fnNames)
	for _, name := range fnNames {
		out = append(out, m.functions[name].BuildIR(name), "")
	}

	return strings.Join(out, "\n")
}

func buildFunctionIR(fn *ir.Function, name string) string {
	var out []string
	out = append(out,
		fmt.Sprintf("func %q", name),
		fmt.Sprintf("\tRegisters (total): %d", fn.NRegs),
		fmt.Sprintf("\t       Parameters: %d", fn.NParams),
		fmt.Sprintf("\t Has return value: %t", fn.HasReturn),
		"")

	for _, stored := range fn.Instructions {
		line := strings.TrimRight(irDumper.Sdump(stored.Instr), "\n")
		if stored.Handler != nil {
			line = fmt.Sprintf("%s (handler %d)", line, *stored.Handler)
		}
		out = append(out, "\t"+strings.ReplaceAll(line, "\n", "\n\t"))
	}

	return strings.Join(out, "\n")
}
