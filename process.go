// Package dexir turns a pre-parsed dex class pool into a runnable
// Module: native standard environment first, then one interpreted
// function per method body, lowered through decode, control-flow
// analysis, and the IR builder.
package dexir

import (
	"fmt"

	"github.com/maekoos/dex-ir/dexfile"
	"github.com/maekoos/dex-ir/internal/dexconfig"
	"github.com/maekoos/dex-ir/internal/dexlog"
	"github.com/maekoos/dex-ir/ir"
	"github.com/maekoos/dex-ir/module"
	"github.com/maekoos/dex-ir/stdenv"
)

// Process ingests every class definition of a parsed dex file into a
// fresh module, ready to Run. A method that fails to decode or analyse
// is logged and skipped; it does not bring down the rest of the module.
func Process(input *dexfile.DexFile, opts ...dexconfig.Option) *module.Module {
	dexlog.Info("processing dex input")

	m := module.New("undexed", opts...)
	stdenv.AddAll(m)

	for i := range input.Classes {
		class := &input.Classes[i]
		dexlog.Debugf("generating class: %s", class.Type)
		if err := ingestClass(class, input, m); err != nil {
			dexlog.Errorf("skipping class %s: %v", class.Type, err)
		}
	}

	return m
}

func ingestClass(class *dexfile.ClassDef, dex *dexfile.DexFile, m *module.Module) error {
	for i := range class.Methods {
		method := &class.Methods[i]
		if method.Code == nil {
			continue
		}

		key := MethodKey(class.Type, method.Name)

		fnb := ir.NewFunctionBuilder()
		if err := generateCode(method.Code, method, dex, fnb); err != nil {
			// One broken method must not take the class down with it.
			dexlog.Errorf("skipping method %s: %v", key, err)
			continue
		}

		m.AddFunction(key, module.Interpreted{Fn: fnb.Build()})
	}
	return nil
}

// ProcessAndAppend would ingest a second dex file into an existing
// module. Multi-module loading is out of scope for now.
func ProcessAndAppend(_ *dexfile.DexFile, _ *module.Module) error {
	return fmt.Errorf("appending to an existing module is not implemented")
}
