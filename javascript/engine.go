package javascript

import (
	"context"
	"fmt"
	"time"

	"gdide/codegen"

	"github.com/dop251/goja"
)

// DefaultTimeout bounds a run when the context has no deadline.
const DefaultTimeout = 10 * time.Second

func newVM(rt *SceneRuntime) *goja.Runtime {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	// Utility functions
	vm.Set("sprintf", fmt.Sprintf)

	bridge := vm.NewObject()
	bridge.Set("getObjects", func(name string) goja.Value {
		objs := rt.objects[name]
		items := make([]interface{}, len(objs))
		for i, o := range objs {
			items[i] = o
		}
		return vm.NewArray(items...)
	})
	bridge.Set("compareVariable", rt.compareVariable)
	bridge.Set("modifyVariable", rt.modifyVariable)
	bridge.Set("compareNumber", compare)
	bridge.Set("modifyObjectX", rt.modifyObjectX)
	bridge.Set("deleteObject", rt.deleteObject)
	bridge.Set("condition", rt.condition)
	bridge.Set("action", rt.action)
	bridge.Set("log", func(msg string) { rt.log("scene", msg) })
	vm.Set(codegen.RuntimeVariable, bridge)
	return vm
}

// Eval runs src against rt and returns the value of its last statement.
func Eval(ctx context.Context, src, scriptName string, rt *SceneRuntime) (goja.Value, error) {
	return run(ctx, scriptName, rt, func(vm *goja.Runtime) (goja.Value, error) {
		return vm.RunString(src)
	})
}

// Execute runs the code generated for a scene: src defines the scene
// function, which is then called once per frame against rt.
// Running out of time interrupts the VM, which is how a loop that never
// ends is stopped.
func Execute(ctx context.Context, src, scriptName string, rt *SceneRuntime, frames int) error {
	_, err := run(ctx, scriptName, rt, func(vm *goja.Runtime) (goja.Value, error) {
		if _, err := vm.RunScript(scriptName, src); err != nil {
			return nil, err
		}
		fn, ok := goja.AssertFunction(vm.Get(codegen.SceneFunction))
		if !ok {
			return nil, fmt.Errorf("no %s function", codegen.SceneFunction)
		}
		for i := 0; i < frames; i++ {
			if _, err := fn(goja.Undefined(), vm.Get(codegen.RuntimeVariable)); err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
		}
		return goja.Undefined(), nil
	})
	return err
}

func run(ctx context.Context, scriptName string, rt *SceneRuntime, body func(vm *goja.Runtime) (goja.Value, error)) (goja.Value, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	vm := newVM(rt)

	type result struct {
		val goja.Value
		err error
	}
	resultCh := make(chan result, 1)

	// Run script in a goroutine
	go func() {
		val, err := body(vm)
		resultCh <- result{val, err}
	}()

	select {
	case <-ctx.Done():
		vm.Interrupt("timeout")
		// Wait for the VM to stop so rt is not used after return.
		<-resultCh
		return nil, fmt.Errorf("script %s timed out: %w", scriptName, ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("failed to run script %s: %w", scriptName, res.err)
		}
		return res.val, nil
	}
}
