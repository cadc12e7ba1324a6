package javascript

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"reflect"
	"testing"
	"time"

	eventeditor "gdide/event_editor"
	"gdide/typedef"
)

func sceneCode(tree *eventeditor.Tree) string {
	return eventeditor.GenerateCode(tree, typedef.NewScene("test"), typedef.StandardMetadata())
}

func TestExecuteWhileLoopCountsUp(t *testing.T) {
	tree := eventeditor.NewTree()
	loop := eventeditor.NewWhileEvent()
	loop.WhileConditions.Append(typedef.NewInstruction("VarScene", "n", "<", "3"))
	loop.Actions.Append(typedef.NewInstruction("ModVarScene", "n", "+", "1"))
	tree.Append(typedef.NoEvent, loop)

	rt := NewSceneRuntime(NewConsole(16))
	if err := Execute(context.Background(), sceneCode(tree), "loop", rt, 1); err != nil {
		t.Fatal(err)
	}
	if got := rt.Variable("n"); got != 3 {
		t.Fatalf("n = %v, want 3", got)
	}
}

func TestExecuteGuardSkipsPassWithoutStopping(t *testing.T) {
	tree := eventeditor.NewTree()
	loop := eventeditor.NewWhileEvent()
	loop.WhileConditions.Append(typedef.NewInstruction("VarScene", "n", "<", "4"))
	loop.Conditions.Append(typedef.NewInstruction("VarScene", "n", "<", "2"))
	loop.Actions.Append(typedef.NewInstruction("ModVarScene", "low", "+", "1"))
	id, _ := tree.Append(typedef.NoEvent, loop)
	sub := eventeditor.NewStandardEvent()
	sub.Actions.Append(typedef.NewInstruction("ModVarScene", "sub", "+", "1"))
	tree.Append(id, sub)
	// Step advances the counter on every pass.
	loop.WhileConditions.Append(typedef.NewInstruction("Step"))

	rt := NewSceneRuntime(nil)
	rt.RegisterCondition("Step", func([]string) bool {
		rt.SetVariable("n", rt.Variable("n")+1)
		return true
	})
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	if err := Execute(context.Background(), sceneCode(tree), "guard", rt, 1); err != nil {
		t.Fatal(err)
	}
	// The guard sees n = 1, 2, 3, 4 after Step: it only holds on the first
	// pass. The fifth pass tests n = 4, sets the exit flag and still runs Step.
	if rt.Variable("low") != 1 || rt.Variable("sub") != 1 {
		t.Fatalf("low = %v, sub = %v", rt.Variable("low"), rt.Variable("sub"))
	}
	if rt.Variable("n") != 5 {
		t.Fatalf("n = %v, want 5", rt.Variable("n"))
	}
}

func TestConditionsDoNotShortCircuit(t *testing.T) {
	tree := eventeditor.NewTree()
	std := eventeditor.NewStandardEvent()
	std.Conditions.Append(
		typedef.NewInstruction("Probe", "first", "false"),
		typedef.NewInstruction("Probe", "second", "true"),
	)
	std.Actions.Append(typedef.NewInstruction("ModVarScene", "ran", "=", "1"))
	tree.Append(typedef.NoEvent, std)

	var calls []string
	rt := NewSceneRuntime(nil)
	rt.RegisterCondition("Probe", func(p []string) bool {
		calls = append(calls, p[0])
		return p[1] == "true"
	})
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	if err := Execute(context.Background(), sceneCode(tree), "probe", rt, 1); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(calls, []string{"first", "second"}) {
		t.Fatalf("calls = %v", calls)
	}
	if rt.Variable("ran") != 0 {
		t.Fatal("actions ran although a condition was false")
	}
}

func TestObjectsArePickedAndModified(t *testing.T) {
	tree := eventeditor.NewTree()
	std := eventeditor.NewStandardEvent()
	std.Conditions.Append(typedef.NewInstruction("PosX", "Hero", ">", "4"))
	std.Actions.Append(typedef.NewInstruction("MettreX", "Hero", "+", "1"))
	tree.Append(typedef.NoEvent, std)
	del := eventeditor.NewStandardEvent()
	del.Conditions.Append(typedef.NewInstruction("PosX", "Hero", ">", "20"))
	del.Actions.Append(typedef.NewInstruction("Delete", "Hero"))
	tree.Append(typedef.NoEvent, del)

	rt := NewSceneRuntime(nil)
	a := rt.CreateObject("Hero", 0, 0)
	b := rt.CreateObject("Hero", 5, 0)
	c := rt.CreateObject("Hero", 20, 0)

	if err := Execute(context.Background(), sceneCode(tree), "objects", rt, 1); err != nil {
		t.Fatal(err)
	}
	if a.X != 0 || b.X != 6 || c.X != 21 {
		t.Fatalf("x = %v %v %v", a.X, b.X, c.X)
	}
	left := rt.Objects("Hero")
	if len(left) != 2 || left[0] != a || left[1] != b {
		t.Fatalf("left = %v", left)
	}
}

func TestInfiniteLoopIsInterrupted(t *testing.T) {
	tree := eventeditor.NewTree()
	tree.Append(typedef.NoEvent, eventeditor.NewWhileEvent())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := Execute(ctx, sceneCode(tree), "forever", NewSceneRuntime(nil), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want a deadline error", err)
	}
}

func TestExecuteReportsScriptErrors(t *testing.T) {
	rt := NewSceneRuntime(nil)
	if err := Execute(context.Background(), "let x = ;", "broken", rt, 1); err == nil {
		t.Fatal("syntax error not reported")
	}
	if err := Execute(context.Background(), "let x = 1;", "nofunc", rt, 1); err == nil {
		t.Fatal("missing scene function not reported")
	}
}

func TestEval(t *testing.T) {
	rt := NewSceneRuntime(nil)
	rt.SetVariable("a", 2)
	v, err := Eval(context.Background(), `runtime.modifyVariable("a", "*", 5); sprintf("%d", 7)`, "eval", rt)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "7" || rt.Variable("a") != 10 {
		t.Fatalf("v = %v, a = %v", v, rt.Variable("a"))
	}
}

func TestConsoleIsDrainedWithoutBlocking(t *testing.T) {
	c := NewConsole(2)
	rt := NewSceneRuntime(c)
	_, err := Eval(context.Background(), `runtime.log("a"); runtime.log("b"); runtime.log("c");`, "log", rt)
	if err != nil {
		t.Fatal(err)
	}
	msgs := c.Drain()
	if len(msgs) != 2 || msgs[0].Text != "a" || msgs[1].Text != "b" {
		t.Fatalf("msgs = %+v", msgs)
	}
	if c.Dropped() != 1 {
		t.Fatalf("dropped = %d", c.Dropped())
	}
	if len(c.Drain()) != 0 {
		t.Fatal("second drain should be empty")
	}
}
