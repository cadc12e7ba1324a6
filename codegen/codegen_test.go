package codegen

import (
	"strings"
	"testing"

	"gdide/typedef"
)

func TestNameAllocatorUnique(t *testing.T) {
	a := NewNameAllocator()
	a.Reserve("runtime")

	got := []string{a.New("stopDoWhile"), a.New("stopDoWhile"), a.New("stopDoWhile"), a.New(""), a.New("runtime")}
	want := []string{"stopDoWhile", "stopDoWhile2", "stopDoWhile3", "x", "runtime2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("name %d = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestIdentifier(t *testing.T) {
	tests := map[string]string{
		"Player":    "Player",
		"2D hero":   "_2D_hero",
		"":          "x",
		"élan-vital": "élan_vital",
	}
	for in, want := range tests {
		if got := identifier(in); got != want {
			t.Errorf("identifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContextChildDeclarationsStayLocal(t *testing.T) {
	root := NewContext(nil, typedef.NewScene("s"))
	root.ObjectsListNeeded("Enemy")

	child := root.NewChild()
	sibling := root.NewChild()

	if !child.ObjectAlreadyDeclared("Enemy") {
		t.Fatal("child should see ancestor declaration")
	}
	if child.ObjectDeclaredHere("Enemy") {
		t.Fatal("child should not own ancestor declaration")
	}

	v := child.ObjectsListNeeded("Bullet")
	if root.ObjectAlreadyDeclared("Bullet") {
		t.Fatal("parent must not see child declaration")
	}
	if sibling.ObjectAlreadyDeclared("Bullet") {
		t.Fatal("sibling must not see child declaration")
	}
	if got := sibling.ObjectsListNeeded("Bullet"); got == v {
		t.Fatalf("sibling reused variable %q", v)
	}
}

func TestContextDeclarationCode(t *testing.T) {
	scene := typedef.NewScene("s")
	scene.AddObject("Enemy")
	scene.AddObject("Boss")
	scene.AddGroup("Foes", "Enemy", "Boss")

	root := NewContext(nil, scene)
	rootVar := root.ObjectsListNeeded("Enemy")
	root.ObjectsListNeeded("Foes")

	code := root.GenerateObjectsDeclarationCode()
	if !strings.Contains(code, `let EnemyObjects = runtime.getObjects("Enemy");`) {
		t.Fatalf("root declaration missing:\n%s", code)
	}
	if !strings.Contains(code, `let FoesObjects = [].concat(runtime.getObjects("Enemy"), runtime.getObjects("Boss"));`) {
		t.Fatalf("group declaration missing:\n%s", code)
	}

	child := root.NewChild()
	childVar := child.ObjectsListNeeded("Enemy")
	if childVar == rootVar {
		t.Fatal("child must declare its own copy")
	}
	code = child.GenerateObjectsDeclarationCode()
	if code != "let "+childVar+" = "+rootVar+".slice();\n" {
		t.Fatalf("child declaration = %q", code)
	}
}

func TestConditionsAreNotShortCircuited(t *testing.T) {
	g := NewGenerator(nil, typedef.StandardMetadata())
	ctx := g.NewRootContext()
	list := typedef.NewInstructionList(
		typedef.NewInstruction("VarScene", "a", "=", "1"),
		typedef.NewInstruction("VarScene", "b", "<", "2").WithInverted(true),
	)

	code, flags := g.GenerateConditionsListCode(list, ctx)
	if len(flags) != 2 || flags[0] != "condition0IsTrue" || flags[1] != "condition1IsTrue" {
		t.Fatalf("flags = %v", flags)
	}
	want := "let condition0IsTrue = runtime.compareVariable(\"a\", \"==\", 1);\n" +
		"let condition1IsTrue = !(runtime.compareVariable(\"b\", \"<\", 2));\n"
	if code != want {
		t.Fatalf("code =\n%s\nwant\n%s", code, want)
	}
	if p := Predicate(flags); p != "true && condition0IsTrue && condition1IsTrue" {
		t.Fatalf("predicate = %q", p)
	}
	if p := Predicate(nil); p != "true" {
		t.Fatalf("empty predicate = %q", p)
	}

	_, again := g.GenerateConditionsListCode(list, ctx)
	if again[0] == flags[0] {
		t.Fatal("second list reused flag names")
	}
}

func TestUnknownInstructionFallback(t *testing.T) {
	g := NewGenerator(nil, nil)
	ctx := g.NewRootContext()
	got := g.GenerateActionCode(typedef.NewInstruction("Ext::Shake", "3", "\"hard\""), ctx)
	want := `runtime.action("Ext::Shake", ["3", "\"hard\""]);`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestObjectTemplateUsesContextVariable(t *testing.T) {
	g := NewGenerator(nil, typedef.StandardMetadata())
	ctx := g.NewRootContext()
	got := g.GenerateActionCode(typedef.NewInstruction("MettreX", "Hero", "+", ""), ctx)
	want := `for (const o of HeroObjects) runtime.modifyObjectX(o, "+", 0);`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if !ctx.ObjectDeclaredHere("Hero") {
		t.Fatal("action should have requested the object list")
	}
}

type rawEvent string

func (e rawEvent) GenerateCode(*Generator, *Context) string { return string(e) }

func TestSceneCodeSkipsEmptyEvents(t *testing.T) {
	g := NewGenerator(nil, nil)
	code := g.GenerateSceneCode([]EventCode{rawEvent("a();\n"), rawEvent(""), rawEvent("b();\n")})
	want := "function runScene(runtime) {\n{\na();\n}\n{\nb();\n}\n}\n"
	if code != want {
		t.Fatalf("code =\n%q\nwant\n%q", code, want)
	}
}
