package bestfix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ngsast/bestfix/internal/ngsast"
)

var defaultCheckLabels = []string{"check", "valid", "sanit"}

func step(file string, line int, method, short, variableInfo string) ngsast.DataflowStep {
	s := ngsast.DataflowStep{
		Location: ngsast.StepLocation{
			FileName:        file,
			LineNumber:      line,
			MethodName:      method,
			ShortMethodName: short,
		},
	}
	if variableInfo != "" {
		s.VariableInfo = json.RawMessage(variableInfo)
	}
	return s
}

func findingWithSteps(steps ...ngsast.DataflowStep) ngsast.Finding {
	return ngsast.Finding{
		ID:       "f1",
		Type:     "vuln",
		Category: "SQL Injection",
		Details:  ngsast.Details{Dataflow: ngsast.Dataflow{List: steps}},
	}
}

func TestNormalizeDataflowTrail(t *testing.T) {
	f := findingWithSteps(
		step("app/handlers.py", 10, "app.handlers:search", "search", `{"Parameter":{"symbol":"term"}}`),
		step("app/db.py", 22, "app.db:run_query", "run_query", `{"local":{"symbol":"query"}}`),
		step("app/db.py", 24, "app.db:run_query", "run_query", `{"local":{"symbol":"query"}}`),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)

	assert.Equal(t, []string{"term", "query"}, trace.TrackedSymbols)
	assert.Equal(t, []string{"app/handlers.py:10", "app/db.py:22", "app/db.py:24"}, trace.Locations)
	assert.Equal(t, "app/handlers.py:10", trace.SourceMethod)
	assert.Equal(t, "app/db.py:24", trace.SinkMethod)
	assert.Equal(t, []string{"search", "run_query", "run_query"}, trace.Methods)
}

func TestNormalizeDataflowStoplist(t *testing.T) {
	f := findingWithSteps(
		step("a.js", 1, "m1", "m1", `{"Parameter":{"symbol":"this"}}`),
		step("a.js", 2, "m2", "m2", `{"Parameter":{"symbol":"self"}}`),
		step("a.js", 3, "m3", "m3", `{"Parameter":{"symbol":"req"}}`),
		step("a.js", 4, "m4", "m4", `{"Parameter":{"symbol":"res"}}`),
		step("a.js", 5, "m5", "m5", `{"Parameter":{"symbol":"p1"}}`),
		step("a.js", 6, "m6", "m6", `{"Parameter":{"symbol":"tmp____obj_1"}}`),
		step("a.js", 7, "m7", "m7", `{"Parameter":{"symbol":"payload"}}`),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"payload"}, trace.TrackedSymbols)
}

func TestNormalizeDataflowCSharpDtoFilter(t *testing.T) {
	csharp := findingWithSteps(
		step("Controllers/Users.cs", 5, "Users.Create", "Create", `{"Parameter":{"symbol":"userDto"}}`),
	)
	other := findingWithSteps(
		step("controllers/users.java", 5, "Users.create", "create", `{"Parameter":{"symbol":"userDto"}}`),
	)

	assert.Empty(t, NormalizeDataflow(csharp, defaultCheckLabels).TrackedSymbols)
	assert.Equal(t, []string{"userDto"}, NormalizeDataflow(other, defaultCheckLabels).TrackedSymbols)
}

func TestNormalizeDataflowSkipsPropertyAccessors(t *testing.T) {
	f := findingWithSteps(
		step("Models/User.cs", 8, "User.get_Name", "get_Name", `{"Parameter":{"symbol":"name"}}`),
		step("Models/User.cs", 9, "User.set_Name", "set_Name", `{"Parameter":{"symbol":"value"}}`),
		step("Controllers/User.cs", 20, "UserController.Save", "Save", `{"Parameter":{"symbol":"payload"}}`),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"payload"}, trace.TrackedSymbols)
	assert.Equal(t, []string{"Controllers/User.cs:20"}, trace.Locations)
}

func TestNormalizeDataflowSkipsInvalidLocations(t *testing.T) {
	f := findingWithSteps(
		step("N/A", 3, "m1", "m1", `{"Parameter":{"symbol":"a"}}`),
		step("real.py", 0, "m2", "m2", `{"Parameter":{"symbol":"b"}}`),
		step("", 4, "m3", "m3", `{"Parameter":{"symbol":"c"}}`),
		step("real.py", 9, "m4", "m4", `{"Parameter":{"symbol":"d"}}`),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"d"}, trace.TrackedSymbols)
	assert.Equal(t, []string{"real.py:9"}, trace.Locations)
	assert.Equal(t, "real.py:9", trace.SourceMethod)
}

func TestNormalizeDataflowAnonymousMethods(t *testing.T) {
	f := findingWithSteps(
		step("routes/index.js", 12, "index.js::program:handleRequest:anonymous", "anonymous", ""),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"handleRequest"}, trace.Methods)
}

func TestNormalizeDataflowCheckMethods(t *testing.T) {
	f := findingWithSteps(
		step("app/input.py", 3, "app.input:validateEmail", "validateEmail", ""),
		step("app/input.py", 9, "app.input:sanitizePath", "sanitizePath", ""),
		step("app/db.py", 30, "app.db:runQuery", "runQuery", ""),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"app.input:sanitizePath", "app.input:validateEmail"}, trace.CheckMethods)
}

func TestNormalizeDataflowEmptyShortMethodPlaceholder(t *testing.T) {
	f := findingWithSteps(
		step("a.py", 1, "a:m", "<empty>", ""),
		step("a.py", 2, "a:n", "n", ""),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"n"}, trace.Methods)
}

func TestNormalizeDataflowPercentDecodesLocations(t *testing.T) {
	f := findingWithSteps(
		step("src%2Fmain/App.java", 7, "App.run", "run", ""),
	)

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, []string{"src/main/App.java:7"}, trace.Locations)
	assert.Equal(t, "src%2Fmain/App.java:7", trace.SourceMethod)
}

func TestNormalizeDataflowKeepsSuppliedEndpoints(t *testing.T) {
	f := findingWithSteps(
		step("a.py", 1, "a:m", "m", ""),
		step("b.py", 2, "b:n", "n", ""),
	)
	f.Details.SourceMethod = "a:m"
	f.Details.SinkMethod = "b:n"

	trace := NormalizeDataflow(f, defaultCheckLabels)
	assert.Equal(t, "a:m", trace.SourceMethod)
	assert.Equal(t, "b:n", trace.SinkMethod)
}

func TestNormalizeDataflowEmptyDataflow(t *testing.T) {
	trace := NormalizeDataflow(findingWithSteps(), defaultCheckLabels)
	assert.Empty(t, trace.TrackedSymbols)
	assert.Empty(t, trace.Locations)
	assert.Empty(t, trace.Methods)
	assert.Empty(t, trace.CheckMethods)
	assert.Empty(t, trace.SourceMethod)
	assert.Empty(t, trace.SinkMethod)
}
